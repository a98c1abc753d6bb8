// Package migrations embeds the goose SQL migrations for the user service
// schema so they can be applied from the binary itself.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
