package repomanager

import (
	"context"
	"database/sql"

	"github.com/learnhub/user-service/internal/dbx"
	"github.com/learnhub/user-service/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a database
// handle (connection pool or transaction) and exposes a migration hook.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}
