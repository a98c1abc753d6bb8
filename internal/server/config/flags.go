package config

import (
	"flag"
	"os"
	"time"

	"github.com/learnhub/user-service/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-p int      HTTP listen port
//	-d string   PostgreSQL DSN
//	-r string   Redis URL (empty disables the external cache)
//	-s string   JWT HMAC secret key
//	-t int      default cache TTL, seconds
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-p", "-d", "-r", "-s", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.IntVar(&config.Port, "p", config.Port, "HTTP listen port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL")
	fs.StringVar(&config.JWTSecret, "s", config.JWTSecret, "JWT secret key")

	cacheTTLSeconds := fs.Int("t", int(config.CacheTTL.Seconds()), "cache TTL (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.CacheTTL = time.Duration(*cacheTTLSeconds) * time.Second
}
