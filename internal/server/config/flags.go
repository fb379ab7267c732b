package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/partsinventory/internal/flagx"
)

var serverFlags = []string{"-a", "-g", "-d", "-s", "-t", "-n", "-secure", "-k", "-r", "-l", "-p", "-m"}

// parseFlags overlays selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP listen address (e.g., ":3000")
//	-g string     gRPC health listen address
//	-d string     PostgreSQL DSN
//	-s string     session cookie signing secret
//	-t duration   session lifetime (e.g., "720h")
//	-n string     session cookie name
//	-secure       mark the session cookie Secure
//	-k string     session store: postgres, redis or memory
//	-r string     Redis URL or host:port
//	-l string     log level: debug, info, warn, error
//	-p duration   persistence call timeout
//	-m            run migrations on start
//
// Unrecognized arguments are filtered out with flagx.FilterArgs first so
// other components can share os.Args.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, serverFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP listen address")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC health listen address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SessionSecret, "s", config.SessionSecret, "session signing secret")
	fs.DurationVar(&config.SessionTTL, "t", config.SessionTTL, "session lifetime")
	fs.StringVar(&config.SessionCookieName, "n", config.SessionCookieName, "session cookie name")
	fs.BoolVar(&config.CookieSecure, "secure", config.CookieSecure, "secure session cookie")
	fs.StringVar(&config.SessionStore, "k", config.SessionStore, "session store kind")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis url")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.DurationVar(&config.PersistenceTimeout, "p", config.PersistenceTimeout, "persistence timeout")
	fs.BoolVar(&config.MigrateOnStart, "m", config.MigrateOnStart, "run migrations on start")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
