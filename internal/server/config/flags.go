package config

import (
	"flag"
	"os"
	"time"

	"github.com/upmonhq/upmon/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":4000")
//	-b string   store backend ("file", "postgres", "memory")
//	-f string   data directory for the file backend
//	-d string   PostgreSQL DSN
//	-s string   hashing secret
//	-m int      per-user check quota
//	-t int      token validity, minutes
//
// os.Args is first filtered to only the flags handled here (via
// flagx.FilterArgs) so this package never collides with flags owned by
// other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-b", "-f", "-d", "-s", "-m", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.StoreBackend, "b", config.StoreBackend, "store backend")
	fs.StringVar(&config.DataDir, "f", config.DataDir, "data directory for the file backend")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.HashingSecret, "s", config.HashingSecret, "hashing secret")
	fs.IntVar(&config.MaxChecks, "m", config.MaxChecks, "per-user check quota")

	tokenValidity := fs.Int("t", int(config.TokenValidity.Minutes()), "token validity (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidity = time.Duration(*tokenValidity) * time.Minute
}
