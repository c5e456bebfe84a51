package config

import (
	"flag"
	"os"

	"github.com/dkurilov/boardpass/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   bind address of the REST endpoint (default from Config)
//	-k string   HMAC secret for signing JWTs
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-k"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.EndpointAddr, "a", cfg.EndpointAddr, "bind address of the REST endpoint")
	fs.StringVar(&cfg.SecretKey, "k", cfg.SecretKey, "HMAC secret for signing JWTs")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
