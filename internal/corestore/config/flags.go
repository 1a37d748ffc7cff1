package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/safedrop/internal/flagx"
)

// parseFlags applies the short flags:
//
//	-a string   listen address
//	-b string   blob backend ("fs", "s3" or "memory")
//	-d string   data directory of the fs backend
//	-l string   log level
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-b", "-d", "-l"})

	fs := flag.NewFlagSet("corestore", flag.ContinueOnError)
	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "listen address")
	fs.StringVar(&config.Backend, "b", config.Backend, "blob backend")
	fs.StringVar(&config.DataDir, "d", config.DataDir, "data directory")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
