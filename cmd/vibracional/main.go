package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"vibracional/internal/config"
	"vibracional/internal/logger"
)

var version = "dev"

// CLI is the root command line. Global settings come from config.Config so
// every command sees the same flags and environment.
var CLI struct {
	config.Config `embed:""`

	Version kong.VersionFlag `help:"Print version and exit."`

	Serve   ServeCmd   `cmd:"" default:"1" help:"Run the HTTP API (default)."`
	Migrate MigrateCmd `cmd:"" help:"Create or update the database schema."`
	Sweep   SweepCmd   `cmd:"" help:"Purge expired sessions once and exit."`
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := kong.Parse(&CLI,
		kong.Name("vibracional"),
		kong.Description("Daily practice progress and streak tracker."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": version},
	)

	if err := logger.Init(logger.Config{
		Level: CLI.LogLevel,
		File:  CLI.LogFile,
		JSON:  CLI.LogJSON,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := ctx.Run(&CLI.Config); err != nil {
		logger.Fatal("command failed", "cmd", ctx.Command(), "err", err)
	}
}
