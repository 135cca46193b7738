// Package cmd implements the rebal command line: each subcommand loads the
// configuration, the ledger or a brokerage download, and prints a markdown
// report.
package cmd

import (
	"flag"
	"io"
	"log/slog"

	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&planCmd{}, "rebalancing")
	c.Register(&catalogCmd{}, "rebalancing")

	c.Register(&holdingCmd{}, "ledger")
	c.Register(&importCmd{}, "ledger")
	c.Register(&buyCmd{}, "ledger")
	c.Register(&sellCmd{}, "ledger")
	c.Register(&fmtCmd{}, "ledger")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "", "Path to the YAML configuration file (default $REBAL_CONFIG or rebal.yaml)")
var ledgerFile = flag.String("ledger", "", "Path to the ledger file (JSONL format), overrides the configuration")
var Verbose = flag.Bool("v", false, "Verbose logging")

// SetupLogging installs the default logger of the command line: text on w,
// debug messages only when verbose.
func SetupLogging(w io.Writer) {
	level := slog.LevelInfo
	if *Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
