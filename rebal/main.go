// Command rebal computes how to rebalance a portfolio of index funds with
// new cash.
//
// Run "rebal help" for the list of commands, and COMP_INSTALL=1 rebal to
// install the shell completion.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/rebalance/cmd"
	"github.com/etnz/rebalance/config"
	"github.com/google/subcommands"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr))
}

// run executes the command line args and returns the exit code.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	commander := subcommands.NewCommander(flag.CommandLine, "rebal")
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	cmd.Completion(commander, flag.CommandLine).Complete("rebal")

	if err := flag.CommandLine.Parse(args); err != nil {
		return int(subcommands.ExitUsageError)
	}
	cmd.SetupLogging(stderr)

	// REBAL_CONFIG and the credentials are read when a command runs, after
	// the .env file is loaded.
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintln(stderr, err)
		return int(subcommands.ExitFailure)
	}

	if name := flag.Arg(0); name != "" && !registered(commander, name) {
		if found, code := cmd.RunExtension(name, flag.Args()[1:]); found {
			return code
		}
	}
	return int(commander.Execute(ctx))
}

func registered(c *subcommands.Commander, name string) bool {
	found := false
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		found = found || cmd.Name() == name
	})
	return found
}
