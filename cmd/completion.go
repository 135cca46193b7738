package cmd

import (
	"flag"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// flagPredictors completes the values of flags by name. Other flags take
// any value, boolean ones none.
var flagPredictors = map[string]complete.Predictor{
	"config":   predict.Files("*.yaml"),
	"ledger":   predict.Files("*.jsonl"),
	"vanguard": predict.Files("*.csv"),
	"o":        predict.Files("*"),
	"quotes":   predict.Set{"yahoo", "alpaca", "none"},
	"cash":     predict.Set{"brokerage=", "roth=", "traditional="},
	"split":    predict.Set{"brokerage=", "roth=", "traditional="},
}

// argPredictors completes the positional arguments of a command.
var argPredictors = map[string]complete.Predictor{
	"import": predict.Files("*.csv"),
}

// Completion returns the shell completion of the commands registered in c
// and of its global flags.
func Completion(c *subcommands.Commander, global *flag.FlagSet) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: predictors(global),
	}
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(fs)
		root.Sub[cmd.Name()] = &complete.Command{
			Flags: predictors(fs),
			Args:  argPredictors[cmd.Name()],
		}
	})
	return root
}

func predictors(fs *flag.FlagSet) map[string]complete.Predictor {
	m := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) {
		if p, ok := flagPredictors[f.Name]; ok {
			m[f.Name] = p
			return
		}
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			m[f.Name] = predict.Nothing
			return
		}
		m[f.Name] = predict.Something
	})
	return m
}
