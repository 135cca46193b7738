package cmd

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/require"
)

const brokerageConfig = `
currency: USD
quotes: none
accounts:
  - {id: B, kind: brokerage, cash: 1000}
`

// oneShareEach is a ledger holding one share of every default fund at 100.
const oneShareEach = `{"date":"2025-01-02","account":"B","symbol":"VV","shares":1,"amount":100}
{"date":"2025-01-02","account":"B","symbol":"VO","shares":1,"amount":100}
{"date":"2025-01-02","account":"B","symbol":"VB","shares":1,"amount":100}
{"date":"2025-01-02","account":"B","symbol":"VXUS","shares":1,"amount":100}
{"date":"2025-01-02","account":"B","symbol":"VWO","shares":1,"amount":100}
{"date":"2025-01-02","account":"B","symbol":"BNDX","shares":1,"amount":100}
{"date":"2025-01-02","account":"B","symbol":"VTC","shares":1,"amount":100}
`

// setup writes the configuration and the ledger in a temporary directory,
// points the global flags to them and captures the reports.
func setup(t *testing.T, cfg, ledger string) (dir string, out *bytes.Buffer) {
	t.Helper()
	dir = t.TempDir()
	configPath := filepath.Join(dir, "rebal.yaml")
	ledgerPath := filepath.Join(dir, "transactions.jsonl")
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o644))
	if ledger != "" {
		require.NoError(t, os.WriteFile(ledgerPath, []byte(ledger), 0o644))
	}

	t.Setenv("APCA_API_KEY_ID", "")

	oldConfig, oldLedger, oldStdout := *configFile, *ledgerFile, stdout
	*configFile, *ledgerFile = configPath, ledgerPath
	out = new(bytes.Buffer)
	stdout = out
	t.Cleanup(func() { *configFile, *ledgerFile, stdout = oldConfig, oldLedger, oldStdout })
	return dir, out
}

// run parses args for a command and executes it.
func run(t *testing.T, c subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(f)
	require.NoError(t, f.Parse(args))
	return c.Execute(context.Background(), f)
}
