package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/config"
)

// stdout is where reports are printed.
var stdout io.Writer = os.Stdout

// loadConfig reads the configuration file selected by the -config flag.
func loadConfig() (*config.Config, error) {
	path := *configFile
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}

// ledgerPath returns the ledger file: the -ledger flag or the configured one.
func ledgerPath(c *config.Config) string {
	if *ledgerFile != "" {
		return *ledgerFile
	}
	return c.LedgerPath()
}

// DecodeLedger reads the ledger file. A missing file is an empty ledger.
func DecodeLedger(path, currency string) (*rebalance.Ledger, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("ledger does not exist, using an empty ledger instead", "path", path)
		return rebalance.NewLedger(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	l, err := rebalance.DecodeLedger(f, currency)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// EncodeLedger writes the ledger file. The file is replaced only once
// completely written.
func EncodeLedger(path string, l *rebalance.Ledger) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ledger-*.jsonl")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := rebalance.EncodeLedger(tmp, l); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// printMarkdown renders markdown for the terminal. When stdout is not a
// terminal the auto style leaves the text mostly untouched.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	fmt.Fprint(stdout, out)
}
