// Package config reads the rebal configuration file.
//
// The file is YAML. Every key is optional:
//
//	currency: USD
//	ledger: transactions.jsonl
//	quotes: yahoo
//	funds:            # replaces the default catalog
//	  - symbol: VV
//	    class: stock
//	    weight: 0.30
//	    risk: 3
//	    whole_shares: true
//	    description: US large cap
//	accounts:
//	  - id: "12345678"
//	    kind: brokerage
//	    split: 60/40
//	    cash: 1000
//	outside:          # held elsewhere, counts toward the brokerage account
//	  - name: alpaca
//	    source: alpaca  # value is the Alpaca account equity
//	    symbols: [VV, VO, VB]
//	  - name: 401k
//	    value: 25000
//	    symbols: [VTC]
//
// Secrets, like the Alpaca API keys, are not part of the file: they are read
// from the environment, that LoadEnv completes with a .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/etnz/rebalance"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigEnv names the variable holding the default configuration path.
	ConfigEnv = "REBAL_CONFIG"
	// LedgerEnv names the variable holding the default ledger path.
	LedgerEnv = "REBAL_LEDGER"

	// SourceAlpaca values outside holdings at the Alpaca account equity.
	SourceAlpaca = "alpaca"
)

// DefaultOutsideSymbols are the funds outside holdings stand for when the
// configuration does not say: US stocks.
var DefaultOutsideSymbols = []string{"VV", "VO", "VB"}

// Config is the content of the configuration file.
type Config struct {
	Currency string    `yaml:"currency"`
	Ledger   string    `yaml:"ledger"`
	Quotes   string    `yaml:"quotes"` // yahoo, alpaca or none
	Funds    []Fund    `yaml:"funds"`
	Accounts []Account `yaml:"accounts"`
	Outside  []Outside `yaml:"outside"`
}

// Fund is one row of the catalog table.
type Fund struct {
	Symbol      string  `yaml:"symbol"`
	Class       string  `yaml:"class"`
	Weight      Decimal `yaml:"weight"`
	Risk        int     `yaml:"risk"`
	WholeShares bool    `yaml:"whole_shares"`
	Description string  `yaml:"description"`
}

// Account is an account to rebalance.
type Account struct {
	ID    string  `yaml:"id"`
	Kind  string  `yaml:"kind"`
	Split string  `yaml:"split"` // "60/40", empty for the kind's default
	Cash  Decimal `yaml:"cash"`
}

// Outside is value held in an account rebal does not manage.
type Outside struct {
	Name    string   `yaml:"name"`
	Source  string   `yaml:"source"` // empty or alpaca
	Value   Decimal  `yaml:"value"`
	Symbols []string `yaml:"symbols"`
}

// FundSymbols returns the upper case symbols the holdings stand for, or
// DefaultOutsideSymbols.
func (o Outside) FundSymbols() []string {
	if len(o.Symbols) == 0 {
		return slices.Clone(DefaultOutsideSymbols)
	}
	symbols := make([]string, 0, len(o.Symbols))
	for _, s := range o.Symbols {
		symbols = append(symbols, strings.ToUpper(strings.TrimSpace(s)))
	}
	return symbols
}

// Title returns the name of the holdings, or their source.
func (o Outside) Title() string {
	switch {
	case o.Name != "":
		return o.Name
	case o.Source != "":
		return o.Source
	}
	return "outside"
}

// Decimal is a decimal number read from a YAML scalar without going
// through float64. "$" and thousands separators are accepted.
type Decimal struct{ decimal.Decimal }

func (d *Decimal) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: want a number", node.Line)
	}
	v := strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(node.Value), "$"), ",", "")
	parsed, err := decimal.NewFromString(v)
	if err != nil {
		return fmt.Errorf("line %d: invalid number %q", node.Line, node.Value)
	}
	d.Decimal = parsed
	return nil
}

// Parse decodes a configuration. Unknown keys are an error.
func Parse(r io.Reader) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Currency == "" {
		c.Currency = "USD"
	}
	return &c, nil
}

// Load reads the configuration file at path. A missing file is an empty
// configuration.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("no configuration file", "path", path)
		return Parse(strings.NewReader(""))
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Catalog builds the fund catalog, or returns the default one if the file
// has no funds.
func (c *Config) Catalog() (*rebalance.Catalog, error) {
	if len(c.Funds) == 0 {
		return rebalance.DefaultCatalog(), nil
	}
	funds := make([]rebalance.Fund, 0, len(c.Funds))
	for _, f := range c.Funds {
		class, err := rebalance.ParseAssetClass(f.Class)
		if err != nil {
			return nil, fmt.Errorf("fund %s: %w", f.Symbol, err)
		}
		funds = append(funds, rebalance.Fund{
			Symbol:      strings.ToUpper(strings.TrimSpace(f.Symbol)),
			Class:       class,
			Weight:      f.Weight.Decimal,
			Risk:        f.Risk,
			WholeShares: f.WholeShares,
			Description: f.Description,
		})
	}
	return rebalance.NewCatalog(funds...)
}

// EngineAccounts converts the accounts of the file. Splits are validated,
// cash is in the configured currency.
func (c *Config) EngineAccounts() ([]rebalance.Account, error) {
	accounts := make([]rebalance.Account, 0, len(c.Accounts))
	for _, a := range c.Accounts {
		kind, err := rebalance.ParseAccountKind(a.Kind)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", a.ID, err)
		}
		account := rebalance.Account{ID: a.ID, Kind: kind, Cash: rebalance.M(a.Cash.Decimal, c.Currency)}
		if a.Split != "" {
			if account.Split, err = rebalance.ParseSplit(a.Split); err != nil {
				return nil, fmt.Errorf("account %s: %w", a.ID, err)
			}
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// LedgerPath returns the ledger file: $REBAL_LEDGER, the configured one, or
// transactions.jsonl.
func (c *Config) LedgerPath() string {
	if p := os.Getenv(LedgerEnv); p != "" {
		return p
	}
	if c.Ledger != "" {
		return c.Ledger
	}
	return "transactions.jsonl"
}

// DefaultPath returns $REBAL_CONFIG or rebal.yaml.
func DefaultPath() string {
	if p := os.Getenv(ConfigEnv); p != "" {
		return p
	}
	return "rebal.yaml"
}

// LoadEnv loads the .env file of the working directory into the process
// environment, without overriding variables already set. A missing file is
// not an error.
func LoadEnv() error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("no .env file, using the process environment")
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalid .env file: %w", err)
	}
	slog.Debug(".env file loaded")
	return nil
}
