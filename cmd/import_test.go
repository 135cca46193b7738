package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const download = `Account Number,Investment Name,Symbol,Shares,Share Price,Total Value,
B,VANGUARD FEDERAL MONEY MARKET INVESTOR CL,VMFXX,500,1.00,500.00,
B,VANGUARD LARGE-CAP ETF,VV,2,250.00,500.00,



Account Number,Trade Date,Settlement Date,Transaction Type,Transaction Description,Investment Name,Symbol,Shares,Share Price,Principal Amount,Commissions and Fees,Net Amount,Accrued Interest,Account Type,
B,2025-01-02,2025-01-03,Buy,Buy,VANGUARD LARGE-CAP ETF,VV,2,250.00,-500.00,0.0,-500.00,0.0,CASH,
B,2025-01-02,2025-01-03,Sweep in,Sweep in,VANGUARD FEDERAL MONEY MARKET INVESTOR CL,VMFXX,500,1.00,500.00,0.0,500.00,0.0,CASH,
`

func TestImportCmd(t *testing.T) {
	dir, out := setup(t, brokerageConfig, "")
	csv := filepath.Join(dir, "download.csv")
	require.NoError(t, os.WriteFile(csv, []byte(download), 0o644))
	ledger := filepath.Join(dir, "transactions.jsonl")

	require.Equal(t, subcommands.ExitSuccess, run(t, &importCmd{}, csv))
	assert.Contains(t, out.String(), "1 new transactions")
	content, err := os.ReadFile(ledger)
	require.NoError(t, err)
	assert.Equal(t, `{"date":"2025-01-02","account":"B","symbol":"VV","shares":2,"amount":500,"currency":"USD","memo":"Buy"}`+"\n", string(content))

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, run(t, &importCmd{}, csv))
	assert.Contains(t, out.String(), "0 new transactions")
	again, err := os.ReadFile(ledger)
	require.NoError(t, err)
	assert.Equal(t, string(content), string(again), "importing twice adds nothing")
}

func TestImportCmd_DryRun(t *testing.T) {
	dir, out := setup(t, brokerageConfig, "")
	csv := filepath.Join(dir, "download.csv")
	require.NoError(t, os.WriteFile(csv, []byte(download), 0o644))

	require.Equal(t, subcommands.ExitSuccess, run(t, &importCmd{}, "-n", csv))
	assert.Contains(t, out.String(), "1 new transactions")
	_, err := os.Stat(filepath.Join(dir, "transactions.jsonl"))
	assert.True(t, os.IsNotExist(err), "dry run does not write the ledger")
}

func TestImportCmd_UnknownSymbol(t *testing.T) {
	dir, _ := setup(t, brokerageConfig, "")
	csv := filepath.Join(dir, "download.csv")
	withVTI := download + "B,2025-01-05,2025-01-06,Buy,Buy,VANGUARD TOTAL STOCK MARKET ETF,VTI,1,300.00,-300.00,0.0,-300.00,0.0,CASH,\n"
	require.NoError(t, os.WriteFile(csv, []byte(withVTI), 0o644))

	assert.Equal(t, subcommands.ExitFailure, run(t, &importCmd{}, csv))
	require.Equal(t, subcommands.ExitSuccess, run(t, &importCmd{}, "-skip-unknown", csv))
	content, err := os.ReadFile(filepath.Join(dir, "transactions.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(content), "\n"))
	assert.NotContains(t, string(content), "VTI")
}

func TestImportCmd_Usage(t *testing.T) {
	setup(t, brokerageConfig, "")
	assert.Equal(t, subcommands.ExitUsageError, run(t, &importCmd{}))
}
