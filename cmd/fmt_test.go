package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/subcommands"
)

// TestFormatLedgerInPlace tests the default behavior (writes to the ledger file)
func TestFormatLedgerInPlace(t *testing.T) {
	originalLedgerContent := `{"date":"2025-02-01","account":"B","symbol":"VTC","shares":1,"amount":80}
{"account":"B","date":"2025-01-02","symbol":"VV","amount":250,"shares":1, "memo":"Buy"}
`
	expectedFormattedContent := `{"date":"2025-01-02","account":"B","symbol":"VV","shares":1,"amount":250,"currency":"USD","memo":"Buy"}
{"date":"2025-02-01","account":"B","symbol":"VTC","shares":1,"amount":80,"currency":"USD"}
`
	dir, _ := setup(t, "currency: USD\n", originalLedgerContent)

	if status := run(t, &fmtCmd{}); status != subcommands.ExitSuccess {
		t.Errorf("Expected ExitSuccess, got %v", status)
	}

	content, err := os.ReadFile(filepath.Join(dir, "transactions.jsonl"))
	if err != nil {
		t.Fatalf("Failed to read ledger file: %v", err)
	}
	if string(content) != expectedFormattedContent {
		t.Errorf("Formatted ledger mismatch:\nExpected:\n%s\nGot:\n%s", expectedFormattedContent, content)
	}
}

// TestFormatLedgerOutputFile tests that -o leaves the ledger untouched.
func TestFormatLedgerOutputFile(t *testing.T) {
	originalLedgerContent := `{"date":"2025-02-01","account":"B","symbol":"VTC","shares":1,"amount":80}
`
	dir, _ := setup(t, "currency: USD\n", originalLedgerContent)
	output := filepath.Join(dir, "formatted.jsonl")

	if status := run(t, &fmtCmd{}, "-o", output); status != subcommands.ExitSuccess {
		t.Errorf("Expected ExitSuccess, got %v", status)
	}

	original, _ := os.ReadFile(filepath.Join(dir, "transactions.jsonl"))
	if string(original) != originalLedgerContent {
		t.Errorf("Ledger was modified:\n%s", original)
	}
	formatted, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}
	want := `{"date":"2025-02-01","account":"B","symbol":"VTC","shares":1,"amount":80,"currency":"USD"}` + "\n"
	if string(formatted) != want {
		t.Errorf("Formatted ledger = %q, want %q", formatted, want)
	}
}

// TestFormatLedgerInvalid tests that an invalid ledger is left untouched.
func TestFormatLedgerInvalid(t *testing.T) {
	originalLedgerContent := `{"date":"2025-02-01","account":"B","symbol":"VTC","shares":1,"amount":80}
not json
`
	dir, _ := setup(t, "currency: USD\n", originalLedgerContent)

	if status := run(t, &fmtCmd{}); status != subcommands.ExitFailure {
		t.Errorf("Expected ExitFailure, got %v", status)
	}
	content, _ := os.ReadFile(filepath.Join(dir, "transactions.jsonl"))
	if string(content) != originalLedgerContent {
		t.Errorf("Ledger was modified:\n%s", content)
	}
}
