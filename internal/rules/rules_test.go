package rules

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	r, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r.Timers.RentIntervalMs != 60_000 {
		t.Fatalf("rent interval = %d", r.Timers.RentIntervalMs)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	raw := []byte("timers:\n  rent_interval_ms: 120000\ntax:\n  sale_profit_rate: 0.2\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r.Timers.RentIntervalMs != 120_000 {
		t.Fatalf("override ignored: %d", r.Timers.RentIntervalMs)
	}
	if r.Tax.SaleProfitRate != 0.2 {
		t.Fatalf("tax override ignored: %f", r.Tax.SaleProfitRate)
	}
	// Untouched sections keep their defaults.
	if r.Loans.MortgageTermMonths != 120 {
		t.Fatalf("default lost: %d", r.Loans.MortgageTermMonths)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	raw := []byte("timers:\n  rent_interval_ms: -5\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidateMissingPreset(t *testing.T) {
	r := Default()
	delete(r.Loans.Presets, DifficultyHard)
	if err := r.Validate(); err == nil {
		t.Fatalf("expected error for missing preset")
	}
}

func TestLoanPreset(t *testing.T) {
	r := Default()
	p, err := r.LoanPreset(DifficultyEasy)
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	if p.BaseInterestRate != 9.5 || p.MaxLTV != 0.8 {
		t.Fatalf("easy preset wrong: %+v", p)
	}
	if _, err := r.LoanPreset("nightmare"); err == nil {
		t.Fatalf("expected error for unknown difficulty")
	}
}

func TestLevelFor(t *testing.T) {
	r := Default()
	tests := []struct {
		exp  int64
		want int
	}{
		{exp: 0, want: 1},
		{exp: 499, want: 1},
		{exp: 500, want: 2},
		{exp: 7_499, want: 5},
		{exp: 30_000, want: 10},
		{exp: 1_000_000, want: 10},
	}
	for _, tc := range tests {
		if got := r.LevelFor(tc.exp); got != tc.want {
			t.Fatalf("LevelFor(%d) = %d want %d", tc.exp, got, tc.want)
		}
	}
}

func TestLevelTitle(t *testing.T) {
	r := Default()
	if got := r.LevelTitle(1); got != "Начинающий инвестор" {
		t.Fatalf("title = %q", got)
	}
	if got := r.LevelTitle(99); got != "" {
		t.Fatalf("unknown level must yield empty title, got %q", got)
	}
}

func TestStartingCash(t *testing.T) {
	r := Default()
	if c, err := r.StartingCash(DifficultyHard); err != nil || c != 1_000_000 {
		t.Fatalf("hard cash = %d err = %v", c, err)
	}
	if _, err := r.StartingCash("impossible"); err == nil {
		t.Fatalf("expected error")
	}
}
