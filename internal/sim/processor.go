package sim

import (
	"fmt"
	"log/slog"

	"kvartal/internal/rules"
)

// Processor advances game state. It holds the rules set and the random
// source; state itself always travels through arguments and return values.
type Processor struct {
	rules *rules.Rules
	rnd   Source
	log   *slog.Logger
}

func NewProcessor(r *rules.Rules, rnd Source, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{rules: r, rnd: rnd, log: logger}
}

func (p *Processor) Rules() *rules.Rules { return p.rules }

// Outcome is what one processor invocation produced: the successor state and
// the ordered narration of everything that happened. The caller persists and
// renders; the processor performs no I/O.
type Outcome struct {
	Player Player
	Market Market
	Events []Event
}

// checkIntegrity validates cross-references before a tick touches anything.
// A violation means corrupted state, not a player-triggerable condition, so
// it aborts the whole invocation.
func (p *Processor) checkIntegrity(pl *Player) error {
	loanIDs := make(map[string]bool, len(pl.Loans))
	for i := range pl.Loans {
		l := &pl.Loans[i]
		if l.RemainingPrincipal < 0 {
			return fmt.Errorf("loan %s has negative remaining principal %d", l.ID, l.RemainingPrincipal)
		}
		loanIDs[l.ID] = true
	}
	for i := range pl.Properties {
		prop := &pl.Properties[i]
		if prop.LoanID != "" && !loanIDs[prop.LoanID] {
			return fmt.Errorf("property %s references missing loan %s", prop.ID, prop.LoanID)
		}
		if prop.NextRentAt != 0 && (prop.Strategy != StrategyRent || prop.IsUnderRenovation) {
			// Paused schedules keep their deadline; only a schedule on a
			// non-rent property is corrupt.
			if prop.Strategy != StrategyRent {
				return fmt.Errorf("property %s has a rent schedule but strategy %q", prop.ID, prop.Strategy)
			}
		}
	}
	return nil
}
