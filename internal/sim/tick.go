package sim

import "math"

// Tick advances one wall-clock interval of the simulation. Step order is
// significant: rent before expenses before loan payments before renovation
// completion before sale resolution before market advancement. Later steps
// read values earlier steps just updated.
//
// Safe to call repeatedly with monotonically increasing now: every due
// deadline is pushed past now the moment it is processed, so each crossed
// instant is handled exactly once. Backlog spanning multiple intervals is
// the catch-up processor's job, not Tick's.
func (p *Processor) Tick(player Player, market Market, now int64) (Outcome, error) {
	if err := p.checkIntegrity(&player); err != nil {
		p.log.Error("tick aborted: corrupted state", "player_id", player.ID, "err", err)
		return Outcome{}, err
	}

	pl := player.Clone()
	mk := market.Clone()
	log := &eventLog{}

	// 1. Rent: one period per due property, rescheduled from now (not +=)
	// so a stalled tick loop cannot build intra-tick backlog.
	for i := range pl.Properties {
		prop := &pl.Properties[i]
		if prop.Strategy != StrategyRent || prop.IsUnderRenovation ||
			prop.NextRentAt == 0 || prop.NextRentAt > now {
			continue
		}
		rent, vacant := rentForPeriod(*prop, mk, p.rnd)
		switch {
		case vacant:
			log.add(now, SeverityWarning, "Арендатор съехал из %s, потерян период аренды", prop.Name)
		case rent > 0:
			pl.Cash += rent
			pl.Stats.TotalRentIncome += rent
			p.awardExperience(&pl, rent/p.rules.Experience.RentDivisor)
			log.add(now, SeveritySuccess, "Аренда %s: +%s", prop.Name, FormatMoney(rent))
		}
		prop.NextRentAt = now + prop.RentIntervalMs
	}

	// 2. Portfolio maintenance, at most once per rent interval regardless of
	// tick cadence.
	if now-pl.LastExpenseAppliedAt >= p.rules.Timers.RentIntervalMs {
		for i := range pl.Properties {
			pl.Cash -= pl.Properties[i].MonthlyExpenses
		}
		pl.LastExpenseAppliedAt = now
	}

	// 3. Loan payments.
	var totalPayments int64
	for i := range pl.Loans {
		loan := &pl.Loans[i]
		if loan.NextPaymentAt > now {
			continue
		}
		pl.Cash -= loan.MonthlyPayment
		totalPayments += loan.MonthlyPayment
		applyAmortization(loan)
		loan.NextPaymentAt = now + loan.PaymentIntervalMs
	}
	if totalPayments > 0 {
		log.add(now, SeverityInfo, "💳 Ежемесячный платёж по кредитам: -%s", FormatMoney(totalPayments))
	}
	pl.Loans = removePaidOff(pl.Loans, &pl, func() {
		log.add(now, SeveritySuccess, "✅ Кредит погашен!")
	})

	// 4. Renovation completion.
	for i := range pl.Properties {
		prop := &pl.Properties[i]
		if !prop.IsUnderRenovation || prop.RenovationEndsAt == 0 || now < prop.RenovationEndsAt {
			continue
		}
		prop.IsUnderRenovation = false
		prop.RenovationStartsAt = 0
		prop.RenovationEndsAt = 0
		prop.Condition = NextCondition(prop.Condition)
		log.add(now, SeveritySuccess, "🔨 Ремонт завершён на объекте %s", prop.Name)
	}

	// 5. Flip-sale resolution: a Bernoulli trial per listed property per
	// tick, banded by asking price vs fresh market value.
	kept := pl.Properties[:0]
	for i := range pl.Properties {
		prop := pl.Properties[i]
		if prop.Strategy != StrategyFlip || prop.IsUnderRenovation || prop.SalePrice == 0 {
			kept = append(kept, prop)
			continue
		}
		marketValue := PropertyMarketValue(prop, mk, p.rules)
		if p.rnd.Float64() >= p.saleChance(prop.SalePrice, marketValue) {
			kept = append(kept, prop)
			continue
		}
		p.settleSale(&pl, prop, now, log)
	}
	pl.Properties = kept

	// 6. Valuation refresh, throttled like step 2.
	if now-pl.LastValuationAppliedAt >= p.rules.Timers.RentIntervalMs {
		for i := range pl.Properties {
			pl.Properties[i].CurrentValue = PropertyMarketValue(pl.Properties[i], mk, p.rules)
		}
		pl.LastValuationAppliedAt = now
	}

	// 7. Market advancement.
	mk.Phase = AdvancePhase(mk.Phase, p.rules, p.rnd)
	mk = DriftIndices(mk, p.rules)
	mk = ActivateEvents(mk, now)
	mk.LastUpdatedAt = now

	// 8. Negative cash is a valid state; it is only signaled, never enforced.
	if pl.Cash < 0 {
		log.add(now, SeverityError, "⚠️ Отрицательный баланс! Нужно срочно продать активы или взять кредит.")
	}

	// 9.
	pl.NetWorth = NetWorth(pl.Cash, pl.Properties, pl.Loans)

	return Outcome{Player: pl, Market: mk, Events: log.events}, nil
}

func (p *Processor) saleChance(askingPrice, marketValue int64) float64 {
	if marketValue <= 0 {
		return p.rules.Flip.DefaultChance
	}
	ratio := float64(askingPrice) / float64(marketValue)
	for _, band := range p.rules.Flip.Bands {
		if ratio <= band.MaxRatio {
			return band.Chance
		}
	}
	return p.rules.Flip.DefaultChance
}

// settleSale credits the sale net of tax, pays off the attached loan from
// cash, updates stats and narrates the realized profit.
func (p *Processor) settleSale(pl *Player, prop Property, now int64, log *eventLog) {
	salePrice := prop.SalePrice
	tax := SaleTax(salePrice, prop.PurchasePrice, prop.RenovationSpent, p.rules)
	profit := salePrice - prop.PurchasePrice - tax

	pl.Cash += salePrice - tax

	if prop.LoanID != "" {
		if loan, found := pl.LoanByID(prop.LoanID); found {
			pl.Cash -= loan.RemainingPrincipal
			pl.Loans = deleteLoan(pl.Loans, loan.ID)
		}
	}

	pl.Stats.TotalSales++
	p.awardExperience(pl, p.rules.Experience.SaleAward)
	log.add(now, SeveritySuccess, "Продана %s за %s. Прибыль: %s",
		prop.Name, FormatMoney(salePrice), FormatMoney(profit))
}

// awardExperience adds experience and re-derives the level from the
// threshold table. The progression layer may also award experience through
// the same path.
func (p *Processor) awardExperience(pl *Player, amount int64) {
	if amount <= 0 {
		return
	}
	pl.Experience += amount
	pl.Level = p.rules.LevelFor(pl.Experience)
}

// AwardExperience is the progression boundary's entry point for mission and
// achievement rewards.
func (p *Processor) AwardExperience(pl Player, amount int64) Player {
	out := pl.Clone()
	p.awardExperience(&out, amount)
	return out
}

// applyAmortization applies one payment: interest accrues on the remaining
// principal, the rest of the payment reduces it, never below zero.
func applyAmortization(loan *Loan) {
	interest := float64(loan.RemainingPrincipal) * loan.AnnualRate / 100 / 12
	principalPortion := float64(loan.MonthlyPayment) - interest
	remaining := float64(loan.RemainingPrincipal) - principalPortion
	if remaining < 0 {
		remaining = 0
	}
	loan.RemainingPrincipal = int64(math.Round(remaining))
}

// removePaidOff filters out loans with zero principal, detaching them from
// their properties and invoking onPaid once per removed loan.
func removePaidOff(loans []Loan, pl *Player, onPaid func()) []Loan {
	out := loans[:0]
	for _, loan := range loans {
		if loan.RemainingPrincipal > 0 {
			out = append(out, loan)
			continue
		}
		if loan.PropertyID != "" {
			if prop, found := pl.PropertyByID(loan.PropertyID); found && prop.LoanID == loan.ID {
				prop.LoanID = ""
			}
		}
		onPaid()
	}
	return out
}

func deleteLoan(loans []Loan, id string) []Loan {
	out := loans[:0]
	for _, loan := range loans {
		if loan.ID != id {
			out = append(out, loan)
		}
	}
	return out
}
