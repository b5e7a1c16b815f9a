package sim

// CatchUp reconciles everything that should have happened between
// lastSyncedAt and now in one pass. Rent and loan periods are replayed in
// aggregate, O(properties + loans) rather than O(elapsed periods), while market
// indices and active events are recomputed once for now, since they are
// idempotent functions of current state and time. Vacancy is still drawn
// independently per missed period: catch-up reproduces the statistical
// process of a live run, not its exact outcomes.
func (p *Processor) CatchUp(player Player, market Market, lastSyncedAt, now int64) (Outcome, error) {
	if err := p.checkIntegrity(&player); err != nil {
		p.log.Error("catch-up aborted: corrupted state", "player_id", player.ID, "err", err)
		return Outcome{}, err
	}

	pl := player.Clone()
	mk := market.Clone()
	log := &eventLog{}

	// Events active during the offline window affect the replayed periods.
	mk = ActivateEvents(mk, now)

	// Rent: aggregate all missed periods per property, then jump the
	// deadline forward in one step.
	for i := range pl.Properties {
		prop := &pl.Properties[i]
		if prop.Strategy != StrategyRent || prop.IsUnderRenovation ||
			prop.NextRentAt == 0 || prop.NextRentAt > now {
			continue
		}
		periods := (now-prop.NextRentAt)/prop.RentIntervalMs + 1
		var total int64
		for n := int64(0); n < periods; n++ {
			rent, vacant := rentForPeriod(*prop, mk, p.rnd)
			if !vacant {
				total += rent
			}
		}
		if total > 0 {
			pl.Cash += total
			pl.Stats.TotalRentIncome += total
			p.awardExperience(&pl, total/p.rules.Experience.RentDivisor)
			log.add(now, SeveritySuccess, "Аренда %s (%d периодов): +%s",
				prop.Name, periods, FormatMoney(total))
		}
		prop.NextRentAt += periods * prop.RentIntervalMs
	}

	// Loans: payments must replay sequentially, since each period's interest
	// depends on the principal left by the previous one.
	for i := range pl.Loans {
		loan := &pl.Loans[i]
		if loan.NextPaymentAt > now {
			continue
		}
		periods := (now-loan.NextPaymentAt)/loan.PaymentIntervalMs + 1
		for n := int64(0); n < periods; n++ {
			if loan.RemainingPrincipal <= 0 {
				break
			}
			pl.Cash -= loan.MonthlyPayment
			applyAmortization(loan)
			log.add(now, SeverityInfo, "💳 Платёж по кредиту: -%s", FormatMoney(loan.MonthlyPayment))
		}
		loan.NextPaymentAt += periods * loan.PaymentIntervalMs
	}
	pl.Loans = removePaidOff(pl.Loans, &pl, func() {
		log.add(now, SeveritySuccess, "✅ Кредит погашен!")
	})

	// Renovation: a deadline either passed or it did not; elapsed period
	// count is irrelevant.
	for i := range pl.Properties {
		prop := &pl.Properties[i]
		if prop.IsUnderRenovation && prop.RenovationEndsAt != 0 && now >= prop.RenovationEndsAt {
			prop.IsUnderRenovation = false
			prop.RenovationStartsAt = 0
			prop.RenovationEndsAt = 0
			prop.Condition = NextCondition(prop.Condition)
			log.add(now, SeveritySuccess, "🔨 Ремонт завершён на объекте %s", prop.Name)
		}
	}

	// Valuation and market state, once for now.
	for i := range pl.Properties {
		pl.Properties[i].CurrentValue = PropertyMarketValue(pl.Properties[i], mk, p.rules)
	}
	pl.LastValuationAppliedAt = now
	pl.LastExpenseAppliedAt = now

	mk = DriftIndices(mk, p.rules)
	mk = ActivateEvents(mk, now)
	mk.LastUpdatedAt = now

	pl.NetWorth = NetWorth(pl.Cash, pl.Properties, pl.Loans)
	pl.LastSyncedAt = now

	return Outcome{Player: pl, Market: mk, Events: log.events}, nil
}

// Enter is the single session entry point a host calls after loading a
// snapshot and before resuming the live scheduler. Catch-up runs only when
// the player has been away longer than one tick interval.
func (p *Processor) Enter(player Player, market Market, events []Event, lastSyncedAt, now int64) (Outcome, error) {
	if lastSyncedAt == 0 {
		lastSyncedAt = player.CreatedAt
	}
	if now-lastSyncedAt <= p.rules.Timers.RentIntervalMs {
		return Outcome{Player: player, Market: market, Events: events}, nil
	}
	out, err := p.CatchUp(player, market, lastSyncedAt, now)
	if err != nil {
		return Outcome{}, err
	}
	out.Events = TruncateEvents(append(events, out.Events...))
	return out, nil
}
