package sim

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Player actions. Each handler validates, then returns a new Player plus a
// tagged Result; on a failed Result the returned Player is the input,
// untouched. A non-nil error means missing reference configuration, which is
// a startup-ordering bug, not a player-facing condition.

// BuyWithCash purchases a listed property outright.
func (p *Processor) BuyWithCash(player Player, listing Property, now int64) (Player, Result) {
	if player.Cash < listing.PurchasePrice {
		return player, fail(fmt.Sprintf("Недостаточно средств. Нужно: %s, у вас: %s",
			FormatMoney(listing.PurchasePrice), FormatMoney(player.Cash)))
	}

	pl := player.Clone()
	pl.Cash -= listing.PurchasePrice
	pl.Properties = append(pl.Properties, p.ownedProperty(listing, now))
	p.recordPurchase(&pl)
	pl.NetWorth = NetWorth(pl.Cash, pl.Properties, pl.Loans)
	return pl, ok(fmt.Sprintf("Куплена %s", listing.Name))
}

// BuyWithMortgage purchases with the configured down payment and a mortgage
// at the difficulty preset rate.
func (p *Processor) BuyWithMortgage(player Player, listing Property, now int64) (Player, Result, error) {
	preset, err := p.rules.LoanPreset(player.Difficulty)
	if err != nil {
		return player, Result{}, err
	}

	downPayment := int64(math.Round(float64(listing.PurchasePrice) * p.rules.Loans.MortgageDownPaymentShare))
	if player.Cash < downPayment {
		return player, fail(fmt.Sprintf("Недостаточно средств для первоначального взноса. Нужно: %s",
			FormatMoney(downPayment))), nil
	}

	principal := listing.PurchasePrice - downPayment
	loan := Loan{
		ID:                 uuid.NewString(),
		Type:               LoanMortgage,
		Principal:          principal,
		RemainingPrincipal: principal,
		AnnualRate:         preset.BaseInterestRate,
		MonthlyPayment:     AnnuityPayment(principal, preset.BaseInterestRate, p.rules.Loans.MortgageTermMonths),
		PaymentIntervalMs:  p.rules.Timers.LoanPaymentIntervalMs,
		NextPaymentAt:      now + p.rules.Timers.LoanPaymentIntervalMs,
	}

	pl := player.Clone()
	prop := p.ownedProperty(listing, now)
	prop.LoanID = loan.ID
	loan.PropertyID = prop.ID

	pl.Cash -= downPayment
	pl.Properties = append(pl.Properties, prop)
	pl.Loans = append(pl.Loans, loan)
	p.recordPurchase(&pl)
	pl.NetWorth = NetWorth(pl.Cash, pl.Properties, pl.Loans)
	return pl, ok(fmt.Sprintf("Куплена %s в ипотеку", listing.Name)), nil
}

// SetStrategy switches a property between none/hold/rent/flip. Entering rent
// schedules the first period if no schedule survives from before; leaving
// rent clears it. Entering flip records the asking price, defaulting to the
// current value.
func (p *Processor) SetStrategy(player Player, propertyID string, strategy Strategy, salePrice int64, now int64) (Player, Result) {
	switch strategy {
	case StrategyNone, StrategyHold, StrategyRent, StrategyFlip:
	default:
		return player, fail(fmt.Sprintf("Неизвестная стратегия: %s", strategy))
	}

	pl := player.Clone()
	prop, found := pl.PropertyByID(propertyID)
	if !found {
		return player, fail("Объект не найден")
	}

	prop.Strategy = strategy

	if strategy == StrategyFlip {
		if salePrice <= 0 {
			salePrice = prop.CurrentValue
		}
		prop.SalePrice = salePrice
	} else {
		prop.SalePrice = 0
	}

	if strategy == StrategyRent {
		if prop.NextRentAt == 0 {
			prop.NextRentAt = now + prop.RentIntervalMs
		}
	} else {
		prop.NextRentAt = 0
	}

	return pl, ok(fmt.Sprintf("Стратегия %s: %s", prop.Name, strategy))
}

// StartRenovation kicks off a renovation tier: deducts the cost, bumps the
// value and schedules completion. Completion itself is the tick processor's
// job.
func (p *Processor) StartRenovation(player Player, propertyID, tier string, now int64) (Player, Result, error) {
	t, err := p.rules.RenovationTierByName(tier)
	if err != nil {
		return player, Result{}, err
	}

	pl := player.Clone()
	prop, found := pl.PropertyByID(propertyID)
	if !found {
		return player, fail("Объект не найден"), nil
	}
	if prop.IsUnderRenovation {
		return player, fail("Ремонт уже идёт"), nil
	}

	cost := int64(math.Round(float64(prop.PurchasePrice) * t.CostShare))
	if pl.Cash < cost {
		return player, fail(fmt.Sprintf("Недостаточно средств для ремонта. Нужно: %s, у вас: %s. Не хватает: %s",
			FormatMoney(cost), FormatMoney(pl.Cash), FormatMoney(cost-pl.Cash))), nil
	}

	pl.Cash -= cost
	prop.IsUnderRenovation = true
	prop.RenovationStartsAt = now
	prop.RenovationEndsAt = now + t.DurationMs
	prop.CurrentValue = int64(math.Round(float64(prop.CurrentValue) * t.ValueMult))
	prop.RenovationSpent += cost
	pl.Stats.TotalRenovations++
	p.awardExperience(&pl, t.Experience)
	pl.NetWorth = NetWorth(pl.Cash, pl.Properties, pl.Loans)
	return pl, ok(fmt.Sprintf("Начат ремонт (%s) на %s", tier, prop.Name)), nil
}

// BorrowAgainst raises a secured loan on an unencumbered property at the
// configured share of its current value.
func (p *Processor) BorrowAgainst(player Player, propertyID string, now int64) (Player, Result, error) {
	preset, err := p.rules.LoanPreset(player.Difficulty)
	if err != nil {
		return player, Result{}, err
	}

	pl := player.Clone()
	prop, found := pl.PropertyByID(propertyID)
	if !found {
		return player, fail("Объект не найден"), nil
	}
	if prop.LoanID != "" {
		return player, fail("На объект уже оформлен кредит"), nil
	}

	rate := preset.BaseInterestRate + p.rules.Loans.SecuredRateMarkup
	principal := int64(math.Round(float64(prop.CurrentValue) * p.rules.Loans.SecuredShare))
	loan := Loan{
		ID:                 uuid.NewString(),
		PropertyID:         prop.ID,
		Type:               LoanSecured,
		Principal:          principal,
		RemainingPrincipal: principal,
		AnnualRate:         rate,
		MonthlyPayment:     AnnuityPayment(principal, rate, p.rules.Loans.SecuredTermMonths),
		PaymentIntervalMs:  p.rules.Timers.LoanPaymentIntervalMs,
		NextPaymentAt:      now + p.rules.Timers.LoanPaymentIntervalMs,
	}

	prop.LoanID = loan.ID
	pl.Cash += principal
	pl.Loans = append(pl.Loans, loan)
	pl.NetWorth = NetWorth(pl.Cash, pl.Properties, pl.Loans)
	return pl, ok(fmt.Sprintf("Взят залог под %s на сумму %s", prop.Name, FormatMoney(principal))), nil
}

// ownedProperty converts a market listing into an owned property with a
// fresh identity and neutral lifecycle state.
func (p *Processor) ownedProperty(listing Property, now int64) Property {
	prop := listing
	if prop.ID == "" {
		prop.ID = uuid.NewString()
	}
	if prop.RentIntervalMs == 0 {
		prop.RentIntervalMs = p.rules.Timers.RentIntervalMs
	}
	if prop.CurrentValue == 0 {
		prop.CurrentValue = prop.PurchasePrice
	}
	prop.Strategy = StrategyNone
	prop.NextRentAt = 0
	prop.SalePrice = 0
	prop.LoanID = ""
	prop.IsUnderRenovation = false
	prop.RenovationStartsAt = 0
	prop.RenovationEndsAt = 0
	prop.PurchasedAt = now
	return prop
}

func (p *Processor) recordPurchase(pl *Player) {
	if owned := int64(len(pl.Properties)); owned > pl.Stats.PropertiesOwned {
		pl.Stats.PropertiesOwned = owned
	}
	p.awardExperience(pl, p.rules.Experience.PurchaseAward)
}
