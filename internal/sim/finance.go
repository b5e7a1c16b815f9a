package sim

import (
	"math"

	"kvartal/internal/rules"
)

// AnnuityPayment is the fixed monthly payment that amortizes principal plus
// interest over termMonths. Zero rate degrades to straight-line; zero term
// yields 0 (callers must not construct zero-term loans).
func AnnuityPayment(principal int64, annualRate float64, termMonths int) int64 {
	if termMonths == 0 {
		return 0
	}
	monthlyRate := annualRate / 100 / 12
	if monthlyRate == 0 {
		return int64(math.Round(float64(principal) / float64(termMonths)))
	}
	pow := math.Pow(1+monthlyRate, float64(termMonths))
	payment := float64(principal) * (monthlyRate * pow) / (pow - 1)
	return int64(math.Round(payment))
}

// NetWorth = cash + Σ property value − Σ loan debt. Always recomputed from
// its operands, never carried forward, so it cannot drift.
func NetWorth(cash int64, properties []Property, loans []Loan) int64 {
	total := cash
	for i := range properties {
		total += properties[i].CurrentValue
	}
	for i := range loans {
		total -= loans[i].RemainingPrincipal
	}
	return total
}

// SaleTax taxes positive profit only; renovation outlay counts into the cost
// basis.
func SaleTax(salePrice, purchasePrice, renovationCost int64, r *rules.Rules) int64 {
	profit := salePrice - purchasePrice - renovationCost
	if profit <= 0 {
		return 0
	}
	return int64(math.Round(float64(profit) * r.Tax.SaleProfitRate))
}

// PropertyMarketValue recomputes a property's value from the current market:
// phase multiplier, then every active event's price modifier compounded
// multiplicatively, then the overall price index, floored at the configured
// share of the purchase price.
func PropertyMarketValue(p Property, m Market, r *rules.Rules) int64 {
	value := float64(p.CurrentValue)

	switch m.Phase {
	case PhaseGrowth:
		value *= r.Market.GrowthValueMult
	case PhaseCrisis:
		value *= r.Market.CrisisValueMult
	}

	for _, ev := range m.ActiveEvents {
		value *= 1 + ev.PricePercent/100
	}

	value *= m.PriceIndex

	floor := float64(p.PurchasePrice) * r.Market.ValueFloorShare
	if value < floor {
		value = floor
	}
	return int64(math.Round(value))
}

// rentForPeriod prices one rent period: base rent scaled by the rent index
// and active event modifiers, minus the expense share of the period. A
// vacancy draw forfeits the payout for this period only.
func rentForPeriod(p Property, m Market, rnd Source) (rent int64, vacant bool) {
	if p.Strategy != StrategyRent || p.IsUnderRenovation {
		return 0, false
	}

	amount := float64(p.BaseRent) * m.RentIndex
	for _, ev := range m.ActiveEvents {
		amount *= 1 + ev.RentPercent/100
	}

	if rnd.Float64() < effectiveVacancy(m) {
		return 0, true
	}

	const monthMs = 30 * 24 * 60 * 60 * 1000
	expenseShare := float64(p.MonthlyExpenses) * float64(p.RentIntervalMs) / monthMs
	return int64(math.Round(amount - expenseShare)), false
}

// effectiveVacancy applies active event vacancy modifiers to the stored rate,
// clamped to [0, 1].
func effectiveVacancy(m Market) float64 {
	v := m.VacancyRate
	for _, ev := range m.ActiveEvents {
		v *= 1 + ev.VacancyPercent/100
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
