package sim

import (
	"strings"
	"testing"

	"kvartal/internal/rules"
)

const testNow = int64(1_700_000_000_000)

func testProcessor(t *testing.T, rnd Source) *Processor {
	t.Helper()
	r := rules.Default()
	if err := r.Validate(); err != nil {
		t.Fatalf("default rules invalid: %v", err)
	}
	return NewProcessor(r, rnd, nil)
}

func neutralMarket() Market {
	return Market{
		Phase:       PhaseStability,
		PriceIndex:  1.0,
		RentIndex:   1.0,
		VacancyRate: 0.05,
	}
}

func quietPlayer() Player {
	return Player{
		ID:                     "p1",
		Difficulty:             rules.DifficultyNormal,
		Cash:                   1_000_000,
		CreatedAt:              testNow - 600_000,
		LastSyncedAt:           testNow - 60_000,
		LastExpenseAppliedAt:   testNow,
		LastValuationAppliedAt: testNow,
	}
}

func TestTickRentCollection(t *testing.T) {
	p := testProcessor(t, NewSequenceSource(0.9))
	pl := quietPlayer()
	pl.Properties = []Property{{
		ID:             "prop1",
		Name:           "Однушка в центре",
		Strategy:       StrategyRent,
		BaseRent:       25_000,
		PurchasePrice:  4_200_000,
		CurrentValue:   4_200_000,
		RentIntervalMs: 60_000,
		NextRentAt:     testNow,
	}}

	out, err := p.Tick(pl, neutralMarket(), testNow)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}

	if out.Player.Cash != 1_025_000 {
		t.Fatalf("cash = %d want 1025000", out.Player.Cash)
	}
	if out.Player.Experience != 25 {
		t.Fatalf("experience = %d want 25", out.Player.Experience)
	}
	if got := out.Player.Properties[0].NextRentAt; got != testNow+60_000 {
		t.Fatalf("next rent at = %d want %d", got, testNow+60_000)
	}
	if out.Player.Stats.TotalRentIncome != 25_000 {
		t.Fatalf("rent income stat = %d", out.Player.Stats.TotalRentIncome)
	}

	found := false
	for _, ev := range out.Events {
		if strings.Contains(ev.Message, "Аренда") && ev.Type == SeveritySuccess {
			found = true
		}
	}
	if !found {
		t.Fatalf("no rent event in %v", out.Events)
	}

	// Inputs must be untouched.
	if pl.Cash != 1_000_000 || pl.Properties[0].NextRentAt != testNow {
		t.Fatalf("input player mutated")
	}
}

func TestTickRentNotDue(t *testing.T) {
	p := testProcessor(t, NewSequenceSource(0.9))
	pl := quietPlayer()
	pl.Properties = []Property{{
		ID:             "prop1",
		Strategy:       StrategyRent,
		BaseRent:       25_000,
		RentIntervalMs: 60_000,
		NextRentAt:     testNow + 30_000,
	}}

	out, err := p.Tick(pl, neutralMarket(), testNow)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if out.Player.Cash != pl.Cash {
		t.Fatalf("rent paid before deadline")
	}
	if out.Player.Properties[0].NextRentAt != testNow+30_000 {
		t.Fatalf("future deadline moved")
	}
}

func TestTickVacancySkipsPayout(t *testing.T) {
	// First draw 0.0 < vacancy rate: tenant leaves. Remaining draws high.
	p := testProcessor(t, NewSequenceSource(0.0, 0.9, 0.9, 0.9))
	pl := quietPlayer()
	pl.Properties = []Property{{
		ID:             "prop1",
		Name:           "Студия",
		Strategy:       StrategyRent,
		BaseRent:       25_000,
		RentIntervalMs: 60_000,
		NextRentAt:     testNow,
	}}

	out, err := p.Tick(pl, neutralMarket(), testNow)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if out.Player.Cash != pl.Cash {
		t.Fatalf("vacant period must pay nothing, cash = %d", out.Player.Cash)
	}
	if got := out.Player.Properties[0].NextRentAt; got != testNow+60_000 {
		t.Fatalf("vacancy must still advance the schedule, got %d", got)
	}

	found := false
	for _, ev := range out.Events {
		if ev.Type == SeverityWarning && strings.Contains(ev.Message, "съехал") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no vacancy warning in %v", out.Events)
	}
}

func TestTickLoanPayoff(t *testing.T) {
	p := testProcessor(t, NewSequenceSource(0.9))
	pl := quietPlayer()
	pl.Properties = []Property{{
		ID:            "prop1",
		PurchasePrice: 1_000_000,
		CurrentValue:  1_000_000,
		LoanID:        "loan1",
	}}
	pl.Loans = []Loan{{
		ID:                 "loan1",
		PropertyID:         "prop1",
		Type:               LoanMortgage,
		Principal:          60_000,
		RemainingPrincipal: 400,
		AnnualRate:         12.5,
		MonthlyPayment:     500,
		PaymentIntervalMs:  60_000,
		NextPaymentAt:      testNow,
	}}

	out, err := p.Tick(pl, neutralMarket(), testNow)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if out.Player.Cash != 999_500 {
		t.Fatalf("cash = %d want 999500", out.Player.Cash)
	}
	if len(out.Player.Loans) != 0 {
		t.Fatalf("paid-off loan not removed")
	}
	if out.Player.Properties[0].LoanID != "" {
		t.Fatalf("loan reference not detached")
	}

	var payment, payoff bool
	for _, ev := range out.Events {
		if strings.Contains(ev.Message, "Ежемесячный платёж") {
			payment = true
		}
		if strings.Contains(ev.Message, "Кредит погашен") {
			payoff = true
		}
	}
	if !payment || !payoff {
		t.Fatalf("missing loan events: payment=%v payoff=%v", payment, payoff)
	}
}

func TestTickRenovationCompletion(t *testing.T) {
	p := testProcessor(t, NewSequenceSource(0.9))
	pl := quietPlayer()
	pl.Properties = []Property{{
		ID:                 "prop1",
		Name:               "Комната в хрущёвке",
		Condition:          ConditionNeedsRepairs,
		IsUnderRenovation:  true,
		RenovationStartsAt: testNow - 60_000,
		RenovationEndsAt:   testNow,
	}}

	out, err := p.Tick(pl, neutralMarket(), testNow)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	prop := out.Player.Properties[0]
	if prop.IsUnderRenovation {
		t.Fatalf("renovation not completed")
	}
	if prop.Condition != ConditionNormal {
		t.Fatalf("condition = %s want нормальная", prop.Condition)
	}

	// A second tick must not complete it again.
	out2, err := p.Tick(out.Player, out.Market, testNow+1_000)
	if err != nil {
		t.Fatalf("second tick: %v", err)
	}
	for _, ev := range out2.Events {
		if strings.Contains(ev.Message, "Ремонт завершён") {
			t.Fatalf("renovation completed twice")
		}
	}
	if out2.Player.Properties[0].Condition != ConditionNormal {
		t.Fatalf("condition advanced twice")
	}
}

func TestTickFlipSale(t *testing.T) {
	// First draw 0.1 < 0.3 (asking at market value): sold. Rest high.
	p := testProcessor(t, NewSequenceSource(0.1, 0.9, 0.9))
	pl := quietPlayer()
	pl.Properties = []Property{{
		ID:            "prop1",
		Name:          "Студия у набережной",
		Strategy:      StrategyFlip,
		PurchasePrice: 250_000,
		CurrentValue:  300_000,
		SalePrice:     300_000,
	}}

	out, err := p.Tick(pl, neutralMarket(), testNow)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(out.Player.Properties) != 0 {
		t.Fatalf("sold property still owned")
	}
	// Sale 300000 minus 13% tax on 50000 profit.
	if out.Player.Cash != 1_000_000+300_000-6_500 {
		t.Fatalf("cash = %d want %d", out.Player.Cash, 1_000_000+300_000-6_500)
	}
	if out.Player.Stats.TotalSales != 1 {
		t.Fatalf("total sales = %d", out.Player.Stats.TotalSales)
	}
	if out.Player.Experience != 50 {
		t.Fatalf("experience = %d want 50", out.Player.Experience)
	}

	found := false
	for _, ev := range out.Events {
		if strings.Contains(ev.Message, "Продана") && strings.Contains(ev.Message, "43 500") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no sale event with net profit in %v", out.Events)
	}
}

func TestTickFlipNoSaleOnHighDraw(t *testing.T) {
	p := testProcessor(t, NewSequenceSource(0.9))
	pl := quietPlayer()
	pl.Properties = []Property{{
		ID:            "prop1",
		Strategy:      StrategyFlip,
		PurchasePrice: 250_000,
		CurrentValue:  300_000,
		SalePrice:     300_000,
	}}

	out, err := p.Tick(pl, neutralMarket(), testNow)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(out.Player.Properties) != 1 {
		t.Fatalf("property must survive a failed draw")
	}
}

func TestTickExpenseThrottle(t *testing.T) {
	p := testProcessor(t, NewSequenceSource(0.9))
	pl := quietPlayer()
	pl.LastExpenseAppliedAt = testNow - 60_000
	pl.Properties = []Property{{
		ID:              "prop1",
		MonthlyExpenses: 5_000,
	}}

	out, err := p.Tick(pl, neutralMarket(), testNow)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if out.Player.Cash != 995_000 {
		t.Fatalf("cash = %d want 995000", out.Player.Cash)
	}
	if out.Player.LastExpenseAppliedAt != testNow {
		t.Fatalf("expense marker not advanced")
	}

	// A tick one second later must not charge expenses again.
	out2, err := p.Tick(out.Player, out.Market, testNow+1_000)
	if err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if out2.Player.Cash != 995_000 {
		t.Fatalf("expenses double-charged: cash = %d", out2.Player.Cash)
	}
}

func TestTickBankruptcyWarning(t *testing.T) {
	p := testProcessor(t, NewSequenceSource(0.9))
	pl := quietPlayer()
	pl.Cash = 100
	pl.Loans = []Loan{{
		ID:                 "loan1",
		Type:               LoanSecured,
		Principal:          500_000,
		RemainingPrincipal: 500_000,
		AnnualRate:         14.5,
		MonthlyPayment:     12_000,
		PaymentIntervalMs:  60_000,
		NextPaymentAt:      testNow,
	}}

	out, err := p.Tick(pl, neutralMarket(), testNow)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if out.Player.Cash >= 0 {
		t.Fatalf("expected negative cash, got %d", out.Player.Cash)
	}

	warnings := 0
	for _, ev := range out.Events {
		if ev.Type == SeverityError && strings.Contains(ev.Message, "Отрицательный баланс") {
			warnings++
		}
	}
	if warnings != 1 {
		t.Fatalf("bankruptcy warnings = %d want 1", warnings)
	}
}

func TestTickDeadlinesPushedPastNow(t *testing.T) {
	p := testProcessor(t, NewSequenceSource(0.9))
	pl := quietPlayer()
	pl.Properties = []Property{{
		ID:             "prop1",
		Strategy:       StrategyRent,
		BaseRent:       25_000,
		RentIntervalMs: 60_000,
		NextRentAt:     testNow - 5_000,
	}}
	pl.Loans = []Loan{{
		ID:                 "loan1",
		Type:               LoanSecured,
		Principal:          500_000,
		RemainingPrincipal: 500_000,
		AnnualRate:         14.5,
		MonthlyPayment:     12_000,
		PaymentIntervalMs:  60_000,
		NextPaymentAt:      testNow - 5_000,
	}}

	out, err := p.Tick(pl, neutralMarket(), testNow)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if got := out.Player.Properties[0].NextRentAt; got <= testNow {
		t.Fatalf("rent deadline %d not past now", got)
	}
	if got := out.Player.Loans[0].NextPaymentAt; got <= testNow {
		t.Fatalf("loan deadline %d not past now", got)
	}
}

func TestTickCorruptedStateAborts(t *testing.T) {
	p := testProcessor(t, NewSequenceSource(0.9))
	pl := quietPlayer()
	pl.Properties = []Property{{ID: "prop1", LoanID: "missing"}}

	if _, err := p.Tick(pl, neutralMarket(), testNow); err == nil {
		t.Fatalf("expected error on dangling loan reference")
	}
}

func TestTickNetWorthRecomputed(t *testing.T) {
	p := testProcessor(t, NewSequenceSource(0.9))
	pl := quietPlayer()
	pl.NetWorth = -12345 // garbage in, derived value out
	pl.Properties = []Property{{ID: "prop1", CurrentValue: 2_000_000, PurchasePrice: 2_000_000}}

	out, err := p.Tick(pl, neutralMarket(), testNow)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if out.Player.NetWorth != out.Player.Cash+2_000_000 {
		t.Fatalf("net worth = %d want %d", out.Player.NetWorth, out.Player.Cash+2_000_000)
	}
}
