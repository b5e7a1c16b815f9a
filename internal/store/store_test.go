package store

import (
	"context"
	"errors"
	"testing"

	"kvartal/internal/progression"
	"kvartal/internal/sim"
)

func sampleSnapshot() Snapshot {
	return Snapshot{
		Player: sim.Player{
			ID:         "p1",
			Name:       "Инвестор",
			Difficulty: "normal",
			Cash:       1_500_000,
			NetWorth:   1_500_000,
			Level:      1,
			CreatedAt:  1_700_000_000_000,
			Properties: []sim.Property{{
				ID:            "prop1",
				Name:          "Однушка в центре",
				District:      "Центр",
				PurchasePrice: 4_200_000,
				CurrentValue:  4_200_000,
				Strategy:      sim.StrategyRent,
				NextRentAt:    1_700_000_060_000,
			}},
			Loans: []sim.Loan{{
				ID:                 "loan1",
				PropertyID:         "prop1",
				Type:               sim.LoanMortgage,
				Principal:          3_360_000,
				RemainingPrincipal: 3_000_000,
				AnnualRate:         12.5,
				MonthlyPayment:     49_000,
				PaymentIntervalMs:  60_000,
				NextPaymentAt:      1_700_000_060_000,
			}},
		},
		Market: sim.Market{
			Phase:       sim.PhaseStability,
			PriceIndex:  1.02,
			RentIndex:   0.99,
			VacancyRate: 0.05,
		},
		Events:       []sim.Event{{ID: "e1", Timestamp: 1_700_000_000_000, Message: "тест", Type: sim.SeverityInfo}},
		Missions:     progression.DefaultMissions(),
		Achievements: progression.DefaultAchievements(),
		LastSyncedAt: 1_700_000_000_000,
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	if err := st.Save(ctx, sampleSnapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := st.Load(ctx, "p1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Player.Cash != 1_500_000 {
		t.Fatalf("cash = %d", got.Player.Cash)
	}
	if len(got.Player.Properties) != 1 || got.Player.Properties[0].NextRentAt != 1_700_000_060_000 {
		t.Fatalf("property schedule lost: %+v", got.Player.Properties)
	}
	if got.Player.Loans[0].RemainingPrincipal != 3_000_000 {
		t.Fatalf("loan lost: %+v", got.Player.Loans)
	}
	if got.Market.PriceIndex != 1.02 {
		t.Fatalf("market lost: %+v", got.Market)
	}
	if len(got.Missions) != 4 || len(got.Achievements) != 6 {
		t.Fatalf("progression lost")
	}
}

func TestMemoryNotFound(t *testing.T) {
	st := NewMemory()
	if _, err := st.Load(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v want ErrNotFound", err)
	}
}

func TestMemoryList(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	a := sampleSnapshot()
	b := sampleSnapshot()
	b.Player.ID = "p2"
	if err := st.Save(ctx, a); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.Save(ctx, b); err != nil {
		t.Fatalf("save: %v", err)
	}

	ids, err := st.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("ids = %v", ids)
	}
}

func TestDecodeSnapshotRejectsCorruption(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `{broken`},
		{name: "missing player", raw: `{"market":{"phase":"growth","priceIndex":1,"rentIndex":1,"vacancyRate":0.05},"lastSyncedAt":1}`},
		{name: "negative principal", raw: `{
			"player":{"id":"p1","cash":0,"createdAt":1,"loans":[{"id":"l1","remainingPrincipal":-5}]},
			"market":{"phase":"growth","priceIndex":1,"rentIndex":1,"vacancyRate":0.05},
			"lastSyncedAt":1}`},
		{name: "bad phase", raw: `{
			"player":{"id":"p1","cash":0,"createdAt":1},
			"market":{"phase":"sideways","priceIndex":1,"rentIndex":1,"vacancyRate":0.05},
			"lastSyncedAt":1}`},
	}
	for _, tc := range tests {
		if _, err := decodeSnapshot([]byte(tc.raw)); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestDecodeSnapshotAcceptsValid(t *testing.T) {
	raw, err := encodeSnapshot(sampleSnapshot())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := decodeSnapshot(raw); err != nil {
		t.Fatalf("round trip rejected: %v", err)
	}
}
