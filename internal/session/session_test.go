package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"kvartal/internal/progression"
	"kvartal/internal/rules"
	"kvartal/internal/sim"
	"kvartal/internal/store"
)

const testNow = int64(1_700_000_000_000)

func testManager(t *testing.T) (*Manager, *store.Memory) {
	t.Helper()
	r := rules.Default()
	proc := sim.NewProcessor(r, sim.NewSequenceSource(0.9), nil)
	tracker := progression.NewTracker(r)
	st := store.NewMemory()
	return NewManager(proc, tracker, st, nil), st
}

func seedSnapshot(t *testing.T, st *store.Memory) {
	t.Helper()
	snap := store.Snapshot{
		Player: sim.Player{
			ID:                     "p1",
			Name:                   "Инвестор",
			Difficulty:             rules.DifficultyNormal,
			Cash:                   1_000_000,
			NetWorth:               1_000_000,
			Level:                  1,
			CreatedAt:              testNow - 600_000,
			LastSyncedAt:           testNow,
			LastExpenseAppliedAt:   testNow,
			LastValuationAppliedAt: testNow,
		},
		Market: sim.Market{
			Phase:       sim.PhaseStability,
			PriceIndex:  1.0,
			RentIndex:   1.0,
			VacancyRate: 0.05,
		},
		Missions:     progression.DefaultMissions(),
		Achievements: progression.DefaultAchievements(),
		Listings: []sim.Property{{
			ID:            "lst1",
			Name:          "Комната в хрущёвке",
			District:      "Спальный район",
			PurchasePrice: 500_000,
			CurrentValue:  500_000,
			BaseRent:      14_000,
		}},
		LastSyncedAt: testNow,
	}
	if err := st.Save(context.Background(), snap); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestEnterUnknownPlayer(t *testing.T) {
	m, _ := testManager(t)
	if _, err := m.Enter(context.Background(), "ghost", testNow); !errors.Is(err, ErrNoSuchPlayer) {
		t.Fatalf("err = %v want ErrNoSuchPlayer", err)
	}
}

func TestEnterIsIdempotent(t *testing.T) {
	m, st := testManager(t)
	seedSnapshot(t, st)

	a, err := m.Enter(context.Background(), "p1", testNow)
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	b, err := m.Enter(context.Background(), "p1", testNow+5_000)
	if err != nil {
		t.Fatalf("second enter: %v", err)
	}
	if a != b {
		t.Fatalf("expected the same live session")
	}
}

func TestBootstrapCreatesGame(t *testing.T) {
	m, st := testManager(t)

	sess, err := m.Bootstrap(context.Background(), "", "Новичок", rules.DifficultyEasy, sim.NewSequenceSource(0.3), testNow)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	snap := sess.Snapshot()
	if snap.Player.Cash != 2_000_000 {
		t.Fatalf("cash = %d want easy 2000000", snap.Player.Cash)
	}
	if len(snap.Missions) != 4 || len(snap.Achievements) != 6 {
		t.Fatalf("progression tracks missing")
	}
	if len(snap.Listings) != 5 {
		t.Fatalf("listings = %d want 5", len(snap.Listings))
	}

	// Persisted, not just live.
	if _, err := st.Load(context.Background(), snap.Player.ID); err != nil {
		t.Fatalf("snapshot not saved: %v", err)
	}
}

func TestBuyConsumesListing(t *testing.T) {
	m, st := testManager(t)
	seedSnapshot(t, st)
	sess, err := m.Enter(context.Background(), "p1", testNow)
	if err != nil {
		t.Fatalf("enter: %v", err)
	}

	res, err := sess.Buy(testNow, "lst1", false)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if !res.OK {
		t.Fatalf("buy failed: %s", res.Message)
	}

	snap := sess.Snapshot()
	if snap.Player.Cash != 500_000 {
		t.Fatalf("cash = %d want 500000", snap.Player.Cash)
	}
	if len(snap.Player.Properties) != 1 {
		t.Fatalf("property not owned")
	}
	if len(snap.Listings) != 0 {
		t.Fatalf("listing not consumed")
	}

	// First purchase unlocks the starter achievements.
	unlocked := 0
	for _, a := range snap.Achievements {
		if a.Unlocked {
			unlocked++
		}
	}
	if unlocked != 2 {
		t.Fatalf("unlocked = %d want 2", unlocked)
	}
}

func TestBuyUnknownListing(t *testing.T) {
	m, st := testManager(t)
	seedSnapshot(t, st)
	sess, err := m.Enter(context.Background(), "p1", testNow)
	if err != nil {
		t.Fatalf("enter: %v", err)
	}

	res, err := sess.Buy(testNow, "ghost", false)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if res.OK {
		t.Fatalf("expected rejection")
	}
	if sess.Snapshot().Player.Cash != 1_000_000 {
		t.Fatalf("failed buy mutated state")
	}
}

func TestTickPublishesEvents(t *testing.T) {
	m, st := testManager(t)
	seedSnapshot(t, st)
	sess, err := m.Enter(context.Background(), "p1", testNow)
	if err != nil {
		t.Fatalf("enter: %v", err)
	}

	// Give the player a due rental directly through an action.
	if _, err := sess.Buy(testNow, "lst1", false); err != nil {
		t.Fatalf("buy: %v", err)
	}
	propID := sess.Snapshot().Player.Properties[0].ID
	if _, err := sess.Do(testNow, func(pl sim.Player) (sim.Player, sim.Result, error) {
		out, res := m.Processor().SetStrategy(pl, propID, sim.StrategyRent, 0, testNow-60_000)
		return out, res, nil
	}); err != nil {
		t.Fatalf("set strategy: %v", err)
	}

	sub := sess.Subscribe()
	defer sess.Unsubscribe(sub)

	if err := sess.Tick(testNow + 60_000); err != nil {
		t.Fatalf("tick: %v", err)
	}

	select {
	case batch := <-sub:
		found := false
		for _, ev := range batch {
			if strings.Contains(ev.Message, "Аренда") {
				found = true
			}
		}
		if !found {
			t.Fatalf("no rent event in published batch: %v", batch)
		}
	default:
		t.Fatalf("no batch published")
	}

	snap := sess.Snapshot()
	if snap.Player.Cash <= 500_000 {
		t.Fatalf("rent not credited: %d", snap.Player.Cash)
	}
	if snap.LastSyncedAt != testNow+60_000 {
		t.Fatalf("watermark = %d", snap.LastSyncedAt)
	}
}

func TestSavePersistsState(t *testing.T) {
	m, st := testManager(t)
	seedSnapshot(t, st)
	sess, err := m.Enter(context.Background(), "p1", testNow)
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	if _, err := sess.Buy(testNow, "lst1", false); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if err := sess.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}

	stored, err := st.Load(context.Background(), "p1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(stored.Player.Properties) != 1 || stored.Player.Cash != 500_000 {
		t.Fatalf("persisted state wrong: %+v", stored.Player)
	}
}
