package progression

import (
	"strings"
	"testing"

	"kvartal/internal/rules"
	"kvartal/internal/sim"
)

const testNow = int64(1_700_000_000_000)

func fiveProperties() []sim.Property {
	out := make([]sim.Property, 5)
	for i := range out {
		out[i] = sim.Property{ID: string(rune('a' + i)), District: "Центр", CurrentValue: 100_000}
	}
	return out
}

func TestEvaluateCompletesMissionAndUnlocksAchievements(t *testing.T) {
	tr := NewTracker(rules.Default())
	pl := sim.Player{ID: "p1", Cash: 100_000, Properties: fiveProperties()}

	out := tr.Evaluate(pl, DefaultMissions(), DefaultAchievements(), testNow)

	var propertiesMission *Mission
	for i := range out.Missions {
		if out.Missions[i].Type == MissionPropertiesCount {
			propertiesMission = &out.Missions[i]
		}
	}
	if propertiesMission == nil || !propertiesMission.Completed {
		t.Fatalf("properties_count mission not completed")
	}
	if propertiesMission.CompletedAt != testNow {
		t.Fatalf("completion timestamp missing")
	}

	unlocked := map[AchievementType]bool{}
	for _, a := range out.Achievements {
		if a.Unlocked {
			unlocked[a.Type] = true
		}
	}
	if !unlocked[AchievementNovice] || !unlocked[AchievementFirstProperty] {
		t.Fatalf("first-property achievements not unlocked: %v", unlocked)
	}
	if unlocked[AchievementMillionaire] {
		t.Fatalf("millionaire unlocked prematurely")
	}

	// Mission reward 250 plus two achievements at 200 each.
	if out.Player.Experience != 650 {
		t.Fatalf("experience = %d want 650", out.Player.Experience)
	}
	if out.Player.Level != 2 {
		t.Fatalf("level = %d want 2", out.Player.Level)
	}
	if len(out.Events) != 3 {
		t.Fatalf("events = %d want 3", len(out.Events))
	}

	// Input player untouched.
	if pl.Experience != 0 {
		t.Fatalf("input mutated")
	}
}

func TestEvaluateIsTerminal(t *testing.T) {
	tr := NewTracker(rules.Default())
	pl := sim.Player{ID: "p1", Properties: fiveProperties()}

	first := tr.Evaluate(pl, DefaultMissions(), DefaultAchievements(), testNow)
	second := tr.Evaluate(first.Player, first.Missions, first.Achievements, testNow+60_000)

	if len(second.Events) != 0 {
		t.Fatalf("completed tracks re-fired: %v", second.Events)
	}
	if second.Player.Experience != first.Player.Experience {
		t.Fatalf("reward granted twice")
	}

	// Dropping below the target must not revoke the completion.
	shrunk := second.Player.Clone()
	shrunk.Properties = shrunk.Properties[:1]
	third := tr.Evaluate(shrunk, second.Missions, second.Achievements, testNow+120_000)
	for _, m := range third.Missions {
		if m.Type == MissionPropertiesCount && !m.Completed {
			t.Fatalf("completion revoked")
		}
	}
}

func TestEvaluateMonthlyRentCountsActiveRentals(t *testing.T) {
	tr := NewTracker(rules.Default())
	pl := sim.Player{ID: "p1", Properties: []sim.Property{
		{ID: "a", Strategy: sim.StrategyRent, BaseRent: 100_000},
		{ID: "b", Strategy: sim.StrategyRent, BaseRent: 60_000},
		{ID: "c", Strategy: sim.StrategyRent, BaseRent: 50_000, IsUnderRenovation: true},
		{ID: "d", Strategy: sim.StrategyHold, BaseRent: 90_000},
	}}

	out := tr.Evaluate(pl, DefaultMissions(), DefaultAchievements(), testNow)
	for _, m := range out.Missions {
		if m.Type == MissionMonthlyRent {
			if m.Current != 160_000 {
				t.Fatalf("current = %d want 160000 (renovating and held excluded)", m.Current)
			}
			if !m.Completed {
				t.Fatalf("160000 over a 150000 target must complete")
			}
		}
	}
}

func TestEvaluateDistricts(t *testing.T) {
	tr := NewTracker(rules.Default())
	pl := sim.Player{ID: "p1", Properties: []sim.Property{
		{ID: "a", District: "Центр"},
		{ID: "b", District: "Центр"},
		{ID: "c", District: "Спальный район"},
	}}

	out := tr.Evaluate(pl, DefaultMissions(), DefaultAchievements(), testNow)
	for _, m := range out.Missions {
		if m.Type == MissionDistricts && m.Current != 2 {
			t.Fatalf("districts = %d want 2", m.Current)
		}
	}
}

func TestEvaluatePortMagnate(t *testing.T) {
	tr := NewTracker(rules.Default())
	props := []sim.Property{
		{ID: "a", District: "Возле порта", Type: "Коммерция"},
		{ID: "b", District: "Возле порта", Type: "Коммерция"},
		{ID: "c", District: "Возле порта", Type: "Коммерция"},
	}
	pl := sim.Player{ID: "p1", Properties: props}

	out := tr.Evaluate(pl, nil, DefaultAchievements(), testNow)
	found := false
	for _, a := range out.Achievements {
		if a.Type == AchievementPortMagnate && a.Unlocked {
			found = true
		}
	}
	if !found {
		t.Fatalf("port magnate not unlocked")
	}
	for _, ev := range out.Events {
		if strings.Contains(ev.Message, "Магнат порта") {
			return
		}
	}
	t.Fatalf("no unlock event")
}
