// Package progression tracks missions and achievements on top of the
// simulation core. It follows the same contract as the processors in sim:
// pure functions over snapshots, new values out, narration events for
// anything that changed.
package progression

import (
	"fmt"

	"github.com/google/uuid"

	"kvartal/internal/rules"
	"kvartal/internal/sim"
)

type MissionType string

const (
	MissionPortfolioValue  MissionType = "portfolio_value"
	MissionMonthlyRent     MissionType = "monthly_rent"
	MissionDistricts       MissionType = "districts"
	MissionPropertiesCount MissionType = "properties_count"
)

type Mission struct {
	ID          string      `json:"id"`
	Type        MissionType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Target      int64       `json:"target"`
	Current     int64       `json:"current"`
	Reward      int64       `json:"reward"` // experience on completion
	Completed   bool        `json:"completed"`
	CompletedAt int64       `json:"completedAt,omitempty"`
}

type AchievementType string

const (
	AchievementNovice        AchievementType = "novice"
	AchievementRentKing      AchievementType = "rent_king"
	AchievementFlipMaster    AchievementType = "flip_master"
	AchievementPortMagnate   AchievementType = "port_magnate"
	AchievementFirstProperty AchievementType = "first_property"
	AchievementMillionaire   AchievementType = "millionaire"
)

type Achievement struct {
	ID          string          `json:"id"`
	Type        AchievementType `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Unlocked    bool            `json:"unlocked"`
	UnlockedAt  int64           `json:"unlockedAt,omitempty"`
}

// Outcome is one evaluation pass: updated tracks, the player with any reward
// experience applied, and narration for fresh completions and unlocks.
type Outcome struct {
	Player       sim.Player
	Missions     []Mission
	Achievements []Achievement
	Events       []sim.Event
}

// Tracker evaluates mission progress and achievement conditions against a
// player snapshot.
type Tracker struct {
	rules *rules.Rules
}

func NewTracker(r *rules.Rules) *Tracker {
	return &Tracker{rules: r}
}

// Evaluate recomputes every open mission and locked achievement. Completed
// missions and unlocked achievements are terminal; they are never re-checked
// or revoked even when the underlying number later drops below the target.
func (t *Tracker) Evaluate(player sim.Player, missions []Mission, achievements []Achievement, now int64) Outcome {
	pl := player.Clone()
	outMissions := make([]Mission, len(missions))
	copy(outMissions, missions)
	outAchievements := make([]Achievement, len(achievements))
	copy(outAchievements, achievements)

	var events []sim.Event
	var reward int64

	for i := range outMissions {
		m := &outMissions[i]
		if m.Completed {
			continue
		}
		m.Current = missionProgress(m.Type, &pl)
		if m.Current < m.Target {
			continue
		}
		m.Completed = true
		m.CompletedAt = now
		reward += m.Reward
		events = append(events, narrate(now, sim.SeveritySuccess,
			"🎯 Миссия выполнена: %s (+%d опыта)", m.Title, m.Reward))
	}

	for i := range outAchievements {
		a := &outAchievements[i]
		if a.Unlocked || !achievementMet(a.Type, &pl) {
			continue
		}
		a.Unlocked = true
		a.UnlockedAt = now
		reward += t.rules.Experience.AchievementAward
		events = append(events, narrate(now, sim.SeveritySuccess,
			"%s Достижение разблокировано: %s", a.Icon, a.Title))
	}

	if reward > 0 {
		pl.Experience += reward
		pl.Level = t.rules.LevelFor(pl.Experience)
	}

	return Outcome{Player: pl, Missions: outMissions, Achievements: outAchievements, Events: events}
}

func missionProgress(kind MissionType, pl *sim.Player) int64 {
	switch kind {
	case MissionPortfolioValue:
		return pl.NetWorth
	case MissionMonthlyRent:
		var total int64
		for i := range pl.Properties {
			p := &pl.Properties[i]
			if p.Strategy == sim.StrategyRent && !p.IsUnderRenovation {
				total += p.BaseRent
			}
		}
		return total
	case MissionDistricts:
		districts := map[string]bool{}
		for i := range pl.Properties {
			districts[pl.Properties[i].District] = true
		}
		return int64(len(districts))
	case MissionPropertiesCount:
		return int64(len(pl.Properties))
	}
	return 0
}

func achievementMet(kind AchievementType, pl *sim.Player) bool {
	switch kind {
	case AchievementNovice, AchievementFirstProperty:
		return len(pl.Properties) >= 1
	case AchievementRentKing:
		return pl.Stats.TotalRentIncome >= 200_000
	case AchievementFlipMaster:
		return pl.Stats.TotalSales >= 10
	case AchievementPortMagnate:
		count := 0
		for i := range pl.Properties {
			p := &pl.Properties[i]
			if p.District == "Возле порта" && p.Type == "Коммерция" {
				count++
			}
		}
		return count >= 3
	case AchievementMillionaire:
		return pl.NetWorth >= 5_000_000
	}
	return false
}

func narrate(now int64, severity sim.Severity, format string, args ...any) sim.Event {
	return sim.Event{
		ID:        uuid.NewString(),
		Timestamp: now,
		Message:   fmt.Sprintf(format, args...),
		Type:      severity,
	}
}
