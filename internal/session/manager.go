package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"kvartal/internal/progression"
	"kvartal/internal/sim"
	"kvartal/internal/store"
)

var ErrNoSuchPlayer = errors.New("no such player")

// Manager keys live sessions by player ID. Enter is the only way in: it
// loads the snapshot, applies offline catch-up and registers the session for
// the tick scheduler.
type Manager struct {
	proc    *sim.Processor
	tracker *progression.Tracker
	st      store.Store
	log     *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(proc *sim.Processor, tracker *progression.Tracker, st store.Store, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		proc:     proc,
		tracker:  tracker,
		st:       st,
		log:      log,
		sessions: map[string]*Session{},
	}
}

// Processor exposes the simulation processor for hosts composing actions.
func (m *Manager) Processor() *sim.Processor { return m.proc }

// Enter returns the live session for a player, attaching one if needed.
func (m *Manager) Enter(ctx context.Context, playerID string, now int64) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[playerID]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[playerID]; ok {
		return s, nil
	}
	s, err := attach(ctx, playerID, m.proc, m.tracker, m.st, m.log, now)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoSuchPlayer
	}
	if err != nil {
		return nil, err
	}
	m.sessions[playerID] = s
	m.log.Info("session attached", "player_id", playerID)
	return s, nil
}

// Get returns an already-live session without attaching.
func (m *Manager) Get(playerID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[playerID]
	return s, ok
}

// Bootstrap creates and persists a brand-new game, then attaches it.
func (m *Manager) Bootstrap(ctx context.Context, playerID, name, difficulty string, rnd sim.Source, now int64) (*Session, error) {
	pl, err := sim.NewPlayer(playerID, name, difficulty, m.proc.Rules(), now)
	if err != nil {
		return nil, err
	}
	mk := sim.NewMarket(m.proc.Rules(), now)
	snap := store.Snapshot{
		Player:       pl,
		Market:       mk,
		Events:       []sim.Event{},
		Missions:     progression.DefaultMissions(),
		Achievements: progression.DefaultAchievements(),
		Listings:     sim.GenerateListings(m.proc.Rules(), mk, rnd, 5),
		LastSyncedAt: now,
	}
	if err := m.st.Save(ctx, snap); err != nil {
		return nil, err
	}
	return m.Enter(ctx, pl.ID, now)
}

// TickAll advances every live session. A corrupted session is logged and
// skipped; the rest keep ticking.
func (m *Manager) TickAll(now int64) {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		if err := s.Tick(now); err != nil {
			m.log.Error("tick failed", "player_id", s.playerID, "err", err)
		}
	}
}

// SaveAll flushes every live session, for autosave and shutdown.
func (m *Manager) SaveAll(ctx context.Context) {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		if err := s.Save(ctx); err != nil {
			m.log.Error("autosave failed", "player_id", s.playerID, "err", err)
		}
	}
}
