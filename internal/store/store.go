// Package store persists game snapshots. A snapshot is the full
// client-visible document: player, market, narration log, progression tracks
// and the current listings, plus the sync watermark the catch-up processor
// reconciles from. Three backends share one interface: Postgres for the
// server, SQLite for single-host installs, memory for tests.
package store

import (
	"context"
	"errors"

	"kvartal/internal/progression"
	"kvartal/internal/sim"
)

var ErrNotFound = errors.New("snapshot not found")

type Snapshot struct {
	Player       sim.Player                `json:"player"`
	Market       sim.Market                `json:"market"`
	Events       []sim.Event               `json:"events"`
	Missions     []progression.Mission     `json:"missions"`
	Achievements []progression.Achievement `json:"achievements"`
	Listings     []sim.Property            `json:"availableProperties"`

	// LastSyncedAt is the Unix-ms watermark of the last processed tick;
	// catch-up replays everything between it and now.
	LastSyncedAt int64 `json:"lastSyncedAt"`
}

type Store interface {
	// Load returns ErrNotFound when the player has no snapshot.
	Load(ctx context.Context, playerID string) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	// List returns the IDs of every stored player, for the reconciliation
	// sweep.
	List(ctx context.Context) ([]string, error)
	Close()
}
