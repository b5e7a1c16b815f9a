package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps one JSONB document per player. The document, not a
// normalized schema, is the unit of persistence: a snapshot is saved and
// loaded atomically, which is what the single-writer session model needs.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 20
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	p := &Postgres{pool: pool}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS snapshots (
			player_id  TEXT PRIMARY KEY,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("migrate snapshots: %w", err)
	}
	return nil
}

func (p *Postgres) Load(ctx context.Context, playerID string) (Snapshot, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx,
		`SELECT doc FROM snapshots WHERE player_id = $1`, playerID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot %s: %w", playerID, err)
	}
	return decodeSnapshot(raw)
}

func (p *Postgres) Save(ctx context.Context, snap Snapshot) error {
	raw, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO snapshots (player_id, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (player_id) DO UPDATE
		SET doc = EXCLUDED.doc, updated_at = now()`,
		snap.Player.ID, raw)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.Player.ID, err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT player_id FROM snapshots ORDER BY player_id`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan snapshot id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (p *Postgres) Close() { p.pool.Close() }
