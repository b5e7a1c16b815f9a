package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"
)

// SQLite is the single-host backend: one file, one table, documents
// zstd-compressed at rest.
type SQLite struct {
	db  *sqlx.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// modernc sqlite serializes writes internally; a single connection avoids
	// SQLITE_BUSY under the session autosave pattern.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			player_id  TEXT PRIMARY KEY,
			doc        BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate snapshots: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &SQLite{db: db, enc: enc, dec: dec}, nil
}

func (s *SQLite) Load(ctx context.Context, playerID string) (Snapshot, error) {
	var blob []byte
	err := s.db.GetContext(ctx, &blob,
		`SELECT doc FROM snapshots WHERE player_id = ?`, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot %s: %w", playerID, err)
	}
	raw, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decompress snapshot %s: %w", playerID, err)
	}
	return decodeSnapshot(raw)
}

func (s *SQLite) Save(ctx context.Context, snap Snapshot) error {
	raw, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	blob := s.enc.EncodeAll(raw, nil)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (player_id, doc, updated_at)
		VALUES (?, ?, unixepoch('now', 'subsec') * 1000)
		ON CONFLICT (player_id) DO UPDATE
		SET doc = excluded.doc, updated_at = excluded.updated_at`,
		snap.Player.ID, blob)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.Player.ID, err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids,
		`SELECT player_id FROM snapshots ORDER BY player_id`); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return ids, nil
}

func (s *SQLite) Close() {
	s.enc.Close()
	s.dec.Close()
	s.db.Close()
}
