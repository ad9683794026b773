package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const progressSchema = `
CREATE TABLE IF NOT EXISTS progress (
	player_id  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (player_id, key)
);
CREATE INDEX IF NOT EXISTS idx_progress_updated_at ON progress(updated_at);
`

// SQLite keeps every value in one table keyed by (player_id, key).
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at path.
func NewSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection serialises writers and keeps in-memory databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		log.Warn().Err(err).Msg("couldn't enable WAL mode")
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		log.Warn().Err(err).Msg("couldn't set busy timeout")
	}
	if _, err := db.Exec(progressSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create progress table: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, playerID, key string) ([]byte, error) {
	if err := validate(playerID, key); err != nil {
		return nil, err
	}
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM progress WHERE player_id = ? AND key = ?`,
		playerID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s/%s: %w", playerID, key, err)
	}
	return value, nil
}

func (s *SQLite) Set(ctx context.Context, playerID, key string, value []byte) error {
	if err := validate(playerID, key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO progress (player_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(player_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		playerID, key, value, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", playerID, key, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, playerID, key string) error {
	if err := validate(playerID, key); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM progress WHERE player_id = ? AND key = ?`, playerID, key); err != nil {
		return fmt.Errorf("delete %s/%s: %w", playerID, key, err)
	}
	return nil
}

func (s *SQLite) Prune(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge).UnixNano()
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM progress WHERE player_id IN (
			SELECT player_id FROM progress GROUP BY player_id HAVING MAX(updated_at) < ?
		)`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune progress: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune progress: %w", err)
	}
	log.Info().Int64("removed", n).Msg("progress table cleanup completed")
	return int(n), nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
