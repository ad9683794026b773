// Package store is the key-value backend behind player progress.
//
// Values are opaque bytes keyed by (player, key). Implementations:
//   - memory: map-backed, lost on restart; used in development and tests.
//   - file:   one JSON file per key under a directory per player.
//   - sqlite: a single table in a SQLite database (modernc.org/sqlite).
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("store: not found")

// Store persists small values per player.
type Store interface {
	// Get returns ErrNotFound when the key is absent.
	Get(ctx context.Context, playerID, key string) ([]byte, error)
	Set(ctx context.Context, playerID, key string, value []byte) error
	// Delete is a no-op for absent keys.
	Delete(ctx context.Context, playerID, key string) error
	// Prune removes every value of a player whose newest write, across
	// all keys, is older than maxAge, and reports how many values were
	// removed. A player with any recent write keeps all their values.
	Prune(ctx context.Context, maxAge time.Duration) (int, error)
	Close() error
}

var keyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// validate rejects player ids that are not UUIDs and keys outside
// [a-z0-9_], so neither can escape a directory or table row.
func validate(playerID, key string) error {
	if _, err := uuid.Parse(playerID); err != nil || len(playerID) != 36 {
		return fmt.Errorf("store: invalid player id %q", playerID)
	}
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("store: invalid key %q", key)
	}
	return nil
}
