package store

import (
	"context"
	"slices"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	updatedAt time.Time
}

// Memory is a map-backed Store. State is lost when the process exits.
type Memory struct {
	mu      sync.RWMutex
	players map[string]map[string]memoryEntry
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		players: make(map[string]map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, playerID, key string) ([]byte, error) {
	if err := validate(playerID, key); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.players[playerID][key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(e.value), nil
}

func (m *Memory) Set(_ context.Context, playerID, key string, value []byte) error {
	if err := validate(playerID, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entries, ok := m.players[playerID]
	if !ok {
		entries = make(map[string]memoryEntry)
		m.players[playerID] = entries
	}
	entries[key] = memoryEntry{value: slices.Clone(value), updatedAt: m.now()}
	return nil
}

func (m *Memory) Delete(_ context.Context, playerID, key string) error {
	if err := validate(playerID, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if entries, ok := m.players[playerID]; ok {
		delete(entries, key)
		if len(entries) == 0 {
			delete(m.players, playerID)
		}
	}
	return nil
}

func (m *Memory) Prune(_ context.Context, maxAge time.Duration) (int, error) {
	cutoff := m.now().Add(-maxAge)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for playerID, entries := range m.players {
		stale := true
		for _, e := range entries {
			if !e.updatedAt.Before(cutoff) {
				stale = false
				break
			}
		}
		if stale {
			removed += len(entries)
			delete(m.players, playerID)
		}
	}
	return removed, nil
}

func (m *Memory) Close() error { return nil }
