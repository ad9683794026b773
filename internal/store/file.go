package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// File keeps each value in <dir>/<player>/<key>.json.
type File struct {
	dir string
}

// NewFile creates the base directory if it does not exist.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create progress directory: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(playerID, key string) (string, error) {
	if err := validate(playerID, key); err != nil {
		return "", err
	}
	p := filepath.Join(f.dir, playerID, key+".json")
	rel, err := filepath.Rel(f.dir, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("store: path %q escapes %q", p, f.dir)
	}
	return p, nil
}

func (f *File) Get(_ context.Context, playerID, key string) ([]byte, error) {
	p, err := f.path(playerID, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return data, nil
}

// Set writes through a temp file and rename so readers never see a
// partial value.
func (f *File) Set(_ context.Context, playerID, key string, value []byte) error {
	p, err := f.path(playerID, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create player directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename into %s: %w", p, err)
	}
	log.Debug().Str("path", p).Msg("saved progress file")
	return nil
}

func (f *File) Delete(_ context.Context, playerID, key string) error {
	p, err := f.path(playerID, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", p, err)
	}
	return nil
}

// Prune removes the directory of every player whose newest file is older
// than maxAge.
func (f *File) Prune(ctx context.Context, maxAge time.Duration) (int, error) {
	players, err := os.ReadDir(f.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read progress directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed, failed := 0, 0
	for _, player := range players {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if !player.IsDir() {
			continue
		}
		playerDir := filepath.Join(f.dir, player.Name())
		values, stale, err := inspectPlayerDir(playerDir, cutoff)
		if err != nil {
			log.Warn().Err(err).Str("dir", playerDir).Msg("failed to read player directory")
			failed++
			continue
		}
		if !stale {
			continue
		}
		if err := os.RemoveAll(playerDir); err != nil {
			log.Warn().Err(err).Str("dir", playerDir).Msg("failed to remove stale player directory")
			failed++
			continue
		}
		removed += values
	}

	log.Info().Int("removed", removed).Int("errors", failed).Msg("progress file cleanup completed")
	return removed, nil
}

// inspectPlayerDir counts the value files in dir and reports whether every
// entry was last modified before cutoff.
func inspectPlayerDir(dir string, cutoff time.Time) (int, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, false, err
	}
	values := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			return 0, false, err
		}
		if !info.ModTime().Before(cutoff) {
			return 0, false, nil
		}
		if strings.HasSuffix(entry.Name(), ".json") {
			values++
		}
	}
	return values, true, nil
}

func (f *File) Close() error { return nil }
