package main

import (
	"context"
	"fmt"
	"time"

	"frazludo/internal/store"
)

// openStore opens the progress backend named by cfg.StoreBackend.
func openStore(cfg Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case StoreMemory, "":
		logWarn("Using in-memory progress store; progress is lost on restart")
		return store.NewMemory(), nil
	case StoreFile:
		logInfo("Storing progress as files under %s", cfg.StorePath)
		return store.NewFile(cfg.StorePath)
	case StoreSQLite:
		logInfo("Storing progress in SQLite database %s", cfg.StorePath)
		return store.NewSQLite(cfg.StorePath)
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q (want %s, %s or %s)", cfg.StoreBackend, StoreMemory, StoreFile, StoreSQLite)
	}
}

// runJanitor evicts idle sessions and rate limiters and prunes stale
// progress every interval until ctx is cancelled.
func (app *App) runJanitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		logWarn("Cleanup disabled (CLEANUP_INTERVAL=%v)", interval)
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			app.cleanup(ctx)
		}
	}
}

// cleanup runs one janitor pass.
func (app *App) cleanup(ctx context.Context) {
	if n := app.evictIdleSessions(app.SessionTimeout); n > 0 {
		logInfo("Evicted %d idle session%s", n, plural(n))
	}
	if n := app.evictIdleLimiters(app.SessionTimeout); n > 0 {
		logInfo("Evicted %d idle rate limiter%s", n, plural(n))
	}
	if app.ProgressMaxAge <= 0 {
		return
	}
	removed, err := app.Store.Prune(ctx, app.ProgressMaxAge)
	if err != nil {
		logWarn("Failed to prune stale progress: %v", err)
		return
	}
	if removed > 0 {
		logInfo("Pruned %d stale progress value%s older than %v", removed, plural(removed), app.ProgressMaxAge)
	}
}
