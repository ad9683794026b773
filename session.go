package main

import (
	"context"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"frazludo/internal/catalog"
	"frazludo/internal/game"
)

// getOrCreatePlayer returns the player ID from the cookie, issuing a new
// one when it is missing or not a UUID.
func (app *App) getOrCreatePlayer(c *gin.Context) string {
	playerID, err := c.Cookie(PlayerCookieName)
	if err == nil {
		if parsed, perr := uuid.Parse(playerID); perr == nil {
			playerID = parsed.String()
			app.setPlayerCookie(c, playerID)
			return playerID
		}
	}
	playerID = uuid.NewString()
	app.setPlayerCookie(c, playerID)
	requestLogger(c.Request.Context()).Info().Str("player", playerID).Msg("new player")
	return playerID
}

func (app *App) setPlayerCookie(c *gin.Context, playerID string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(PlayerCookieName, playerID, int(app.CookieMaxAge.Seconds()), "/", "", app.IsProduction, true)
}

// withSession runs fn on the player's session for key under the registry
// lock. A session that is missing, for other categories, or already
// finished is replaced by game.Start, which resumes any saved run.
func (app *App) withSession(ctx context.Context, playerID, key string, fn func(*game.Session)) {
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()

	sess, ok := app.Sessions[playerID]
	if !ok || sess.Key() != key || !isLive(sess.Status) {
		sess = app.startSession(ctx, playerID, key)
		app.Sessions[playerID] = sess
	}
	sess.LastAccessTime = time.Now()
	fn(sess)
}

// startSession must be called with SessionMutex held.
func (app *App) startSession(ctx context.Context, playerID, key string) *game.Session {
	ids := app.Catalog.Known(catalog.ParseKey(key))
	opts := game.Options{
		Rand: rand.New(rand.NewPCG(app.rng.Uint64(), app.rng.Uint64())),
	}
	return game.Start(ctx, app.Progress, app.Catalog, playerID, ids, opts)
}

// leaveSession ends the player's live session. The saved run is kept so
// the category page can resume it.
func (app *App) leaveSession(playerID string) {
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()
	if sess, ok := app.Sessions[playerID]; ok {
		sess.Home()
		delete(app.Sessions, playerID)
	}
}

// dropSession forgets the player's live session. Saved progress is untouched.
func (app *App) dropSession(playerID string) {
	app.SessionMutex.Lock()
	delete(app.Sessions, playerID)
	app.SessionMutex.Unlock()
}

// evictIdleSessions removes sessions not touched within timeout and
// reports how many were removed.
func (app *App) evictIdleSessions(timeout time.Duration) int {
	cutoff := time.Now().Add(-timeout)
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()
	n := 0
	for id, sess := range app.Sessions {
		if sess.LastAccessTime.Before(cutoff) {
			delete(app.Sessions, id)
			n++
		}
	}
	return n
}

func isLive(status game.Status) bool {
	switch status {
	case game.StatusPlaying, game.StatusLevelComplete, game.StatusGameOver:
		return true
	}
	return false
}
