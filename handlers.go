package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"frazludo/internal/catalog"
	"frazludo/internal/game"
	"frazludo/internal/progress"
	"frazludo/internal/types"
)

const siteTitle = "Frazludo - Complete the Sentence"

// homeHandler renders the category selection page.
func (app *App) homeHandler(c *gin.Context) {
	ctx := c.Request.Context()
	playerID := app.getOrCreatePlayer(c)
	resumeKey, resumeTitle := app.resumeLink(ctx, playerID)

	c.HTML(http.StatusOK, "index.html", PageData{
		Title:       siteTitle,
		Theme:       app.Progress.Theme(ctx, playerID),
		Categories:  app.categoryViews(ctx, playerID),
		Completed:   len(app.Progress.CompletedSentences(ctx, playerID)),
		Total:       app.Catalog.Len(),
		ResumeKey:   resumeKey,
		ResumeTitle: resumeTitle,
	})
}

// playHandler turns the selection form into a game URL.
func (app *App) playHandler(c *gin.Context) {
	ids := app.Catalog.Known(catalog.ParseKey(catalog.Key(c.QueryArray("category"))))
	if len(ids) == 0 {
		ctx := c.Request.Context()
		playerID := app.getOrCreatePlayer(c)
		c.HTML(http.StatusBadRequest, "index.html", PageData{
			Title:      siteTitle,
			Theme:      app.Progress.Theme(ctx, playerID),
			Categories: app.categoryViews(ctx, playerID),
			Completed:  len(app.Progress.CompletedSentences(ctx, playerID)),
			Total:      app.Catalog.Len(),
			Error:      ErrorNoCategory,
		})
		return
	}
	c.Redirect(http.StatusSeeOther, gamePath(catalog.Key(ids)))
}

// gameHandler renders the game page, starting or resuming a run.
func (app *App) gameHandler(c *gin.Context) {
	app.handleGame(c, nil)
}

// gameStateHandler renders the current board as an HTML fragment.
func (app *App) gameStateHandler(c *gin.Context) {
	app.handleGame(c, nil)
}

// guessHandler applies one letter guess from the "letter" form field.
func (app *App) guessHandler(c *gin.Context) {
	letter := c.PostForm("letter")
	app.handleGame(c, func(s *game.Session) string {
		res, err := s.Guess(c.Request.Context(), letter)
		if err != nil {
			requestLogger(c.Request.Context()).Debug().Err(err).Str("player", s.PlayerID).Str("letter", letter).Msg("guess rejected")
			return errorMessage(err)
		}
		requestLogger(c.Request.Context()).Info().
			Str("player", s.PlayerID).
			Str("letter", res.Letter).
			Bool("correct", res.Correct).
			Int("lives", res.Lives).
			Msg("guess")
		return ""
	})
}

// hintHandler reveals the first hidden letter, once per level.
func (app *App) hintHandler(c *gin.Context) {
	app.handleGame(c, func(s *game.Session) string {
		switch {
		case s.UseHint(c.Request.Context()):
			return ""
		case s.Status != game.StatusPlaying:
			return ErrorNotPlaying
		default:
			return ErrorHintUsed
		}
	})
}

// nextHandler moves past a completed level.
func (app *App) nextHandler(c *gin.Context) {
	app.handleGame(c, func(s *game.Session) string {
		if err := s.Advance(c.Request.Context()); err != nil {
			return errorMessage(err)
		}
		return ""
	})
}

// retryHandler replays a lost level.
func (app *App) retryHandler(c *gin.Context) {
	app.handleGame(c, func(s *game.Session) string {
		if err := s.Retry(c.Request.Context()); err != nil {
			return errorMessage(err)
		}
		return ""
	})
}

// leaveHandler abandons the live session and returns to category selection.
func (app *App) leaveHandler(c *gin.Context) {
	playerID := app.getOrCreatePlayer(c)
	app.leaveSession(playerID)
	requestLogger(c.Request.Context()).Info().Str("player", playerID).Msg("left game")
	redirectHome(c)
}

// handleGame resolves the categories, runs action (if any) on the player's
// session and renders the result with the message action returns. Unknown
// categories get the 404 page.
func (app *App) handleGame(c *gin.Context, action func(*game.Session) string) {
	_, key, ok := app.resolveCategories(c.Param("categories"))
	if !ok {
		app.notFoundHandler(c)
		return
	}
	ctx := c.Request.Context()
	playerID := app.getOrCreatePlayer(c)

	var view *GameView
	app.withSession(ctx, playerID, key, func(s *game.Session) {
		var msg string
		if action != nil {
			msg = action(s)
		}
		view = app.buildGameView(s)
		view.Error = msg
		// Notices are shown once.
		s.Resumed = false
		s.Shake = false
	})

	app.renderGame(c, view, app.Progress.Theme(ctx, playerID))
}

// renderGame sends the game-content fragment to htmx and the full page to
// everyone else. Errors are also raised as a server_error event.
func (app *App) renderGame(c *gin.Context, view *GameView, theme types.Theme) {
	if view.Error != "" {
		payload := map[string]string{"server_error": view.Error}
		if b, err := json.Marshal(payload); err == nil {
			c.Header("HX-Trigger", string(b))
		} else {
			logWarn("Failed to marshal HX-Trigger payload: %v", err)
		}
	}
	data := PageData{Title: view.Title + " | " + siteTitle, Theme: theme, Game: view}
	if isHTMX(c) {
		c.HTML(http.StatusOK, "game-content", data)
		return
	}
	c.HTML(http.StatusOK, "game.html", data)
}

// themeHandler sets the theme from the "theme" field, or toggles it when
// the field is empty. JSON clients get the new theme back.
func (app *App) themeHandler(c *gin.Context) {
	ctx := c.Request.Context()
	playerID := app.getOrCreatePlayer(c)

	theme := progress.ParseTheme(c.PostForm("theme"))
	if c.PostForm("theme") == "" {
		theme = types.ThemeDark
		if app.Progress.Theme(ctx, playerID) == types.ThemeDark {
			theme = types.ThemeLight
		}
	}
	app.Progress.SaveTheme(ctx, playerID, theme)

	switch c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) {
	case gin.MIMEJSON:
		c.JSON(http.StatusOK, gin.H{"theme": theme})
	default:
		back := c.Request.Referer()
		if back == "" {
			back = RouteHome
		}
		c.Redirect(http.StatusSeeOther, back)
	}
}

// resetProgressHandler forgets completed sentences and any saved run.
func (app *App) resetProgressHandler(c *gin.Context) {
	ctx := c.Request.Context()
	playerID := app.getOrCreatePlayer(c)
	app.dropSession(playerID)
	app.Progress.ClearCompletedSentences(ctx, playerID)
	app.Progress.ClearGameState(ctx, playerID)
	requestLogger(ctx).Info().Str("player", playerID).Msg("progress reset")
	redirectHome(c)
}

// healthzHandler returns a JSON health check with server stats.
func (app *App) healthzHandler(c *gin.Context) {
	app.SessionMutex.Lock()
	sessions := len(app.Sessions)
	app.SessionMutex.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"env":        map[bool]string{true: "production", false: "development"}[app.IsProduction],
		"categories": len(app.Catalog.Categories()),
		"sentences":  app.Catalog.Len(),
		"sessions":   sessions,
		"store":      app.StoreBackend,
		"uptime":     formatUptime(time.Since(app.StartTime)),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

func (app *App) notFoundHandler(c *gin.Context) {
	c.HTML(http.StatusNotFound, "notfound.html", PageData{Title: "Not found | " + siteTitle, Theme: types.ThemeLight})
}

// redirectHome uses HX-Redirect for htmx so the whole page changes.
func redirectHome(c *gin.Context) {
	if isHTMX(c) {
		c.Header("HX-Redirect", RouteHome)
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusSeeOther, RouteHome)
}

func gamePath(key string) string {
	return "/game/" + key
}
