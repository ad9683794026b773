package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/samber/lo"

	"frazludo/internal/catalog"
	"frazludo/internal/game"
	"frazludo/internal/progress"
	"frazludo/internal/store"
	"frazludo/internal/types"
)

// newApp wires the catalog and store into an App.
func newApp(cfg Config, cat *catalog.Catalog, st store.Store) *App {
	seed := cfg.RandSeed
	if seed == 0 {
		seed = rand.Uint64()
	} else {
		logInfo("Using fixed random seed %d", seed)
	}
	return &App{
		Config:     cfg,
		Catalog:    cat,
		Store:      st,
		Progress:   progress.New(st),
		Sessions:   make(map[string]*game.Session),
		rng:        rand.New(rand.NewPCG(seed, seed>>1|1)),
		LimiterMap: make(map[string]*clientLimiter),
		StartTime:  time.Now(),
	}
}

// resolveCategories parses the :categories path segment. It returns the
// canonical key and false when any id is unknown or none is given.
func (app *App) resolveCategories(raw string) ([]string, string, bool) {
	ids := catalog.ParseKey(raw)
	if len(ids) == 0 || len(app.Catalog.Known(ids)) != len(ids) {
		return nil, "", false
	}
	return ids, catalog.Key(ids), true
}

// buildGameView snapshots a session for rendering. Call with the session lock held.
func (app *App) buildGameView(s *game.Session) *GameView {
	v := &GameView{
		Key:       s.Key(),
		Title:     app.categoryTitle(s.CategoryIDs),
		Status:    s.Status,
		Level:     s.LevelIndex + 1,
		Levels:    len(s.Pool),
		LivesLeft: s.Lives,
		HintUsed:  s.HintUsed,
		Resumed:   s.Resumed,
		Shake:     s.Shake,
		Lives: lo.Times(game.MaxLives, func(i int) bool {
			return i < s.Lives
		}),
	}
	if v.Levels > 0 {
		done := s.LevelIndex
		if s.Status == game.StatusLevelComplete || s.Status == game.StatusRunComplete {
			done++
		}
		v.Percent = min(done*100/v.Levels, 100)
	}

	sentence, ok := s.Current()
	if !ok {
		return v
	}
	v.Attribution = sentence.Category
	v.IsLastLevel = s.IsLastLevel()
	if s.Status != game.StatusPlaying {
		v.Answer = sentence.Text
	}

	positions := s.Board.Positions()
	v.Words = lo.Map(s.Board, func(word []types.LetterCell, _ int) []TileView {
		return lo.Map(word, func(cell types.LetterCell, _ int) TileView {
			return TileView{Char: cell.Char, Revealed: cell.Revealed, Position: positions[cell.Char]}
		})
	})
	v.Keyboard = lo.Map(keyboardRows, func(row string, _ int) []KeyView {
		return lo.Map(strings.Split(row, ""), func(letter string, _ int) KeyView {
			guessed := s.Guessed(letter)
			return KeyView{Letter: letter, Guessed: guessed, Hit: guessed && s.Board.Contains(letter)}
		})
	})
	return v
}

func (app *App) categoryTitle(ids []string) string {
	names := lo.FilterMap(ids, func(id string, _ int) (string, bool) {
		c, ok := app.Catalog.Category(id)
		return c.Name, ok
	})
	return strings.Join(names, " + ")
}

// categoryViews summarises each category for the selection page.
func (app *App) categoryViews(ctx context.Context, playerID string) []CategoryView {
	completed := lo.SliceToMap(app.Progress.CompletedSentences(ctx, playerID), func(text string) (string, struct{}) {
		return text, struct{}{}
	})
	return lo.Map(app.Catalog.Categories(), func(c catalog.Category, _ int) CategoryView {
		return CategoryView{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Total:       len(c.Sentences),
			Completed: lo.CountBy(c.Sentences, func(s types.Sentence) bool {
				_, ok := completed[s.Text]
				return ok
			}),
		}
	})
}

// resumeLink returns the key and title of the player's saved run, if any.
func (app *App) resumeLink(ctx context.Context, playerID string) (string, string) {
	snap := app.Progress.GameState(ctx, playerID)
	if snap == nil {
		return "", ""
	}
	_, key, ok := app.resolveCategories(snap.Categories)
	if !ok {
		return "", ""
	}
	return key, app.categoryTitle(catalog.ParseKey(key))
}

// errorMessage maps game errors to what the player sees.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrNotPlaying):
		return ErrorNotPlaying
	case errors.Is(err, game.ErrInvalidLetter):
		return ErrorInvalidLetter
	case errors.Is(err, game.ErrAlreadyGuessed):
		return ErrorAlreadyGuessed
	case errors.Is(err, game.ErrLevelNotComplete):
		return ErrorLevelIncomplete
	case errors.Is(err, game.ErrNotGameOver):
		return ErrorNotGameOver
	default:
		return ErrorUnexpected
	}
}
