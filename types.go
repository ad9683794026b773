package main

import (
	"math/rand/v2"
	"sync"
	"time"

	"frazludo/internal/catalog"
	"frazludo/internal/game"
	"frazludo/internal/progress"
	"frazludo/internal/store"
	"frazludo/internal/types"
)

type contextKey string

// App holds the server's shared state. Handlers are methods on it.
type App struct {
	Config

	Catalog  *catalog.Catalog
	Store    store.Store
	Progress *progress.Service

	// Sessions maps a player ID to its live session. SessionMutex guards
	// the map, every session in it, and rng.
	Sessions     map[string]*game.Session
	SessionMutex sync.Mutex
	rng          *rand.Rand

	LimiterMap   map[string]*clientLimiter
	LimiterMutex sync.Mutex

	StartTime time.Time
}

// CategoryView is one entry on the selection page.
type CategoryView struct {
	ID          string
	Name        string
	Description string
	Total       int
	Completed   int
}

// GameView is everything the game templates render. It is built from a
// session under the registry lock and is safe to use after unlocking.
type GameView struct {
	Key         string
	Title       string
	Status      game.Status
	Level       int
	Levels      int
	Percent     int
	Lives       []bool
	LivesLeft   int
	Words       [][]TileView
	Keyboard    [][]KeyView
	HintUsed    bool
	Attribution string
	Answer      string
	IsLastLevel bool
	Resumed     bool
	Shake       bool
	Error       string
}

type TileView struct {
	Char     string
	Revealed bool
	Position int
}

type KeyView struct {
	Letter  string
	Guessed bool
	Hit     bool
}

// PageData is the root value for full-page templates.
type PageData struct {
	Title      string
	Theme      types.Theme
	Categories []CategoryView
	Game       *GameView
	Completed  int
	Total      int
	Error      string

	// ResumeKey names the categories of a saved run, if there is one.
	ResumeKey   string
	ResumeTitle string
}
