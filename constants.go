package main

// Route constants
const (
	RouteHome          = "/"
	RoutePlay          = "/play"
	RouteGame          = "/game/:categories"
	RouteTheme         = "/theme"
	RouteResetProgress = "/progress/reset"
	RouteHealth        = "/healthz"
)

// Player cookie
const (
	PlayerCookieName = "player_id"
)

// Store backends selectable with STORE_BACKEND
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Error message constants
const (
	ErrorNotPlaying      = "This level is over."
	ErrorInvalidLetter   = "Pick a single letter from A to Z."
	ErrorAlreadyGuessed  = "You already tried that letter."
	ErrorNoCategory      = "Pick at least one category."
	ErrorLevelIncomplete = "Finish this level first."
	ErrorNotGameOver     = "You still have lives left."
	ErrorHintUsed        = "Hint already used for this level."
	ErrorUnexpected      = "Something went wrong. Please try again."
)

// Context key constants
const (
	requestIDKey contextKey = "request_id"
)

// keyboardRows lays out the alphabet in rows of 9, 9 and 8.
var keyboardRows = []string{"ABCDEFGHI", "JKLMNOPQR", "STUVWXYZ"}
