package types

import "time"

// SnapshotVersion is the schema version written into every GameSnapshot.
const SnapshotVersion = 1

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Sentence is a single puzzle. Text is uppercase words separated by single spaces.
type Sentence struct {
	Text     string `json:"sentence" yaml:"sentence"`
	Category string `json:"category" yaml:"category"`
}

type LetterCell struct {
	Char     string `json:"char"`
	Revealed bool   `json:"revealed"`
}

// GameSnapshot is the persisted shape of an in-progress run.
type GameSnapshot struct {
	Version    int       `json:"version"`
	Categories string    `json:"categories"`
	LevelIndex int       `json:"currentLevel"`
	Lives      int       `json:"lives"`
	Pool       []string  `json:"pool,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
