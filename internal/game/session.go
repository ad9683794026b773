// Package game implements a single player's run through a pool of sentences.
//
// A Session owns the level index, lives and board for one run. It writes
// through Progress after every mutation so a run can resume later, and adds
// solved sentences to the player's completed set. Sessions are not safe for
// concurrent use; callers serialise access per player.
package game

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"frazludo/internal/catalog"
	"frazludo/internal/types"
)

const (
	// MaxLives is the number of wrong guesses allowed per level.
	MaxLives = 3
	// RevealProbability is the chance each letter starts revealed.
	RevealProbability = 0.25
)

type Status string

const (
	StatusPlaying       Status = "playing"
	StatusLevelComplete Status = "level_complete"
	StatusGameOver      Status = "game_over"
	StatusRunComplete   Status = "run_complete"
	StatusAllComplete   Status = "all_complete"
	StatusHome          Status = "home"
)

var (
	ErrNotPlaying       = errors.New("level is not in play")
	ErrInvalidLetter    = errors.New("guess must be a single letter from A to Z")
	ErrAlreadyGuessed   = errors.New("letter already guessed")
	ErrLevelNotComplete = errors.New("level is not complete")
	ErrNotGameOver      = errors.New("level has not been lost")
	ErrNoSuchLevel      = errors.New("level index out of range")
)

// Progress is the persistence a Session reads and writes.
type Progress interface {
	CompletedSentences(ctx context.Context, playerID string) []string
	AddCompletedSentence(ctx context.Context, playerID, text string)
	GameState(ctx context.Context, playerID string) *types.GameSnapshot
	SaveGameState(ctx context.Context, playerID string, snap types.GameSnapshot)
	ClearGameState(ctx context.Context, playerID string)
}

// Options tunes a Session. The zero value uses a time-seeded RNG and the
// default reveal probability; a negative probability disables pre-reveal.
type Options struct {
	Rand              *rand.Rand
	RevealProbability float64
	Now               func() time.Time
}

// GuessResult describes the effect of one letter guess.
type GuessResult struct {
	Letter   string
	Correct  bool
	Revealed int
	Lives    int
	Status   Status
}

type Session struct {
	PlayerID    string
	CategoryIDs []string
	Pool        []types.Sentence
	LevelIndex  int
	Lives       int
	Board       Board
	HintUsed    bool
	Status      Status
	// Resumed is set when the run was restored from a saved snapshot.
	Resumed bool
	// Shake is set by a wrong guess and cleared by the next action.
	Shake          bool
	LastAccessTime time.Time

	guessed  map[string]bool
	progress Progress
	rng      *rand.Rand
	revealP  float64
	now      func() time.Time
}

// Start begins or resumes a run over the given categories. A saved
// snapshot for the same category key is resumed; otherwise a new pool is
// built from the catalog minus the player's completed sentences, shuffled
// when more than one category is selected. An empty pool ends in
// StatusAllComplete.
func Start(ctx context.Context, progress Progress, cat *catalog.Catalog, playerID string, categoryIDs []string, opts Options) *Session {
	s := &Session{
		PlayerID:       playerID,
		CategoryIDs:    slices.Clone(categoryIDs),
		Lives:          MaxLives,
		Status:         StatusPlaying,
		guessed:        make(map[string]bool),
		progress:       progress,
		rng:            opts.Rand,
		revealP:        opts.RevealProbability,
		now:            opts.Now,
		LastAccessTime: time.Now(),
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	}
	if s.revealP == 0 {
		s.revealP = RevealProbability
	}
	if s.now == nil {
		s.now = time.Now
	}

	if snap := progress.GameState(ctx, playerID); snap != nil && snap.Categories == s.Key() {
		s.resume(ctx, cat, snap)
		return s
	}

	s.Pool = s.buildPool(ctx, cat)
	if len(s.Pool) == 0 {
		log.Info().Str("player", playerID).Str("categories", s.Key()).Msg("all sentences completed")
		s.Status = StatusAllComplete
		s.persist(ctx)
		return s
	}
	s.LoadLevel(0)
	s.persist(ctx)
	log.Info().Str("player", playerID).Str("categories", s.Key()).Int("levels", len(s.Pool)).Msg("new run started")
	return s
}

func (s *Session) buildPool(ctx context.Context, cat *catalog.Catalog) []types.Sentence {
	completed := s.progress.CompletedSentences(ctx, s.PlayerID)
	pool := lo.Filter(cat.Sentences(s.CategoryIDs), func(sentence types.Sentence, _ int) bool {
		return !slices.Contains(completed, sentence.Text)
	})
	if len(s.CategoryIDs) > 1 {
		s.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}
	return pool
}

func (s *Session) resume(ctx context.Context, cat *catalog.Catalog, snap *types.GameSnapshot) {
	if len(snap.Pool) > 0 {
		s.Pool = lo.FilterMap(snap.Pool, func(text string, _ int) (types.Sentence, bool) {
			return cat.Lookup(text)
		})
	} else {
		s.Pool = s.buildPool(ctx, cat)
	}
	s.Resumed = true
	s.Lives = snap.Lives
	if s.Lives <= 0 || s.Lives > MaxLives {
		s.Lives = MaxLives
	}
	index := max(snap.LevelIndex, 0)
	if len(snap.Pool) == 0 && len(s.Pool) > 0 {
		// A rebuilt pool no longer holds the levels already solved.
		index = min(index, len(s.Pool)-1)
	}
	if index >= len(s.Pool) {
		log.Info().Str("player", s.PlayerID).Int("level", index).Msg("saved run has no levels left")
		s.LevelIndex = index
		s.Status = StatusAllComplete
		s.persist(ctx)
		return
	}
	s.LoadLevel(index)
	s.persist(ctx)
	log.Info().Str("player", s.PlayerID).Str("categories", s.Key()).Int("level", index).Int("lives", s.Lives).Msg("run resumed")
}

// LoadLevel builds a fresh board for the sentence at index and clears the
// hint and guessed letters. Lives are left untouched.
func (s *Session) LoadLevel(index int) error {
	if index < 0 || index >= len(s.Pool) {
		return ErrNoSuchLevel
	}
	s.LevelIndex = index
	s.Board = NewBoard(s.Pool[index].Text, s.rng, s.revealP)
	s.HintUsed = false
	s.Shake = false
	s.guessed = make(map[string]bool)
	s.Status = StatusPlaying
	return nil
}

// Guess reveals every occurrence of letter, or costs a life if it does not
// appear. Repeated and non-letter guesses are rejected at no cost.
func (s *Session) Guess(ctx context.Context, input string) (GuessResult, error) {
	if s.Status != StatusPlaying {
		return GuessResult{}, ErrNotPlaying
	}
	letter, ok := normalizeLetter(input)
	if !ok {
		return GuessResult{}, ErrInvalidLetter
	}
	if s.guessed[letter] {
		return GuessResult{}, ErrAlreadyGuessed
	}
	s.guessed[letter] = true
	s.Shake = false

	res := GuessResult{Letter: letter}
	if s.Board.Contains(letter) {
		res.Correct = true
		res.Revealed = s.Board.Reveal(letter)
		if s.Board.Solved() {
			s.completeLevel(ctx)
		}
	} else {
		s.Lives--
		s.Shake = true
		if s.Lives <= 0 {
			s.Lives = 0
			s.Status = StatusGameOver
			log.Info().Str("player", s.PlayerID).Int("level", s.LevelIndex).Msg("out of lives")
		}
	}
	res.Lives = s.Lives
	res.Status = s.Status
	s.persist(ctx)
	return res, nil
}

// UseHint reveals the first hidden cell in reading order. It works once
// per level and reports whether anything was revealed.
func (s *Session) UseHint(ctx context.Context) bool {
	if s.Status != StatusPlaying || s.HintUsed {
		return false
	}
	if _, _, ok := s.Board.RevealFirst(); !ok {
		return false
	}
	s.HintUsed = true
	s.Shake = false
	if s.Board.Solved() {
		s.completeLevel(ctx)
	}
	s.persist(ctx)
	return true
}

// Advance moves past a completed level, ending the run after the last one.
func (s *Session) Advance(ctx context.Context) error {
	if s.Status != StatusLevelComplete {
		return ErrLevelNotComplete
	}
	if s.LevelIndex+1 >= len(s.Pool) {
		s.Status = StatusRunComplete
		s.persist(ctx)
		log.Info().Str("player", s.PlayerID).Str("categories", s.Key()).Msg("run complete")
		return nil
	}
	s.Lives = MaxLives
	if err := s.LoadLevel(s.LevelIndex + 1); err != nil {
		return err
	}
	s.persist(ctx)
	return nil
}

// Retry replays a lost level with full lives and a new board.
func (s *Session) Retry(ctx context.Context) error {
	if s.Status != StatusGameOver {
		return ErrNotGameOver
	}
	s.Lives = MaxLives
	if err := s.LoadLevel(s.LevelIndex); err != nil {
		return err
	}
	s.persist(ctx)
	return nil
}

// Home abandons the session. The saved snapshot is kept so the run can be
// resumed from the category page.
func (s *Session) Home() {
	s.Status = StatusHome
}

func (s *Session) completeLevel(ctx context.Context) {
	s.Status = StatusLevelComplete
	s.progress.AddCompletedSentence(ctx, s.PlayerID, s.Pool[s.LevelIndex].Text)
	log.Info().Str("player", s.PlayerID).Int("level", s.LevelIndex).Msg("level complete")
}

// persist writes or clears the snapshot to match the current status. A
// completed level is saved as the start of the next one.
func (s *Session) persist(ctx context.Context) {
	switch s.Status {
	case StatusPlaying, StatusGameOver:
		s.progress.SaveGameState(ctx, s.PlayerID, s.Snapshot())
	case StatusLevelComplete:
		if s.LevelIndex+1 >= len(s.Pool) {
			s.progress.ClearGameState(ctx, s.PlayerID)
			return
		}
		snap := s.Snapshot()
		snap.LevelIndex++
		snap.Lives = MaxLives
		s.progress.SaveGameState(ctx, s.PlayerID, snap)
	case StatusRunComplete, StatusAllComplete:
		s.progress.ClearGameState(ctx, s.PlayerID)
	}
}

// Snapshot captures the resumable part of the session.
func (s *Session) Snapshot() types.GameSnapshot {
	return types.GameSnapshot{
		Version:    types.SnapshotVersion,
		Categories: s.Key(),
		LevelIndex: s.LevelIndex,
		Lives:      s.Lives,
		Pool:       lo.Map(s.Pool, func(sentence types.Sentence, _ int) string { return sentence.Text }),
		Timestamp:  s.now(),
	}
}

// Key is the comma-joined category list identifying this run.
func (s *Session) Key() string {
	return catalog.Key(s.CategoryIDs)
}

// Current returns the sentence being played.
func (s *Session) Current() (types.Sentence, bool) {
	if s.LevelIndex < 0 || s.LevelIndex >= len(s.Pool) {
		return types.Sentence{}, false
	}
	return s.Pool[s.LevelIndex], true
}

func (s *Session) IsLastLevel() bool {
	return s.LevelIndex == len(s.Pool)-1
}

// Guessed reports whether letter was already tried on this level.
func (s *Session) Guessed(letter string) bool {
	return s.guessed[letter]
}

// GuessedLetters lists the letters tried on this level in alphabetical order.
func (s *Session) GuessedLetters() []string {
	letters := lo.Keys(s.guessed)
	slices.Sort(letters)
	return letters
}

func normalizeLetter(input string) (string, bool) {
	letter := strings.ToUpper(strings.TrimSpace(input))
	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
		return "", false
	}
	return letter, true
}
