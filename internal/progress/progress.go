// Package progress exposes a player's three persisted slots: completed
// sentences, the in-progress game snapshot and the theme preference.
//
// Reads never fail. Missing or undecodable data yields the slot's default
// and is logged; writes are fire-and-forget.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"slices"

	"github.com/rs/zerolog/log"

	"frazludo/internal/store"
	"frazludo/internal/types"
)

const (
	KeyCompletedSentences = "completed_sentences"
	KeyGameState          = "game_state"
	KeyTheme              = "theme"
)

// Service reads and writes player progress through a Store.
type Service struct {
	store store.Store
}

func New(st store.Store) *Service {
	return &Service{store: st}
}

// load decodes the slot into v and reports whether it held a usable value.
func (s *Service) load(ctx context.Context, playerID, key string, v any) bool {
	data, err := s.store.Get(ctx, playerID, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Str("player", playerID).Str("key", key).Msg("error reading progress")
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Warn().Err(err).Str("player", playerID).Str("key", key).Msg("discarding malformed progress")
		return false
	}
	return true
}

func (s *Service) save(ctx context.Context, playerID, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("error encoding progress")
		return
	}
	if err := s.store.Set(ctx, playerID, key, data); err != nil {
		log.Warn().Err(err).Str("player", playerID).Str("key", key).Msg("error saving progress")
	}
}

func (s *Service) clear(ctx context.Context, playerID, key string) {
	if err := s.store.Delete(ctx, playerID, key); err != nil {
		log.Warn().Err(err).Str("player", playerID).Str("key", key).Msg("error clearing progress")
	}
}

// CompletedSentences returns the texts the player has solved, oldest first.
func (s *Service) CompletedSentences(ctx context.Context, playerID string) []string {
	var completed []string
	if !s.load(ctx, playerID, KeyCompletedSentences, &completed) {
		return []string{}
	}
	if completed == nil {
		return []string{}
	}
	return completed
}

// AddCompletedSentence appends text unless it is already recorded.
func (s *Service) AddCompletedSentence(ctx context.Context, playerID, text string) {
	completed := s.CompletedSentences(ctx, playerID)
	if slices.Contains(completed, text) {
		return
	}
	s.save(ctx, playerID, KeyCompletedSentences, append(completed, text))
}

func (s *Service) IsSentenceCompleted(ctx context.Context, playerID, text string) bool {
	return slices.Contains(s.CompletedSentences(ctx, playerID), text)
}

func (s *Service) ClearCompletedSentences(ctx context.Context, playerID string) {
	s.clear(ctx, playerID, KeyCompletedSentences)
}

// GameState returns the saved snapshot, or nil when there is none or it was
// written under a different schema version.
func (s *Service) GameState(ctx context.Context, playerID string) *types.GameSnapshot {
	var snap *types.GameSnapshot
	if !s.load(ctx, playerID, KeyGameState, &snap) || snap == nil {
		return nil
	}
	if snap.Version != types.SnapshotVersion {
		log.Warn().Int("version", snap.Version).Str("player", playerID).Msg("ignoring game state with unknown version")
		return nil
	}
	return snap
}

func (s *Service) SaveGameState(ctx context.Context, playerID string, snap types.GameSnapshot) {
	snap.Version = types.SnapshotVersion
	s.save(ctx, playerID, KeyGameState, snap)
}

func (s *Service) ClearGameState(ctx context.Context, playerID string) {
	s.clear(ctx, playerID, KeyGameState)
}

// Theme returns the saved theme, defaulting to light.
func (s *Service) Theme(ctx context.Context, playerID string) types.Theme {
	var theme types.Theme
	if !s.load(ctx, playerID, KeyTheme, &theme) {
		return types.ThemeLight
	}
	return ParseTheme(string(theme))
}

func (s *Service) SaveTheme(ctx context.Context, playerID string, theme types.Theme) {
	s.save(ctx, playerID, KeyTheme, ParseTheme(string(theme)))
}

// ParseTheme maps anything other than "dark" to light.
func ParseTheme(v string) types.Theme {
	if types.Theme(v) == types.ThemeDark {
		return types.ThemeDark
	}
	return types.ThemeLight
}
