package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"

	"frazludo/internal/game"
	"frazludo/internal/types"
)

func startTestSession(app *App, ids ...string) *game.Session {
	return game.Start(context.Background(), app.Progress, app.Catalog, uuid.NewString(), ids,
		game.Options{Rand: rand.New(rand.NewPCG(1, 2)), RevealProbability: -1})
}

func TestBuildGameView(t *testing.T) {
	app := newTestApp()
	s := startTestSession(app, "movies")
	ctx := context.Background()

	v := app.buildGameView(s)
	if v.Key != "movies" || v.Title != "Movie Dialogues" {
		t.Errorf("Key/Title = %q/%q, want movies/Movie Dialogues", v.Key, v.Title)
	}
	if v.Level != 1 || v.Levels != 8 || v.Percent != 0 {
		t.Errorf("Level %d/%d at %d%%, want 1/8 at 0%%", v.Level, v.Levels, v.Percent)
	}
	if v.Answer != "" {
		t.Errorf("Answer should be hidden while playing, got %q", v.Answer)
	}
	if len(v.Lives) != game.MaxLives || v.LivesLeft != game.MaxLives {
		t.Errorf("Lives = %v (%d left)", v.Lives, v.LivesLeft)
	}
	rows := []int{len(v.Keyboard[0]), len(v.Keyboard[1]), len(v.Keyboard[2])}
	if fmt.Sprint(rows) != "[9 9 8]" {
		t.Errorf("keyboard rows = %v, want [9 9 8]", rows)
	}

	cur, _ := s.Current()
	if len(v.Words) != len(s.Board) {
		t.Fatalf("view has %d words, board has %d", len(v.Words), len(s.Board))
	}
	first := v.Words[0][0]
	if first.Char != string(cur.Text[0]) || first.Position != 1 || first.Revealed {
		t.Errorf("first tile = %+v, want hidden %q at position 1", first, cur.Text[0])
	}

	if _, err := s.Guess(ctx, missingLetters(cur.Text)[0]); err != nil {
		t.Fatal(err)
	}
	v = app.buildGameView(s)
	if v.LivesLeft != game.MaxLives-1 || v.Lives[game.MaxLives-1] {
		t.Errorf("after a miss Lives = %v (%d left)", v.Lives, v.LivesLeft)
	}
	if !v.Shake {
		t.Error("a miss should shake the board")
	}
	missed := 0
	for _, row := range v.Keyboard {
		for _, k := range row {
			if k.Guessed {
				missed++
				if k.Hit {
					t.Errorf("missed key %s marked as hit", k.Letter)
				}
			}
		}
	}
	if missed != 1 {
		t.Errorf("guessed keys = %d, want 1", missed)
	}

	for _, l := range distinctLetters(cur.Text) {
		_, _ = s.Guess(ctx, l)
	}
	v = app.buildGameView(s)
	if v.Status != game.StatusLevelComplete || v.Answer != cur.Text {
		t.Errorf("after solving: status %s answer %q", v.Status, v.Answer)
	}
	if v.Percent != 12 {
		t.Errorf("Percent after one of eight levels = %d, want 12", v.Percent)
	}
}

func TestBuildGameViewAllComplete(t *testing.T) {
	app := newTestApp()
	ctx := context.Background()
	player := uuid.NewString()
	for _, sentence := range app.Catalog.Sentences([]string{"movies"}) {
		app.Progress.AddCompletedSentence(ctx, player, sentence.Text)
	}
	s := game.Start(ctx, app.Progress, app.Catalog, player, []string{"movies"}, game.Options{})
	if s.Status != game.StatusAllComplete {
		t.Fatalf("status = %s, want all_complete", s.Status)
	}
	v := app.buildGameView(s)
	if v.Levels != 0 || v.Words != nil || v.Keyboard != nil {
		t.Errorf("all-complete view should have no board, got %+v", v)
	}
	if v.Title != "Movie Dialogues" {
		t.Errorf("Title = %q", v.Title)
	}
}

func TestResolveCategories(t *testing.T) {
	app := newTestApp()
	cases := []struct {
		raw  string
		key  string
		want bool
	}{
		{"movies", "movies", true},
		{"Movies, proverbs", "movies,proverbs", true},
		{"movies,movies", "movies", true},
		{"movies,bogus", "", false},
		{"", "", false},
		{",,", "", false},
	}
	for _, tc := range cases {
		_, key, ok := app.resolveCategories(tc.raw)
		if ok != tc.want || key != tc.key {
			t.Errorf("resolveCategories(%q) = %q, %v; want %q, %v", tc.raw, key, ok, tc.key, tc.want)
		}
	}
}

func TestCategoryViewsCountCompleted(t *testing.T) {
	app := newTestApp()
	ctx := context.Background()
	player := uuid.NewString()
	proverbs := app.Catalog.Sentences([]string{"proverbs"})
	app.Progress.AddCompletedSentence(ctx, player, proverbs[0].Text)
	app.Progress.AddCompletedSentence(ctx, player, proverbs[1].Text)

	views := app.categoryViews(ctx, player)
	if len(views) != 3 {
		t.Fatalf("got %d categories, want 3", len(views))
	}
	for _, v := range views {
		want := 0
		if v.ID == "proverbs" {
			want = 2
		}
		if v.Completed != want || v.Total != 8 {
			t.Errorf("%s: %d/%d completed, want %d/8", v.ID, v.Completed, v.Total, want)
		}
	}
}

func TestResumeLink(t *testing.T) {
	app := newTestApp()
	ctx := context.Background()
	player := uuid.NewString()

	if key, _ := app.resumeLink(ctx, player); key != "" {
		t.Errorf("no saved run should give no link, got %q", key)
	}
	app.Progress.SaveGameState(ctx, player, types.GameSnapshot{Categories: "proverbs,movies", LevelIndex: 1, Lives: 2})
	key, title := app.resumeLink(ctx, player)
	if key != "proverbs,movies" || title != "Proverbs + Movie Dialogues" {
		t.Errorf("resumeLink = %q, %q", key, title)
	}
	app.Progress.SaveGameState(ctx, player, types.GameSnapshot{Categories: "retired", Lives: 2})
	if key, _ := app.resumeLink(ctx, player); key != "" {
		t.Errorf("snapshot for unknown categories should give no link, got %q", key)
	}
}

func TestErrorMessage(t *testing.T) {
	cases := map[error]string{
		game.ErrNotPlaying:                           ErrorNotPlaying,
		game.ErrInvalidLetter:                        ErrorInvalidLetter,
		game.ErrAlreadyGuessed:                       ErrorAlreadyGuessed,
		game.ErrLevelNotComplete:                     ErrorLevelIncomplete,
		game.ErrNotGameOver:                          ErrorNotGameOver,
		fmt.Errorf("wrapped: %w", game.ErrNotPlaying): ErrorNotPlaying,
		errors.New("boom"):                           ErrorUnexpected,
	}
	for err, want := range cases {
		if got := errorMessage(err); got != want {
			t.Errorf("errorMessage(%v) = %q, want %q", err, got, want)
		}
	}
}
