package game

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestNewBoardSplitsWords(t *testing.T) {
	b := NewBoard("ILL BE BACK", seeded(1), -1)

	want := Board{
		{{Char: "I"}, {Char: "L"}, {Char: "L"}},
		{{Char: "B"}, {Char: "E"}},
		{{Char: "B"}, {Char: "A"}, {Char: "C"}, {Char: "K"}},
	}
	if diff := cmp.Diff(want, b); diff != "" {
		t.Errorf("NewBoard mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "___ __ ____", b.Text())
	assert.Equal(t, 9, b.Hidden())
}

func TestNewBoardIsDeterministicForSeed(t *testing.T) {
	a := NewBoard("THE EARLY BIRD CATCHES THE WORM", seeded(42), RevealProbability)
	b := NewBoard("THE EARLY BIRD CATCHES THE WORM", seeded(42), RevealProbability)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different boards (-a +b):\n%s", diff)
	}
}

func TestNewBoardAlwaysLeavesOneHidden(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		b := NewBoard("HASTA LA VISTA BABY", seeded(seed), 1)
		assert.Equal(t, 1, b.Hidden(), "seed %d", seed)
		assert.False(t, b.Solved())
	}
}

func TestRevealAndContains(t *testing.T) {
	b := NewBoard("HASTA LA VISTA BABY", seeded(3), -1)

	assert.True(t, b.Contains("A"))
	assert.False(t, b.Contains("Z"))
	assert.Equal(t, 5, b.Reveal("A"))
	assert.Equal(t, 0, b.Reveal("A"), "second reveal finds nothing new")
	assert.Equal(t, "_A__A _A ____A _A__", b.Text())
	assert.Zero(t, b.Reveal("Z"))
}

func TestRevealFirstFollowsReadingOrder(t *testing.T) {
	b := NewBoard("BE BACK", seeded(5), -1)
	b[0][0].Revealed = true

	w, l, ok := b.RevealFirst()
	require.True(t, ok)
	assert.Equal(t, [2]int{0, 1}, [2]int{w, l})

	w, l, ok = b.RevealFirst()
	require.True(t, ok)
	assert.Equal(t, [2]int{1, 0}, [2]int{w, l})

	for b.Hidden() > 0 {
		_, _, ok = b.RevealFirst()
		require.True(t, ok)
	}
	_, _, ok = b.RevealFirst()
	assert.False(t, ok)
	assert.True(t, b.Solved())
	assert.Equal(t, "BE BACK", b.Text())
}

func TestPositions(t *testing.T) {
	b := NewBoard("ILL BE BACK", seeded(1), -1)
	want := map[string]int{"I": 1, "L": 2, "B": 3, "E": 4, "A": 5, "C": 6, "K": 7}
	if diff := cmp.Diff(want, b.Positions()); diff != "" {
		t.Errorf("Positions mismatch (-want +got):\n%s", diff)
	}
}

func TestSolvedBoardReconstructsText(t *testing.T) {
	for _, text := range []string{"TO INFINITY AND BEYOND", "A", "SUCCESS IS NOT FINAL FAILURE IS NOT FATAL"} {
		b := NewBoard(text, seeded(9), RevealProbability)
		for _, w := range b {
			for _, c := range w {
				b.Reveal(c.Char)
			}
		}
		assert.True(t, b.Solved())
		assert.Equal(t, text, b.Text())
	}
}
