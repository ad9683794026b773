package game

import (
	"math/rand/v2"
	"strings"

	"frazludo/internal/types"
)

// Board is the reveal state of a sentence: one slice of cells per word.
type Board [][]types.LetterCell

// NewBoard splits text into words and letters, pre-revealing each letter
// with probability p. At least one letter is always left hidden.
func NewBoard(text string, rng *rand.Rand, p float64) Board {
	words := strings.Fields(text)
	b := make(Board, 0, len(words))
	hidden := 0
	for _, w := range words {
		cells := make([]types.LetterCell, 0, len(w))
		for _, r := range w {
			revealed := r == ' ' || rng.Float64() < p
			if !revealed {
				hidden++
			}
			cells = append(cells, types.LetterCell{Char: string(r), Revealed: revealed})
		}
		b = append(b, cells)
	}
	if hidden == 0 && b.letterCount() > 0 {
		i := rng.IntN(b.letterCount())
		b.visit(func(_, _, n int, c *types.LetterCell) bool {
			if n == i {
				c.Revealed = false
				return false
			}
			return true
		})
	}
	return b
}

// visit walks cells in reading order, passing the running cell index n,
// until fn returns false.
func (b Board) visit(fn func(word, letter, n int, c *types.LetterCell) bool) {
	n := 0
	for wi := range b {
		for li := range b[wi] {
			if !fn(wi, li, n, &b[wi][li]) {
				return
			}
			n++
		}
	}
}

func (b Board) letterCount() int {
	n := 0
	for _, w := range b {
		n += len(w)
	}
	return n
}

// Solved reports whether every cell is revealed.
func (b Board) Solved() bool {
	solved := true
	b.visit(func(_, _, _ int, c *types.LetterCell) bool {
		solved = c.Revealed
		return solved
	})
	return solved
}

// Contains reports whether letter occurs anywhere in the sentence.
func (b Board) Contains(letter string) bool {
	found := false
	b.visit(func(_, _, _ int, c *types.LetterCell) bool {
		found = c.Char == letter
		return !found
	})
	return found
}

// Reveal shows every cell holding letter and returns how many were newly
// revealed.
func (b Board) Reveal(letter string) int {
	n := 0
	b.visit(func(_, _, _ int, c *types.LetterCell) bool {
		if c.Char == letter && !c.Revealed {
			c.Revealed = true
			n++
		}
		return true
	})
	return n
}

// RevealFirst shows the first hidden cell in reading order.
func (b Board) RevealFirst() (word, letter int, ok bool) {
	b.visit(func(wi, li, _ int, c *types.LetterCell) bool {
		if c.Revealed {
			return true
		}
		c.Revealed = true
		word, letter, ok = wi, li, true
		return false
	})
	return word, letter, ok
}

// Hidden counts unrevealed cells.
func (b Board) Hidden() int {
	n := 0
	b.visit(func(_, _, _ int, c *types.LetterCell) bool {
		if !c.Revealed {
			n++
		}
		return true
	})
	return n
}

// Text renders the board as the player sees it, with '_' for hidden cells.
func (b Board) Text() string {
	words := make([]string, len(b))
	for i, w := range b {
		var sb strings.Builder
		for _, c := range w {
			if c.Revealed {
				sb.WriteString(c.Char)
			} else {
				sb.WriteByte('_')
			}
		}
		words[i] = sb.String()
	}
	return strings.Join(words, " ")
}

// Positions numbers each distinct letter by order of first appearance,
// starting at 1.
func (b Board) Positions() map[string]int {
	positions := make(map[string]int)
	b.visit(func(_, _, _ int, c *types.LetterCell) bool {
		if _, ok := positions[c.Char]; !ok && c.Char != " " {
			positions[c.Char] = len(positions) + 1
		}
		return true
	})
	return positions
}
