// Package catalog holds the fixed set of puzzle sentences, grouped by category.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"frazludo/internal/types"
)

//go:embed sentences.yaml
var builtinYAML []byte

// Category groups sentences under a selectable id.
type Category struct {
	ID          string           `yaml:"id"`
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Sentences   []types.Sentence `yaml:"sentences"`
}

type document struct {
	Categories []Category `yaml:"categories"`
}

// Catalog is immutable once parsed and safe for concurrent use.
type Catalog struct {
	categories []Category
	byID       map[string]int
	byText     map[string]types.Sentence
}

var (
	builtinOnce sync.Once
	builtin     *Catalog
)

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	builtinOnce.Do(func() {
		c, err := Parse(builtinYAML)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded sentences are invalid: %v", err))
		}
		builtin = c
	})
	return builtin
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, errors.New("catalog has no categories")
	}

	c := &Catalog{
		byID:   make(map[string]int, len(doc.Categories)),
		byText: make(map[string]types.Sentence),
	}
	for _, cat := range doc.Categories {
		id := strings.ToLower(strings.TrimSpace(cat.ID))
		if id == "" || strings.Contains(id, ",") {
			return nil, fmt.Errorf("invalid category id %q", cat.ID)
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("duplicate category id %q", id)
		}
		cat.ID = id
		if cat.Name == "" {
			cat.Name = id
		}

		sentences := make([]types.Sentence, 0, len(cat.Sentences))
		for _, s := range cat.Sentences {
			text, err := NormalizeText(s.Text)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", id, err)
			}
			if _, dup := c.byText[text]; dup {
				return nil, fmt.Errorf("category %s: duplicate sentence %q", id, text)
			}
			s.Text = text
			c.byText[text] = s
			sentences = append(sentences, s)
		}
		cat.Sentences = sentences
		c.byID[id] = len(c.categories)
		c.categories = append(c.categories, cat)
	}
	return c, nil
}

// NormalizeText uppercases a sentence and collapses its whitespace. It
// rejects empty text and anything outside A-Z.
func NormalizeText(text string) (string, error) {
	normalized := strings.Join(strings.Fields(strings.ToUpper(text)), " ")
	if normalized == "" {
		return "", errors.New("empty sentence")
	}
	for _, r := range normalized {
		if r != ' ' && (r < 'A' || r > 'Z') {
			return "", fmt.Errorf("sentence %q contains %q", normalized, r)
		}
	}
	return normalized, nil
}

// Categories returns every category in catalog order.
func (c *Catalog) Categories() []Category {
	return c.categories
}

func (c *Catalog) Category(id string) (Category, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Category{}, false
	}
	return c.categories[i], true
}

// Lookup finds a sentence by its exact text.
func (c *Catalog) Lookup(text string) (types.Sentence, bool) {
	s, ok := c.byText[text]
	return s, ok
}

// Len is the total number of sentences.
func (c *Catalog) Len() int {
	return len(c.byText)
}

// Known keeps the ids that name a category, preserving order.
func (c *Catalog) Known(ids []string) []string {
	return lo.Filter(ids, func(id string, _ int) bool {
		_, ok := c.byID[id]
		return ok
	})
}

// Sentences returns the union of the given categories' sentences in
// category order. Unknown ids are skipped.
func (c *Catalog) Sentences(ids []string) []types.Sentence {
	all := lo.FlatMap(c.Known(ids), func(id string, _ int) []types.Sentence {
		return c.categories[c.byID[id]].Sentences
	})
	return lo.UniqBy(all, func(s types.Sentence) string { return s.Text })
}

// ParseKey splits a comma-joined category key into lowercase unique ids.
func ParseKey(key string) []string {
	ids := lo.Map(strings.Split(key, ","), func(id string, _ int) string {
		return strings.ToLower(strings.TrimSpace(id))
	})
	return lo.Uniq(lo.Compact(ids))
}

// Key joins category ids the way they appear in game URLs.
func Key(ids []string) string {
	return strings.Join(ids, ",")
}
