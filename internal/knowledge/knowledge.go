// Package knowledge is the static finance primer behind search, Q&A and the
// daily tips job.
package knowledge

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyQuery is returned for blank questions and queries.
var ErrEmptyQuery = errors.New("query is empty")

//go:embed knowledge.yaml
var builtin []byte

type Item struct {
	ID       string   `yaml:"id" json:"id"`
	Title    string   `yaml:"title" json:"title"`
	Content  string   `yaml:"content" json:"content"`
	Category string   `yaml:"category" json:"category"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Base is an immutable, ordered set of items.
type Base struct {
	items []Item
}

// Default parses the built-in primer.
func Default() (*Base, error) {
	return Parse(builtin)
}

// Parse reads a YAML document of the form `items: [...]`.
func Parse(data []byte) (*Base, error) {
	var doc struct {
		Items []Item `yaml:"items"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error decoding knowledge base: %w", err)
	}
	if len(doc.Items) == 0 {
		return nil, errors.New("knowledge base is empty")
	}
	seen := make(map[string]struct{}, len(doc.Items))
	for _, it := range doc.Items {
		if it.ID == "" || it.Title == "" {
			return nil, errors.New("knowledge item needs an id and a title")
		}
		if _, dup := seen[it.ID]; dup {
			return nil, fmt.Errorf("duplicate knowledge item %q", it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	return &Base{items: doc.Items}, nil
}

// Items returns a copy of every item in base order.
func (b *Base) Items() []Item {
	return append([]Item(nil), b.items...)
}

func (b *Base) Len() int { return len(b.items) }

// Score rates how well item matches query: +3 when a query token appears in
// the title, +2 when one of the item's keywords appears in the query, +1 for
// each query token found in the content. Matching ignores case.
func Score(item Item, query string) int {
	tokens := strings.Fields(query)
	queryLower := strings.ToLower(query)
	titleLower := strings.ToLower(item.Title)
	contentLower := strings.ToLower(item.Content)

	score := 0
	for _, tok := range tokens {
		if strings.Contains(titleLower, strings.ToLower(tok)) {
			score += 3
			break
		}
	}
	for _, kw := range item.Keywords {
		if strings.Contains(queryLower, strings.ToLower(kw)) {
			score += 2
			break
		}
	}
	for _, tok := range tokens {
		if strings.Contains(contentLower, strings.ToLower(tok)) {
			score++
		}
	}
	return score
}

// Search returns up to topK items with a positive score, best first. Equal
// scores keep base order.
func (b *Base) Search(query string, topK int) []Item {
	if topK <= 0 {
		return nil
	}
	if strings.TrimSpace(query) == "" {
		return nil
	}

	type scored struct {
		item  Item
		score int
	}
	var hits []scored
	for _, it := range b.items {
		if s := Score(it, query); s > 0 {
			hits = append(hits, scored{it, s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if len(hits) > topK {
		hits = hits[:topK]
	}
	out := make([]Item, len(hits))
	for i, h := range hits {
		out[i] = h.item
	}
	return out
}

// Categories lists distinct categories in order of first appearance.
func (b *Base) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, it := range b.items {
		if _, ok := seen[it.Category]; ok {
			continue
		}
		seen[it.Category] = struct{}{}
		out = append(out, it.Category)
	}
	return out
}

// ByCategory returns the items of one category in base order.
func (b *Base) ByCategory(category string) []Item {
	var out []Item
	for _, it := range b.items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	return out
}

// Random picks one item. A nil r uses the global source.
func (b *Base) Random(r *rand.Rand) Item {
	if r == nil {
		return b.items[rand.IntN(len(b.items))]
	}
	return b.items[r.IntN(len(b.items))]
}
