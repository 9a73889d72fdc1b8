// Package knowledge holds the per-category knowledge catalogue and the
// relevance scorer that feeds context retrieval.
package knowledge

import (
	"sort"
	"strings"

	"github.com/resolvd-io/resolvd/pkg/protocol"
)

// Entry is one catalogue item: a content string, a source label, and
// the keyword list the scorer matches against.
type Entry struct {
	Content  string   `yaml:"content" json:"content"`
	Source   string   `yaml:"source" json:"source"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Base is a fixed per-category knowledge catalogue.
type Base struct {
	entries map[protocol.Category][]Entry
}

// NewBase creates a Base seeded with the built-in catalogue.
func NewBase() *Base {
	b := &Base{entries: make(map[protocol.Category][]Entry)}
	for cat, entries := range builtin() {
		b.entries[cat] = append(b.entries[cat], entries...)
	}
	return b
}

// NewEmptyBase creates a Base with no entries.
func NewEmptyBase() *Base {
	return &Base{entries: make(map[protocol.Category][]Entry)}
}

// Add appends entries to a category's catalogue, preserving order.
func (b *Base) Add(cat protocol.Category, entries ...Entry) {
	b.entries[cat] = append(b.entries[cat], entries...)
}

// Len returns the number of entries in a category.
func (b *Base) Len(cat protocol.Category) int {
	return len(b.entries[cat])
}

// Retrieve scores the category's catalogue against the query and returns
// at most maxResults snippets with relevance > 0, ordered by descending
// relevance. Ties keep catalogue order. An empty query or an unknown
// category yields an empty result; this is pure and side-effect free.
func (b *Base) Retrieve(query string, cat protocol.Category, maxResults int) []protocol.ContextSnippet {
	entries, ok := b.entries[cat]
	if !ok {
		return nil
	}

	words := queryWords(query)
	if len(words) == 0 {
		return nil
	}

	var snippets []protocol.ContextSnippet
	for _, e := range entries {
		score := score(words, e)
		if score > 0 {
			snippets = append(snippets, protocol.ContextSnippet{
				Content:        e.Content,
				Source:         e.Source,
				RelevanceScore: score,
			})
		}
	}

	sort.SliceStable(snippets, func(i, j int) bool {
		return snippets[i].RelevanceScore > snippets[j].RelevanceScore
	})

	if maxResults > 0 && len(snippets) > maxResults {
		snippets = snippets[:maxResults]
	}
	return snippets
}

// queryWords tokenizes a query into a deduplicated set of lowercase words.
func queryWords(query string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(query)) {
		words[w] = struct{}{}
	}
	return words
}

// score computes an entry's relevance for the given query words:
// keyword substring hits are weighted double, content substring hits
// single, normalized by len(keywords)+1 and capped at 1.0. The
// constants are a fixed heuristic, reproduced as-is.
func score(words map[string]struct{}, e Entry) float64 {
	keywordMatches := 0
	for _, kw := range e.Keywords {
		kwLower := strings.ToLower(kw)
		for w := range words {
			if strings.Contains(kwLower, w) {
				keywordMatches++
				break
			}
		}
	}

	contentMatches := 0
	contentLower := strings.ToLower(e.Content)
	for w := range words {
		if strings.Contains(contentLower, w) {
			contentMatches++
		}
	}

	raw := float64(2*keywordMatches+contentMatches) / float64(len(e.Keywords)+1)
	if raw > 1.0 {
		return 1.0
	}
	return raw
}
