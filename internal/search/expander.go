package search

import (
	"sort"
	"strings"
)

// Expander rewrites a query before normalization and embedding. It is purely
// textual and never touches the cache or index.
type Expander interface {
	Expand(query string) string
}

// SynonymExpander widens queries with a static synonym table, addressing
// vocabulary mismatch between query terms and document terms. Original terms
// are always kept; added terms are deduplicated.
type SynonymExpander struct {
	synonyms      map[string][]string
	maxExpansions int
}

// defaultSynonyms maps common query terms to corpus vocabulary equivalents.
var defaultSynonyms = map[string][]string{
	"space":    {"orbit", "nasa", "satellite"},
	"mission":  {"launch", "spacecraft"},
	"computer": {"software", "hardware"},
	"graphics": {"image", "rendering"},
	"politics": {"government", "policy"},
	"conflict": {"war", "dispute"},
	"windows":  {"microsoft", "os"},
	"car":      {"auto", "vehicle"},
	"doctor":   {"medical", "physician"},
	"illness":  {"disease", "medicine"},
}

// ExpanderOption configures a SynonymExpander.
type ExpanderOption func(*SynonymExpander)

// WithMaxExpansions caps the number of synonyms added per term.
func WithMaxExpansions(n int) ExpanderOption {
	return func(e *SynonymExpander) {
		e.maxExpansions = n
	}
}

// WithSynonyms adds custom synonym mappings on top of the defaults.
func WithSynonyms(synonyms map[string][]string) ExpanderOption {
	return func(e *SynonymExpander) {
		for k, v := range synonyms {
			e.synonyms[k] = append(e.synonyms[k], v...)
		}
	}
}

// NewSynonymExpander creates an expander with the default synonym table.
func NewSynonymExpander(opts ...ExpanderOption) *SynonymExpander {
	e := &SynonymExpander{
		synonyms:      make(map[string][]string),
		maxExpansions: 3,
	}
	for k, v := range defaultSynonyms {
		e.synonyms[k] = v
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand returns the query followed by up to maxExpansions synonyms per
// term. A term with no synonyms passes through unchanged.
func (e *SynonymExpander) Expand(query string) string {
	words := strings.Fields(query)
	if len(words) == 0 {
		return query
	}

	seen := make(map[string]bool, len(words))
	for _, w := range words {
		seen[strings.ToLower(w)] = true
	}

	var added []string
	for _, w := range words {
		syns := e.synonyms[strings.ToLower(w)]
		count := 0
		for _, s := range syns {
			if count >= e.maxExpansions {
				break
			}
			if seen[s] {
				continue
			}
			seen[s] = true
			added = append(added, s)
			count++
		}
	}

	if len(added) == 0 {
		return query
	}
	sort.Strings(added)
	return query + " " + strings.Join(added, " ")
}
