// Package search binds query embeddings to the vector index and shapes
// ranked hits into explained results.
package search

import (
	"fmt"
	"unicode/utf8"

	"github.com/docdex/docdex/internal/index"
)

// PreviewLength is the number of normalized-text characters included in a
// result preview before the truncation marker.
const PreviewLength = 200

// truncationMarker is appended to every preview.
const truncationMarker = "..."

// Result is one ranked search hit. Transient; constructed per query.
type Result struct {
	DocID       string      `json:"doc_id"`
	Score       float32     `json:"score"`
	Preview     string      `json:"preview"`
	Explanation Explanation `json:"explanation"`
}

// Explanation is human-readable per-result metadata.
type Explanation struct {
	WhyThis   string `json:"why_this"`
	DocLength int    `json:"doc_length"`
}

// Service decorates index hits with previews and explanations.
// It is a pure transformation over the index; no additional state.
type Service struct {
	idx *index.Flat
}

// NewService creates a search service over a built or reloaded index.
func NewService(idx *index.Flat) *Service {
	return &Service{idx: idx}
}

// Search ranks the query vector against the index and returns decorated
// results, highest score first.
func (s *Service) Search(queryVec []float32, topK int) ([]Result, error) {
	hits, err := s.idx.Search(queryVec, topK)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(hits))
	for i, h := range hits {
		results[i] = Result{
			DocID:   h.Meta.DocID,
			Score:   h.Score,
			Preview: preview(h.Meta.Text),
			Explanation: Explanation{
				WhyThis:   fmt.Sprintf("Similarity score %.4f", h.Score),
				DocLength: h.Meta.Length,
			},
		}
	}
	return results, nil
}

// Len returns the number of searchable documents.
func (s *Service) Len() int {
	return s.idx.Len()
}

// Dims returns the index vector dimension.
func (s *Service) Dims() int {
	return s.idx.Dims()
}

// preview truncates normalized text to PreviewLength characters and appends
// an explicit truncation marker. Truncation counts runes so a multibyte
// character is never split.
func preview(text string) string {
	if utf8.RuneCountInString(text) > PreviewLength {
		runes := []rune(text)
		text = string(runes[:PreviewLength])
	}
	return text + truncationMarker
}
