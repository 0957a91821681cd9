// Package text provides the shared normalization routine and content hashing
// used for cache staleness detection.
//
// Two documents that differ only in formatting (case, markup, whitespace)
// normalize to the same string and therefore hash identically. This dedups
// content-level duplicates, not byte-level ones.
package text

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	markupRe     = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize lowercases text, strips markup tags, and collapses runs of
// whitespace to single spaces. It is a pure, total function.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = markupRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Hash returns the SHA-256 hex digest of s. Callers must pass text that has
// already been through Normalize so formatting variants hash identically.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
