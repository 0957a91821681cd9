package embed

import (
	"fmt"
	"strings"
	"time"
)

// ProviderType represents an embedding provider.
type ProviderType string

const (
	// ProviderOllama uses the Ollama HTTP API for embeddings (default).
	ProviderOllama ProviderType = "ollama"

	// ProviderStatic uses hash-based embeddings (offline indexing and tests).
	ProviderStatic ProviderType = "static"
)

// Options selects and configures an embedding provider.
type Options struct {
	Provider   string        // "ollama" or "static"
	Host       string        // Ollama endpoint
	Model      string        // Model name
	Dimensions int           // Expected dimensions; 0 = auto-detect
	BatchSize  int           // Texts per encode request
	Timeout    time.Duration // Per-request timeout
	CacheSize  int           // Query-embedding LRU size; 0 = default
}

// New creates an embedder for the configured provider, wrapped with the
// in-memory query-embedding LRU.
func New(opts Options) (Embedder, error) {
	var inner Embedder

	switch ProviderType(strings.ToLower(opts.Provider)) {
	case ProviderStatic:
		inner = NewStaticEmbedder()
	case ProviderOllama, "":
		inner = NewOllamaEmbedder(OllamaConfig{
			Host:       opts.Host,
			Model:      opts.Model,
			Dimensions: opts.Dimensions,
			BatchSize:  opts.BatchSize,
			Timeout:    opts.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", opts.Provider)
	}

	return NewCachedEmbedder(inner, opts.CacheSize), nil
}
