package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	dxerrors "github.com/docdex/docdex/internal/errors"
)

// chdirTemp switches to a fresh temp dir for the test, restoring the
// previous working directory on cleanup (t.Chdir requires Go 1.24+).
func chdirTemp(t *testing.T) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "data/docs", cfg.Data.Dir)
	assert.Equal(t, "ollama", cfg.Embeddings.Provider)
	assert.Equal(t, 5, cfg.Search.TopK)
	assert.Equal(t, 8390, cfg.Server.Port)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)

	var dxErr *dxerrors.Error
	require.ErrorAs(t, err, &dxErr)
	assert.Equal(t, dxerrors.ErrCodeConfigNotFound, dxErr.Code)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docdex.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data:
  dir: /srv/corpus
embeddings:
  provider: static
  batch_size: 8
search:
  top_k: 10
  expand_queries: true
watch:
  enabled: true
  debounce: 500ms
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/corpus", cfg.Data.Dir)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
	assert.Equal(t, 8, cfg.Embeddings.BatchSize)
	assert.Equal(t, 10, cfg.Search.TopK)
	assert.True(t, cfg.Search.ExpandQueries)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce.Std())

	// Untouched sections keep defaults.
	assert.Equal(t, "nomic-embed-text", cfg.Embeddings.Model)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docdex.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embeddings:\n  provider: ollama\n"), 0o644))

	t.Setenv("DOCDEX_EMBEDDER", "static")
	t.Setenv("DOCDEX_PORT", "9000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "static", cfg.Embeddings.Provider)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    time.Duration
		wantErr bool
	}{
		{"seconds", "d: 30s", 30 * time.Second, false},
		{"milliseconds", "d: 250ms", 250 * time.Millisecond, false},
		{"compound", "d: 1m30s", 90 * time.Second, false},
		{"bare nanoseconds", "d: 1000000000", time.Second, false},
		{"garbage", "d: soon", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				D Duration `yaml:"d"`
			}
			err := yaml.Unmarshal([]byte(tt.yaml), &out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.D.Std())
		})
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docdex.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data: [not: a: mapping"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data dir", func(c *Config) { c.Data.Dir = "" }},
		{"empty cache path", func(c *Config) { c.Cache.Path = "" }},
		{"missing meta path", func(c *Config) { c.Index.MetaPath = "" }},
		{"artifact paths collide", func(c *Config) { c.Index.MetaPath = c.Index.Path }},
		{"unknown provider", func(c *Config) { c.Embeddings.Provider = "wordnet" }},
		{"bad batch size", func(c *Config) { c.Embeddings.BatchSize = 0 }},
		{"bad top_k", func(c *Config) { c.Search.TopK = -1 }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, NewConfig().Validate())
}
