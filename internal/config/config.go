// Package config loads docdex configuration from YAML with environment
// variable overrides.
//
// Precedence, lowest to highest: built-in defaults, docdex.yaml in the
// working directory (or --config path), DOCDEX_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	dxerrors "github.com/docdex/docdex/internal/errors"
)

// DefaultConfigFile is the config filename looked up in the working directory.
const DefaultConfigFile = "docdex.yaml"

// Duration wraps time.Duration so YAML values can use Go duration syntax
// ("60s", "500ms"). Bare integers are taken as nanoseconds.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(n)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Config is the complete docdex configuration.
type Config struct {
	Data       DataConfig       `yaml:"data"`
	Cache      CacheConfig      `yaml:"cache"`
	Index      IndexConfig      `yaml:"index"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Search     SearchConfig     `yaml:"search"`
	Server     ServerConfig     `yaml:"server"`
	Watch      WatchConfig      `yaml:"watch"`
}

// DataConfig locates the document corpus.
type DataConfig struct {
	// Dir is the directory of .txt documents to ingest.
	Dir string `yaml:"dir"`
}

// CacheConfig locates the embedding cache.
type CacheConfig struct {
	// Path is the SQLite database file for cached embeddings.
	Path string `yaml:"path"`
}

// IndexConfig locates the persisted index artifact pair.
type IndexConfig struct {
	// Path is the vector store artifact.
	Path string `yaml:"path"`
	// MetaPath is the ordinal-to-metadata artifact, always read and written
	// together with Path.
	MetaPath string `yaml:"meta_path"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	Provider   string   `yaml:"provider"`   // "ollama" or "static"
	Host       string   `yaml:"host"`       // Ollama endpoint
	Model      string   `yaml:"model"`      // model name
	Dimensions int      `yaml:"dimensions"` // 0 = auto-detect
	BatchSize  int      `yaml:"batch_size"`
	Timeout    Duration `yaml:"timeout"`
	CacheSize  int      `yaml:"cache_size"` // query-embedding LRU entries
}

// SearchConfig configures query handling.
type SearchConfig struct {
	// TopK is the default number of results when a request omits top_k.
	TopK int `yaml:"top_k"`
	// ExpandQueries enables synonym-based query expansion.
	ExpandQueries bool `yaml:"expand_queries"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// WatchConfig configures serve-mode corpus watching.
type WatchConfig struct {
	// Enabled turns on fsnotify-driven full rebuilds in serve mode.
	Enabled bool `yaml:"enabled"`
	// Debounce is how long to wait after the last filesystem event before
	// rebuilding.
	Debounce Duration `yaml:"debounce"`
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Data:  DataConfig{Dir: "data/docs"},
		Cache: CacheConfig{Path: filepath.Join(".docdex", "cache.db")},
		Index: IndexConfig{
			Path:     filepath.Join(".docdex", "index.bin"),
			MetaPath: filepath.Join(".docdex", "index.meta"),
		},
		Embeddings: EmbeddingsConfig{
			Provider:  "ollama",
			Host:      "http://localhost:11434",
			Model:     "nomic-embed-text",
			BatchSize: 32,
			Timeout:   Duration(60 * time.Second),
			CacheSize: 1000,
		},
		Search: SearchConfig{TopK: 5},
		Server: ServerConfig{Host: "127.0.0.1", Port: 8390, LogLevel: "info"},
		Watch:  WatchConfig{Debounce: Duration(2 * time.Second)},
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (or DefaultConfigFile in the working directory when path is empty;
// a missing default file is fine), then environment overrides, then
// validation.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	explicit := path != ""
	if path == "" {
		path = DefaultConfigFile
	}

	if err := cfg.loadYAML(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if explicit {
				return nil, dxerrors.New(dxerrors.ErrCodeConfigNotFound,
					fmt.Sprintf("config file %s does not exist", path), err)
			}
		} else {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return err
		}
		return dxerrors.New(dxerrors.ErrCodeConfigNotFound,
			fmt.Sprintf("cannot read config file %s", path), err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return dxerrors.New(dxerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("cannot parse config file %s", path), err)
	}
	return nil
}

// applyEnvOverrides applies DOCDEX_* environment variables, the highest
// precedence layer.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCDEX_DATA_DIR"); v != "" {
		c.Data.Dir = v
	}
	if v := os.Getenv("DOCDEX_CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
	if v := os.Getenv("DOCDEX_INDEX_PATH"); v != "" {
		c.Index.Path = v
	}
	if v := os.Getenv("DOCDEX_INDEX_META_PATH"); v != "" {
		c.Index.MetaPath = v
	}
	if v := os.Getenv("DOCDEX_EMBEDDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("DOCDEX_OLLAMA_HOST"); v != "" {
		c.Embeddings.Host = v
	}
	if v := os.Getenv("DOCDEX_EMBED_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("DOCDEX_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("DOCDEX_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

// Validate checks the final configuration.
func (c *Config) Validate() error {
	if c.Data.Dir == "" {
		return dxerrors.New(dxerrors.ErrCodeConfigInvalid, "data.dir must not be empty", nil)
	}
	if c.Cache.Path == "" {
		return dxerrors.New(dxerrors.ErrCodeConfigInvalid, "cache.path must not be empty", nil)
	}
	if c.Index.Path == "" || c.Index.MetaPath == "" {
		return dxerrors.New(dxerrors.ErrCodeConfigInvalid,
			"index.path and index.meta_path must both be set; the artifacts are a pair", nil)
	}
	if c.Index.Path == c.Index.MetaPath {
		return dxerrors.New(dxerrors.ErrCodeConfigInvalid,
			"index.path and index.meta_path must differ", nil)
	}
	switch c.Embeddings.Provider {
	case "ollama", "static":
	default:
		return dxerrors.New(dxerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown embeddings.provider %q", c.Embeddings.Provider), nil)
	}
	if c.Embeddings.BatchSize <= 0 {
		return dxerrors.New(dxerrors.ErrCodeConfigInvalid, "embeddings.batch_size must be positive", nil)
	}
	if c.Search.TopK <= 0 {
		return dxerrors.New(dxerrors.ErrCodeConfigInvalid, "search.top_k must be positive", nil)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return dxerrors.New(dxerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("server.port %d out of range", c.Server.Port), nil)
	}
	return nil
}

// ArtifactDir returns the directory holding the index artifacts, used for
// the ingest lock.
func (c *Config) ArtifactDir() string {
	return filepath.Dir(c.Index.Path)
}
