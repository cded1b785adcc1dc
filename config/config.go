// Package config loads the semindex YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/semindex/ai"
	"github.com/poiesic/semindex/indexing"
	"github.com/poiesic/semindex/source"
)

// DefaultFileNames are searched, in order, when Load is given no path.
var DefaultFileNames = []string{"semindex.yaml", "semindex.yml"}

// Config is the complete semindex configuration.
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Output    OutputConfig    `yaml:"output"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Indexing  IndexingConfig  `yaml:"indexing"`
	Cache     CacheConfig     `yaml:"cache"`
	Watch     WatchConfig     `yaml:"watch"`
	Assets    AssetsConfig    `yaml:"assets"`
}

// SourceConfig locates the document corpus.
type SourceConfig struct {
	Root          string   `yaml:"root"`
	PrivatePrefix string   `yaml:"private_prefix"`
	Extensions    []string `yaml:"extensions"`
}

// OutputConfig locates the index artifact.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Backend    string `yaml:"backend"`
	Host       string `yaml:"host"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	Dimensions int    `yaml:"dimensions"`
	Pooling    string `yaml:"pooling"`
	Normalize  bool   `yaml:"normalize"`
}

// IndexingConfig tunes the build pipeline.
type IndexingConfig struct {
	BatchSize         int     `yaml:"batch_size"`
	MaxConcurrency    int     `yaml:"max_concurrency"`
	MinFragmentLength int     `yaml:"min_fragment_length"`
	MaxAttempts       int     `yaml:"max_attempts"`
	RetryDelay        string  `yaml:"retry_delay"`
	RateLimit         float64 `yaml:"rate_limit"` // provider calls per second, 0 = unlimited
}

// CacheConfig configures the embedding cache. An empty Dir disables the
// persistent layer; Size bounds the in-memory layer.
type CacheConfig struct {
	Dir     string `yaml:"dir"`
	Size    int    `yaml:"size"`
	Enabled bool   `yaml:"enabled"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// AssetsConfig configures the one-time copy of model assets.
type AssetsConfig struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	batcher := indexing.DefaultBatcherConfig()
	provider := ai.DefaultConfig()
	return &Config{
		Source: SourceConfig{
			Root:          "content",
			PrivatePrefix: source.DefaultPrivatePrefix,
			Extensions:    append([]string(nil), source.DefaultExtensions...),
		},
		Output: OutputConfig{
			Path: filepath.Join("public", "search-index.json"),
		},
		Embedding: EmbeddingConfig{
			Backend:   provider.Backend,
			Host:      provider.Host,
			Model:     provider.Model,
			Pooling:   provider.Pooling,
			Normalize: provider.Normalize,
		},
		Indexing: IndexingConfig{
			BatchSize:         batcher.BatchSize,
			MaxConcurrency:    batcher.MaxConcurrency,
			MinFragmentLength: indexing.DefaultMinFragmentLength,
			MaxAttempts:       batcher.MaxAttempts,
			RetryDelay:        batcher.RetryDelay.String(),
		},
		Cache: CacheConfig{
			Size:    ai.DefaultEmbeddingCacheSize,
			Enabled: true,
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
	}
}

// Load builds the configuration in layers:
//  1. Defaults (NewConfig)
//  2. The YAML file at path, or the first of DefaultFileNames in the working
//     directory when path is empty (a missing default file is fine)
//  3. Environment variables (SEMINDEX_*, OPENAI_API_KEY)
//
// The result is validated.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = findDefaultFile(".")
	}
	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func findDefaultFile(dir string) string {
	for _, name := range DefaultFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// loadYAML decodes path over the current values; keys absent from the file
// keep their defaults.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SEMINDEX_EMBEDDING_BACKEND"); v != "" {
		c.Embedding.Backend = v
	}
	if v := os.Getenv("SEMINDEX_EMBEDDING_HOST"); v != "" {
		c.Embedding.Host = v
	}
	if v := os.Getenv("SEMINDEX_EMBEDDING_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	// OPENAI_API_KEY is the conventional name; SEMINDEX_API_KEY wins when both are set.
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Embedding.APIKey = v
	}
	if v := os.Getenv("SEMINDEX_API_KEY"); v != "" {
		c.Embedding.APIKey = v
	}
	if v := os.Getenv("SEMINDEX_CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source.Root) == "" {
		return errors.New("source.root is required")
	}
	if len(c.Source.Extensions) == 0 {
		return errors.New("source.extensions must not be empty")
	}
	if strings.TrimSpace(c.Output.Path) == "" {
		return errors.New("output.path is required")
	}
	if c.Indexing.BatchSize < 1 {
		return fmt.Errorf("indexing.batch_size must be positive, got %d", c.Indexing.BatchSize)
	}
	if c.Indexing.MaxConcurrency < 1 {
		return fmt.Errorf("indexing.max_concurrency must be positive, got %d", c.Indexing.MaxConcurrency)
	}
	if c.Indexing.MinFragmentLength < 0 {
		return fmt.Errorf("indexing.min_fragment_length must be non-negative, got %d", c.Indexing.MinFragmentLength)
	}
	if c.Indexing.MaxAttempts < 1 {
		return fmt.Errorf("indexing.max_attempts must be positive, got %d", c.Indexing.MaxAttempts)
	}
	if c.Indexing.RateLimit < 0 {
		return fmt.Errorf("indexing.rate_limit must be non-negative, got %g", c.Indexing.RateLimit)
	}
	if _, err := c.RetryDelay(); err != nil {
		return err
	}
	if _, err := c.DebounceInterval(); err != nil {
		return err
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("cache.size must be non-negative, got %d", c.Cache.Size)
	}
	if !c.Embedding.Normalize {
		return errors.New("embedding.normalize must be true: the index is searched by cosine similarity over unit vectors")
	}
	return c.AIConfig().Validate()
}

// RetryDelay parses indexing.retry_delay.
func (c *Config) RetryDelay() (time.Duration, error) {
	return parseDuration("indexing.retry_delay", c.Indexing.RetryDelay)
}

// DebounceInterval parses watch.debounce.
func (c *Config) DebounceInterval() (time.Duration, error) {
	return parseDuration("watch.debounce", c.Watch.Debounce)
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must be non-negative, got %s", key, value)
	}
	return d, nil
}

// AIConfig converts the embedding section into a provider configuration.
func (c *Config) AIConfig() *ai.Config {
	cfg := ai.NewConfig(
		ai.WithBackend(c.Embedding.Backend),
		ai.WithHost(c.Embedding.Host),
		ai.WithModel(c.Embedding.Model),
		ai.WithAPIKey(c.Embedding.APIKey),
		ai.WithDimensions(c.Embedding.Dimensions),
		ai.WithNormalize(c.Embedding.Normalize),
		ai.WithBatchSize(c.Indexing.BatchSize),
	)
	if c.Embedding.Pooling != "" {
		cfg.Pooling = c.Embedding.Pooling
	}
	return cfg
}

// WriteYAML writes the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
