// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"errors"
	"fmt"
	"strings"
)

// Supported embedding backends.
const (
	BackendOpenAI = "openai"
	BackendOllama = "ollama"
)

// PoolingMean is the only pooling strategy accepted by the pipeline.
const PoolingMean = "mean"

// Config holds configuration for the embedding provider.
type Config struct {
	// Backend selects the provider implementation: "openai" or "ollama".
	Backend string

	// Host is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server
	Host string

	// Model is the model identifier to use for text embeddings.
	// Example: "all-minilm", "text-embedding-3-small"
	Model string

	// APIKey authenticates against hosted APIs. Local servers accept any value.
	APIKey string

	// Dimensions is the expected vector length. Zero means it is learned from
	// the first response; a non-zero value is enforced on every vector.
	Dimensions int

	// Pooling is the token pooling strategy requested from the provider.
	Pooling string

	// Normalize scales every vector to unit length.
	Normalize bool

	// BatchSize is the maximum number of texts sent in one provider call.
	BatchSize int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBackend sets the provider backend.
func WithBackend(backend string) ConfigOption {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithHost sets the embedding service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the embedding model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithDimensions sets the expected vector length.
func WithDimensions(dims int) ConfigOption {
	return func(c *Config) {
		c.Dimensions = dims
	}
}

// WithNormalize enables or disables unit-length normalization.
func WithNormalize(normalize bool) ConfigOption {
	return func(c *Config) {
		c.Normalize = normalize
	}
}

// WithBatchSize sets the number of texts per provider call.
func WithBatchSize(size int) ConfigOption {
	return func(c *Config) {
		c.BatchSize = size
	}
}

// DefaultConfig returns a Config with sensible defaults for a local OpenAI-compatible service.
func DefaultConfig() *Config {
	return &Config{
		Backend:   BackendOpenAI,
		Host:      "http://localhost:11434/v1",
		Model:     "all-minilm",
		Pooling:   PoolingMean,
		Normalize: true,
		BatchSize: 16,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithBackend(BackendOllama),
//	    WithHost("http://localhost:11434"),
//	    WithModel("nomic-embed-text"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Canonicalize puts the configuration in canonical form.
// OpenAI-compatible hosts get a /v1 suffix; Ollama's native API is served
// from the bare host, so the suffix is removed there.
func (c *Config) Canonicalize() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = BackendOpenAI
	}
	if c.Pooling == "" {
		c.Pooling = PoolingMean
	}
	if c.Host == "" {
		return
	}
	host := strings.TrimSuffix(c.Host, "/")
	switch c.Backend {
	case BackendOpenAI:
		if !strings.HasSuffix(host, "/v1") {
			host += "/v1"
		}
	case BackendOllama:
		host = strings.TrimSuffix(host, "/v1")
	}
	c.Host = host
}

// Validate checks that the configuration is valid and complete.
// It canonicalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Canonicalize()

	if c.Backend != BackendOpenAI && c.Backend != BackendOllama {
		return fmt.Errorf("ai config: %w: %q", ErrUnknownBackend, c.Backend)
	}
	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	if c.Model == "" {
		return errors.New("ai config: Model is required")
	}
	if c.Pooling != PoolingMean {
		return fmt.Errorf("ai config: %w: %q", ErrUnsupportedPooling, c.Pooling)
	}
	if c.Dimensions < 0 {
		return errors.New("ai config: Dimensions must not be negative")
	}
	if c.BatchSize < 1 {
		return errors.New("ai config: BatchSize must be positive")
	}
	return nil
}
