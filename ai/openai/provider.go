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

package openai

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/semindex/ai"
)

// Provider implements ai.Provider using OpenAI-compatible services.
type Provider struct {
	config   *ai.Config
	embedder *Embedder
	logger   *slog.Logger
}

// NewProvider creates a new provider backed by an OpenAI-compatible embeddings API.
// The config is validated and normalized before use. Hosted OpenAI requires an API key.
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Backend != ai.BackendOpenAI {
		return nil, fmt.Errorf("openai provider: %w: %q", ai.ErrUnknownBackend, config.Backend)
	}
	if strings.Contains(config.Host, "api.openai.com") && config.APIKey == "" {
		return nil, fmt.Errorf("openai provider: %w", ai.ErrMissingAPIKey)
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "openai-provider")
	logger.Debug("provider ready", "host", config.Host, "model", config.Model)

	return &Provider{
		config:   config,
		embedder: embedder,
		logger:   logger,
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Dimensions returns the configured vector length, 0 if unknown.
func (p *Provider) Dimensions() int {
	return p.config.Dimensions
}

// ModelName returns the embedding model identifier.
func (p *Provider) ModelName() string {
	return p.config.Model
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying HTTP client doesn't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
