package ollama

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/semindex/ai"
)

// Provider implements ai.Provider on top of an Ollama server.
type Provider struct {
	config   *ai.Config
	embedder *Embedder
	logger   *slog.Logger
}

// NewProvider validates config and creates the Ollama-backed provider.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Backend != ai.BackendOllama {
		return nil, fmt.Errorf("ollama provider: %w: %q", ai.ErrUnknownBackend, config.Backend)
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:   config,
		embedder: embedder,
		logger:   slog.Default().With("component", "ollama-provider"),
	}, nil
}

func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *Provider) Dimensions() int {
	return p.config.Dimensions
}

func (p *Provider) ModelName() string {
	return p.config.Model
}

func (p *Provider) Close() error {
	p.logger.Debug("closing Ollama provider")
	return nil
}
