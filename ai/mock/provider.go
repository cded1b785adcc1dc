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

package mock

import "github.com/poiesic/semindex/ai"

// DefaultModel is the model name reported by MockProvider.
const DefaultModel = "mock-embedding"

// MockProvider is a test double for ai.Provider.
type MockProvider struct {
	embedder *MockEmbedder
	model    string
	closed   int
}

// NewMockProvider creates a new mock provider with a default mock embedder.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use GetMockEmbedder() to access the concrete type for test assertions.
func NewMockProvider() ai.Provider {
	return NewMockProviderWithEmbedder(NewMockEmbedder())
}

// NewMockProviderWithEmbedder creates a mock provider around a custom embedder.
func NewMockProviderWithEmbedder(embedder *MockEmbedder) *MockProvider {
	return &MockProvider{embedder: embedder, model: DefaultModel}
}

// WithModel sets the reported model name.
func (p *MockProvider) WithModel(model string) *MockProvider {
	p.model = model
	return p
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Dimensions returns the mock embedder's vector length.
func (p *MockProvider) Dimensions() int {
	return p.embedder.Dimensions()
}

// ModelName returns the reported model name.
func (p *MockProvider) ModelName() string {
	return p.model
}

// Close records the call. It never fails.
func (p *MockProvider) Close() error {
	p.closed++
	return nil
}

// CloseCount returns how many times Close was called.
func (p *MockProvider) CloseCount() int {
	return p.closed
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}
