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

// Package ai provides the embedding provider abstraction used by semindex.
//
// The indexing pipeline depends only on the interfaces in this package, so the
// provider backing a build can be swapped without touching the pipeline.
//
// # Interfaces
//
//   - Embedder: maps an ordered list of texts to an ordered list of vectors
//   - Provider: owns an Embedder for the lifetime of one build and reports the
//     model name and vector dimensionality
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible HTTP APIs (OpenAI, LocalAI, vLLM, Ollama's /v1)
//   - ai/ollama: Ollama's native embedding endpoint
//   - ai/mock: deterministic unit-length vectors for tests
//
// # Constructor Return Type Pattern
//
// Production constructors (openai.NewProvider, ollama.NewProvider) return the
// ai.Provider interface. Mock constructors return concrete types so tests can
// inject failures and count calls.
//
//	provider, err := openai.NewProvider(ai.NewConfig(ai.WithModel("text-embedding-3-small")))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vectors, err := provider.Embedder().EmbedTexts(ctx, []string{"first", "second"})
//
// # Pooling and normalization
//
// Providers are asked for mean-pooled vectors. Normalization to unit length is
// applied client-side with NormalizeVector, since not every backend honours a
// normalize flag.
package ai
