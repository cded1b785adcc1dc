// Package mock provides a deterministic embedding provider for tests.
//
// MockEmbedder maps each text to a fixed pseudo-random unit vector derived from
// an FNV hash of the text, so identical inputs always produce identical
// vectors and no network access is needed.
//
// # Usage
//
//	provider := mock.NewMockProvider()
//	vectors, err := provider.Embedder().EmbedTexts(ctx, []string{"a", "b"})
//
//	// Inject failures
//	embedder := mock.NewMockEmbedder().
//	    WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
//	        return nil, errors.New("model not loaded")
//	    })
//
//	// Inspect what was sent
//	calls := embedder.Calls()
//
// All methods are safe for concurrent use.
package mock
