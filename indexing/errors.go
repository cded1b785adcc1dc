package indexing

import "errors"

var (
	// ErrSourceRequired is returned when a document source is not provided.
	ErrSourceRequired = errors.New("document source required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidBatchSize is returned when the batch size is less than 1.
	ErrInvalidBatchSize = errors.New("batch size must be positive")

	// ErrInvalidConcurrency is returned when max concurrency is less than 1.
	ErrInvalidConcurrency = errors.New("max concurrency must be positive")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrMisalignedResponse is returned when the provider returns a different
	// number of vectors than texts submitted.
	ErrMisalignedResponse = errors.New("provider returned misaligned vectors")

	// ErrAssembly is returned when fresh entries do not match the documents
	// that expected them.
	ErrAssembly = errors.New("index assembly failed")

	errStaleIndex = errors.New("previous index has a different vector dimension")
)
