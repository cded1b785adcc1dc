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

package core

import "errors"

// Build error kinds. Fatal kinds abort the build before any artifact is written.
var (
	// ErrSourceAccess indicates a document could not be read or stat'ed. Fatal.
	ErrSourceAccess = errors.New("source access error")

	// ErrMalformedDocument indicates a document's front matter could not be parsed.
	// Recoverable: the document is skipped.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrDuplicateSlug indicates two documents resolved to the same slug.
	// Recoverable: the later document is skipped.
	ErrDuplicateSlug = errors.New("duplicate slug")

	// ErrEmbeddingProvider indicates the embedding provider failed for a batch. Fatal.
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrDimensionMismatch indicates vectors of differing length in one index. Fatal.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Validation errors
var (
	// ErrInvalidEntry indicates an IndexEntry failed validation.
	ErrInvalidEntry = errors.New("invalid index entry")

	// ErrEmptySlug indicates the Slug field is empty.
	ErrEmptySlug = errors.New("slug cannot be empty")

	// ErrEmptyVector indicates the Vector field is empty.
	ErrEmptyVector = errors.New("vector cannot be empty")

	// ErrDuplicateID indicates two entries share the same id.
	ErrDuplicateID = errors.New("duplicate entry id")
)

// IsRecoverable reports whether err only affects a single document, allowing
// the build to continue with the rest of the corpus.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrMalformedDocument) || errors.Is(err, ErrDuplicateSlug)
}
