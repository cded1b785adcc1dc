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

import "fmt"

// ValidateEntry validates an IndexEntry according to domain rules.
//
// Validation rules:
//   - Slug must not be empty
//   - ID must be the fragment id form "{slug}#para-{n}"
//   - Vector must not be empty
func ValidateEntry(entry *IndexEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidEntry)
	}

	if entry.Slug == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptySlug)
	}

	prefix := entry.Slug + "#para-"
	if len(entry.ID) <= len(prefix) || entry.ID[:len(prefix)] != prefix {
		return fmt.Errorf("%w: id %q does not belong to slug %q", ErrInvalidEntry, entry.ID, entry.Slug)
	}

	if len(entry.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyVector)
	}

	return nil
}

// ValidateIndex validates a whole index: every entry is valid, ids are unique
// and all vectors share one dimension. An empty index is valid.
func ValidateIndex(entries []IndexEntry) error {
	seen := make(map[string]struct{}, len(entries))
	dims := 0
	for i := range entries {
		entry := &entries[i]
		if err := ValidateEntry(entry); err != nil {
			return err
		}
		if _, dup := seen[entry.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, entry.ID)
		}
		seen[entry.ID] = struct{}{}

		if dims == 0 {
			dims = len(entry.Vector)
		} else if len(entry.Vector) != dims {
			return fmt.Errorf("%w: entry %s has %d dimensions, expected %d",
				ErrDimensionMismatch, entry.ID, len(entry.Vector), dims)
		}
	}
	return nil
}
