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

// Package storage persists build outputs for semindex.
//
// The index artifact itself is a JSON array of core.IndexEntry records written
// by ArtifactStore. Writes go to a temporary file that is renamed over the old
// artifact, so readers only ever observe a complete index, and a failed build
// leaves the previous artifact untouched.
//
// Alongside the artifact, two repositories speed up rebuilds:
//
//   - VectorCache: vectors keyed by content hash, reused across full rebuilds
//   - CheckpointRepository: the model and dimension of the last build, used to
//     force a full rebuild when the embedding model changes
//
// The BadgerDB implementations live in storage/badger and are binary-encoded
// with mus-go (see serialization.go).
//
// # Usage
//
//	store := storage.NewArtifactStore("public/search-index.json")
//	unlock, err := store.Lock()
//	if err != nil {
//	    return err
//	}
//	defer unlock()
//
//	prev, err := store.LoadPrevious()
//	// ... run the pipeline ...
//	err = store.Save(result.Entries)
package storage
