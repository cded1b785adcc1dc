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

package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/semindex/core"
)

const (
	vectorPrefix     = "vec:"
	checkpointPrefix = "chkpt"
)

// makeVectorKey generates a key for a cached vector.
// Format: prefix + 8 byte big-endian content hash
func makeVectorKey(id core.ID) []byte {
	buf := make([]byte, len(vectorPrefix)+8)
	offset := copy(buf, vectorPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeCheckpointKey generates a key for the checkpoint of an artifact.
func makeCheckpointKey(artifact string) []byte {
	return []byte(fmt.Sprintf("%s:%s", checkpointPrefix, artifact))
}
