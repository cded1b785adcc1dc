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

package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/semindex/core"
)

// MarshalVector serializes a vector as a varint length followed by raw
// little-endian float32 values.
func MarshalVector(vec []float32) []byte {
	size := varint.Int.Size(len(vec))
	for _, v := range vec {
		size += raw.Float32.Size(v)
	}
	buf := make([]byte, size)
	n := varint.Int.Marshal(len(vec), buf)
	for _, v := range vec {
		n += raw.Float32.Marshal(v, buf[n:])
	}
	return buf
}

// UnmarshalVector deserializes a vector produced by MarshalVector.
func UnmarshalVector(data []byte) ([]float32, error) {
	length, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: vector length: %w", ErrSerializationFailed, err)
	}
	if length < 0 || length > (len(data)-n)/4 {
		return nil, fmt.Errorf("%w: vector length %d", ErrTruncatedData, length)
	}
	vec := make([]float32, length)
	for i := range vec {
		v, m, err := raw.Float32.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: vector element %d: %w", ErrSerializationFailed, i, err)
		}
		vec[i] = v
		n += m
	}
	return vec, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	builtAt := checkpoint.BuiltAt.UnixNano()
	size := ord.String.Size(checkpoint.Artifact) +
		ord.String.Size(checkpoint.Model) +
		varint.Int.Size(checkpoint.Dimensions) +
		varint.Int.Size(checkpoint.Entries) +
		varint.Int64.Size(builtAt)
	buf := make([]byte, size)
	n := ord.String.Marshal(checkpoint.Artifact, buf)
	n += ord.String.Marshal(checkpoint.Model, buf[n:])
	n += varint.Int.Marshal(checkpoint.Dimensions, buf[n:])
	n += varint.Int.Marshal(checkpoint.Entries, buf[n:])
	varint.Int64.Marshal(builtAt, buf[n:])
	return buf
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	var (
		cp  core.Checkpoint
		n   int
		m   int
		err error
	)
	if cp.Artifact, m, err = ord.String.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("%w: checkpoint artifact: %w", ErrSerializationFailed, err)
	}
	n += m
	if cp.Model, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: checkpoint model: %w", ErrSerializationFailed, err)
	}
	n += m
	if cp.Dimensions, m, err = varint.Int.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: checkpoint dimensions: %w", ErrSerializationFailed, err)
	}
	n += m
	if cp.Entries, m, err = varint.Int.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: checkpoint entries: %w", ErrSerializationFailed, err)
	}
	n += m
	builtAt, _, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: checkpoint timestamp: %w", ErrSerializationFailed, err)
	}
	cp.BuiltAt = time.Unix(0, builtAt).UTC()
	return &cp, nil
}
