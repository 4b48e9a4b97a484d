// Copyright 2025 The kagent Authors
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
	"github.com/mus-format/mus-go/varint"

	"github.com/QuantumByte-01/kagent/core"
)

// checkpointSer is the hand-written MUS serializer for core.Checkpoint.
// Field order is part of the on-disk format; append new fields at the
// end only. Timestamps are stored as Unix microseconds.
type checkpointSer struct{}

// CheckpointMUS serializes checkpoints for the checkpoint repository.
var CheckpointMUS = checkpointSer{}

func (checkpointSer) Marshal(v core.Checkpoint, bs []byte) (n int) {
	n = ord.String.Marshal(v.DatasourceID, bs)
	n += ord.String.Marshal(v.SearchAfter, bs[n:])
	n += varint.Int.Marshal(v.Pages, bs[n:])
	n += varint.Int.Marshal(v.Records, bs[n:])
	n += varint.Int64.Marshal(v.UpdatedAt.UnixMicro(), bs[n:])
	return n
}

func (checkpointSer) Unmarshal(bs []byte) (v core.Checkpoint, n int, err error) {
	var n1 int
	if v.DatasourceID, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if v.SearchAfter, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Pages, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Records, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var micros int64
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	v.UpdatedAt = time.UnixMicro(micros).UTC()
	return
}

func (checkpointSer) Size(v core.Checkpoint) (size int) {
	size = ord.String.Size(v.DatasourceID)
	size += ord.String.Size(v.SearchAfter)
	size += varint.Int.Size(v.Pages)
	size += varint.Int.Size(v.Records)
	size += varint.Int64.Size(v.UpdatedAt.UnixMicro())
	return size
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	buf := make([]byte, CheckpointMUS.Size(*checkpoint))
	CheckpointMUS.Marshal(*checkpoint, buf)
	return buf
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	checkpoint, _, err := CheckpointMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &checkpoint, nil
}
