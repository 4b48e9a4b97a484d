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
	"context"

	"github.com/QuantumByte-01/kagent/core"
)

// ObjectStore provides read and write access to JSON payloads at named
// storage paths. It is the only component of the pipeline that touches
// persistent object storage; everything else works on in-memory data.
type ObjectStore interface {
	// Write stores payload at path, replacing any existing object.
	// Writes are idempotent and atomic from a reader's perspective:
	// writing the same payload twice is observably a no-op, and a
	// reader never sees a partially written payload.
	Write(ctx context.Context, path string, payload []byte) error

	// Read returns the payload stored at path.
	// Returns ErrNotFound if no object exists there.
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns the paths of all objects under prefix, in
	// lexicographic order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases the backend connection.
	Close() error
}

// CheckpointRepository persists extraction checkpoints so an
// interrupted harvest can resume from the last durably persisted page
// instead of restarting from scratch.
type CheckpointRepository interface {
	// SaveCheckpoint persists the checkpoint for its datasource,
	// replacing any previous one.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a datasource.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, datasourceID string) (*core.Checkpoint, error)

	// DeleteCheckpoint removes the checkpoint for a datasource.
	// Deleting a missing checkpoint is not an error.
	DeleteCheckpoint(ctx context.Context, datasourceID string) error

	// Close releases the backend.
	Close() error
}
