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


// Package storage provides the storage abstraction layer for kagent.
//
// Two concerns live behind this package: the object store holding raw
// and preprocessed record payloads, and the checkpoint repository
// holding resumable extraction state. Interfaces are defined here so
// that backends (Google Cloud Storage, in-memory, BadgerDB) can be
// used interchangeably.
//
// # Backends
//
// Backend constructors return their concrete types; callers hold the
// storage.ObjectStore and storage.CheckpointRepository interfaces:
//
//	var store storage.ObjectStore
//	store, err = gcs.NewObjectStore(ctx, bucket)
//
// This keeps callers decoupled from backend specifics and lets tests
// substitute the in-memory implementations without modification.
//
// # Object layout
//
// Raw records are stored at raw_dataset/<datasource_id>/<record_id>.json
// and processed output at preprocessed_data/<datasource_id>/<record_id>.json.
// Paths are stable identifiers: re-running the pipeline for a record
// overwrites, never duplicates.
//
// # Thread Safety
//
// All implementations must be safe for concurrent use; concurrent
// writes to disjoint path prefixes must not interfere.
package storage
