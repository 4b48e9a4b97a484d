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


// Package kagent harvests neuroscience dataset metadata from a search
// index, preprocesses each record into normalized chunks and a sparse
// metadata filter, and persists raw and processed forms to object
// storage.
package kagent

import (
	"context"
	"log/slog"

	"github.com/QuantumByte-01/kagent/index"
	"github.com/QuantumByte-01/kagent/pipeline"
	"github.com/QuantumByte-01/kagent/preprocess"
	"github.com/QuantumByte-01/kagent/storage"
	"github.com/QuantumByte-01/kagent/storage/badger"
	"github.com/QuantumByte-01/kagent/storage/gcs"
)

// Harvester bundles the index client, datasource registry, object
// store and checkpoint repository behind one handle. It is the
// entrypoint for embedding the pipeline in another program; the CLI
// is a thin wrapper over it.
type Harvester struct {
	backend     *badger.Backend
	checkpoints storage.CheckpointRepository
	store       storage.ObjectStore
	client      *index.Client
	registry    *preprocess.Registry
	pageSize    int
	logger      *slog.Logger
}

// HarvesterOption configures a Harvester.
type HarvesterOption func(*harvesterOptions)

type harvesterOptions struct {
	indexConfig *index.Config
	store       storage.ObjectStore
	pageSize    int
}

// WithIndexConfig sets the index connection configuration. Default is
// index.ConfigFromEnv().
func WithIndexConfig(config *index.Config) HarvesterOption {
	return func(o *harvesterOptions) {
		o.indexConfig = config
	}
}

// WithObjectStore substitutes the object store backend. Default is a
// GCS store against the named bucket.
func WithObjectStore(store storage.ObjectStore) HarvesterOption {
	return func(o *harvesterOptions) {
		o.store = store
	}
}

// WithPageSize sets the extraction page size. Default is
// index.DefaultPageSize.
func WithPageSize(size int) HarvesterOption {
	return func(o *harvesterOptions) {
		o.pageSize = size
	}
}

// NewHarvester opens a harvester with its checkpoint database at
// filePath and its object storage in bucketName. The caller must
// Close it.
func NewHarvester(ctx context.Context, filePath, bucketName string, opts ...HarvesterOption) (*Harvester, error) {
	options := &harvesterOptions{
		indexConfig: index.ConfigFromEnv(),
		pageSize:    index.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	store := options.store
	if store == nil {
		store, err = gcs.NewObjectStore(ctx, bucketName)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	client, err := index.NewClient(options.indexConfig)
	if err != nil {
		store.Close()
		backend.Close()
		return nil, err
	}

	return &Harvester{
		backend:     backend,
		checkpoints: badger.NewCheckpointRepository(backend),
		store:       store,
		client:      client,
		registry:    preprocess.NewRegistry(),
		pageSize:    options.pageSize,
		logger:      slog.Default(),
	}, nil
}

// LoadConfigs registers every datasource config file in dir.
func (h *Harvester) LoadConfigs(dir string) error {
	return h.registry.LoadDir(dir)
}

// Registry returns the datasource registry.
func (h *Harvester) Registry() *preprocess.Registry {
	return h.registry
}

// ObjectStore returns the object store gateway.
func (h *Harvester) ObjectStore() storage.ObjectStore {
	return h.store
}

// CheckpointRepository returns the checkpoint repository.
func (h *Harvester) CheckpointRepository() storage.CheckpointRepository {
	return h.checkpoints
}

// NewRunner builds a pipeline runner over this harvester's
// components. Each concurrent datasource run needs its own runner.
func (h *Harvester) NewRunner(opts ...pipeline.Option) (*pipeline.Runner, error) {
	extractor := index.NewExtractor(h.client, index.WithPageSize(h.pageSize))
	return pipeline.NewRunner(extractor, h.registry, h.store, h.checkpoints, opts...)
}

// Close releases the object store and the checkpoint database.
func (h *Harvester) Close() error {
	if err := h.store.Close(); err != nil {
		h.logger.Error("error closing object store", "err", err)
	}
	if err := h.checkpoints.Close(); err != nil {
		h.logger.Error("error closing checkpoint repository", "err", err)
	}
	if err := h.backend.Close(); err != nil {
		h.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
