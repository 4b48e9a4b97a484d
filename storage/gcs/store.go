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


// Package gcs provides a Google Cloud Storage backed
// storage.ObjectStore.
package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	gstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/QuantumByte-01/kagent/storage"
)

var _ storage.ObjectStore = (*ObjectStore)(nil)

// ObjectStore stores payloads as objects in a single GCS bucket.
// GCS object writes are atomic, which gives the overwrite semantics
// the pipeline relies on for free: readers see either the old payload
// or the new one, never a partial write.
type ObjectStore struct {
	client *gstorage.Client
	bucket *gstorage.BucketHandle
	logger *slog.Logger
}

// Option configures an ObjectStore.
type Option func(*ObjectStore)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *ObjectStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewObjectStore creates an ObjectStore over the named bucket.
// Credentials are resolved from the environment (application default
// credentials).
func NewObjectStore(ctx context.Context, bucketName string, opts ...Option) (*ObjectStore, error) {
	if bucketName == "" {
		return nil, errors.New("bucket name required")
	}

	client, err := gstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	s := &ObjectStore{
		client: client,
		bucket: client.Bucket(bucketName),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Write stores payload at path, replacing any existing object.
func (s *ObjectStore) Write(ctx context.Context, path string, payload []byte) error {
	w := s.bucket.Object(path).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := io.Copy(w, bytes.NewReader(payload)); err != nil {
		_ = w.Close()
		return fmt.Errorf("%w: %s: %w", storage.ErrWriteFailed, path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", storage.ErrWriteFailed, path, err)
	}
	return nil
}

// Read returns the payload stored at path.
func (s *ObjectStore) Read(ctx context.Context, path string) ([]byte, error) {
	r, err := s.bucket.Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gstorage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer r.Close()

	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return payload, nil
}

// List returns the paths of all objects under prefix.
func (s *ObjectStore) List(ctx context.Context, prefix string) ([]string, error) {
	var paths []string
	it := s.bucket.Objects(ctx, &gstorage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
		}
		paths = append(paths, attrs.Name)
	}
	return paths, nil
}

// Close releases the underlying client.
func (s *ObjectStore) Close() error {
	return s.client.Close()
}
