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


// Package memory provides an in-memory storage.ObjectStore used by
// tests and dry runs.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/QuantumByte-01/kagent/storage"
)

var _ storage.ObjectStore = (*ObjectStore)(nil)

// ObjectStore is an in-memory implementation of storage.ObjectStore.
// Writes copy the payload, so callers may reuse their buffers.
type ObjectStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	closed  bool
}

// NewObjectStore creates an empty in-memory object store.
func NewObjectStore() *ObjectStore {
	return &ObjectStore{
		objects: make(map[string][]byte),
	}
}

// Write stores payload at path, replacing any existing object.
func (s *ObjectStore) Write(_ context.Context, path string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrStoreClosed
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	s.objects[path] = buf
	return nil
}

// Read returns a copy of the payload stored at path.
func (s *ObjectStore) Read(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrStoreClosed
	}
	payload, ok := s.objects[path]
	if !ok {
		return nil, storage.ErrNotFound
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	return buf, nil
}

// List returns the paths of all objects under prefix in lexicographic
// order.
func (s *ObjectStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrStoreClosed
	}
	var paths []string
	for path := range s.objects {
		if strings.HasPrefix(path, prefix) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Close marks the store closed; further operations fail with
// ErrStoreClosed.
func (s *ObjectStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Len returns the number of stored objects.
func (s *ObjectStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
