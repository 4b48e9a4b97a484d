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


package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QuantumByte-01/kagent/core"
	"github.com/QuantumByte-01/kagent/index"
	"github.com/QuantumByte-01/kagent/preprocess"
	"github.com/QuantumByte-01/kagent/storage"
	badgerstore "github.com/QuantumByte-01/kagent/storage/badger"
	"github.com/QuantumByte-01/kagent/storage/memory"
)

// fakeIndex serves a PIT scroll over generated dataset documents.
type fakeIndex struct {
	mu          sync.Mutex
	docs        []string
	searchCalls int
	badRecords  []int // 1-based doc positions served with no usable ID
}

func newFakeIndex(n int) *fakeIndex {
	f := &fakeIndex{}
	for i := 0; i < n; i++ {
		f.docs = append(f.docs, fmt.Sprintf("ds%06d", i))
	}
	return f
}

func (f *fakeIndex) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/_pit"):
			fmt.Fprint(w, `{"id": "pit-run"}`)
		case r.Method == http.MethodDelete && r.URL.Path == "/_pit":
			fmt.Fprint(w, `{"succeeded": true}`)
		case r.Method == http.MethodPost && r.URL.Path == "/_search":
			f.searchCalls++
			var req index.SearchRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("bad search request: %v", err)
				return
			}
			start := 0
			if len(req.SearchAfter) == 1 {
				if err := json.Unmarshal(req.SearchAfter[0], &start); err != nil {
					t.Errorf("bad search_after: %v", err)
					return
				}
			}
			end := start + req.Size
			if end > len(f.docs) {
				end = len(f.docs)
			}
			var hits []string
			for i := start; i < end; i++ {
				id := f.docs[i]
				for _, bad := range f.badRecords {
					if bad == i+1 {
						id = ""
					}
				}
				hits = append(hits, fmt.Sprintf(
					`{"_id": "%s", "_source": {"id": "%s", "name": "Dataset %d",
						"description": "Recordings from <b>area %d</b>.",
						"species": "Mus musculus"}, "sort": [%d]}`,
					id, id, i, i, i+1))
			}
			fmt.Fprintf(w, `{"hits": {"hits": [%s]}}`, strings.Join(hits, ","))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})
}

// failingStore wraps an ObjectStore, failing a configurable number of
// writes before recovering.
type failingStore struct {
	storage.ObjectStore
	mu       sync.Mutex
	failures int
}

func (s *failingStore) Write(ctx context.Context, path string, payload []byte) error {
	s.mu.Lock()
	if s.failures > 0 {
		s.failures--
		s.mu.Unlock()
		return errors.New("transient backend outage")
	}
	s.mu.Unlock()
	return s.ObjectStore.Write(ctx, path, payload)
}

// blockingStore wraps an ObjectStore, hanging a configurable number of
// writes until their context is cancelled.
type blockingStore struct {
	storage.ObjectStore
	mu    sync.Mutex
	hangs int
	calls int
}

func (s *blockingStore) Write(ctx context.Context, path string, payload []byte) error {
	s.mu.Lock()
	s.calls++
	hang := s.hangs > 0
	if hang {
		s.hangs--
	}
	s.mu.Unlock()
	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.ObjectStore.Write(ctx, path, payload)
}

func (s *blockingStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testRegistry(t *testing.T) *preprocess.Registry {
	t.Helper()
	registry := preprocess.NewRegistry()
	require.NoError(t, registry.Register(&core.DatasourceConfig{
		DatasourceID: "openneuro",
		Name:         "OpenNeuro",
		Type:         "repository",
		FieldMapping: map[string][]string{
			"title":       {"name"},
			"description": {"description"},
			"species":     {"species"},
		},
		FilterSchema: []string{"species"},
		ChunkSpec: []core.ChunkGroup{
			{Fields: []string{"title", "description"}},
		},
		HTMLFields: []string{"description"},
	}))
	return registry
}

func testExtractor(t *testing.T, idx *fakeIndex, pageSize int) *index.Extractor {
	t.Helper()
	server := httptest.NewServer(idx.handler(t))
	t.Cleanup(server.Close)

	cfg := index.DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.RequestsPerSecond = 0
	client, err := index.NewClient(cfg)
	require.NoError(t, err)
	return index.NewExtractor(client,
		index.WithPageSize(pageSize),
		index.WithRetry(2, time.Millisecond))
}

func testCheckpoints(t *testing.T) storage.CheckpointRepository {
	t.Helper()
	repo, backend, err := badgerstore.NewMemoryCheckpointRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return repo
}

func newTestRunner(t *testing.T, idx *fakeIndex, store storage.ObjectStore, checkpoints storage.CheckpointRepository, pageSize int) *Runner {
	t.Helper()
	runner, err := NewRunner(
		testExtractor(t, idx, pageSize),
		testRegistry(t),
		store,
		checkpoints,
		WithWorkers(4),
		WithConfig(&Config{MaxRetries: 2, RetryDelay: time.Millisecond, ReportInterval: 100}),
	)
	require.NoError(t, err)
	t.Cleanup(runner.Release)
	return runner
}

func TestRunner_FullRun(t *testing.T) {
	idx := newFakeIndex(7)
	store := memory.NewObjectStore()
	checkpoints := testCheckpoints(t)
	runner := newTestRunner(t, idx, store, checkpoints, 3)

	summary, err := runner.Run(context.Background(), "openneuro", "datasets")
	require.NoError(t, err)

	assert.Equal(t, StateDone.String(), summary.State)
	assert.Equal(t, 7, summary.Extracted)
	assert.Equal(t, 7, summary.Processed)
	assert.Equal(t, 3, summary.Pages)
	assert.Empty(t, summary.SkippedIDs)
	assert.NotEmpty(t, summary.RunID)

	raw, err := store.List(context.Background(), storage.DatasourceRawPrefix("openneuro"))
	require.NoError(t, err)
	assert.Len(t, raw, 7)
	processed, err := store.List(context.Background(), storage.DatasourceProcessedPrefix("openneuro"))
	require.NoError(t, err)
	assert.Len(t, processed, 7)

	// A completed run clears its checkpoint.
	checkpoint, err := checkpoints.LoadCheckpoint(context.Background(), "openneuro")
	require.NoError(t, err)
	assert.Nil(t, checkpoint)
}

func TestRunner_UnknownDatasourceFailsBeforeExtraction(t *testing.T) {
	idx := newFakeIndex(3)
	runner := newTestRunner(t, idx, memory.NewObjectStore(), nil, 3)

	summary, err := runner.Run(context.Background(), "unregistered", "datasets")
	assert.ErrorIs(t, err, preprocess.ErrUnknownDatasource)
	assert.Equal(t, StateFailed.String(), summary.State)
	assert.Zero(t, idx.searchCalls)
}

func TestRunner_BadRecordSkippedRunContinues(t *testing.T) {
	idx := newFakeIndex(5)
	idx.badRecords = []int{3}
	store := memory.NewObjectStore()
	runner := newTestRunner(t, idx, store, nil, 2)

	summary, err := runner.Run(context.Background(), "openneuro", "datasets")
	require.NoError(t, err)

	assert.Equal(t, StateDone.String(), summary.State)
	assert.Equal(t, 5, summary.Extracted)
	assert.Equal(t, 4, summary.Processed)
	assert.Equal(t, 1, summary.Skipped())

	processed, err := store.List(context.Background(), storage.DatasourceProcessedPrefix("openneuro"))
	require.NoError(t, err)
	assert.Len(t, processed, 4)
}

func TestRunner_IDLessRecordsNeverStored(t *testing.T) {
	idx := newFakeIndex(5)
	idx.badRecords = []int{2, 4}
	store := memory.NewObjectStore()
	runner := newTestRunner(t, idx, store, nil, 5)

	summary, err := runner.Run(context.Background(), "openneuro", "datasets")
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 2, summary.Skipped())

	// ID-less records would otherwise all collide on a single
	// "<datasource>/.json" key, each overwriting the last.
	raw, err := store.List(context.Background(), storage.DatasourceRawPrefix("openneuro"))
	require.NoError(t, err)
	assert.Len(t, raw, 3)
	assert.NotContains(t, raw, storage.RawRecordPath("openneuro", ""))
}

func TestRunner_StorageOutageRetriedThenFatal(t *testing.T) {
	idx := newFakeIndex(4)

	t.Run("recovers within retry budget", func(t *testing.T) {
		store := &failingStore{ObjectStore: memory.NewObjectStore(), failures: 1}
		runner := newTestRunner(t, idx, store, nil, 4)

		summary, err := runner.Run(context.Background(), "openneuro", "datasets")
		require.NoError(t, err)
		assert.Equal(t, 4, summary.Processed)
	})

	t.Run("exhausted retries fail the run", func(t *testing.T) {
		store := &failingStore{ObjectStore: memory.NewObjectStore(), failures: 1000}
		runner := newTestRunner(t, idx, store, nil, 4)

		summary, err := runner.Run(context.Background(), "openneuro", "datasets")
		assert.ErrorIs(t, err, ErrStorageWrite)
		assert.Equal(t, StateFailed.String(), summary.State)
	})
}

func TestRunner_HungStorageWriteTimesOutAndRetries(t *testing.T) {
	newRunner := func(t *testing.T, idx *fakeIndex, store storage.ObjectStore) *Runner {
		t.Helper()
		runner, err := NewRunner(
			testExtractor(t, idx, 4),
			testRegistry(t),
			store,
			nil,
			WithWorkers(2),
			WithConfig(&Config{
				MaxRetries:     3,
				RetryDelay:     time.Millisecond,
				StorageTimeout: 20 * time.Millisecond,
				ReportInterval: 100,
			}),
		)
		require.NoError(t, err)
		t.Cleanup(runner.Release)
		return runner
	}

	run := func(t *testing.T, runner *Runner) (*RunSummary, error) {
		t.Helper()
		var summary *RunSummary
		var err error
		done := make(chan struct{})
		go func() {
			defer close(done)
			summary, err = runner.Run(context.Background(), "openneuro", "datasets")
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("run never finished; hung storage write was not cancelled")
		}
		return summary, err
	}

	t.Run("recovers after a timed-out attempt", func(t *testing.T) {
		idx := newFakeIndex(1)
		store := &blockingStore{ObjectStore: memory.NewObjectStore(), hangs: 1}
		summary, err := run(t, newRunner(t, idx, store))
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Processed)
		assert.GreaterOrEqual(t, store.callCount(), 2)
	})

	t.Run("persistently hung store fails the run", func(t *testing.T) {
		idx := newFakeIndex(1)
		store := &blockingStore{ObjectStore: memory.NewObjectStore(), hangs: 1000}
		summary, err := run(t, newRunner(t, idx, store))
		assert.ErrorIs(t, err, ErrStorageWrite)
		assert.Equal(t, StateFailed.String(), summary.State)
	})
}

func TestRunner_ResumesFromCheckpoint(t *testing.T) {
	idx := newFakeIndex(6)
	store := memory.NewObjectStore()
	checkpoints := testCheckpoints(t)

	// A previous run persisted pages 1-2 (records 1..4) before dying.
	require.NoError(t, checkpoints.SaveCheckpoint(context.Background(), &core.Checkpoint{
		DatasourceID: "openneuro",
		SearchAfter:  "[4]",
		Pages:        2,
		Records:      4,
	}))

	runner := newTestRunner(t, idx, store, checkpoints, 2)
	summary, err := runner.Run(context.Background(), "openneuro", "datasets")
	require.NoError(t, err)

	assert.Equal(t, StateDone.String(), summary.State)
	assert.Equal(t, 6, summary.Extracted, "summary counts carried over plus resumed records")
	assert.Equal(t, 2, summary.Processed)

	processed, err := store.List(context.Background(), storage.DatasourceProcessedPrefix("openneuro"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		storage.ProcessedRecordPath("openneuro", "ds000004"),
		storage.ProcessedRecordPath("openneuro", "ds000005"),
	}, processed)
}

func TestRunner_RerunIsByteIdentical(t *testing.T) {
	idx := newFakeIndex(3)
	store := memory.NewObjectStore()
	runner := newTestRunner(t, idx, store, nil, 3)

	_, err := runner.Run(context.Background(), "openneuro", "datasets")
	require.NoError(t, err)

	path := storage.ProcessedRecordPath("openneuro", "ds000001")
	first, err := store.Read(context.Background(), path)
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "openneuro", "datasets")
	require.NoError(t, err)

	second, err := store.Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Overwrites, never duplicates.
	processed, err := store.List(context.Background(), storage.DatasourceProcessedPrefix("openneuro"))
	require.NoError(t, err)
	assert.Len(t, processed, 3)
}

func TestRunner_RequiredDependencies(t *testing.T) {
	idx := newFakeIndex(1)
	extractor := testExtractor(t, idx, 1)
	registry := testRegistry(t)
	store := memory.NewObjectStore()

	_, err := NewRunner(nil, registry, store, nil)
	assert.ErrorIs(t, err, ErrExtractorRequired)
	_, err = NewRunner(extractor, nil, store, nil)
	assert.ErrorIs(t, err, ErrRegistryRequired)
	_, err = NewRunner(extractor, registry, nil, nil)
	assert.ErrorIs(t, err, ErrStoreRequired)
}
