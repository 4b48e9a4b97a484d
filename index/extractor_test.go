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


package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIndex serves a PIT scroll over a fixed set of documents. Each
// search page starts after the requested search_after position.
type fakeIndex struct {
	mu          sync.Mutex
	docs        []string
	pitClosures int
	searchCalls int
	failures    int
}

func (f *fakeIndex) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/_pit"):
			fmt.Fprint(w, `{"id": "pit-fake"}`)
		case r.Method == http.MethodDelete && r.URL.Path == "/_pit":
			f.pitClosures++
			fmt.Fprint(w, `{"succeeded": true}`)
		case r.Method == http.MethodPost && r.URL.Path == "/_search":
			f.searchCalls++
			if f.failures > 0 {
				f.failures--
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"error": "shard failure"}`)
				return
			}

			var req SearchRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			start := 0
			if len(req.SearchAfter) == 1 {
				require.NoError(t, json.Unmarshal(req.SearchAfter[0], &start))
			}

			end := start + req.Size
			if end > len(f.docs) {
				end = len(f.docs)
			}
			hits := make([]string, 0, req.Size)
			for i := start; i < end; i++ {
				hits = append(hits, fmt.Sprintf(
					`{"_id": "%s", "_source": {"id": "%s", "name": "doc %d"}, "sort": [%d]}`,
					f.docs[i], f.docs[i], i, i+1))
			}
			fmt.Fprintf(w, `{"hits": {"hits": [%s]}}`, strings.Join(hits, ","))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})
}

func newFakeIndex(n int) *fakeIndex {
	f := &fakeIndex{}
	for i := 0; i < n; i++ {
		f.docs = append(f.docs, fmt.Sprintf("doc-%03d", i))
	}
	return f
}

func TestExtractor_AllPagesAllRecords(t *testing.T) {
	idx := newFakeIndex(7)
	client, _ := newTestClient(t, idx.handler(t))
	extractor := NewExtractor(client, WithPageSize(3))

	var ids []string
	var pages []int
	err := extractor.ForEachPage(context.Background(), "datasets", "", func(page *Page) error {
		pages = append(pages, len(page.Records))
		for _, rec := range page.Records {
			assert.Equal(t, "datasets", rec.Source)
			assert.Equal(t, rec.ID, rec.Fields["id"])
			ids = append(ids, rec.ID)
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{3, 3, 1}, pages)
	require.Len(t, ids, 7)
	assert.Equal(t, "doc-000", ids[0])
	assert.Equal(t, "doc-006", ids[6])
	assert.Equal(t, 1, idx.pitClosures)
}

func TestExtractor_ExactMultiplePageSize(t *testing.T) {
	// 6 docs at page size 3: the third search returns an empty page
	// and the run ends without invoking the callback for it.
	idx := newFakeIndex(6)
	client, _ := newTestClient(t, idx.handler(t))
	extractor := NewExtractor(client, WithPageSize(3))

	var total int
	err := extractor.ForEachPage(context.Background(), "datasets", "", func(page *Page) error {
		total += len(page.Records)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Equal(t, 3, idx.searchCalls)
}

func TestExtractor_ResumeFromPosition(t *testing.T) {
	idx := newFakeIndex(7)
	client, _ := newTestClient(t, idx.handler(t))
	extractor := NewExtractor(client, WithPageSize(3))

	// Capture the position after the first page, then resume there
	// with a fresh run. Only records after it should reappear.
	var afterFirst string
	err := extractor.ForEachPage(context.Background(), "datasets", "", func(page *Page) error {
		afterFirst = page.Position
		return errors.New("stop after first page")
	})
	require.Error(t, err)
	require.NotEmpty(t, afterFirst)

	var ids []string
	err = extractor.ForEachPage(context.Background(), "datasets", afterFirst, func(page *Page) error {
		for _, rec := range page.Records {
			ids = append(ids, rec.ID)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-003", "doc-004", "doc-005", "doc-006"}, ids)
}

func TestExtractor_InvalidResumePosition(t *testing.T) {
	idx := newFakeIndex(1)
	client, _ := newTestClient(t, idx.handler(t))
	extractor := NewExtractor(client)

	err := extractor.ForEachPage(context.Background(), "datasets", "garbage", func(*Page) error {
		t.Fatal("callback must not run")
		return nil
	})
	assert.ErrorIs(t, err, ErrInvalidCursor)
	assert.Zero(t, idx.searchCalls)
}

func TestExtractor_RetriesTransientFailures(t *testing.T) {
	idx := newFakeIndex(2)
	idx.failures = 2
	client, _ := newTestClient(t, idx.handler(t))
	extractor := NewExtractor(client,
		WithPageSize(5),
		WithRetry(3, time.Millisecond))

	var total int
	err := extractor.ForEachPage(context.Background(), "datasets", "", func(page *Page) error {
		total += len(page.Records)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 3, idx.searchCalls)
}

func TestExtractor_ExhaustedRetriesFailRun(t *testing.T) {
	idx := newFakeIndex(2)
	idx.failures = 10
	client, _ := newTestClient(t, idx.handler(t))
	extractor := NewExtractor(client, WithRetry(2, time.Millisecond))

	err := extractor.ForEachPage(context.Background(), "datasets", "", func(*Page) error {
		t.Fatal("callback must not run")
		return nil
	})
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.Equal(t, 2, idx.searchCalls)
	assert.Equal(t, 1, idx.pitClosures)
}

func TestExtractor_ExpiredCursorNotRetried(t *testing.T) {
	var searchCalls int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/_pit") && r.Method == http.MethodPost:
			fmt.Fprint(w, `{"id": "pit-x"}`)
		case r.URL.Path == "/_pit" && r.Method == http.MethodDelete:
			fmt.Fprint(w, `{"succeeded": true}`)
		case r.URL.Path == "/_search":
			searchCalls++
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error": {"reason": "search_context_missing"}}`)
		}
	}))
	extractor := NewExtractor(client, WithRetry(3, time.Millisecond))

	err := extractor.ForEachPage(context.Background(), "datasets", "", func(*Page) error {
		return nil
	})
	assert.ErrorIs(t, err, ErrCursorExpired)
	assert.Equal(t, 1, searchCalls)
}

func TestExtractor_CallbackErrorStopsRunAndReleasesPIT(t *testing.T) {
	idx := newFakeIndex(9)
	client, _ := newTestClient(t, idx.handler(t))
	extractor := NewExtractor(client, WithPageSize(3))

	sentinel := errors.New("downstream full")
	var calls int
	err := extractor.ForEachPage(context.Background(), "datasets", "", func(*Page) error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, idx.pitClosures)
}

func TestExtractor_CancelledBetweenPages(t *testing.T) {
	idx := newFakeIndex(9)
	client, _ := newTestClient(t, idx.handler(t))
	extractor := NewExtractor(client, WithPageSize(3))

	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	err := extractor.ForEachPage(ctx, "datasets", "", func(page *Page) error {
		calls++
		assert.Len(t, page.Records, 3)
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, idx.pitClosures)
}
