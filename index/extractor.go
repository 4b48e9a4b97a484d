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
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/QuantumByte-01/kagent/core"
	"github.com/QuantumByte-01/kagent/retry"
)

const (
	// DefaultPageSize is the default number of records per index page.
	DefaultPageSize = 1000
)

// Page is one extracted page of raw records together with the cursor
// position after it. Persisting Position in a checkpoint makes the
// run resumable at this page boundary.
type Page struct {
	Records []core.RawRecord

	// Number is the 1-based page ordinal within this run.
	Number int

	// Position is the encoded search_after after this page.
	Position string
}

// Extractor pages through an index via a PIT cursor, yielding raw
// records. Each page is read at most once; resuming a run means
// re-opening a cursor seeded at a persisted position, not rewinding a
// consumed one.
type Extractor struct {
	client     *Client
	cursors    *CursorManager
	pageSize   int
	maxRetries int
	retryDelay time.Duration
	sort       []map[string]string
	logger     *slog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithPageSize sets the page size requested from the index.
// Default is DefaultPageSize.
func WithPageSize(size int) ExtractorOption {
	return func(e *Extractor) {
		if size > 0 {
			e.pageSize = size
		}
	}
}

// WithRetry sets the per-page retry budget and base backoff delay.
// Defaults are 3 attempts with a 1s base delay.
func WithRetry(maxRetries int, baseDelay time.Duration) ExtractorOption {
	return func(e *Extractor) {
		if maxRetries > 0 {
			e.maxRetries = maxRetries
		}
		if baseDelay > 0 {
			e.retryDelay = baseDelay
		}
	}
}

// WithSort sets the sort specification used for pagination.
// Default is [{"_doc": "asc"}], the cheapest stable order for a full
// scroll.
func WithSort(sort []map[string]string) ExtractorOption {
	return func(e *Extractor) {
		if len(sort) > 0 {
			e.sort = sort
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor creates an Extractor over the given client.
func NewExtractor(client *Client, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		client:     client,
		cursors:    NewCursorManager(client),
		pageSize:   DefaultPageSize,
		maxRetries: 3,
		retryDelay: time.Second,
		sort:       []map[string]string{{"_doc": "asc"}},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ForEachPage extracts indexName page by page, calling fn for each
// non-empty page. resumeFrom, when non-empty, is a persisted cursor
// position; extraction restarts at the page after it.
//
// Iteration stops on the first error from fn, on context
// cancellation (checked between pages, never mid-page), or when the
// cursor is exhausted. The PIT snapshot is released on every path
// out.
func (e *Extractor) ForEachPage(ctx context.Context, indexName string, resumeFrom string, fn func(*Page) error) (err error) {
	searchAfter, err := DecodePosition(resumeFrom)
	if err != nil {
		return err
	}

	cursor, err := e.cursors.Open(ctx, indexName)
	if err != nil {
		return fmt.Errorf("failed to open cursor for %s: %w", indexName, err)
	}
	defer func() {
		// Release with a fresh context so cancellation cannot leak
		// the server-held snapshot.
		closeCtx, cancel := context.WithTimeout(context.Background(), e.client.cfg.Timeout)
		defer cancel()
		if closeErr := e.cursors.Close(closeCtx, cursor); closeErr != nil {
			e.logger.Warn("failed to release PIT snapshot", "index", indexName, "error", closeErr)
		}
	}()
	cursor.SearchAfter = searchAfter

	pageNum := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		resp, err := e.readPage(ctx, cursor)
		if err != nil {
			if errors.Is(err, ErrCursorExpired) {
				return fmt.Errorf("%w: resume from last persisted position", err)
			}
			return fmt.Errorf("%w: page %d of %s: %w", ErrExtractionFailed, pageNum+1, indexName, err)
		}

		hits := resp.Hits.Hits
		if len(hits) == 0 {
			return nil
		}
		pageNum++

		next := e.cursors.Advance(cursor, hits[len(hits)-1].Sort, len(hits), e.pageSize)

		page := &Page{
			Records:  hitsToRecords(indexName, hits),
			Number:   pageNum,
			Position: next.Position(),
		}
		if err := fn(page); err != nil {
			return err
		}

		cursor = next
		if cursor.Exhausted {
			return nil
		}
	}
}

// readPage reads one page, retrying transient failures with bounded
// exponential backoff. An expired snapshot is not transient and fails
// immediately.
func (e *Extractor) readPage(ctx context.Context, cursor *ScrollCursor) (*SearchResponse, error) {
	req := &SearchRequest{
		Size: e.pageSize,
		PIT: pitRef{
			ID:        cursor.PITID(),
			KeepAlive: keepAliveParam(e.client.KeepAlive()),
		},
		Sort:        e.sort,
		SearchAfter: cursor.SearchAfter,
	}

	var resp *SearchResponse
	err := retry.WithBackoff(ctx, func() error {
		var searchErr error
		resp, searchErr = e.client.Search(ctx, req)
		if errors.Is(searchErr, ErrCursorExpired) {
			return retry.Permanent(searchErr)
		}
		return searchErr
	}, e.maxRetries, e.retryDelay)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// hitsToRecords converts index hits to domain records. The record ID
// prefers the document body's own id field and falls back to the
// index _id.
func hitsToRecords(indexName string, hits []Hit) []core.RawRecord {
	records := make([]core.RawRecord, 0, len(hits))
	for _, hit := range hits {
		id := hit.ID
		if v, ok := hit.Source["id"].(string); ok && v != "" {
			id = v
		}
		records = append(records, core.RawRecord{
			ID:     id,
			Source: indexName,
			Fields: hit.Source,
		})
	}
	return records
}
