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
	"fmt"
	"sync"
)

// pitHandle is the shared snapshot state behind every generation of a
// cursor. It guarantees the server-held PIT is released exactly once
// no matter which generation Close is called on.
type pitHandle struct {
	id string

	mu     sync.Mutex
	closed bool
}

// ScrollCursor is the position of one paged read over a PIT snapshot.
// Advance produces a new cursor generation; all generations share the
// same snapshot. A cursor is never reused across two snapshots.
type ScrollCursor struct {
	// SearchAfter is the sort key of the last item on the previous
	// page; empty on a freshly opened cursor. It advances
	// monotonically under the index's sort order.
	SearchAfter []json.RawMessage

	// Exhausted is set once a page comes back smaller than the
	// requested page size.
	Exhausted bool

	handle *pitHandle
}

// PITID returns the opaque snapshot token the cursor reads from.
func (c *ScrollCursor) PITID() string {
	return c.handle.id
}

// Position returns the cursor's search_after as a JSON array string,
// suitable for persisting in a checkpoint. Empty when the cursor has
// not advanced yet.
func (c *ScrollCursor) Position() string {
	if len(c.SearchAfter) == 0 {
		return ""
	}
	encoded, err := json.Marshal(c.SearchAfter)
	if err != nil {
		return ""
	}
	return string(encoded)
}

// DecodePosition parses a persisted cursor position back into a
// search_after sort key. Returns nil for the empty string.
func DecodePosition(s string) ([]json.RawMessage, error) {
	if s == "" {
		return nil, nil
	}
	var searchAfter []json.RawMessage
	if err := json.Unmarshal([]byte(s), &searchAfter); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}
	return searchAfter, nil
}

// CursorManager owns point-in-time scroll state for extraction runs.
type CursorManager struct {
	client *Client
}

// NewCursorManager creates a CursorManager over the given client.
func NewCursorManager(client *Client) *CursorManager {
	return &CursorManager{client: client}
}

// Open establishes a PIT snapshot against indexName and returns an
// initial cursor with an empty search_after. The snapshot isolates
// the scroll from concurrent writes to the index. The caller must
// Close the cursor, failure paths included.
func (m *CursorManager) Open(ctx context.Context, indexName string) (*ScrollCursor, error) {
	pitID, err := m.client.OpenPIT(ctx, indexName)
	if err != nil {
		return nil, err
	}
	return &ScrollCursor{handle: &pitHandle{id: pitID}}, nil
}

// Advance returns a new cursor generation positioned after the page
// just read. lastSort is the sort key of the page's last item;
// pageLen below pageSize marks the cursor exhausted. Advance performs
// no I/O.
func (m *CursorManager) Advance(cursor *ScrollCursor, lastSort []json.RawMessage, pageLen, pageSize int) *ScrollCursor {
	next := &ScrollCursor{
		SearchAfter: lastSort,
		Exhausted:   pageLen < pageSize,
		handle:      cursor.handle,
	}
	if len(lastSort) == 0 {
		next.SearchAfter = cursor.SearchAfter
	}
	return next
}

// Close releases the cursor's PIT snapshot. Every generation of the
// cursor shares one snapshot, released at most once; extra calls are
// no-ops.
func (m *CursorManager) Close(ctx context.Context, cursor *ScrollCursor) error {
	if cursor == nil || cursor.handle == nil {
		return nil
	}
	cursor.handle.mu.Lock()
	defer cursor.handle.mu.Unlock()
	if cursor.handle.closed {
		return nil
	}
	cursor.handle.closed = true
	return m.client.ClosePIT(ctx, cursor.handle.id)
}
