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


// Package index provides paginated extraction of raw records from an
// Elasticsearch-compatible search index.
//
// Extraction uses a point-in-time (PIT) snapshot so repeated paged
// reads stay consistent while the index is concurrently updated. The
// snapshot is a server-held resource modeled as a scoped open/close
// pair: CursorManager.Open establishes it, CursorManager.Close
// releases it exactly once, failure paths included.
//
// The Extractor pages through the snapshot with search_after
// pagination, retrying transient page-read failures with bounded
// exponential backoff. A page is never silently skipped; when retries
// are exhausted the run fails with ErrExtractionFailed. An expired
// snapshot surfaces as ErrCursorExpired, and the caller resumes from
// the last durably persisted page position rather than from scratch.
package index
