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


// Package pipeline orchestrates a harvest run: paged extraction from
// the index, per-record transformation, and persistence of raw and
// processed payloads to object storage.
//
// A run moves through INIT, EXTRACTING, PROCESSING and PERSISTING
// states page by page until DONE, with FAILED reachable from any
// state. Raw and processed payloads are written before the checkpoint
// advances, so a crash mid-run reprocesses at most one page on
// restart and never loses records. Per-record transform failures are
// skipped and collected into the run summary; the run itself only
// fails on run-level conditions (unknown datasource, unreadable page,
// exhausted storage retries).
package pipeline
