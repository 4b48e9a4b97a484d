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
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunSummary is the accounting record of one harvest run. Every skip
// is recorded here with its record ID; no failure is silently
// discarded.
type RunSummary struct {
	RunID        string    `json:"run_id"`
	DatasourceID string    `json:"datasource_id"`
	State        string    `json:"state"`
	Pages        int       `json:"pages"`
	Extracted    int       `json:"extracted"`
	Processed    int       `json:"processed"`
	SkippedIDs   []string  `json:"skipped_ids,omitempty"`
	LastPosition string    `json:"last_position,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Error        string    `json:"error,omitempty"`

	mu sync.Mutex
}

func newRunSummary(datasourceID string) *RunSummary {
	return &RunSummary{
		RunID:        uuid.NewString(),
		DatasourceID: datasourceID,
		State:        StateInit.String(),
		StartedAt:    time.Now().UTC(),
	}
}

// Skipped returns the number of records skipped over the run.
func (s *RunSummary) Skipped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.SkippedIDs)
}

// recordSkip is safe to call from processing workers.
func (s *RunSummary) recordSkip(recordID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SkippedIDs = append(s.SkippedIDs, recordID)
}

// recordProcessed is safe to call from processing workers.
func (s *RunSummary) recordProcessed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Processed++
}

func (s *RunSummary) finish(state State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State = state.String()
	s.FinishedAt = time.Now().UTC()
	if err != nil {
		s.Error = err.Error()
	}
}
