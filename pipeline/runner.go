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
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/QuantumByte-01/kagent/core"
	"github.com/QuantumByte-01/kagent/index"
	"github.com/QuantumByte-01/kagent/preprocess"
	"github.com/QuantumByte-01/kagent/retry"
	"github.com/QuantumByte-01/kagent/storage"
)

// Config holds configuration for a harvest run.
type Config struct {
	// MaxRetries is the maximum number of attempts for storage writes.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration

	// StorageTimeout bounds each individual storage call. A timed-out
	// attempt counts as a transient failure and is retried.
	StorageTimeout time.Duration

	// ReportInterval is how often to report progress (number of
	// records).
	ReportInterval int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		StorageTimeout: 30 * time.Second,
		ReportInterval: 100,
	}
}

// Runner drives harvest runs: it is the only component that knows
// the extractor, the transform registry, the object store and the
// checkpoint repository all at once.
type Runner struct {
	extractor   *index.Extractor
	registry    *preprocess.Registry
	store       storage.ObjectStore
	checkpoints storage.CheckpointRepository
	pool        *ants.Pool
	config      *Config
	progress    io.Writer
	logger      *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner) error

// WithWorkers sets the worker pool size for per-record processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithWorkers(size int) Option {
	return func(r *Runner) error {
		if size < 1 {
			size = 1
		}
		if r.pool != nil {
			r.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		r.pool = pool
		return nil
	}
}

// WithConfig sets the run configuration. Default is DefaultConfig().
func WithConfig(config *Config) Option {
	return func(r *Runner) error {
		if config != nil {
			r.config = config
		}
		return nil
	}
}

// WithProgress sets where progress output is written. Default is
// io.Discard.
func WithProgress(w io.Writer) Option {
	return func(r *Runner) error {
		if w != nil {
			r.progress = w
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) error {
		if logger != nil {
			r.logger = logger
		}
		return nil
	}
}

// NewRunner creates a harvest runner. checkpoints may be nil, in
// which case runs are never resumable and always start from the
// beginning of the index.
func NewRunner(
	extractor *index.Extractor,
	registry *preprocess.Registry,
	store storage.ObjectStore,
	checkpoints storage.CheckpointRepository,
	opts ...Option,
) (*Runner, error) {
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		extractor:   extractor,
		registry:    registry,
		store:       store,
		checkpoints: checkpoints,
		pool:        pool,
		config:      DefaultConfig(),
		progress:    io.Discard,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(r); optErr != nil {
			r.Release()
			return nil, optErr
		}
	}
	return r, nil
}

// Release releases the worker pool. The runner should not be used
// after calling Release.
func (r *Runner) Release() {
	if r.pool != nil {
		r.pool.Release()
	}
}

// Run harvests datasourceID from indexName: extracts every page,
// transforms each record under the datasource's config, and persists
// raw and processed payloads. The returned summary is non-nil on
// every path, including failures, and carries the last persisted
// cursor position so a failed run can resume.
func (r *Runner) Run(ctx context.Context, datasourceID, indexName string) (*RunSummary, error) {
	summary := newRunSummary(datasourceID)

	// Config must resolve before any extraction I/O is attempted.
	config, err := r.registry.Resolve(datasourceID)
	if err != nil {
		summary.finish(StateFailed, err)
		return summary, err
	}

	resumeFrom, err := r.loadResumePosition(ctx, datasourceID, summary)
	if err != nil {
		summary.finish(StateFailed, err)
		return summary, err
	}

	tracker := NewProgressTracker(r.progress, r.config.ReportInterval)
	tracker.Start()

	r.logger.Info("starting harvest run",
		"run", summary.RunID,
		"datasource", datasourceID,
		"index", indexName,
		"resuming", resumeFrom != "")

	summary.State = StateExtracting.String()
	err = r.extractor.ForEachPage(ctx, indexName, resumeFrom, func(page *index.Page) error {
		if err := r.processPage(ctx, config, page, summary); err != nil {
			return err
		}
		summary.Pages++
		summary.Extracted += len(page.Records)
		if err := r.saveCheckpoint(ctx, datasourceID, page, summary); err != nil {
			return err
		}
		summary.LastPosition = page.Position
		tracker.Increment(len(page.Records))
		return nil
	})
	if err != nil {
		summary.finish(StateFailed, err)
		return summary, err
	}

	// The run covered the whole index; the next run starts fresh.
	if r.checkpoints != nil {
		if err := r.checkpoints.DeleteCheckpoint(ctx, datasourceID); err != nil {
			r.logger.Warn("failed to clear checkpoint", "datasource", datasourceID, "error", err)
		}
	}

	tracker.Finish()
	summary.finish(StateDone, nil)
	r.logger.Info("harvest run complete",
		"run", summary.RunID,
		"datasource", datasourceID,
		"pages", summary.Pages,
		"extracted", summary.Extracted,
		"processed", summary.Processed,
		"skipped", summary.Skipped(),
		"elapsed", tracker.Elapsed().Round(time.Second))
	return summary, nil
}

// loadResumePosition reads the persisted checkpoint, if any.
func (r *Runner) loadResumePosition(ctx context.Context, datasourceID string, summary *RunSummary) (string, error) {
	if r.checkpoints == nil {
		return "", nil
	}
	checkpoint, err := r.checkpoints.LoadCheckpoint(ctx, datasourceID)
	if err != nil {
		return "", fmt.Errorf("failed to load checkpoint for %s: %w", datasourceID, err)
	}
	if checkpoint == nil {
		return "", nil
	}
	summary.Extracted = checkpoint.Records
	summary.Pages = checkpoint.Pages
	return checkpoint.SearchAfter, nil
}

// processPage fans each record of the page out to the worker pool:
// transform, then persist raw and processed payloads. A transform
// failure skips the record; a storage failure after retries fails the
// page, and with it the run. The checkpoint only advances after every
// write of the page has landed.
func (r *Runner) processPage(ctx context.Context, config *core.DatasourceConfig, page *index.Page, summary *RunSummary) error {
	summary.State = StateProcessing.String()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var fatal error

	for i := range page.Records {
		record := &page.Records[i]
		wg.Add(1)
		task := func() {
			defer wg.Done()
			if err := r.handleRecord(ctx, config, record, summary); err != nil {
				mu.Lock()
				if fatal == nil {
					fatal = err
				}
				mu.Unlock()
			}
		}
		if err := r.pool.Submit(task); err != nil {
			// Pool released mid-run; degrade to inline processing.
			task()
		}
	}
	wg.Wait()

	summary.State = StatePersisting.String()
	return fatal
}

// handleRecord runs one record through transform and persistence.
// The raw payload is written even when the transform fails, so the
// source document is never lost to a transform bug. Records without
// an ID have no stable storage path and are skipped up front.
func (r *Runner) handleRecord(ctx context.Context, config *core.DatasourceConfig, record *core.RawRecord, summary *RunSummary) error {
	if err := core.ValidateRawRecord(record); err != nil {
		r.logger.Warn("skipping record", "record", record.ID, "error", err)
		summary.recordSkip(record.ID)
		return nil
	}
	rawPayload, err := json.Marshal(record)
	if err != nil {
		r.logger.Error("failed to encode raw record", "record", record.ID, "error", err)
		summary.recordSkip(record.ID)
		return nil
	}
	if err := r.write(ctx, storage.RawRecordPath(config.DatasourceID, record.ID), rawPayload); err != nil {
		return err
	}

	processed, err := preprocess.Transform(record, config)
	if err != nil {
		r.logger.Warn("skipping record", "record", record.ID, "error", err)
		summary.recordSkip(record.ID)
		return nil
	}

	processedPayload, err := json.Marshal(processed)
	if err != nil {
		r.logger.Error("failed to encode processed record", "record", record.ID, "error", err)
		summary.recordSkip(record.ID)
		return nil
	}
	if err := r.write(ctx, storage.ProcessedRecordPath(config.DatasourceID, record.ID), processedPayload); err != nil {
		return err
	}

	summary.recordProcessed()
	return nil
}

// write persists one payload with bounded exponential backoff. Each
// attempt runs under its own deadline so a hung store call cannot
// stall the run; a timed-out attempt is retried like any other
// transient failure.
func (r *Runner) write(ctx context.Context, path string, payload []byte) error {
	timeout := r.config.StorageTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().StorageTimeout
	}
	err := retry.WithBackoff(ctx, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return r.store.Write(attemptCtx, path, payload)
	}, r.config.MaxRetries, r.config.RetryDelay)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStorageWrite, path, err)
	}
	return nil
}

// saveCheckpoint persists the position after a fully persisted page.
func (r *Runner) saveCheckpoint(ctx context.Context, datasourceID string, page *index.Page, summary *RunSummary) error {
	if r.checkpoints == nil {
		return nil
	}
	checkpoint := &core.Checkpoint{
		DatasourceID: datasourceID,
		SearchAfter:  page.Position,
		Pages:        summary.Pages,
		Records:      summary.Extracted,
	}
	if err := r.checkpoints.SaveCheckpoint(ctx, checkpoint); err != nil {
		return fmt.Errorf("failed to save checkpoint for %s: %w", datasourceID, err)
	}
	return nil
}
