// Copyright 2025 Poiesic Systems
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


package rekey

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/memovault/core"
	"github.com/poiesic/memovault/ingestion"
	"github.com/poiesic/memovault/storage"
)

// Config holds configuration for a key rotation.
type Config struct {
	// BatchSize is the number of records to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of records)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for a record whose
	// load or save fails with a transient I/O error
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     500 * time.Millisecond,
	}
}

// Result summarizes a rotation run.
type Result struct {
	Total    int      // Encrypted records found
	Migrated int      // Records re-encrypted by this run
	Skipped  int      // Records already under the new key
	Failed   []string // "kind/name" of records that could not be migrated
}

// Rekeyer copies every encrypted record from one store to another. Both
// stores normally share a root and differ only in their key.
type Rekeyer struct {
	from     storage.RecordStore
	to       storage.RecordStore
	iterator *NameIterator
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewRekeyer creates a new rekeyer over the records stored under root.
// progress: where to write progress output (typically os.Stderr)
func NewRekeyer(root string, from, to storage.RecordStore, config *Config, progress io.Writer) *Rekeyer {
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	var kinds []core.RecordKind
	for _, kind := range core.Kinds() {
		if kind.Encrypted() {
			kinds = append(kinds, kind)
		}
	}

	return &Rekeyer{
		from:     from,
		to:       to,
		iterator: NewNameIterator(root, kinds, config.BatchSize),
		config:   config,
		progress: progress,
		logger:   slog.Default().With("component", "rekey"),
	}
}

// Run migrates every encrypted record. Records that fail are listed in the
// result and reported as ErrIncomplete; the remaining records are still
// processed.
func (r *Rekeyer) Run(ctx context.Context) (*Result, error) {
	total, err := r.iterator.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	result := &Result{Total: total}
	if total == 0 {
		fmt.Fprintf(r.progress, "No encrypted records found (0 records)\n")
		return result, nil
	}

	fmt.Fprintf(r.progress, "Starting key rotation of %d records (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := ingestion.NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.SetUnit("records")
	tracker.Start()

	err = r.iterator.ForEach(ctx, func(kind core.RecordKind, names []string) error {
		for _, name := range names {
			migrated, err := r.migrate(ctx, kind, name)
			switch {
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			case err != nil:
				r.logger.Error("record not migrated",
					"kind", kind.String(),
					"name", name,
					"class", core.Classify(err))
				result.Failed = append(result.Failed, kind.String()+"/"+name)
			case migrated:
				result.Migrated++
			default:
				result.Skipped++
			}
			tracker.Done(err != nil)
		}
		return nil
	})
	tracker.Finish()
	if err != nil {
		return result, err
	}

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Key rotation complete. Migrated %d, skipped %d, failed %d in %v\n",
		result.Migrated, result.Skipped, len(result.Failed), elapsed.Round(time.Millisecond))

	if len(result.Failed) > 0 {
		return result, fmt.Errorf("%w: %d records failed", ErrIncomplete, len(result.Failed))
	}
	return result, nil
}

// migrate moves one record to the new key. It returns false if the record
// was already readable with the new key.
func (r *Rekeyer) migrate(ctx context.Context, kind core.RecordKind, name string) (bool, error) {
	var payload any
	err := r.retry(ctx, func() error {
		var err error
		payload, err = r.from.Load(ctx, kind, name)
		return err
	})
	if errors.Is(err, core.ErrDecryption) {
		// An interrupted run may have written it under the new key already.
		if _, newErr := r.to.Load(ctx, kind, name); newErr == nil {
			return false, nil
		}
		return false, err
	}
	if err != nil {
		return false, err
	}

	err = r.retry(ctx, func() error {
		return r.to.Save(ctx, kind, name, payload)
	})
	return err == nil, err
}

// retry runs operation with backoff, retrying only transient I/O errors.
func (r *Rekeyer) retry(ctx context.Context, operation func() error) error {
	return ingestion.RetryWithBackoff(ctx, func() error {
		err := operation()
		if err != nil && !storage.IsRetryable(err) {
			return ingestion.Permanent(err)
		}
		return err
	}, r.config.MaxRetries, r.config.RetryDelay)
}
