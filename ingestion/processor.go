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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/memovault/ai"
	"github.com/poiesic/memovault/core"
	"github.com/poiesic/memovault/privacy"
	"github.com/poiesic/memovault/storage"
)

// memoState carries one memo through the stages.
type memoState struct {
	memo       core.Memo
	name       string
	checkpoint *core.Checkpoint
	transcript string
}

// processor is an internal interface for a single pipeline stage.
type processor interface {
	// stage identifies the checkpoint bit the processor sets.
	stage() core.Stage

	// process runs the stage for one memo and stores its output.
	process(ctx context.Context, state *memoState) error
}

// retrier runs collaborator calls with the pipeline's backoff policy.
type retrier func(ctx context.Context, operation func() error) error

// transcriptionProcessor transcribes the recording and stores the
// encrypted transcription.
type transcriptionProcessor struct {
	store       storage.RecordStore
	transcriber ai.Transcriber
	retry       retrier
	logger      *slog.Logger
}

var _ processor = (*transcriptionProcessor)(nil)

func (tp *transcriptionProcessor) stage() core.Stage { return core.StageTranscribed }

func (tp *transcriptionProcessor) process(ctx context.Context, state *memoState) error {
	tp.logger.Info("transcribing memo", "name", state.name)

	var transcript string
	err := tp.retry(ctx, func() error {
		var err error
		transcript, err = tp.transcriber.Transcribe(ctx, state.memo.AudioPath)
		if errors.Is(err, ErrTranscriptNotFound) {
			return Permanent(err)
		}
		return err
	})
	if err != nil {
		return err
	}

	if err := tp.store.Save(ctx, core.KindTranscription, state.name, transcript); err != nil {
		return err
	}
	state.transcript = transcript
	return nil
}

// metadataProcessor extracts metadata, applies the anonymization policy
// and stores the encrypted result.
type metadataProcessor struct {
	store      storage.RecordStore
	extractor  ai.MetadataExtractor
	anonymizer privacy.Anonymizer
	retry      retrier
	logger     *slog.Logger
}

var _ processor = (*metadataProcessor)(nil)

func (mp *metadataProcessor) stage() core.Stage { return core.StageMetadata }

func (mp *metadataProcessor) process(ctx context.Context, state *memoState) error {
	mp.logger.Info("extracting metadata", "name", state.name)

	var meta core.Metadata
	err := mp.retry(ctx, func() error {
		var err error
		meta, err = mp.extractor.ExtractMetadata(ctx, state.memo.AudioPath)
		return err
	})
	if err != nil {
		return err
	}

	if meta == nil {
		meta = core.Metadata{}
	}
	if !state.memo.RecordedAt.IsZero() {
		meta = meta.Clone()
		meta[core.MetaTimestamp] = state.memo.RecordedAt.Unix()
	}
	if err := core.ValidateMetadata(meta); err != nil {
		return fmt.Errorf("extracted metadata: %w", err)
	}
	if mp.anonymizer != nil {
		meta = mp.anonymizer.Anonymize(meta)
	}

	return mp.store.Save(ctx, core.KindMetadata, state.name, meta)
}

// summaryProcessor summarizes the transcription and stores the summary.
type summaryProcessor struct {
	store      storage.RecordStore
	summarizer ai.Summarizer
	retry      retrier
	logger     *slog.Logger
}

var _ processor = (*summaryProcessor)(nil)

func (sp *summaryProcessor) stage() core.Stage { return core.StageSummarized }

func (sp *summaryProcessor) process(ctx context.Context, state *memoState) error {
	sp.logger.Info("summarizing memo", "name", state.name)

	// Silent recordings have nothing to summarize.
	if strings.TrimSpace(state.transcript) == "" {
		return sp.store.Save(ctx, core.KindSummary, state.name, "")
	}

	start := time.Now()
	var summary string
	err := sp.retry(ctx, func() error {
		var err error
		summary, err = sp.summarizer.Summarize(ctx, state.transcript)
		return err
	})
	if err != nil {
		return err
	}
	sp.logger.Debug("summary generated", "name", state.name, "elapsed", time.Since(start))

	return sp.store.Save(ctx, core.KindSummary, state.name, summary)
}
