package ingestion

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/memovault/ai"
	"github.com/poiesic/memovault/core"
	"github.com/poiesic/memovault/privacy"
	"github.com/poiesic/memovault/storage"
)

// Pipeline orchestrates the processing of voice memos into stored records.
// It processes distinct memos concurrently on a worker pool.
type Pipeline struct {
	store       storage.RecordStore
	checkpoints storage.CheckpointRepository
	transcriber ai.Transcriber
	extractor   ai.MetadataExtractor
	summarizer  ai.Summarizer
	anonymizer  privacy.Anonymizer
	pool        *ants.Pool
	processors  []processor
	maxAttempts int
	baseDelay   time.Duration
	progress    io.Writer
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithCheckpoints records completed stages in repo and skips them on later
// runs. Without it every stage runs every time.
func WithCheckpoints(repo storage.CheckpointRepository) Option {
	return func(p *Pipeline) error {
		p.checkpoints = repo
		return nil
	}
}

// WithAnonymizer rewrites extracted metadata before it is stored.
// Default is no anonymization.
func WithAnonymizer(anonymizer privacy.Anonymizer) Option {
	return func(p *Pipeline) error {
		p.anonymizer = anonymizer
		return nil
	}
}

// WithRetry sets the retry policy for AI collaborator calls.
// Default is 3 attempts starting at 500ms.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		p.baseDelay = baseDelay
		return nil
	}
}

// WithProgress writes a progress line to w as memos finish.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	store storage.RecordStore,
	transcriber ai.Transcriber,
	extractor ai.MetadataExtractor,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if store == nil {
		return nil, ErrRecordStoreRequired
	}
	if transcriber == nil {
		return nil, ErrTranscriberRequired
	}
	if extractor == nil {
		return nil, ErrMetadataExtractorRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	// Create pipeline with defaults
	p := &Pipeline{
		store:       store,
		transcriber: transcriber,
		extractor:   extractor,
		summarizer:  provider.Summarizer(),
		pool:        pool,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		logger:      slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Create processors after options are applied (so they get final config)
	p.logger = p.logger.With("component", "pipeline")
	p.processors = []processor{
		&transcriptionProcessor{
			store:       store,
			transcriber: transcriber,
			retry:       p.retry,
			logger:      p.logger.With("stage", core.StageTranscribed.String()),
		},
		&metadataProcessor{
			store:      store,
			extractor:  extractor,
			anonymizer: p.anonymizer,
			retry:      p.retry,
			logger:     p.logger.With("stage", core.StageMetadata.String()),
		},
		&summaryProcessor{
			store:      store,
			summarizer: p.summarizer,
			retry:      p.retry,
			logger:     p.logger.With("stage", core.StageSummarized.String()),
		},
	}

	return p, nil
}

// MemoError describes why a memo failed.
type MemoError struct {
	Name  string
	Stage core.Stage // Zero if the memo failed before any stage ran
	Err   error
}

func (e *MemoError) Error() string {
	if e.Stage == 0 {
		return fmt.Sprintf("memo %s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("memo %s: %s: %v", e.Name, e.Stage, e.Err)
}

func (e *MemoError) Unwrap() error {
	return e.Err
}

// Report summarizes one Process call. Names are sorted.
type Report struct {
	RunID     string       // Identifies the call in log records
	Processed []string     // Memos that ran at least one stage and are now complete
	Skipped   []string     // Memos already complete before this call
	Failed    []*MemoError // Memos that stopped at a failing stage
}

// reportBuilder collects outcomes from concurrent workers.
type reportBuilder struct {
	mu     sync.Mutex
	report Report
}

func (b *reportBuilder) processed(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Processed = append(b.report.Processed, name)
}

func (b *reportBuilder) skipped(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Skipped = append(b.report.Skipped, name)
}

func (b *reportBuilder) failed(err *MemoError) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Failed = append(b.report.Failed, err)
}

func (b *reportBuilder) build() (*Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := b.report
	slices.Sort(r.Processed)
	slices.Sort(r.Skipped)
	slices.SortFunc(r.Failed, func(a, b *MemoError) int {
		return cmp.Compare(a.Name, b.Name)
	})

	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f
	}
	return &r, errors.Join(errs...)
}

// Process runs every memo through transcription, metadata extraction and
// summarization, storing each result as it is produced. It blocks until all
// memos have finished. The returned error joins one *MemoError per failed
// memo and is nil when every memo succeeded or was skipped.
func (p *Pipeline) Process(ctx context.Context, memos ...core.Memo) (*Report, error) {
	builder := &reportBuilder{}
	builder.report.RunID = uuid.NewString()
	logger := p.logger.With("run", builder.report.RunID)

	var tracker *ProgressTracker
	if p.progress != nil {
		tracker = NewProgressTracker(p.progress, len(memos), 1)
		tracker.Start()
		defer tracker.Finish()
	}
	done := func(failed bool) {
		if tracker != nil {
			tracker.Done(failed)
		}
	}

	logger.Info("processing memos", "count", len(memos))

	seen := make(map[string]bool, len(memos))
	var wg sync.WaitGroup
	for _, memo := range memos {
		name := memo.Name
		if name == "" {
			name = core.NameFromPath(memo.AudioPath)
		}
		if seen[name] {
			builder.failed(&MemoError{Name: name, Err: ErrDuplicateMemo})
			done(true)
			continue
		}
		seen[name] = true

		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			ok := p.processMemo(ctx, logger, memo, name, builder)
			done(!ok)
		})
		if err != nil {
			wg.Done()
			builder.failed(&MemoError{Name: name, Err: err})
			done(true)
		}
	}
	wg.Wait()

	report, err := builder.build()
	logger.Info("finished processing memos",
		"processed", len(report.Processed),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed))
	return report, err
}

// processMemo runs the stages a memo still needs. It returns false if the
// memo failed.
func (p *Pipeline) processMemo(ctx context.Context, logger *slog.Logger, memo core.Memo, name string, builder *reportBuilder) bool {
	fail := func(stage core.Stage, err error) bool {
		logger.Error("memo failed",
			"name", name,
			"stage", stage.String(),
			"class", core.Classify(err),
			"err", err)
		builder.failed(&MemoError{Name: name, Stage: stage, Err: err})
		return false
	}

	if err := core.ValidateName(name); err != nil {
		return fail(0, err)
	}

	state := &memoState{memo: memo, name: name}
	if p.checkpoints != nil {
		cp, err := p.checkpoints.LoadCheckpoint(ctx, name)
		if err != nil {
			return fail(0, err)
		}
		if cp.Complete() {
			logger.Debug("memo already processed", "name", name)
			builder.skipped(name)
			return true
		}
		state.checkpoint = cp
	}

	for _, proc := range p.processors {
		stage := proc.stage()
		if state.checkpoint.Has(stage) {
			resumed, err := p.resume(ctx, logger, state, stage)
			if err != nil {
				return fail(stage, err)
			}
			if resumed {
				continue
			}
		}

		if err := ctx.Err(); err != nil {
			return fail(stage, err)
		}
		if err := proc.process(ctx, state); err != nil {
			return fail(stage, err)
		}

		if p.checkpoints != nil {
			cp, err := p.checkpoints.MarkStage(ctx, name, stage)
			if err != nil {
				return fail(stage, err)
			}
			state.checkpoint = cp
		}
	}

	logger.Info("memo processed", "name", name)
	builder.processed(name)
	return true
}

// resume restores what later stages need from a stage completed in an
// earlier run. It returns false if the stage must run again.
func (p *Pipeline) resume(ctx context.Context, logger *slog.Logger, state *memoState, stage core.Stage) (bool, error) {
	if stage != core.StageTranscribed || state.checkpoint.Has(core.StageSummarized) {
		return true, nil
	}

	// Summarization still needs the transcript.
	v, err := p.store.Load(ctx, core.KindTranscription, state.name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Warn("checkpointed transcription missing, transcribing again", "name", state.name)
			return false, nil
		}
		return false, err
	}
	state.transcript = v.(string)
	return true, nil
}

func (p *Pipeline) retry(ctx context.Context, operation func() error) error {
	return retryWithBackoff(ctx, p.logger, operation, p.maxAttempts, p.baseDelay)
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
