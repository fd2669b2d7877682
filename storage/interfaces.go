package storage

import (
	"context"

	"github.com/poiesic/memovault/core"
)

// RecordStore persists whole records addressed by (kind, name).
// Implementations must be thread-safe and support concurrent access.
type RecordStore interface {
	// Save writes payload as the latest value of (kind, name), replacing any
	// previous value atomically. payload must be a string for text kinds and
	// core.Metadata for KindMetadata.
	// Returns core.ErrInvalidName, core.ErrInvalidPayload or ErrIO.
	Save(ctx context.Context, kind core.RecordKind, name string, payload any) error

	// Load returns the latest value of (kind, name).
	// Returns ErrNotFound if the record doesn't exist, core.ErrDecryption if
	// the stored bytes fail authentication and core.ErrCorruptRecord if they
	// decrypt to the wrong shape.
	Load(ctx context.Context, kind core.RecordKind, name string) (any, error)

	// Exists reports whether a record is present for (kind, name).
	Exists(ctx context.Context, kind core.RecordKind, name string) (bool, error)
}

// EventRecorder receives an event for every save and load attempt.
// Implementations must be thread-safe.
type EventRecorder interface {
	// Record stores or forwards the event. It may assign event.Id.
	Record(ctx context.Context, event *core.Event) error
}

// EventRepository is a durable, queryable EventRecorder.
type EventRepository interface {
	EventRecorder

	// Recent returns up to limit events, most recent first.
	Recent(ctx context.Context, limit int) ([]*core.Event, error)

	// Close releases resources held by the repository.
	Close() error
}

// CheckpointRepository tracks pipeline progress per memo.
type CheckpointRepository interface {
	// MarkStage records that stage has completed for the named memo and
	// returns the updated checkpoint.
	MarkStage(ctx context.Context, name string, stage core.Stage) (*core.Checkpoint, error)

	// LoadCheckpoint retrieves the checkpoint for a memo.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, name string) (*core.Checkpoint, error)

	// Latest returns the name of the memo that most recently completed
	// every stage. Returns ErrNotFound if none has.
	Latest(ctx context.Context) (string, error)
}
