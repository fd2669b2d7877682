package ai

import (
	"context"

	"github.com/poiesic/memovault/core"
)

// Transcriber converts a voice memo recording to text.
// Implementations must be thread-safe for concurrent use.
type Transcriber interface {
	// Transcribe returns the transcript of the audio at audioPath.
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// MetadataExtractor derives descriptive metadata from a recording.
// Implementations must be thread-safe for concurrent use.
type MetadataExtractor interface {
	// ExtractMetadata returns primitive-valued metadata for the audio at
	// audioPath. The result must pass core.ValidateMetadata.
	ExtractMetadata(ctx context.Context, audioPath string) (core.Metadata, error)
}

// Summarizer condenses a transcript into a short summary.
// Implementations must be thread-safe for concurrent use.
type Summarizer interface {
	// Summarize returns a summary of text. Returns an error if the
	// underlying model fails or returns nothing.
	Summarize(ctx context.Context, text string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Summarizer returns the summarization service.
	// The returned Summarizer is safe for concurrent use.
	Summarizer() Summarizer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
