package ingestion

import "errors"

var (
	// ErrRecordStoreRequired is returned when a record store is not provided.
	ErrRecordStoreRequired = errors.New("record store required")

	// ErrTranscriberRequired is returned when a transcriber is not provided.
	ErrTranscriberRequired = errors.New("transcriber required")

	// ErrMetadataExtractorRequired is returned when a metadata extractor is not provided.
	ErrMetadataExtractorRequired = errors.New("metadata extractor required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrDuplicateMemo is returned for a memo whose name already appears
	// earlier in the same batch.
	ErrDuplicateMemo = errors.New("duplicate memo name in batch")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrTranscriptNotFound is returned when no transcript file accompanies a recording.
	ErrTranscriptNotFound = errors.New("transcript not found")
)
