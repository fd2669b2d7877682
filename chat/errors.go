package chat

import "errors"

var (
	// ErrRecordStoreRequired indicates that a record store is required but was nil.
	ErrRecordStoreRequired = errors.New("record store is required")

	// ErrCheckpointsRequired indicates that a checkpoint repository is required but was nil.
	ErrCheckpointsRequired = errors.New("checkpoint repository is required")

	// ErrSummarizerRequired indicates that a summarizer is required but was nil.
	ErrSummarizerRequired = errors.New("summarizer is required")
)
