package filestore

import "errors"

var (
	// ErrRootRequired is returned when New is called without a root directory.
	ErrRootRequired = errors.New("root directory is required")

	// ErrCodecRequired is returned when New is called without a codec.
	ErrCodecRequired = errors.New("codec is required")
)
