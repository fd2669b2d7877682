package rekey

import "errors"

var (
	// ErrSameKey indicates the staged key equals the current key.
	ErrSameKey = errors.New("new key is identical to the current key")

	// ErrIncomplete indicates some records could not be migrated. The key
	// file is left unchanged.
	ErrIncomplete = errors.New("key rotation incomplete")
)
