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


package storage

import (
	"errors"
	"fmt"

	"github.com/poiesic/memovault/core"
)

var (
	// ErrNotFound indicates that the requested record was not found.
	// It matches core.ErrRecordNotFound with errors.Is.
	ErrNotFound = fmt.Errorf("storage: %w", core.ErrRecordNotFound)

	// ErrIO indicates a filesystem failure such as a full disk or a
	// permission error. It is the only retryable storage error.
	ErrIO = errors.New("storage I/O failed")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData indicates that data was truncated during reading.
	ErrTruncatedData = errors.New("truncated data")
)

// IsRetryable reports whether retrying the operation that produced err
// could succeed. Integrity and validation failures are never retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrIO)
}
