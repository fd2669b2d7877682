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


// Package storage provides the storage abstraction layer for memovault.
//
// This package defines the interfaces that decouple record persistence from
// the pipeline and chat stages, the pure path resolver that maps a record to
// its on-disk location, and the binary encodings shared by the backends.
//
// # Layout
//
// Records are addressed by (kind, name) and live at
//
//	<root>/<kind dir>/<name><extension>
//
// where the directory, extension and encryption policy come from the
// core.RecordKind. Resolve rejects names that could escape the kind
// directory.
//
// # Constructor Return Type Pattern
//
// Backend constructors in sub-packages return concrete types so callers can
// reach backend-specific helpers (Close, Recent), while consumers such as
// the ingestion pipeline depend only on the interfaces declared here:
//
//	store, err := filestore.New(root, codec)  // satisfies storage.RecordStore
//
// # Implementations
//
//   - storage/filestore: encrypted records on the local filesystem
//   - storage/badger: event journal and pipeline checkpoints in BadgerDB
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access
// from multiple goroutines and, for the filestore, multiple processes.
//
// # Errors
//
// Failures are reported with the sentinels in core (ErrInvalidName,
// ErrDecryption, ErrCorruptRecord, ...) and in this package (ErrNotFound,
// ErrIO). Only ErrIO is retryable; see IsRetryable.
package storage
