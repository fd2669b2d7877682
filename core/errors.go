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


package core

import "errors"

// Domain errors
var (
	// ErrInvalidName indicates a record name failed path-safety validation.
	ErrInvalidName = errors.New("invalid record name")

	// ErrUnknownKind indicates a RecordKind outside the declared set.
	ErrUnknownKind = errors.New("unknown record kind")

	// ErrInvalidPayload indicates the payload type does not match the record kind.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrRecordNotFound indicates no record exists for a (kind, name) pair.
	ErrRecordNotFound = errors.New("record not found")

	// ErrKeyNotFound indicates the encryption key file is missing.
	ErrKeyNotFound = errors.New("encryption key not found")

	// ErrDecryption indicates ciphertext failed authentication: wrong key,
	// truncation or tampering.
	ErrDecryption = errors.New("decryption failed")

	// ErrCorruptRecord indicates data decrypted but does not have the expected shape.
	ErrCorruptRecord = errors.New("corrupt record")
)

// Error classes reported in events. They never carry error text.
const (
	ClassNone           = ""
	ClassInvalidName    = "invalid_name"
	ClassUnknownKind    = "unknown_kind"
	ClassInvalidPayload = "invalid_payload"
	ClassNotFound       = "not_found"
	ClassKeyNotFound    = "key_not_found"
	ClassDecryption     = "decryption"
	ClassCorrupt        = "corrupt"
	ClassIO             = "io"
)

// Classify maps an error to a short class name that is safe to log or
// persist. Errors outside the domain taxonomy are classified as I/O.
func Classify(err error) string {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, ErrInvalidName):
		return ClassInvalidName
	case errors.Is(err, ErrUnknownKind):
		return ClassUnknownKind
	case errors.Is(err, ErrInvalidPayload):
		return ClassInvalidPayload
	case errors.Is(err, ErrRecordNotFound):
		return ClassNotFound
	case errors.Is(err, ErrKeyNotFound):
		return ClassKeyNotFound
	case errors.Is(err, ErrDecryption):
		return ClassDecryption
	case errors.Is(err, ErrCorruptRecord):
		return ClassCorrupt
	default:
		return ClassIO
	}
}
