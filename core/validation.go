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

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxNameLength is the longest record name accepted, in bytes.
const MaxNameLength = 200

// ValidateName checks that a record name is safe to use as a file name
// directly under a kind directory.
//
// Validation rules:
//   - Must not be empty or longer than MaxNameLength bytes
//   - Must be valid UTF-8
//   - Must not contain '/', '\' or NUL
//   - Must not be "." or contain ".."
//   - Must not start with '.' (reserved for in-flight temp files)
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d bytes", ErrInvalidName, MaxNameLength)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: name is not valid UTF-8", ErrInvalidName)
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q contains a parent reference", ErrInvalidName, name)
	}
	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q starts with a dot", ErrInvalidName, name)
	}
	return nil
}

// ValidateMetadata checks that every value in m is a primitive.
// Offending values are reported by key only.
func ValidateMetadata(m Metadata) error {
	if m == nil {
		return fmt.Errorf("%w: metadata is nil", ErrInvalidPayload)
	}
	for k, v := range m {
		if !IsPrimitive(v) {
			return fmt.Errorf("%w: metadata key %q holds a %T", ErrInvalidPayload, k, v)
		}
	}
	return nil
}

// ValidatePayload checks that payload has the Go type required by kind:
// string for text kinds, Metadata for KindMetadata.
func ValidatePayload(kind RecordKind, payload any) error {
	if err := ValidateKind(kind); err != nil {
		return err
	}
	if kind.IsText() {
		if _, ok := payload.(string); !ok {
			return fmt.Errorf("%w: %s requires a string, got %T", ErrInvalidPayload, kind, payload)
		}
		return nil
	}
	switch m := payload.(type) {
	case Metadata:
		return ValidateMetadata(m)
	case map[string]any:
		return ValidateMetadata(Metadata(m))
	default:
		return fmt.Errorf("%w: %s requires a mapping, got %T", ErrInvalidPayload, kind, payload)
	}
}
