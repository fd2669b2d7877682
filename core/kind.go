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
)

// RecordKind identifies the type of artifact a record holds.
// The zero value is not a valid kind.
type RecordKind int

const (
	// KindTranscription is the text produced by speech recognition.
	KindTranscription RecordKind = iota + 1
	// KindSummary is the model-generated summary of a transcription.
	KindSummary
	// KindMetadata is the mapping of facts extracted from the recording.
	KindMetadata
)

// kindPolicy holds the per-kind storage policy.
type kindPolicy struct {
	dir       string
	extension string
	encrypted bool
}

var kindPolicies = map[RecordKind]kindPolicy{
	KindTranscription: {dir: "transcription", extension: ".txt", encrypted: true},
	KindSummary:       {dir: "summary", extension: ".txt", encrypted: false},
	KindMetadata:      {dir: "metadata", extension: ".json", encrypted: true},
}

// Kinds returns every valid RecordKind in declaration order.
func Kinds() []RecordKind {
	return []RecordKind{KindTranscription, KindSummary, KindMetadata}
}

// Valid reports whether k is one of the declared kinds.
func (k RecordKind) Valid() bool {
	_, ok := kindPolicies[k]
	return ok
}

// Dir returns the lowercase directory name records of this kind live under.
func (k RecordKind) Dir() string {
	return kindPolicies[k].dir
}

// Extension returns the file extension, including the leading dot.
func (k RecordKind) Extension() string {
	return kindPolicies[k].extension
}

// Encrypted reports whether records of this kind are encrypted at rest.
func (k RecordKind) Encrypted() bool {
	return kindPolicies[k].encrypted
}

// IsText reports whether the payload of this kind is a plain string.
func (k RecordKind) IsText() bool {
	return k == KindTranscription || k == KindSummary
}

func (k RecordKind) String() string {
	if p, ok := kindPolicies[k]; ok {
		return p.dir
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind converts a kind name ("transcription", "summary", "metadata")
// into a RecordKind. Matching is case-insensitive.
func ParseKind(s string) (RecordKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds() {
		if k.Dir() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// ValidateKind returns ErrUnknownKind if k is not a declared kind.
func ValidateKind(k RecordKind) error {
	if !k.Valid() {
		return fmt.Errorf("%w: value %d", ErrUnknownKind, int(k))
	}
	return nil
}
