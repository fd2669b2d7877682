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


package privacy

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/memovault/core"
)

const (
	// LocationPlaceholder replaces the location under PlaceholderAnonymizer.
	LocationPlaceholder = "Anonymized"

	// SpeakerPlaceholder replaces the speaker under PlaceholderAnonymizer.
	SpeakerPlaceholder = "Anonymized Speaker"

	digestSize = 32
)

// ErrSaltRequired is returned when a HashAnonymizer is built without a salt.
var ErrSaltRequired = errors.New("anonymization salt is required")

// SensitiveKeys are the metadata keys anonymized by default.
var SensitiveKeys = []string{core.MetaLocation, core.MetaSpeaker}

// Anonymizer rewrites identifying metadata values.
// Implementations must not modify their input.
type Anonymizer interface {
	Anonymize(m core.Metadata) core.Metadata
}

// HashAnonymizer replaces sensitive values with a hex BLAKE2b-256 digest
// keyed by a secret salt. Missing keys and nil values are left alone.
type HashAnonymizer struct {
	key  []byte
	keys []string
}

var _ Anonymizer = (*HashAnonymizer)(nil)

// NewHashAnonymizer creates a HashAnonymizer. The salt may be any length; it
// is condensed to a 32 byte MAC key. If keys is empty SensitiveKeys is used.
func NewHashAnonymizer(salt []byte, keys ...string) (*HashAnonymizer, error) {
	if len(salt) == 0 {
		return nil, ErrSaltRequired
	}
	h, err := blake2b.New(digestSize, nil)
	if err != nil {
		return nil, fmt.Errorf("privacy: derive key: %w", err)
	}
	h.Write([]byte("memovault-anonymizer"))
	h.Write(salt)

	if len(keys) == 0 {
		keys = SensitiveKeys
	}
	return &HashAnonymizer{key: h.Sum(nil), keys: keys}, nil
}

// Anonymize returns a copy of m with every sensitive value hashed.
func (a *HashAnonymizer) Anonymize(m core.Metadata) core.Metadata {
	out := m.Clone()
	for _, k := range a.keys {
		v, ok := out[k]
		if !ok || v == nil {
			continue
		}
		out[k] = a.Hash(fmt.Sprint(v))
	}
	return out
}

// Hash returns the keyed digest of value as lowercase hex.
func (a *HashAnonymizer) Hash(value string) string {
	h, _ := blake2b.New(digestSize, a.key) // key is always digestSize bytes
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil))
}

// PlaceholderAnonymizer replaces location and speaker with fixed labels.
type PlaceholderAnonymizer struct{}

var _ Anonymizer = PlaceholderAnonymizer{}

// Anonymize returns a copy of m with location and speaker replaced when
// present.
func (PlaceholderAnonymizer) Anonymize(m core.Metadata) core.Metadata {
	out := m.Clone()
	if _, ok := out[core.MetaLocation]; ok {
		out[core.MetaLocation] = LocationPlaceholder
	}
	if _, ok := out[core.MetaSpeaker]; ok {
		out[core.MetaSpeaker] = SpeakerPlaceholder
	}
	return out
}
