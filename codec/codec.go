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


// Package codec converts record payloads to the bytes stored on disk and back.
//
// Text kinds are stored as UTF-8; Metadata is stored as a JSON object. Kinds
// whose policy requires encryption are sealed with XChaCha20-Poly1305 under
// a fresh random nonce per call, using the kind name as additional data, and
// framed in a storage.Envelope. Decoding never returns plaintext that failed
// authentication.
package codec

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math"

	"github.com/poiesic/memovault/core"
	"github.com/poiesic/memovault/keys"
	"github.com/poiesic/memovault/storage"
	"golang.org/x/crypto/chacha20poly1305"
)

// Codec encodes and decodes record payloads under a single key.
// A Codec is safe for concurrent use.
type Codec struct {
	aead cipher.AEAD
}

// New creates a Codec that encrypts with key.
func New(key keys.Key) (*Codec, error) {
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("codec: init cipher: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Encode serializes payload for kind and encrypts it if the kind requires.
// payload must be a string for text kinds and core.Metadata for KindMetadata.
func (c *Codec) Encode(kind core.RecordKind, payload any) ([]byte, error) {
	if err := core.ValidatePayload(kind, payload); err != nil {
		return nil, err
	}

	var plaintext []byte
	if kind.IsText() {
		plaintext = []byte(payload.(string))
	} else {
		var err error
		plaintext, err = marshalMetadata(payload)
		if err != nil {
			return nil, err
		}
	}

	if !kind.Encrypted() {
		return plaintext, nil
	}
	return c.seal(kind, plaintext)
}

// Decode reverses Encode. It returns a string for text kinds and
// core.Metadata for KindMetadata.
func (c *Codec) Decode(kind core.RecordKind, data []byte) (any, error) {
	if err := core.ValidateKind(kind); err != nil {
		return nil, err
	}

	plaintext := data
	if kind.Encrypted() {
		var err error
		plaintext, err = c.open(kind, data)
		if err != nil {
			return nil, err
		}
	}

	if kind.IsText() {
		return string(plaintext), nil
	}
	return unmarshalMetadata(plaintext)
}

// EncodeText encodes a text payload.
func (c *Codec) EncodeText(kind core.RecordKind, text string) ([]byte, error) {
	return c.Encode(kind, text)
}

// DecodeText decodes a text payload.
func (c *Codec) DecodeText(kind core.RecordKind, data []byte) (string, error) {
	v, err := c.Decode(kind, data)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a text kind", core.ErrInvalidPayload, kind)
	}
	return s, nil
}

// EncodeMetadata encodes a Metadata payload.
func (c *Codec) EncodeMetadata(m core.Metadata) ([]byte, error) {
	return c.Encode(core.KindMetadata, m)
}

// DecodeMetadata decodes a Metadata payload.
func (c *Codec) DecodeMetadata(data []byte) (core.Metadata, error) {
	v, err := c.Decode(core.KindMetadata, data)
	if err != nil {
		return nil, err
	}
	return v.(core.Metadata), nil
}

func (c *Codec) seal(kind core.RecordKind, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("codec: generate nonce: %w", err)
	}
	env := &storage.Envelope{
		Version:    storage.EnvelopeVersion,
		Nonce:      nonce,
		Ciphertext: c.aead.Seal(nil, nonce, plaintext, additionalData(kind)),
	}
	return storage.MarshalEnvelope(env), nil
}

// open authenticates and decrypts data. Every failure, including a
// malformed envelope, is reported as core.ErrDecryption.
func (c *Codec) open(kind core.RecordKind, data []byte) ([]byte, error) {
	env, err := storage.UnmarshalEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed envelope", core.ErrDecryption)
	}
	if env.Version != storage.EnvelopeVersion {
		return nil, fmt.Errorf("%w: unsupported envelope version %d", core.ErrDecryption, env.Version)
	}
	if len(env.Nonce) != c.aead.NonceSize() {
		return nil, fmt.Errorf("%w: bad nonce length %d", core.ErrDecryption, len(env.Nonce))
	}
	plaintext, err := c.aead.Open(nil, env.Nonce, env.Ciphertext, additionalData(kind))
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", core.ErrDecryption)
	}
	return plaintext, nil
}

func additionalData(kind core.RecordKind) []byte {
	return []byte("memovault/" + kind.Dir())
}

func marshalMetadata(payload any) ([]byte, error) {
	var m map[string]any
	switch v := payload.(type) {
	case core.Metadata:
		m = v
	case map[string]any:
		m = v
	}
	data, err := json.Marshal(m)
	if err != nil {
		// NaN and infinities have no JSON form.
		return nil, fmt.Errorf("%w: metadata is not serializable", core.ErrInvalidPayload)
	}
	return data, nil
}

// unmarshalMetadata parses a JSON object. Integral numbers that fit in an
// int64 become int64, every other number becomes float64. Errors never
// include the input.
func unmarshalMetadata(data []byte) (core.Metadata, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: metadata is not a JSON object", core.ErrCorruptRecord)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: metadata is null", core.ErrCorruptRecord)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after metadata", core.ErrCorruptRecord)
	}

	m := make(core.Metadata, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case json.Number:
			n, err := numberValue(val)
			if err != nil {
				return nil, fmt.Errorf("%w: metadata key %q holds an invalid number", core.ErrCorruptRecord, k)
			}
			m[k] = n
		case nil, string, bool:
			m[k] = val
		default:
			return nil, fmt.Errorf("%w: metadata key %q is not a primitive", core.ErrCorruptRecord, k)
		}
	}
	return m, nil
}

func numberValue(n json.Number) (any, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, err
	}
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f), nil
	}
	return f, nil
}
