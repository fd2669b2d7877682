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
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/memovault/core"
)

// EnvelopeVersion is the current on-disk format of encrypted records.
const EnvelopeVersion uint64 = 1

// Envelope is the on-disk framing of an encrypted record.
type Envelope struct {
	Version    uint64
	Nonce      []byte
	Ciphertext []byte // Includes the authentication tag
}

// MarshalEnvelope serializes an Envelope to bytes.
func MarshalEnvelope(env *Envelope) []byte {
	size := varint.Uint64.Size(env.Version) +
		ord.ByteSlice.Size(env.Nonce) +
		ord.ByteSlice.Size(env.Ciphertext)
	buf := make([]byte, size)
	n := varint.Uint64.Marshal(env.Version, buf)
	n += ord.ByteSlice.Marshal(env.Nonce, buf[n:])
	ord.ByteSlice.Marshal(env.Ciphertext, buf[n:])
	return buf
}

// UnmarshalEnvelope deserializes an Envelope from bytes.
// The input must contain exactly one envelope with no trailing data.
func UnmarshalEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	version, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: envelope version: %w", ErrSerializationFailed, err)
	}
	env.Version = version

	nonce, m, err := ord.ByteSlice.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: envelope nonce: %w", ErrSerializationFailed, err)
	}
	env.Nonce = nonce
	n += m

	ciphertext, m, err := ord.ByteSlice.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: envelope ciphertext: %w", ErrSerializationFailed, err)
	}
	env.Ciphertext = ciphertext
	n += m

	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes after envelope", ErrSerializationFailed, len(data)-n)
	}
	return &env, nil
}

// MarshalEvent serializes an Event to bytes.
func MarshalEvent(event *core.Event) []byte {
	at := event.At.UnixMicro()
	size := varint.Uint64.Size(uint64(event.Id)) +
		varint.Uint64.Size(uint64(event.Op)) +
		varint.Uint64.Size(uint64(event.Kind)) +
		ord.String.Size(event.Name) +
		varint.Int64.Size(event.Bytes) +
		ord.Bool.Size(event.Success) +
		ord.String.Size(event.ErrorClass) +
		varint.Int64.Size(at)
	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(event.Id), buf)
	n += varint.Uint64.Marshal(uint64(event.Op), buf[n:])
	n += varint.Uint64.Marshal(uint64(event.Kind), buf[n:])
	n += ord.String.Marshal(event.Name, buf[n:])
	n += varint.Int64.Marshal(event.Bytes, buf[n:])
	n += ord.Bool.Marshal(event.Success, buf[n:])
	n += ord.String.Marshal(event.ErrorClass, buf[n:])
	varint.Int64.Marshal(at, buf[n:])
	return buf
}

// UnmarshalEvent deserializes an Event from bytes.
func UnmarshalEvent(data []byte) (*core.Event, error) {
	var (
		event core.Event
		u     uint64
		at    int64
		n, m  int
		err   error
	)

	if u, m, err = varint.Uint64.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("%w: event id: %w", ErrSerializationFailed, err)
	}
	event.Id = core.ID(u)
	n += m

	if u, m, err = varint.Uint64.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: event op: %w", ErrSerializationFailed, err)
	}
	event.Op = core.Op(u)
	n += m

	if u, m, err = varint.Uint64.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: event kind: %w", ErrSerializationFailed, err)
	}
	event.Kind = core.RecordKind(u)
	n += m

	if event.Name, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: event name: %w", ErrSerializationFailed, err)
	}
	n += m

	if event.Bytes, m, err = varint.Int64.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: event bytes: %w", ErrSerializationFailed, err)
	}
	n += m

	if event.Success, m, err = ord.Bool.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: event success: %w", ErrSerializationFailed, err)
	}
	n += m

	if event.ErrorClass, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: event error class: %w", ErrSerializationFailed, err)
	}
	n += m

	if at, _, err = varint.Int64.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: event time: %w", ErrSerializationFailed, err)
	}
	event.At = time.UnixMicro(at).UTC()

	return &event, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	at := checkpoint.UpdatedAt.UnixMicro()
	size := ord.String.Size(checkpoint.Name) +
		varint.Uint64.Size(uint64(checkpoint.Stages)) +
		varint.Int64.Size(at)
	buf := make([]byte, size)
	n := ord.String.Marshal(checkpoint.Name, buf)
	n += varint.Uint64.Marshal(uint64(checkpoint.Stages), buf[n:])
	varint.Int64.Marshal(at, buf[n:])
	return buf
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	var checkpoint core.Checkpoint

	name, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: checkpoint name: %w", ErrSerializationFailed, err)
	}
	checkpoint.Name = name

	stages, m, err := varint.Uint64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: checkpoint stages: %w", ErrSerializationFailed, err)
	}
	checkpoint.Stages = core.Stage(stages)
	n += m

	at, _, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: checkpoint time: %w", ErrSerializationFailed, err)
	}
	checkpoint.UpdatedAt = time.UnixMicro(at).UTC()

	return &checkpoint, nil
}
