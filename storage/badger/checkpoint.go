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


package badger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/memovault/core"
	"github.com/poiesic/memovault/storage"
)

// CheckpointRepository implements storage.CheckpointRepository for BadgerDB.
type CheckpointRepository struct {
	backend *Backend

	// mu serializes read-modify-write of checkpoints; concurrent pipeline
	// workers would otherwise hit transaction conflicts.
	mu sync.Mutex
}

var _ storage.CheckpointRepository = (*CheckpointRepository)(nil)

// NewCheckpointRepository creates a new CheckpointRepository.
func NewCheckpointRepository(backend *Backend) *CheckpointRepository {
	return &CheckpointRepository{
		backend: backend,
	}
}

// MarkStage records that stage has completed for the named memo. When the
// checkpoint becomes complete the memo is also recorded as the latest one.
func (r *CheckpointRepository) MarkStage(ctx context.Context, name string, stage core.Stage) (*core.Checkpoint, error) {
	if err := core.ValidateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var checkpoint *core.Checkpoint
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		checkpoint, err = readCheckpoint(tx, name)
		if err != nil {
			return err
		}
		if checkpoint == nil {
			checkpoint = &core.Checkpoint{Name: name}
		}

		checkpoint.Stages |= stage
		checkpoint.UpdatedAt = time.Now().UTC()
		if err := tx.Set(makeCheckpointKey(name), storage.MarshalCheckpoint(checkpoint)); err != nil {
			return err
		}
		if checkpoint.Complete() {
			if err := tx.Set([]byte(latestKey), []byte(name)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return checkpoint, nil
}

// LoadCheckpoint retrieves the checkpoint for a memo.
// Returns nil, nil if no checkpoint exists.
func (r *CheckpointRepository) LoadCheckpoint(ctx context.Context, name string) (*core.Checkpoint, error) {
	if err := core.ValidateName(name); err != nil {
		return nil, err
	}

	var checkpoint *core.Checkpoint
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		checkpoint, err = readCheckpoint(tx, name)
		return err
	}, false)

	return checkpoint, err
}

// Latest returns the name of the memo that most recently completed every
// stage. Returns storage.ErrNotFound if none has.
func (r *CheckpointRepository) Latest(ctx context.Context) (string, error) {
	var name string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(latestKey))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			name = string(val)
			return nil
		})
	}, false)

	return name, err
}

func readCheckpoint(tx *badger.Txn, name string) (*core.Checkpoint, error) {
	item, err := tx.Get(makeCheckpointKey(name))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var checkpoint *core.Checkpoint
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		checkpoint, unmarshalErr = storage.UnmarshalCheckpoint(val)
		return unmarshalErr
	})
	return checkpoint, err
}
