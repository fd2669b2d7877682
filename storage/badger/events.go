package badger

import (
	"bytes"
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/memovault/core"
	"github.com/poiesic/memovault/storage"
)

// EventRepository implements storage.EventRepository for BadgerDB.
// Events are append-only and keyed by a monotonically increasing ID.
type EventRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.EventRepository = (*EventRepository)(nil)

// NewEventRepository creates a new EventRepository.
func NewEventRepository(backend *Backend) (*EventRepository, error) {
	idSeq, err := backend.GetSequence(eventIDSeq)
	if err != nil {
		return nil, translateError(err)
	}

	return &EventRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *EventRepository) Close() error {
	return r.idSeq.Release()
}

// Record appends event to the journal and assigns event.Id.
func (r *EventRepository) Record(ctx context.Context, event *core.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		nextID, err := r.idSeq.Next()
		if err != nil {
			return err
		}
		// BadgerDB sequences can return 0 on first call, so we skip it
		if nextID == 0 {
			nextID, err = r.idSeq.Next()
			if err != nil {
				return err
			}
		}
		event.Id = core.ID(nextID)

		if err := tx.Set(makeEventKey(event.Id), storage.MarshalEvent(event)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Recent returns up to limit events, most recent first.
func (r *EventRepository) Recent(ctx context.Context, limit int) ([]*core.Event, error) {
	if limit <= 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []*core.Event
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := []byte(eventPrefix)
		// Seek past the largest possible ID under the prefix.
		startKey := makeEventKey(core.ID(^uint64(0)))

		for iter.Seek(startKey); iter.Valid() && len(results) < limit; iter.Next() {
			item := iter.Item()
			if !bytes.HasPrefix(item.Key(), prefix) {
				break
			}

			var event *core.Event
			if err := item.Value(func(val []byte) error {
				var err error
				event, err = storage.UnmarshalEvent(val)
				return err
			}); err != nil {
				return err
			}
			results = append(results, event)
		}
		return nil
	}, false)

	return results, err
}
