package rekey

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/poiesic/memovault/codec"
	"github.com/poiesic/memovault/keys"
	"github.com/poiesic/memovault/storage"
	"github.com/poiesic/memovault/storage/filestore"
)

// PendingSuffix is appended to the key file path to stage the new key
// while records are migrated.
const PendingSuffix = ".new"

// RotateKey re-encrypts the records under root with a new key and then
// replaces keyFile with it. If a staged key from an interrupted run exists
// it is reused. On failure keyFile is left untouched, so every record stays
// readable with either the old key or the staged one.
func RotateKey(ctx context.Context, root, keyFile string, config *Config, progress io.Writer) (*Result, error) {
	logger := slog.Default().With("component", "rekey")

	oldKey, err := keys.Load(keyFile)
	if err != nil {
		return nil, err
	}

	pending := keyFile + PendingSuffix
	newKey, created, err := keys.LoadOrGenerate(pending)
	if err != nil {
		return nil, fmt.Errorf("stage new key: %w", err)
	}
	if newKey == oldKey {
		return nil, ErrSameKey
	}
	if !created {
		logger.Info("resuming key rotation with staged key", "path", pending)
	}

	from, err := newStore(root, oldKey)
	if err != nil {
		return nil, err
	}
	to, err := newStore(root, newKey)
	if err != nil {
		return nil, err
	}

	result, err := NewRekeyer(root, from, to, config, progress).Run(ctx)
	if err != nil {
		return result, err
	}

	if err := os.Rename(pending, keyFile); err != nil {
		return result, fmt.Errorf("%w: install new key: %w", storage.ErrIO, err)
	}
	logger.Info("key rotated",
		"old_fingerprint", keys.Fingerprint(oldKey),
		"new_fingerprint", keys.Fingerprint(newKey),
		"records", result.Total)
	return result, nil
}

func newStore(root string, key keys.Key) (*filestore.Store, error) {
	c, err := codec.New(key)
	if err != nil {
		return nil, err
	}
	return filestore.New(root, c)
}
