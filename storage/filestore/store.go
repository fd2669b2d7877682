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


package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/memovault/codec"
	"github.com/poiesic/memovault/core"
	"github.com/poiesic/memovault/storage"
)

const (
	// DirMode is the permission applied to kind directories.
	DirMode fs.FileMode = 0o700

	// FileMode is the permission applied to record files.
	FileMode fs.FileMode = 0o600
)

// Store implements storage.RecordStore on the local filesystem.
type Store struct {
	root     string
	codec    *codec.Codec
	recorder storage.EventRecorder
	logger   *slog.Logger

	// rename replaces the target with the finished temp file. Tests swap it
	// to simulate a crash between write and rename.
	rename func(oldpath, newpath string) error
}

var _ storage.RecordStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "filestore")
		return nil
	}
}

// WithRecorder sends an event for every save and load attempt to recorder,
// in addition to the structured log line.
func WithRecorder(recorder storage.EventRecorder) Option {
	return func(s *Store) error {
		s.recorder = recorder
		return nil
	}
}

// New creates a Store rooted at root. The root directory is created if it
// doesn't exist.
func New(root string, c *codec.Codec, opts ...Option) (*Store, error) {
	if root == "" {
		return nil, ErrRootRequired
	}
	if c == nil {
		return nil, ErrCodecRequired
	}

	info, err := os.Stat(root)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", storage.ErrIO, err)
		}
		if err := os.MkdirAll(root, DirMode); err != nil {
			return nil, fmt.Errorf("%w: create root: %w", storage.ErrIO, err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", storage.ErrIO, root)
	}

	s := &Store{
		root:   root,
		codec:  c,
		logger: slog.Default().With("component", "filestore"),
		rename: os.Rename,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Root returns the directory the store writes under.
func (s *Store) Root() string {
	return s.root
}

// Save encodes payload and atomically replaces the record at (kind, name).
func (s *Store) Save(ctx context.Context, kind core.RecordKind, name string, payload any) error {
	n, err := s.save(kind, name, payload)
	s.emit(ctx, core.OpSave, kind, name, n, err)
	return err
}

// Load reads and decodes the record at (kind, name).
func (s *Store) Load(ctx context.Context, kind core.RecordKind, name string) (any, error) {
	v, n, err := s.load(kind, name)
	s.emit(ctx, core.OpLoad, kind, name, n, err)
	return v, err
}

// Exists reports whether a record file is present for (kind, name).
func (s *Store) Exists(_ context.Context, kind core.RecordKind, name string) (bool, error) {
	path, err := storage.Resolve(kind, name, s.root)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", storage.ErrIO, err)
	}
}

// SaveText saves a text record.
func (s *Store) SaveText(ctx context.Context, kind core.RecordKind, name, text string) error {
	return s.Save(ctx, kind, name, text)
}

// LoadText loads a text record.
func (s *Store) LoadText(ctx context.Context, kind core.RecordKind, name string) (string, error) {
	v, err := s.Load(ctx, kind, name)
	if err != nil {
		return "", err
	}
	text, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a text kind", core.ErrInvalidPayload, kind)
	}
	return text, nil
}

// SaveMetadata saves the metadata record for name.
func (s *Store) SaveMetadata(ctx context.Context, name string, m core.Metadata) error {
	return s.Save(ctx, core.KindMetadata, name, m)
}

// LoadMetadata loads the metadata record for name.
func (s *Store) LoadMetadata(ctx context.Context, name string) (core.Metadata, error) {
	v, err := s.Load(ctx, core.KindMetadata, name)
	if err != nil {
		return nil, err
	}
	return v.(core.Metadata), nil
}

func (s *Store) save(kind core.RecordKind, name string, payload any) (int64, error) {
	path, err := storage.Resolve(kind, name, s.root)
	if err != nil {
		return 0, err
	}

	// Encode before touching the filesystem so plaintext of encrypted kinds
	// never reaches disk, not even in a temp file.
	data, err := s.codec.Encode(kind, payload)
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return 0, fmt.Errorf("%w: create %s: %w", storage.ErrIO, kind.Dir(), err)
	}
	if err := s.writeAtomic(dir, path, data); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// writeAtomic writes data to a unique temp file next to path, syncs it and
// renames it over path. Readers see either the old file or the new one.
func (s *Store) writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", storage.ErrIO, err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(FileMode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: chmod temp file: %w", storage.ErrIO, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write temp file: %w", storage.ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: sync temp file: %w", storage.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close temp file: %w", storage.ErrIO, err)
	}
	if err := s.rename(tmpName, path); err != nil {
		os.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("%w: atomic rename: %w", storage.ErrIO, err)
	}
	return nil
}

func (s *Store) load(kind core.RecordKind, name string) (any, int64, error) {
	path, err := storage.Resolve(kind, name, s.root)
	if err != nil {
		return nil, 0, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %s/%s", storage.ErrNotFound, kind, name)
		}
		return nil, 0, fmt.Errorf("%w: read: %w", storage.ErrIO, err)
	}

	v, err := s.codec.Decode(kind, data)
	if err != nil {
		return nil, int64(len(data)), fmt.Errorf("%s/%s: %w", kind, name, err)
	}
	return v, int64(len(data)), nil
}

// emit logs the attempt and forwards it to the recorder. Recorder failures
// are logged and never fail the storage operation.
func (s *Store) emit(ctx context.Context, op core.Op, kind core.RecordKind, name string, n int64, err error) {
	event := &core.Event{
		Op:         op,
		Kind:       kind,
		Name:       name,
		Bytes:      n,
		Success:    err == nil,
		ErrorClass: core.Classify(err),
		At:         time.Now().UTC(),
	}

	if err != nil {
		s.logger.Warn("record "+op.String()+" failed",
			"kind", kind.String(), "name", name, "bytes", n, "class", event.ErrorClass)
	} else {
		s.logger.Debug("record "+op.String(),
			"kind", kind.String(), "name", name, "bytes", n)
	}

	if s.recorder == nil {
		return
	}
	if recErr := s.recorder.Record(ctx, event); recErr != nil {
		s.logger.Error("error recording storage event", "op", op.String(), "err", recErr)
	}
}
