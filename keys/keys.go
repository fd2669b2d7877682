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


// Package keys generates, persists and loads the symmetric key that
// protects encrypted records.
//
// The key file holds exactly Size raw bytes and is written with owner-only
// permissions. Writes go through a temporary file and a rename, so a
// concurrent Load sees either the previous key or the new one. A file of
// any other length is reported as corrupt rather than used.
package keys

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/memovault/core"
)

const (
	// Size is the key length in bytes.
	Size = 32

	// FileMode is the permission applied to key files.
	FileMode fs.FileMode = 0o600

	// DirMode is the permission applied to directories created for key files.
	DirMode fs.FileMode = 0o700

	// DefaultFileName is the key file name used when none is configured.
	DefaultFileName = "encryption.key"
)

// Key is a symmetric encryption key.
type Key [Size]byte

// String redacts the key material.
func (k Key) String() string {
	return "keys.Key(" + Fingerprint(k) + ")"
}

// GoString redacts the key material for %#v.
func (k Key) GoString() string {
	return k.String()
}

// Generate returns a fresh key from the operating system's CSPRNG.
func Generate() (Key, error) {
	var k Key
	if _, err := rand.Read(k[:]); err != nil {
		return Key{}, fmt.Errorf("keys: generate: %w", err)
	}
	return k, nil
}

// Persist writes key to path, replacing any existing file. The parent
// directory is created if needed.
func Persist(key Key, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return fmt.Errorf("keys: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("keys: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err := tmp.Chmod(FileMode); err != nil {
		cleanup()
		return fmt.Errorf("keys: chmod temp file: %w", err)
	}
	if _, err := tmp.Write(key[:]); err != nil {
		cleanup()
		return fmt.Errorf("keys: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("keys: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("keys: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("keys: rename: %w", err)
	}
	return nil
}

// Load reads the key stored at path.
// Returns core.ErrKeyNotFound if the file does not exist and
// core.ErrCorruptRecord if it does not hold exactly Size bytes.
func Load(path string) (Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Key{}, fmt.Errorf("%w: %s", core.ErrKeyNotFound, path)
		}
		return Key{}, fmt.Errorf("keys: read %s: %w", path, err)
	}
	if len(data) != Size {
		return Key{}, fmt.Errorf("%w: key file %s holds %d bytes, want %d",
			core.ErrCorruptRecord, path, len(data), Size)
	}
	var k Key
	copy(k[:], data)
	return k, nil
}

// LoadOrGenerate loads the key at path, generating and persisting a new
// one if the file does not exist. The boolean reports whether a key was
// created. A corrupt key file is never replaced.
func LoadOrGenerate(path string) (Key, bool, error) {
	k, err := Load(path)
	if err == nil {
		return k, false, nil
	}
	if !errors.Is(err, core.ErrKeyNotFound) {
		return Key{}, false, err
	}

	k, err = Generate()
	if err != nil {
		return Key{}, false, err
	}
	if err := Persist(k, path); err != nil {
		return Key{}, false, err
	}
	return k, true, nil
}

// Fingerprint returns a short, stable identifier for key derived with
// BLAKE2b. It is safe to log and reveals nothing usable about the key.
func Fingerprint(key Key) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte("memovault-key-fingerprint"))
	h.Write(key[:])
	return hex.EncodeToString(h.Sum(nil))
}
