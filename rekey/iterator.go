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


package rekey

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/poiesic/memovault/core"
	"github.com/poiesic/memovault/storage"
)

const (
	// DefaultBatchSize is the default number of records to process in each batch
	DefaultBatchSize = 100
)

// ListNames returns the names of the records of kind stored under root,
// sorted. Temp files and entries that are not valid record names are
// skipped. A missing kind directory yields no names.
func ListNames(root string, kind core.RecordKind) ([]string, error) {
	if err := core.ValidateKind(kind); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(root, kind.Dir()))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: list %s: %w", storage.ErrIO, kind, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name, ok := strings.CutSuffix(entry.Name(), kind.Extension())
		if !ok || core.ValidateName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// NameIterator walks the records of a set of kinds in batches.
type NameIterator struct {
	root      string
	kinds     []core.RecordKind
	batchSize int
}

// NewNameIterator creates a new iterator over the given kinds.
// batchSize: number of names passed to each callback (defaults when <= 0)
func NewNameIterator(root string, kinds []core.RecordKind, batchSize int) *NameIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &NameIterator{
		root:      root,
		kinds:     kinds,
		batchSize: batchSize,
	}
}

// Count returns the total number of records the iterator will visit.
func (it *NameIterator) Count() (int, error) {
	total := 0
	for _, kind := range it.kinds {
		names, err := ListNames(it.root, kind)
		if err != nil {
			return 0, err
		}
		total += len(names)
	}
	return total, nil
}

// ForEach calls fn with successive batches of names, kind by kind.
// Iteration stops on the first error from fn.
// Context cancellation is checked between batches.
func (it *NameIterator) ForEach(ctx context.Context, fn func(kind core.RecordKind, names []string) error) error {
	for _, kind := range it.kinds {
		names, err := ListNames(it.root, kind)
		if err != nil {
			return err
		}

		for i := 0; i < len(names); i += it.batchSize {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			end := min(i+it.batchSize, len(names))
			if err := fn(kind, names[i:end]); err != nil {
				return err
			}
		}
	}
	return nil
}
