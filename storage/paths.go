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
	"path/filepath"
	"strings"

	"github.com/poiesic/memovault/core"
)

// Resolve maps (kind, name) to root/<kind dir>/<name><extension>.
// It performs no I/O. Names that could escape the kind directory are
// rejected with core.ErrInvalidName.
func Resolve(kind core.RecordKind, name, root string) (string, error) {
	if err := core.ValidateKind(kind); err != nil {
		return "", err
	}
	if err := core.ValidateName(name); err != nil {
		return "", err
	}

	dir := filepath.Join(root, kind.Dir())
	resolved := filepath.Join(dir, name+kind.Extension())

	// The joined path must stay a direct child of the kind directory.
	if filepath.Dir(resolved) != dir || !strings.HasPrefix(resolved, dir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes %s", core.ErrInvalidName, name, kind.Dir())
	}
	return resolved, nil
}

// KindDir returns the directory that holds records of kind under root.
func KindDir(kind core.RecordKind, root string) string {
	return filepath.Join(root, kind.Dir())
}
