package rekey

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/memovault/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func TestListNames(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "transcription")
	for _, name := range []string{"memo002.txt", "memo001.txt", ".memo003.txt.tmp-123", "notes.json"} {
		touch(t, filepath.Join(dir, name))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0o700))

	names, err := ListNames(root, core.KindTranscription)
	require.NoError(t, err)
	assert.Equal(t, []string{"memo001", "memo002"}, names)
}

func TestListNames_MissingDir(t *testing.T) {
	names, err := ListNames(t.TempDir(), core.KindMetadata)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestListNames_UnknownKind(t *testing.T) {
	_, err := ListNames(t.TempDir(), core.RecordKind(42))
	assert.ErrorIs(t, err, core.ErrUnknownKind)
}

func TestNameIterator_Batches(t *testing.T) {
	root := t.TempDir()
	for i := range 5 {
		touch(t, filepath.Join(root, "transcription", fmt.Sprintf("memo%03d.txt", i)))
	}
	touch(t, filepath.Join(root, "metadata", "memo000.json"))

	iter := NewNameIterator(root, []core.RecordKind{core.KindTranscription, core.KindMetadata}, 2)

	total, err := iter.Count()
	require.NoError(t, err)
	assert.Equal(t, 6, total)

	var sizes []int
	var kinds []core.RecordKind
	err = iter.ForEach(context.Background(), func(kind core.RecordKind, names []string) error {
		sizes = append(sizes, len(names))
		kinds = append(kinds, kind)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1, 1}, sizes)
	assert.Equal(t, core.KindMetadata, kinds[3])
}

func TestNameIterator_StopsOnError(t *testing.T) {
	root := t.TempDir()
	for i := range 4 {
		touch(t, filepath.Join(root, "transcription", fmt.Sprintf("memo%03d.txt", i)))
	}

	boom := errors.New("boom")
	calls := 0
	err := NewNameIterator(root, []core.RecordKind{core.KindTranscription}, 1).
		ForEach(context.Background(), func(core.RecordKind, []string) error {
			calls++
			return boom
		})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestNameIterator_ContextCancellation(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "transcription", "memo001.txt"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewNameIterator(root, []core.RecordKind{core.KindTranscription}, 0).
		ForEach(ctx, func(core.RecordKind, []string) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
