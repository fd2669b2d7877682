package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/memovault/codec"
	"github.com/poiesic/memovault/core"
	"github.com/poiesic/memovault/keys"
	"github.com/poiesic/memovault/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureRecorder struct {
	mu     sync.Mutex
	events []*core.Event
	err    error
}

func (r *captureRecorder) Record(_ context.Context, event *core.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *captureRecorder) snapshot() []*core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*core.Event(nil), r.events...)
}

func newTestCodec(t *testing.T) *codec.Codec {
	t.Helper()
	key, err := keys.Generate()
	require.NoError(t, err)
	c, err := codec.New(key)
	require.NoError(t, err)
	return c
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := New(t.TempDir(), newTestCodec(t), opts...)
	require.NoError(t, err)
	return s
}

// listFiles returns every regular file under root, relative to root.
func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			files = append(files, rel)
		}
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestNew_Validation(t *testing.T) {
	_, err := New("", newTestCodec(t))
	assert.ErrorIs(t, err, ErrRootRequired)

	_, err = New(t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrCodecRequired)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	_, err = New(file, newTestCodec(t))
	assert.ErrorIs(t, err, storage.ErrIO)
}

func TestNew_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "vault")
	s, err := New(root, newTestCodec(t))
	require.NoError(t, err)
	assert.Equal(t, root, s.Root())
	assert.DirExists(t, root)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	meta := core.Metadata{"timestamp": int64(1700000000), "location": "Unknown", "speaker": "Speaker 1"}

	require.NoError(t, s.Save(ctx, core.KindTranscription, "memo001", "This is an example transcription."))
	require.NoError(t, s.Save(ctx, core.KindSummary, "memo001", "An example."))
	require.NoError(t, s.Save(ctx, core.KindMetadata, "memo001", meta))

	text, err := s.Load(ctx, core.KindTranscription, "memo001")
	require.NoError(t, err)
	assert.Equal(t, "This is an example transcription.", text)

	summary, err := s.Load(ctx, core.KindSummary, "memo001")
	require.NoError(t, err)
	assert.Equal(t, "An example.", summary)

	loaded, err := s.Load(ctx, core.KindMetadata, "memo001")
	require.NoError(t, err)
	assert.Equal(t, meta, loaded)
}

func TestSave_LayoutAndPermissions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Save(ctx, core.KindTranscription, "memo001", "secret transcript"))
	require.NoError(t, s.Save(ctx, core.KindSummary, "memo001", "public summary"))
	require.NoError(t, s.Save(ctx, core.KindMetadata, "memo001", core.Metadata{"speaker": "Alice"}))

	assert.ElementsMatch(t, []string{
		filepath.Join("transcription", "memo001.txt"),
		filepath.Join("summary", "memo001.txt"),
		filepath.Join("metadata", "memo001.json"),
	}, listFiles(t, s.Root()))

	raw, err := os.ReadFile(filepath.Join(s.Root(), "transcription", "memo001.txt"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")

	raw, err = os.ReadFile(filepath.Join(s.Root(), "metadata", "memo001.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Alice")

	raw, err = os.ReadFile(filepath.Join(s.Root(), "summary", "memo001.txt"))
	require.NoError(t, err)
	assert.Equal(t, "public summary", string(raw))

	info, err := os.Stat(filepath.Join(s.Root(), "metadata", "memo001.json"))
	require.NoError(t, err)
	assert.Zero(t, info.Mode().Perm()&0o077)

	info, err = os.Stat(filepath.Join(s.Root(), "metadata"))
	require.NoError(t, err)
	assert.Zero(t, info.Mode().Perm()&0o077)
}

func TestSave_Overwrite(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Save(ctx, core.KindSummary, "memo001", "first"))
	require.NoError(t, s.Save(ctx, core.KindSummary, "memo001", "second"))

	got, err := s.Load(ctx, core.KindSummary, "memo001")
	require.NoError(t, err)
	assert.Equal(t, "second", got)
	assert.Len(t, listFiles(t, s.Root()), 1)
}

func TestTypedHelpers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveText(ctx, core.KindTranscription, "memo001", "hello"))
	text, err := s.LoadText(ctx, core.KindTranscription, "memo001")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	meta := core.Metadata{core.MetaSpeaker: "Speaker 1", core.MetaTimestamp: int64(1)}
	require.NoError(t, s.SaveMetadata(ctx, "memo001", meta))
	got, err := s.LoadMetadata(ctx, "memo001")
	require.NoError(t, err)
	assert.Equal(t, meta, got)

	_, err = s.LoadText(ctx, core.KindMetadata, "memo001")
	assert.ErrorIs(t, err, core.ErrInvalidPayload)

	_, err = s.LoadMetadata(ctx, "memo404")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLoad_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Load(context.Background(), core.KindMetadata, "memo404")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, err, core.ErrRecordNotFound)
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ok, err := s.Exists(ctx, core.KindTranscription, "memo001")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, core.KindTranscription, "memo001", "hello"))

	ok, err = s.Exists(ctx, core.KindTranscription, "memo001")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.Exists(ctx, core.KindTranscription, "../memo001")
	assert.ErrorIs(t, err, core.ErrInvalidName)
}

func TestSave_RejectsUnsafeNames(t *testing.T) {
	ctx := context.Background()
	parent := t.TempDir()
	root := filepath.Join(parent, "vault")
	s, err := New(root, newTestCodec(t))
	require.NoError(t, err)

	for _, name := range []string{"../../etc/passwd", "../escape", "a/b", "..", ""} {
		err := s.Save(ctx, core.KindSummary, name, "payload")
		assert.ErrorIs(t, err, core.ErrInvalidName, "name %q", name)

		_, err = s.Load(ctx, core.KindSummary, name)
		assert.ErrorIs(t, err, core.ErrInvalidName, "name %q", name)
	}

	assert.Empty(t, listFiles(t, parent))
}

func TestSave_InvalidPayloadWritesNothing(t *testing.T) {
	s := newTestStore(t)

	err := s.Save(context.Background(), core.KindMetadata, "memo001", "not metadata")
	assert.ErrorIs(t, err, core.ErrInvalidPayload)
	assert.Empty(t, listFiles(t, s.Root()))
}

func TestSave_CrashBeforeRenameKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Save(ctx, core.KindTranscription, "memo001", "old transcript"))

	s.rename = func(string, string) error {
		return errors.New("simulated crash")
	}
	err := s.Save(ctx, core.KindTranscription, "memo001", "new transcript")
	require.ErrorIs(t, err, storage.ErrIO)
	assert.True(t, storage.IsRetryable(err))

	s.rename = os.Rename
	got, err := s.Load(ctx, core.KindTranscription, "memo001")
	require.NoError(t, err)
	assert.Equal(t, "old transcript", got)

	// The temp file is cleaned up.
	assert.Equal(t, []string{filepath.Join("transcription", "memo001.txt")}, listFiles(t, s.Root()))
}

func TestLoad_TamperedOnDisk(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Save(ctx, core.KindMetadata, "memo001", core.Metadata{"speaker": "Speaker 1"}))

	path := filepath.Join(s.Root(), "metadata", "memo001.json")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	_, err = s.Load(ctx, core.KindMetadata, "memo001")
	assert.ErrorIs(t, err, core.ErrDecryption)
	assert.False(t, storage.IsRetryable(err))
}

func TestLoad_HandEditedPlaintextRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	dir := filepath.Join(s.Root(), "transcription")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "memo001.txt"), []byte("plain words"), 0o600))

	_, err := s.Load(ctx, core.KindTranscription, "memo001")
	assert.ErrorIs(t, err, core.ErrDecryption)
}

func TestLoad_WrongKey(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	writer, err := New(root, newTestCodec(t))
	require.NoError(t, err)
	require.NoError(t, writer.Save(ctx, core.KindTranscription, "memo001", "hello"))

	reader, err := New(root, newTestCodec(t))
	require.NoError(t, err)
	_, err = reader.Load(ctx, core.KindTranscription, "memo001")
	assert.ErrorIs(t, err, core.ErrDecryption)
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	rec := &captureRecorder{}
	s := newTestStore(t, WithRecorder(rec))

	require.NoError(t, s.Save(ctx, core.KindTranscription, "memo001", "secret words"))
	_, err := s.Load(ctx, core.KindTranscription, "memo001")
	require.NoError(t, err)
	_, err = s.Load(ctx, core.KindMetadata, "memo404")
	require.Error(t, err)

	events := rec.snapshot()
	require.Len(t, events, 3)

	assert.Equal(t, core.OpSave, events[0].Op)
	assert.True(t, events[0].Success)
	assert.Positive(t, events[0].Bytes)
	assert.Equal(t, core.KindTranscription, events[0].Kind)
	assert.Equal(t, "memo001", events[0].Name)

	assert.Equal(t, core.OpLoad, events[1].Op)
	assert.True(t, events[1].Success)
	assert.Equal(t, events[0].Bytes, events[1].Bytes)

	assert.Equal(t, core.OpLoad, events[2].Op)
	assert.False(t, events[2].Success)
	assert.Equal(t, core.ClassNotFound, events[2].ErrorClass)

	for _, e := range events {
		assert.False(t, e.At.IsZero())
		assert.NotContains(t, e.ErrorClass, "secret")
	}
}

func TestEvents_RecorderFailureDoesNotFailSave(t *testing.T) {
	rec := &captureRecorder{err: errors.New("journal down")}
	s := newTestStore(t, WithRecorder(rec))

	require.NoError(t, s.Save(context.Background(), core.KindSummary, "memo001", "ok"))
	assert.Len(t, rec.snapshot(), 1)
}

func TestSave_ConcurrentSameKey(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	values := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel"}

	var wg sync.WaitGroup
	for _, v := range values {
		wg.Add(1)
		go func(v string) {
			defer wg.Done()
			assert.NoError(t, s.Save(ctx, core.KindTranscription, "memo001", strings.Repeat(v, 64)))
		}(v)
	}
	wg.Wait()

	got, err := s.Load(ctx, core.KindTranscription, "memo001")
	require.NoError(t, err)

	text := got.(string)
	var matched bool
	for _, v := range values {
		if text == strings.Repeat(v, 64) {
			matched = true
		}
	}
	assert.True(t, matched, "final value must be one complete write")
	assert.Len(t, listFiles(t, s.Root()), 1)
}

func TestEndToEndMemo(t *testing.T) {
	ctx := context.Background()
	keyPath := filepath.Join(t.TempDir(), "encryption.key")

	key, created, err := keys.LoadOrGenerate(keyPath)
	require.NoError(t, err)
	require.True(t, created)
	c, err := codec.New(key)
	require.NoError(t, err)

	root := t.TempDir()
	s, err := New(root, c)
	require.NoError(t, err)

	meta := core.Metadata{"timestamp": int64(1700000000), "location": "Unknown", "speaker": "Speaker 1"}
	require.NoError(t, s.Save(ctx, core.KindTranscription, "memo001", "This is an example transcription."))
	require.NoError(t, s.Save(ctx, core.KindMetadata, "memo001", meta))

	// A fresh process loads the same key and reads the records back.
	key2, created, err := keys.LoadOrGenerate(keyPath)
	require.NoError(t, err)
	require.False(t, created)
	c2, err := codec.New(key2)
	require.NoError(t, err)
	s2, err := New(root, c2)
	require.NoError(t, err)

	text, err := s2.Load(ctx, core.KindTranscription, "memo001")
	require.NoError(t, err)
	assert.Equal(t, "This is an example transcription.", text)

	loaded, err := s2.Load(ctx, core.KindMetadata, "memo001")
	require.NoError(t, err)
	assert.True(t, meta.Equal(loaded.(core.Metadata)))
}
