package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/memovault/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptPath(t *testing.T) {
	assert.Equal(t, filepath.Join("memos", "memo001.txt"), TranscriptPath(filepath.Join("memos", "memo001.m4a")))
	assert.Equal(t, "memo001.txt", TranscriptPath("memo001.txt"))
	assert.Equal(t, "memo001.TXT", TranscriptPath("memo001.TXT"))
	assert.Equal(t, "memo001.txt", TranscriptPath("memo001"))
}

func TestSidecarTranscriber(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "memo001.m4a")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "memo001.txt"), []byte("hello there"), 0o600))

	text, err := SidecarTranscriber{}.Transcribe(context.Background(), audio)
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)

	_, err = SidecarTranscriber{}.Transcribe(context.Background(), filepath.Join(dir, "memo002.m4a"))
	assert.ErrorIs(t, err, ErrTranscriptNotFound)
}

func TestSidecarTranscriber_NotRetried(t *testing.T) {
	env := setupTestEnv(t)
	p, err := NewPipeline(env.store, SidecarTranscriber{}, env.extractor, env.provider, WithRetry(5, time.Hour))
	require.NoError(t, err)
	defer p.Release()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err = p.Process(context.Background(), core.Memo{AudioPath: filepath.Join(t.TempDir(), "missing.m4a")})
	}()

	select {
	case <-done:
		assert.ErrorIs(t, err, ErrTranscriptNotFound)
	case <-time.After(5 * time.Second):
		t.Fatal("missing transcript was retried")
	}
}

func TestFileMetadataExtractor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memo001.m4a")
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o600))

	mtime := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	meta, err := FileMetadataExtractor{}.ExtractMetadata(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, core.Metadata{
		core.MetaTimestamp: mtime.Unix(),
		core.MetaLocation:  DefaultLocation,
		core.MetaSpeaker:   DefaultSpeaker,
	}, meta)
}

func TestFileMetadataExtractor_Missing(t *testing.T) {
	_, err := FileMetadataExtractor{}.ExtractMetadata(context.Background(), filepath.Join(t.TempDir(), "nope.m4a"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDiscoverMemos(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.m4a", "a.M4A", "notes.md", ".hidden.m4a", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.m4a"), 0o700))

	memos, err := DiscoverMemos(dir, ".m4a", ".txt")
	require.NoError(t, err)

	var names []string
	for _, m := range memos {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}
