package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/memovault/ai"
	"github.com/poiesic/memovault/core"
)

const (
	// DefaultLocation is recorded when a recording carries no location.
	DefaultLocation = "Unknown"

	// DefaultSpeaker is recorded when the speaker is not identified.
	DefaultSpeaker = "Speaker 1"

	transcriptExt = ".txt"
)

// SidecarTranscriber reads transcripts produced by an external
// speech-to-text tool. For a recording "memo001.m4a" it reads
// "memo001.txt" from the same directory; a path that already ends in
// ".txt" is read directly.
type SidecarTranscriber struct{}

var _ ai.Transcriber = SidecarTranscriber{}

// Transcribe returns the contents of the transcript next to audioPath.
func (SidecarTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := TranscriptPath(audioPath)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrTranscriptNotFound, filepath.Base(path))
		}
		return "", err
	}
	return string(data), nil
}

// TranscriptPath returns where SidecarTranscriber looks for the transcript
// of audioPath.
func TranscriptPath(audioPath string) string {
	ext := filepath.Ext(audioPath)
	if strings.EqualFold(ext, transcriptExt) {
		return audioPath
	}
	return strings.TrimSuffix(audioPath, ext) + transcriptExt
}

// FileMetadataExtractor derives metadata from the recording's file system
// attributes: the modification time as a Unix timestamp, with placeholder
// location and speaker values.
type FileMetadataExtractor struct{}

var _ ai.MetadataExtractor = FileMetadataExtractor{}

// ExtractMetadata stats audioPath and returns its metadata.
func (FileMetadataExtractor) ExtractMetadata(ctx context.Context, audioPath string) (core.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("metadata extraction failed for %s: %w", filepath.Base(audioPath), err)
	}
	return core.Metadata{
		core.MetaTimestamp: info.ModTime().Unix(),
		core.MetaLocation:  DefaultLocation,
		core.MetaSpeaker:   DefaultSpeaker,
	}, nil
}

// DiscoverMemos lists the recordings in dir whose extension is in exts
// (case-insensitive, with leading dot), sorted by name. Hidden files and
// subdirectories are ignored.
func DiscoverMemos(dir string, exts ...string) ([]core.Memo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var memos []core.Memo
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if !matchesExt(ext, exts) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		memos = append(memos, core.Memo{
			Name:      core.NameFromPath(path),
			AudioPath: path,
		})
	}
	return memos, nil
}

func matchesExt(ext string, exts []string) bool {
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
