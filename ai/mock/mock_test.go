package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/memovault/ai"
	"github.com/poiesic/memovault/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ai.Transcriber       = (*MockTranscriber)(nil)
	_ ai.MetadataExtractor = (*MockMetadataExtractor)(nil)
	_ ai.Summarizer        = (*MockSummarizer)(nil)
	_ ai.AIProvider        = (*MockProvider)(nil)
)

func TestMockSummarizer_Default(t *testing.T) {
	m := NewMockSummarizer()

	got, err := m.Summarize(context.Background(), " First point. Second point. ")
	require.NoError(t, err)
	assert.Equal(t, "First point.", got)

	got, err = m.Summarize(context.Background(), "no terminator")
	require.NoError(t, err)
	assert.Equal(t, "no terminator", got)

	assert.Equal(t, 2, m.CallCount())
	m.Reset()
	assert.Zero(t, m.CallCount())
}

func TestMockSummarizer_Func(t *testing.T) {
	m := NewMockSummarizer()
	m.SummarizeFunc = func(ctx context.Context, text string) (string, error) {
		return "", errors.New("offline")
	}

	_, err := m.Summarize(context.Background(), "x")
	assert.EqualError(t, err, "offline")
}

func TestMockTranscriber(t *testing.T) {
	m := NewMockTranscriber()

	got, err := m.Transcribe(context.Background(), "/memos/memo001.m4a")
	require.NoError(t, err)
	assert.Equal(t, "transcript of memo001.m4a", got)
	assert.Equal(t, 1, m.CallCount())
}

func TestMockMetadataExtractor(t *testing.T) {
	m := NewMockMetadataExtractor()

	meta, err := m.ExtractMetadata(context.Background(), "memo001.m4a")
	require.NoError(t, err)
	assert.NoError(t, core.ValidateMetadata(meta))
	assert.Equal(t, "Speaker 1", meta.String(core.MetaSpeaker))
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider().(*MockProvider)
	assert.Same(t, p.GetMockSummarizer(), p.Summarizer())

	require.NoError(t, p.Close())
	assert.True(t, p.Closed())
}
