package mock

import (
	"context"
	"path/filepath"
	"sync"
)

// MockTranscriber is a test double for ai.Transcriber.
// It allows custom behavior injection via function fields.
type MockTranscriber struct {
	// TranscribeFunc is called by Transcribe if set.
	// If nil, uses default deterministic behavior.
	TranscribeFunc func(ctx context.Context, audioPath string) (string, error)

	mu        sync.Mutex
	callCount int
}

// NewMockTranscriber creates a mock transcriber with default deterministic behavior.
func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{}
}

// Transcribe returns a transcript derived from the file name.
func (m *MockTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	m.mu.Lock()
	m.callCount++
	fn := m.TranscribeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, audioPath)
	}
	return "transcript of " + filepath.Base(audioPath), nil
}

// CallCount returns the number of times Transcribe was called.
func (m *MockTranscriber) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom behavior.
func (m *MockTranscriber) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.TranscribeFunc = nil
}
