package mock

import (
	"context"
	"strings"
	"sync"
)

// MockSummarizer is a test double for ai.Summarizer.
// It allows custom behavior injection via function fields.
type MockSummarizer struct {
	// SummarizeFunc is called by Summarize if set.
	// If nil, uses default deterministic behavior.
	SummarizeFunc func(ctx context.Context, text string) (string, error)

	mu        sync.Mutex
	callCount int
}

// NewMockSummarizer creates a mock summarizer with default deterministic behavior.
func NewMockSummarizer() *MockSummarizer {
	return &MockSummarizer{}
}

// Summarize returns the first sentence of text.
func (m *MockSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	m.mu.Lock()
	m.callCount++
	fn := m.SummarizeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}

	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, ".!?"); i >= 0 {
		return text[:i+1], nil
	}
	return text, nil
}

// CallCount returns the number of times Summarize was called.
func (m *MockSummarizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom behavior.
func (m *MockSummarizer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.SummarizeFunc = nil
}
