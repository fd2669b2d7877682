package mock

import (
	"context"
	"sync"

	"github.com/poiesic/memovault/core"
)

// MockMetadataExtractor is a test double for ai.MetadataExtractor.
// It allows custom behavior injection via function fields.
type MockMetadataExtractor struct {
	// ExtractMetadataFunc is called by ExtractMetadata if set.
	// If nil, uses default deterministic behavior.
	ExtractMetadataFunc func(ctx context.Context, audioPath string) (core.Metadata, error)

	mu        sync.Mutex
	callCount int
}

// NewMockMetadataExtractor creates a mock extractor with default deterministic behavior.
func NewMockMetadataExtractor() *MockMetadataExtractor {
	return &MockMetadataExtractor{}
}

// ExtractMetadata returns fixed placeholder metadata.
func (m *MockMetadataExtractor) ExtractMetadata(ctx context.Context, audioPath string) (core.Metadata, error) {
	m.mu.Lock()
	m.callCount++
	fn := m.ExtractMetadataFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, audioPath)
	}
	return core.Metadata{
		core.MetaTimestamp: int64(0),
		core.MetaLocation:  "Unknown",
		core.MetaSpeaker:   "Speaker 1",
	}, nil
}

// CallCount returns the number of times ExtractMetadata was called.
func (m *MockMetadataExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom behavior.
func (m *MockMetadataExtractor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.ExtractMetadataFunc = nil
}
