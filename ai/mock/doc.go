// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Transcriber,
// ai.MetadataExtractor, ai.Summarizer and ai.AIProvider for use in unit tests.
// The mocks allow tests to run without external AI service dependencies and
// enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	summarizer := mock.NewMockSummarizer()
//	summary, err := summarizer.Summarize(ctx, "test")
//
//	// Custom behavior injection
//	summarizer.SummarizeFunc = func(ctx context.Context, text string) (string, error) {
//	    return "", errors.New("model offline")
//	}
//
//	// Check call counts
//	count := summarizer.CallCount()
//
// # Default Behavior
//
//   - MockTranscriber: Returns "transcript of <base name>"
//   - MockMetadataExtractor: Returns timestamp 0, location "Unknown", speaker "Speaker 1"
//   - MockSummarizer: Returns the first sentence of the text
//   - MockProvider: Aggregates a mock summarizer
//
// All mocks are safe for concurrent use.
package mock
