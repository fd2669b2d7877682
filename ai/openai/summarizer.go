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


package openai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/memovault/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

var (
	// ErrEmptyInput is returned when there is nothing to summarize.
	ErrEmptyInput = errors.New("nothing to summarize")

	// ErrEmptyResponse is returned when the model produces no usable summary.
	ErrEmptyResponse = errors.New("model returned an empty summary")
)

// Summarizer implements ai.Summarizer using OpenAI-compatible chat APIs.
type Summarizer struct {
	client      llms.Model
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

var _ ai.Summarizer = (*Summarizer)(nil)

// newSummarizer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newSummarizer(config *ai.Config) (*Summarizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	return newSummarizerWithModel(client, config), nil
}

func newSummarizerWithModel(client llms.Model, config *ai.Config) *Summarizer {
	return &Summarizer{
		client:      client,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		logger:      slog.Default().With("component", "openai-summarizer"),
	}
}

// NewSummarizer creates a new summarizer using the provided configuration.
//
// Returns ai.Summarizer interface to enforce abstraction.
func NewSummarizer(config *ai.Config) (ai.Summarizer, error) {
	return newSummarizer(config)
}

// Summarize asks the model for a summary of text.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	text = scrubString(text)
	if text == "" {
		return "", ErrEmptyInput
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(summarySystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(buildUserPrompt(text)),
			},
		},
	}

	response, err := s.client.GenerateContent(ctx, content,
		llms.WithTemperature(s.temperature),
		llms.WithMaxTokens(s.maxTokens),
	)
	if err != nil {
		// Never log the transcript; it may be sensitive.
		s.logger.Error("failed to generate summary", "chars", len(text), "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		s.logger.Debug("no choices returned from model")
		return "", ErrEmptyResponse
	}

	summary := cleanSummary(response.Choices[0].Content)
	if summary == "" {
		return "", ErrEmptyResponse
	}

	s.logger.Debug("generated summary", "input_chars", len(text), "summary_chars", len(summary))
	return summary, nil
}
