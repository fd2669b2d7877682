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


package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/memovault/ai"
	"github.com/poiesic/memovault/core"
	"github.com/poiesic/memovault/storage"
)

const (
	// WelcomeMessage is the reply to /start and /help.
	WelcomeMessage = "Welcome to your Voice Memo AI Assistant. You can ask me about your voice memos or request summaries of them."

	// ApologyMessage is the reply whenever a query cannot be answered.
	ApologyMessage = "Sorry, I couldn't process your request. Please try again later."

	// SilentMemoMessage is the reply when the latest memo has no speech.
	SilentMemoMessage = "Your latest voice memo has no recorded speech."

	summaryReplyPrefix = "Summary of your latest voice memo: "
)

// Responder turns chat messages into replies.
// A Responder is safe for concurrent use.
type Responder struct {
	store       storage.RecordStore
	checkpoints storage.CheckpointRepository
	summarizer  ai.Summarizer
	logger      *slog.Logger
}

// Option configures a Responder.
type Option func(*Responder) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Responder) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger.With("component", "chat")
		return nil
	}
}

// NewResponder creates a Responder. checkpoints identifies the latest fully
// processed memo; summarizer is used when that memo has no stored summary.
func NewResponder(
	store storage.RecordStore,
	checkpoints storage.CheckpointRepository,
	summarizer ai.Summarizer,
	opts ...Option,
) (*Responder, error) {
	if store == nil {
		return nil, ErrRecordStoreRequired
	}
	if checkpoints == nil {
		return nil, ErrCheckpointsRequired
	}
	if summarizer == nil {
		return nil, ErrSummarizerRequired
	}

	r := &Responder{
		store:       store,
		checkpoints: checkpoints,
		summarizer:  summarizer,
		logger:      slog.Default().With("component", "chat"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Respond returns the reply to message. It never fails; errors are logged
// and answered with ApologyMessage.
func (r *Responder) Respond(ctx context.Context, message string) string {
	switch command(message) {
	case "start", "help":
		return WelcomeMessage
	}

	name, summary, err := r.latestSummary(ctx)
	if err != nil {
		r.logger.Error("error answering query",
			"name", name,
			"class", core.Classify(err),
			"err", err)
		return ApologyMessage
	}
	r.logger.Debug("answered query", "name", name)
	if strings.TrimSpace(summary) == "" {
		return SilentMemoMessage
	}
	return summaryReplyPrefix + summary
}

func (r *Responder) latestSummary(ctx context.Context) (string, string, error) {
	name, err := r.checkpoints.Latest(ctx)
	if err != nil {
		return "", "", fmt.Errorf("find latest memo: %w", err)
	}

	stored, err := r.store.Load(ctx, core.KindSummary, name)
	switch {
	case err == nil:
		return name, stored.(string), nil
	case !errors.Is(err, storage.ErrNotFound):
		return name, "", err
	}

	v, err := r.store.Load(ctx, core.KindTranscription, name)
	if err != nil {
		return name, "", err
	}
	summary, err := r.summarizer.Summarize(ctx, v.(string))
	if err != nil {
		return name, "", fmt.Errorf("summarize %s: %w", name, err)
	}
	return name, summary, nil
}

// command returns the lowercased command name of a "/command" message,
// ignoring arguments and a "@botname" suffix. It returns "" for anything
// that is not a command.
func command(message string) string {
	fields := strings.Fields(message)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd)
}
