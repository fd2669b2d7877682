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


// Package memovault wires the encrypted record store, its key, the event
// journal and pipeline checkpoints into a single Vault.
package memovault

import (
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/poiesic/memovault/ai"
	"github.com/poiesic/memovault/ai/openai"
	"github.com/poiesic/memovault/chat"
	"github.com/poiesic/memovault/codec"
	"github.com/poiesic/memovault/ingestion"
	"github.com/poiesic/memovault/keys"
	"github.com/poiesic/memovault/storage"
	"github.com/poiesic/memovault/storage/badger"
	"github.com/poiesic/memovault/storage/filestore"
)

const (
	// DefaultKeyFile is the key file name used when no key path is given.
	// It lives in the vault root.
	DefaultKeyFile = ".memovault.key"

	// JournalDir is the directory under the vault root holding the event
	// journal and pipeline checkpoints.
	JournalDir = ".journal"
)

type Vault struct {
	root        string
	fingerprint string
	store       *filestore.Store
	backend     *badger.Backend
	events      storage.EventRepository
	checkpoints *badger.CheckpointRepository
	provider    ai.AIProvider
	logger      *slog.Logger
}

// VaultOption configures a Vault.
type VaultOption func(*vaultOptions)

type vaultOptions struct {
	keyFile     string
	generateKey bool
	aiConfig    *ai.Config
	provider    ai.AIProvider
	logger      *slog.Logger
}

// WithKeyFile sets the key file path. Default is DefaultKeyFile in the root.
func WithKeyFile(path string) VaultOption {
	return func(o *vaultOptions) {
		o.keyFile = path
	}
}

// WithGenerateKey creates and persists a key if the key file is missing.
// Without it, opening a vault with no key fails with core.ErrKeyNotFound.
func WithGenerateKey() VaultOption {
	return func(o *vaultOptions) {
		o.generateKey = true
	}
}

// WithAIConfig sets the summarization endpoint configuration.
func WithAIConfig(config *ai.Config) VaultOption {
	return func(o *vaultOptions) {
		o.aiConfig = config
	}
}

// WithAIProvider uses provider instead of building one from the AI config.
// The vault takes ownership and closes it.
func WithAIProvider(provider ai.AIProvider) VaultOption {
	return func(o *vaultOptions) {
		o.provider = provider
	}
}

// WithLogger sets a custom logger for the vault and its store.
func WithLogger(logger *slog.Logger) VaultOption {
	return func(o *vaultOptions) {
		o.logger = logger
	}
}

// Open opens the vault rooted at root, creating its directories as needed.
func Open(root string, opts ...VaultOption) (*Vault, error) {
	options := &vaultOptions{
		keyFile:  filepath.Join(root, DefaultKeyFile),
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger.With("component", "vault")

	// Load key
	var key keys.Key
	var err error
	if options.generateKey {
		var created bool
		key, created, err = keys.LoadOrGenerate(options.keyFile)
		if created {
			logger.Info("generated new encryption key", "path", options.keyFile, "fingerprint", keys.Fingerprint(key))
		}
	} else {
		key, err = keys.Load(options.keyFile)
	}
	if err != nil {
		return nil, err
	}

	c, err := codec.New(key)
	if err != nil {
		return nil, err
	}

	// Open journal
	backend, err := badger.OpenBackend(filepath.Join(root, JournalDir), false)
	if err != nil {
		return nil, err
	}

	events, err := badger.NewEventRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	store, err := filestore.New(root, c,
		filestore.WithRecorder(events),
		filestore.WithLogger(options.logger))
	if err != nil {
		events.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			events.Close()
			backend.Close()
			return nil, err
		}
	}

	v := &Vault{
		root:        root,
		fingerprint: keys.Fingerprint(key),
		store:       store,
		backend:     backend,
		events:      events,
		checkpoints: badger.NewCheckpointRepository(backend),
		provider:    provider,
		logger:      logger,
	}
	logger.Debug("vault opened", "root", root, "fingerprint", v.fingerprint)
	return v, nil
}

func (v *Vault) Close() error {
	// Close AI provider first
	if err := v.provider.Close(); err != nil {
		v.logger.Error("error closing AI provider", "err", err)
	}

	// The backend is closed even when the repository fails so the journal
	// lock is released.
	eventsErr := v.events.Close()
	if eventsErr != nil {
		v.logger.Error("error closing event repository", "err", eventsErr)
	}

	backendErr := v.backend.Close()
	if backendErr != nil {
		v.logger.Error("error closing journal", "err", backendErr)
	}
	return errors.Join(eventsErr, backendErr)
}

// Root returns the vault's root directory.
func (v *Vault) Root() string {
	return v.root
}

// KeyFingerprint identifies the vault key without revealing it.
func (v *Vault) KeyFingerprint() string {
	return v.fingerprint
}

func (v *Vault) Store() *filestore.Store {
	return v.store
}

func (v *Vault) Events() storage.EventRepository {
	return v.events
}

func (v *Vault) Checkpoints() storage.CheckpointRepository {
	return v.checkpoints
}

// NewIngestionPipeline creates a pipeline that stores into the vault and
// resumes from its checkpoints.
func (v *Vault) NewIngestionPipeline(transcriber ai.Transcriber, extractor ai.MetadataExtractor, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{ingestion.WithCheckpoints(v.checkpoints)}, opts...)
	return ingestion.NewPipeline(v.store, transcriber, extractor, v.provider, opts...)
}

// NewResponder creates a chat responder over the vault's records.
func (v *Vault) NewResponder(opts ...chat.Option) (*chat.Responder, error) {
	return chat.NewResponder(v.store, v.checkpoints, v.provider.Summarizer(), opts...)
}
