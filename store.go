// Copyright 2026 Lexora Labs
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


// Package lexora is the embedded persistence layer for the Lexora learning
// app: learning progress, study sessions, vocabulary mastery and user
// settings in a local BadgerDB store, with statistics and portable JSON
// backup on top.
package lexora

import (
	"context"
	"log/slog"

	"github.com/lexora-app/lexora/backup"
	"github.com/lexora-app/lexora/core"
	"github.com/lexora-app/lexora/stats"
	"github.com/lexora-app/lexora/storage"
	"github.com/lexora-app/lexora/storage/badger"
)

// DefaultSessionHistoryLimit is how many recent sessions SessionHistory
// returns when the caller does not choose a limit.
const DefaultSessionHistoryLimit = 30

// Store is the top-level handle over the persistence layer. It opens the
// backend, ensures the schema and wires the repositories together.
type Store struct {
	backend    *badger.Backend
	progress   storage.ProgressRepository
	sessions   storage.SessionRepository
	vocabulary storage.VocabularyRepository
	settings   storage.SettingsRepository
	logger     *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	inMemory      bool
	schemaVersion int
	logger        *slog.Logger
}

// WithInMemory opens the store in memory, discarding all data on close.
// Intended for tests.
func WithInMemory() StoreOption {
	return func(o *storeOptions) {
		o.inMemory = true
	}
}

// WithSchemaVersion pins the schema to an older version instead of the
// current one. Intended for upgrade testing.
func WithSchemaVersion(version int) StoreOption {
	return func(o *storeOptions) {
		o.schemaVersion = version
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) StoreOption {
	return func(o *storeOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open opens (creating if necessary) the store at filePath and brings the
// schema to the requested version before returning. The returned Store is
// safe for concurrent use.
func Open(filePath string, opts ...StoreOption) (*Store, error) {
	options := &storeOptions{
		schemaVersion: badger.CurrentSchemaVersion,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}
	if err := backend.EnsureSchema(context.Background(), options.schemaVersion); err != nil {
		backend.Close()
		return nil, err
	}

	return &Store{
		backend:    backend,
		progress:   badger.NewProgressRepository(backend),
		sessions:   badger.NewSessionRepository(backend),
		vocabulary: badger.NewVocabularyRepository(backend),
		settings:   badger.NewSettingsRepository(backend),
		logger:     options.logger,
	}, nil
}

// Close closes the store and its underlying database.
func (s *Store) Close() error {
	if err := s.settings.Close(); err != nil {
		s.logger.Error("error closing settings repository", "err", err)
		return err
	}
	if err := s.vocabulary.Close(); err != nil {
		s.logger.Error("error closing vocabulary repository", "err", err)
		return err
	}
	if err := s.sessions.Close(); err != nil {
		s.logger.Error("error closing session repository", "err", err)
		return err
	}
	if err := s.progress.Close(); err != nil {
		s.logger.Error("error closing progress repository", "err", err)
		return err
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// SchemaVersion returns the persisted schema version.
func (s *Store) SchemaVersion() (int, error) {
	return s.backend.SchemaVersion()
}

// SaveProgress writes or overwrites a progress record.
func (s *Store) SaveProgress(ctx context.Context, record *core.ProgressRecord) error {
	return s.progress.PutProgress(ctx, record)
}

// LatestProgress returns the user's most recently updated progress record.
func (s *Store) LatestProgress(ctx context.Context, userID string) (*core.ProgressRecord, error) {
	return s.progress.GetLatestProgress(ctx, userID)
}

// SaveSessionResult records a completed study session.
func (s *Store) SaveSessionResult(ctx context.Context, result *core.SessionResult) error {
	return s.sessions.PutSessionResult(ctx, result)
}

// SessionHistory returns the user's DefaultSessionHistoryLimit most recent
// sessions, newest first. Use SessionHistoryN to choose the limit.
func (s *Store) SessionHistory(ctx context.Context, userID string) ([]*core.SessionResult, error) {
	return s.sessions.GetSessionHistory(ctx, userID, DefaultSessionHistoryLimit)
}

// SessionHistoryN returns up to limit of the user's most recent sessions,
// newest first.
func (s *Store) SessionHistoryN(ctx context.Context, userID string, limit int) ([]*core.SessionResult, error) {
	return s.sessions.GetSessionHistory(ctx, userID, limit)
}

// SaveVocabularyMastery upserts a user's mastery state for one item.
func (s *Store) SaveVocabularyMastery(ctx context.Context, mastery *core.VocabularyMastery) error {
	return s.vocabulary.PutMastery(ctx, mastery)
}

// VocabularyMastery returns a user's mastery state for one item.
func (s *Store) VocabularyMastery(ctx context.Context, userID, itemID string) (*core.VocabularyMastery, error) {
	return s.vocabulary.GetMastery(ctx, userID, itemID)
}

// VocabularyMasteryByUser returns all of a user's mastery records keyed by
// item id.
func (s *Store) VocabularyMasteryByUser(ctx context.Context, userID string) (map[string]*core.VocabularyMastery, error) {
	return s.vocabulary.GetMasteryByUser(ctx, userID)
}

// SaveSettings replaces a user's settings blob.
func (s *Store) SaveSettings(ctx context.Context, settings *core.UserSettings) error {
	return s.settings.PutSettings(ctx, settings)
}

// Settings returns a user's settings blob.
func (s *Store) Settings(ctx context.Context, userID string) (*core.UserSettings, error) {
	return s.settings.GetSettings(ctx, userID)
}

// ComputeStatistics derives the user's summary statistics.
func (s *Store) ComputeStatistics(ctx context.Context, userID string) (*stats.Statistics, error) {
	return stats.NewAggregator(s.progress, s.sessions, s.logger).ComputeStatistics(ctx, userID)
}

// ClearUser removes all data stored for one user.
func (s *Store) ClearUser(ctx context.Context, userID string) error {
	return s.backend.DeleteUserData(ctx, userID)
}

// ProgressRepository exposes the underlying progress repository.
func (s *Store) ProgressRepository() storage.ProgressRepository {
	return s.progress
}

// SessionRepository exposes the underlying session repository.
func (s *Store) SessionRepository() storage.SessionRepository {
	return s.sessions
}

// VocabularyRepository exposes the underlying vocabulary repository.
func (s *Store) VocabularyRepository() storage.VocabularyRepository {
	return s.vocabulary
}

// SettingsRepository exposes the underlying settings repository.
func (s *Store) SettingsRepository() storage.SettingsRepository {
	return s.settings
}

// NewExporter creates a backup exporter over this store. Exported documents
// carry the store's schema version.
func (s *Store) NewExporter() *backup.Exporter {
	return backup.NewExporter(s.progress, s.sessions, s.vocabulary, s.backend, s.logger)
}

// NewImporter creates a backup importer over this store.
func (s *Store) NewImporter(opts ...backup.ImporterOption) *backup.Importer {
	return backup.NewImporter(s.progress, s.sessions, s.vocabulary, s.backend, opts...)
}

// ExportJSON is a convenience wrapper for one-call backup.
func (s *Store) ExportJSON(ctx context.Context, userID string) ([]byte, error) {
	return s.NewExporter().ExportJSON(ctx, userID)
}

// ImportJSON is a convenience wrapper for one-call restore.
func (s *Store) ImportJSON(ctx context.Context, data []byte) error {
	return s.NewImporter().Import(ctx, data)
}

// Aggregator creates a statistics aggregator over this store.
func (s *Store) Aggregator() *stats.Aggregator {
	return stats.NewAggregator(s.progress, s.sessions, s.logger)
}
