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


package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/lexora-app/lexora/core"
	"github.com/lexora-app/lexora/storage"
)

// Exporter assembles backup documents from the repositories.
type Exporter struct {
	progress   storage.ProgressRepository
	sessions   storage.SessionRepository
	vocabulary storage.VocabularyRepository
	schema     storage.SchemaVersioner
	logger     *slog.Logger
}

// NewExporter creates an Exporter reading from the given repositories. The
// schema versioner stamps the document with the store's schema version at
// export time.
func NewExporter(progress storage.ProgressRepository, sessions storage.SessionRepository,
	vocabulary storage.VocabularyRepository, schema storage.SchemaVersioner, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{progress: progress, sessions: sessions, vocabulary: vocabulary, schema: schema, logger: logger}
}

// Export gathers everything stored for the user into a Document. A user with
// no progress record exports with a null progress field; absent sessions and
// vocabulary export as empty arrays.
func (e *Exporter) Export(ctx context.Context, userID string) (*Document, error) {
	version, err := e.schema.SchemaVersion()
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Sessions:   []SessionDoc{},
		Vocabulary: []VocabularyEntry{},
		ExportDate: time.Now().UTC(),
		Version:    version,
	}

	record, err := e.progress.GetLatestProgress(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if record != nil {
		doc.Progress = newProgressDoc(record)
	}

	sessions, err := e.sessions.GetSessionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, s := range sessions {
		doc.Sessions = append(doc.Sessions, newSessionDoc(s))
	}
	// Session history comes back newest first; the document carries it
	// oldest first so a replay applies in chronological order.
	sort.Slice(doc.Sessions, func(i, j int) bool {
		if doc.Sessions[i].Date.Equal(doc.Sessions[j].Date) {
			return doc.Sessions[i].Id < doc.Sessions[j].Id
		}
		return doc.Sessions[i].Date.Before(doc.Sessions[j].Date)
	})

	masteries, err := e.vocabulary.GetMasteryByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, m := range masteries {
		doc.Vocabulary = append(doc.Vocabulary, newVocabularyEntry(m))
	}
	sort.Slice(doc.Vocabulary, func(i, j int) bool {
		return doc.Vocabulary[i].ItemId < doc.Vocabulary[j].ItemId
	})

	e.logger.Info("exported user data",
		"userId", userID,
		"sessions", len(doc.Sessions),
		"vocabulary", len(doc.Vocabulary),
		"hasProgress", doc.Progress != nil)
	return doc, nil
}

// ExportJSON exports the user's data as an indented JSON document.
func (e *Exporter) ExportJSON(ctx context.Context, userID string) ([]byte, error) {
	doc, err := e.Export(ctx, userID)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Importer replays backup documents through the normal repository write
// paths, so every restored record passes validation and lands with its
// indexes intact.
type Importer struct {
	progress   storage.ProgressRepository
	sessions   storage.SessionRepository
	vocabulary storage.VocabularyRepository
	schema     storage.SchemaVersioner
	poolSize   int
	tracker    *ProgressTracker
	logger     *slog.Logger
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithPoolSize sets the worker pool size for the vocabulary replay.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) ImporterOption {
	return func(i *Importer) {
		if size < 1 {
			size = 1
		}
		i.poolSize = size
	}
}

// WithTracker attaches a progress tracker reporting records applied.
func WithTracker(tracker *ProgressTracker) ImporterOption {
	return func(i *Importer) {
		i.tracker = tracker
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) ImporterOption {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewImporter creates an Importer writing through the given repositories.
// The schema versioner bounds which document versions the importer accepts:
// anything newer than the store's schema is refused.
func NewImporter(progress storage.ProgressRepository, sessions storage.SessionRepository,
	vocabulary storage.VocabularyRepository, schema storage.SchemaVersioner, opts ...ImporterOption) *Importer {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	imp := &Importer{
		progress:   progress,
		sessions:   sessions,
		vocabulary: vocabulary,
		schema:     schema,
		poolSize:   poolSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// Import restores a backup document. The document is parsed and converted in
// full before any write happens, so a malformed document leaves the store
// unchanged and returns storage.ErrMalformedDocument. Progress is applied
// first, then sessions in document order, then vocabulary concurrently. A
// failure after the first applied write returns *storage.PartialImportError
// carrying how many records landed.
func (imp *Importer) Import(ctx context.Context, data []byte) error {
	maxVersion, err := imp.schema.SchemaVersion()
	if err != nil {
		return err
	}
	doc, err := parseDocument(data, maxVersion)
	if err != nil {
		return err
	}

	// Convert everything up front; a single bad entry fails the whole
	// document before any write.
	var progressRecord *core.ProgressRecord
	if doc.Progress != nil {
		progressRecord, err = doc.Progress.toRecord()
		if err != nil {
			return fmt.Errorf("%w: %v", storage.ErrMalformedDocument, err)
		}
	}
	sessionResults := make([]*core.SessionResult, len(doc.Sessions))
	for i := range doc.Sessions {
		sessionResults[i] = doc.Sessions[i].toResult()
	}
	masteries := make([]*core.VocabularyMastery, len(doc.Vocabulary))
	for i := range doc.Vocabulary {
		masteries[i], err = doc.Vocabulary[i].toMastery()
		if err != nil {
			return fmt.Errorf("%w: %v", storage.ErrMalformedDocument, err)
		}
	}

	total := len(sessionResults) + len(masteries)
	if progressRecord != nil {
		total++
	}
	if imp.tracker != nil {
		imp.tracker.Start(total)
		defer imp.tracker.Finish()
	}

	var applied atomic.Int64
	fail := func(err error) error {
		return &storage.PartialImportError{Applied: int(applied.Load()), Err: err}
	}

	if progressRecord != nil {
		if err := imp.progress.PutProgress(ctx, progressRecord); err != nil {
			return fail(err)
		}
		imp.recordApplied(&applied)
	}

	for _, result := range sessionResults {
		if err := imp.sessions.PutSessionResult(ctx, result); err != nil {
			return fail(err)
		}
		imp.recordApplied(&applied)
	}

	if err := imp.replayVocabulary(ctx, masteries, &applied); err != nil {
		return fail(err)
	}

	imp.logger.Info("import complete", "applied", applied.Load())
	return nil
}

// replayVocabulary writes mastery records through a worker pool. Records are
// independent upserts, so replay order does not matter.
func (imp *Importer) replayVocabulary(ctx context.Context, masteries []*core.VocabularyMastery, applied *atomic.Int64) error {
	if len(masteries) == 0 {
		return nil
	}

	pool, err := ants.NewPool(imp.poolSize)
	if err != nil {
		return err
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, mastery := range masteries {
		mastery := mastery
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			mu.Lock()
			failed := firstErr != nil
			mu.Unlock()
			if failed {
				return
			}
			if err := imp.vocabulary.PutMastery(ctx, mastery); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			imp.recordApplied(applied)
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = submitErr
			}
			mu.Unlock()
			break
		}
	}
	wg.Wait()
	return firstErr
}

func (imp *Importer) recordApplied(applied *atomic.Int64) {
	applied.Add(1)
	if imp.tracker != nil {
		imp.tracker.Increment(1)
	}
}

// parseDocument decodes and structurally validates a backup document. The
// version and exportDate fields are required; their absence means the bytes
// are not a backup document at all. Documents stamped with a schema version
// beyond maxVersion come from a newer build and are refused.
func parseDocument(data []byte, maxVersion int) (*Document, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrMalformedDocument, err)
	}
	for _, field := range []string{"version", "exportDate"} {
		if _, ok := probe[field]; !ok {
			return nil, fmt.Errorf("%w: missing %q", storage.ErrMalformedDocument, field)
		}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrMalformedDocument, err)
	}
	if doc.Version < 1 || doc.Version > maxVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", storage.ErrMalformedDocument, doc.Version)
	}
	return &doc, nil
}
