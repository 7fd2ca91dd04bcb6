package storage

import (
	"context"
	"time"

	"github.com/lexora-app/lexora/core"
)

// SchemaVersioner reports the persisted schema version of a store. The
// backup document carries it, so the exporter and importer both need one.
type SchemaVersioner interface {
	SchemaVersion() (int, error)
}

// ProgressRepository provides operations on the learningProgress collection.
// Implementations must be thread-safe; every operation runs in its own
// transaction.
type ProgressRepository interface {
	// PutProgress writes or overwrites a progress record by its id and
	// maintains the secondary indexes in the same transaction.
	PutProgress(ctx context.Context, record *core.ProgressRecord) error

	// GetProgress retrieves a single progress record by id.
	// Returns ErrNotFound if the record doesn't exist.
	GetProgress(ctx context.Context, id string) (*core.ProgressRecord, error)

	// GetLatestProgress returns the user's record with the maximum
	// UpdatedAt; ties break toward the lexicographically largest id.
	// Returns ErrNotFound if the user has no records.
	GetLatestProgress(ctx context.Context, userID string) (*core.ProgressRecord, error)

	// GetProgressByUser returns all of a user's progress records, in no
	// particular order. Missing user yields an empty slice, not an error.
	GetProgressByUser(ctx context.Context, userID string) ([]*core.ProgressRecord, error)

	// GetProgressByScoreRange returns records with min <= ToeicScore <= max
	// via the score index, ordered by score ascending.
	GetProgressByScoreRange(ctx context.Context, min, max int) ([]*core.ProgressRecord, error)

	// Close releases repository resources.
	Close() error
}

// SessionRepository provides operations on the sessionResults collection.
type SessionRepository interface {
	// PutSessionResult inserts or overwrites a session result by session
	// id. A duplicate id is an accepted idempotent retry.
	PutSessionResult(ctx context.Context, result *core.SessionResult) error

	// GetSessionResult retrieves a single session result by id.
	// Returns ErrNotFound if the record doesn't exist.
	GetSessionResult(ctx context.Context, id string) (*core.SessionResult, error)

	// GetSessionHistory returns up to limit of the user's sessions, most
	// recent date first. limit <= 0 yields an empty slice.
	GetSessionHistory(ctx context.Context, userID string, limit int) ([]*core.SessionResult, error)

	// GetSessionsByUser returns the user's full session history, most
	// recent date first.
	GetSessionsByUser(ctx context.Context, userID string) ([]*core.SessionResult, error)

	// GetSessionsByDateRange returns sessions across all users where
	// start <= Date < end, ordered by date ascending.
	GetSessionsByDateRange(ctx context.Context, start, end time.Time) ([]*core.SessionResult, error)

	// Close releases repository resources.
	Close() error
}

// VocabularyRepository provides operations on the vocabularyData collection.
// Mastery records are keyed per user: the same item id under two users is
// two records.
type VocabularyRepository interface {
	// PutMastery upserts a user's mastery state for one item.
	PutMastery(ctx context.Context, mastery *core.VocabularyMastery) error

	// GetMastery retrieves a user's mastery state for one item.
	// Returns ErrNotFound if the user has never seen the item.
	GetMastery(ctx context.Context, userID, itemID string) (*core.VocabularyMastery, error)

	// GetMasteryByUser returns all of a user's mastery records keyed by
	// item id.
	GetMasteryByUser(ctx context.Context, userID string) (map[string]*core.VocabularyMastery, error)

	// GetMasteryByLevel returns the user's records for items at the given
	// difficulty level.
	GetMasteryByLevel(ctx context.Context, userID string, level core.Level) ([]*core.VocabularyMastery, error)

	// GetMasteryByMasteryLevel returns the user's records at the given
	// mastery level (0..core.MaxMasteryLevel).
	GetMasteryByMasteryLevel(ctx context.Context, userID string, masteryLevel int) ([]*core.VocabularyMastery, error)

	// Close releases repository resources.
	Close() error
}

// SettingsRepository provides operations on the userSettings collection.
type SettingsRepository interface {
	// PutSettings overwrites the user's settings blob.
	PutSettings(ctx context.Context, settings *core.UserSettings) error

	// GetSettings retrieves the user's settings blob.
	// Returns ErrNotFound if the user has never written settings.
	GetSettings(ctx context.Context, userID string) (*core.UserSettings, error)

	// Close releases repository resources.
	Close() error
}
