package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/lexora-app/lexora/core"
	"github.com/lexora-app/lexora/storage"
)

// SettingsRepository implements storage.SettingsRepository for BadgerDB.
// One record per user, keyed by user id.
type SettingsRepository struct {
	backend *Backend
}

var _ storage.SettingsRepository = (*SettingsRepository)(nil)

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(backend *Backend) *SettingsRepository {
	return &SettingsRepository{backend: backend}
}

// Close releases repository resources.
func (r *SettingsRepository) Close() error {
	return nil
}

// PutSettings writes or replaces the user's settings record. UpdatedAt is
// stamped on write.
func (r *SettingsRepository) PutSettings(ctx context.Context, settings *core.UserSettings) error {
	if err := r.backend.requireSchema(); err != nil {
		return err
	}
	if !r.backend.schemaAtLeast(2) {
		return storage.ErrNotInitialized
	}
	if err := core.ValidateSettings(settings); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	settings.UpdatedAt = time.Now().UTC()
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeSettingsKey(settings.UserId), storage.MarshalSettings(settings)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetSettings retrieves the user's settings record.
func (r *SettingsRepository) GetSettings(ctx context.Context, userID string) (*core.UserSettings, error) {
	if err := r.backend.requireSchema(); err != nil {
		return nil, err
	}
	if !r.backend.schemaAtLeast(2) {
		return nil, storage.ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result *core.UserSettings
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSettingsKey(userID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalSettings(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}
