package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/lexora-app/lexora/core"
	"github.com/lexora-app/lexora/storage"
)

// VocabularyRepository implements storage.VocabularyRepository for BadgerDB.
//
// Mastery records are stored under the composite per-user key derived by
// core.VocabularyKey, so the same item id under two users is two records.
type VocabularyRepository struct {
	backend *Backend
}

var _ storage.VocabularyRepository = (*VocabularyRepository)(nil)

// NewVocabularyRepository creates a new VocabularyRepository.
func NewVocabularyRepository(backend *Backend) *VocabularyRepository {
	return &VocabularyRepository{backend: backend}
}

// Close releases repository resources.
func (r *VocabularyRepository) Close() error {
	return nil
}

// PutMastery upserts a user's mastery state for one item, maintaining the
// user, level and mastery-level indexes in the same transaction.
func (r *VocabularyRepository) PutMastery(ctx context.Context, mastery *core.VocabularyMastery) error {
	if err := r.backend.requireSchema(); err != nil {
		return err
	}
	if err := core.ValidateMastery(mastery); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	recordKey := mastery.Key()
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeVocabularyRecordKey(recordKey)

		// Read old state to re-point indexes whose key material changed.
		old, err := r.readMastery(tx, key)
		if err != nil {
			return err
		}

		if err := tx.Set(key, storage.MarshalMastery(mastery)); err != nil {
			return err
		}
		if err := tx.Set(makeVocabularyUserKey(mastery.UserId, recordKey), []byte(recordKey)); err != nil {
			return err
		}

		if old != nil && old.Level != mastery.Level {
			if err := tx.Delete(makeVocabularyLevelKey(old.UserId, old.Level, recordKey)); err != nil {
				return err
			}
		}
		if err := tx.Set(makeVocabularyLevelKey(mastery.UserId, mastery.Level, recordKey), []byte(recordKey)); err != nil {
			return err
		}

		if old != nil && old.MasteryLevel != mastery.MasteryLevel {
			if err := tx.Delete(makeVocabularyMasteryKey(old.UserId, old.MasteryLevel, recordKey)); err != nil {
				return err
			}
		}
		if err := tx.Set(makeVocabularyMasteryKey(mastery.UserId, mastery.MasteryLevel, recordKey), []byte(recordKey)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetMastery retrieves a user's mastery state for one item.
func (r *VocabularyRepository) GetMastery(ctx context.Context, userID, itemID string) (*core.VocabularyMastery, error) {
	if err := r.backend.requireSchema(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result *core.VocabularyMastery
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readMastery(tx, makeVocabularyRecordKey(core.VocabularyKey(userID, itemID)))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetMasteryByUser returns all of a user's mastery records keyed by item id.
func (r *VocabularyRepository) GetMasteryByUser(ctx context.Context, userID string) (map[string]*core.VocabularyMastery, error) {
	if err := r.backend.requireSchema(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make(map[string]*core.VocabularyMastery)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return r.indexScan(tx, makePartialVocabularyUserKey(userID), func(m *core.VocabularyMastery) {
			results[m.ItemId] = m
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetMasteryByLevel returns the user's records for items at the given
// difficulty level.
func (r *VocabularyRepository) GetMasteryByLevel(ctx context.Context, userID string, level core.Level) ([]*core.VocabularyMastery, error) {
	if err := r.backend.requireSchema(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []*core.VocabularyMastery
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return r.indexScan(tx, makePartialVocabularyLevelKey(userID, level), func(m *core.VocabularyMastery) {
			results = append(results, m)
		})
	}, false)
	return results, err
}

// GetMasteryByMasteryLevel returns the user's records at the given mastery
// level.
func (r *VocabularyRepository) GetMasteryByMasteryLevel(ctx context.Context, userID string, masteryLevel int) ([]*core.VocabularyMastery, error) {
	if err := r.backend.requireSchema(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []*core.VocabularyMastery
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return r.indexScan(tx, makePartialVocabularyMasteryKey(userID, masteryLevel), func(m *core.VocabularyMastery) {
			results = append(results, m)
		})
	}, false)
	return results, err
}

// indexScan walks one vocabulary index prefix and invokes fn with each
// referenced record.
func (r *VocabularyRepository) indexScan(tx *badger.Txn, prefix []byte, fn func(*core.VocabularyMastery)) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var recordKey string
		if err := iter.Item().Value(func(val []byte) error {
			recordKey = string(val)
			return nil
		}); err != nil {
			return err
		}

		record, err := r.readMastery(tx, makeVocabularyRecordKey(recordKey))
		if err != nil {
			return err
		}
		if record != nil {
			fn(record)
		}
	}
	return nil
}

// readMastery reads a mastery record from the transaction. A missing key
// yields (nil, nil).
func (r *VocabularyRepository) readMastery(tx *badger.Txn, key []byte) (*core.VocabularyMastery, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.VocabularyMastery
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalMastery(val)
		return unmarshalErr
	})
	return record, err
}
