package badger

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/lexora-app/lexora/core"
	"github.com/lexora-app/lexora/storage"
)

// ProgressRepository implements storage.ProgressRepository for BadgerDB.
type ProgressRepository struct {
	backend *Backend
}

var _ storage.ProgressRepository = (*ProgressRepository)(nil)

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(backend *Backend) *ProgressRepository {
	return &ProgressRepository{backend: backend}
}

// Close releases repository resources.
func (r *ProgressRepository) Close() error {
	return nil
}

// PutProgress writes or overwrites a progress record and its index entries
// in one transaction.
func (r *ProgressRepository) PutProgress(ctx context.Context, record *core.ProgressRecord) error {
	if err := r.backend.requireSchema(); err != nil {
		return err
	}
	if err := core.ValidateProgressRecord(record); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeProgressKey(record.Id)

		// Read old record to re-point the user and score indexes on
		// overwrite.
		old, err := r.readProgress(tx, key)
		if err != nil {
			return err
		}

		if err := tx.Set(key, storage.MarshalProgressRecord(record)); err != nil {
			return err
		}
		if old != nil && old.UserId != record.UserId {
			if err := tx.Delete(makeProgressUserKey(old.UserId, old.Id)); err != nil {
				return err
			}
		}
		if err := tx.Set(makeProgressUserKey(record.UserId, record.Id), []byte(record.Id)); err != nil {
			return err
		}

		if r.backend.schemaAtLeast(3) {
			if old != nil && old.ToeicScore != record.ToeicScore {
				if err := tx.Delete(makeProgressScoreKey(old.ToeicScore, old.Id)); err != nil {
					return err
				}
			}
			if err := tx.Set(makeProgressScoreKey(record.ToeicScore, record.Id), []byte(record.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetProgress retrieves a single progress record by id.
func (r *ProgressRepository) GetProgress(ctx context.Context, id string) (*core.ProgressRecord, error) {
	if err := r.backend.requireSchema(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result *core.ProgressRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readProgress(tx, makeProgressKey(id))
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

// GetLatestProgress returns the user's record with the maximum UpdatedAt.
// Equal timestamps break toward the lexicographically largest id, so the
// result is deterministic.
func (r *ProgressRepository) GetLatestProgress(ctx context.Context, userID string) (*core.ProgressRecord, error) {
	records, err := r.GetProgressByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, storage.ErrNotFound
	}

	latest := records[0]
	for _, record := range records[1:] {
		if record.UpdatedAt.After(latest.UpdatedAt) ||
			(record.UpdatedAt.Equal(latest.UpdatedAt) && record.Id > latest.Id) {
			latest = record
		}
	}
	return latest, nil
}

// GetProgressByUser returns all of a user's progress records via the userId
// index.
func (r *ProgressRepository) GetProgressByUser(ctx context.Context, userID string) ([]*core.ProgressRecord, error) {
	if err := r.backend.requireSchema(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []*core.ProgressRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialProgressUserKey(userID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var recordID string
			if err := iter.Item().Value(func(val []byte) error {
				recordID = string(val)
				return nil
			}); err != nil {
				return err
			}

			record, err := r.readProgress(tx, makeProgressKey(recordID))
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetProgressByScoreRange returns records with min <= ToeicScore <= max via
// the score index, ordered by score ascending. Requires schema v3.
func (r *ProgressRepository) GetProgressByScoreRange(ctx context.Context, min, max int) ([]*core.ProgressRecord, error) {
	if err := r.backend.requireSchema(); err != nil {
		return nil, err
	}
	if !r.backend.schemaAtLeast(3) {
		return nil, storage.ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if max < min {
		return nil, nil
	}

	var results []*core.ProgressRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialProgressScoreKey(min)
		endKey := makePartialProgressScoreKey(max + 1)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if slices.Compare(key, endKey) >= 0 {
				break
			}

			var recordID string
			if err := iter.Item().Value(func(val []byte) error {
				recordID = string(val)
				return nil
			}); err != nil {
				return err
			}

			record, err := r.readProgress(tx, makeProgressKey(recordID))
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	return results, err
}

// readProgress reads a progress record from the transaction. A missing key
// yields (nil, nil).
func (r *ProgressRepository) readProgress(tx *badger.Txn, key []byte) (*core.ProgressRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.ProgressRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalProgressRecord(val)
		return unmarshalErr
	})
	return record, err
}
