package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/lexora-app/lexora/core"
	"github.com/lexora-app/lexora/storage"
)

// SessionRepository implements storage.SessionRepository for BadgerDB.
type SessionRepository struct {
	backend *Backend
}

var _ storage.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(backend *Backend) *SessionRepository {
	return &SessionRepository{backend: backend}
}

// Close releases repository resources.
func (r *SessionRepository) Close() error {
	return nil
}

// PutSessionResult inserts or overwrites a session result by session id.
// Session results are immutable in the application; an overwrite is an
// idempotent retry of the same session, but the indexes are re-pointed
// anyway in case the payload differs.
func (r *SessionRepository) PutSessionResult(ctx context.Context, result *core.SessionResult) error {
	if err := r.backend.requireSchema(); err != nil {
		return err
	}
	if err := core.ValidateSessionResult(result); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSessionKey(result.Id)

		old, err := r.readSession(tx, key)
		if err != nil {
			return err
		}

		if err := tx.Set(key, storage.MarshalSessionResult(result)); err != nil {
			return err
		}

		// Drop index entries the new payload no longer covers before
		// writing the new ones.
		if old != nil {
			if old.UserId != result.UserId {
				if err := tx.Delete(makeSessionUserKey(old.UserId, old.Id)); err != nil {
					return err
				}
			}
			if old.UserId != result.UserId || !old.Date.Equal(result.Date) {
				if err := tx.Delete(makeSessionDateKey(old.UserId, old.Date, old.Id)); err != nil {
					return err
				}
			}
			if !old.Date.Equal(result.Date) {
				if err := tx.Delete(makeSessionTimeKey(old.Date, old.Id)); err != nil {
					return err
				}
			}
		}

		if err := tx.Set(makeSessionUserKey(result.UserId, result.Id), []byte(result.Id)); err != nil {
			return err
		}
		if err := tx.Set(makeSessionDateKey(result.UserId, result.Date, result.Id), []byte(result.Id)); err != nil {
			return err
		}
		if err := tx.Set(makeSessionTimeKey(result.Date, result.Id), []byte(result.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetSessionResult retrieves a single session result by id.
func (r *SessionRepository) GetSessionResult(ctx context.Context, id string) (*core.SessionResult, error) {
	if err := r.backend.requireSchema(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result *core.SessionResult
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readSession(tx, makeSessionKey(id))
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

// GetSessionHistory returns up to limit of the user's sessions, most recent
// date first. limit <= 0 yields an empty slice.
func (r *SessionRepository) GetSessionHistory(ctx context.Context, userID string, limit int) ([]*core.SessionResult, error) {
	if limit <= 0 {
		return []*core.SessionResult{}, nil
	}
	return r.historyScan(ctx, userID, limit)
}

// GetSessionsByUser returns the user's full session history, most recent
// date first.
func (r *SessionRepository) GetSessionsByUser(ctx context.Context, userID string) ([]*core.SessionResult, error) {
	return r.historyScan(ctx, userID, -1)
}

// historyScan walks the per-user date index backwards in time. limit < 0
// means unbounded.
func (r *SessionRepository) historyScan(ctx context.Context, userID string, limit int) ([]*core.SessionResult, error) {
	if err := r.backend.requireSchema(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []*core.SessionResult
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the newest possible entry for this user, then walk
		// backwards while keys stay inside the user's date index.
		startKey := makePartialSessionDateKey(userID,
			time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC))
		prefix := []byte(sessionDatePrefix + ":" + userID + ":")

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			if limit >= 0 && len(results) >= limit {
				break
			}
			key := iter.Item().Key()
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			var sessionID string
			if err := iter.Item().Value(func(val []byte) error {
				sessionID = string(val)
				return nil
			}); err != nil {
				return err
			}

			session, err := r.readSession(tx, makeSessionKey(sessionID))
			if err != nil {
				return err
			}
			if session != nil {
				results = append(results, session)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetSessionsByDateRange returns sessions across all users where
// start <= Date < end, ordered by date ascending.
func (r *SessionRepository) GetSessionsByDateRange(ctx context.Context, start, end time.Time) ([]*core.SessionResult, error) {
	if err := r.backend.requireSchema(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if start.Equal(end) {
		end = start.Add(1 * time.Microsecond)
	}

	var results []*core.SessionResult
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialSessionTimeKey(start)
		endKey := makePartialSessionTimeKey(end)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if slices.Compare(key, endKey) >= 0 {
				break
			}

			var sessionID string
			if err := iter.Item().Value(func(val []byte) error {
				sessionID = string(val)
				return nil
			}); err != nil {
				return err
			}

			session, err := r.readSession(tx, makeSessionKey(sessionID))
			if err != nil {
				return err
			}
			if session != nil {
				results = append(results, session)
			}
		}
		return nil
	}, false)
	return results, err
}

// readSession reads a session result from the transaction. A missing key
// yields (nil, nil).
func (r *SessionRepository) readSession(tx *badger.Txn, key []byte) (*core.SessionResult, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var result *core.SessionResult
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		result, unmarshalErr = storage.UnmarshalSessionResult(val)
		return unmarshalErr
	})
	return result, err
}
