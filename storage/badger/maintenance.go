package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/lexora-app/lexora/core"
	"github.com/lexora-app/lexora/storage"
)

// DeleteUserData removes everything stored for one user: progress records,
// session results, vocabulary mastery and settings, together with all their
// index entries, in a single transaction. Deleting an absent user is a no-op.
func (b *Backend) DeleteUserData(ctx context.Context, userID string) error {
	if err := b.requireSchema(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.WithTx(func(tx *badger.Txn) error {
		if err := b.deleteUserProgress(tx, userID); err != nil {
			return err
		}
		if err := b.deleteUserSessions(tx, userID); err != nil {
			return err
		}
		if err := b.deleteUserVocabulary(tx, userID); err != nil {
			return err
		}
		if err := tx.Delete(makeSettingsKey(userID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

func (b *Backend) deleteUserProgress(tx *badger.Txn, userID string) error {
	ids, err := collectIndexValues(tx, makePartialProgressUserKey(userID))
	if err != nil {
		return err
	}
	for _, id := range ids {
		key := makeProgressKey(id)
		if b.schemaAtLeast(3) {
			record, err := readProgressValue(tx, key)
			if err != nil {
				return err
			}
			if record != nil {
				if err := tx.Delete(makeProgressScoreKey(record.ToeicScore, record.Id)); err != nil {
					return err
				}
			}
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		if err := tx.Delete(makeProgressUserKey(userID, id)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) deleteUserSessions(tx *badger.Txn, userID string) error {
	ids, err := collectIndexValues(tx, makePartialSessionUserKey(userID))
	if err != nil {
		return err
	}
	for _, id := range ids {
		key := makeSessionKey(id)
		item, err := tx.Get(key)
		if err != nil {
			if err == badger.ErrKeyNotFound {
				continue
			}
			return err
		}
		err = item.Value(func(val []byte) error {
			session, unmarshalErr := storage.UnmarshalSessionResult(val)
			if unmarshalErr != nil {
				return unmarshalErr
			}
			if err := tx.Delete(makeSessionDateKey(session.UserId, session.Date, session.Id)); err != nil {
				return err
			}
			return tx.Delete(makeSessionTimeKey(session.Date, session.Id))
		})
		if err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		if err := tx.Delete(makeSessionUserKey(userID, id)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) deleteUserVocabulary(tx *badger.Txn, userID string) error {
	recordKeys, err := collectIndexValues(tx, makePartialVocabularyUserKey(userID))
	if err != nil {
		return err
	}
	for _, recordKey := range recordKeys {
		key := makeVocabularyRecordKey(recordKey)
		item, err := tx.Get(key)
		if err != nil {
			if err == badger.ErrKeyNotFound {
				continue
			}
			return err
		}
		err = item.Value(func(val []byte) error {
			mastery, unmarshalErr := storage.UnmarshalMastery(val)
			if unmarshalErr != nil {
				return unmarshalErr
			}
			if err := tx.Delete(makeVocabularyLevelKey(mastery.UserId, mastery.Level, recordKey)); err != nil {
				return err
			}
			return tx.Delete(makeVocabularyMasteryKey(mastery.UserId, mastery.MasteryLevel, recordKey))
		})
		if err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		if err := tx.Delete(makeVocabularyUserKey(userID, recordKey)); err != nil {
			return err
		}
	}
	return nil
}

func readProgressValue(tx *badger.Txn, key []byte) (*core.ProgressRecord, error) {
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

// collectIndexValues gathers index values under one prefix before any
// deletes happen; Badger iterators must not observe writes made mid-scan.
func collectIndexValues(tx *badger.Txn, prefix []byte) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var values []string
	for iter.Rewind(); iter.Valid(); iter.Next() {
		err := iter.Item().Value(func(val []byte) error {
			values = append(values, string(val))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return values, nil
}
