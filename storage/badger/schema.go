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


package badger

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/lexora-app/lexora/storage"
)

// CurrentSchemaVersion is the schema version this build of the library
// writes. Version history:
//
//	v1: learningProgress, sessionResults, vocabularyData collections with
//	    their userId/date/level/masteryLevel indexes
//	v2: userSettings collection
//	v3: toeicScore index on learningProgress, backfilled from existing
//	    records
const CurrentSchemaVersion = 3

// migration is one incremental schema step. Steps run exactly once, in
// version order, inside the upgrade transaction.
type migration struct {
	version int
	name    string
	apply   func(tx *badger.Txn) error
}

func (b *Backend) migrations() []migration {
	return []migration{
		{version: 1, name: "create base collections", apply: b.migrateBaseCollections},
		{version: 2, name: "create user settings collection", apply: b.migrateUserSettings},
		{version: 3, name: "add toeic score index", apply: b.migrateScoreIndex},
	}
}

// EnsureSchema opens the store at the desired schema version. On first open
// it creates all collections and indexes; on a version increase it runs only
// the steps introduced since the persisted version, together with the
// version bump, in a single transaction. A desired version at or below the
// persisted one is a no-op. Concurrent callers sharing this backend
// serialize on an internal latch, so the upgrade runs at most once.
//
// On failure the store remains at its prior version and the error wraps
// storage.ErrSchemaUpgradeFailed.
func (b *Backend) EnsureSchema(ctx context.Context, desired int) error {
	if desired < 1 || desired > CurrentSchemaVersion {
		return fmt.Errorf("%w: unsupported schema version %d", storage.ErrSchemaUpgradeFailed, desired)
	}

	b.schemaMu.Lock()
	defer b.schemaMu.Unlock()

	// Memoized: an earlier call on this backend already reached the
	// desired version.
	if b.appliedVersion >= desired {
		return nil
	}

	persisted, err := b.readSchemaVersion()
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrSchemaUpgradeFailed, err)
	}
	if persisted >= desired {
		b.appliedVersion = persisted
		return nil
	}

	err = b.WithTx(func(tx *badger.Txn) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, m := range b.migrations() {
			if m.version <= persisted || m.version > desired {
				continue
			}
			if err := m.apply(tx); err != nil {
				return fmt.Errorf("step %q: %w", m.name, err)
			}
		}
		if err := tx.Set([]byte(schemaVersionKey), []byte(strconv.Itoa(desired))); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSchemaUpgradeFailed, err)
	}

	b.appliedVersion = desired
	b.logger.Info("schema ready", "from", persisted, "to", desired)
	return nil
}

// SchemaVersion returns the persisted schema version, or 0 if the store has
// never been opened.
func (b *Backend) SchemaVersion() (int, error) {
	b.schemaMu.Lock()
	defer b.schemaMu.Unlock()
	return b.readSchemaVersion()
}

// readSchemaVersion reads the persisted version key. Must be called with
// schemaMu held.
func (b *Backend) readSchemaVersion() (int, error) {
	version := 0
	err := b.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(schemaVersionKey))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			v, convErr := strconv.Atoi(string(val))
			if convErr != nil {
				return fmt.Errorf("corrupt schema version %q", string(val))
			}
			version = v
			return nil
		})
	}, false)
	return version, err
}

// Collections returns the manifests of all created collections, keyed by
// collection name, each value listing the collection's declared indexes.
func (b *Backend) Collections() (map[string][]string, error) {
	manifests := make(map[string][]string)
	err := b.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(manifestPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			name := strings.TrimPrefix(string(item.Key()), manifestPrefix+":")
			err := item.Value(func(val []byte) error {
				if len(val) == 0 {
					manifests[name] = nil
					return nil
				}
				manifests[name] = strings.Split(string(val), ",")
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return manifests, nil
}

// writeManifest records a collection and its declared indexes. The manifest
// is what makes "create exactly once" observable on a schemaless backend.
func writeManifest(tx *badger.Txn, collection string, indexes ...string) error {
	return tx.Set(makeManifestKey(collection), []byte(strings.Join(indexes, ",")))
}

func (b *Backend) migrateBaseCollections(tx *badger.Txn) error {
	if err := writeManifest(tx, CollectionProgress, "userId"); err != nil {
		return err
	}
	if err := writeManifest(tx, CollectionSessions, "userId", "date"); err != nil {
		return err
	}
	return writeManifest(tx, CollectionVocabulary, "userId", "level", "masteryLevel")
}

func (b *Backend) migrateUserSettings(tx *badger.Txn) error {
	return writeManifest(tx, CollectionSettings)
}

// migrateScoreIndex declares the toeicScore index and backfills it from
// every progress record already in the store.
func (b *Backend) migrateScoreIndex(tx *badger.Txn) error {
	if err := writeManifest(tx, CollectionProgress, "userId", "toeicScore"); err != nil {
		return err
	}

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(progressPrefix + ":")
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var recordID string
		var score int
		err := iter.Item().Value(func(val []byte) error {
			rec, unmarshalErr := storage.UnmarshalProgressRecord(val)
			if unmarshalErr != nil {
				return unmarshalErr
			}
			recordID, score = rec.Id, rec.ToeicScore
			return nil
		})
		if err != nil {
			return err
		}
		if err := tx.Set(makeProgressScoreKey(score, recordID), []byte(recordID)); err != nil {
			return err
		}
	}
	return nil
}
