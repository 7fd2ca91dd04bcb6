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


// Package storage provides the storage abstraction layer for lexora.
//
// This package defines repository interfaces that decouple storage
// implementation from the rest of the library. One repository exists per
// collection (learning progress, session results, vocabulary mastery, user
// settings), and each repository operation runs inside a single transaction:
// readers never observe a write-in-progress as partially applied.
//
// # Error taxonomy
//
// Repositories are the sole origin of storage errors:
//
//   - ErrNotInitialized: operation issued before the schema manager
//     finished opening the store
//   - ErrUnavailable: the backend aborted the transaction; all-or-nothing,
//     no partial writes
//   - ErrNotFound: single-record lookup with no match (collection scans
//     return empty slices instead)
//   - ErrSchemaUpgradeFailed: upgrade transaction aborted, store left at
//     its prior version
//
// # Serialization
//
// Record values are serialized with the mus-go serializers defined in the
// core package. Set and mapping fields are flattened to ordered sequences
// on the wire; see core.ProgressRecordMUS.
//
// # Usage
//
// Create repositories through the badger subpackage:
//
//	backend, err := badger.OpenBackend(path, false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	if err := backend.EnsureSchema(ctx, badger.CurrentSchemaVersion); err != nil {
//	    log.Fatal(err)
//	}
//	progress := badger.NewProgressRepository(backend)
//
// Use in tests with in-memory storage via badger.NewMemoryBackend.
package storage
