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


package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that the requested record was not found.
	// It is used only for single-record lookups; collection scans return
	// empty slices instead.
	ErrNotFound = errors.New("record not found")

	// ErrNotInitialized indicates an operation issued before the schema
	// manager finished opening the store.
	ErrNotInitialized = errors.New("store not initialized")

	// ErrUnavailable indicates the backend is missing, closed, or aborted
	// the transaction. No writes from the failed operation are visible.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrSchemaUpgradeFailed indicates the upgrade transaction aborted and
	// the store remains at its prior schema version.
	ErrSchemaUpgradeFailed = errors.New("schema upgrade failed")

	// ErrTruncatedData indicates that a stored value ended mid-field.
	ErrTruncatedData = errors.New("truncated data")

	// ErrMalformedDocument indicates a backup document that is not valid
	// structured data or is missing required top-level fields.
	ErrMalformedDocument = errors.New("malformed backup document")
)

// PartialImportError reports a restore that failed after applying some
// records. Applied counts the records written before the failure.
type PartialImportError struct {
	Applied int
	Err     error
}

func (e *PartialImportError) Error() string {
	return fmt.Sprintf("partial import: %d records applied: %v", e.Applied, e.Err)
}

func (e *PartialImportError) Unwrap() error { return e.Err }
