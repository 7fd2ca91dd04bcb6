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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidProgressRecord indicates a ProgressRecord failed validation.
	ErrInvalidProgressRecord = errors.New("invalid progress record")

	// ErrInvalidSessionResult indicates a SessionResult failed validation.
	ErrInvalidSessionResult = errors.New("invalid session result")

	// ErrInvalidMastery indicates a VocabularyMastery record failed validation.
	ErrInvalidMastery = errors.New("invalid vocabulary mastery record")

	// ErrInvalidSettings indicates a UserSettings record failed validation.
	ErrInvalidSettings = errors.New("invalid user settings")

	// ErrInvalidLevel indicates an unknown proficiency level value.
	ErrInvalidLevel = errors.New("invalid proficiency level")

	// ErrEmptyRecordID indicates a record id is empty.
	ErrEmptyRecordID = errors.New("record id cannot be empty")

	// ErrEmptyUserID indicates a user id is empty.
	ErrEmptyUserID = errors.New("user id cannot be empty")

	// ErrEmptyItemID indicates a vocabulary item id is empty.
	ErrEmptyItemID = errors.New("item id cannot be empty")

	// ErrMasteryLevelRange indicates a mastery level outside [0, MaxMasteryLevel].
	ErrMasteryLevelRange = errors.New("mastery level out of range")

	// ErrTimestampOrder indicates UpdatedAt precedes CreatedAt.
	ErrTimestampOrder = errors.New("updated-at cannot precede created-at")
)
