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

import "fmt"

// ValidateProgressRecord validates a ProgressRecord according to domain rules.
//
// Validation rules:
//   - Id and UserId must not be empty
//   - Level must be a known proficiency level
//   - UpdatedAt must not precede CreatedAt
//
// NOT validated:
//   - Sub-structure contents (sets and mappings may be empty or nil;
//     the codec treats nil and empty as equivalent)
func ValidateProgressRecord(record *ProgressRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidProgressRecord)
	}

	if record.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProgressRecord, ErrEmptyRecordID)
	}

	if record.UserId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProgressRecord, ErrEmptyUserID)
	}

	if err := ValidateLevel(record.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProgressRecord, err)
	}

	if record.UpdatedAt.Before(record.CreatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidProgressRecord, ErrTimestampOrder)
	}

	return nil
}

// ValidateSessionResult validates a SessionResult according to domain rules.
//
// Validation rules:
//   - Id and UserId must not be empty
//   - Date must not be zero
func ValidateSessionResult(result *SessionResult) error {
	if result == nil {
		return fmt.Errorf("%w: result is nil", ErrInvalidSessionResult)
	}

	if result.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSessionResult, ErrEmptyRecordID)
	}

	if result.UserId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSessionResult, ErrEmptyUserID)
	}

	if result.Date.IsZero() {
		return fmt.Errorf("%w: date is zero", ErrInvalidSessionResult)
	}

	return nil
}

// ValidateMastery validates a VocabularyMastery record according to domain
// rules.
//
// Validation rules:
//   - ItemId and UserId must not be empty
//   - MasteryLevel must be within [0, MaxMasteryLevel]
//   - Level, if set, must be a known proficiency level
func ValidateMastery(mastery *VocabularyMastery) error {
	if mastery == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidMastery)
	}

	if mastery.ItemId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMastery, ErrEmptyItemID)
	}

	if mastery.UserId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMastery, ErrEmptyUserID)
	}

	if mastery.MasteryLevel < 0 || mastery.MasteryLevel > MaxMasteryLevel {
		return fmt.Errorf("%w: %w: %d", ErrInvalidMastery, ErrMasteryLevelRange, mastery.MasteryLevel)
	}

	if mastery.Level != 0 {
		if err := ValidateLevel(mastery.Level); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidMastery, err)
		}
	}

	return nil
}

// ValidateSettings validates a UserSettings record.
func ValidateSettings(settings *UserSettings) error {
	if settings == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidSettings)
	}

	if settings.UserId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, ErrEmptyUserID)
	}

	return nil
}

// ValidateLevel validates that a Level has a known value.
func ValidateLevel(level Level) error {
	if level < LevelBasic || level > LevelExpert {
		return fmt.Errorf("%w: value %d", ErrInvalidLevel, level)
	}
	return nil
}
