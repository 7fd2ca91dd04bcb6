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
	"github.com/lexora-app/lexora/core"
)

// MarshalProgressRecord serializes a ProgressRecord to bytes.
func MarshalProgressRecord(record *core.ProgressRecord) []byte {
	buf := make([]byte, core.ProgressRecordMUS.Size(*record))
	core.ProgressRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalProgressRecord deserializes a ProgressRecord from bytes.
// Values written by an older schema version decode with the missing
// trailing fields empty.
func UnmarshalProgressRecord(data []byte) (*core.ProgressRecord, error) {
	if len(data) == 0 {
		return nil, ErrTruncatedData
	}
	record, _, err := core.ProgressRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalSessionResult serializes a SessionResult to bytes.
func MarshalSessionResult(result *core.SessionResult) []byte {
	buf := make([]byte, core.SessionResultMUS.Size(*result))
	core.SessionResultMUS.Marshal(*result, buf)
	return buf
}

// UnmarshalSessionResult deserializes a SessionResult from bytes.
func UnmarshalSessionResult(data []byte) (*core.SessionResult, error) {
	if len(data) == 0 {
		return nil, ErrTruncatedData
	}
	result, _, err := core.SessionResultMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// MarshalMastery serializes a VocabularyMastery record to bytes.
func MarshalMastery(mastery *core.VocabularyMastery) []byte {
	buf := make([]byte, core.VocabularyMasteryMUS.Size(*mastery))
	core.VocabularyMasteryMUS.Marshal(*mastery, buf)
	return buf
}

// UnmarshalMastery deserializes a VocabularyMastery record from bytes.
func UnmarshalMastery(data []byte) (*core.VocabularyMastery, error) {
	if len(data) == 0 {
		return nil, ErrTruncatedData
	}
	mastery, _, err := core.VocabularyMasteryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &mastery, nil
}

// MarshalSettings serializes a UserSettings record to bytes.
func MarshalSettings(settings *core.UserSettings) []byte {
	buf := make([]byte, core.UserSettingsMUS.Size(*settings))
	core.UserSettingsMUS.Marshal(*settings, buf)
	return buf
}

// UnmarshalSettings deserializes a UserSettings record from bytes.
func UnmarshalSettings(data []byte) (*core.UserSettings, error) {
	if len(data) == 0 {
		return nil, ErrTruncatedData
	}
	settings, _, err := core.UserSettingsMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &settings, nil
}
