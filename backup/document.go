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


// Package backup exports a user's stored learning data to a portable JSON
// document and restores it through the normal repository write paths. The
// document field names are an interop contract shared with other clients;
// they never change meaning across versions.
package backup

import (
	"sort"
	"time"

	"github.com/lexora-app/lexora/core"
)

// Document is the portable backup format. Progress is null for users with no
// progress record; sessions and vocabulary are empty arrays, never null.
// Version is the schema version of the exporting store, so a restore knows
// whether the document comes from a build it understands.
type Document struct {
	Progress   *ProgressDoc      `json:"progress"`
	Sessions   []SessionDoc      `json:"sessions"`
	Vocabulary []VocabularyEntry `json:"vocabulary"`
	ExportDate time.Time         `json:"exportDate"`
	Version    int               `json:"version"`
}

// ProgressDoc is the document form of a progress record. Sets are flattened
// to sorted arrays; the proficiency level travels as its string name.
type ProgressDoc struct {
	Id                string             `json:"id"`
	UserId            string             `json:"userId"`
	Level             string             `json:"level"`
	ToeicScore        int                `json:"toeicScore"`
	StudyTimeMinutes  int                `json:"studyTimeMinutes"`
	CompletedSections []string           `json:"completedSections"`
	Vocabulary        VocabularyStateDoc `json:"vocabulary"`
	Grammar           GrammarStateDoc    `json:"grammar"`
	Reading           ReadingStateDoc    `json:"reading"`
	Listening         ListeningStateDoc  `json:"listening"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// VocabularyStateDoc mirrors core.VocabularyProgress.
type VocabularyStateDoc struct {
	Known        []string             `json:"known"`
	Studied      []string             `json:"studied"`
	Weak         []string             `json:"weak"`
	Mastered     []string             `json:"mastered"`
	LastReviewed map[string]time.Time `json:"lastReviewed"`
	StreakDays   int                  `json:"streakDays"`
}

// GrammarStateDoc mirrors core.GrammarProgress.
type GrammarStateDoc struct {
	Mastered      []string           `json:"mastered"`
	Weak          []string           `json:"weak"`
	Scores        map[string]float64 `json:"scores"`
	LastPracticed time.Time          `json:"lastPracticed"`
}

// ReadingStateDoc mirrors core.ReadingProgress.
type ReadingStateDoc struct {
	WordsPerMinute     float64            `json:"wordsPerMinute"`
	CompletedPassages  []string           `json:"completedPassages"`
	DifficultyProgress map[string]float64 `json:"difficultyProgress"`
	ComprehensionScore float64            `json:"comprehensionScore"`
}

// ListeningStateDoc mirrors core.ListeningProgress.
type ListeningStateDoc struct {
	CompletedAudio   []string           `json:"completedAudio"`
	AverageReplays   float64            `json:"averageReplays"`
	CategoryAccuracy map[string]float64 `json:"categoryAccuracy"`
	ListeningSpeed   float64            `json:"listeningSpeed"`
}

// SessionDoc is the document form of a session result.
type SessionDoc struct {
	Id              string                      `json:"id"`
	UserId          string                      `json:"userId"`
	Date            time.Time                   `json:"date"`
	DurationMinutes int                         `json:"durationMinutes"`
	SectionResults  map[string]SectionResultDoc `json:"sectionResults"`
	TotalScore      int                         `json:"totalScore"`
	OverallAccuracy float64                     `json:"overallAccuracy"`
}

// SectionResultDoc is the document form of one section's outcome.
type SectionResultDoc struct {
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Accuracy float64 `json:"accuracy"`
}

// VocabularyEntry pairs an item id with its mastery state.
type VocabularyEntry struct {
	ItemId string     `json:"itemId"`
	State  MasteryDoc `json:"state"`
}

// MasteryDoc is the document form of a vocabulary mastery record. An item
// whose difficulty was never set carries an empty level string.
type MasteryDoc struct {
	UserId         string    `json:"userId"`
	Level          string    `json:"level"`
	MasteryLevel   int       `json:"masteryLevel"`
	CorrectCount   int       `json:"correctCount"`
	IncorrectCount int       `json:"incorrectCount"`
	LastReviewed   time.Time `json:"lastReviewed"`
	NextReview     time.Time `json:"nextReview"`
}

func levelName(l core.Level) string {
	if l == 0 {
		return ""
	}
	return l.String()
}

func parseLevelName(s string) (core.Level, error) {
	if s == "" {
		return 0, nil
	}
	return core.ParseLevel(s)
}

func newProgressDoc(r *core.ProgressRecord) *ProgressDoc {
	sections := r.CompletedSections
	if sections == nil {
		sections = []string{}
	} else {
		sections = append([]string(nil), sections...)
		sort.Strings(sections)
	}
	return &ProgressDoc{
		Id:                r.Id,
		UserId:            r.UserId,
		Level:             levelName(r.Level),
		ToeicScore:        r.ToeicScore,
		StudyTimeMinutes:  r.StudyTimeMinutes,
		CompletedSections: sections,
		Vocabulary: VocabularyStateDoc{
			Known:        setElems(r.Vocabulary.Known),
			Studied:      setElems(r.Vocabulary.Studied),
			Weak:         setElems(r.Vocabulary.Weak),
			Mastered:     setElems(r.Vocabulary.Mastered),
			LastReviewed: r.Vocabulary.LastReviewed,
			StreakDays:   r.Vocabulary.StreakDays,
		},
		Grammar: GrammarStateDoc{
			Mastered:      setElems(r.Grammar.Mastered),
			Weak:          setElems(r.Grammar.Weak),
			Scores:        r.Grammar.Scores,
			LastPracticed: r.Grammar.LastPracticed,
		},
		Reading: ReadingStateDoc{
			WordsPerMinute:     r.Reading.WordsPerMinute,
			CompletedPassages:  setElems(r.Reading.CompletedPassages),
			DifficultyProgress: r.Reading.DifficultyProgress,
			ComprehensionScore: r.Reading.ComprehensionScore,
		},
		Listening: ListeningStateDoc{
			CompletedAudio:   setElems(r.Listening.CompletedAudio),
			AverageReplays:   r.Listening.AverageReplays,
			CategoryAccuracy: r.Listening.CategoryAccuracy,
			ListeningSpeed:   r.Listening.ListeningSpeed,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (d *ProgressDoc) toRecord() (*core.ProgressRecord, error) {
	level, err := parseLevelName(d.Level)
	if err != nil {
		return nil, err
	}
	return &core.ProgressRecord{
		Id:                d.Id,
		UserId:            d.UserId,
		Level:             level,
		ToeicScore:        d.ToeicScore,
		StudyTimeMinutes:  d.StudyTimeMinutes,
		CompletedSections: d.CompletedSections,
		Vocabulary: core.VocabularyProgress{
			Known:        core.NewStringSet(d.Vocabulary.Known...),
			Studied:      core.NewStringSet(d.Vocabulary.Studied...),
			Weak:         core.NewStringSet(d.Vocabulary.Weak...),
			Mastered:     core.NewStringSet(d.Vocabulary.Mastered...),
			LastReviewed: d.Vocabulary.LastReviewed,
			StreakDays:   d.Vocabulary.StreakDays,
		},
		Grammar: core.GrammarProgress{
			Mastered:      core.NewStringSet(d.Grammar.Mastered...),
			Weak:          core.NewStringSet(d.Grammar.Weak...),
			Scores:        d.Grammar.Scores,
			LastPracticed: d.Grammar.LastPracticed,
		},
		Reading: core.ReadingProgress{
			WordsPerMinute:     d.Reading.WordsPerMinute,
			CompletedPassages:  core.NewStringSet(d.Reading.CompletedPassages...),
			DifficultyProgress: d.Reading.DifficultyProgress,
			ComprehensionScore: d.Reading.ComprehensionScore,
		},
		Listening: core.ListeningProgress{
			CompletedAudio:   core.NewStringSet(d.Listening.CompletedAudio...),
			AverageReplays:   d.Listening.AverageReplays,
			CategoryAccuracy: d.Listening.CategoryAccuracy,
			ListeningSpeed:   d.Listening.ListeningSpeed,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

func newSessionDoc(s *core.SessionResult) SessionDoc {
	sections := make(map[string]SectionResultDoc, len(s.SectionResults))
	for name, sec := range s.SectionResults {
		sections[name] = SectionResultDoc{
			Correct:  sec.Correct,
			Total:    sec.Total,
			Accuracy: sec.Accuracy,
		}
	}
	return SessionDoc{
		Id:              s.Id,
		UserId:          s.UserId,
		Date:            s.Date,
		DurationMinutes: s.DurationMinutes,
		SectionResults:  sections,
		TotalScore:      s.TotalScore,
		OverallAccuracy: s.OverallAccuracy,
	}
}

func (d *SessionDoc) toResult() *core.SessionResult {
	sections := make(map[string]core.SectionResult, len(d.SectionResults))
	for name, sec := range d.SectionResults {
		sections[name] = core.SectionResult{
			Correct:  sec.Correct,
			Total:    sec.Total,
			Accuracy: sec.Accuracy,
		}
	}
	return &core.SessionResult{
		Id:              d.Id,
		UserId:          d.UserId,
		Date:            d.Date,
		DurationMinutes: d.DurationMinutes,
		SectionResults:  sections,
		TotalScore:      d.TotalScore,
		OverallAccuracy: d.OverallAccuracy,
	}
}

func newVocabularyEntry(m *core.VocabularyMastery) VocabularyEntry {
	return VocabularyEntry{
		ItemId: m.ItemId,
		State: MasteryDoc{
			UserId:         m.UserId,
			Level:          levelName(m.Level),
			MasteryLevel:   m.MasteryLevel,
			CorrectCount:   m.CorrectCount,
			IncorrectCount: m.IncorrectCount,
			LastReviewed:   m.LastReviewed,
			NextReview:     m.NextReview,
		},
	}
}

func (e *VocabularyEntry) toMastery() (*core.VocabularyMastery, error) {
	level, err := parseLevelName(e.State.Level)
	if err != nil {
		return nil, err
	}
	return &core.VocabularyMastery{
		ItemId:         e.ItemId,
		UserId:         e.State.UserId,
		Level:          level,
		MasteryLevel:   e.State.MasteryLevel,
		CorrectCount:   e.State.CorrectCount,
		IncorrectCount: e.State.IncorrectCount,
		LastReviewed:   e.State.LastReviewed,
		NextReview:     e.State.NextReview,
	}, nil
}

func setElems(s core.StringSet) []string {
	if len(s) == 0 {
		return []string{}
	}
	return s.Elems()
}
