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


// Package stats derives summary statistics from stored learning data. It is
// a read-only consumer of the storage repositories and holds no state of its
// own.
package stats

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lexora-app/lexora/core"
	"github.com/lexora-app/lexora/storage"
)

// Section completion denominators. Progress percentages measure against
// these fixed targets rather than against per-user goals.
const (
	// VocabularyTarget is the mastered-word count treated as 100%.
	VocabularyTarget = 600
	// GrammarTarget is the mastered-category count treated as 100%.
	GrammarTarget = 40
	// ReadingTargetWPM is the reading speed treated as 100%.
	ReadingTargetWPM = 200
	// ListeningTarget is the completed-audio count treated as 100%.
	ListeningTarget = 150
)

// Statistics is a computed summary of one user's learning state. All
// percentage fields are in [0, 100].
type Statistics struct {
	TotalStudyTimeMinutes int
	SessionCount          int
	AverageAccuracy       float64
	VocabularyProgress    float64
	GrammarProgress       float64
	ReadingProgress       float64
	ListeningProgress     float64
	CurrentStreak         int
	LastStudyDate         *time.Time
}

// Aggregator computes statistics from the progress and session repositories.
type Aggregator struct {
	progress storage.ProgressRepository
	sessions storage.SessionRepository
	logger   *slog.Logger
}

// NewAggregator creates an Aggregator reading from the given repositories.
func NewAggregator(progress storage.ProgressRepository, sessions storage.SessionRepository, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{progress: progress, sessions: sessions, logger: logger}
}

// ComputeStatistics derives the user's statistics from the latest progress
// record and the full session history. A user with no stored data yields the
// zero Statistics with a nil LastStudyDate, not an error. Repository
// failures other than not-found propagate unchanged.
func (a *Aggregator) ComputeStatistics(ctx context.Context, userID string) (*Statistics, error) {
	result := &Statistics{}

	record, err := a.progress.GetLatestProgress(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if record != nil {
		result.TotalStudyTimeMinutes = record.StudyTimeMinutes
		result.CurrentStreak = record.Vocabulary.StreakDays
		result.VocabularyProgress = percentOf(len(record.Vocabulary.Mastered), VocabularyTarget)
		result.GrammarProgress = percentOf(len(record.Grammar.Mastered), GrammarTarget)
		result.ReadingProgress = clampPercent(record.Reading.WordsPerMinute / ReadingTargetWPM * 100)
		result.ListeningProgress = percentOf(len(record.Listening.CompletedAudio), ListeningTarget)
	}

	sessions, err := a.sessions.GetSessionsByUser(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	result.SessionCount = len(sessions)
	if len(sessions) > 0 {
		var accuracySum float64
		latest := sessions[0].Date
		for _, s := range sessions {
			accuracySum += s.OverallAccuracy
			if s.Date.After(latest) {
				latest = s.Date
			}
		}
		result.AverageAccuracy = accuracySum / float64(len(sessions))
		result.LastStudyDate = &latest
	}

	a.logger.Debug("computed statistics",
		"userId", userID,
		"sessions", result.SessionCount,
		"studyMinutes", result.TotalStudyTimeMinutes)
	return result, nil
}

// SectionBreakdown returns per-section accuracy averaged over the user's
// session history, keyed by section name. Sections the user never practiced
// are absent from the map.
func (a *Aggregator) SectionBreakdown(ctx context.Context, userID string) (map[string]core.SectionResult, error) {
	sessions, err := a.sessions.GetSessionsByUser(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	totals := make(map[string]core.SectionResult)
	for _, s := range sessions {
		for name, sec := range s.SectionResults {
			agg := totals[name]
			agg.Correct += sec.Correct
			agg.Total += sec.Total
			totals[name] = agg
		}
	}
	for name, agg := range totals {
		if agg.Total > 0 {
			agg.Accuracy = float64(agg.Correct) / float64(agg.Total)
		}
		totals[name] = agg
	}
	return totals, nil
}

func percentOf(count, target int) float64 {
	if target <= 0 {
		return 0
	}
	return clampPercent(float64(count) / float64(target) * 100)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
