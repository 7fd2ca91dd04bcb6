package core

import (
	"testing"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshalProgress(t *testing.T, rec ProgressRecord) []byte {
	t.Helper()
	bs := make([]byte, ProgressRecordMUS.Size(rec))
	ProgressRecordMUS.Marshal(rec, bs)
	return bs
}

func TestProgressRecordRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	rec := ProgressRecord{
		Id:                "rec-1",
		UserId:            "user-1",
		Level:             LevelIntermediate,
		ToeicScore:        725,
		StudyTimeMinutes:  480,
		CompletedSections: []string{"listening", "reading"},
		Vocabulary: VocabularyProgress{
			Known:        NewStringSet("invoice", "agenda"),
			Studied:      NewStringSet("merger"),
			Weak:         NewStringSet("tariff"),
			Mastered:     NewStringSet("refund", "invoice"),
			LastReviewed: map[string]time.Time{"invoice": now.Add(-time.Hour)},
			StreakDays:   12,
		},
		Grammar: GrammarProgress{
			Mastered:      NewStringSet("conditionals"),
			Weak:          NewStringSet("articles"),
			Scores:        map[string]float64{"conditionals": 0.9, "articles": 0.4},
			LastPracticed: now.Add(-24 * time.Hour),
		},
		Reading: ReadingProgress{
			WordsPerMinute:     145.5,
			CompletedPassages:  NewStringSet("passage-1"),
			DifficultyProgress: map[string]float64{"basic": 1.0},
			ComprehensionScore: 0.82,
		},
		Listening: ListeningProgress{
			CompletedAudio:   NewStringSet("audio-1", "audio-2"),
			AverageReplays:   1.4,
			CategoryAccuracy: map[string]float64{"talks": 0.7},
			ListeningSpeed:   1.25,
		},
		CreatedAt: now.Add(-30 * 24 * time.Hour),
		UpdatedAt: now,
	}

	bs := marshalProgress(t, rec)
	decoded, n, err := ProgressRecordMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, len(bs), n)

	assert.Equal(t, rec.Id, decoded.Id)
	assert.Equal(t, rec.UserId, decoded.UserId)
	assert.Equal(t, rec.Level, decoded.Level)
	assert.Equal(t, rec.ToeicScore, decoded.ToeicScore)
	assert.Equal(t, rec.StudyTimeMinutes, decoded.StudyTimeMinutes)
	assert.Equal(t, rec.CompletedSections, decoded.CompletedSections)
	assert.Equal(t, rec.Vocabulary.Known, decoded.Vocabulary.Known)
	assert.Equal(t, rec.Vocabulary.Mastered, decoded.Vocabulary.Mastered)
	assert.Equal(t, rec.Vocabulary.StreakDays, decoded.Vocabulary.StreakDays)
	require.Contains(t, decoded.Vocabulary.LastReviewed, "invoice")
	assert.Equal(t, rec.Vocabulary.LastReviewed["invoice"].UnixMicro(),
		decoded.Vocabulary.LastReviewed["invoice"].UnixMicro())
	assert.Equal(t, rec.Grammar.Scores, decoded.Grammar.Scores)
	assert.True(t, rec.Grammar.LastPracticed.Equal(decoded.Grammar.LastPracticed))
	assert.Equal(t, rec.Reading.WordsPerMinute, decoded.Reading.WordsPerMinute)
	assert.Equal(t, rec.Reading.DifficultyProgress, decoded.Reading.DifficultyProgress)
	assert.Equal(t, rec.Listening.CompletedAudio, decoded.Listening.CompletedAudio)
	assert.Equal(t, rec.Listening.ListeningSpeed, decoded.Listening.ListeningSpeed)
	assert.True(t, rec.CreatedAt.Equal(decoded.CreatedAt))
	assert.True(t, rec.UpdatedAt.Equal(decoded.UpdatedAt))
}

func TestStringSetEncoding_OrderIndependent(t *testing.T) {
	// Equal sets must produce equal bytes no matter the insertion order.
	a := NewStringSet("alpha", "beta", "gamma")
	b := NewStringSet("gamma", "alpha", "beta")

	ser := stringSetMUS{}
	bsA := make([]byte, ser.Size(a))
	ser.Marshal(a, bsA)
	bsB := make([]byte, ser.Size(b))
	ser.Marshal(b, bsB)

	assert.Equal(t, bsA, bsB)
}

func TestProgressRecordDecode_TruncatedAtFieldBoundary(t *testing.T) {
	// A value written by an older schema ends cleanly after a prefix of the
	// fields. It must decode with the missing fields at their zero values.
	bs := make([]byte, ord.String.Size("rec-1")+ord.String.Size("user-1")+varint.Int.Size(int(LevelBasic)))
	n := ord.String.Marshal("rec-1", bs)
	n += ord.String.Marshal("user-1", bs[n:])
	varint.Int.Marshal(int(LevelBasic), bs[n:])

	decoded, _, err := ProgressRecordMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, "rec-1", decoded.Id)
	assert.Equal(t, "user-1", decoded.UserId)
	assert.Equal(t, LevelBasic, decoded.Level)
	assert.Zero(t, decoded.ToeicScore)
	assert.Empty(t, decoded.Vocabulary.Mastered)
	assert.True(t, decoded.UpdatedAt.IsZero())
}

func TestProgressRecordDecode_TruncatedMidField(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	rec := ProgressRecord{
		Id:        "rec-1",
		UserId:    "user-1",
		Level:     LevelBasic,
		CreatedAt: now,
		UpdatedAt: now,
	}
	bs := marshalProgress(t, rec)

	// Dropping the last byte cuts the final timestamp field in half. That is
	// corruption, not an absent field.
	_, _, err := ProgressRecordMUS.Unmarshal(bs[:len(bs)-1])
	assert.Error(t, err)
}

func TestSessionResultRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	res := SessionResult{
		Id:              "sess-1",
		UserId:          "user-1",
		Date:            now,
		DurationMinutes: 45,
		SectionResults: map[string]SectionResult{
			"listening": {Correct: 38, Total: 50, Accuracy: 0.76},
			"reading":   {Correct: 41, Total: 50, Accuracy: 0.82},
		},
		TotalScore:      395,
		OverallAccuracy: 0.79,
	}

	bs := make([]byte, SessionResultMUS.Size(res))
	SessionResultMUS.Marshal(res, bs)

	decoded, n, err := SessionResultMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, len(bs), n)
	assert.Equal(t, res.Id, decoded.Id)
	assert.Equal(t, res.UserId, decoded.UserId)
	assert.True(t, res.Date.Equal(decoded.Date))
	assert.Equal(t, res.DurationMinutes, decoded.DurationMinutes)
	assert.Equal(t, res.SectionResults, decoded.SectionResults)
	assert.Equal(t, res.TotalScore, decoded.TotalScore)
	assert.Equal(t, res.OverallAccuracy, decoded.OverallAccuracy)
}

func TestVocabularyMasteryRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	m := VocabularyMastery{
		ItemId:         "invoice",
		UserId:         "user-1",
		Level:          LevelAdvanced,
		MasteryLevel:   4,
		CorrectCount:   17,
		IncorrectCount: 3,
		LastReviewed:   now.Add(-48 * time.Hour),
		NextReview:     now.Add(72 * time.Hour),
	}

	bs := make([]byte, VocabularyMasteryMUS.Size(m))
	VocabularyMasteryMUS.Marshal(m, bs)

	decoded, _, err := VocabularyMasteryMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, m.ItemId, decoded.ItemId)
	assert.Equal(t, m.UserId, decoded.UserId)
	assert.Equal(t, m.Level, decoded.Level)
	assert.Equal(t, m.MasteryLevel, decoded.MasteryLevel)
	assert.Equal(t, m.CorrectCount, decoded.CorrectCount)
	assert.Equal(t, m.IncorrectCount, decoded.IncorrectCount)
	assert.True(t, m.LastReviewed.Equal(decoded.LastReviewed))
	assert.True(t, m.NextReview.Equal(decoded.NextReview))
}

func TestUserSettingsRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	st := UserSettings{
		UserId:    "user-1",
		Payload:   []byte(`{"theme":"dark","dailyGoal":30}`),
		UpdatedAt: now,
	}

	bs := make([]byte, UserSettingsMUS.Size(st))
	UserSettingsMUS.Marshal(st, bs)

	decoded, _, err := UserSettingsMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, st.UserId, decoded.UserId)
	assert.Equal(t, st.Payload, decoded.Payload)
	assert.True(t, st.UpdatedAt.Equal(decoded.UpdatedAt))
}
