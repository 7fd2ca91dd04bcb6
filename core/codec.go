package core

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Serializers for the persisted record types. The storage backend only
// persists flat byte values, so set and mapping fields are flattened here:
// a set becomes an ordered sequence of its elements, a mapping becomes an
// ordered sequence of (key, value) pairs. Decoding rebuilds the containers,
// de-duplicating keys (last occurrence wins).
//
// Decoding is tolerant of a value that ends cleanly at a field boundary:
// records written before a field existed decode with that field empty
// instead of failing. This keeps old records readable after a schema
// upgrade. Corrupt data that ends mid-field still errors.
var (
	ProgressRecordMUS    = progressRecordMUS{}
	SessionResultMUS     = sessionResultMUS{}
	VocabularyMasteryMUS = vocabularyMasteryMUS{}
	UserSettingsMUS      = userSettingsMUS{}
)

// Times are persisted as Unix microseconds.
var timeMUS = raw.TimeUnixMicro

var (
	stringSliceMUS = ord.NewSliceSer[string](ord.String)
	scoreMapMUS    = ord.NewMapSer[string, float64](ord.String, varint.Float64)
	timeMapMUS     = ord.NewMapSer[string, time.Time](ord.String, timeMUS)
)

// fieldReader walks a buffer field by field. Reads past the end of the
// buffer are the tolerated "field absent" case and leave the destination at
// its zero value.
type fieldReader struct {
	bs []byte
	n  int
}

func (r *fieldReader) more() bool { return r.n < len(r.bs) }

func readField[T any](r *fieldReader, ser mus.Serializer[T], dst *T) (err error) {
	if !r.more() {
		return nil
	}
	var n int
	*dst, n, err = ser.Unmarshal(r.bs[r.n:])
	r.n += n
	return err
}

// levelMUS persists a Level as its integer value.
type levelMUS struct{}

func (levelMUS) Marshal(l Level, bs []byte) int { return varint.Int.Marshal(int(l), bs) }

func (levelMUS) Unmarshal(bs []byte) (Level, int, error) {
	v, n, err := varint.Int.Unmarshal(bs)
	return Level(v), n, err
}

func (levelMUS) Size(l Level) int { return varint.Int.Size(int(l)) }

func (levelMUS) Skip(bs []byte) (int, error) { return varint.Int.Skip(bs) }

var levelSer = levelMUS{}

// stringSetMUS flattens a StringSet to an ordered element sequence.
// Elements are sorted on encode so equal sets produce equal bytes; decode
// drops duplicates by construction.
type stringSetMUS struct{}

func (stringSetMUS) Marshal(s StringSet, bs []byte) int {
	return stringSliceMUS.Marshal(s.Elems(), bs)
}

func (stringSetMUS) Unmarshal(bs []byte) (StringSet, int, error) {
	elems, n, err := stringSliceMUS.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	return NewStringSet(elems...), n, nil
}

func (stringSetMUS) Size(s StringSet) int { return stringSliceMUS.Size(s.Elems()) }

func (stringSetMUS) Skip(bs []byte) (int, error) { return stringSliceMUS.Skip(bs) }

var setSer = stringSetMUS{}

type vocabularyProgressMUS struct{}

func (vocabularyProgressMUS) Marshal(p VocabularyProgress, bs []byte) (n int) {
	n = setSer.Marshal(p.Known, bs)
	n += setSer.Marshal(p.Studied, bs[n:])
	n += setSer.Marshal(p.Weak, bs[n:])
	n += setSer.Marshal(p.Mastered, bs[n:])
	n += timeMapMUS.Marshal(p.LastReviewed, bs[n:])
	n += varint.Int.Marshal(p.StreakDays, bs[n:])
	return
}

func (vocabularyProgressMUS) Unmarshal(bs []byte) (p VocabularyProgress, n int, err error) {
	r := fieldReader{bs: bs}
	if err = readField(&r, setSer, &p.Known); err != nil {
		return p, r.n, err
	}
	if err = readField(&r, setSer, &p.Studied); err != nil {
		return p, r.n, err
	}
	if err = readField(&r, setSer, &p.Weak); err != nil {
		return p, r.n, err
	}
	if err = readField(&r, setSer, &p.Mastered); err != nil {
		return p, r.n, err
	}
	if err = readField(&r, timeMapMUS, &p.LastReviewed); err != nil {
		return p, r.n, err
	}
	err = readField(&r, varint.Int, &p.StreakDays)
	return p, r.n, err
}

func (vocabularyProgressMUS) Size(p VocabularyProgress) (size int) {
	size = setSer.Size(p.Known)
	size += setSer.Size(p.Studied)
	size += setSer.Size(p.Weak)
	size += setSer.Size(p.Mastered)
	size += timeMapMUS.Size(p.LastReviewed)
	size += varint.Int.Size(p.StreakDays)
	return
}

func (s vocabularyProgressMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

var vocabProgressSer = vocabularyProgressMUS{}

type grammarProgressMUS struct{}

func (grammarProgressMUS) Marshal(p GrammarProgress, bs []byte) (n int) {
	n = setSer.Marshal(p.Mastered, bs)
	n += setSer.Marshal(p.Weak, bs[n:])
	n += scoreMapMUS.Marshal(p.Scores, bs[n:])
	n += timeMUS.Marshal(p.LastPracticed, bs[n:])
	return
}

func (grammarProgressMUS) Unmarshal(bs []byte) (p GrammarProgress, n int, err error) {
	r := fieldReader{bs: bs}
	if err = readField(&r, setSer, &p.Mastered); err != nil {
		return p, r.n, err
	}
	if err = readField(&r, setSer, &p.Weak); err != nil {
		return p, r.n, err
	}
	if err = readField(&r, scoreMapMUS, &p.Scores); err != nil {
		return p, r.n, err
	}
	err = readField(&r, timeMUS, &p.LastPracticed)
	return p, r.n, err
}

func (grammarProgressMUS) Size(p GrammarProgress) (size int) {
	size = setSer.Size(p.Mastered)
	size += setSer.Size(p.Weak)
	size += scoreMapMUS.Size(p.Scores)
	size += timeMUS.Size(p.LastPracticed)
	return
}

func (s grammarProgressMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

var grammarProgressSer = grammarProgressMUS{}

type readingProgressMUS struct{}

func (readingProgressMUS) Marshal(p ReadingProgress, bs []byte) (n int) {
	n = varint.Float64.Marshal(p.WordsPerMinute, bs)
	n += setSer.Marshal(p.CompletedPassages, bs[n:])
	n += scoreMapMUS.Marshal(p.DifficultyProgress, bs[n:])
	n += varint.Float64.Marshal(p.ComprehensionScore, bs[n:])
	return
}

func (readingProgressMUS) Unmarshal(bs []byte) (p ReadingProgress, n int, err error) {
	r := fieldReader{bs: bs}
	if err = readField(&r, varint.Float64, &p.WordsPerMinute); err != nil {
		return p, r.n, err
	}
	if err = readField(&r, setSer, &p.CompletedPassages); err != nil {
		return p, r.n, err
	}
	if err = readField(&r, scoreMapMUS, &p.DifficultyProgress); err != nil {
		return p, r.n, err
	}
	err = readField(&r, varint.Float64, &p.ComprehensionScore)
	return p, r.n, err
}

func (readingProgressMUS) Size(p ReadingProgress) (size int) {
	size = varint.Float64.Size(p.WordsPerMinute)
	size += setSer.Size(p.CompletedPassages)
	size += scoreMapMUS.Size(p.DifficultyProgress)
	size += varint.Float64.Size(p.ComprehensionScore)
	return
}

func (s readingProgressMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

var readingProgressSer = readingProgressMUS{}

type listeningProgressMUS struct{}

func (listeningProgressMUS) Marshal(p ListeningProgress, bs []byte) (n int) {
	n = setSer.Marshal(p.CompletedAudio, bs)
	n += varint.Float64.Marshal(p.AverageReplays, bs[n:])
	n += scoreMapMUS.Marshal(p.CategoryAccuracy, bs[n:])
	n += varint.Float64.Marshal(p.ListeningSpeed, bs[n:])
	return
}

func (listeningProgressMUS) Unmarshal(bs []byte) (p ListeningProgress, n int, err error) {
	r := fieldReader{bs: bs}
	if err = readField(&r, setSer, &p.CompletedAudio); err != nil {
		return p, r.n, err
	}
	if err = readField(&r, varint.Float64, &p.AverageReplays); err != nil {
		return p, r.n, err
	}
	if err = readField(&r, scoreMapMUS, &p.CategoryAccuracy); err != nil {
		return p, r.n, err
	}
	err = readField(&r, varint.Float64, &p.ListeningSpeed)
	return p, r.n, err
}

func (listeningProgressMUS) Size(p ListeningProgress) (size int) {
	size = setSer.Size(p.CompletedAudio)
	size += varint.Float64.Size(p.AverageReplays)
	size += scoreMapMUS.Size(p.CategoryAccuracy)
	size += varint.Float64.Size(p.ListeningSpeed)
	return
}

func (s listeningProgressMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

var listeningProgressSer = listeningProgressMUS{}

type progressRecordMUS struct{}

func (progressRecordMUS) Marshal(rec ProgressRecord, bs []byte) (n int) {
	n = ord.String.Marshal(rec.Id, bs)
	n += ord.String.Marshal(rec.UserId, bs[n:])
	n += levelSer.Marshal(rec.Level, bs[n:])
	n += varint.Int.Marshal(rec.ToeicScore, bs[n:])
	n += varint.Int.Marshal(rec.StudyTimeMinutes, bs[n:])
	n += stringSliceMUS.Marshal(rec.CompletedSections, bs[n:])
	n += vocabProgressSer.Marshal(rec.Vocabulary, bs[n:])
	n += grammarProgressSer.Marshal(rec.Grammar, bs[n:])
	n += readingProgressSer.Marshal(rec.Reading, bs[n:])
	n += listeningProgressSer.Marshal(rec.Listening, bs[n:])
	n += timeMUS.Marshal(rec.CreatedAt, bs[n:])
	n += timeMUS.Marshal(rec.UpdatedAt, bs[n:])
	return
}

func (progressRecordMUS) Unmarshal(bs []byte) (rec ProgressRecord, n int, err error) {
	r := fieldReader{bs: bs}
	if err = readField(&r, ord.String, &rec.Id); err != nil {
		return rec, r.n, err
	}
	if err = readField(&r, ord.String, &rec.UserId); err != nil {
		return rec, r.n, err
	}
	if err = readField(&r, levelSer, &rec.Level); err != nil {
		return rec, r.n, err
	}
	if err = readField(&r, varint.Int, &rec.ToeicScore); err != nil {
		return rec, r.n, err
	}
	if err = readField(&r, varint.Int, &rec.StudyTimeMinutes); err != nil {
		return rec, r.n, err
	}
	if err = readField(&r, stringSliceMUS, &rec.CompletedSections); err != nil {
		return rec, r.n, err
	}
	if err = readField(&r, vocabProgressSer, &rec.Vocabulary); err != nil {
		return rec, r.n, err
	}
	if err = readField(&r, grammarProgressSer, &rec.Grammar); err != nil {
		return rec, r.n, err
	}
	if err = readField(&r, readingProgressSer, &rec.Reading); err != nil {
		return rec, r.n, err
	}
	if err = readField(&r, listeningProgressSer, &rec.Listening); err != nil {
		return rec, r.n, err
	}
	if err = readField(&r, timeMUS, &rec.CreatedAt); err != nil {
		return rec, r.n, err
	}
	err = readField(&r, timeMUS, &rec.UpdatedAt)
	return rec, r.n, err
}

func (progressRecordMUS) Size(rec ProgressRecord) (size int) {
	size = ord.String.Size(rec.Id)
	size += ord.String.Size(rec.UserId)
	size += levelSer.Size(rec.Level)
	size += varint.Int.Size(rec.ToeicScore)
	size += varint.Int.Size(rec.StudyTimeMinutes)
	size += stringSliceMUS.Size(rec.CompletedSections)
	size += vocabProgressSer.Size(rec.Vocabulary)
	size += grammarProgressSer.Size(rec.Grammar)
	size += readingProgressSer.Size(rec.Reading)
	size += listeningProgressSer.Size(rec.Listening)
	size += timeMUS.Size(rec.CreatedAt)
	size += timeMUS.Size(rec.UpdatedAt)
	return
}

func (s progressRecordMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type sectionResultMUS struct{}

func (sectionResultMUS) Marshal(res SectionResult, bs []byte) (n int) {
	n = varint.Int.Marshal(res.Correct, bs)
	n += varint.Int.Marshal(res.Total, bs[n:])
	n += varint.Float64.Marshal(res.Accuracy, bs[n:])
	return
}

func (sectionResultMUS) Unmarshal(bs []byte) (res SectionResult, n int, err error) {
	r := fieldReader{bs: bs}
	if err = readField(&r, varint.Int, &res.Correct); err != nil {
		return res, r.n, err
	}
	if err = readField(&r, varint.Int, &res.Total); err != nil {
		return res, r.n, err
	}
	err = readField(&r, varint.Float64, &res.Accuracy)
	return res, r.n, err
}

func (sectionResultMUS) Size(res SectionResult) (size int) {
	size = varint.Int.Size(res.Correct)
	size += varint.Int.Size(res.Total)
	size += varint.Float64.Size(res.Accuracy)
	return
}

func (s sectionResultMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

var sectionMapMUS = ord.NewMapSer[string, SectionResult](ord.String, sectionResultMUS{})

type sessionResultMUS struct{}

func (sessionResultMUS) Marshal(res SessionResult, bs []byte) (n int) {
	n = ord.String.Marshal(res.Id, bs)
	n += ord.String.Marshal(res.UserId, bs[n:])
	n += timeMUS.Marshal(res.Date, bs[n:])
	n += varint.Int.Marshal(res.DurationMinutes, bs[n:])
	n += sectionMapMUS.Marshal(res.SectionResults, bs[n:])
	n += varint.Int.Marshal(res.TotalScore, bs[n:])
	n += varint.Float64.Marshal(res.OverallAccuracy, bs[n:])
	return
}

func (sessionResultMUS) Unmarshal(bs []byte) (res SessionResult, n int, err error) {
	r := fieldReader{bs: bs}
	if err = readField(&r, ord.String, &res.Id); err != nil {
		return res, r.n, err
	}
	if err = readField(&r, ord.String, &res.UserId); err != nil {
		return res, r.n, err
	}
	if err = readField(&r, timeMUS, &res.Date); err != nil {
		return res, r.n, err
	}
	if err = readField(&r, varint.Int, &res.DurationMinutes); err != nil {
		return res, r.n, err
	}
	if err = readField(&r, sectionMapMUS, &res.SectionResults); err != nil {
		return res, r.n, err
	}
	if err = readField(&r, varint.Int, &res.TotalScore); err != nil {
		return res, r.n, err
	}
	err = readField(&r, varint.Float64, &res.OverallAccuracy)
	return res, r.n, err
}

func (sessionResultMUS) Size(res SessionResult) (size int) {
	size = ord.String.Size(res.Id)
	size += ord.String.Size(res.UserId)
	size += timeMUS.Size(res.Date)
	size += varint.Int.Size(res.DurationMinutes)
	size += sectionMapMUS.Size(res.SectionResults)
	size += varint.Int.Size(res.TotalScore)
	size += varint.Float64.Size(res.OverallAccuracy)
	return
}

func (s sessionResultMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type vocabularyMasteryMUS struct{}

func (vocabularyMasteryMUS) Marshal(m VocabularyMastery, bs []byte) (n int) {
	n = ord.String.Marshal(m.ItemId, bs)
	n += ord.String.Marshal(m.UserId, bs[n:])
	n += levelSer.Marshal(m.Level, bs[n:])
	n += varint.Int.Marshal(m.MasteryLevel, bs[n:])
	n += varint.Int.Marshal(m.CorrectCount, bs[n:])
	n += varint.Int.Marshal(m.IncorrectCount, bs[n:])
	n += timeMUS.Marshal(m.LastReviewed, bs[n:])
	n += timeMUS.Marshal(m.NextReview, bs[n:])
	return
}

func (vocabularyMasteryMUS) Unmarshal(bs []byte) (m VocabularyMastery, n int, err error) {
	r := fieldReader{bs: bs}
	if err = readField(&r, ord.String, &m.ItemId); err != nil {
		return m, r.n, err
	}
	if err = readField(&r, ord.String, &m.UserId); err != nil {
		return m, r.n, err
	}
	if err = readField(&r, levelSer, &m.Level); err != nil {
		return m, r.n, err
	}
	if err = readField(&r, varint.Int, &m.MasteryLevel); err != nil {
		return m, r.n, err
	}
	if err = readField(&r, varint.Int, &m.CorrectCount); err != nil {
		return m, r.n, err
	}
	if err = readField(&r, varint.Int, &m.IncorrectCount); err != nil {
		return m, r.n, err
	}
	if err = readField(&r, timeMUS, &m.LastReviewed); err != nil {
		return m, r.n, err
	}
	err = readField(&r, timeMUS, &m.NextReview)
	return m, r.n, err
}

func (vocabularyMasteryMUS) Size(m VocabularyMastery) (size int) {
	size = ord.String.Size(m.ItemId)
	size += ord.String.Size(m.UserId)
	size += levelSer.Size(m.Level)
	size += varint.Int.Size(m.MasteryLevel)
	size += varint.Int.Size(m.CorrectCount)
	size += varint.Int.Size(m.IncorrectCount)
	size += timeMUS.Size(m.LastReviewed)
	size += timeMUS.Size(m.NextReview)
	return
}

func (s vocabularyMasteryMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type userSettingsMUS struct{}

func (userSettingsMUS) Marshal(st UserSettings, bs []byte) (n int) {
	n = ord.String.Marshal(st.UserId, bs)
	n += ord.ByteSlice.Marshal(st.Payload, bs[n:])
	n += timeMUS.Marshal(st.UpdatedAt, bs[n:])
	return
}

func (userSettingsMUS) Unmarshal(bs []byte) (st UserSettings, n int, err error) {
	r := fieldReader{bs: bs}
	if err = readField(&r, ord.String, &st.UserId); err != nil {
		return st, r.n, err
	}
	if err = readField(&r, ord.ByteSlice, &st.Payload); err != nil {
		return st, r.n, err
	}
	err = readField(&r, timeMUS, &st.UpdatedAt)
	return st, r.n, err
}

func (userSettingsMUS) Size(st UserSettings) (size int) {
	size = ord.String.Size(st.UserId)
	size += ord.ByteSlice.Size(st.Payload)
	size += timeMUS.Size(st.UpdatedAt)
	return
}

func (s userSettingsMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}
