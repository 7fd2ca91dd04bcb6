package core

import (
	"encoding/binary"
	"fmt"
	"sort"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// KeyFromContent derives a deterministic record key from text content using
// BLAKE2b hashing. Identical content always produces the identical key, which
// is what makes vocabulary mastery records upsertable by (user, item).
func KeyFromContent(text string) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return fmt.Sprintf("%016x", binary.LittleEndian.Uint64(sum))
}

// VocabularyKey derives the composite record key for a user's mastery state
// on one vocabulary item. Keys are scoped per user: two users sharing an item
// id never collide.
func VocabularyKey(userID, itemID string) string {
	return KeyFromContent(userID + "/" + itemID)
}

// Level is a learner's proficiency level.
type Level int

const (
	// LevelBasic is the entry proficiency level.
	LevelBasic Level = iota + 1
	// LevelIntermediate is the second proficiency level.
	LevelIntermediate
	// LevelAdvanced is the third proficiency level.
	LevelAdvanced
	// LevelExpert is the highest proficiency level.
	LevelExpert
)

// String returns the canonical name of the level, as used in the portable
// backup document.
func (l Level) String() string {
	switch l {
	case LevelBasic:
		return "basic"
	case LevelIntermediate:
		return "intermediate"
	case LevelAdvanced:
		return "advanced"
	case LevelExpert:
		return "expert"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel parses a canonical level name.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "basic":
		return LevelBasic, nil
	case "intermediate":
		return LevelIntermediate, nil
	case "advanced":
		return LevelAdvanced, nil
	case "expert":
		return LevelExpert, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// StringSet is an unordered collection of unique strings. Record fields use
// it for membership-style state (known words, completed passages, and so on);
// the codec flattens it to an ordered sequence for storage.
type StringSet map[string]struct{}

// NewStringSet builds a set from the given elements, dropping duplicates.
func NewStringSet(elems ...string) StringSet {
	s := make(StringSet, len(elems))
	for _, e := range elems {
		s[e] = struct{}{}
	}
	return s
}

// Add inserts an element into the set.
func (s StringSet) Add(elem string) {
	s[elem] = struct{}{}
}

// Has reports whether the set contains the element.
func (s StringSet) Has(elem string) bool {
	_, ok := s[elem]
	return ok
}

// Elems returns the elements in sorted order. Sorting keeps encoded bytes
// stable; set order itself carries no meaning.
func (s StringSet) Elems() []string {
	elems := make([]string, 0, len(s))
	for e := range s {
		elems = append(elems, e)
	}
	sort.Strings(elems)
	return elems
}

// VocabularyProgress is the vocabulary sub-structure of a ProgressRecord.
type VocabularyProgress struct {
	Known        StringSet
	Studied      StringSet
	Weak         StringSet
	Mastered     StringSet
	LastReviewed map[string]time.Time // item id -> last review time
	StreakDays   int
}

// GrammarProgress is the grammar sub-structure of a ProgressRecord.
type GrammarProgress struct {
	Mastered      StringSet
	Weak          StringSet
	Scores        map[string]float64 // category -> score
	LastPracticed time.Time
}

// ReadingProgress is the reading sub-structure of a ProgressRecord.
type ReadingProgress struct {
	WordsPerMinute     float64
	CompletedPassages  StringSet
	DifficultyProgress map[string]float64 // difficulty label -> progress
	ComprehensionScore float64
}

// ListeningProgress is the listening sub-structure of a ProgressRecord.
type ListeningProgress struct {
	CompletedAudio   StringSet
	AverageReplays   float64
	CategoryAccuracy map[string]float64 // category -> accuracy
	ListeningSpeed   float64
}

// ProgressRecord is one snapshot of a user's overall learning progress.
// Multiple records may exist per user over time; the latest by UpdatedAt is
// authoritative.
type ProgressRecord struct {
	Id                string
	UserId            string
	Level             Level
	ToeicScore        int
	StudyTimeMinutes  int
	CompletedSections []string
	Vocabulary        VocabularyProgress
	Grammar           GrammarProgress
	Reading           ReadingProgress
	Listening         ListeningProgress
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SectionResult is the outcome of one section within a study session.
type SectionResult struct {
	Correct  int
	Total    int
	Accuracy float64
}

// SessionResult records one completed study session. Records are immutable
// after creation; a put with an existing id is treated as an idempotent
// retry and overwrites.
type SessionResult struct {
	Id              string
	UserId          string
	Date            time.Time
	DurationMinutes int
	SectionResults  map[string]SectionResult // section name -> result
	TotalScore      int
	OverallAccuracy float64
}

// MaxMasteryLevel is the highest vocabulary mastery level.
const MaxMasteryLevel = 5

// VocabularyMastery is the per-item review state for one user and one
// vocabulary item. Created on first exposure, updated on every review.
type VocabularyMastery struct {
	ItemId         string
	UserId         string
	Level          Level // difficulty level of the item
	MasteryLevel   int   // 0..MaxMasteryLevel
	CorrectCount   int
	IncorrectCount int
	LastReviewed   time.Time
	NextReview     time.Time
}

// Key returns the composite record key for this mastery state.
func (m *VocabularyMastery) Key() string {
	return VocabularyKey(m.UserId, m.ItemId)
}

// UserSettings is an opaque per-user preference blob, overwritten whole on
// every preference write.
type UserSettings struct {
	UserId    string
	Payload   []byte
	UpdatedAt time.Time
}
