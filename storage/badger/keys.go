package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/lexora-app/lexora/core"
)

// Collection names as the application knows them. They are fixed constants,
// not runtime configuration.
const (
	CollectionProgress   = "learningProgress"
	CollectionSessions   = "sessionResults"
	CollectionVocabulary = "vocabularyData"
	CollectionSettings   = "userSettings"
)

// Key prefixes for different data types
const (
	progressPrefix      = "prorec"  // primary records
	progressUserPrefix  = "prorecu" // userId index
	progressScorePrefix = "prorecs" // toeicScore index (schema v3)
	sessionPrefix       = "sesrec"  // primary records
	sessionUserPrefix   = "sesrecu" // userId index
	sessionDatePrefix   = "sesrecd" // per-user date index
	sessionTimePrefix   = "sesrect" // global date index
	vocabPrefix         = "vocrec"  // primary records
	vocabUserPrefix     = "vocrecu" // userId index
	vocabLevelPrefix    = "vocrecl" // per-user item-level index
	vocabMasteryPrefix  = "vocrecm" // per-user mastery-level index
	settingsPrefix      = "setrec"  // primary records
	manifestPrefix      = "colrec"  // collection manifests
	schemaVersionKey    = "schver"  // persisted schema version
)

// makeProgressKey generates a key for a progress record by id.
func makeProgressKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", progressPrefix, id))
}

// makeProgressUserKey generates a composite key for the progress userId index.
// Format: prefix:userID:recordID
func makeProgressUserKey(userID, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", progressUserPrefix, userID, id))
}

// makePartialProgressUserKey generates the scan prefix for one user's
// progress index entries.
func makePartialProgressUserKey(userID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", progressUserPrefix, userID))
}

// makeProgressScoreKey generates a composite key for the toeicScore index.
// Format: prefix:score:recordID, score in BigEndian so lexicographic order
// is numeric order.
func makeProgressScoreKey(score int, id string) []byte {
	prefix := []byte(progressScorePrefix + ":")
	buf := make([]byte, len(prefix)+4+len(id))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], uint32(score))
	offset += 4
	copy(buf[offset:], id)
	return buf
}

// makePartialProgressScoreKey generates a partial key for score range scans.
func makePartialProgressScoreKey(score int) []byte {
	prefix := []byte(progressScorePrefix + ":")
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], uint32(score))
	return buf
}

// makeSessionKey generates a key for a session result by id.
func makeSessionKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", sessionPrefix, id))
}

// makeSessionUserKey generates a composite key for the session userId index.
func makeSessionUserKey(userID, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", sessionUserPrefix, userID, id))
}

// makePartialSessionUserKey generates the scan prefix for one user's session
// index entries.
func makePartialSessionUserKey(userID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", sessionUserPrefix, userID))
}

// makeSessionDateKey generates a composite key for the per-user date index.
// Format: prefix:userID:timestamp:sessionID, timestamp in BigEndian so
// lexicographic order is chronological order.
func makeSessionDateKey(userID string, date time.Time, id string) []byte {
	prefix := []byte(sessionDatePrefix + ":" + userID + ":")
	buf := make([]byte, len(prefix)+8+len(id))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(date.UnixMicro()))
	offset += 8
	copy(buf[offset:], id)
	return buf
}

// makePartialSessionDateKey generates a partial key for per-user date scans.
func makePartialSessionDateKey(userID string, date time.Time) []byte {
	prefix := []byte(sessionDatePrefix + ":" + userID + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(date.UnixMicro()))
	return buf
}

// makeSessionTimeKey generates a composite key for the global date index.
func makeSessionTimeKey(date time.Time, id string) []byte {
	prefix := []byte(sessionTimePrefix + ":")
	buf := make([]byte, len(prefix)+8+len(id))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(date.UnixMicro()))
	offset += 8
	copy(buf[offset:], id)
	return buf
}

// makePartialSessionTimeKey generates a partial key for global date range
// scans.
func makePartialSessionTimeKey(date time.Time) []byte {
	prefix := []byte(sessionTimePrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(date.UnixMicro()))
	return buf
}

// makeVocabularyRecordKey generates a key for a mastery record by its
// composite per-user key (see core.VocabularyKey).
func makeVocabularyRecordKey(key string) []byte {
	return []byte(fmt.Sprintf("%s:%s", vocabPrefix, key))
}

// makeVocabularyUserKey generates a composite key for the vocabulary userId
// index.
func makeVocabularyUserKey(userID, key string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", vocabUserPrefix, userID, key))
}

// makePartialVocabularyUserKey generates the scan prefix for one user's
// vocabulary index entries.
func makePartialVocabularyUserKey(userID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", vocabUserPrefix, userID))
}

// makeVocabularyLevelKey generates a composite key for the per-user item
// difficulty index.
func makeVocabularyLevelKey(userID string, level core.Level, key string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d:%s", vocabLevelPrefix, userID, int(level), key))
}

// makePartialVocabularyLevelKey generates the scan prefix for one user and
// difficulty level.
func makePartialVocabularyLevelKey(userID string, level core.Level) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d:", vocabLevelPrefix, userID, int(level)))
}

// makeVocabularyMasteryKey generates a composite key for the per-user
// mastery-level index.
func makeVocabularyMasteryKey(userID string, masteryLevel int, key string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d:%s", vocabMasteryPrefix, userID, masteryLevel, key))
}

// makePartialVocabularyMasteryKey generates the scan prefix for one user and
// mastery level.
func makePartialVocabularyMasteryKey(userID string, masteryLevel int) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d:", vocabMasteryPrefix, userID, masteryLevel))
}

// makeSettingsKey generates a key for a user's settings record.
func makeSettingsKey(userID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", settingsPrefix, userID))
}

// makeManifestKey generates a key for a collection manifest.
func makeManifestKey(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s", manifestPrefix, collection))
}
