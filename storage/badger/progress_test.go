package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lexora-app/lexora/core"
	"github.com/lexora-app/lexora/storage"
)

func newTestProgressRecord(id, userID string, updatedAt time.Time) *core.ProgressRecord {
	return &core.ProgressRecord{
		Id:         id,
		UserId:     userID,
		Level:      core.LevelIntermediate,
		ToeicScore: 650,
		CreatedAt:  updatedAt.Add(-time.Hour),
		UpdatedAt:  updatedAt,
	}
}

func TestProgressRecordBasics(t *testing.T) {
	repo, _, _, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	record := newTestProgressRecord("rec-1", "user-1", now)
	record.Vocabulary.Mastered = core.NewStringSet("invoice", "agenda")

	if err := repo.PutProgress(ctx, record); err != nil {
		t.Fatalf("Failed to put progress record: %v", err)
	}

	retrieved, err := repo.GetProgress(ctx, "rec-1")
	if err != nil {
		t.Fatalf("Failed to get progress record: %v", err)
	}
	if retrieved.UserId != "user-1" {
		t.Fatalf("Expected user-1, got %s", retrieved.UserId)
	}
	if !retrieved.Vocabulary.Mastered.Has("invoice") {
		t.Fatal("Expected mastered set to survive the round trip")
	}
	if !retrieved.UpdatedAt.Equal(now) {
		t.Fatalf("Expected UpdatedAt %v, got %v", now, retrieved.UpdatedAt)
	}
}

func TestProgressRecord_NotFound(t *testing.T) {
	repo, _, _, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	_, err = repo.GetProgress(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	_, err = repo.GetLatestProgress(context.Background(), "nobody")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestPutProgress_Invalid(t *testing.T) {
	repo, _, _, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	record := newTestProgressRecord("", "user-1", time.Now().UTC())
	if err := repo.PutProgress(context.Background(), record); !errors.Is(err, core.ErrInvalidProgressRecord) {
		t.Fatalf("Expected validation error, got %v", err)
	}
}

func TestPutProgress_IdempotentOverwrite(t *testing.T) {
	repo, _, _, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	record := newTestProgressRecord("rec-1", "user-1", now)
	if err := repo.PutProgress(ctx, record); err != nil {
		t.Fatalf("Failed to put record: %v", err)
	}

	// Overwrite with a different score; the old score index entry must be
	// re-pointed, not duplicated.
	record.ToeicScore = 800
	if err := repo.PutProgress(ctx, record); err != nil {
		t.Fatalf("Failed to overwrite record: %v", err)
	}

	records, err := repo.GetProgressByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("Failed to get records by user: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record after overwrite, got %d", len(records))
	}
	if records[0].ToeicScore != 800 {
		t.Fatalf("Expected score 800, got %d", records[0].ToeicScore)
	}

	// The stale score must no longer appear in range queries.
	stale, err := repo.GetProgressByScoreRange(ctx, 600, 700)
	if err != nil {
		t.Fatalf("Failed to query score range: %v", err)
	}
	if len(stale) != 0 {
		t.Fatalf("Expected no records at the old score, got %d", len(stale))
	}
}

func TestPutProgress_UserChangeRepointsUserIndex(t *testing.T) {
	repo, _, _, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	if err := repo.PutProgress(ctx, newTestProgressRecord("rec-1", "user-a", now)); err != nil {
		t.Fatalf("Failed to put record: %v", err)
	}

	// Re-putting the same id under another user must move it in the userId
	// index, not leave it listed under both.
	if err := repo.PutProgress(ctx, newTestProgressRecord("rec-1", "user-b", now)); err != nil {
		t.Fatalf("Failed to overwrite record: %v", err)
	}

	orphaned, err := repo.GetProgressByUser(ctx, "user-a")
	if err != nil {
		t.Fatalf("Failed to get records for old user: %v", err)
	}
	if len(orphaned) != 0 {
		t.Fatalf("Expected no records under the old user, got %d", len(orphaned))
	}

	records, err := repo.GetProgressByUser(ctx, "user-b")
	if err != nil {
		t.Fatalf("Failed to get records for new user: %v", err)
	}
	if len(records) != 1 || records[0].Id != "rec-1" {
		t.Fatalf("Expected rec-1 under the new user, got %v", records)
	}
}

func TestGetLatestProgress(t *testing.T) {
	repo, _, _, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"rec-a", "rec-b", "rec-c"} {
		record := newTestProgressRecord(id, "user-1", base.Add(time.Duration(i)*time.Hour))
		if err := repo.PutProgress(ctx, record); err != nil {
			t.Fatalf("Failed to put record %s: %v", id, err)
		}
	}

	latest, err := repo.GetLatestProgress(ctx, "user-1")
	if err != nil {
		t.Fatalf("Failed to get latest progress: %v", err)
	}
	if latest.Id != "rec-c" {
		t.Fatalf("Expected rec-c as latest, got %s", latest.Id)
	}
}

func TestGetLatestProgress_TieBreak(t *testing.T) {
	repo, _, _, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	same := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// Equal timestamps break toward the lexicographically largest id.
	for _, id := range []string{"rec-b", "rec-a", "rec-c"} {
		if err := repo.PutProgress(ctx, newTestProgressRecord(id, "user-1", same)); err != nil {
			t.Fatalf("Failed to put record %s: %v", id, err)
		}
	}

	latest, err := repo.GetLatestProgress(ctx, "user-1")
	if err != nil {
		t.Fatalf("Failed to get latest progress: %v", err)
	}
	if latest.Id != "rec-c" {
		t.Fatalf("Expected deterministic tie-break to rec-c, got %s", latest.Id)
	}
}

func TestGetProgressByUser_Isolation(t *testing.T) {
	repo, _, _, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	if err := repo.PutProgress(ctx, newTestProgressRecord("rec-1", "user-a", now)); err != nil {
		t.Fatalf("Failed to put record: %v", err)
	}
	if err := repo.PutProgress(ctx, newTestProgressRecord("rec-2", "user-b", now)); err != nil {
		t.Fatalf("Failed to put record: %v", err)
	}

	records, err := repo.GetProgressByUser(ctx, "user-a")
	if err != nil {
		t.Fatalf("Failed to get records by user: %v", err)
	}
	if len(records) != 1 || records[0].Id != "rec-1" {
		t.Fatalf("Expected only rec-1 for user-a, got %v", records)
	}
}

func TestGetProgressByScoreRange(t *testing.T) {
	repo, _, _, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	scores := map[string]int{"rec-1": 400, "rec-2": 600, "rec-3": 750, "rec-4": 900}
	for id, score := range scores {
		record := newTestProgressRecord(id, "user-1", now)
		record.ToeicScore = score
		if err := repo.PutProgress(ctx, record); err != nil {
			t.Fatalf("Failed to put record %s: %v", id, err)
		}
	}

	// Inclusive range, ordered by score ascending.
	results, err := repo.GetProgressByScoreRange(ctx, 600, 750)
	if err != nil {
		t.Fatalf("Failed to query score range: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(results))
	}
	if results[0].Id != "rec-2" || results[1].Id != "rec-3" {
		t.Fatalf("Expected rec-2 then rec-3, got %s then %s", results[0].Id, results[1].Id)
	}

	// Empty and inverted ranges are empty, not errors.
	results, err = repo.GetProgressByScoreRange(ctx, 910, 990)
	if err != nil {
		t.Fatalf("Failed to query empty range: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("Expected no records, got %d", len(results))
	}

	results, err = repo.GetProgressByScoreRange(ctx, 700, 600)
	if err != nil {
		t.Fatalf("Failed to query inverted range: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("Expected no records for inverted range, got %d", len(results))
	}
}
