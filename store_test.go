package lexora

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lexora-app/lexora/core"
	"github.com/lexora-app/lexora/storage"
	"github.com/lexora-app/lexora/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Run("create new store", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_store")
		store, err := Open(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, store)
		defer store.Close()

		version, err := store.SchemaVersion()
		require.NoError(t, err)
		assert.Equal(t, badger.CurrentSchemaVersion, version)

		assert.NotNil(t, store.ProgressRepository())
		assert.NotNil(t, store.SessionRepository())
		assert.NotNil(t, store.VocabularyRepository())
		assert.NotNil(t, store.SettingsRepository())
	})

	t.Run("reopen keeps data", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_store")
		ctx := context.Background()
		now := time.Now().UTC().Truncate(time.Microsecond)

		store, err := Open(tmpDir)
		require.NoError(t, err)
		require.NoError(t, store.SaveProgress(ctx, &core.ProgressRecord{
			Id: "rec-1", UserId: "user-1", Level: core.LevelBasic,
			CreatedAt: now, UpdatedAt: now,
		}))
		require.NoError(t, store.Close())

		store, err = Open(tmpDir)
		require.NoError(t, err)
		defer store.Close()

		record, err := store.LatestProgress(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "rec-1", record.Id)
	})
}

func TestStore_SessionHistoryDefaults(t *testing.T) {
	store, err := Open("", WithInMemory())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	// More sessions than the default history window.
	for i := 0; i < DefaultSessionHistoryLimit+10; i++ {
		require.NoError(t, store.SaveSessionResult(ctx, &core.SessionResult{
			Id:     "sess-" + time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i).Format("2006-01-02"),
			UserId: "user-1",
			Date:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, i),
		}))
	}

	history, err := store.SessionHistory(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, history, DefaultSessionHistoryLimit)

	// Newest first.
	assert.True(t, history[0].Date.After(history[len(history)-1].Date))

	all, err := store.SessionHistoryN(ctx, "user-1", DefaultSessionHistoryLimit+10)
	require.NoError(t, err)
	assert.Len(t, all, DefaultSessionHistoryLimit+10)
}

func TestStore_VocabularyAndSettings(t *testing.T) {
	store, err := Open("", WithInMemory())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	require.NoError(t, store.SaveVocabularyMastery(ctx, &core.VocabularyMastery{
		ItemId: "invoice", UserId: "user-1", MasteryLevel: 2,
	}))
	require.NoError(t, store.SaveVocabularyMastery(ctx, &core.VocabularyMastery{
		ItemId: "tariff", UserId: "user-1", MasteryLevel: 4,
	}))
	mastery, err := store.VocabularyMastery(ctx, "user-1", "invoice")
	require.NoError(t, err)
	assert.Equal(t, 2, mastery.MasteryLevel)

	all, err := store.VocabularyMasteryByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 4, all["tariff"].MasteryLevel)

	require.NoError(t, store.SaveSettings(ctx, &core.UserSettings{
		UserId: "user-1", Payload: []byte(`{"theme":"dark"}`),
	}))
	settings, err := store.Settings(ctx, "user-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark"}`, string(settings.Payload))
}

func TestStore_BackupRoundTrip(t *testing.T) {
	source, err := Open("", WithInMemory())
	require.NoError(t, err)
	defer source.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, source.SaveProgress(ctx, &core.ProgressRecord{
		Id: "rec-1", UserId: "user-1", Level: core.LevelAdvanced,
		ToeicScore: 850, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, source.SaveSessionResult(ctx, &core.SessionResult{
		Id: "sess-1", UserId: "user-1", Date: now,
	}))
	require.NoError(t, source.SaveVocabularyMastery(ctx, &core.VocabularyMastery{
		ItemId: "invoice", UserId: "user-1", MasteryLevel: 4,
	}))

	data, err := source.ExportJSON(ctx, "user-1")
	require.NoError(t, err)

	// The exported document is stamped with the store's schema version.
	var doc struct {
		Version int `json:"version"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	schemaVersion, err := source.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, schemaVersion, doc.Version)

	target, err := Open("", WithInMemory())
	require.NoError(t, err)
	defer target.Close()

	require.NoError(t, target.ImportJSON(ctx, data))

	record, err := target.LatestProgress(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 850, record.ToeicScore)

	mastery, err := target.VocabularyMastery(ctx, "user-1", "invoice")
	require.NoError(t, err)
	assert.Equal(t, 4, mastery.MasteryLevel)
}

func TestStore_ComputeStatistics(t *testing.T) {
	store, err := Open("", WithInMemory())
	require.NoError(t, err)
	defer store.Close()

	stats, err := store.ComputeStatistics(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, stats.SessionCount)
	assert.Nil(t, stats.LastStudyDate)
}

func TestStore_ClearUser(t *testing.T) {
	store, err := Open("", WithInMemory())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	for _, userID := range []string{"user-a", "user-b"} {
		require.NoError(t, store.SaveProgress(ctx, &core.ProgressRecord{
			Id: userID + "-rec", UserId: userID, Level: core.LevelBasic,
			CreatedAt: now, UpdatedAt: now,
		}))
	}

	require.NoError(t, store.ClearUser(ctx, "user-a"))

	_, err = store.LatestProgress(ctx, "user-a")
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	record, err := store.LatestProgress(ctx, "user-b")
	require.NoError(t, err)
	assert.Equal(t, "user-b-rec", record.Id)
}

func TestStore_SchemaVersionOption(t *testing.T) {
	store, err := Open("", WithInMemory(), WithSchemaVersion(1))
	require.NoError(t, err)
	defer store.Close()

	version, err := store.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}
