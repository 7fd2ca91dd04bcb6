package badger

import (
	"context"
	"testing"
	"time"

	"github.com/lexora-app/lexora/core"
	"github.com/lexora-app/lexora/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSchema_FreshStore(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	version, err := backend.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 0, version)

	require.NoError(t, backend.EnsureSchema(ctx, CurrentSchemaVersion))

	version, err = backend.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)

	manifests, err := backend.Collections()
	require.NoError(t, err)
	assert.Contains(t, manifests, CollectionProgress)
	assert.Contains(t, manifests, CollectionSessions)
	assert.Contains(t, manifests, CollectionVocabulary)
	assert.Contains(t, manifests, CollectionSettings)
	assert.Contains(t, manifests[CollectionProgress], "toeicScore")
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, backend.EnsureSchema(ctx, CurrentSchemaVersion))
	require.NoError(t, backend.EnsureSchema(ctx, CurrentSchemaVersion))

	// Asking for an older version after upgrading is a no-op, not a
	// downgrade.
	require.NoError(t, backend.EnsureSchema(ctx, 1))

	version, err := backend.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestEnsureSchema_InvalidVersion(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	assert.ErrorIs(t, backend.EnsureSchema(ctx, 0), storage.ErrSchemaUpgradeFailed)
	assert.ErrorIs(t, backend.EnsureSchema(ctx, CurrentSchemaVersion+1), storage.ErrSchemaUpgradeFailed)
}

func TestEnsureSchema_StepwiseUpgrade(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, backend.EnsureSchema(ctx, 1))

	// v1 has no settings collection and no score index.
	manifests, err := backend.Collections()
	require.NoError(t, err)
	assert.Contains(t, manifests, CollectionProgress)
	assert.NotContains(t, manifests, CollectionSettings)
	assert.NotContains(t, manifests[CollectionProgress], "toeicScore")

	require.NoError(t, backend.EnsureSchema(ctx, 2))
	manifests, err = backend.Collections()
	require.NoError(t, err)
	assert.Contains(t, manifests, CollectionSettings)

	require.NoError(t, backend.EnsureSchema(ctx, 3))
	manifests, err = backend.Collections()
	require.NoError(t, err)
	assert.Contains(t, manifests[CollectionProgress], "toeicScore")
}

func TestEnsureSchema_ScoreIndexBackfill(t *testing.T) {
	backend, err := NewMemoryBackend(1)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	repo := NewProgressRepository(backend)

	// Records written at v1 never touched the score index.
	scores := map[string]int{"rec-low": 450, "rec-mid": 650, "rec-high": 850}
	for id, score := range scores {
		require.NoError(t, repo.PutProgress(ctx, &core.ProgressRecord{
			Id: id, UserId: "user-1", Level: core.LevelBasic,
			ToeicScore: score, CreatedAt: now, UpdatedAt: now,
		}))
	}

	_, err = repo.GetProgressByScoreRange(ctx, 0, 990)
	assert.ErrorIs(t, err, storage.ErrNotInitialized)

	// Upgrading to v3 backfills the index from existing records.
	require.NoError(t, backend.EnsureSchema(ctx, 3))

	results, err := repo.GetProgressByScoreRange(ctx, 600, 900)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "rec-mid", results[0].Id)
	assert.Equal(t, "rec-high", results[1].Id)

	// Records survive the upgrade untouched.
	record, err := repo.GetProgress(ctx, "rec-low")
	require.NoError(t, err)
	assert.Equal(t, 450, record.ToeicScore)
}

func TestSettingsRequireSchemaV2(t *testing.T) {
	backend, err := NewMemoryBackend(1)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	repo := NewSettingsRepository(backend)

	err = repo.PutSettings(ctx, &core.UserSettings{UserId: "user-1"})
	assert.ErrorIs(t, err, storage.ErrNotInitialized)

	require.NoError(t, backend.EnsureSchema(ctx, 2))
	assert.NoError(t, repo.PutSettings(ctx, &core.UserSettings{UserId: "user-1"}))
}
