package store_test

import (
	"context"
	"testing"

	"github.com/phrazzld/atlas-api/internal/domain"
	"github.com/phrazzld/atlas-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotFixture(t *testing.T) map[string]domain.GenerationJob {
	t.Helper()

	jp, err := domain.NewGenerationJob("jp", "Japan", domain.KindInsights)
	require.NoError(t, err)
	jp.Total = 12
	jp.Completed = 4
	jp.Message = "Generating economy"

	br, err := domain.NewGenerationJob("br", "Brazil", domain.KindReports)
	require.NoError(t, err)
	br.Total = 5

	return map[string]domain.GenerationJob{
		"jp": *jp,
		"br": *br,
	}
}

func TestMemoryStoreSaveAndLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemoryStore()
	jobs := snapshotFixture(t)

	require.NoError(t, s.Save(ctx, jobs))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
	assert.Equal(t, "Japan", loaded["jp"].SubjectLabel)
	assert.Equal(t, 4, loaded["jp"].Completed)
	assert.Equal(t, domain.KindReports, loaded["br"].Kind)
}

func TestMemoryStoreLoadWhenEmpty(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()

	loaded, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, loaded, "an empty store should return an empty map, not nil")
	assert.Empty(t, loaded)
}

func TestMemoryStoreSaveReplacesWholesale(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemoryStore()

	require.NoError(t, s.Save(ctx, snapshotFixture(t)))

	// A later save fully replaces the previous snapshot.
	solo, err := domain.NewGenerationJob("fr", "France", domain.KindInsights)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, map[string]domain.GenerationJob{"fr": *solo}))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
	assert.Contains(t, loaded, "fr")
	assert.NotContains(t, loaded, "jp")
}

func TestMemoryStoreSaveEmptyClearsSlot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemoryStore()

	require.NoError(t, s.Save(ctx, snapshotFixture(t)))
	require.NoError(t, s.Save(ctx, map[string]domain.GenerationJob{}))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	// nil behaves the same as an empty map.
	require.NoError(t, s.Save(ctx, snapshotFixture(t)))
	require.NoError(t, s.Save(ctx, nil))

	loaded, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestMemoryStoreCopiesOnSaveAndLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemoryStore()
	jobs := snapshotFixture(t)

	require.NoError(t, s.Save(ctx, jobs))

	// Mutating the caller's map after Save must not affect the store.
	mutated := jobs["jp"]
	mutated.Completed = 99
	jobs["jp"] = mutated

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded["jp"].Completed)

	// Mutating a loaded map must not affect later loads.
	fromLoad := loaded["jp"]
	fromLoad.Message = "tampered"
	fromLoad.Errors = append(fromLoad.Errors, domain.JobError{Stage: "x", Message: "y"})
	loaded["jp"] = fromLoad

	reloaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Generating economy", reloaded["jp"].Message)
	assert.Empty(t, reloaded["jp"].Errors)
}

func TestMemoryStoreClose(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.Save(ctx, snapshotFixture(t)))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "closing twice should be harmless")

	err := s.Save(ctx, snapshotFixture(t))
	assert.ErrorIs(t, err, store.ErrClosed)

	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, store.ErrClosed)
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	t.Run("with wrapped error", func(t *testing.T) {
		t.Parallel()

		inner := store.ErrCorruptSnapshot
		err := store.NewStoreError("load", "decoding persisted payload", inner)

		assert.ErrorIs(t, err, store.ErrCorruptSnapshot)
		assert.Contains(t, err.Error(), "snapshot load failed")
		assert.Contains(t, err.Error(), "decoding persisted payload")
	})

	t.Run("without wrapped error", func(t *testing.T) {
		t.Parallel()

		err := store.NewStoreError("save", "nothing to write", nil)

		assert.NoError(t, err.Unwrap())
		assert.Equal(t, "snapshot save failed: nothing to write", err.Error())
	})
}

// Compile-time check that *MemoryStore satisfies SnapshotStore.
var _ store.SnapshotStore = (*store.MemoryStore)(nil)
