package local

import (
	"context"
	"testing"

	"github.com/colonyops/cadence/internal/core/persist"
	"github.com/colonyops/cadence/internal/core/progress"
	"github.com/colonyops/cadence/internal/core/schedule"
	"github.com/colonyops/cadence/internal/data/db"
	"github.com/colonyops/cadence/internal/data/stores"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*stores.KVStore, *db.DB) {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return stores.NewKVStore(database), database
}

func TestAdapter_LoadEmpty(t *testing.T) {
	store, _ := newTestStore(t)
	a := New(store, "local")

	data, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, progress.EmptyData(), data)
	assert.Equal(t, "local(local)", a.Name())
}

func TestAdapter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	a := New(store, "local")

	it := progress.New("two-sum", "Two Sum", "https://example.com", "Arrays", "Hashing")
	it.Solve(schedule.DefaultLadder, schedule.MustParseDate("2024-01-01"))
	data := progress.EmptyData()
	data.Problems[it.ID] = it
	data.DeletedIDs = []string{"3sum"}

	require.NoError(t, a.Save(ctx, data))

	got, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	has, err := store.Has(ctx, "local:progress")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, a.Clear(ctx))
	got, err = a.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Problems)
}

func TestAdapter_KeyspacesDoNotMix(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	anon := New(store, "local")
	user := New(store, "user:u1")

	data := progress.EmptyData()
	data.Problems["a"] = progress.New("a", "A", "", "", "")
	require.NoError(t, user.Save(ctx, data))

	got, err := anon.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Problems)
}

func TestAdapter_StorageFailure(t *testing.T) {
	ctx := context.Background()
	store, database := newTestStore(t)
	a := New(store, "local")

	require.NoError(t, database.Close())

	err := a.Save(ctx, progress.EmptyData())
	require.Error(t, err)
	assert.ErrorIs(t, err, persist.ErrStorage)

	_, err = a.Load(ctx)
	assert.ErrorIs(t, err, persist.ErrStorage)
}
