package stores

import (
	"context"
	"testing"

	"github.com/colonyops/cadence/internal/core/persist"
	"github.com/colonyops/cadence/internal/core/progress"
	"github.com/colonyops/cadence/internal/core/schedule"
	"github.com/colonyops/cadence/internal/data/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProgressStore(t *testing.T) *ProgressStore {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewProgressStore(database)
}

func TestProgressStore_LoadMissing(t *testing.T) {
	s := newTestProgressStore(t)

	_, err := s.Load(context.Background(), "nobody")
	assert.ErrorIs(t, err, persist.ErrNoData)
}

func TestProgressStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestProgressStore(t)

	data := progress.EmptyData()
	item := progress.New("two-sum", "Two Sum", "", "Arrays", "Hashing")
	item.Solve(schedule.DefaultLadder, schedule.MustParseDate("2024-01-01"))
	data.Problems[item.ID] = item
	data.DeletedIDs = nil

	require.NoError(t, s.Save(ctx, "u1", data))

	got, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, item, got.Problems["two-sum"])
	assert.Equal(t, []string{}, got.DeletedIDs, "nil tombstones are stored as an empty list")

	_, err = s.Load(ctx, "u2")
	assert.ErrorIs(t, err, persist.ErrNoData, "users are isolated")
}

func TestProgressStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	s := newTestProgressStore(t)

	first := progress.EmptyData()
	first.Problems["a"] = progress.New("a", "A", "", "", "")
	require.NoError(t, s.Save(ctx, "u1", first))

	second := progress.EmptyData()
	second.DeletedIDs = []string{"a"}
	require.NoError(t, s.Save(ctx, "u1", second))

	got, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got.Problems)
	assert.Equal(t, []string{"a"}, got.DeletedIDs)

	require.NoError(t, s.Delete(ctx, "u1"))
	_, err = s.Load(ctx, "u1")
	assert.ErrorIs(t, err, persist.ErrNoData)
	assert.NoError(t, s.Delete(ctx, "u1"))
}

func TestProgressStore_RejectsEmptyUser(t *testing.T) {
	s := newTestProgressStore(t)
	assert.Error(t, s.Save(context.Background(), "", progress.EmptyData()))
}
