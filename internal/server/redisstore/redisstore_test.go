package redisstore

import (
	"context"
	"os"
	"testing"

	"github.com/colonyops/cadence/internal/core/persist"
	"github.com/colonyops/cadence/internal/core/progress"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestStore connects to CADENCE_TEST_REDIS_ADDR or skips.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("CADENCE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CADENCE_TEST_REDIS_ADDR not set")
	}

	s, err := Open(context.Background(), addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestKey(t *testing.T) {
	assert.Equal(t, "cadence:progress:alice", Key("alice"))
}

func TestOpen_EmptyAddr(t *testing.T) {
	_, err := Open(context.Background(), "")
	require.Error(t, err)
}

func TestStore_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user := "test-" + uuid.NewString()
	t.Cleanup(func() { _ = s.Delete(context.Background(), user) })

	_, err := s.Load(ctx, user)
	require.ErrorIs(t, err, persist.ErrNoData)

	data := progress.EmptyData()
	data.Problems["a"] = progress.New("a", "A", "", "Arrays", "Hashing")
	require.NoError(t, s.Save(ctx, user, data))

	got, err := s.Load(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, s.Delete(ctx, user))
	_, err = s.Load(ctx, user)
	require.ErrorIs(t, err, persist.ErrNoData)
}
