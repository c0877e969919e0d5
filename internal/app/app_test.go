package app

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/colonyops/cadence/internal/core/config"
	"github.com/colonyops/cadence/internal/core/identity"
	"github.com/colonyops/cadence/internal/core/notify"
	"github.com/colonyops/cadence/internal/core/progress"
	"github.com/colonyops/cadence/internal/core/schedule"
	"github.com/colonyops/cadence/internal/data/db"
	"github.com/colonyops/cadence/internal/data/stores"
	"github.com/colonyops/cadence/internal/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = schedule.MustParseDate("2024-01-01")

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Engine.MinPending = 0
	return &cfg
}

func open(t *testing.T, cfg *config.Config, opts Options) *App {
	t.Helper()
	opts.Clock = schedule.FixedClock(today)
	opts.Log = zerolog.Nop()

	a, err := New(context.Background(), cfg, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func firstID(t *testing.T, a *App) string {
	t.Helper()
	ids := a.Engine.Catalog().IDs()
	require.NotEmpty(t, ids)
	return ids[0]
}

func TestNew_LocalProgressSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a := open(t, cfg, Options{})
	assert.Equal(t, identity.ModeLocal, a.Engine.Identity().Mode)

	id := firstID(t, a)
	_, err := a.Engine.Solve(ctx, id)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b := open(t, cfg, Options{})
	it, err := b.Engine.Item(id)
	require.NoError(t, err)
	assert.Equal(t, progress.StatusSolved, it.Status)
	require.NotNil(t, it.NextReviewDate)
	assert.Equal(t, today.AddDays(1), *it.NextReviewDate)
}

func TestNew_NotificationsReachHistoryAndNotifier(t *testing.T) {
	cfg := testConfig(t)
	rec := &notify.Recorder{}
	a := open(t, cfg, Options{Notifier: rec})

	_, err := a.Engine.Solve(context.Background(), firstID(t, a))
	require.NoError(t, err)

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelSuccess, last.Level)

	n, err := a.Notifications.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestNew_BadTokenFallsBackToLocal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Remote.BaseURL = "http://127.0.0.1:1"

	a := open(t, cfg, Options{Token: "not-a-jwt"})
	assert.Equal(t, identity.ModeLocal, a.Engine.Identity().Mode)
}

func TestSignInAndOut(t *testing.T) {
	secret := []byte("secret")

	serverDB, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverDB.Close() })

	srv, err := server.New(server.Options{Secret: secret, Store: stores.NewProgressStore(serverDB), Log: zerolog.Nop()})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	tok, err := server.IssueToken(secret, "alice", time.Hour)
	require.NoError(t, err)

	cfg := testConfig(t)
	cfg.Remote.BaseURL = ts.URL
	ctx := context.Background()

	a := open(t, cfg, Options{})
	id := firstID(t, a)

	got, err := a.SignIn(ctx, &identity.TokenAuthenticator{Source: identity.StaticToken(tok)})
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserID)

	_, err = a.Engine.Solve(ctx, id)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	// The stored session signs the next run in.
	b := open(t, cfg, Options{})
	assert.Equal(t, "alice", b.Engine.Identity().UserID)
	it, err := b.Engine.Item(id)
	require.NoError(t, err)
	assert.True(t, it.IsSolved())

	require.NoError(t, b.SignOut(ctx))
	assert.Equal(t, identity.ModeLocal, b.Engine.Identity().Mode)
	it, err = b.Engine.Item(id)
	require.NoError(t, err)
	assert.False(t, it.IsSolved(), "local progress is separate from the account")

	saved, err := stores.NewProgressStore(serverDB).Load(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, saved.Problems[id].IsSolved())
}
