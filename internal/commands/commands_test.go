package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/colonyops/cadence/internal/core/catalog"
	"github.com/colonyops/cadence/internal/core/config"
	"github.com/colonyops/cadence/internal/core/notify"
	"github.com/colonyops/cadence/internal/core/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func newTestFlags(t *testing.T) *Flags {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Engine.MinPending = 0
	cfg.Server.JWTSecret = "secret"
	return &Flags{Config: &cfg, Yes: true}
}

// run executes one invocation like a separate process would: fresh command
// state, and the app is closed afterwards.
func run(t *testing.T, flags *Flags, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	root := &cli.Command{
		Name:      "cadence",
		Writer:    &out,
		ErrWriter: &errOut,
	}
	root = NewListCmd(flags).Register(root)
	root = NewProgressCmd(flags).Register(root)
	root = NewItemsCmd(flags).Register(root)
	root = NewAuthCmd(flags).Register(root)
	root = NewRemindCmd(flags).Register(root)
	root = NewNotificationsCmd(flags).Register(root)
	root = NewConfigValidateCmd(flags).Register(root)

	err := root.Run(context.Background(), append([]string{"cadence"}, args...))
	require.NoError(t, flags.Close())
	return out.String(), err
}

func TestSolveThenShow(t *testing.T) {
	flags := newTestFlags(t)

	out, err := run(t, flags, "solve", "--json", "two-sum")
	require.NoError(t, err)

	var solved progress.Item
	require.NoError(t, json.Unmarshal([]byte(out), &solved))
	assert.Equal(t, progress.StatusSolved, solved.Status)
	assert.Equal(t, 0, solved.ReviewInterval)
	require.NotNil(t, solved.NextReviewDate)

	out, err = run(t, flags, "show", "--json", "two-sum")
	require.NoError(t, err)

	var shown progress.Item
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, solved, shown)
}

func TestReviewUnsolvedFails(t *testing.T) {
	flags := newTestFlags(t)

	_, err := run(t, flags, "review", "two-sum")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not solved")
}

func TestUnknownID(t *testing.T) {
	flags := newTestFlags(t)

	_, err := run(t, flags, "solve", "no-such-problem")
	require.Error(t, err)
}

func TestNoteAndClear(t *testing.T) {
	flags := newTestFlags(t)

	out, err := run(t, flags, "note", "--json", "two-sum", "use", "a", "map")
	require.NoError(t, err)

	var it progress.Item
	require.NoError(t, json.Unmarshal([]byte(out), &it))
	assert.Equal(t, "use a map", it.Note)

	out, err = run(t, flags, "note", "--json", "two-sum")
	require.NoError(t, err)

	var cleared progress.Item
	require.NoError(t, json.Unmarshal([]byte(out), &cleared))
	assert.Equal(t, "two-sum", cleared.ID)
	assert.Empty(t, cleared.Note)
}

func TestAddCustomAndList(t *testing.T) {
	flags := newTestFlags(t)

	out, err := run(t, flags, "add", "--name", "LRU Cache", "--url", "https://example.com/lru")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	assert.True(t, progress.IsCustom(id), id)

	out, err = run(t, flags, "list", "--json", "--topic", catalog.DefaultCustomTopic)
	require.NoError(t, err)

	var view catalog.View
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.Len(t, view.Topics, 1)
	assert.Equal(t, catalog.DefaultCustomTopic, view.Topics[0].Name)
	require.Len(t, view.Topics[0].Patterns, 1)
	assert.Equal(t, catalog.DefaultCustomPattern, view.Topics[0].Patterns[0].Name)
	assert.Equal(t, id, view.Topics[0].Patterns[0].Items[0].ID)
}

func TestAddCustom_FromFile(t *testing.T) {
	flags := newTestFlags(t)
	path := filepath.Join(t.TempDir(), "problem.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"Trie","topic":"Trees","pattern":"Prefix"}`), 0o644))

	out, err := run(t, flags, "add", "-f", path)
	require.NoError(t, err)

	out, err = run(t, flags, "show", "--json", strings.TrimSpace(out))
	require.NoError(t, err)
	var it progress.Item
	require.NoError(t, json.Unmarshal([]byte(out), &it))
	assert.Equal(t, "Trie", it.Name)
	assert.Equal(t, "Trees", it.Topic)
	assert.Equal(t, "Prefix", it.Pattern)
}

func TestAddCustom_Invalid(t *testing.T) {
	flags := newTestFlags(t)

	_, err := run(t, flags, "add", "--name", "Bad", "--url", "ftp://example.com")
	require.Error(t, err)
}

func TestDeleteTopicHidesProblems(t *testing.T) {
	flags := newTestFlags(t)

	_, err := run(t, flags, "delete-topic", "Arrays & Hashing")
	require.NoError(t, err)

	_, err = run(t, flags, "show", "two-sum")
	require.Error(t, err, "deleted problems are gone")

	out, err := run(t, flags, "list", "--json", "--topic", "Arrays & Hashing")
	require.NoError(t, err)
	var view catalog.View
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Empty(t, view.Topics)

	_, err = run(t, flags, "reset-all")
	require.NoError(t, err)

	_, err = run(t, flags, "show", "two-sum")
	require.NoError(t, err, "reset-all restores the catalog")
}

func TestDeleteTopic_NeedsConfirmation(t *testing.T) {
	flags := newTestFlags(t)
	flags.Yes = false

	_, err := run(t, flags, "delete-topic", "Arrays & Hashing")
	require.ErrorIs(t, err, ErrNeedsConfirmation)
}

func TestDeletePattern_Usage(t *testing.T) {
	flags := newTestFlags(t)

	_, err := run(t, flags, "delete-pattern", "Arrays & Hashing")
	require.Error(t, err)
}

func TestStatsJSON(t *testing.T) {
	flags := newTestFlags(t)

	_, err := run(t, flags, "solve", "two-sum")
	require.NoError(t, err)

	out, err := run(t, flags, "stats", "--json")
	require.NoError(t, err)

	var res struct {
		Identity string        `json:"identity"`
		Total    catalog.Stats `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.Total.Solved)
	assert.Equal(t, len(catalog.Default().IDs()), res.Total.Unique)
	assert.Equal(t, "local", res.Identity)
}

func TestDueAndRemind_NothingDueAfterSolve(t *testing.T) {
	flags := newTestFlags(t)

	_, err := run(t, flags, "solve", "two-sum")
	require.NoError(t, err)

	out, err := run(t, flags, "due", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	out, err = run(t, flags, "remind")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing due")
}

func TestNotificationsHistory(t *testing.T) {
	flags := newTestFlags(t)

	_, err := run(t, flags, "solve", "two-sum")
	require.NoError(t, err)

	out, err := run(t, flags, "notifications", "--json")
	require.NoError(t, err)

	var items []notify.Notification
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.NotEmpty(t, items)
	assert.Equal(t, notify.LevelSuccess, items[0].Level)
	assert.Contains(t, items[0].Message, "Two Sum")

	_, err = run(t, flags, "notifications", "--clear")
	require.NoError(t, err)

	out, err = run(t, flags, "notifications", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestToken(t *testing.T) {
	flags := newTestFlags(t)

	out, err := run(t, flags, "token", "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(strings.TrimSpace(out), ".")), "a JWT has three parts")

	flags.Config.Server.JWTSecret = ""
	_, err = run(t, flags, "token", "alice")
	require.Error(t, err)
}

func TestSignIn_RequiresRemote(t *testing.T) {
	flags := newTestFlags(t)
	flags.Token = "whatever"

	_, err := run(t, flags, "signin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote.base_url")
}

func TestConfigValidate(t *testing.T) {
	flags := newTestFlags(t)

	out, err := run(t, flags, "config", "validate", "--format", "json")
	require.NoError(t, err)

	var res struct {
		Valid bool `json:"valid"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Valid)
}
