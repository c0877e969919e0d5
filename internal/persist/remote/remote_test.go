package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/colonyops/cadence/internal/core/persist"
	"github.com/colonyops/cadence/internal/core/progress"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdapter(t *testing.T, h http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/", Token: "tok", Timeout: time.Second}, nil, zerolog.Nop())
}

func TestAdapter_Save(t *testing.T) {
	var got Envelope
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/user", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	data := progress.EmptyData()
	data.Problems["a"] = progress.New("a", "A", "", "T", "P")

	require.NoError(t, a.Save(context.Background(), progress.Data{Problems: data.Problems}))
	assert.Equal(t, data, got.Data, "nil tombstones are sent as an empty list")
}

func TestAdapter_SaveWireShape(t *testing.T) {
	var raw map[string]any
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
	})

	require.NoError(t, a.Save(context.Background(), progress.EmptyData()))
	inner, ok := raw["data"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, inner, "problems")
	assert.Contains(t, inner, "deletedIds")
}

func TestAdapter_SaveErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
		kind   persist.Kind
		msg    string
	}{
		{"unauthorized", http.StatusUnauthorized, "", persist.ErrAuthFailed, persist.KindAuth, "Unauthorized"},
		{"server", http.StatusServiceUnavailable, `{"error":{"message":"db down","code":"unavailable"}}`, persist.ErrServer, persist.KindServer, "db down"},
		{"bad request", http.StatusBadRequest, "", nil, persist.KindOther, "Bad Request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := a.Save(context.Background(), progress.EmptyData())
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
			assert.Equal(t, tt.kind, persist.KindOf(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestAdapter_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	a := New(Config{BaseURL: srv.URL}, nil, zerolog.Nop())
	err := a.Save(context.Background(), progress.EmptyData())
	assert.ErrorIs(t, err, persist.ErrNetwork)

	_, err = a.Load(context.Background())
	assert.ErrorIs(t, err, persist.ErrNetwork)
}

func TestAdapter_Load(t *testing.T) {
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"data":{"problems":{"a":{"id":"a","name":"A","url":"","topic":"T","pattern":"P","status":"solved","reviewInterval":1,"nextReviewDate":"2024-01-05"}},"deletedIds":["b"]}}`))
	})

	data, err := a.Load(context.Background())
	require.NoError(t, err)
	require.Contains(t, data.Problems, "a")
	assert.Equal(t, "2024-01-05", data.Problems["a"].NextReviewDate.String())
	assert.Equal(t, []string{"b"}, data.DeletedIDs)
}

func TestAdapter_LoadNotFoundIsEmpty(t *testing.T) {
	a := newAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	data, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, progress.EmptyData(), data)
}

func TestAdapter_LoadMalformed(t *testing.T) {
	a := newAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":`))
	})

	_, err := a.Load(context.Background())
	assert.ErrorIs(t, err, persist.ErrServer)
}
