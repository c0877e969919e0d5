package mirror

import (
	"context"
	"errors"
	"testing"

	"github.com/colonyops/cadence/internal/core/persist"
	"github.com/colonyops/cadence/internal/core/progress"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAdapter struct {
	name    string
	data    progress.Data
	saves   int
	loadErr error
	saveErr error
}

func (m *memAdapter) Name() string { return m.name }

func (m *memAdapter) Load(context.Context) (progress.Data, error) {
	if m.loadErr != nil {
		return progress.Data{}, m.loadErr
	}
	return m.data.Clone(), nil
}

func (m *memAdapter) Save(_ context.Context, d progress.Data) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.data = d.Clone()
	return nil
}

func sample(ids ...string) progress.Data {
	d := progress.EmptyData()
	for _, id := range ids {
		d.Problems[id] = progress.New(id, id, "", "", "")
	}
	return d
}

func TestMirror_SaveMirrors(t *testing.T) {
	primary := &memAdapter{name: "remote"}
	cache := &memAdapter{name: "local"}
	a := New(primary, cache, zerolog.Nop())

	require.NoError(t, a.Save(context.Background(), sample("a")))
	assert.Equal(t, 1, primary.saves)
	assert.Equal(t, sample("a"), cache.data)
	assert.Equal(t, "remote+local", a.Name())
}

func TestMirror_SaveFailureSkipsCache(t *testing.T) {
	primary := &memAdapter{saveErr: persist.FromStatus(500, "")}
	cache := &memAdapter{data: sample("old")}
	a := New(primary, cache, zerolog.Nop())

	err := a.Save(context.Background(), sample("new"))
	require.ErrorIs(t, err, persist.ErrServer)
	assert.Equal(t, sample("old"), cache.data)
}

func TestMirror_CacheFailureIsNotFatal(t *testing.T) {
	primary := &memAdapter{}
	cache := &memAdapter{saveErr: persist.Storage(errors.New("disk full"))}
	a := New(primary, cache, zerolog.Nop())

	assert.NoError(t, a.Save(context.Background(), sample("a")))
}

func TestMirror_LoadFallback(t *testing.T) {
	tests := []struct {
		name     string
		loadErr  error
		cacheErr error
		wantErr  error
		wantIDs  int
	}{
		{"network falls back", persist.Network(errors.New("dial")), nil, nil, 1},
		{"auth does not fall back", persist.FromStatus(401, ""), nil, persist.ErrAuthFailed, 0},
		{"server does not fall back", persist.FromStatus(502, ""), nil, persist.ErrServer, 0},
		{"network with broken cache", persist.Network(errors.New("dial")), persist.Storage(errors.New("x")), persist.ErrNetwork, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &memAdapter{loadErr: tt.loadErr}
			cache := &memAdapter{data: sample("cached"), loadErr: tt.cacheErr}
			a := New(primary, cache, zerolog.Nop())

			data, err := a.Load(context.Background())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, data.Problems, tt.wantIDs)
		})
	}
}

func TestMirror_LoadRefreshesCache(t *testing.T) {
	primary := &memAdapter{data: sample("a", "b")}
	cache := &memAdapter{data: sample("stale")}
	a := New(primary, cache, zerolog.Nop())

	data, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, data.Problems, 2)
	assert.Equal(t, sample("a", "b"), cache.data)
}
