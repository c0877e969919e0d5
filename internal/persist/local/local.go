// Package local persists progress into the durable key-value store.
package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/colonyops/cadence/internal/core/kv"
	"github.com/colonyops/cadence/internal/core/persist"
	"github.com/colonyops/cadence/internal/core/progress"
)

// Key is the KV key, within an identity keyspace, that holds the progress
// document.
const Key = "progress"

// Adapter stores progress under "<keyspace>:progress".
type Adapter struct {
	kv *kv.TypedKV[progress.Data]
}

var _ persist.Adapter = (*Adapter)(nil)

// New returns an adapter for keyspace, e.g. "local" or "user:<id>".
func New(store kv.KV, keyspace string) *Adapter {
	return &Adapter{kv: kv.Scoped[progress.Data](store, keyspace)}
}

func (a *Adapter) Name() string { return "local(" + a.kv.Namespace() + ")" }

// Load returns the stored document, or empty data when nothing has been
// saved yet.
func (a *Adapter) Load(ctx context.Context) (progress.Data, error) {
	data, err := a.kv.Get(ctx, Key)
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, persist.ErrNoData) {
		return progress.EmptyData(), nil
	}
	if err != nil {
		return progress.Data{}, persist.Storage(fmt.Errorf("load %s: %w", a.kv.Key(Key), err))
	}
	if data.Problems == nil {
		data.Problems = map[string]progress.Item{}
	}
	if data.DeletedIDs == nil {
		data.DeletedIDs = []string{}
	}
	return data, nil
}

func (a *Adapter) Save(ctx context.Context, data progress.Data) error {
	if err := a.kv.Set(ctx, Key, data); err != nil {
		return persist.Storage(fmt.Errorf("save %s: %w", a.kv.Key(Key), err))
	}
	return nil
}

// Clear removes the stored document.
func (a *Adapter) Clear(ctx context.Context) error {
	if err := a.kv.Delete(ctx, Key); err != nil {
		return persist.Storage(fmt.Errorf("clear %s: %w", a.kv.Key(Key), err))
	}
	return nil
}
