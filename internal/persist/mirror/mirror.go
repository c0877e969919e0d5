// Package mirror keeps a local copy of a signed-in user's remote progress.
package mirror

import (
	"context"
	"errors"

	"github.com/colonyops/cadence/internal/core/logging"
	"github.com/colonyops/cadence/internal/core/persist"
	"github.com/colonyops/cadence/internal/core/progress"
	"github.com/rs/zerolog"
)

// Adapter saves to primary and mirrors every successful load or save into
// cache. When primary is unreachable on load the cached copy is served.
// Authentication failures are never masked by the cache.
type Adapter struct {
	primary persist.Adapter
	cache   persist.Adapter
	log     zerolog.Logger
}

var _ persist.Adapter = (*Adapter)(nil)

func New(primary, cache persist.Adapter, log zerolog.Logger) *Adapter {
	return &Adapter{
		primary: primary,
		cache:   cache,
		log:     logging.ComponentOf(log, "mirror"),
	}
}

func (a *Adapter) Name() string { return a.primary.Name() + "+" + a.cache.Name() }

func (a *Adapter) Load(ctx context.Context) (progress.Data, error) {
	data, err := a.primary.Load(ctx)
	if err == nil {
		a.mirror(ctx, data)
		return data, nil
	}

	if !errors.Is(err, persist.ErrNetwork) {
		return progress.Data{}, err
	}

	cached, cerr := a.cache.Load(ctx)
	if cerr != nil {
		a.log.Warn().Err(cerr).Msg("cache unavailable after network failure")
		return progress.Data{}, err
	}

	a.log.Warn().Err(err).Int("items", len(cached.Problems)).Msg("remote unreachable, serving cached progress")
	return cached, nil
}

func (a *Adapter) Save(ctx context.Context, data progress.Data) error {
	if err := a.primary.Save(ctx, data); err != nil {
		return err
	}
	a.mirror(ctx, data)
	return nil
}

func (a *Adapter) mirror(ctx context.Context, data progress.Data) {
	if err := a.cache.Save(ctx, data); err != nil {
		a.log.Warn().Err(err).Msg("failed to update local mirror")
	}
}
