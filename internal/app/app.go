// Package app wires the cadence components for the CLI. Commands consume App
// instead of cherry-picking raw dependencies.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/colonyops/cadence/internal/cadence"
	"github.com/colonyops/cadence/internal/core/catalog"
	"github.com/colonyops/cadence/internal/core/config"
	"github.com/colonyops/cadence/internal/core/eventbus"
	"github.com/colonyops/cadence/internal/core/identity"
	"github.com/colonyops/cadence/internal/core/kv"
	"github.com/colonyops/cadence/internal/core/logging"
	"github.com/colonyops/cadence/internal/core/notify"
	"github.com/colonyops/cadence/internal/core/schedule"
	"github.com/colonyops/cadence/internal/data/db"
	"github.com/colonyops/cadence/internal/data/stores"
	"github.com/colonyops/cadence/internal/persist/backend"
	"github.com/rs/zerolog"
)

// SessionKey holds the bearer token of the signed-in user between runs.
const SessionKey = "session:token"

// Options are the per-invocation inputs to New.
type Options struct {
	// Token overrides the stored session and identity.token.
	Token     string
	Confirmer cadence.Confirmer
	// Notifier receives every notification in addition to the history store.
	Notifier notify.Notifier
	Clock    schedule.Clock
	Log      zerolog.Logger
}

// App is the central entry point for all cadence operations.
type App struct {
	Config        *config.Config
	DB            *db.DB
	KV            *stores.KVStore
	Notifications *stores.NotifyStore
	Bus           *eventbus.EventBus
	Engine        *cadence.Engine

	log     zerolog.Logger
	session *kv.TypedKV[string]
	stopBus context.CancelFunc
	busDone chan struct{}
}

// New opens the database, starts the event bus, resolves the identity and
// loads progress. Close releases everything.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log := opts.Log

	database, backup, err := stores.OpenOrRecover(cfg.DataDir, db.OpenOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if backup != "" {
		log.Warn().Str("backup", backup).Msg("database was corrupt; started fresh")
	}

	a := &App{
		Config:        cfg,
		DB:            database,
		KV:            stores.NewKVStore(database),
		Notifications: stores.NewNotifyStore(database),
		Bus:           eventbus.New(0),
		log:           log,
		busDone:       make(chan struct{}),
	}
	a.session = kv.Scoped[string](a.KV, "cli")

	notifier := notify.Notifier(notify.NewStoreNotifier(a.Notifications, logging.ComponentOf(log, "notify")))
	if opts.Notifier != nil {
		notifier = notify.Multi(notifier, opts.Notifier)
	}

	eventbus.NewNotificationRouter(a.Bus).Register()
	eventbus.ForwardNotifications(a.Bus, notifier, log)

	busCtx, cancel := context.WithCancel(context.Background())
	a.stopBus = cancel
	go func() {
		defer close(a.busDone)
		a.Bus.Start(busCtx)
	}()

	cat, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	selector := &backend.Selector{
		KV:        a.KV,
		RemoteURL: cfg.Remote.BaseURL,
		Timeout:   cfg.Remote.Timeout,
		Log:       log,
	}

	a.Engine, err = cadence.NewEngine(cadence.Deps{
		Catalog:   cat,
		Selector:  selector,
		Identity:  a.resolveIdentity(ctx, opts.Token),
		Notifier:  notifier,
		Confirmer: opts.Confirmer,
		Clock:     opts.Clock,
		Bus:       a.Bus,
		Log:       log,
	}, cadence.Options{
		Ladder:        cfg.Ladder(),
		MinPending:    cfg.Engine.MinPending,
		SafetyTimeout: cfg.Engine.SafetyTimeout,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	if err := a.Engine.Load(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("load progress: %w", err)
	}

	return a, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}

// resolveIdentity picks the first usable token from the flag, the stored
// session and the config file. Unusable tokens fall back to local mode.
func (a *App) resolveIdentity(ctx context.Context, flagToken string) identity.Identity {
	if a.Config.Remote.BaseURL == "" {
		return identity.Local()
	}

	tok := flagToken
	if tok == "" {
		stored, err := a.session.Get(ctx, SessionKey)
		switch {
		case err == nil:
			tok = stored
		case !errors.Is(err, sql.ErrNoRows):
			a.log.Warn().Err(err).Msg("failed to read stored session")
		}
	}
	if tok == "" {
		tok = a.Config.Identity.Token
	}
	if tok == "" {
		return identity.Local()
	}

	id, err := (&identity.TokenAuthenticator{Source: identity.StaticToken(tok)}).SignIn(ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("ignoring unusable token; using local progress")
		return identity.Local()
	}
	return id
}

// SignIn authenticates, switches the engine to the remote backend and stores
// the token for later runs.
func (a *App) SignIn(ctx context.Context, auth identity.Authenticator) (identity.Identity, error) {
	id, err := auth.SignIn(ctx)
	if err != nil {
		return identity.Identity{}, err
	}
	if err := a.Engine.SwitchIdentity(ctx, id); err != nil {
		return identity.Identity{}, err
	}
	if err := a.session.Set(ctx, SessionKey, id.Token); err != nil {
		return id, fmt.Errorf("store session: %w", err)
	}
	return id, nil
}

// SignOut forgets the stored token and switches back to local progress.
func (a *App) SignOut(ctx context.Context) error {
	if err := a.session.Delete(ctx, SessionKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return a.Engine.SwitchIdentity(ctx, identity.Local())
}

// Close stops the bus after draining queued events and closes the database.
func (a *App) Close() error {
	if a.stopBus != nil {
		a.stopBus()
		<-a.busDone
		a.stopBus = nil
	}
	if a.DB == nil {
		return nil
	}
	err := a.DB.Close()
	a.DB = nil
	return err
}
