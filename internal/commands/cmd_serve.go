package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/colonyops/cadence/internal/core/config"
	"github.com/colonyops/cadence/internal/data/db"
	"github.com/colonyops/cadence/internal/data/stores"
	"github.com/colonyops/cadence/internal/server"
	"github.com/colonyops/cadence/internal/server/redisstore"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

type ServeCmd struct {
	flags *Flags

	addr    string
	tracing bool
}

// NewServeCmd creates the serve command.
func NewServeCmd(flags *Flags) *ServeCmd {
	return &ServeCmd{flags: flags}
}

// Register adds the serve command to the application.
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Run the progress API",
		UsageText: "cadence serve [--addr :8080] [--tracing]",
		Description: `Serves GET and POST /user for signed-in clients. Requests must carry a
bearer token signed with server.jwt_secret (see 'cadence token').

Progress is stored in the local SQLite database, or in Redis when
server.store is "redis".`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address (defaults to server.addr)",
				Sources:     cli.EnvVars("CADENCE_ADDR"),
				Destination: &cmd.addr,
			},
			&cli.BoolFlag{
				Name:        "tracing",
				Usage:       "export request spans to stdout",
				Destination: &cmd.tracing,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ServeCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	if cfg.Server.JWTSecret == "" {
		return errors.New("server.jwt_secret is not configured")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openServerStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	addr := cmd.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	srv, err := server.New(server.Options{
		Addr:        addr,
		Secret:      []byte(cfg.Server.JWTSecret),
		Store:       store,
		CORSOrigins: cfg.Server.CORSOrigins,
		Tracing:     cmd.tracing || cfg.Server.Tracing,
		Log:         log.Logger,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func openServerStore(ctx context.Context, cfg *config.Config) (server.ProgressStore, func(), error) {
	switch cfg.Server.Store {
	case config.StoreRedis:
		rs, err := redisstore.Open(ctx, cfg.Server.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil
	default:
		database, err := db.Open(cfg.DataDir, db.OpenOptions{
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			BusyTimeout:  cfg.Database.BusyTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		return stores.NewProgressStore(database), func() { _ = database.Close() }, nil
	}
}
