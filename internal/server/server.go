// Package server is the reference progress API: GET and POST /user behind
// bearer-token auth, backed by a per-user ProgressStore.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/colonyops/cadence/internal/core/logging"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	Addr        string
	Secret      []byte
	Store       ProgressStore
	CORSOrigins []string
	// Tracing enables otel spans per request, exported to TraceWriter
	// (stdout when nil).
	Tracing     bool
	TraceWriter io.Writer
	Log         zerolog.Logger
}

// Server owns the gin engine and, when tracing, the tracer provider.
type Server struct {
	opts   Options
	engine *gin.Engine
	tp     *sdktrace.TracerProvider
	log    zerolog.Logger
}

// New builds the router. It fails without a secret or store.
func New(opts Options) (*Server, error) {
	if len(opts.Secret) == 0 {
		return nil, errors.New("server: jwt secret is required")
	}
	if opts.Store == nil {
		return nil, errors.New("server: progress store is required")
	}

	s := &Server{
		opts: opts,
		log:  logging.ComponentOf(opts.Log, "server"),
	}

	if opts.Tracing {
		w := opts.TraceWriter
		if w == nil {
			w = os.Stdout
		}
		tp, err := newTracerProvider(w)
		if err != nil {
			return nil, err
		}
		s.tp = tp
	}

	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	if s.tp != nil {
		r.Use(otelgin.Middleware("cadence", otelgin.WithTracerProvider(s.tp)))
	}
	r.Use(requestID(), accessLog(s.log), corsMiddleware(s.opts.CORSOrigins))

	h := &handlers{store: s.opts.Store}
	r.GET("/healthz", h.health)

	authed := r.Group("/")
	authed.Use(requireAuth(s.opts.Secret))
	authed.GET("/user", h.getUser)
	authed.POST("/user", h.postUser)

	return r
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info().Str("addr", s.opts.Addr).Bool("tracing", s.tp != nil).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.log.Info().Msg("shutting down")

		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(sctx)
		return errors.Join(err, shutdownTracer(sctx, s.tp))
	})

	return g.Wait()
}
