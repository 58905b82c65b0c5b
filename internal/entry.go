// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/neuronote/internal/api"
	"github.com/starford/neuronote/internal/index"
	"github.com/starford/neuronote/internal/mcpserver"
	"github.com/starford/neuronote/internal/noteservice"
	"github.com/starford/neuronote/internal/sse"
	"github.com/starford/neuronote/internal/storage"
	"github.com/starford/neuronote/internal/watcher"
)

// Runtime is an opened notebook: config, logger, storage, index and service.
type Runtime struct {
	Config  *Config
	Logger  *slog.Logger
	Store   *storage.JSONFile
	Index   *index.DB
	Service *noteservice.Service
}

// Open loads the configuration's data file and search index and returns a
// ready service. Logs go to stderr unless WithLogOutput says otherwise.
func Open(opts ...Option) (*Runtime, error) {
	app := &application{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(app)
	}
	return open(app)
}

func open(app *application) (*Runtime, error) {
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	store, err := storage.NewJSONFile(cfg.Data.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	svcOpts := []noteservice.Option{
		noteservice.WithIndex(db),
		noteservice.WithLogger(logger),
		noteservice.WithStrategy(cfg.Summary.Strategy(logger)),
		noteservice.WithLabels(cfg.Export.Labels()),
	}
	if app.events != nil {
		svcOpts = append(svcOpts, noteservice.WithEvents(app.events))
	}
	svc, err := noteservice.New(store, svcOpts...)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init service: %w", err)
	}
	if notes, trash, err := db.Count(); err == nil {
		logger.Debug("notebook loaded", slog.String("path", store.Path()),
			slog.Int("notes", notes), slog.Int("trash", trash))
	}

	return &Runtime{Config: cfg, Logger: logger, Store: store, Index: db, Service: svc}, nil
}

// Close waits for background summaries and closes the index.
func (rt *Runtime) Close() error {
	return errors.Join(rt.Service.Close(), rt.Index.Close())
}

// Run starts the HTTP server, the event stream and the file watcher and
// blocks until ctx is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	broker := sse.NewBroker(cfg.SSE.ListThrottle, sse.WithKeepalive(cfg.SSE.Keepalive))
	defer broker.Close()

	extra := app.events
	app.events = func(kind string, position int) {
		broker.PublishNoteEvent(kind, position)
		if extra != nil {
			extra(kind, position)
		}
	}

	rt, err := open(app)
	if err != nil {
		return err
	}
	defer rt.Close()
	logger := rt.Logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_path", rt.Store.Path()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newHTTPHandler(rt, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Watcher.Enabled {
		g.Go(func() error {
			if err := watcher.Watch(gCtx, rt.Store, rt.Service, cfg.Watcher.Debounce, logger); err != nil {
				logger.Warn("watcher disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...", slog.Int("event_clients", broker.ClientCount()))

		// Closing the broker ends open event streams so Shutdown can finish.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group context so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

func newHTTPHandler(rt *Runtime, broker *sse.Broker) http.Handler {
	cfg := rt.Config

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Mount("/health", api.HealthRouter(rt.Service))
	r.Mount("/", api.NewRouter(rt.Service, cfg.Auth.AuthEnabled(), cfg.Auth.Token, cfg.Export.Dir, broker))
	return r
}

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr because
// stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{logOutput: os.Stderr, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.logOutput == os.Stdout {
		app.logOutput = io.Discard
	}

	rt, err := open(app)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.Logger.Info("MCP server starting", slog.String("data_path", rt.Store.Path()))
	if err := mcpserver.New(rt.Service, app.version).ServeStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}
