// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/handoff/internal/api"
	"github.com/starford/handoff/internal/handoff"
	"github.com/starford/handoff/internal/journal"
	"github.com/starford/handoff/internal/mcpserver"
	"github.com/starford/handoff/internal/rpc"
	"github.com/starford/handoff/internal/sse"
	"github.com/starford/handoff/internal/stdio"
	"github.com/starford/handoff/internal/storage"
	"github.com/starford/handoff/internal/watcher"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Protocol frames own stdout in stdio and mcp modes.
	logOut := app.stderr
	if cfg.App.Mode == ModeHTTP {
		logOut = app.stdout
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("mode", cfg.App.Mode),
		slog.String("handoff_root", cfg.Handoff.Root),
		slog.String("journal_path", cfg.Journal.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.NewFS(cfg.Handoff.Root)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	engineOpts := []handoff.Option{
		handoff.WithRoot(cfg.Handoff.Root),
		handoff.WithLogger(logger),
	}
	if cfg.Journal.Enabled() {
		if err := os.MkdirAll(filepath.Dir(cfg.Journal.Path), 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
		db, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("init journal: %w", err)
		}
		defer db.Close()
		engineOpts = append(engineOpts, handoff.WithRecorder(db))
	}

	eng := handoff.NewEngine(store, engineOpts...)
	if err := eng.Initialize(ctx); err != nil {
		return fmt.Errorf("init handoff root: %w", err)
	}
	dispatcher := rpc.NewDispatcher(eng, logger)

	logger.Info("Handoff server started", slog.String("mode", cfg.App.Mode))

	switch cfg.App.Mode {
	case ModeHTTP:
		return app.serveHTTP(ctx, dispatcher, logger)
	case ModeMCP:
		if err := mcpserver.New(dispatcher, app.version).Listen(ctx, app.stdin, app.stdout); err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	default:
		return stdio.Serve(ctx, dispatcher, app.stdin, app.stdout, logger)
	}
}

func (app *application) serveHTTP(ctx context.Context, dispatcher *rpc.Dispatcher, logger *slog.Logger) error {
	cfg := app.config

	broker := sse.NewBroker(cfg.Events.Throttle)
	defer broker.Close()

	router := api.NewRouter(dispatcher, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Filesystem watcher feeding the SSE stream.
	if cfg.Events.Watch {
		g.Go(func() error {
			err := watcher.Watch(gCtx, cfg.Handoff.Root, cfg.Events.Debounce, logger, broker.PublishHandoffEvent)
			if err != nil {
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		// Stop the watcher once the server is down.
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
