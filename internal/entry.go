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

	"github.com/starford/wanderlog/internal/api"
	"github.com/starford/wanderlog/internal/catalog"
	"github.com/starford/wanderlog/internal/content"
	"github.com/starford/wanderlog/internal/index"
	"github.com/starford/wanderlog/internal/postservice"
	"github.com/starford/wanderlog/internal/scheduler"
	"github.com/starford/wanderlog/internal/sse"
)

const defaultShutdownTimeout = 10 * time.Second

func newApplication(opts []Option, logOut io.Writer) (*application, error) {
	app := &application{version: "dev", out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logger == nil {
		app.logger = slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
	}
	return app, nil
}

// openMirror opens the SQLite full-text mirror, or returns nil when it is
// not configured.
func openMirror(cfg *Config) (*index.DB, error) {
	if !cfg.SQLite.Enabled() {
		return nil, nil
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	return db, nil
}

// newCatalog builds the post catalog over the configured roots. Each hook
// runs after a snapshot swap that changed at least one post.
func newCatalog(cfg *Config, logger *slog.Logger, hooks ...catalog.ChangeHook) (*catalog.Index, error) {
	src, err := content.NewFS(cfg.Content.Roots, cfg.Content.Extensions...)
	if err != nil {
		return nil, fmt.Errorf("init content source: %w", err)
	}
	logger.Info("content: source ready",
		slog.Any("roots", src.Roots()),
		slog.Any("extensions", src.Extensions()))

	opts := []catalog.Option{
		catalog.WithLogger(logger),
		catalog.WithDefaults(cfg.Content.Defaults()),
		catalog.WithWorkers(cfg.Content.Workers),
	}
	for _, h := range hooks {
		opts = append(opts, catalog.WithChangeHook(h))
	}
	return catalog.New(src, opts...), nil
}

func syncHook(ctx context.Context, db *index.DB, cat **catalog.Index, logger *slog.Logger) catalog.ChangeHook {
	return func(snap *catalog.Snapshot, _ []catalog.Change) {
		if err := index.Sync(ctx, db, snap, *cat, logger); err != nil {
			logger.Warn("sync: failed", slog.String("error", err.Error()))
		}
	}
}

// refreshJob forces a rebuild and re-syncs the mirror even when no post
// changed, so a sync that failed earlier is retried.
func refreshJob(cat *catalog.Index, db *index.DB, logger *slog.Logger) scheduler.Job {
	return func(ctx context.Context) error {
		snap, err := cat.Refresh(ctx)
		if err != nil {
			return err
		}
		if db == nil {
			return nil
		}
		return index.Sync(ctx, db, snap, cat, logger)
	}
}

func mirrorOf(db *index.DB) index.PostIndex {
	if db == nil {
		return nil
	}
	return db
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stdout)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.Any("content_roots", cfg.Content.Roots),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("refresh_schedule", cfg.Refresh.Schedule),
		slog.Bool("watch", cfg.Refresh.Watch),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := openMirror(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	broker := sse.NewBroker(cfg.Refresh.Throttle)
	defer broker.Close()

	var cat *catalog.Index
	hooks := []catalog.ChangeHook{broker.OnChange}
	if db != nil {
		hooks = append([]catalog.ChangeHook{syncHook(ctx, db, &cat, logger)}, hooks...)
	}
	cat, err = newCatalog(cfg, logger, hooks...)
	if err != nil {
		return err
	}

	// Initial build. A failure here leaves the index unready; reads return
	// 503 until a later refresh succeeds.
	if _, err := cat.Refresh(ctx); err != nil {
		logger.Warn("initial index build failed", slog.String("error", err.Error()))
	}

	svc := postservice.NewService(cat, mirrorOf(db))
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if cat.Current() == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"index not built"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sched := scheduler.New(logger)
	if cfg.Refresh.Schedule != "" {
		err := sched.Add("refresh-index", cfg.Refresh.Schedule, refreshJob(cat, db, logger))
		if err != nil {
			return err
		}
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Refresh.Watch {
		g.Go(func() error {
			if err := catalog.Watch(gCtx, cat, logger, cfg.Refresh.Debounce); err != nil {
				logger.Warn("watcher: disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	if sched.Len() > 0 {
		g.Go(func() error {
			return sched.Run(gCtx)
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

		timeout := cfg.App.HTTP.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
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

// errShutdown cancels the group context so the watcher and scheduler stop
// once the HTTP server is down.
var errShutdown = errors.New("shutdown")
