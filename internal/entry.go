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
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/quillmark/internal/api"
	"github.com/starford/quillmark/internal/export"
	"github.com/starford/quillmark/internal/index"
	"github.com/starford/quillmark/internal/mcpserver"
	"github.com/starford/quillmark/internal/models"
	"github.com/starford/quillmark/internal/project"
	"github.com/starford/quillmark/internal/session"
	"github.com/starford/quillmark/internal/sse"
	"github.com/starford/quillmark/internal/storage"
)

var errConfigRequired = errors.New("config is required")

// Export formats.
const (
	FormatHTML = "html"
	FormatText = "text"
)

// backend is the storage, index and project shared by every entry point.
type backend struct {
	store   *storage.FS
	db      *index.DB
	project *project.Project
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

func openBackend(cfg *Config, logger *slog.Logger, opts ...project.Option) (*backend, error) {
	canceled, paths := storage.StaticSelector(cfg.Project.Path).SelectDirectory()
	if canceled {
		return nil, errors.New("no project directory selected")
	}
	root := paths[0]

	// Ensure project directory exists.
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create project dir: %w", err)
	}

	store, err := storage.NewFS(root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init index: %w", err)
	}

	// Run initial sync.
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	opts = append([]project.Option{project.WithLogger(logger)}, opts...)
	p, err := project.Open(store, db, opts...)
	if err != nil {
		db.Close()
		store.Close()
		return nil, fmt.Errorf("open project: %w", err)
	}
	return &backend{store: store, db: db, project: p}, nil
}

func (b *backend) Close() {
	if err := b.db.Close(); err != nil {
		slog.Warn("close index", slog.String("error", err.Error()))
	}
	if err := b.store.Close(); err != nil {
		slog.Warn("close project dir", slog.String("error", err.Error()))
	}
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(cfg, os.Stdout)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("project_path", cfg.Project.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(cfg.Events.Throttle)
	defer broker.Close()

	// Catalog changes re-render open chapters once the session exists.
	var live atomic.Pointer[session.Session]
	notify := func(kind, id string) {
		broker.PublishDocumentEvent(kind, id)
		if kind == project.EventCatalogUpdated {
			if s := live.Load(); s != nil {
				s.RenderReferences()
			}
		}
	}

	b, err := openBackend(cfg, logger, project.WithNotifier(notify))
	if err != nil {
		return err
	}
	defer b.Close()

	sess := session.New(b.project, b.project,
		session.WithLogger(logger),
		session.WithObserver(func(e session.Event) {
			broker.Publish(sse.Event{Type: e.Type, Data: e})
		}),
	)
	live.Store(sess)

	apiRouter := api.NewRouter(b.project, sess, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Follow chapter and catalog edits made outside the application.
	if cfg.Project.Watch {
		w := index.NewWatcher(b.db, b.store, b.store.Root(), logger,
			index.OnChapter(func(kind, path string) {
				broker.PublishDocumentEvent("chapter."+kind, models.DocumentID(path))
			}),
			index.OnCatalog(func(path string) {
				if _, err := b.project.Reload(); err != nil {
					logger.Warn("catalog reload failed", slog.String("path", path), slog.String("error", err.Error()))
				}
			}),
		)
		g.Go(func() error {
			if err := w.Run(gCtx); err != nil {
				logger.Warn("watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
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
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools over stdio. Logs go to stderr.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(app.config, os.Stderr)

	b, err := openBackend(app.config, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	logger.Info("MCP server starting", slog.String("project_path", app.config.Project.Path))
	return mcpserver.New(b.project, app.version).ServeStdio()
}

// RunExport writes the manuscript in format to the configured output.
func RunExport(_ context.Context, format string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	out := app.output
	if out == nil {
		out = os.Stdout
	}
	logger := newLogger(app.config, os.Stderr)

	b, err := openBackend(app.config, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	chapters, err := b.project.Manuscript()
	if err != nil {
		return fmt.Errorf("load manuscript: %w", err)
	}
	parts := make([]export.Chapter, len(chapters))
	for i, ch := range chapters {
		parts[i] = export.Chapter{Title: ch.Meta.Title, Body: ch.Body}
	}

	switch format {
	case FormatHTML:
		return export.Manuscript(out, app.config.Project.Title, parts)
	case FormatText:
		return export.PlainText(out, parts)
	}
	return fmt.Errorf("unknown export format %q", format)
}
