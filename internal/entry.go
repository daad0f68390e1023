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
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/fernwell/nodeatlas/internal/api"
	"github.com/fernwell/nodeatlas/internal/apperr"
	"github.com/fernwell/nodeatlas/internal/bridge"
	"github.com/fernwell/nodeatlas/internal/catalog"
	"github.com/fernwell/nodeatlas/internal/connection"
	"github.com/fernwell/nodeatlas/internal/graphdoc"
	"github.com/fernwell/nodeatlas/internal/knowledge"
	"github.com/fernwell/nodeatlas/internal/manager"
	"github.com/fernwell/nodeatlas/internal/mcpserver"
	"github.com/fernwell/nodeatlas/internal/resolver"
	"github.com/fernwell/nodeatlas/internal/sse"
	"github.com/fernwell/nodeatlas/internal/storage"
)

// runtime holds the wired application components.
type runtime struct {
	cfg       *Config
	logger    *slog.Logger
	store     storage.Provider
	prior     *knowledge.Export // knowledge persisted by earlier runs, nil on first run
	extractor *knowledge.Extractor
	analyzer  *connection.Analyzer
	cat       *catalog.DB
	resolver  *resolver.Resolver
	manager   *manager.Manager
}

// newLogger installs a structured JSON logger as the process default.
func newLogger(cfg *Config, out io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

func applyOptions(opts []Option) (*Config, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app.config, nil
}

// buildRuntime wires storage, persisted knowledge, the catalog, the
// resolver, and the component manager from configuration.
func buildRuntime(cfg *Config, logger *slog.Logger) (*runtime, error) {
	for _, dir := range []string{
		cfg.Data.Root,
		filepath.Join(cfg.Data.Root, cfg.Data.DocumentsDir),
		filepath.Join(cfg.Data.Root, cfg.Data.PatternsDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	store, err := storage.NewFS(cfg.Data.Root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	prior, err := knowledge.LoadExport(store, cfg.Data.KnowledgeFile)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("load knowledge: %w", err)
	}

	analyzer := connection.NewAnalyzer(logger)
	if cexp, err := connection.LoadExport(store, cfg.Data.ConnectionsFile); err == nil {
		analyzer.Restore(cexp)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("load connections: %w", err)
	}

	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("init catalog: %w", err)
	}
	if err := cat.Rebuild(prior, analyzer.Export()); err != nil {
		cat.Close()
		return nil, fmt.Errorf("rebuild catalog: %w", err)
	}

	client := bridge.NewClient(cfg.Bridge.Host, cfg.Bridge.Port,
		cfg.Bridge.QueryTimeout, cfg.Bridge.CommandTimeout, logger)

	trust, err := resolver.LoadTrustList(store, cfg.Data.TrustList)
	if err != nil {
		cat.Close()
		return nil, fmt.Errorf("load trust list: %w", err)
	}
	patterns, err := resolver.LoadPatternLibrary(store, cfg.Data.PatternsDir, logger)
	if err != nil {
		cat.Close()
		return nil, fmt.Errorf("load pattern library: %w", err)
	}
	res := resolver.New(trust, patterns, client, cfg.Bridge.BuiltinLibrary, cfg.Bridge.QueryTimeout, logger)

	mgr := manager.New(client, logger)
	if err := mgr.Restore(store, cfg.Data.IDMapFile); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		logger.Warn("id map restore failed", slog.String("error", err.Error()))
	}

	return &runtime{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		prior:     prior,
		extractor: knowledge.NewExtractor(logger),
		analyzer:  analyzer,
		cat:       cat,
		resolver:  res,
		manager:   mgr,
	}, nil
}

// saveSnapshots persists the current knowledge state and refreshes the
// catalog. Persistence failures are reported, not fatal.
func (rt *runtime) saveSnapshots() {
	exp := knowledge.Merge(rt.extractor.Registry().Export(), rt.prior)
	if err := knowledge.SaveExport(rt.store, rt.cfg.Data.KnowledgeFile, exp); err != nil {
		rt.logger.Error("save knowledge failed", slog.String("error", err.Error()))
	}

	cexp := rt.analyzer.Export()
	if err := connection.SaveExport(rt.store, rt.cfg.Data.ConnectionsFile, cexp); err != nil {
		rt.logger.Error("save connections failed", slog.String("error", err.Error()))
	}

	if err := rt.cat.Rebuild(exp, cexp); err != nil {
		rt.logger.Error("catalog rebuild failed", slog.String("error", err.Error()))
	}
}

// Run starts the long-running service: HTTP report API, SSE events, and
// the corpus watcher.
func Run(ctx context.Context, opts ...Option) error {
	cfg, err := applyOptions(opts)
	if err != nil {
		return err
	}

	logger := newLogger(cfg, os.Stdout)
	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_root", cfg.Data.Root),
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	rt, err := buildRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.cat.Close()

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	handler := api.NewHandler(rt.resolver, rt.cat, rt.analyzer)
	apiRouter := api.NewRouter(handler, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Corpus watcher: newly captured documents update the live registry,
	// exports, catalog, and SSE stream.
	corpusDir := filepath.Join(cfg.Data.Root, cfg.Data.DocumentsDir)
	watcher := knowledge.NewWatcher(rt.extractor, rt.analyzer, corpusDir, logger)
	g.Go(func() error {
		return watcher.Watch(gCtx, func(kind, path string) {
			if kind == "indexed" {
				rt.saveSnapshots()
			}
			broker.PublishCorpusEvent(kind, path)
		})
	})

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

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		if err := rt.manager.Save(rt.store, cfg.Data.IDMapFile); err != nil {
			logger.Error("id map save error", slog.String("error", err.Error()))
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

// RunExtract performs a one-shot corpus extraction: mines every document,
// merges with previously persisted knowledge, saves the exports, and
// rebuilds the catalog.
func RunExtract(ctx context.Context, opts ...Option) error {
	cfg, err := applyOptions(opts)
	if err != nil {
		return err
	}

	logger := newLogger(cfg, os.Stdout)

	rt, err := buildRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.cat.Close()

	source := graphdoc.NewDirSource(rt.store, cfg.Data.DocumentsDir, logger)
	docs, err := source.Load()
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	exp := rt.extractor.Extract(docs)
	exp = knowledge.Merge(exp, rt.prior)
	if err := knowledge.SaveExport(rt.store, cfg.Data.KnowledgeFile, exp); err != nil {
		return err
	}

	for _, doc := range docs {
		rt.analyzer.RecordDocument(doc)
	}
	cexp := rt.analyzer.Export()
	if err := connection.SaveExport(rt.store, cfg.Data.ConnectionsFile, cexp); err != nil {
		return err
	}

	if err := rt.cat.Rebuild(exp, cexp); err != nil {
		return err
	}

	logger.Info("Extraction complete",
		slog.Int("documents", len(docs)),
		slog.Int("types", exp.Stats.TypeCount),
		slog.Int("patterns", exp.Stats.PatternCount),
		slog.Int("triplets", cexp.Meta.TripletCount))
	return nil
}

// RunMCP serves the MCP tool server on stdin/stdout. Logs go to stderr so
// the stdio transport stays clean.
func RunMCP(ctx context.Context, opts ...Option) error {
	cfg, err := applyOptions(opts)
	if err != nil {
		return err
	}

	logger := newLogger(cfg, os.Stderr)

	rt, err := buildRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.cat.Close()

	srv := mcpserver.New(rt.resolver, rt.cat, rt.analyzer, rt.manager)
	logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}
