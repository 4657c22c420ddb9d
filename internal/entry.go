// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
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

	"github.com/starford/planthub/internal/api"
	"github.com/starford/planthub/internal/catalog"
	"github.com/starford/planthub/internal/garden"
	"github.com/starford/planthub/internal/kvstore"
	"github.com/starford/planthub/internal/mcpserver"
	"github.com/starford/planthub/internal/persist"
	"github.com/starford/planthub/internal/sse"
	"github.com/starford/planthub/internal/watch"
)

const readyTimeout = 2 * time.Second

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(app.stdout, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("store_path", cfg.Store.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, closeStore, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	g := newGarden(ctx, cfg, store, logger, garden.WithListener(broker.Notify))
	searcher := newSearcher(cfg.Catalog, logger)

	h := api.NewHandler(g, searcher, logger)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", readyHandler(store))

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, gCtx := errgroup.WithContext(ctx)

	if fs, ok := store.(*kvstore.FS); ok {
		eg.Go(func() error {
			return watch.Watch(gCtx, fs, persist.Keys, watch.DefaultDebounce, logger, g.Reload)
		})
	}

	eg.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
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
		return context.Canceled
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr so they do
// not corrupt the protocol stream.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(os.Stderr, cfg.App.LogLevel)
	slog.SetDefault(logger)

	store, closeStore, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	g := newGarden(ctx, cfg, store, logger)
	srv := mcpserver.New(g, newSearcher(cfg.Catalog, logger), logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, gCtx := errgroup.WithContext(ctx)

	if fs, ok := store.(*kvstore.FS); ok {
		eg.Go(func() error {
			return watch.Watch(gCtx, fs, persist.Keys, watch.DefaultDebounce, logger, g.Reload)
		})
	}
	eg.Go(func() error {
		defer cancel()
		logger.Info("MCP server starting (stdio)")
		return srv.ServeStdio()
	})

	return eg.Wait()
}

// Export writes the journey export of plantID to out and returns the path
// written. An empty out uses the export's default file name.
func Export(ctx context.Context, plantID, out string, opts ...Option) (string, error) {
	app, err := newApplication(opts)
	if err != nil {
		return "", err
	}
	logger := newLogger(app.stdout, app.config.App.LogLevel)

	store, closeStore, err := app.openStore(ctx)
	if err != nil {
		return "", err
	}
	defer closeStore()

	g := newGarden(ctx, app.config, store, logger)
	exp, err := g.Export(plantID)
	if err != nil {
		return "", err
	}
	if out == "" {
		out = garden.ExportFileName(exp.Plant.Nickname)
	}
	body, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}
	if err := os.WriteFile(out, body, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	logger.Info("journey exported",
		slog.String("plant_id", plantID), slog.String("path", out), slog.Int("entries", len(exp.Journey)))
	return out, nil
}

func newApplication(opts []Option) (*application, error) {
	app := &application{stdout: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// openStore returns the injected store or opens the configured backend.
// The returned func releases what openStore opened.
func (a *application) openStore(ctx context.Context) (kvstore.Provider, func(), error) {
	if a.store != nil {
		return a.store, func() {}, nil
	}
	store, err := OpenStore(ctx, a.config.Store)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

// OpenStore opens the key-value backend named by cfg.Driver.
func OpenStore(ctx context.Context, cfg StoreConfig) (kvstore.Provider, error) {
	switch cfg.Driver {
	case StoreDriverFS, "":
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		store, err := kvstore.NewFS(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("init fs store: %w", err)
		}
		return store, nil
	case StoreDriverSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		store, err := kvstore.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
		return store, nil
	case StoreDriverPostgres:
		store, err := kvstore.OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		return store, nil
	case StoreDriverMemory:
		return kvstore.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func newGarden(ctx context.Context, cfg *Config, store kvstore.Provider, logger *slog.Logger, opts ...garden.Option) *garden.Garden {
	opts = append([]garden.Option{
		garden.WithLogger(logger),
		garden.WithUpcomingWindow(cfg.Garden.UpcomingDays),
	}, opts...)
	return garden.New(ctx, persist.New(store, logger), opts...)
}

// newSearcher wires the configured upstream sources in priority order.
// A source that cannot be built is logged and left out.
func newSearcher(cfg CatalogConfig, logger *slog.Logger) *catalog.Searcher {
	var sources []catalog.Source
	if cfg.PerenualKey != "" {
		if p, err := catalog.NewPerenual(cfg.PerenualURL, cfg.PerenualKey, cfg.Timeout); err != nil {
			logger.Warn("catalog: perenual disabled", slog.String("error", err.Error()))
		} else {
			sources = append(sources, p)
		}
	}
	if hp, err := catalog.NewHousePlants(cfg.HousePlantsURL, cfg.Timeout); err != nil {
		logger.Warn("catalog: houseplants disabled", slog.String("error", err.Error()))
	} else {
		sources = append(sources, hp)
	}
	return catalog.NewSearcher(logger, cfg.Cooldown, sources...)
}

// readyHandler reports ready once the store answers a key listing.
func readyHandler(store kvstore.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if _, err := store.Keys(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
