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
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/bus"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/replica"
	"github.com/starford/ansuz/internal/search"
	"github.com/starford/ansuz/internal/sse"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/store"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger. The level lives in a LevelVar
	// so a config reload can adjust it at runtime.
	levelVar := new(slog.LevelVar)
	levelVar.Set(cfg.App.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelVar,
	}))
	slog.SetDefault(logger)

	replicaID := cfg.Sync.ReplicaID
	if replicaID == "" {
		replicaID = uuid.NewString()
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_backend", cfg.Store.Backend),
		slog.String("store_path", cfg.Store.Path),
		slog.String("replica_id", replicaID),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Open the key-value backend.
	backend, err := openBackend(cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer backend.Close()

	// Load the collection and build derived indexes.
	index := search.NewIndex()
	st, err := store.New(backend, index, logger)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Replica bus: connect to a peer hub when configured, otherwise this
	// node is the hub and participates through its local endpoint, so
	// replicas that dial in converge with it.
	hub := bus.NewHub(logger)
	var channel bus.Channel
	if cfg.Sync.Peer != "" {
		ws, err := bus.DialWS(cfg.Sync.Peer, logger)
		if err != nil {
			return fmt.Errorf("connect peer %s: %w", cfg.Sync.Peer, err)
		}
		channel = ws
	} else {
		channel = hub.Local()
	}

	// Service and conflict resolver. The resolver writes through the
	// service, the service announces local changes to the resolver.
	svc := noteservice.NewService(st, index, broker, nil)
	resolver := replica.New(replicaID, svc, channel, logger, replica.Config{
		Tolerance: time.Duration(cfg.Sync.ToleranceSeconds) * time.Second,
		Timeout:   time.Duration(cfg.Sync.TimeoutSeconds) * time.Second,
		Heartbeat: time.Duration(cfg.Sync.HeartbeatSeconds) * time.Second,
	})
	svc.SetPeers(resolver)

	apiRouter := api.NewRouter(api.RouterConfig{
		Service:     svc,
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		Events:      broker,
		Sync:        hub,
		Peers:       resolver,
		ReplicaID:   replicaID,
	})

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
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Run the conflict resolver loop.
	g.Go(func() error {
		return resolver.Run(gCtx)
	})

	// Hot reload of the log level from the config file.
	if app.configFile != "" {
		g.Go(func() error {
			return pkgconfig.Watch(gCtx, app.configFile, logger, func(next *Config) {
				if next.App.LogLevel != levelVar.Level() {
					logger.Info("log level changed",
						slog.String("from", levelVar.Level().String()),
						slog.String("to", next.App.LogLevel.String()))
					levelVar.Set(next.App.LogLevel)
				}
			})
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
		channel.Close()

		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

func openBackend(cfg StoreConfig, logger *slog.Logger) (storage.Backend, error) {
	switch cfg.Backend {
	case BackendSQLite:
		return storage.OpenSQLite(cfg.Path)
	default:
		return storage.OpenBadger(cfg.Path, logger)
	}
}
