// main is the entry point of the personas HTTP service.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file (plus .env and env overrides)
//  2. Initialise the logger
//  3. Open the configured store (sqlite, postgres or memory)
//  4. Build the reconciler, importer and exporter
//  5. Register the HTTP routes
//  6. Start the HTTP server in a separate goroutine
//  7. Block until an OS signal (Ctrl+C / kill) arrives
//  8. Gracefully shut down: finish in-flight requests, close the store
//
// RUNNING THE SERVER:
//
//	go run ./cmd/personas-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/personas-api
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aanand-mishra/personas-api/internal/config"
	"github.com/aanand-mishra/personas-api/internal/exporter"
	"github.com/aanand-mishra/personas-api/internal/http/router"
	"github.com/aanand-mishra/personas-api/internal/importer"
	"github.com/aanand-mishra/personas-api/internal/logging"
	"github.com/aanand-mishra/personas-api/internal/reconcile"
	"github.com/aanand-mishra/personas-api/internal/storage/backend"
)

const version = "1.0.0"

func main() {
	os.Exit(run())
}

// run holds the whole server lifetime so deferred cleanup finishes before
// main picks the exit code.
func run() int {
	// ── 1. Load Config ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	log := logging.Setup(cfg.Env)

	log.Info("starting personas-api",
		slog.String("env", cfg.Env),
		slog.String("version", version),
	)

	// ── 3. Initialise Storage ─────────────────────────────────────────────
	// Everything below only sees the storage.Storage interface; the driver
	// is a config switch.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("driver", cfg.Storage.Driver),
			slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	log.Info("storage initialised", slog.String("driver", cfg.Storage.Driver))

	// ── 4. Services ───────────────────────────────────────────────────────
	reconciler := reconcile.New(reconcile.Options{
		PreserveEmptyStoreGap: cfg.Import.PreserveEmptyStoreGap,
	})
	if cfg.Import.PreserveEmptyStoreGap {
		log.Warn("empty-store gap preserved: imports into an empty table are not validated")
	}

	imports := importer.New(store, reconciler, importer.Options{
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWait:       cfg.Import.MaxWait,
	})
	exports := exporter.New(store, cfg.Export.Dir)

	// ── 5. Register HTTP Routes ───────────────────────────────────────────
	handler := router.New(router.Deps{
		Store:          store,
		Importer:       imports,
		Exporter:       exports,
		MaxUploadSize:  cfg.Import.MaxFileSize,
		RequestTimeout: cfg.HTTPServer.RequestTimeout,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		StaticDir:      cfg.Static.Dir,
	})

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	// ── 6. Start Server in a Goroutine ────────────────────────────────────
	serverErr := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		// ListenAndServe returns http.ErrServerClosed after Shutdown.
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// ── 7. Wait for Shutdown Signal ───────────────────────────────────────
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping server...")
	case err, ok := <-serverErr:
		if ok {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			return 1
		}
	}

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
		return 1
	}

	log.Info("server stopped gracefully")
	return 0
}
