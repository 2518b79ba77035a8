// main is the entry point of the Student Marks API.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file (env vars override)
//  2. Initialise the logger
//  3. Open the configured database and apply its migrations
//  4. Build the chi router
//  5. Start the HTTP server in a separate goroutine
//  6. Block the main goroutine until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, close storage, exit
//
// RUNNING THE SERVER:
//
//	go run ./cmd/students-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/students-api
package main

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

	"github.com/aanand-mishra/student-marks-api/internal/config"
	"github.com/aanand-mishra/student-marks-api/internal/http/router"
	"github.com/aanand-mishra/student-marks-api/internal/logger"
	"github.com/aanand-mishra/student-marks-api/internal/storage"
	"github.com/aanand-mishra/student-marks-api/internal/storage/postgres"
	"github.com/aanand-mishra/student-marks-api/internal/storage/sqlite"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	// MustLoad exits the process if anything is wrong, so if it returns
	// the config is guaranteed valid.
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	// Installed as the default so handlers can log through slog.Info & co.
	log := logger.Setup(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting students-api",
		slog.String("env", cfg.Env),
		slog.String("storage_driver", cfg.Storage.Driver),
	)

	// The signal context doubles as the lifetime of the whole process.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── 3. Initialise Storage (Database) ──────────────────────────────────
	// The rest of the program only sees the storage.Storage interface;
	// the driver in the config decides which implementation backs it.
	store, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	log.Info("storage initialised")

	// ── 4. Create the HTTP Server ─────────────────────────────────────────
	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      router.New(store, cfg.HTTPServer.AllowedOrigins),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	// ── 5. Start Server in a Goroutine ────────────────────────────────────
	// ListenAndServe blocks until Shutdown is called, so it runs in its own
	// goroutine. A failure to bind is reported on serveErr.
	serveErr := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// ── 6. Wait for Shutdown Signal ───────────────────────────────────────
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping server...")
	case err := <-serveErr:
		log.Error("server encountered an error", slog.String("error", err.Error()))
	}

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	// Stop accepting connections and give in-flight requests a deadline.
	// The deferred store.Close runs after this returns.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		return
	}

	log.Info("server stopped gracefully")
}

// openStorage returns the storage.Storage for the configured driver.
func openStorage(ctx context.Context, cfg config.Storage) (storage.Storage, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.New(ctx, cfg)
	case config.DriverPostgres:
		return postgres.New(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
