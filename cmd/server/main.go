// Package main serves the futarchy schema over HTTP: the compact snapshot,
// SDL, per-type views, query validation, and mirror stream status when a
// PostgreSQL cursor store is configured.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"futarchy-graph/internal/catalog"
	"futarchy-graph/internal/config"
	"futarchy-graph/internal/httpapi"
	"futarchy-graph/internal/schema"
	pgstore "futarchy-graph/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", os.Getenv("FUTARCHY_CONFIG"), "Path to YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	snapshot := flag.String("snapshot", "", "Compact schema snapshot to serve instead of the built-in catalog")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for /streams")

	flag.Parse()

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		logrus.Fatalf("Load config: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Server.Addr = *addr
		case "snapshot":
			cfg.Server.Snapshot = *snapshot
		case "postgres-dsn":
			cfg.Storage.PostgresDSN = *postgresDSN
			cfg.Storage.Backend = config.BackendPostgres
		}
	})
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid config: %v", err)
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		logrus.Fatalf("Create logger: %v", err)
	}
	log := logger.WithField("cmd", "server")

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("Received signal, initiating graceful shutdown")
		cancel()

		select {
		case sig := <-sigCh:
			log.WithField("signal", sig).Warn("Received second signal, forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(cfg.Server.ShutdownTimeout + 20*time.Second):
			log.Warn("Graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, cfg, log)
	done <- err
	cancel()

	if err != nil {
		log.WithError(err).Fatal("Server failed")
	}
	log.Info("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) error {
	s, err := loadSchema(cfg.Server.Snapshot)
	if err != nil {
		return err
	}

	opts := []httpapi.Option{httpapi.WithLogger(log)}
	if cfg.Storage.Backend == config.BackendPostgres {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()
		opts = append(opts, httpapi.WithCursors(pgstore.NewCursorStore(pool)))
	}

	api, err := httpapi.NewServer(s, opts...)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":        cfg.Server.Addr,
			"fingerprint": api.Fingerprint(),
		}).Info("Starting schema server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// loadSchema reads a compact snapshot, falling back to the catalog.
func loadSchema(path string) (*schema.Schema, error) {
	if path == "" {
		return catalog.Schema()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return schema.UnmarshalCompact(data)
}
