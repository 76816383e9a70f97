// Package main mirrors futarchy tables from the GraphQL endpoint into local
// storage: a keyset backfill per table, then live _stream subscriptions.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"futarchy-graph/internal/catalog"
	"futarchy-graph/internal/config"
	"futarchy-graph/internal/hasura"
	"futarchy-graph/internal/httpapi"
	"futarchy-graph/internal/mirror"
	"futarchy-graph/internal/observability"
	"futarchy-graph/internal/schema"
	"futarchy-graph/internal/storage"
	chstore "futarchy-graph/internal/storage/clickhouse"
	"futarchy-graph/internal/storage/memory"
	"futarchy-graph/internal/storage/migrations"
	pgstore "futarchy-graph/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", os.Getenv("FUTARCHY_CONFIG"), "Path to YAML config file")
	endpoint := flag.String("endpoint", "", "GraphQL HTTP endpoint (overrides endpoint.http_url)")
	tables := flag.String("tables", "", "Comma-separated tables to mirror (default: all)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for the analytics copy of takes and candles")
	migrate := flag.Bool("migrate", false, "Run database migrations before mirroring")
	once := flag.Bool("once", false, "Backfill to the current head and exit without subscribing")
	status := flag.Bool("status", false, "Print stored stream cursors and exit")
	metricsAddr := flag.String("metrics-addr", "", "HTTP address for /metrics, /health and /streams (overrides metrics.addr)")

	flag.Parse()

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		logrus.Fatalf("Load config: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "endpoint":
			cfg.Endpoint.HTTPURL = *endpoint
		case "tables":
			cfg.Mirror.Tables = splitList(*tables)
		case "use-memory":
			if *useMemory {
				cfg.Storage.Backend = config.BackendMemory
			}
		case "postgres-dsn":
			cfg.Storage.PostgresDSN = *postgresDSN
			if !*useMemory {
				cfg.Storage.Backend = config.BackendPostgres
			}
		case "clickhouse-dsn":
			cfg.Storage.ClickHouseDSN = *clickhouseDSN
		case "migrate":
			cfg.Storage.Migrate = *migrate
		case "metrics-addr":
			cfg.Metrics.Addr = *metricsAddr
		}
	})
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid config: %v", err)
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		logrus.Fatalf("Create logger: %v", err)
	}
	log := logger.WithField("cmd", "mirror")

	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to signal main goroutine completion
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("Received signal, initiating graceful shutdown")
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			log.WithField("signal", sig).Warn("Received second signal, forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	if *status {
		err = printStatus(ctx, cfg)
	} else {
		err = run(ctx, cfg, logger, *once)
	}

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("Mirror failed")
	}
	log.Info("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger, once bool) error {
	log := logger.WithField("cmd", "mirror")
	if err := cfg.RequireEndpoint(); err != nil {
		return err
	}

	s, err := catalog.Schema()
	if err != nil {
		return fmt.Errorf("build catalog schema: %w", err)
	}

	stores, cursors, cleanup, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	streams, err := mirror.FutarchyStreams(stores, cfg.Mirror.Tables...)
	if err != nil {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(mirror.TableNames(), ", "))
	}

	metrics := observability.DefaultMetrics
	clientOpts := append(cfg.Endpoint.ClientOptions(),
		hasura.WithMetrics(metrics),
		hasura.WithLogger(logger.WithField("component", "graphql")),
	)
	if cfg.Endpoint.Validate {
		v, err := schema.NewValidator(s)
		if err != nil {
			return fmt.Errorf("create validator: %w", err)
		}
		clientOpts = append(clientOpts, hasura.WithValidator(v))
	}
	client := hasura.NewClient(cfg.Endpoint.HTTPURL, clientOpts...)

	opts := mirror.RunnerOptions{
		Executor:  client,
		Builder:   hasura.NewBuilder(s),
		Cursors:   cursors,
		Streams:   streams,
		PageSize:  cfg.Mirror.PageSize,
		BatchSize: cfg.Mirror.BatchSize,
		Metrics:   metrics,
		Logger:    logger,
	}
	if !once {
		sub, err := hasura.NewSubscriptionClient(ctx, cfg.Endpoint.WebSocketURL(),
			hasura.WithWSConfig(cfg.Mirror.WSConfig()),
			hasura.WithWSHeaders(cfg.Endpoint.WSHeaders()),
			hasura.WithWSLogger(logger.WithField("component", "subscriptions")),
			hasura.WithWSMetrics(metrics),
		)
		if err != nil {
			return fmt.Errorf("connect subscriptions: %w", err)
		}
		defer sub.Close()
		opts.Subscriber = sub
	}

	runner, err := mirror.NewRunner(opts)
	if err != nil {
		return err
	}

	if cfg.Metrics.Addr != "" {
		stop, err := serveStatus(s, cursors, cfg.Metrics.Addr, log)
		if err != nil {
			return err
		}
		defer stop()
	}

	log.WithFields(logrus.Fields{
		"endpoint": cfg.Endpoint.HTTPURL,
		"streams":  runner.Streams(),
		"backend":  cfg.Storage.Backend,
		"once":     once,
	}).Info("Starting mirror")

	if once {
		return runner.Backfill(ctx)
	}
	return runner.Run(ctx)
}

// openStores creates the stream destinations and the cursor store for the
// configured backend.
func openStores(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (mirror.Stores, storage.CursorStore, func(), error) {
	var (
		stores   mirror.Stores
		cursors  storage.CursorStore
		cleanups []func()
	)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		log.Warn("Using in-memory storage, mirrored rows are lost on exit")
		stores = mirror.Stores{
			Daos:      memory.NewDaoStore(),
			Proposals: memory.NewProposalStore(),
			Markets:   memory.NewMarketStore(),
			Orders:    memory.NewOrderStore(),
			Takes:     memory.NewTakeStore(),
			Candles:   memory.NewCandleStore(),
			Twaps:     memory.NewTwapStore(),
			Tokens:    memory.NewTokenStore(),
		}
		cursors = memory.NewCursorStore()

	case config.BackendPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return stores, nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		cleanups = append(cleanups, pool.Close)
		if cfg.Storage.Migrate {
			applied, err := migrations.RunPostgresMigrations(ctx, pool)
			if err != nil {
				cleanup()
				return stores, nil, nil, fmt.Errorf("postgres migrations: %w", err)
			}
			log.WithField("applied", applied).Info("PostgreSQL migrations up to date")
		}
		stores = mirror.Stores{
			Daos:      pgstore.NewDaoStore(pool),
			Proposals: pgstore.NewProposalStore(pool),
			Markets:   pgstore.NewMarketStore(pool),
			Orders:    pgstore.NewOrderStore(pool),
			Takes:     pgstore.NewTakeStore(pool),
			Candles:   pgstore.NewCandleStore(pool),
			Twaps:     pgstore.NewTwapStore(pool),
			Tokens:    pgstore.NewTokenStore(pool),
		}
		cursors = pgstore.NewCursorStore(pool)
	}

	if dsn := cfg.Storage.ClickHouseDSN; dsn != "" {
		var (
			conn *chstore.Conn
			err  error
		)
		if cfg.Storage.Migrate {
			conn, err = migrations.RunClickhouseMigrations(ctx, dsn)
		} else {
			conn, err = chstore.NewConn(ctx, dsn)
		}
		if err != nil {
			cleanup()
			return stores, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		cleanups = append(cleanups, func() { conn.Close() })
		stores.AnalyticsTakes = chstore.NewTakeStore(conn)
		stores.AnalyticsCandles = chstore.NewCandleStore(conn)
		log.Info("Copying takes and candles to ClickHouse")
	}

	return stores, cursors, cleanup, nil
}

// serveStatus starts the status listener and returns its shutdown func.
func serveStatus(s *schema.Schema, cursors storage.CursorStore, addr string, log logrus.FieldLogger) (func(), error) {
	api, err := httpapi.NewServer(s, httpapi.WithCursors(cursors), httpapi.WithLogger(log))
	if err != nil {
		return nil, err
	}
	srv := &http.Server{Addr: addr, Handler: api, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.WithField("addr", addr).Info("Starting status server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Status server error")
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}, nil
}

// printStatus lists stored cursors with their lag.
func printStatus(ctx context.Context, cfg *config.Config) error {
	if cfg.Storage.Backend != config.BackendPostgres {
		return errors.New("--status needs the postgres backend")
	}
	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	cursors := pgstore.NewCursorStore(pool)
	list, err := cursors.List(ctx)
	if err != nil {
		return err
	}
	lag, err := mirror.Lag(ctx, cursors, time.Now())
	if err != nil {
		return err
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Stream < list[j].Stream })

	fmt.Printf("%-12s %-16s %-34s %5s  %s\n", "STREAM", "COLUMN", "CURSOR", "TIES", "LAG")
	for _, c := range list {
		l := "-"
		if d, ok := lag[c.Stream]; ok {
			l = d.Truncate(time.Second).String()
		}
		fmt.Printf("%-12s %-16s %-34s %5d  %s\n", c.Stream, c.Column, string(c.Value), c.Ties, l)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
