// Package main writes the futarchy schema map (compact JSON and SDL) from the
// built-in catalog or a live endpoint, and checks a snapshot against the live
// endpoint with -check.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"futarchy-graph/internal/catalog"
	"futarchy-graph/internal/config"
	"futarchy-graph/internal/hasura"
	"futarchy-graph/internal/observability"
	"futarchy-graph/internal/schema"
)

// Output file names inside -out.
const (
	CompactFile     = "futarchy.schema.json"
	SDLFile         = "futarchy.graphql"
	FingerprintFile = "futarchy.fingerprint"
)

// Exit codes of -check.
const (
	exitOK       = 0
	exitError    = 1
	exitBreaking = 2
	exitChanged  = 3
)

func main() {
	configPath := flag.String("config", os.Getenv("FUTARCHY_CONFIG"), "Path to YAML config file")
	endpoint := flag.String("endpoint", "", "GraphQL HTTP endpoint (overrides endpoint.http_url)")
	source := flag.String("source", "catalog", "Schema source: catalog or live")
	outDir := flag.String("out", "schema", "Output directory")
	check := flag.Bool("check", false, "Diff the snapshot against the live endpoint instead of writing files")
	snapshot := flag.String("snapshot", "", "Compact snapshot to check (default: the built-in catalog)")
	strict := flag.Bool("strict", false, "With -check, fail on non-breaking changes too")
	metricsFile := flag.String("metrics-textfile", "", "Write check metrics in Prometheus text format to this file")
	timeout := flag.Duration("timeout", time.Minute, "Timeout for introspection")

	flag.Parse()

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		logrus.Fatalf("Load config: %v", err)
	}
	if *endpoint != "" {
		cfg.Endpoint.HTTPURL = *endpoint
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid config: %v", err)
	}
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		logrus.Fatalf("Create logger: %v", err)
	}
	log := logger.WithField("cmd", "schemagen")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *check {
		code, err := runCheck(ctx, cfg, log, *snapshot, *strict, *metricsFile, os.Stdout)
		if err != nil {
			log.WithError(err).Error("Schema check failed")
		}
		cancel()
		os.Exit(code)
	}

	var s *schema.Schema
	switch *source {
	case "catalog":
		s, err = catalog.Schema()
	case "live":
		s, err = introspect(ctx, cfg, log)
	default:
		err = fmt.Errorf("unknown source %q, want catalog or live", *source)
	}
	if err != nil {
		log.WithError(err).Fatal("Load schema")
	}

	fingerprint, err := write(s, *outDir)
	if err != nil {
		log.WithError(err).Fatal("Write schema")
	}
	log.WithFields(logrus.Fields{
		"source":      *source,
		"out":         *outDir,
		"types":       len(s.Types),
		"fingerprint": fingerprint,
	}).Info("Schema written")
}

// write stores the compact encoding, the SDL and the fingerprint in dir.
func write(s *schema.Schema, dir string) (string, error) {
	compact, err := schema.MarshalCompact(s)
	if err != nil {
		return "", err
	}
	fingerprint, err := schema.Fingerprint(s)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	files := map[string][]byte{
		CompactFile:     compact,
		SDLFile:         []byte(schema.SDL(s)),
		FingerprintFile: []byte(fingerprint + "\n"),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", name, err)
		}
	}
	return fingerprint, nil
}

func introspect(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*schema.Schema, error) {
	if err := cfg.RequireEndpoint(); err != nil {
		return nil, err
	}
	client := hasura.NewClient(cfg.Endpoint.HTTPURL, append(cfg.Endpoint.ClientOptions(),
		hasura.WithLogger(log.WithField("component", "graphql")),
	)...)
	return hasura.Introspect(ctx, client)
}

// loadSnapshot reads a compact snapshot, or builds the catalog schema when
// path is empty.
func loadSnapshot(path string) (*schema.Schema, error) {
	if path == "" {
		return catalog.Schema()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return schema.UnmarshalCompact(data)
}

// runCheck diffs the snapshot against the live endpoint, prints every change
// and returns the process exit code.
func runCheck(ctx context.Context, cfg *config.Config, log logrus.FieldLogger, snapshot string, strict bool, metricsFile string, out io.Writer) (int, error) {
	base, err := loadSnapshot(snapshot)
	if err != nil {
		return exitError, err
	}
	live, err := introspect(ctx, cfg, log)
	if err != nil {
		return exitError, err
	}
	return report(base, live, strict, metricsFile, observability.DefaultMetrics, out)
}

func report(base, live *schema.Schema, strict bool, metricsFile string, metrics *observability.Metrics, out io.Writer) (int, error) {
	changes := schema.Diff(base, live)
	breaking := schema.BreakingChanges(changes)
	metrics.RecordSchemaDiff(len(changes), len(breaking))

	for _, c := range changes {
		marker := " "
		if c.Breaking() {
			marker = "!"
		}
		fmt.Fprintf(out, "%s %s\n", marker, c)
	}
	fmt.Fprintf(out, "%d changes, %d breaking\n", len(changes), len(breaking))

	if metricsFile != "" {
		if err := prometheus.WriteToTextfile(metricsFile, metrics.Gatherer()); err != nil {
			return exitError, fmt.Errorf("write metrics: %w", err)
		}
	}

	switch {
	case len(breaking) > 0:
		return exitBreaking, nil
	case strict && len(changes) > 0:
		return exitChanged, nil
	}
	return exitOK, nil
}
