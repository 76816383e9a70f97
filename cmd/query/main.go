// Package main runs GraphQL operations against the futarchy endpoint. The
// operation is either read from a file or built from flags; both are checked
// against the schema map before anything is sent.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/vektah/gqlparser/v2/ast"

	"futarchy-graph/internal/catalog"
	"futarchy-graph/internal/config"
	"futarchy-graph/internal/hasura"
	"futarchy-graph/internal/schema"
)

// request holds what the flags describe.
type request struct {
	file      string
	opName    string
	variables string

	table   string
	columns string
	where   string
	orderBy string
	limit   int
	offset  int
	pk      string
	count   bool

	maxEvents int
}

func main() {
	var req request
	configPath := flag.String("config", os.Getenv("FUTARCHY_CONFIG"), "Path to YAML config file")
	endpoint := flag.String("endpoint", "", "GraphQL HTTP endpoint (overrides endpoint.http_url)")
	flag.StringVar(&req.file, "file", "", "File with a GraphQL document (- for stdin)")
	flag.StringVar(&req.opName, "operation", "", "Operation name when the document has several")
	flag.StringVar(&req.variables, "vars", "", "Variables as a JSON object")
	flag.StringVar(&req.table, "table", "", "Build a query on this table instead of reading -file")
	flag.StringVar(&req.columns, "columns", "", "Comma-separated columns to select (default: all scalar columns)")
	flag.StringVar(&req.where, "where", "", "Filter as a JSON bool_exp, e.g. {\"status\":{\"_eq\":\"Pending\"}}")
	flag.StringVar(&req.orderBy, "order-by", "", "Comma-separated column[:direction], e.g. created_at:desc")
	flag.IntVar(&req.limit, "limit", 20, "Maximum rows (0 for no limit)")
	flag.IntVar(&req.offset, "offset", 0, "Rows to skip")
	flag.StringVar(&req.pk, "pk", "", "Fetch one row by primary key, given as a JSON object")
	flag.BoolVar(&req.count, "count", false, "Print the row count of -table matching -where")
	flag.IntVar(&req.maxEvents, "max-events", 0, "Stop a subscription after this many events (0 for no limit)")
	printSDL := flag.Bool("print-schema", false, "Print the schema SDL and exit")

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

	s, err := catalog.Schema()
	if err != nil {
		logger.Fatalf("Build catalog schema: %v", err)
	}
	if *printSDL {
		if err := schema.WriteSDL(os.Stdout, s); err != nil {
			logger.Fatalf("Write SDL: %v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, s, req, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Fatal("Query failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger, s *schema.Schema, req request, out io.Writer) error {
	if err := cfg.RequireEndpoint(); err != nil {
		return err
	}
	validator, err := schema.NewValidator(s)
	if err != nil {
		return err
	}
	client := hasura.NewClient(cfg.Endpoint.HTTPURL, append(cfg.Endpoint.ClientOptions(),
		hasura.WithValidator(validator),
		hasura.WithLogger(logger.WithField("component", "graphql")),
	)...)
	builder := hasura.NewBuilder(s)

	if req.table != "" && req.count {
		where, err := parseWhere(req.where)
		if err != nil {
			return err
		}
		n, err := hasura.Count(ctx, client, builder, req.table, where)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, n)
		return nil
	}

	op, err := buildOperation(validator, builder, req)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{"operation": op.Name, "type": op.Type}).Debug("Running operation")

	if op.Type == schema.Subscription {
		return follow(ctx, cfg, logger, op, req.maxEvents, out)
	}

	data, err := client.Raw(ctx, op)
	if err != nil {
		return err
	}
	return writeJSON(out, data)
}

// buildOperation turns the flags into an operation.
func buildOperation(v *schema.Validator, b *hasura.Builder, req request) (*hasura.Operation, error) {
	if req.table == "" {
		if req.file == "" {
			return nil, errors.New("either -file or -table is required")
		}
		doc, err := readDocument(req.file)
		if err != nil {
			return nil, err
		}
		vars, err := parseObject("vars", req.variables)
		if err != nil {
			return nil, err
		}
		return documentOperation(v, doc, req.opName, vars)
	}

	var sel hasura.Selection
	if req.columns != "" {
		sel = hasura.Cols(splitList(req.columns)...)
	}

	if req.pk != "" {
		pk, err := parseObject("pk", req.pk)
		if err != nil {
			return nil, err
		}
		return b.ByPK(req.table, pk, sel)
	}

	where, err := parseWhere(req.where)
	if err != nil {
		return nil, err
	}
	orderBy, err := parseOrderBy(req.orderBy)
	if err != nil {
		return nil, err
	}
	return b.Select(req.table, hasura.ListArgs{
		Where:   where,
		OrderBy: orderBy,
		Limit:   req.limit,
		Offset:  req.offset,
	}, sel)
}

// documentOperation validates doc and picks the operation to run.
func documentOperation(v *schema.Validator, doc, name string, vars map[string]any) (*hasura.Operation, error) {
	parsed, err := v.Parse(doc)
	if err != nil {
		return nil, err
	}

	var op *ast.OperationDefinition
	switch {
	case name != "":
		op = parsed.Operations.ForName(name)
		if op == nil {
			return nil, fmt.Errorf("document has no operation %q", name)
		}
	case len(parsed.Operations) == 1:
		op = parsed.Operations[0]
	default:
		return nil, fmt.Errorf("document has %d operations, choose one with -operation", len(parsed.Operations))
	}

	root := ""
	if len(op.SelectionSet) > 0 {
		if f, ok := op.SelectionSet[0].(*ast.Field); ok {
			root = f.Alias
		}
	}
	return &hasura.Operation{
		Type:      schema.OperationType(op.Operation),
		Name:      op.Name,
		RootField: root,
		Document:  doc,
		Variables: vars,
	}, nil
}

// follow prints subscription events as JSON lines.
func follow(ctx context.Context, cfg *config.Config, logger *logrus.Logger, op *hasura.Operation, maxEvents int, out io.Writer) error {
	sub, err := hasura.NewSubscriptionClient(ctx, cfg.Endpoint.WebSocketURL(),
		hasura.WithWSConfig(cfg.Mirror.WSConfig()),
		hasura.WithWSHeaders(cfg.Endpoint.WSHeaders()),
		hasura.WithWSLogger(logger.WithField("component", "subscriptions")),
	)
	if err != nil {
		return err
	}
	defer sub.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events, err := sub.Subscribe(ctx, op, nil)
	if err != nil {
		return err
	}

	n := 0
	for ev := range events {
		if ev.Err != nil {
			return ev.Err
		}
		if _, err := fmt.Fprintln(out, string(ev.Data)); err != nil {
			return err
		}
		n++
		if maxEvents > 0 && n >= maxEvents {
			return nil
		}
	}
	return ctx.Err()
}

func readDocument(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(data), nil
}

func parseObject(name, raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("-%s: %w", name, err)
	}
	return m, nil
}

func parseWhere(raw string) (hasura.BoolExp, error) {
	m, err := parseObject("where", raw)
	if err != nil || m == nil {
		return nil, err
	}
	return hasura.BoolExp(m), nil
}

var directions = map[string]bool{
	hasura.Asc: true, hasura.AscNullsFirst: true, hasura.AscNullsLast: true,
	hasura.Desc: true, hasura.DescNullsFirst: true, hasura.DescNullsLast: true,
}

// parseOrderBy parses "created_at:desc,proposal_acct".
func parseOrderBy(raw string) ([]hasura.OrderBy, error) {
	var out []hasura.OrderBy
	for _, part := range splitList(raw) {
		col, dir, found := strings.Cut(part, ":")
		if !found {
			dir = hasura.Asc
		}
		if !directions[dir] {
			return nil, fmt.Errorf("-order-by: unknown direction %q", dir)
		}
		out = append(out, hasura.OrderBy{Column: col, Direction: dir})
	}
	return out, nil
}

func writeJSON(w io.Writer, data json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
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
