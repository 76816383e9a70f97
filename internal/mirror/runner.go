package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/buger/jsonparser"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"futarchy-graph/internal/hasura"
	"futarchy-graph/internal/observability"
	"futarchy-graph/internal/storage"
)

// Defaults for RunnerOptions.
const (
	DefaultPageSize  = 1000
	DefaultBatchSize = 100
)

// Batch phases reported to metrics.
const (
	PhaseBackfill = "backfill"
	PhaseStream   = "stream"
)

// ErrStreamCompleted is returned when the server ends a live subscription.
var ErrStreamCompleted = errors.New("stream completed by server")

// Runner mirrors a set of streams.
type Runner struct {
	exec       hasura.Executor
	subscriber hasura.Subscriber
	builder    *hasura.Builder
	cursors    storage.CursorStore
	streams    []*Stream
	pageSize   int
	batchSize  int
	metrics    *observability.Metrics
	logger     logrus.FieldLogger
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Executor hasura.Executor
	// Subscriber is optional. Without it Run stops after the backfill.
	Subscriber hasura.Subscriber
	Builder    *hasura.Builder
	Cursors    storage.CursorStore
	Streams    []*Stream
	PageSize   int // Default: 1000 rows per backfill query
	BatchSize  int // Default: 100 rows per _stream batch
	Metrics    *observability.Metrics
	Logger     logrus.FieldLogger
}

// NewRunner creates a new mirror runner. Every stream is checked against the
// builder's schema.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Executor == nil || opts.Builder == nil || opts.Cursors == nil {
		return nil, errors.New("mirror: executor, builder and cursor store are required")
	}

	seen := make(map[string]bool, len(opts.Streams))
	for _, s := range opts.Streams {
		if seen[s.name()] {
			return nil, fmt.Errorf("mirror: duplicate stream %s", s.name())
		}
		seen[s.name()] = true
		if err := s.check(opts.Builder); err != nil {
			return nil, fmt.Errorf("mirror: %w", err)
		}
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.DefaultMetrics
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Runner{
		exec:       opts.Executor,
		subscriber: opts.Subscriber,
		builder:    opts.Builder,
		cursors:    opts.Cursors,
		streams:    opts.Streams,
		pageSize:   pageSize,
		batchSize:  batchSize,
		metrics:    metrics,
		logger:     logger,
	}, nil
}

// Streams returns the names of the configured streams, sorted.
func (r *Runner) Streams() []string {
	names := make([]string, 0, len(r.streams))
	for _, s := range r.streams {
		names = append(names, s.name())
	}
	sort.Strings(names)
	return names
}

// Run backfills every stream and then follows it live until ctx is done or a
// stream fails. One failing stream cancels the others. Errors of all streams
// that failed on their own are combined.
func (r *Runner) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	var (
		mu     sync.Mutex
		result *multierror.Error
	)
	for _, s := range r.streams {
		s := s
		g.Go(func() error {
			err := r.runStream(gctx, s)
			if err == nil || (gctx.Err() != nil && errors.Is(err, context.Canceled)) {
				return err
			}
			r.metrics.RecordStreamError(s.name())
			mu.Lock()
			result = multierror.Append(result, fmt.Errorf("stream %s: %w", s.name(), err))
			mu.Unlock()
			return err
		})
	}

	err := g.Wait()
	if result != nil {
		return result.ErrorOrNil()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Backfill runs only the backfill phase of every stream.
func (r *Runner) Backfill(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range r.streams {
		s := s
		g.Go(func() error {
			st, err := r.load(gctx, s)
			if err != nil {
				return err
			}
			if err := r.backfill(gctx, st); err != nil {
				return fmt.Errorf("stream %s: %w", s.name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// streamState is the live cursor of one stream. The subscription's resume
// callback reads it from another goroutine.
type streamState struct {
	stream *Stream
	log    logrus.FieldLogger

	mu     sync.Mutex
	cursor storage.Cursor
}

func (st *streamState) current() storage.Cursor {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.cursor
}

func (r *Runner) runStream(ctx context.Context, s *Stream) error {
	st, err := r.load(ctx, s)
	if err != nil {
		return err
	}
	if err := r.backfill(ctx, st); err != nil {
		return err
	}
	if r.subscriber == nil {
		return nil
	}
	return r.follow(ctx, st)
}

// load reads the stored cursor of a stream or starts from its Start value.
func (r *Runner) load(ctx context.Context, s *Stream) (*streamState, error) {
	log := r.logger.WithField("stream", s.name())

	cur, err := r.cursors.Get(ctx, s.name())
	switch {
	case errors.Is(err, storage.ErrNotFound):
		log.WithField("start", string(s.Start)).Info("no stored cursor, starting from the beginning")
		return &streamState{stream: s, log: log, cursor: storage.Cursor{
			Stream: s.name(),
			Column: s.CursorColumn,
			Value:  s.Start,
		}}, nil
	case err != nil:
		return nil, fmt.Errorf("load cursor: %w", err)
	}

	if cur.Column != s.CursorColumn {
		return nil, fmt.Errorf("stored cursor of %s is on column %s, stream uses %s", s.name(), cur.Column, s.CursorColumn)
	}
	log.WithFields(logrus.Fields{"cursor": string(cur.Value), "ties": cur.Ties}).Info("resuming from stored cursor")
	return &streamState{stream: s, log: log, cursor: *cur}, nil
}

// backfill pages through rows at or after the cursor in (cursor, primary key)
// order, skipping the rows at the cursor value already consumed, until a
// short page.
func (r *Runner) backfill(ctx context.Context, st *streamState) error {
	s := st.stream
	order := []hasura.OrderBy{{Column: s.CursorColumn, Direction: hasura.Asc}}
	for _, pk := range r.builder.PrimaryKey(s.Table) {
		if pk != s.CursorColumn {
			order = append(order, hasura.OrderBy{Column: pk, Direction: hasura.Asc})
		}
	}

	total := 0
	for {
		cur := st.current()
		where := hasura.Gte(s.CursorColumn, cur.Value)
		if s.Where != nil {
			where = hasura.And(s.Where, where)
		}
		op, err := r.builder.Select(s.Table, hasura.ListArgs{
			Where:   where,
			OrderBy: order,
			Limit:   r.pageSize,
			Offset:  cur.Ties,
		}, s.selection())
		if err != nil {
			return fmt.Errorf("build backfill query: %w", err)
		}

		data, err := r.exec.Raw(ctx, op)
		if err != nil {
			return fmt.Errorf("backfill query: %w", err)
		}
		rows, _, _, err := jsonparser.Get(data, op.RootField)
		if err != nil {
			return fmt.Errorf("extract %s: %w", op.RootField, err)
		}

		n, err := r.apply(ctx, st, PhaseBackfill, rows)
		if err != nil {
			return err
		}
		total += n
		if n < r.pageSize {
			break
		}
	}

	st.log.WithField("rows", total).Info("backfill complete")
	return nil
}

// follow subscribes to the table's _stream from the cursor. After a
// reconnect the subscription resumes from the latest persisted cursor.
func (r *Runner) follow(ctx context.Context, st *streamState) error {
	s := st.stream
	build := func(cur storage.Cursor) (*hasura.Operation, error) {
		return r.builder.Stream(s.Table, r.batchSize, hasura.StreamCursor{
			InitialValue: map[string]any{s.CursorColumn: cur.Value},
		}, s.Where, s.selection())
	}

	op, err := build(st.current())
	if err != nil {
		return fmt.Errorf("build stream subscription: %w", err)
	}
	resume := func() *hasura.Operation {
		op, err := build(st.current())
		if err != nil {
			st.log.WithError(err).Error("rebuild stream subscription")
			return nil
		}
		return op
	}

	events, err := r.subscriber.Subscribe(ctx, op, resume)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	st.log.Info("following live stream")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return ErrStreamCompleted
			}
			if ev.Err != nil {
				return fmt.Errorf("stream event: %w", ev.Err)
			}
			if _, err := r.apply(ctx, st, PhaseStream, ev.Data); err != nil {
				return err
			}
		}
	}
}

// apply writes one batch to the sink, then persists the advanced cursor.
// It returns the number of rows in the batch. Live batches start inclusively
// at the cursor value and may repeat rows already counted as ties.
func (r *Runner) apply(ctx context.Context, st *streamState, phase string, rows json.RawMessage) (int, error) {
	s := st.stream
	next, n, err := advance(st.current(), rows, phase == PhaseStream)
	if err != nil {
		return 0, fmt.Errorf("advance cursor: %w", err)
	}
	if n == 0 {
		return 0, nil
	}

	written, err := s.write(ctx, st.log, rows)
	if err != nil {
		return 0, fmt.Errorf("write batch: %w", err)
	}
	if err := r.cursors.Set(ctx, &next); err != nil {
		return 0, fmt.Errorf("persist cursor: %w", err)
	}

	st.mu.Lock()
	st.cursor = next
	st.mu.Unlock()

	r.metrics.RecordStreamBatch(s.name(), phase, written)
	if t, ok := next.Time(); ok {
		r.metrics.RecordStreamCursor(s.name(), t)
	}
	st.log.WithFields(logrus.Fields{
		"phase":   phase,
		"rows":    n,
		"written": written,
		"cursor":  string(next.Value),
	}).Debug("batch applied")
	return n, nil
}

// Lag reports how far behind now each time-cursored stream is.
func Lag(ctx context.Context, cursors storage.CursorStore, now time.Time) (map[string]time.Duration, error) {
	list, err := cursors.List(ctx)
	if err != nil {
		return nil, err
	}
	lag := make(map[string]time.Duration, len(list))
	for _, c := range list {
		if t, ok := c.Time(); ok {
			lag[c.Stream] = now.Sub(t)
		}
	}
	return lag, nil
}
