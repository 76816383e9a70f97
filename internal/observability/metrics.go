// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// GraphQL client metrics
	GraphQLRequests *prometheus.CounterVec
	GraphQLLatency  *prometheus.HistogramVec
	GraphQLRetries  prometheus.Counter

	// Subscription metrics
	SubscriptionReconnects prometheus.Counter
	SubscriptionMessages   *prometheus.CounterVec
	ActiveSubscriptions    prometheus.Gauge

	// Mirror metrics
	StreamRows      *prometheus.CounterVec
	StreamErrors    *prometheus.CounterVec
	StreamCursorLag *prometheus.GaugeVec

	// Schema metrics
	SchemaChanges *prometheus.GaugeVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulSync prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics creates a new Metrics instance registered on the default registry.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates a new Metrics instance registered on reg.
// When reg is also a Gatherer, such as a *prometheus.Registry, Gatherer
// reads from it.
func NewMetricsWithRegistry(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "futarchy_graph"
	}
	factory := promauto.With(reg)
	gatherer, ok := reg.(prometheus.Gatherer)
	if !ok {
		gatherer = prometheus.DefaultGatherer
	}

	return &Metrics{
		gatherer: gatherer,

		GraphQLRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graphql",
			Name:      "requests_total",
			Help:      "Total number of GraphQL requests by operation type and status",
		}, []string{"operation", "status"}),
		GraphQLLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "graphql",
			Name:      "request_latency_seconds",
			Help:      "GraphQL request latency in seconds, retries included",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		GraphQLRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graphql",
			Name:      "retries_total",
			Help:      "Total number of retried GraphQL requests",
		}),

		SubscriptionReconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscription",
			Name:      "reconnects_total",
			Help:      "Total number of websocket reconnects",
		}),
		SubscriptionMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscription",
			Name:      "messages_total",
			Help:      "Total number of graphql-transport-ws messages received by type",
		}, []string{"type"}),
		ActiveSubscriptions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "subscription",
			Name:      "active",
			Help:      "Number of active subscriptions",
		}),

		StreamRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mirror",
			Name:      "rows_total",
			Help:      "Total number of rows written by stream and phase",
		}, []string{"stream", "phase"}),
		StreamErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mirror",
			Name:      "errors_total",
			Help:      "Total number of stream errors",
		}, []string{"stream"}),
		StreamCursorLag: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mirror",
			Name:      "cursor_lag_seconds",
			Help:      "Seconds between now and the latest time cursor of a stream",
		}, []string{"stream"}),

		SchemaChanges: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "schema",
			Name:      "changes",
			Help:      "Number of differences between the snapshot and the live schema",
		}, []string{"breaking"}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulSync: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_sync_timestamp",
			Help:      "Unix timestamp of the last batch written by the mirror",
		}),
	}
}

// Gatherer returns the gatherer of the registry the metrics live on.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordGraphQLRequest records a finished GraphQL request.
func (m *Metrics) RecordGraphQLRequest(operation string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.GraphQLRequests.WithLabelValues(operation, status).Inc()
	m.GraphQLLatency.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordStreamBatch records rows written by a stream.
func (m *Metrics) RecordStreamBatch(stream, phase string, rows int) {
	m.StreamRows.WithLabelValues(stream, phase).Add(float64(rows))
	m.LastSuccessfulSync.SetToCurrentTime()
}

// RecordStreamCursor updates the cursor lag of a stream with a time cursor.
func (m *Metrics) RecordStreamCursor(stream string, cursor time.Time) {
	m.StreamCursorLag.WithLabelValues(stream).Set(time.Since(cursor).Seconds())
}

// RecordSchemaDiff records the outcome of a snapshot check.
func (m *Metrics) RecordSchemaDiff(total, breaking int) {
	m.SchemaChanges.WithLabelValues("true").Set(float64(breaking))
	m.SchemaChanges.WithLabelValues("false").Set(float64(total - breaking))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordStreamError records a failed stream.
func (m *Metrics) RecordStreamError(stream string) {
	m.StreamErrors.WithLabelValues(stream).Inc()
}
