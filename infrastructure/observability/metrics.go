// Package observability exposes canvas engine and HTTP metrics to Prometheus.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"canvas-backend/application/ports"
)

// Collector holds all Prometheus metrics for the application. It implements
// ports.MetricsRecorder.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Canvas metrics
	Mutations     *prometheus.CounterVec
	Rejections    *prometheus.CounterVec
	Repaired      *prometheus.CounterVec
	StorageErrors *prometheus.CounterVec
	PointerEvents *prometheus.CounterVec
	Transitions   *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry under namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_mutations_total",
				Help:      "Graph mutations applied, by operation",
			},
			[]string{"operation"},
		),
		Rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_rejections_total",
				Help:      "Graph mutations turned into no-ops, by operation and reason",
			},
			[]string{"operation", "reason"},
		),
		Repaired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_repaired_connections_total",
				Help:      "Connections dropped by load-time repair, by kind",
			},
			[]string{"kind"},
		),
		StorageErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_errors_total",
				Help:      "Storage reads and writes that failed",
			},
			[]string{"operation"},
		),
		PointerEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pointer_events_total",
				Help:      "Pointer events handled by the interaction machine",
			},
			[]string{"kind"},
		),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "interaction_transitions_total",
				Help:      "Interaction state transitions",
			},
			[]string{"from", "to"},
		),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.HTTPDuration,
		c.Mutations,
		c.Rejections,
		c.Repaired,
		c.StorageErrors,
		c.PointerEvents,
		c.Transitions,
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) RecordMutation(operation string) {
	c.Mutations.WithLabelValues(operation).Inc()
}

func (c *Collector) RecordRejected(operation, reason string) {
	c.Rejections.WithLabelValues(operation, reason).Inc()
}

func (c *Collector) RecordRepair(orphaned, duplicates, selfLoops int) {
	c.Repaired.WithLabelValues("orphaned").Add(float64(orphaned))
	c.Repaired.WithLabelValues("duplicate").Add(float64(duplicates))
	c.Repaired.WithLabelValues("self_loop").Add(float64(selfLoops))
}

func (c *Collector) RecordStorageError(operation string) {
	c.StorageErrors.WithLabelValues(operation).Inc()
}

func (c *Collector) RecordPointerEvent(kind string) {
	c.PointerEvents.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordTransition(from, to string) {
	c.Transitions.WithLabelValues(from, to).Inc()
}

// Middleware records request counts and latency per chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

var _ ports.MetricsRecorder = (*Collector)(nil)
