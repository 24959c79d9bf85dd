// Package metrics records collection accounting as Prometheus metrics.
//
// A Recorder owns its own registry and implements the observer interfaces
// of the retry, graph, collector and harvest packages, so one value can be
// handed to each of them:
//
//	rec := metrics.New()
//	gov := retry.NewGovernor(budget, retry.WithObserver(rec))
//	client := graph.NewClient(cfg.Graph, tokens, graph.WithRequestObserver(rec))
//
// Serve exposes the registry on /metrics until its context ends.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"graphharvest/pkg/logger"
)

const namespace = "graphharvest"

// Recorder holds every graphharvest metric
type Recorder struct {
	registry *prometheus.Registry

	attempts        *prometheus.CounterVec
	throttles       *prometheus.CounterVec
	throttleWait    *prometheus.CounterVec
	outcomes        *prometheus.CounterVec
	attemptsPerCall *prometheus.HistogramVec
	requests        *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	pages           *prometheus.CounterVec
	records         *prometheus.CounterVec
	stops           *prometheus.CounterVec
	rows            *prometheus.CounterVec
}

// New creates a Recorder on a fresh registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "call_attempts_total",
			Help:      "Governed call attempts by operation",
		}, []string{"operation"}),
		throttles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "throttled_total",
			Help:      "Throttled attempts that were retried",
		}, []string{"operation"}),
		throttleWait: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "throttle_wait_seconds_total",
			Help:      "Time spent waiting on throttled calls",
		}, []string{"operation"}),
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "call_outcomes_total",
			Help:      "Governed call outcomes by operation and status",
		}, []string{"operation", "status"}),
		attemptsPerCall: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_attempts",
			Help:      "Attempts needed per governed call",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 12},
		}, []string{"operation"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Graph API HTTP requests by endpoint and status code",
		}, []string{"endpoint", "code"}),
		requestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Graph API HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		pages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "Connection pages collected by edge",
		}, []string{"edge"}),
		records: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Raw records collected by edge",
		}, []string{"edge"}),
		stops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collections_total",
			Help:      "Finished per-id collections by operation and stop reason",
		}, []string{"operation", "reason"}),
		rows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "Rows returned by operation",
		}, []string{"operation"}),
	}
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) ObserveAttempt(operation string) {
	r.attempts.WithLabelValues(operation).Inc()
}

func (r *Recorder) ObserveThrottle(operation string, wait time.Duration) {
	r.throttles.WithLabelValues(operation).Inc()
	r.throttleWait.WithLabelValues(operation).Add(wait.Seconds())
}

func (r *Recorder) ObserveOutcome(operation string, status string, attempts int) {
	r.outcomes.WithLabelValues(operation, status).Inc()
	r.attemptsPerCall.WithLabelValues(operation).Observe(float64(attempts))
}

func (r *Recorder) ObserveRequest(endpoint string, status int, duration time.Duration) {
	r.requests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	r.requestLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (r *Recorder) ObservePage(edge string, records int) {
	r.pages.WithLabelValues(edge).Inc()
	r.records.WithLabelValues(edge).Add(float64(records))
}

func (r *Recorder) ObserveStop(operation string, reason string) {
	r.stops.WithLabelValues(operation, reason).Inc()
}

func (r *Recorder) ObserveRows(operation string, n int) {
	r.rows.WithLabelValues(operation).Add(float64(n))
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve listens on addr until ctx is done. It returns once the listener
// is closed.
func (r *Recorder) Serve(ctx context.Context, addr string, log logger.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.InfoWithFields("Metrics endpoint listening", map[string]interface{}{
		"addr": addr,
		"path": "/metrics",
	})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
