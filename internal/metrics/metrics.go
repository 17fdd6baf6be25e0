// Package metrics exposes Prometheus instrumentation for the refresh
// pipeline and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the service's instruments on a private registry so tests
// can create recorders without duplicate-registration panics.
type Recorder struct {
	registry *prometheus.Registry

	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	fetchFailures *prometheus.CounterVec
	changes       *prometheus.CounterVec
	notifications *prometheus.CounterVec
	requests      *prometheus.CounterVec
	requestTime   *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "refresh_cycles_total",
			Help: "Refresh cycles by outcome (ok, partial, error).",
		}, []string{"outcome"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "refresh_cycle_duration_seconds",
			Help:    "Wall time of a full refresh cycle.",
			Buckets: prometheus.DefBuckets,
		}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provider_fetch_failures_total",
			Help: "Upstream fetch failures by league and failure kind.",
		}, []string{"league", "kind"}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "result_changes_total",
			Help: "Detected result changes by league.",
		}, []string{"league"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Notification dispatch attempts by outcome (sent, failed).",
		}, []string{"outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "API requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "API request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		r.cycles, r.cycleDuration, r.fetchFailures, r.changes,
		r.notifications, r.requests, r.requestTime,
	)
	return r
}

// Handler returns the scrape endpoint for this recorder's registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordCycle counts one refresh cycle and its duration.
func (r *Recorder) RecordCycle(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.cycles.WithLabelValues(outcome).Inc()
	r.cycleDuration.Observe(d.Seconds())
}

// RecordFetchFailure counts one upstream failure.
func (r *Recorder) RecordFetchFailure(league, kind string) {
	if r == nil {
		return
	}
	r.fetchFailures.WithLabelValues(league, kind).Inc()
}

// RecordChanges counts detected result changes for a league.
func (r *Recorder) RecordChanges(league string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.changes.WithLabelValues(league).Add(float64(n))
}

// RecordNotification counts one dispatch attempt.
func (r *Recorder) RecordNotification(outcome string) {
	if r == nil {
		return
	}
	r.notifications.WithLabelValues(outcome).Inc()
}

// RecordRequest counts one API request with its latency.
func (r *Recorder) RecordRequest(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.requestTime.WithLabelValues(route).Observe(d.Seconds())
}
