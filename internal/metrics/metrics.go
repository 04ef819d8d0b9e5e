// Package metrics exposes Prometheus collectors for the insights service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	insightsRunsTotal          *prometheus.CounterVec
	insightsRunDurationSeconds prometheus.Histogram
	insightsRecordsTotal       *prometheus.CounterVec
	fetchAttemptsTotal         *prometheus.CounterVec
	competitorProbesTotal      *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		insightsRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_runs_total",
				Help: "Total number of extraction runs, labeled by site and status.",
			},
			[]string{"site", "status"},
		)

		insightsRunDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "insights_run_duration_seconds",
				Help:    "Histogram of end-to-end extraction run latencies.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40},
			},
		)

		insightsRecordsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_records_total",
				Help: "Total number of normalized records extracted, labeled by category.",
			},
			[]string{"category"},
		)

		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_fetch_attempts_total",
				Help: "Total number of outbound fetch attempts, labeled by status.",
			},
			[]string{"status"},
		)

		competitorProbesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_competitor_probes_total",
				Help: "Total number of competitor candidate probes, labeled by result.",
			},
			[]string{"result"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRun records the outcome and duration of an extraction run.
func ObserveRun(site string, status string, duration time.Duration) {
	insightsRunsTotal.WithLabelValues(SanitizeSite(site), status).Inc()
	insightsRunDurationSeconds.Observe(duration.Seconds())
}

// ObserveRecords adds the number of records extracted for a category.
func ObserveRecords(category string, count int) {
	if count > 0 {
		insightsRecordsTotal.WithLabelValues(category).Add(float64(count))
	}
}

// ObserveFetchAttempt increments the fetch attempt counter for the given status.
func ObserveFetchAttempt(status string) {
	fetchAttemptsTotal.WithLabelValues(status).Inc()
}

// ObserveCompetitorProbe increments the competitor probe counter.
func ObserveCompetitorProbe(result string) {
	competitorProbesTotal.WithLabelValues(result).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
