// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bookmarkpack"

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route pattern.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "route"})

	EnrichResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enrich_results_total",
		Help:      "Metadata extractions by kind (title, favicon) and result (hit, ok, empty, error).",
	}, []string{"kind", "result"})

	Bookmarks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookmarks_total",
		Help:      "Bookmark operations (add, edit and delete count entries, search counts queries).",
	}, []string{"op"})

	AccountEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_events_total",
		Help:      "Account events (signup, login, login_failed, oauth_login, oauth_link, verified, reset, deleted, reaped).",
	}, []string{"event"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
