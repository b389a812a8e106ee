package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/bookmarkpack/internal/metrics"
)

// Metrics exposes the Prometheus collectors.
func Metrics() http.Handler {
	return metrics.Handler()
}
