package handlers

import (
	"context"
	"net/http"

	"github.com/MrSnakeDoc/bookmarkpack/internal/httpserver/deps"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`

	// Entries is the number of cached extraction results.
	Entries *int `json:"entries,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of every backing service.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"mongo": checkMongo(r.Context(), d),
			"redis": checkRedis(r.Context(), d),
		}
		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	// No user store = nothing works
	if mongo, ok := components["mongo"]; ok && !mongo.OK {
		return "critical"
	}

	// Redis down = enrichment results are not cached
	if redis, ok := components["redis"]; ok && !redis.OK {
		return "degraded"
	}

	return "optimal"
}

func checkMongo(ctx context.Context, d deps.Deps) componentStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{OK: false, Impact: "service-unavailable", Error: "unreachable"}
	}
	return componentStatus{OK: true}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.Cache == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "enrichment-cache-disabled",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := d.Cache.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "enrichment-cache-disabled",
			Error:  "timeout",
		}
	}
	status := componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "enrichment-cache-enabled",
	}
	if n, err := d.Cache.Count(ctx); err == nil {
		status.Entries = &n
	}
	return status
}
