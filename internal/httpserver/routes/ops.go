package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarkpack/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkpack/internal/httpserver/handlers"
)

// Operational endpoints, restricted by the CIDR and Host allow-lists.
func init() { Register(registerOps, trustedNetwork, knownHost) }

func registerOps(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
	r.Get("/readyz", handlers.Readyz(d))
	r.Get("/infra", handlers.Infra(d))
	r.Method("GET", "/metrics", handlers.Metrics())
}
