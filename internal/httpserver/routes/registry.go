package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarkpack/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkpack/internal/httpserver/mw"
)

type (
	Registrar func(r chi.Router, d deps.Deps)

	// Guard builds a middleware once the dependencies are known.
	Guard func(d deps.Deps) func(http.Handler) http.Handler
)

type entry struct {
	reg    Registrar
	guards []Guard
}

var registry []entry

// Register adds a route group, with guards applied to the whole group.
// Called from init() of each route file.
func Register(reg Registrar, guards ...Guard) {
	registry = append(registry, entry{reg: reg, guards: guards})
}

// RegisterAll mounts every registered group on r and returns how many there were.
func RegisterAll(r chi.Router, d deps.Deps) int {
	for _, e := range registry {
		if len(e.guards) == 0 {
			e.reg(r, d)
			continue
		}
		r.Group(func(g chi.Router) {
			for _, guard := range e.guards {
				g.Use(guard(d))
			}
			e.reg(g, d)
		})
	}
	return len(registry)
}

// Common guards.

func authenticated(d deps.Deps) func(http.Handler) http.Handler {
	return mw.Auth(d.Tokens, d.Logger)
}

func trustedNetwork(d deps.Deps) func(http.Handler) http.Handler {
	return mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)
}

func knownHost(d deps.Deps) func(http.Handler) http.Handler {
	return mw.EnforceHost(d.AllowedHosts, d.Logger)
}
