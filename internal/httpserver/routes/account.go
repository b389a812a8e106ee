package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarkpack/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkpack/internal/httpserver/handlers"
)

func init() { Register(registerAccount, authenticated) }

func registerAccount(r chi.Router, d deps.Deps) {
	r.Route("/account", func(r chi.Router) {
		r.Get("/", handlers.GetAccount(d))
		r.Patch("/", handlers.EditAccount(d))
		r.Delete("/", handlers.DeleteAccount(d))
		r.Post("/password", handlers.EditPassword(d))
		r.Post("/email", handlers.EditEmail(d))
	})
}
