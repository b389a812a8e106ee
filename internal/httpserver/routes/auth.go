package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarkpack/internal/domain"
	"github.com/MrSnakeDoc/bookmarkpack/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkpack/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bookmarkpack/internal/httpserver/mw"
)

func init() { Register(registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", handlers.Signup(d))
		r.Post("/login", handlers.Login(d))
		r.Post("/verify", handlers.RequestVerification(d))
		r.Post("/verify/{token}", handlers.ConfirmVerification(d))
		r.Post("/reset", handlers.RequestReset(d))
		r.Post("/reset/{token}", handlers.ConfirmReset(d))

		optional := r.With(mw.OptionalAuth(d.Tokens, d.Logger))
		optional.Post("/google", handlers.OAuth(d, domain.ProviderGoogle))
		optional.Post("/facebook", handlers.OAuth(d, domain.ProviderFacebook))

		r.With(mw.Auth(d.Tokens, d.Logger)).Post("/unlink", handlers.Unlink(d))
	})
}
