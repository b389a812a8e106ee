package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarkpack/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkpack/internal/httpserver/handlers"
)

func init() { Register(registerBookmarks, authenticated) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	r.Route("/user/bookmarks", func(r chi.Router) {
		r.Get("/", handlers.ListBookmarks(d))
		r.Post("/", handlers.AddBookmarks(d))
		r.Patch("/", handlers.EditBookmarks(d))
		r.Put("/", handlers.EditBookmarks(d)) // alias of PATCH
		r.Delete("/", handlers.DeleteBookmarks(d))
		r.Get("/search", handlers.SearchBookmarks(d))
		r.Post("/import", handlers.ImportNetscape(d))
		r.Post("/import/homepage", handlers.ImportHomepage(d))
		r.Post("/github", handlers.ImportGitHub(d))
	})
}
