package mw

import (
	"net/http"

	"github.com/gorilla/handlers"
)

// CORS allows browser clients from the given origins ("*" when empty) to
// call the API with a bearer token.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "X-Requested-With"}),
		handlers.ExposedHeaders([]string{"X-Request-Id"}),
		handlers.MaxAge(600),
	)
}

// Compress gzips or deflates responses when the client accepts it.
func Compress(next http.Handler) http.Handler {
	return handlers.CompressHandler(next)
}
