package mw

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MrSnakeDoc/bookmarkpack/internal/logger"
	"github.com/MrSnakeDoc/bookmarkpack/internal/token"
)

const (
	MsgMissingAuthorization = "Please make sure your request has an Authorization header."
	MsgTokenExpired         = "Token has expired, please login again."
	MsgTokenInvalid         = "Invalid token."
)

type ctxKey struct{}

// Verifier resolves a session token to its subject.
type Verifier interface {
	Verify(raw string) (string, error)
}

// UserID returns the caller set by Auth or OptionalAuth.
func UserID(ctx context.Context) (primitive.ObjectID, bool) {
	id, ok := ctx.Value(ctxKey{}).(primitive.ObjectID)
	return id, ok
}

// WithUserID returns a copy of ctx carrying the caller id.
func WithUserID(ctx context.Context, id primitive.ObjectID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// Auth rejects requests without a valid "Authorization: Bearer <token>" header.
func Auth(v Verifier, log logger.Logger) func(http.Handler) http.Handler {
	return auth(v, log, true)
}

// OptionalAuth resolves the caller when a token is sent and lets anonymous
// requests through. A token that is sent but invalid is still rejected.
func OptionalAuth(v Verifier, log logger.Logger) func(http.Handler) http.Handler {
	return auth(v, log, false)
}

func auth(v Verifier, log logger.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				if !required {
					next.ServeHTTP(w, r)
					return
				}
				unauthorized(w, MsgMissingAuthorization)
				return
			}

			scheme, raw, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				unauthorized(w, MsgTokenInvalid)
				return
			}

			subject, err := v.Verify(strings.TrimSpace(raw))
			if err != nil {
				log.Debug("token rejected", logger.Error(err))
				if errors.Is(err, token.ErrTokenExpired) {
					unauthorized(w, MsgTokenExpired)
					return
				}
				unauthorized(w, MsgTokenInvalid)
				return
			}

			id, err := primitive.ObjectIDFromHex(subject)
			if err != nil {
				unauthorized(w, MsgTokenInvalid)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
