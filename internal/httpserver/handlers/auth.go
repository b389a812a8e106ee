package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MrSnakeDoc/bookmarkpack/internal/account"
	"github.com/MrSnakeDoc/bookmarkpack/internal/domain"
	"github.com/MrSnakeDoc/bookmarkpack/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkpack/internal/httpserver/mw"
)

type tokenResponse struct {
	Token string `json:"token"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

type providerRequest struct {
	Provider string `json:"provider"`
}

func Signup(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in account.SignupInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		token, err := d.Accounts.Signup(r.Context(), in)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, tokenResponse{Token: token})
	}
}

func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in credentials
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		token, err := d.Accounts.Login(r.Context(), in.Email, in.Password)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, tokenResponse{Token: token})
	}
}

// RequestVerification sends a new verification link.
func RequestVerification(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in emailRequest
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		if err := d.Accounts.RequestVerification(r.Context(), in.Email); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeOK(w)
	}
}

func ConfirmVerification(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Accounts.ConfirmVerification(r.Context(), chi.URLParam(r, "token")); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeOK(w)
	}
}

// RequestReset sends a password reset link.
func RequestReset(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in emailRequest
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		if err := d.Accounts.RequestReset(r.Context(), in.Email); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeOK(w)
	}
}

func ConfirmReset(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in passwordRequest
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		if err := d.Accounts.ConfirmReset(r.Context(), chi.URLParam(r, "token"), in.Password); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeOK(w)
	}
}

// OAuth signs in with provider p, or links it when the request is authenticated.
func OAuth(d deps.Deps, p domain.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in account.OAuthInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		var callerID *primitive.ObjectID
		if uid, ok := mw.UserID(r.Context()); ok {
			callerID = &uid
		}

		token, err := d.Accounts.OAuthLogin(r.Context(), p, in, callerID)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, tokenResponse{Token: token})
	}
}

func Unlink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := caller(w, r)
		if !ok {
			return
		}
		var in providerRequest
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		if err := d.Accounts.Unlink(r.Context(), uid, in.Provider); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeOK(w)
	}
}
