package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarkpack/internal/account"
	"github.com/MrSnakeDoc/bookmarkpack/internal/httpserver/deps"
)

type passwordChange struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func GetAccount(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := caller(w, r)
		if !ok {
			return
		}
		u, err := d.Accounts.Account(r.Context(), uid)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func EditAccount(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := caller(w, r)
		if !ok {
			return
		}
		var in account.AccountInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		if err := d.Accounts.EditAccount(r.Context(), uid, in); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeOK(w)
	}
}

// DeleteAccount removes the caller after checking the password.
func DeleteAccount(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := caller(w, r)
		if !ok {
			return
		}
		var in passwordRequest
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		if err := d.Accounts.DeleteAccount(r.Context(), uid, in.Password); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeOK(w)
	}
}

func EditPassword(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := caller(w, r)
		if !ok {
			return
		}
		var in passwordChange
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		if err := d.Accounts.EditPassword(r.Context(), uid, in.OldPassword, in.NewPassword); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeOK(w)
	}
}

func EditEmail(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := caller(w, r)
		if !ok {
			return
		}
		var in credentials
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		if err := d.Accounts.EditEmail(r.Context(), uid, in.Email, in.Password); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeOK(w)
	}
}

// Me returns the caller's profile with the whole bookmark collection.
func Me(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := caller(w, r)
		if !ok {
			return
		}
		u, err := d.Accounts.Me(r.Context(), uid)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

// PublicUser returns the public profile of a user. No authentication.
func PublicUser(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := d.Accounts.UserByUsername(r.Context(), chi.URLParam(r, "username"))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}
