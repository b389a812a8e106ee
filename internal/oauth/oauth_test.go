package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/bookmarkpack/internal/domain"
)

func providerServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" || r.PostForm.Get("client_secret") != "s3cret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		assert.Equal(t, "client-1", r.PostForm.Get("client_id"))
		assert.Equal(t, "https://app.example.com/", r.PostForm.Get("redirect_uri"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/google/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"sub":     "g-42",
			"email":   "jane@example.com",
			"picture": "https://lh3.example.com/photo.jpg?sz=50",
		})
	})
	mux.HandleFunc("/facebook/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "fb-7", "email": "jane@example.com"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(srv *httptest.Server, secret string) *Client {
	return New(Options{
		Google:     Endpoint{Secret: secret, TokenURL: srv.URL + "/token", ProfileURL: srv.URL + "/google/me"},
		Facebook:   Endpoint{Secret: secret, TokenURL: srv.URL + "/token", ProfileURL: srv.URL + "/facebook/me"},
		HTTPClient: srv.Client(),
	})
}

func TestExchangeGoogle(t *testing.T) {
	c := newClient(providerServer(t), "s3cret")

	p, err := c.Exchange(context.Background(), domain.ProviderGoogle, "good-code", "client-1", "https://app.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "g-42", p.ID)
	assert.Equal(t, "jane@example.com", p.Email)
	assert.Equal(t, "https://lh3.example.com/photo.jpg?sz=200", p.Picture)
}

func TestExchangeFacebook(t *testing.T) {
	c := newClient(providerServer(t), "s3cret")

	p, err := c.Exchange(context.Background(), domain.ProviderFacebook, "good-code", "client-1", "https://app.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "fb-7", p.ID)
	assert.Equal(t, "https://graph.facebook.com/fb-7/picture?type=large", p.Picture)
}

func TestExchangeBadCode(t *testing.T) {
	c := newClient(providerServer(t), "s3cret")

	_, err := c.Exchange(context.Background(), domain.ProviderGoogle, "bad-code", "client-1", "https://app.example.com/")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestExchangeNotConfigured(t *testing.T) {
	c := newClient(providerServer(t), "")

	_, err := c.Exchange(context.Background(), domain.ProviderGoogle, "good-code", "client-1", "https://app.example.com/")
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	_, err = c.Exchange(context.Background(), domain.Provider("twitter"), "good-code", "client-1", "")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}
