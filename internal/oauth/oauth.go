// Package oauth exchanges authorization codes from Google and Facebook for
// the profile of the signed in account.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/MrSnakeDoc/bookmarkpack/internal/domain"
	"github.com/MrSnakeDoc/bookmarkpack/internal/utils"
)

const (
	GoogleProfileURL   = "https://openidconnect.googleapis.com/v1/userinfo"
	FacebookProfileURL = "https://graph.facebook.com/v19.0/me?fields=id,email"
	facebookGraphURL   = "https://graph.facebook.com"

	MsgAuthFailed = "OAuth authentication failed."
)

// Profile is what a provider tells us about the account.
type Profile struct {
	ID      string
	Email   string
	Picture string
}

// Endpoint locates one provider.
type Endpoint struct {
	Secret     string
	TokenURL   string
	ProfileURL string
}

type Options struct {
	Google     Endpoint
	Facebook   Endpoint
	HTTPClient *http.Client
}

// Client performs the code exchange and the profile lookup.
type Client struct {
	http      *http.Client
	providers map[domain.Provider]Endpoint
}

func New(opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Google.TokenURL == "" {
		opts.Google.TokenURL = endpoints.Google.TokenURL
	}
	if opts.Google.ProfileURL == "" {
		opts.Google.ProfileURL = GoogleProfileURL
	}
	if opts.Facebook.TokenURL == "" {
		opts.Facebook.TokenURL = endpoints.Facebook.TokenURL
	}
	if opts.Facebook.ProfileURL == "" {
		opts.Facebook.ProfileURL = FacebookProfileURL
	}

	return &Client{
		http: opts.HTTPClient,
		providers: map[domain.Provider]Endpoint{
			domain.ProviderGoogle:   opts.Google,
			domain.ProviderFacebook: opts.Facebook,
		},
	}
}

// Exchange trades code for an access token and fetches the profile.
// clientID and redirectURI are the ones the front-end used to get the code.
func (c *Client) Exchange(ctx context.Context, p domain.Provider, code, clientID, redirectURI string) (Profile, error) {
	ep, ok := c.providers[p]
	if !ok {
		return Profile{}, domain.BadRequest("Unknown OAuth Provider.")
	}
	if ep.Secret == "" {
		return Profile{}, domain.BadRequest(fmt.Sprintf("OAuth provider %s is not configured.", p))
	}

	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: ep.Secret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			TokenURL:  ep.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			return Profile{}, domain.Unauthorized(MsgAuthFailed)
		}
		return Profile{}, fmt.Errorf("%s code exchange: %w", p, err)
	}

	switch p {
	case domain.ProviderGoogle:
		return c.google(ctx, cfg.Client(ctx, tok), ep.ProfileURL)
	default:
		return c.facebook(ctx, cfg.Client(ctx, tok), ep.ProfileURL)
	}
}

func (c *Client) google(ctx context.Context, hc *http.Client, profileURL string) (Profile, error) {
	var body struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := getJSON(ctx, hc, profileURL, &body); err != nil {
		return Profile{}, fmt.Errorf("google profile: %w", err)
	}
	if body.Sub == "" {
		return Profile{}, domain.Unauthorized(MsgAuthFailed)
	}
	return Profile{
		ID:      body.Sub,
		Email:   body.Email,
		Picture: strings.Replace(body.Picture, "sz=50", "sz=200", 1),
	}, nil
}

func (c *Client) facebook(ctx context.Context, hc *http.Client, profileURL string) (Profile, error) {
	var body struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := getJSON(ctx, hc, profileURL, &body); err != nil {
		return Profile{}, fmt.Errorf("facebook profile: %w", err)
	}
	if body.ID == "" {
		return Profile{}, domain.Unauthorized(MsgAuthFailed)
	}
	return Profile{
		ID:      body.ID,
		Email:   body.Email,
		Picture: facebookGraphURL + "/" + body.ID + "/picture?type=large",
	}, nil
}

func getJSON(ctx context.Context, hc *http.Client, target string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer utils.DrainClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
