// Package enrich fetches page titles and favicons for bookmarks.
//
// Every extraction is best effort: a failure, a timeout or an unexpected
// response yields an empty value, never an error.
package enrich

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/bookmarkpack/internal/domain"
	"github.com/MrSnakeDoc/bookmarkpack/internal/logger"
	"github.com/MrSnakeDoc/bookmarkpack/internal/metrics"
	"github.com/MrSnakeDoc/bookmarkpack/internal/utils"
	"github.com/MrSnakeDoc/bookmarkpack/internal/version"
)

const (
	DefaultTimeout         = 5 * time.Second
	DefaultFaviconEndpoint = "https://www.google.com/s2/favicons"

	maxFaviconBytes = 256 << 10
)

// Cache stores extraction results between requests.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type Options struct {
	Timeout         time.Duration // per outbound call
	FaviconEndpoint string        // queried with ?domain=<host>
	HTTPClient      *http.Client  // defaults to a client without global timeout
	Cache           Cache         // optional
	CacheTTL        time.Duration // 0 disables caching
	Logger          logger.Logger
}

// Client extracts bookmark metadata over HTTP.
type Client struct {
	http            *http.Client
	timeout         time.Duration
	faviconEndpoint string
	userAgent       string
	cache           Cache
	cacheTTL        time.Duration
	log             logger.Logger
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.FaviconEndpoint == "" {
		opts.FaviconEndpoint = DefaultFaviconEndpoint
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	cache := opts.Cache
	if opts.CacheTTL <= 0 {
		cache = nil
	}

	return &Client{
		http:            opts.HTTPClient,
		timeout:         opts.Timeout,
		faviconEndpoint: opts.FaviconEndpoint,
		userAgent:       "Mozilla/5.0 (compatible; " + version.UserAgent() + ")",
		cache:           cache,
		cacheTTL:        opts.CacheTTL,
		log:             opts.Logger.With(logger.Component("enrich")),
	}
}

// Extract runs the requested extractions concurrently and waits for both.
func (c *Client) Extract(ctx context.Context, rawURL string, f Flags) Result {
	var res Result
	if !f.Any() {
		return res
	}

	g, gctx := errgroup.WithContext(ctx)
	if f.Title {
		g.Go(func() error {
			res.Title = c.Title(gctx, rawURL)
			return nil
		})
	}
	if f.Favicon {
		g.Go(func() error {
			res.Favicon = c.Favicon(gctx, rawURL)
			return nil
		})
	}
	_ = g.Wait()

	return res
}

// Title returns the content of the first <title> element of the page.
func (c *Client) Title(ctx context.Context, rawURL string) string {
	target := domain.WithScheme(rawURL)
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}

	return c.cached(ctx, "title", "title:"+target, func(ctx context.Context) (string, error) {
		return c.fetchTitle(ctx, target)
	})
}

// Favicon returns the site icon of the URL's host as a data URI.
func (c *Client) Favicon(ctx context.Context, rawURL string) string {
	u, err := url.Parse(domain.WithScheme(rawURL))
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())

	return c.cached(ctx, "favicon", "favicon:"+host, func(ctx context.Context) (string, error) {
		return c.fetchFavicon(ctx, host)
	})
}

// cached serves key from the cache or computes it with fetch, recording the
// outcome. Non-empty results are written back.
func (c *Client) cached(ctx context.Context, kind, key string, fetch func(context.Context) (string, error)) string {
	if c.cache != nil {
		v, ok, err := c.cache.Get(ctx, key)
		switch {
		case err != nil:
			c.log.Warn("enrich cache lookup failed", logger.String("key", key), logger.Error(err))
		case ok:
			metrics.EnrichResults.WithLabelValues(kind, "hit").Inc()
			return v
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	v, err := fetch(fetchCtx)
	switch {
	case err != nil:
		metrics.EnrichResults.WithLabelValues(kind, "error").Inc()
		c.log.Debug("metadata extraction failed",
			logger.String("kind", kind),
			logger.String("key", key),
			logger.Error(err))
		return ""
	case v == "":
		metrics.EnrichResults.WithLabelValues(kind, "empty").Inc()
		return ""
	}

	metrics.EnrichResults.WithLabelValues(kind, "ok").Inc()
	if c.cache != nil {
		if err := c.cache.Set(ctx, key, v, c.cacheTTL); err != nil {
			c.log.Warn("enrich cache store failed", logger.String("key", key), logger.Error(err))
		}
	}
	return v
}

func (c *Client) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) fetchTitle(ctx context.Context, target string) (string, error) {
	resp, err := c.get(ctx, target)
	if err != nil {
		return "", err
	}
	// The scan stops at </title>; the rest of the page is not waited for.
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return scanTitle(resp.Body)
}

func (c *Client) fetchFavicon(ctx context.Context, host string) (string, error) {
	endpoint := c.faviconEndpoint + "?domain=" + url.QueryEscape(host)
	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return "", err
	}
	defer utils.DrainClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFaviconBytes+1))
	if err != nil {
		return "", fmt.Errorf("read favicon: %w", err)
	}
	if len(body) == 0 {
		return "", nil
	}
	if len(body) > maxFaviconBytes {
		return "", fmt.Errorf("favicon larger than %d bytes", maxFaviconBytes)
	}

	ctype := resp.Header.Get("Content-Type")
	if ctype == "" {
		ctype = http.DetectContentType(body)
	}
	if i := strings.IndexByte(ctype, ';'); i >= 0 {
		ctype = strings.TrimSpace(ctype[:i])
	}

	return "data:" + ctype + ";base64," + base64.StdEncoding.EncodeToString(body), nil
}
