package bookmark

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/MrSnakeDoc/bookmarkpack/internal/domain"
	"github.com/MrSnakeDoc/bookmarkpack/internal/utils"
	"github.com/MrSnakeDoc/bookmarkpack/internal/version"
)

const (
	DefaultGitHubAPI = "https://api.github.com"

	githubPageSize = 100
	githubMaxPages = 10
)

var (
	githubUserRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	linkNextRe   = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)
)

// Repo is the part of a GitHub repository listing we keep.
type Repo struct {
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
}

// GitHubClient lists the repositories a GitHub user starred.
type GitHubClient struct {
	http      *http.Client
	apiURL    string
	userAgent string
}

func NewGitHubClient(apiURL string, timeout time.Duration) *GitHubClient {
	if apiURL == "" {
		apiURL = DefaultGitHubAPI
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GitHubClient{
		http:      &http.Client{Timeout: timeout},
		apiURL:    strings.TrimRight(apiURL, "/"),
		userAgent: version.UserAgent(),
	}
}

// Starred returns every repository starred by username, following the
// pagination links up to a fixed number of pages.
func (c *GitHubClient) Starred(ctx context.Context, username string) ([]Repo, error) {
	if !githubUserRe.MatchString(username) {
		return nil, domain.BadRequest("Invalid username")
	}

	next := fmt.Sprintf("%s/users/%s/starred?per_page=%d", c.apiURL, url.PathEscape(username), githubPageSize)
	repos := []Repo{}
	for page := 0; next != "" && page < githubMaxPages; page++ {
		batch, link, err := c.page(ctx, next)
		if err != nil {
			return nil, err
		}
		repos = append(repos, batch...)
		next = link
	}
	return repos, nil
}

func (c *GitHubClient) page(ctx context.Context, target string) ([]Repo, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("github starred: %w", err)
	}
	defer utils.DrainClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, "", domain.NotFound("User not found")
	}

	var repos []Repo
	if err := json.NewDecoder(resp.Body).Decode(&repos); err != nil {
		return nil, "", fmt.Errorf("decode github starred: %w", err)
	}

	var next string
	if m := linkNextRe.FindStringSubmatch(resp.Header.Get("Link")); m != nil {
		next = m[1]
	}
	return repos, next, nil
}
