package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/bookmarkpack/internal/account"
	"github.com/MrSnakeDoc/bookmarkpack/internal/bookmark"
	"github.com/MrSnakeDoc/bookmarkpack/internal/logger"
)

// Pinger is a backing service the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CacheStats is the enrichment cache as seen by /infra.
type CacheStats interface {
	Pinger
	Count(ctx context.Context) (int, error)
}

// TokenVerifier resolves a session token to the user id it was issued for.
type TokenVerifier interface {
	Verify(raw string) (string, error)
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time  // for testing, defaults to time.Now
	AllowedHosts   []string          // Host headers allowed to access the operational endpoints
	AllowedCIDRS   []string          // IPs allowed to access healthz/readyz/infra/metrics
	TrustProxy     bool              // true if running behind a trusted reverse proxy (e.g., cloudflared)
	CORSOrigins    []string          // allowed CORS origins, empty => "*"
	Tokens         TokenVerifier     // session token verification
	Bookmarks      *bookmark.Manager // bookmark operations and imports
	Accounts       *account.Service  // auth, account and user lookup
	Store          Pinger            // user store
	Cache          CacheStats        // enrichment cache, nil when redis is disabled
	ImportMaxBytes int64             // upload size limit of the import endpoints
}
