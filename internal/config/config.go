package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request deadline, must cover enrichment of a whole batch

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	AppURL string // public front-end URL used in mail links

	// MongoDB
	MongoURI            string        // ex: "mongodb://localhost:27017"
	MongoDatabase       string        // database holding the users collection
	MongoConnectTimeout time.Duration // total time to retry connecting
	MongoRetryInterval  time.Duration // initial wait between retries, grows exponentially
	MongoMaxWait        time.Duration // max wait between retries
	MongoPingTimeout    time.Duration // timeout for each ping attempt

	// Session tokens
	TokenSecret string        // HS256 signing key
	TokenTTL    time.Duration // default 14 days

	// Enrichment
	EnrichTimeout     time.Duration // per outbound call
	EnrichConcurrency int           // bookmarks enriched in parallel within one batch
	FaviconEndpoint   string        // favicon service, queried with ?domain=<host>
	EnrichCacheTTL    time.Duration // 0 disables caching even when redis is configured

	// Imports
	ImportMaxBytes int64  // upload size limit
	GitHubAPIURL   string // ex: "https://api.github.com"

	// OAuth
	GoogleClientSecret   string
	FacebookClientSecret string

	// SMTP (empty host => mails are logged, not sent)
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	// Account reaper
	ReaperInterval time.Duration // interval between reaper passes (default: 24h)
	UnverifiedTTL  time.Duration // unverified accounts older than this are deleted, 0 = keep forever

	// Redis (optional, empty address => no enrichment cache)
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict operational endpoints to specific IPs
	TrustProxy   bool     // true => trust X-Forwarded-For headers
	CORSOrigins  []string // allowed CORS origins, empty => "*"
}

// Load reads the configuration from the environment. A .env file in the
// working directory, when present, seeds variables that are not already set.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("PACK_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("PACK_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("PACK_REQUEST_TIMEOUT", 60*time.Second),

		// Logging
		LogLevel:  getenv("PACK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("PACK_PRETTY_LOG", true),

		AppURL: strings.TrimRight(getenv("PACK_APP_URL", "https://bookmarkpack.herokuapp.com"), "/"),

		// MongoDB
		MongoURI:            requireEnv("PACK_MONGO_URI"),
		MongoDatabase:       getenv("PACK_MONGO_DATABASE", "bookmarkpack"),
		MongoConnectTimeout: mustDuration("PACK_MONGO_CONNECT_TIMEOUT", 30*time.Second),
		MongoRetryInterval:  mustDuration("PACK_MONGO_RETRY_INTERVAL", 2*time.Second),
		MongoMaxWait:        mustDuration("PACK_MONGO_MAX_WAIT", 10*time.Second),
		MongoPingTimeout:    mustDuration("PACK_MONGO_PING_TIMEOUT", 5*time.Second),

		// Tokens
		TokenSecret: requireEnv("PACK_TOKEN_SECRET"),
		TokenTTL:    mustDuration("PACK_TOKEN_TTL", 14*24*time.Hour),

		// Enrichment
		EnrichTimeout:     mustDuration("PACK_ENRICH_TIMEOUT", 5*time.Second),
		EnrichConcurrency: getenvInt("PACK_ENRICH_CONCURRENCY", 8),
		FaviconEndpoint:   getenv("PACK_FAVICON_ENDPOINT", "https://www.google.com/s2/favicons"),
		EnrichCacheTTL:    mustDuration("PACK_ENRICH_CACHE_TTL", 24*time.Hour),

		// Imports
		ImportMaxBytes: int64(getenvInt("PACK_IMPORT_MAX_BYTES", 1000000)),
		GitHubAPIURL:   strings.TrimRight(getenv("PACK_GITHUB_API_URL", "https://api.github.com"), "/"),

		// OAuth
		GoogleClientSecret:   getenv("PACK_GOOGLE_SECRET", ""),
		FacebookClientSecret: getenv("PACK_FACEBOOK_SECRET", ""),

		// SMTP
		SMTPHost: getenv("PACK_SMTP_HOST", ""),
		SMTPPort: getenvInt("PACK_SMTP_PORT", 587),
		SMTPUser: getenv("PACK_SMTP_USER", ""),
		SMTPPass: getenv("PACK_SMTP_PASSWORD", ""),
		MailFrom: getenv("PACK_MAIL_FROM", "BookmarkPack <no-reply@bookmarkpack.herokuapp.com>"),

		// Reaper
		ReaperInterval: mustDuration("PACK_REAPER_INTERVAL", 24*time.Hour),
		UnverifiedTTL:  mustDuration("PACK_UNVERIFIED_TTL", 0),

		// Redis settings
		RedisAddr:           getenv("PACK_REDIS_ADDR", ""),
		RedisUser:           getenv("PACK_REDIS_USERNAME", ""),
		RedisPassword:       getenv("PACK_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("PACK_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("PACK_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("PACK_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("PACK_TRUST_PROXY", false),
		CORSOrigins:  splitAndTrim(getenv("PACK_CORS_ORIGINS", "")),
	}

	if len(cfg.TokenSecret) < 16 {
		panic("❌ FATAL: PACK_TOKEN_SECRET must be at least 16 characters long")
	}
	if cfg.EnrichConcurrency < 1 {
		cfg.EnrichConcurrency = 1
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy of the config safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	cp.MongoURI = redactURI(c.MongoURI)
	cp.TokenSecret = "***REDACTED***"
	cp.SMTPPass = redactIfSet(c.SMTPPass)
	cp.RedisPassword = redactIfSet(c.RedisPassword)
	cp.GoogleClientSecret = redactIfSet(c.GoogleClientSecret)
	cp.FacebookClientSecret = redactIfSet(c.FacebookClientSecret)
	return cp
}

func redactIfSet(v string) string {
	if v == "" {
		return ""
	}
	return "***REDACTED***"
}

// redactURI hides the userinfo part of a connection string.
func redactURI(uri string) string {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return uri
	}
	if at := strings.LastIndex(rest, "@"); at != -1 {
		return scheme + "://***REDACTED***" + rest[at:]
	}
	return uri
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
