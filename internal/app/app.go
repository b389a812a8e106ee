package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	gomongo "go.mongodb.org/mongo-driver/mongo"

	"github.com/MrSnakeDoc/bookmarkpack/internal/account"
	"github.com/MrSnakeDoc/bookmarkpack/internal/bookmark"
	"github.com/MrSnakeDoc/bookmarkpack/internal/config"
	"github.com/MrSnakeDoc/bookmarkpack/internal/connect"
	"github.com/MrSnakeDoc/bookmarkpack/internal/enrich"
	"github.com/MrSnakeDoc/bookmarkpack/internal/httpserver"
	"github.com/MrSnakeDoc/bookmarkpack/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkpack/internal/logger"
	"github.com/MrSnakeDoc/bookmarkpack/internal/mailer"
	"github.com/MrSnakeDoc/bookmarkpack/internal/mongo"
	"github.com/MrSnakeDoc/bookmarkpack/internal/oauth"
	"github.com/MrSnakeDoc/bookmarkpack/internal/redis"
	"github.com/MrSnakeDoc/bookmarkpack/internal/scheduler"
	mongostore "github.com/MrSnakeDoc/bookmarkpack/internal/store/mongo"
	redisstore "github.com/MrSnakeDoc/bookmarkpack/internal/store/redis"
	"github.com/MrSnakeDoc/bookmarkpack/internal/token"
	"github.com/MrSnakeDoc/bookmarkpack/internal/version"
)

// mongoWarnThreshold is the number of failed pings before each one is logged as a warning.
const mongoWarnThreshold = 3

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	mongoClient *gomongo.Client
	redisClient *goredis.Client
	reaper      *scheduler.Reaper
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	ctx := context.Background()

	// Initialize MongoDB early - fail fast if unavailable
	loggerClient.Info("Connecting to MongoDB", logger.String("database", cfg.MongoDatabase))
	mongoClient, db, err := mongo.New(ctx, mongo.ConnectOptions{
		URI:      cfg.MongoURI,
		Database: cfg.MongoDatabase,
		AppName:  "bookmarkpack",
		Retry: connect.Policy{
			ConnectTimeout: cfg.MongoConnectTimeout,
			RetryInterval:  cfg.MongoRetryInterval,
			MaxWait:        cfg.MongoMaxWait,
			PingTimeout:    cfg.MongoPingTimeout,
			WarnThreshold:  mongoWarnThreshold,
		},
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to MongoDB: %v", err)
		os.Exit(1)
	}

	users := mongostore.NewStore(db)
	indexCtx, cancel := context.WithTimeout(ctx, cfg.MongoConnectTimeout)
	err = users.EnsureIndexes(indexCtx)
	cancel()
	if err != nil {
		loggerClient.Errorf("Failed to create MongoDB indexes: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("MongoDB initialized successfully")

	// Redis is optional: without it enrichment results are not cached
	enrichOpts := enrich.Options{
		Timeout:         cfg.EnrichTimeout,
		FaviconEndpoint: cfg.FaviconEndpoint,
		CacheTTL:        cfg.EnrichCacheTTL,
		Logger:          loggerClient,
	}
	var (
		redisClient *goredis.Client
		cache       deps.CacheStats
	)
	if cfg.RedisAddr != "" {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		redisClient, err = redis.New(ctx, redis.ConnectOptions{
			Addr:         cfg.RedisAddr,
			User:         cfg.RedisUser,
			Password:     cfg.RedisPassword,
			RedisDB:      cfg.RedisDB,
			DialTimeout:  cfg.RedisDT,
			ReadTimeout:  cfg.RedisRT,
			WriteTimeout: cfg.RedisWT,
			PoolSize:     cfg.RedisPoolSize,
			Retry: connect.Policy{
				ConnectTimeout: cfg.RedisConnectTimeout,
				RetryInterval:  cfg.RedisRetryInterval,
				MaxWait:        cfg.RedisMaxWait,
				PingTimeout:    cfg.RedisPingTimeout,
				WarnThreshold:  cfg.RedisWarnThreshold,
			},
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		store := redisstore.NewStore(redisClient)
		enrichOpts.Cache = store
		cache = store
		loggerClient.Info("Redis initialized successfully, enrichment cache enabled",
			logger.Duration("ttl", cfg.EnrichCacheTTL))
	} else {
		loggerClient.Info("redis not configured, enrichment cache disabled")
	}

	tokens := token.NewIssuer(cfg.TokenSecret, cfg.TokenTTL)

	mail := mailer.New(mailer.Options{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.MailFrom,
		AppURL:   cfg.AppURL,
	}, loggerClient)
	if !mail.Enabled() {
		loggerClient.Warn("SMTP not configured, emails will only be logged")
	}

	oauthClient := oauth.New(oauth.Options{
		Google:   oauth.Endpoint{Secret: cfg.GoogleClientSecret},
		Facebook: oauth.Endpoint{Secret: cfg.FacebookClientSecret},
	})

	accounts := account.NewService(users, tokens, mail, oauthClient, loggerClient, account.Options{})
	bookmarks := bookmark.NewManager(users, enrich.New(enrichOpts), loggerClient, bookmark.Options{
		Concurrency: cfg.EnrichConcurrency,
		GitHub:      bookmark.NewGitHubClient(cfg.GitHubAPIURL, cfg.EnrichTimeout),
	})

	reaper := scheduler.NewReaper(users, loggerClient, cfg.ReaperInterval, cfg.UnverifiedTTL)

	// Dependencies passed to routes
	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		CORSOrigins:    cfg.CORSOrigins,
		Tokens:         tokens,
		Bookmarks:      bookmarks,
		Accounts:       accounts,
		Store:          users,
		Cache:          cache,
		ImportMaxBytes: cfg.ImportMaxBytes,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		mongoClient: mongoClient,
		redisClient: redisClient,
		reaper:      reaper,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting BookmarkPack v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start account reaper
	a.reaper.Start(ctx)
	a.logger.Info("account reaper started",
		logger.Duration("interval", a.cfg.ReaperInterval),
		logger.Duration("unverified_ttl", a.cfg.UnverifiedTTL))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.reaper.Stop()
		return err
	}

	// Stop reaper
	a.reaper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if err := a.mongoClient.Disconnect(shutdownCtx); err != nil {
		a.logger.Warnf("failed to disconnect mongo: %v", err)
	} else {
		a.logger.Info("✅ MongoDB disconnected cleanly")
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ BookmarkPack stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
