package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/bookmarkpack/internal/logger"
	"github.com/MrSnakeDoc/bookmarkpack/internal/metrics"
)

const (
	// DefaultReaperInterval is the time between two passes
	DefaultReaperInterval = 24 * time.Hour
)

// AccountStore is the part of the user store the reaper needs.
type AccountStore interface {
	DeleteUnverifiedBefore(ctx context.Context, before time.Time) (int64, error)
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// Reaper periodically removes stale account state: unverified password
// accounts older than the TTL and expired password reset tokens.
type Reaper struct {
	store         AccountStore
	logger        logger.Logger
	interval      time.Duration
	unverifiedTTL time.Duration // 0 keeps unverified accounts forever
	now           func() time.Time
	stopCh        chan struct{}
	stopOnce      sync.Once
}

// NewReaper creates a new reaper
func NewReaper(store AccountStore, log logger.Logger, interval, unverifiedTTL time.Duration) *Reaper {
	if interval <= 0 {
		interval = DefaultReaperInterval
	}

	return &Reaper{
		store:         store,
		logger:        log.With(logger.Component("reaper")),
		interval:      interval,
		unverifiedTTL: unverifiedTTL,
		now:           time.Now,
		stopCh:        make(chan struct{}),
	}
}

// Start runs a pass immediately, then one every interval until Stop or ctx ends.
func (r *Reaper) Start(ctx context.Context) {
	// Run immediately on start
	if err := r.Collect(ctx); err != nil {
		r.logger.Warn("initial reaper pass failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := r.Collect(ctx); err != nil {
					r.logger.Error("reaper pass failed",
						logger.Error(err))
				}
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the periodic passes. Safe to call more than once.
func (r *Reaper) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// Collect runs one pass.
func (r *Reaper) Collect(ctx context.Context) error {
	now := r.now()

	var deleted int64
	if r.unverifiedTTL > 0 {
		n, err := r.store.DeleteUnverifiedBefore(ctx, now.Add(-r.unverifiedTTL))
		if err != nil {
			return err
		}
		deleted = n
		metrics.AccountEvents.WithLabelValues("reaped").Add(float64(n))
	}

	cleared, err := r.store.ClearExpiredResetTokens(ctx, now)
	if err != nil {
		return err
	}

	if deleted > 0 || cleared > 0 {
		r.logger.Info("reaper pass completed",
			logger.Int64("unverified_deleted", deleted),
			logger.Int64("reset_tokens_cleared", cleared))
	} else {
		r.logger.Debug("nothing to reap")
	}
	return nil
}
