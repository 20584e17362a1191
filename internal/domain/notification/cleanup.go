package notification

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultRetention       = 90 * 24 * time.Hour
	DefaultCleanupInterval = 24 * time.Hour
)

// Cleanup prunes notifications past their retention window.
type Cleanup struct {
	repo      *Repository
	retention time.Duration
	interval  time.Duration
	log       *zap.SugaredLogger
}

func NewCleanup(repo *Repository, retention, interval time.Duration, log *zap.SugaredLogger) *Cleanup {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &Cleanup{repo: repo, retention: retention, interval: interval, log: log.Named("notification-cleanup")}
}

func (c *Cleanup) RunOnce(ctx context.Context) (int64, error) {
	started := time.Now()
	deleted, err := c.repo.DeleteOlderThan(ctx, started.Add(-c.retention))
	if err != nil {
		return 0, err
	}
	c.log.Infow("notification cleanup finished", "deleted", deleted, "duration", time.Since(started))
	return deleted, nil
}

// Run prunes on every tick until ctx is done.
func (c *Cleanup) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.RunOnce(ctx); err != nil {
				c.log.Warnw("notification cleanup failed", "error", err)
			}
		}
	}
}
