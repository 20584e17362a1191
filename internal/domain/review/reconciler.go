package review

import (
	"context"
	"time"

	"go.uber.org/zap"

	"besaha/internal/metrics"
)

// Driver re-runs verification for one review.
type Driver interface {
	Verify(ctx context.Context, reviewID string) (*Outcome, error)
}

type ReconcilerConfig struct {
	Interval  time.Duration
	Grace     time.Duration
	BatchSize int
}

// Reconciler re-drives reviews whose verification never ran or hit a
// transient error.
type Reconciler struct {
	reviews *Repository
	driver  Driver
	cfg     ReconcilerConfig
	log     *zap.SugaredLogger
	now     func() time.Time
}

func NewReconciler(reviews *Repository, driver Driver, cfg ReconcilerConfig, log *zap.SugaredLogger) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Grace < 0 {
		cfg.Grace = 0
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Reconciler{
		reviews: reviews,
		driver:  driver,
		cfg:     cfg,
		log:     log.Named("reconciler"),
		now:     time.Now,
	}
}

// RunOnce sweeps one batch and returns how many reviews were re-driven.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	cutoff := r.now().UTC().Add(-r.cfg.Grace)
	stuck, err := r.reviews.ListRedrivable(ctx, cutoff, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, rv := range stuck {
		if ctx.Err() != nil {
			break
		}
		out, err := r.driver.Verify(ctx, rv.ID)
		if err != nil {
			r.log.Warnw("re-drive failed", "review_id", rv.ID, "error", err)
			continue
		}
		n++
		metrics.ReconcileRedrives.Inc()
		r.log.Debugw("review re-driven", "review_id", rv.ID, "status", out.Status)
	}
	return n, nil
}

// Run sweeps immediately and then on every tick until ctx is done.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		if n, err := r.RunOnce(ctx); err != nil {
			r.log.Errorw("reconcile sweep", "error", err)
		} else if n > 0 {
			r.log.Infow("reconcile sweep", "redriven", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
