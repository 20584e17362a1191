package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"besaha/internal/domain/restaurant"
	"besaha/internal/domain/user"
	"besaha/internal/events"
	"besaha/internal/metrics"
)

type RestaurantLookup interface {
	GetByID(ctx context.Context, id string) (*restaurant.Restaurant, error)
}

// Outcome is what one Verify call observed. Applied is false when the
// review already carried a terminal verdict and nothing was written.
type Outcome struct {
	ReviewID     string
	RestaurantID string
	Status       Status
	Reason       string
	Applied      bool
	Meta         *restaurant.Meta
}

type VerifierConfig struct {
	MaxDistanceMeters float64
	RetryAttempts     int
	RetryBackoff      time.Duration
}

// Verifier drives a pending review to a verdict. A verified verdict, the
// contributor counter and the restaurant aggregate commit in one transaction.
type Verifier struct {
	db          *gorm.DB
	reviews     *Repository
	restaurants RestaurantLookup
	publisher   events.Publisher
	policy      Policy
	attempts    int
	backoff     time.Duration
	log         *zap.SugaredLogger
}

func NewVerifier(reviews *Repository, restaurants RestaurantLookup, publisher events.Publisher, cfg VerifierConfig, log *zap.SugaredLogger) *Verifier {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 1
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 50 * time.Millisecond
	}
	return &Verifier{
		db:          reviews.DB(),
		reviews:     reviews,
		restaurants: restaurants,
		publisher:   publisher,
		policy:      NewPolicy(cfg.MaxDistanceMeters),
		attempts:    cfg.RetryAttempts,
		backoff:     cfg.RetryBackoff,
		log:         log.Named("verifier"),
	}
}

// Verify evaluates the review and records the outcome. It is safe to call
// any number of times, concurrently, for the same review.
func (v *Verifier) Verify(ctx context.Context, reviewID string) (*Outcome, error) {
	// a started verification runs to an outcome even if the caller goes away
	ctx = context.WithoutCancel(ctx)
	started := time.Now()

	rv, err := v.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if rv.Status.Terminal() {
		return v.skipped(rv, started), nil
	}

	found := true
	rest, err := v.restaurants.GetByID(ctx, rv.RestaurantID)
	if err != nil {
		if !errors.Is(err, restaurant.ErrNotFound) {
			return v.fail(ctx, rv, started, fmt.Errorf("restaurant lookup: %w", err))
		}
		found = false
	}

	in := PolicyInput{
		RestaurantFound: found,
		UserLocation:    rv.UserLocation,
		HasMedia:        len(rv.MediaURLs) > 0,
	}
	if found {
		in.Restaurant = rest.Coordinates
	}
	verdict := v.policy.Evaluate(in)

	if !verdict.Verified {
		changed, err := v.reviews.SetVerification(ctx, rv.ID, StatusRejected, verdict.Reason)
		if err != nil {
			return v.fail(ctx, rv, started, err)
		}
		if !changed {
			return v.reload(ctx, rv, started)
		}
		out := &Outcome{
			ReviewID:     rv.ID,
			RestaurantID: rv.RestaurantID,
			Status:       StatusRejected,
			Reason:       verdict.Reason,
			Applied:      true,
		}
		v.finish(ctx, rv, out, started)
		return out, nil
	}

	meta, err := v.applyVerifiedWithRetry(ctx, rv.ID, verdict.Reason)
	if errors.Is(err, errAlreadyTerminal) {
		return v.reload(ctx, rv, started)
	}
	if err != nil {
		return v.fail(ctx, rv, started, err)
	}

	out := &Outcome{
		ReviewID:     rv.ID,
		RestaurantID: rv.RestaurantID,
		Status:       StatusVerified,
		Reason:       verdict.Reason,
		Applied:      true,
		Meta:         meta,
	}
	metrics.AggregateUpdates.Inc()
	v.finish(ctx, rv, out, started)
	return out, nil
}

func (v *Verifier) applyVerifiedWithRetry(ctx context.Context, reviewID, reason string) (*restaurant.Meta, error) {
	for attempt := 1; ; attempt++ {
		meta, err := v.applyVerified(ctx, reviewID, reason)
		if err == nil || !isRetryable(err) || attempt >= v.attempts {
			return meta, err
		}
		metrics.VerificationRetries.Inc()
		v.log.Warnw("verification transaction retry", "review_id", reviewID, "attempt", attempt, "error", err)
		time.Sleep(v.backoff * time.Duration(attempt))
	}
}

// applyVerified locks review, user and restaurant rows in that order.
func (v *Verifier) applyVerified(ctx context.Context, reviewID, reason string) (*restaurant.Meta, error) {
	var meta restaurant.Meta

	err := v.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := lockForVerification(tx, reviewID)
		if err != nil {
			return err
		}
		if Status(m.Status).Terminal() {
			return errAlreadyTerminal
		}
		rv := toDomain(*m)

		now := time.Now().UTC()
		ok, err := markVerified(tx, reviewID, reason, now)
		if err != nil {
			return err
		}
		if !ok {
			return errAlreadyTerminal
		}

		counted, err := user.IncrementContributions(tx, rv.UserID, 1)
		if err != nil {
			return fmt.Errorf("increment contributions: %w", err)
		}
		if !counted {
			v.log.Warnw("contributor not found, counter unchanged", "review_id", reviewID, "user_id", rv.UserID)
		}

		rest, err := restaurant.LockForUpdate(tx, rv.RestaurantID)
		if err != nil {
			return fmt.Errorf("lock restaurant %s: %w", rv.RestaurantID, err)
		}
		meta = ApplyRating(rest.Meta, rv.Ratings)
		if err := restaurant.UpdateAggregate(tx, rest.ID, meta); err != nil {
			return fmt.Errorf("update aggregate: %w", err)
		}
		return nil
	}, txOptions(v.db))
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// fail records a transient error. The review stays re-drivable.
func (v *Verifier) fail(ctx context.Context, rv *Review, started time.Time, cause error) (*Outcome, error) {
	v.log.Errorw("verification failed", "review_id", rv.ID, "restaurant_id", rv.RestaurantID, "error", cause)

	changed, err := v.reviews.SetVerification(ctx, rv.ID, StatusFailed, ReasonServerError)
	if err != nil {
		// nothing was written; the review is still pending for the reconciler
		v.log.Errorw("record verification failure", "review_id", rv.ID, "error", err)
		metrics.RecordVerdict(metrics.OutcomeFailed, ReasonServerError, started)
		return &Outcome{ReviewID: rv.ID, RestaurantID: rv.RestaurantID, Status: rv.Status, Reason: ReasonServerError}, nil
	}
	if !changed {
		return v.reload(ctx, rv, started)
	}

	out := &Outcome{
		ReviewID:     rv.ID,
		RestaurantID: rv.RestaurantID,
		Status:       StatusFailed,
		Reason:       ReasonServerError,
		Applied:      true,
	}
	v.finish(ctx, rv, out, started)
	return out, nil
}

// reload reports the verdict another verifier already wrote.
func (v *Verifier) reload(ctx context.Context, rv *Review, started time.Time) (*Outcome, error) {
	cur, err := v.reviews.GetByID(ctx, rv.ID)
	if err != nil {
		return nil, err
	}
	return v.skipped(cur, started), nil
}

func (v *Verifier) skipped(rv *Review, started time.Time) *Outcome {
	metrics.RecordVerdict(metrics.OutcomeSkipped, "", started)
	v.log.Debugw("verification skipped, verdict already recorded", "review_id", rv.ID, "status", rv.Status)
	return &Outcome{
		ReviewID:     rv.ID,
		RestaurantID: rv.RestaurantID,
		Status:       rv.Status,
		Reason:       rv.VerificationReason,
	}
}

func (v *Verifier) finish(ctx context.Context, rv *Review, out *Outcome, started time.Time) {
	metrics.RecordVerdict(string(out.Status), out.Reason, started)
	v.log.Infow("review verdict recorded",
		"review_id", out.ReviewID,
		"restaurant_id", out.RestaurantID,
		"status", out.Status,
		"reason", out.Reason,
		"duration", time.Since(started),
	)

	if v.publisher == nil {
		return
	}
	decided := Review{Status: out.Status, VerificationReason: out.Reason}
	ev := VerdictEvent{
		ReviewID:     out.ReviewID,
		RestaurantID: out.RestaurantID,
		UserID:       rv.UserID,
		Status:       out.Status,
		Verified:     out.Status == StatusVerified,
		Reason:       out.Reason,
		Badge:        decided.Badge(),
		Meta:         out.Meta,
		DecidedAt:    time.Now().UTC(),
	}
	if err := v.publisher.Publish(ctx, events.TopicReviewVerdict, ev); err != nil {
		v.log.Warnw("publish verdict", "review_id", out.ReviewID, "error", err)
	}
}

// txOptions asks Postgres for serializable isolation. SQLite transactions
// are already serialized by its single writer.
func txOptions(db *gorm.DB) *sql.TxOptions {
	if db.Dialector.Name() == "postgres" {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return &sql.TxOptions{}
}

// isRetryable reports storage errors that a fresh transaction may not hit.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy")
}
