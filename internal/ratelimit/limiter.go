package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"arida/internal/platform/config"
	"arida/internal/platform/metrics"
	dErrors "arida/pkg/domain-errors"
)

// Limiter applies per-action policies on top of a Store. Store failures
// fail open: losing the limiter must not take writes down with it.
type Limiter struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics

	disabled bool
	policies map[Action]policy
}

type policy struct {
	limit  int
	window time.Duration
}

func NewLimiter(store Store, cfg config.RateLimitConfig, logger *slog.Logger, m *metrics.Metrics) *Limiter {
	return &Limiter{
		store:    store,
		logger:   logger,
		metrics:  m,
		disabled: cfg.Disabled,
		policies: map[Action]policy{
			ActionPetitionCreate:   {limit: cfg.PetitionCreate, window: cfg.Window},
			ActionPetitionResubmit: {limit: cfg.PetitionResubmit, window: cfg.Window},
			ActionAppealCreate:     {limit: cfg.AppealCreate, window: cfg.AppealCreateWindow},
			ActionAppealMessage:    {limit: cfg.AppealMessage, window: cfg.Window},
		},
	}
}

// Check records one event for the actor and returns CodeLimitExceeded
// when the actor is over the action's limit. Unknown actions pass.
func (l *Limiter) Check(ctx context.Context, action Action, actorID string) error {
	if l.disabled {
		return nil
	}
	pol, ok := l.policies[action]
	if !ok || pol.limit <= 0 {
		return nil
	}

	key := string(action) + ":" + actorID
	res, err := l.store.Allow(ctx, key, pol.limit, pol.window)
	if err != nil {
		l.logger.WarnContext(ctx, "rate limit store unavailable, failing open",
			"action", action,
			"error", err,
		)
		return nil
	}

	if !res.Allowed {
		l.metrics.RateLimitDenials.WithLabelValues(string(action)).Inc()
		l.logger.InfoContext(ctx, "rate limit exceeded",
			"action", action,
			"actor_id", actorID,
			"limit", res.Limit,
			"reset_at", res.ResetAt,
		)
		retryIn := time.Until(res.ResetAt).Round(time.Second)
		if retryIn < 0 {
			retryIn = 0
		}
		return dErrors.New(dErrors.CodeLimitExceeded,
			fmt.Sprintf("too many %s requests, retry in %s", action, retryIn))
	}
	return nil
}

// Reset clears an actor's counter for an action. Used by operators to
// unblock a legitimate user.
func (l *Limiter) Reset(ctx context.Context, action Action, actorID string) error {
	return l.store.Reset(ctx, string(action)+":"+actorID)
}
