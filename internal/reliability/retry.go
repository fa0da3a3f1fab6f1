// Package reliability provides the retry-with-backoff helper and optional
// off-site replication used by components that call external resources
// (the backtest backend, LLM persona providers).
package reliability

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/extremevalue/research-kit/internal/pipeline"
)

// BackoffPolicy controls retry timing for transient failures.
type BackoffPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultBackoff is the policy used for backend submissions and persona
// dispatch unless a component overrides it.
var DefaultBackoff = BackoffPolicy{
	MaxAttempts: 4,
	BaseDelay:   500 * time.Millisecond,
	MaxDelay:    10 * time.Second,
}

func (p BackoffPolicy) delay(attempt int) time.Duration {
	d := time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt)))
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Retry runs fn until it succeeds, returns a non-transient error, the
// policy's attempt budget is exhausted, or ctx is cancelled. Only errors
// classified pipeline.KindTransient are retried.
func Retry(ctx context.Context, log zerolog.Logger, policy BackoffPolicy, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			d := policy.delay(attempt - 1)
			log.Debug().Int("attempt", attempt).Dur("delay", d).Msg("retrying after transient failure")
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !pipeline.Retryable(err) {
			return err
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("transient failure")
	}
	return lastErr
}
