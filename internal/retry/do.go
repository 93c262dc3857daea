package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/mdpage/internal/metrics"
)

// Permanent classifies errors that must not be retried. A nil
// classifier treats every error as transient.
type Permanent func(error) bool

// Do runs fn under the policy, sleeping between attempts according to
// the backoff mode. It stops early on success, on a permanent error,
// or when ctx is done. The recorder counts retries per operation name.
func Do(ctx context.Context, op string, p Policy, rec metrics.Recorder, permanent Permanent, fn func() error) error {
	_, err := DoValue(ctx, op, p, rec, permanent, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, op string, p Policy, rec metrics.Recorder, permanent Permanent, fn func() (T, error)) (T, error) {
	var zero T
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}

	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err

		if permanent != nil && permanent(err) {
			slog.Error("permanent failure, not retrying",
				slog.String("operation", op),
				slog.String("error", err.Error()))
			return zero, err
		}
		if attempt == p.MaxRetries {
			break
		}

		delay := p.Delay(attempt + 1)
		rec.IncRetry(op)
		slog.Warn("retrying operation",
			slog.String("operation", op),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", delay),
			slog.String("error", err.Error()))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	if p.MaxRetries > 0 {
		rec.IncRetryExhausted(op)
	}
	return zero, fmt.Errorf("%s failed after %d retries: %w", op, p.MaxRetries, lastErr)
}
