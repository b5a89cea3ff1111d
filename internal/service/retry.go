package service

import (
	"context"
	"errors"
	"math"
	"time"

	"decihire/internal/model"

	log "github.com/sirupsen/logrus"
)

// RetryPolicy retries StoreUnavailable failures with exponential backoff.
// Any other error is returned immediately.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt-1))) * p.BaseDelay
}

// Do runs fn until it succeeds, fails permanently or attempts run out
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := p.backoff(attempt)
			log.Printf("[Retry] %s: attempt %d/%d in %v after: %v", op, attempt+1, attempts, wait, lastErr)
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(wait):
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, model.ErrStoreUnavailable) {
			return err
		}
		lastErr = err
	}

	log.WithField("op", op).Warnf("[Retry] giving up after %d attempts: %v", attempts, lastErr)
	return lastErr
}

// retryValue is Do for operations that return a value
func retryValue[T any](ctx context.Context, p RetryPolicy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
