package application

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds the read-modify-conditional-write loops.
type RetryPolicy struct {
	MaxAttempts int
	// Backoff is multiplied by the attempt number before each retry.
	Backoff time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, Backoff: 5 * time.Millisecond}
}

// Do runs fn until it succeeds, fails with an error not matching retryOn,
// or MaxAttempts is reached. It returns the number of attempts made and the last error.
func (p RetryPolicy) Do(ctx context.Context, fn func() error, retryOn ...error) (int, error) {
	limit := p.MaxAttempts
	if limit < 1 {
		limit = 1
	}
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !matchesAny(err, retryOn) || attempt >= limit {
			return attempt, err
		}
		if err := Sleep(ctx, p.Backoff*time.Duration(attempt)); err != nil {
			return attempt, err
		}
	}
}

// Sleep waits for d or until ctx ends.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func matchesAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
