// Package retry holds bounded retry policies for acquiring external resources.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/NataTusia/Haah-and-Cash/logger"
)

// Policy retries an operation up to MaxTries times with a fixed Backoff in between.
type Policy struct {
	Name     string
	MaxTries uint
	Backoff  time.Duration
}

// Fixed returns a fixed-backoff policy.
func Fixed(name string, maxTries uint, wait time.Duration) Policy {
	if maxTries == 0 {
		maxTries = 1
	}
	return Policy{Name: name, MaxTries: maxTries, Backoff: wait}
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op until it succeeds, returns a permanent error, the tries run out or ctx ends.
// The last error is returned on failure.
func Do[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	attempt := 0
	return backoff.Retry(ctx, func() (T, error) {
		attempt++
		v, err := op()
		if err != nil {
			logger.WarnWithFields("retryable operation failed", logger.Fields{
				"operation": p.Name,
				"attempt":   attempt,
				"max_tries": p.MaxTries,
				"error":     err.Error(),
			})
		}
		return v, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Backoff)),
		backoff.WithMaxTries(p.MaxTries),
	)
}
