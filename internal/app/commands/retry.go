// internal/app/commands/retry.go
package commands

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
)

// RetryPolicy bounds the retries of an idempotent store write. Only transient
// store errors are retried; anything else stops immediately.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:      3,
	InitialInterval: 100 * time.Millisecond,
	MaxInterval:     2 * time.Second,
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	eb.MaxInterval = p.MaxInterval
	eb.MaxElapsedTime = 0
	eb.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(eb, p.MaxRetries), ctx)
}

// Do runs op until it succeeds, fails permanently, or retries run out. The
// last error is returned unchanged.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !domainErr.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, p.backOff(ctx))
}
