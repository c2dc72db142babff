// Package retry runs required backend queries with a small, fixed number of
// attempts. Only BackendUnavailable errors are retried; every other kind is
// returned on the first attempt.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	apperrors "github.com/jwalitptl/clinical-records/pkg/errors"
)

// Policy bounds how often and how quickly an operation is retried.
type Policy struct {
	Attempts int
	Interval time.Duration
}

// DefaultPolicy is used when configuration leaves the values unset.
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, Interval: 100 * time.Millisecond}
}

func (p Policy) normalized() Policy {
	if p.Attempts < 1 {
		p.Attempts = DefaultPolicy().Attempts
	}
	if p.Interval < 0 {
		p.Interval = 0
	}
	return p
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// attempts are used up. The last error is returned unchanged in kind.
func Do(ctx context.Context, p Policy, fn func() error) error {
	p = p.normalized()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Interval
	b.MaxInterval = p.Interval * 4
	b.RandomizationFactor = 0

	var policy backoff.BackOff = backoff.WithMaxRetries(b, uint64(p.Attempts-1))
	if p.Interval == 0 {
		policy = backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(p.Attempts-1))
	}

	return backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if !apperrors.IsBackendUnavailable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(policy, ctx))
}
