// Package retry runs storage operations again when they fail for reasons that
// may clear up: version conflicts, lock timeouts and storage errors.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"p2p-lending/internal/domain/apperr"

	"github.com/cenkalti/backoff/v4"
)

type Policy struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
}

func DefaultPolicy(maxAttempts int) Policy {
	return Policy{MaxAttempts: maxAttempts, Initial: 5 * time.Millisecond, Max: 200 * time.Millisecond}
}

// Do calls op until it succeeds, returns a non-transient error, or the attempt
// budget is spent. The last error is returned as is.
func Do(ctx context.Context, p Policy, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.Initial
	exp.MaxInterval = p.Max
	exp.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !apperr.Transient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}

// Exhausted turns the last transient error into what callers report once
// retries are spent. A version conflict that never cleared is contention.
func Exhausted(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperr.ErrVersionConflict):
		return fmt.Errorf("%w: %v", apperr.ErrLockContention, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", apperr.ErrOperationTimeout, err)
	}
	return err
}
