package utils

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	LongTimeout    = 900 * time.Second // 15 minutes
	DefaultTimeout = 300 * time.Second // 5 minutes

	ShortInterval   = 5 * time.Second  // 5 seconds
	DefaultInterval = 10 * time.Second // 10 seconds
)

// ErrTimeout is returned by Eventually when the condition is not met in time
var ErrTimeout = errors.New("eventually: condition not met within timeout")

// Supplier is a function that produces a value of type T or an error.
type Supplier[T any] func(ctx context.Context) (T, error)

// Predicate is a function that checks if a value of type T meets some condition.
type Predicate[T any] func(T) bool

func EventuallyDefault[T any](
	ctx context.Context,
	supplier Supplier[T],
	predicate Predicate[T],
) (T, error) {
	return Eventually(ctx, supplier, predicate, DefaultInterval, DefaultTimeout)
}

// Eventually repeatedly calls supplier until predicate accepts its value, the
// timeout elapses or ctx is done. The first supplier error stops the polling.
// On failure the last value seen is returned with the error.
func Eventually[T any](
	ctx context.Context,
	supplier Supplier[T],
	predicate Predicate[T],
	interval time.Duration,
	timeout time.Duration,
) (T, error) {
	var last T
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		next, err := supplier(ctx)
		if err != nil {
			return last, fmt.Errorf("eventually: supplier failed: %w", err)
		}
		if predicate(next) {
			return next, nil
		}
		last = next

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-timer.C:
			return last, ErrTimeout
		case <-time.After(interval):
		}
	}
}
