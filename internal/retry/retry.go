// Package retry wraps fallible operations with a bounded attempt
// count, an error filter, and fixed backoff.
package retry

import (
	"log/slog"
	"time"
)

// Options controls Do.
type Options[T any] struct {
	// Times is the attempt bound. Values below one mean one attempt.
	Times int

	// Sleep is the fixed pause between attempts.
	Sleep time.Duration

	// Retryable filters which errors count as retryable. Nil retries
	// every failure. Non-matching errors propagate immediately,
	// uncounted.
	Retryable func(error) bool

	// Fallback, when set, is returned instead of the final error once
	// attempts are exhausted.
	Fallback *T
}

// Do invokes op until it succeeds or the attempt bound is reached.
// Each matching failure is logged with its attempt index; exhaustion
// logs an error and yields the fallback when one was configured,
// otherwise the last failure.
func Do[T any](logger *slog.Logger, name string, op func() (T, error), opts Options[T]) (T, error) {
	if opts.Times < 1 {
		opts.Times = 1
	}

	var zero T
	for attempt := 1; ; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		if opts.Retryable != nil && !opts.Retryable(err) {
			return zero, err
		}

		logger.Warn("operation failed",
			"op", name,
			"attempt", attempt,
			"of", opts.Times,
			"error", err,
		)

		if attempt >= opts.Times {
			logger.Error("operation exhausted retries", "op", name, "attempts", opts.Times, "error", err)
			if opts.Fallback != nil {
				return *opts.Fallback, nil
			}
			return zero, err
		}

		if opts.Sleep > 0 {
			time.Sleep(opts.Sleep)
		}
	}
}
