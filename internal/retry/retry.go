// Package retry implements the bounded exponential-backoff-then-abort
// policy shared by the Kafka and Redis sinks (spec §4.4/§4.5): double the
// backoff after every failure starting from an initial value, give up
// after a fixed attempt count, and hand the caller a terminal error to
// escalate on exhaustion.
package retry

import (
	"context"
	"time"
)

// Policy is a bounded exponential backoff schedule.
type Policy struct {
	InitialBackoff time.Duration
	MaxAttempts    int
}

// Do calls fn up to p.MaxAttempts+1 times (the first attempt plus
// p.MaxAttempts retries), doubling the backoff after every failure. It
// returns nil on the first success. If every attempt fails, it returns the
// last error unwrapped; the caller is responsible for classifying that as
// terminal and escalating (spec's process-abort policy is a property of
// the sink, not of this helper).
func Do(ctx context.Context, p Policy, fn func() error) error {
	backoff := p.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}
