// Package breaker wraps a venue's dial path in a circuit breaker so a
// persistently unreachable venue is short-circuited instead of being sent
// further dial attempts.
package breaker

import (
	"time"

	"github.com/sony/gobreaker"
)

// Breaker trips open after repeated consecutive dial failures and
// half-opens after its cooldown window, per exchange session.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New builds a breaker named after the venue/purpose it guards (e.g.
// "deribit-reconnect"). It trips after 3 consecutive failures, or when more
// than half of at least 10 requests fail within a 60s counting cycle (counts
// reset every 60s while closed), and stays
// open for 30s before allowing a single probe request through.
func New(name string) *Breaker {
	settings := gobreaker.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 3 {
				return true
			}
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) > 0.5
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs fn through the breaker, short-circuiting immediately with
// gobreaker.ErrOpenState while the breaker is open.
func (b *Breaker) Execute(fn func() (any, error)) (any, error) {
	return b.cb.Execute(fn)
}

// State reports the breaker's current state for health/metrics reporting.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
