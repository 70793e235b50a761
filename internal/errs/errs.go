// Package errs defines the error taxonomy shared across the collector: a
// small set of sentinel kinds that every subsystem wraps its errors around
// so callers can classify failures with errors.Is instead of string
// matching.
package errs

import "errors"

var (
	// ErrConnection marks a websocket/TCP establishment failure.
	ErrConnection = errors.New("connection error")

	// ErrProtocol marks a malformed or unexpected frame from the venue.
	ErrProtocol = errors.New("protocol error")

	// ErrSerialization marks a JSON encode failure of a normalized record.
	// Treated as a fatal programmer error if it ever occurs.
	ErrSerialization = errors.New("serialization error")

	// ErrSinkTransient marks a single-attempt Kafka/Redis failure that is
	// recovered by local retry.
	ErrSinkTransient = errors.New("sink transient error")

	// ErrSinkTerminal marks max_reconnect_attempts exhausted; the caller
	// escalates by aborting the process so the supervisor restarts it.
	ErrSinkTerminal = errors.New("sink terminal error")

	// ErrConfig marks a missing venue entry, empty subscription set, or
	// parse failure at startup.
	ErrConfig = errors.New("config error")
)

// Wrap joins err under kind so errors.Is(wrapped, kind) holds while
// preserving the original message via %w-style chaining.
func Wrap(kind, err error) error {
	if err == nil {
		return nil
	}
	return &wrapped{kind: kind, err: err}
}

type wrapped struct {
	kind error
	err  error
}

func (w *wrapped) Error() string { return w.kind.Error() + ": " + w.err.Error() }

func (w *wrapped) Unwrap() []error { return []error{w.kind, w.err} }
