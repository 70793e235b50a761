// Package factory resolves a venue name and its configured symbols into a
// ready, connected, subscribed session (spec §2's "venue factory"
// component), mirroring the original ExchangeFactory.create_exchange match
// statement: a known name builds and subscribes a session, anything else is
// a ConfigError rather than a silent no-op.
package factory

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sawpanic/mdcollector/internal/errs"
	"github.com/sawpanic/mdcollector/internal/venue"
	"github.com/sawpanic/mdcollector/internal/venue/deribit"
)

const deribitURL = "wss://www.deribit.com/ws/api/v2"

// Supported is the venue-name allowlist. config.Validate consults it so an
// enabled-but-unknown exchange aborts at load time instead of silently
// starting zero workers.
var Supported = map[string]struct{}{
	"deribit": {},
}

// IsSupported reports whether name has a venue implementation, matched
// case-insensitively like the original factory's name.to_lowercase().
func IsSupported(name string) bool {
	_, ok := Supported[strings.ToLower(name)]
	return ok
}

// Create builds, connects, and subscribes the session for name. It is the
// only place a new venue's construction logic needs to be added; run.go and
// the worker pipeline depend on the venue.Venue interface, never on a
// concrete venue package.
func Create(ctx context.Context, name string, symbols []string, logger zerolog.Logger) (venue.Venue, error) {
	switch strings.ToLower(name) {
	case "deribit":
		session := deribit.New(deribitURL, logger)
		if err := session.Connect(ctx); err != nil {
			return nil, errs.Wrap(errs.ErrConnection, err)
		}
		session.Subscribe(symbols)
		return session, nil
	default:
		return nil, errs.Wrap(errs.ErrConfig, fmt.Errorf("exchange %q is not supported", name))
	}
}
