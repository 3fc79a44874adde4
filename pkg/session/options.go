package session

import (
	"log/slog"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
)

// Option configures a Session.
type Option func(*Session)

// WithCredentials sets the auth material sent in the handshake.
func WithCredentials(credentials string) Option {
	return func(s *Session) {
		s.credentials = credentials
	}
}

// WithTimeout bounds how long Connect waits for the engine to become ready.
// Zero means the caller's context is the only limit.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.timeout = d
	}
}

// WithResolveTimeout bounds every individual round trip.
func WithResolveTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.resolveTimeout = d
	}
}

// WithLogger configures a logger for the Session.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers connect/close hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Session) {
		s.hooks = hooks
	}
}

// WithClientName sets the client identifier sent in the handshake.
func WithClientName(name string) Option {
	return func(s *Session) {
		s.clientName = name
	}
}
