package domain

import (
	"context"
	"time"
)

// SessionState is the lifecycle position of a Session.
type SessionState int

const (
	StateConnecting SessionState = iota
	StateReady
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// EventType defines the category of the event.
type EventType string

const (
	EventConnect      EventType = "connect"
	EventClose        EventType = "close"
	EventResolveStart EventType = "resolve_start"
	EventResolveEnd   EventType = "resolve_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// SessionEvent is emitted when a session opens or closes.
type SessionEvent struct {
	EventBase
	Endpoint string `json:"endpoint,omitempty"`
	Err      error  `json:"-"`
}

// ResolveEvent is emitted around a single round trip.
type ResolveEvent struct {
	EventBase
	Chain    Chain         `json:"chain"`
	Duration time.Duration `json:"duration,omitempty"`
	Cached   bool          `json:"cached,omitempty"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for client observability. Nil hooks
// are skipped.
type LifecycleHooks struct {
	OnConnect      func(context.Context, *SessionEvent)
	OnClose        func(context.Context, *SessionEvent)
	OnResolveStart func(context.Context, *ResolveEvent)
	OnResolveEnd   func(context.Context, *ResolveEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnConnect:      both(h.OnConnect, other.OnConnect),
		OnClose:        both(h.OnClose, other.OnClose),
		OnResolveStart: both(h.OnResolveStart, other.OnResolveStart),
		OnResolveEnd:   both(h.OnResolveEnd, other.OnResolveEnd),
	}
}

func both[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
