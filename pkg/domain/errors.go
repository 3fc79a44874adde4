package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrClosed is matched by errors.Is for every ConnectionClosedError.
var ErrClosed = errors.New("session closed")

// ErrUnauthorized is returned by engines (and wrapped in ConnectionError)
// when the handshake credentials are rejected.
var ErrUnauthorized = errors.New("unauthorized")

// ConnectionError reports a failure to establish a session: the engine is
// unreachable, rejected the credentials or did not become ready in time.
// No Session exists when this error is returned.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("connect: %v", e.Err)
	}
	return fmt.Sprintf("connect %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ConnectionClosedError is returned for any operation attempted on a
// session that is not Ready. It is detected locally; the transport is
// never contacted.
type ConnectionClosedError struct {
	Session string
	State   SessionState
}

func (e *ConnectionClosedError) Error() string {
	return fmt.Sprintf("session %s is %s", e.Session, e.State)
}

func (e *ConnectionClosedError) Is(target error) bool { return target == ErrClosed }

// TransportError wraps a mid-flight failure (disconnect, timeout,
// cancellation) while resolving Chain. The engine may or may not have
// executed the request.
type TransportError struct {
	Chain Chain
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure resolving %s: %v", e.Chain, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ResolutionError carries the faults the engine reported while executing
// Chain. Message holds the engine's text verbatim.
type ResolutionError struct {
	Chain  Chain
	Faults []Fault
}

// Message returns the engine's fault messages joined by "; ".
func (e *ResolutionError) Message() string {
	msgs := make([]string, len(e.Faults))
	for i, f := range e.Faults {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving %s: %s", e.Chain, e.Message())
}

// KindOf names the taxonomy class of err, or "Error" for anything else.
func KindOf(err error) string {
	var (
		connErr   *ConnectionError
		closedErr *ConnectionClosedError
		transErr  *TransportError
		resErr    *ResolutionError
	)
	switch {
	case errors.As(err, &resErr):
		return "ResolutionError"
	case errors.As(err, &transErr):
		return "TransportError"
	case errors.As(err, &closedErr):
		return "ConnectionClosedError"
	case errors.As(err, &connErr):
		return "ConnectionError"
	default:
		return "Error"
	}
}
