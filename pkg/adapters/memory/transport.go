package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

// Endpoint is the pseudo-endpoint reported by in-process transports.
const Endpoint = "memory://"

// ErrNotOpen is returned by RoundTrip before a successful Open.
var ErrNotOpen = errors.New("memory transport: not open")

// Transport implements ports.Transport by calling an Executor in the same
// process. It counts every call so tests can assert exactly how much
// traffic reached the engine.
// Safe for concurrent use.
type Transport struct {
	executor ports.Executor

	mu        sync.Mutex
	sessionID string
	open      bool

	opens      atomic.Int64
	roundTrips atomic.Int64
	closes     atomic.Int64
}

// NewTransport creates a transport bound to executor.
func NewTransport(executor ports.Executor) *Transport {
	return &Transport{executor: executor}
}

// Endpoint implements ports.Transport.
func (t *Transport) Endpoint() string {
	return Endpoint
}

// Open performs the handshake against the executor.
func (t *Transport) Open(ctx context.Context, hello domain.Handshake) (domain.Welcome, error) {
	t.opens.Add(1)
	if err := ctx.Err(); err != nil {
		return domain.Welcome{}, err
	}

	welcome, err := t.executor.Open(ctx, hello)
	if err != nil {
		return domain.Welcome{}, err
	}

	t.mu.Lock()
	t.sessionID = welcome.SessionID
	t.open = true
	t.mu.Unlock()
	return welcome, nil
}

// RoundTrip hands the request to the executor. Cancelling ctx returns
// immediately; the executor may still finish the work it started.
func (t *Transport) RoundTrip(ctx context.Context, req *domain.Request) (*domain.Response, error) {
	t.roundTrips.Add(1)

	t.mu.Lock()
	open := t.open
	t.mu.Unlock()
	if !open {
		return nil, ErrNotOpen
	}

	done := make(chan *domain.Response, 1)
	go func() {
		done <- t.executor.Execute(ctx, req)
	}()

	select {
	case resp := <-done:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close releases the engine-side session. Calling it more than once is harmless.
func (t *Transport) Close(ctx context.Context) error {
	t.closes.Add(1)

	t.mu.Lock()
	id, open := t.sessionID, t.open
	t.open = false
	t.mu.Unlock()

	if !open {
		return nil
	}
	return t.executor.Release(ctx, id)
}

// Opens returns how many handshakes were attempted.
func (t *Transport) Opens() int64 { return t.opens.Load() }

// RoundTrips returns how many requests were attempted.
func (t *Transport) RoundTrips() int64 { return t.roundTrips.Load() }

// Closes returns how many times Close was called.
func (t *Transport) Closes() int64 { return t.closes.Load() }
