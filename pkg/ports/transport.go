package ports

import (
	"context"

	"github.com/aretw0/tendril/pkg/domain"
)

// Transport is the client side of the wire to an engine. One Transport
// backs exactly one Session.
//
// Implementations must allow RoundTrip to be called from many goroutines
// at once, either by using one exchange per call or by multiplexing on
// Request.ID. An engine-reported fault is a successful RoundTrip whose
// Response carries Errors; a returned error always means the exchange
// itself failed.
type Transport interface {
	// Endpoint describes where the engine is reachable, for messages and logs.
	Endpoint() string

	// Open performs the handshake. Errors returned here are connection
	// failures: unreachable engine, rejected credentials, deadline.
	Open(ctx context.Context, hello domain.Handshake) (domain.Welcome, error)

	// RoundTrip sends one request and waits for its response.
	RoundTrip(ctx context.Context, req *domain.Request) (*domain.Response, error)

	// Close releases the connection and any engine-side session state.
	Close(ctx context.Context) error
}

// Executor is the engine side of the wire: something that can accept
// sessions and execute whole chains. Fakes and in-process engines
// implement it; the memory transport and the engine adapters call it.
type Executor interface {
	Open(ctx context.Context, hello domain.Handshake) (domain.Welcome, error)
	Execute(ctx context.Context, req *domain.Request) *domain.Response
	Release(ctx context.Context, sessionID string) error
}
