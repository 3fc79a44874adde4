package socket

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/tendril/internal/codec"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

var _ ports.Transport = (*Transport)(nil)

// dialTimeout covers only the connect phase of each exchange.
const dialTimeout = 5 * time.Second

// ReplyError is returned when the engine answers with ok=false.
type ReplyError struct {
	Action  string
	Code    string
	Message string
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("socket %s failed: %s", e.Action, e.Message)
}

// Transport implements ports.Transport over a Unix socket. Every call
// opens its own connection, so concurrent round trips never interleave.
type Transport struct {
	socketPath string

	mu        sync.RWMutex
	sessionID string
}

// NewTransport creates a transport for the socket at path. A "unix://"
// prefix is accepted and stripped.
func NewTransport(path string) *Transport {
	return &Transport{socketPath: strings.TrimPrefix(path, "unix://")}
}

// Endpoint implements ports.Transport.
func (t *Transport) Endpoint() string {
	return "unix://" + t.socketPath
}

// Open sends the handshake.
func (t *Transport) Open(ctx context.Context, hello domain.Handshake) (domain.Welcome, error) {
	var welcome domain.Welcome
	if err := t.call(ctx, actionOpen, hello, &welcome); err != nil {
		if re, ok := err.(*ReplyError); ok && re.Code == codeUnauthorized {
			return domain.Welcome{}, fmt.Errorf("%w: %s", domain.ErrUnauthorized, re.Message)
		}
		return domain.Welcome{}, err
	}

	t.mu.Lock()
	t.sessionID = welcome.SessionID
	t.mu.Unlock()
	return welcome, nil
}

// RoundTrip sends one request on a fresh connection.
func (t *Transport) RoundTrip(ctx context.Context, req *domain.Request) (*domain.Response, error) {
	var resp domain.Response
	if err := t.call(ctx, actionQuery, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Close releases the engine-side session.
func (t *Transport) Close(ctx context.Context) error {
	t.mu.Lock()
	id := t.sessionID
	t.sessionID = ""
	t.mu.Unlock()

	if id == "" {
		return nil
	}
	return t.call(ctx, actionClose, closeRequest{Session: id}, nil)
}

// call connects, writes the envelope, reads the reply and closes the
// connection. Cancelling ctx closes the connection, unblocking the read.
func (t *Transport) call(ctx context.Context, action string, payload, result any) error {
	body, err := codec.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", action, err)
	}

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", t.socketPath)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", t.socketPath, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if err := codec.NewEncoder(conn).Encode(envelope{Action: action, Payload: body}); err != nil {
		return t.wrap(ctx, action, "writing request", err)
	}
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	var r reply
	if err := codec.NewDecoder(io.LimitReader(conn, maxMessageSize)).Decode(&r); err != nil {
		return t.wrap(ctx, action, "reading response", err)
	}
	if !r.OK {
		return &ReplyError{Action: action, Code: r.Code, Message: r.Error}
	}

	if result != nil && len(r.Data) > 0 {
		if err := codec.Unmarshal(r.Data, result); err != nil {
			return fmt.Errorf("decoding %s response: %w", action, err)
		}
	}
	return nil
}

func (t *Transport) wrap(ctx context.Context, action, step string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s %s: %w", step, action, ctxErr)
	}
	return fmt.Errorf("%s %s: %w", step, action, err)
}
