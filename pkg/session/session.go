package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/google/uuid"
)

// DefaultClientName is sent in the handshake unless WithClientName overrides it.
const DefaultClientName = "tendril-go"

// Session is one live connection to an engine. It owns its transport
// exclusively and is safe for concurrent use.
type Session struct {
	transport ports.Transport

	id     string
	engine string

	mu    sync.RWMutex
	state domain.SessionState

	requests atomic.Uint64

	closeOnce sync.Once
	closeErr  error

	credentials    string
	clientName     string
	timeout        time.Duration
	resolveTimeout time.Duration
	logger         *slog.Logger
	hooks          domain.LifecycleHooks
}

// Connect performs the handshake over transport and returns a Ready
// session. On failure the transport is closed, no Session is returned and
// the error is a *domain.ConnectionError.
func Connect(ctx context.Context, transport ports.Transport, opts ...Option) (*Session, error) {
	s := &Session{
		transport:  transport,
		state:      domain.StateConnecting,
		clientName: DefaultClientName,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	openCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		openCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	welcome, err := transport.Open(openCtx, domain.Handshake{
		Credentials: s.credentials,
		Client:      s.clientName,
	})
	if err == nil && openCtx.Err() != nil {
		// The transport answered after our deadline; treat it as not ready.
		err = openCtx.Err()
	}
	if err != nil {
		if closeErr := transport.Close(context.WithoutCancel(ctx)); closeErr != nil {
			s.logger.Debug("closing transport after failed handshake", "endpoint", transport.Endpoint(), "error", closeErr)
		}
		connErr := &domain.ConnectionError{Endpoint: transport.Endpoint(), Err: err}
		s.emit(ctx, s.hooks.OnConnect, domain.EventConnect, connErr)
		return nil, connErr
	}

	s.id = welcome.SessionID
	if s.id == "" {
		s.id = uuid.NewString()
	}
	s.engine = welcome.Engine
	s.logger = s.logger.With("session", s.id)

	s.mu.Lock()
	s.state = domain.StateReady
	s.mu.Unlock()

	s.logger.Info("session ready", "endpoint", transport.Endpoint(), "engine", s.engine)
	s.emit(ctx, s.hooks.OnConnect, domain.EventConnect, nil)
	return s, nil
}

// Use connects, runs fn and closes the session on every exit path,
// including panics inside fn and cancellation of ctx. A Close failure is
// reported only when fn itself succeeded.
func Use(ctx context.Context, transport ports.Transport, fn func(context.Context, *Session) error, opts ...Option) (err error) {
	s, err := Connect(ctx, transport, opts...)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := s.teardownContext(ctx)
		defer cancel()
		if closeErr := s.Close(closeCtx); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(ctx, s)
}

// teardownContext keeps ctx's values but not its cancellation, bounded by
// the connect timeout.
func (s *Session) teardownContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// ID returns the engine-assigned session id.
func (s *Session) ID() string {
	return s.id
}

// Engine returns the engine identifier reported in the handshake.
func (s *Session) Engine() string {
	return s.engine
}

// Endpoint returns the transport's endpoint.
func (s *Session) Endpoint() string {
	return s.transport.Endpoint()
}

// State returns the current lifecycle state.
func (s *Session) State() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Requests returns how many round trips have been issued on this session.
func (s *Session) Requests() uint64 {
	return s.requests.Load()
}

// Logger returns the session's logger, annotated with the session id.
func (s *Session) Logger() *slog.Logger {
	return s.logger
}

// RoundTrip sends chain to the engine as a single request. It fails with
// *domain.ConnectionClosedError without contacting the transport when the
// session is not Ready, and with *domain.TransportError when the exchange
// itself fails. Engine faults are returned inside the Response.
func (s *Session) RoundTrip(ctx context.Context, chain domain.Chain) (*domain.Response, error) {
	if state := s.State(); state != domain.StateReady {
		return nil, &domain.ConnectionClosedError{Session: s.id, State: state}
	}

	if s.resolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.resolveTimeout)
		defer cancel()
	}

	req := &domain.Request{
		ID:      s.requests.Add(1),
		Session: s.id,
		Chain:   chain,
	}

	resp, err := s.transport.RoundTrip(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = errors.Join(ctxErr, err)
		}
		return nil, &domain.TransportError{Chain: chain, Err: err}
	}
	if resp == nil {
		return nil, &domain.TransportError{Chain: chain, Err: errors.New("empty response")}
	}
	return resp, nil
}

// Close releases the transport and the engine-side session. Only the
// first call does any work; later calls return nil.
func (s *Session) Close(ctx context.Context) error {
	first := false
	s.closeOnce.Do(func() {
		first = true

		s.mu.Lock()
		s.state = domain.StateClosed
		s.mu.Unlock()

		s.closeErr = s.transport.Close(ctx)
		if s.closeErr != nil {
			s.logger.Warn("session closed with error", "error", s.closeErr)
		} else {
			s.logger.Info("session closed", "requests", s.requests.Load())
		}
		s.emit(ctx, s.hooks.OnClose, domain.EventClose, s.closeErr)
	})
	if !first {
		return nil
	}
	return s.closeErr
}

func (s *Session) emit(ctx context.Context, hook func(context.Context, *domain.SessionEvent), typ domain.EventType, err error) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.SessionEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      typ,
			SessionID: s.id,
		},
		Endpoint: s.transport.Endpoint(),
		Err:      err,
	})
}
