package enginetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/google/uuid"
)

var _ ports.Executor = (*Engine)(nil)

// DefaultName is reported in every Welcome unless WithName overrides it.
const DefaultName = "enginetest"

// ErrUnknownSession is returned by Release for ids the engine never issued.
var ErrUnknownSession = errors.New("unknown session")

// Backend answers chains that have no fixture.
type Backend interface {
	Execute(ctx context.Context, chain domain.Chain) (any, error)
}

// StepError reports a failure at a specific operation index. Backends
// return it so the fault carries the step.
type StepError struct {
	Step int
	Err  error
}

func (e *StepError) Error() string { return e.Err.Error() }

func (e *StepError) Unwrap() error { return e.Err }

// Engine is a fake engine implementing ports.Executor. Safe for concurrent use.
type Engine struct {
	name        string
	credentials string
	rejectErr   error
	backend     Backend
	delay       time.Duration

	mu       sync.Mutex
	fixtures map[string]*Fixture
	sessions map[string]domain.Handshake
	requests []domain.Request

	opens    atomic.Int64
	executes atomic.Int64
	releases atomic.Int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithCredentials makes Open reject handshakes whose credentials differ.
func WithCredentials(credentials string) Option {
	return func(e *Engine) {
		e.credentials = credentials
	}
}

// WithName sets the engine identifier reported in Welcome.
func WithName(name string) Option {
	return func(e *Engine) {
		e.name = name
	}
}

// WithRejectHandshake makes every Open fail with err.
func WithRejectHandshake(err error) Option {
	return func(e *Engine) {
		e.rejectErr = err
	}
}

// WithBackend answers chains that have no fixture.
func WithBackend(backend Backend) Option {
	return func(e *Engine) {
		e.backend = backend
	}
}

// WithDelay makes every Execute wait d, or until its context is done.
func WithDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.delay = d
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		name:     DefaultName,
		fixtures: make(map[string]*Fixture),
		sessions: make(map[string]domain.Handshake),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fixture is a canned answer for one chain.
type Fixture struct {
	mu    sync.Mutex
	value any
	fault *domain.Fault
	hits  atomic.Int64
}

// On registers (or replaces) the fixture for chain.
func (e *Engine) On(chain domain.Chain) *Fixture {
	f := &Fixture{}
	e.mu.Lock()
	e.fixtures[chain.Key()] = f
	e.mu.Unlock()
	return f
}

// Return makes the fixture answer with v.
func (f *Fixture) Return(v any) *Fixture {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = v
	f.fault = nil
	return f
}

// Fail makes the fixture answer with an engine fault on the last step.
func (f *Fixture) Fail(message string) *Fixture {
	return f.FailAt(-1, message)
}

// FailAt makes the fixture answer with an engine fault at step.
func (f *Fixture) FailAt(step int, message string) *Fixture {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fault = &domain.Fault{Message: message, Step: step}
	f.value = nil
	return f
}

func (f *Fixture) answer() (any, *domain.Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fault != nil {
		fault := *f.fault
		return nil, &fault
	}
	return f.value, nil
}

// Hits returns how many requests the fixture answered.
func (f *Fixture) Hits() int64 { return f.hits.Load() }

// Open implements ports.Executor.
func (e *Engine) Open(ctx context.Context, hello domain.Handshake) (domain.Welcome, error) {
	e.opens.Add(1)
	if err := ctx.Err(); err != nil {
		return domain.Welcome{}, err
	}
	if e.rejectErr != nil {
		return domain.Welcome{}, e.rejectErr
	}
	if e.credentials != "" && hello.Credentials != e.credentials {
		return domain.Welcome{}, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}

	id := uuid.NewString()
	e.mu.Lock()
	e.sessions[id] = hello
	e.mu.Unlock()
	return domain.Welcome{SessionID: id, Engine: e.name}, nil
}

// Execute implements ports.Executor.
func (e *Engine) Execute(ctx context.Context, req *domain.Request) *domain.Response {
	e.executes.Add(1)

	e.mu.Lock()
	_, known := e.sessions[req.Session]
	e.requests = append(e.requests, domain.Request{ID: req.ID, Session: req.Session, Chain: req.Chain.Clone()})
	fixture := e.fixtures[req.Chain.Key()]
	e.mu.Unlock()

	resp := &domain.Response{ID: req.ID}
	if !known {
		resp.Errors = []domain.Fault{{Message: fmt.Sprintf("unknown session %q", req.Session), Step: -1}}
		return resp
	}

	if e.delay > 0 {
		timer := time.NewTimer(e.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			resp.Errors = []domain.Fault{{Message: ctx.Err().Error(), Step: -1}}
			return resp
		}
	}

	switch {
	case fixture != nil:
		fixture.hits.Add(1)
		value, fault := fixture.answer()
		if fault != nil {
			if fault.Step < 0 {
				fault.Step = len(req.Chain) - 1
			}
			resp.Errors = []domain.Fault{*fault}
			return resp
		}
		resp.Data = value
	case e.backend != nil:
		value, err := e.backend.Execute(ctx, req.Chain)
		if err != nil {
			step := -1
			var stepErr *StepError
			if errors.As(err, &stepErr) {
				step = stepErr.Step
			}
			resp.Errors = []domain.Fault{{Message: err.Error(), Step: step}}
			return resp
		}
		resp.Data = value
	default:
		resp.Errors = []domain.Fault{{Message: fmt.Sprintf("no fixture for %s", req.Chain), Step: -1}}
	}
	return resp
}

// Release implements ports.Executor.
func (e *Engine) Release(ctx context.Context, sessionID string) error {
	e.releases.Add(1)
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.sessions[sessionID]; !ok {
		return fmt.Errorf("%w %q", ErrUnknownSession, sessionID)
	}
	delete(e.sessions, sessionID)
	return nil
}

// Transport returns a new in-process transport bound to e.
func (e *Engine) Transport() *memory.Transport {
	return memory.NewTransport(e)
}

// Opens returns how many handshakes were attempted.
func (e *Engine) Opens() int64 { return e.opens.Load() }

// Executes returns how many requests reached the engine.
func (e *Engine) Executes() int64 { return e.executes.Load() }

// Releases returns how many release calls were made.
func (e *Engine) Releases() int64 { return e.releases.Load() }

// Sessions returns how many sessions are currently open.
func (e *Engine) Sessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

// Handshake returns the handshake that opened sessionID.
func (e *Engine) Handshake(sessionID string) (domain.Handshake, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, ok := e.sessions[sessionID]
	return h, ok
}

// Requests returns a copy of every request received, in arrival order.
func (e *Engine) Requests() []domain.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.Request(nil), e.requests...)
}
