package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Server exposes a ports.Executor over WebSocket sessions.
type Server struct {
	Executor ports.Executor
	Logger   *slog.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the logger for connection failures.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler returns an http.Handler that upgrades to WebSocket and
// serves one session per connection.
func NewHandler(executor ports.Executor, opts ...ServerOption) http.Handler {
	s := &Server{
		Executor: executor,
		Logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServeHTTP handles one WebSocket session from handshake to close.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.Logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	var hello frame
	if err := wsjson.Read(ctx, conn, &hello); err != nil {
		s.Logger.Debug("reading hello failed", "error", err)
		return
	}
	if hello.Type != frameHello || hello.Hello == nil {
		conn.Close(websocket.StatusProtocolError, "expected hello")
		return
	}

	handshake := *hello.Hello
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		handshake.Credentials = strings.TrimSpace(token)
	}

	welcome, err := s.Executor.Open(ctx, handshake)
	if err != nil {
		reply := frame{Type: frameError, Error: err.Error()}
		if errors.Is(err, domain.ErrUnauthorized) {
			reply.Code = codeUnauthorized
		}
		_ = wsjson.Write(ctx, conn, reply)
		conn.Close(websocket.StatusPolicyViolation, "handshake rejected")
		return
	}
	defer func() {
		if err := s.Executor.Release(context.WithoutCancel(ctx), welcome.SessionID); err != nil {
			s.Logger.Debug("releasing session failed", "session", welcome.SessionID, "error", err)
		}
	}()

	if err := wsjson.Write(ctx, conn, frame{Type: frameWelcome, Welcome: &welcome}); err != nil {
		s.Logger.Debug("writing welcome failed", "error", err)
		return
	}

	// In-flight executions are cancelled when the connection ends.
	ctx, cancel := context.WithCancel(ctx)
	var inflight sync.WaitGroup
	defer inflight.Wait()
	defer cancel()

	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				s.Logger.Debug("websocket read ended", "session", welcome.SessionID, "error", err)
			}
			return
		}
		if f.Type != frameRequest || f.Request == nil {
			continue
		}

		req := f.Request
		req.Session = welcome.SessionID

		inflight.Add(1)
		go func() {
			defer inflight.Done()
			resp := s.Executor.Execute(ctx, req)
			if err := wsjson.Write(ctx, conn, frame{Type: frameResponse, Response: resp}); err != nil {
				s.Logger.Debug("writing response failed", "request", req.ID, "error", err)
			}
		}()
	}
}
