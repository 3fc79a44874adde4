package socket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/aretw0/tendril/internal/codec"
	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

// readTimeout is how long the server waits for a client to send its
// envelope after connecting.
const readTimeout = 30 * time.Second

// writeTimeout bounds writing a reply.
const writeTimeout = 10 * time.Second

// Server exposes a ports.Executor on a Unix socket.
type Server struct {
	socketPath string
	executor   ports.Executor
	logger     *slog.Logger

	activeConnections sync.WaitGroup
}

// NewServer creates a server that will listen on socketPath. A nil logger
// discards output.
func NewServer(socketPath string, executor ports.Executor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		socketPath: socketPath,
		executor:   executor,
		logger:     logger,
	}
}

// Listen binds the socket, removing a stale socket file first. Use it with
// Serve when the caller needs to know the socket exists before dialing.
func (s *Server) Listen() (net.Listener, error) {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	return listener, nil
}

// Serve accepts connections until ctx is cancelled, then waits for
// in-flight requests. The socket file is removed on return.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("socket server listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	var env envelope
	if err := codec.NewDecoder(io.LimitReader(conn, maxMessageSize)).Decode(&env); err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		s.writeReply(conn, reply{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	var (
		result any
		err    error
	)
	switch env.Action {
	case actionOpen:
		var hello domain.Handshake
		if err = codec.Unmarshal(env.Payload, &hello); err == nil {
			result, err = s.executor.Open(ctx, hello)
		}
	case actionQuery:
		var req domain.Request
		if err = codec.Unmarshal(env.Payload, &req); err == nil {
			result = s.executor.Execute(ctx, &req)
		}
	case actionClose:
		var cr closeRequest
		if err = codec.Unmarshal(env.Payload, &cr); err == nil {
			err = s.executor.Release(ctx, cr.Session)
		}
	default:
		err = fmt.Errorf("unknown action %q", env.Action)
	}

	if err != nil {
		s.logger.Debug("action failed", "action", env.Action, "error", err)
		r := reply{Error: err.Error()}
		if errors.Is(err, domain.ErrUnauthorized) {
			r.Code = codeUnauthorized
		}
		s.writeReply(conn, r)
		return
	}

	r := reply{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.writeReply(conn, reply{Error: fmt.Sprintf("internal: marshaling response: %v", err)})
			return
		}
		r.Data = data
	}
	s.writeReply(conn, r)
}

func (s *Server) writeReply(conn net.Conn, r reply) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(r); err != nil {
		s.logger.Debug("failed to write reply", "error", err)
	}
}
