package enginetest

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	httpadapter "github.com/aretw0/tendril/pkg/adapters/http"
	"github.com/aretw0/tendril/pkg/adapters/socket"
	"github.com/aretw0/tendril/pkg/adapters/ws"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// Handler serves the HTTP protocol and, under ws.Path, the WebSocket
// protocol for e.
func (e *Engine) Handler() http.Handler {
	r := chi.NewRouter()
	r.Handle(ws.Path, ws.NewHandler(e))
	r.Mount("/", httpadapter.NewHandler(e))
	return r
}

// ServeSocket starts a socket server for e in a temporary directory and
// returns its "unix://" endpoint. The server stops when the test ends.
func (e *Engine) ServeSocket(t testing.TB) string {
	t.Helper()

	// Unix socket paths are length-limited; t.TempDir can be long on macOS.
	path := filepath.Join(t.TempDir(), "engine.sock")
	server := socket.NewServer(path, e, nil)
	listener, err := server.Listen()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		server.Serve(ctx, listener)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return "unix://" + path
}
