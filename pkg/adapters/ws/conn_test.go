package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// droppingEngine completes the handshake, then drops the connection as
// soon as the first request arrives.
func droppingEngine(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		var hello frame
		if err := wsjson.Read(ctx, conn, &hello); err != nil {
			return
		}
		if err := wsjson.Write(ctx, conn, frame{Type: frameWelcome, Welcome: &domain.Welcome{SessionID: "s-1"}}); err != nil {
			return
		}
		var req frame
		_ = wsjson.Read(ctx, conn, &req)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTransport_ConnectionLost(t *testing.T) {
	tr := NewTransport(droppingEngine(t).URL)
	welcome, err := tr.Open(context.Background(), domain.Handshake{})
	require.NoError(t, err)
	assert.Equal(t, "s-1", welcome.SessionID)
	defer tr.Close(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := tr.RoundTrip(context.Background(), &domain.Request{ID: 1, Session: "s-1"})
		done <- err
	}()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, ErrConnectionLost), "got %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("pending request was not failed after disconnect")
	}
	assert.Zero(t, tr.Pending())

	_, err = tr.RoundTrip(context.Background(), &domain.Request{ID: 2, Session: "s-1"})
	assert.ErrorIs(t, err, ErrConnectionLost)
}

func TestTransport_HandshakeErrorFrame(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		var hello frame
		if err := wsjson.Read(r.Context(), conn, &hello); err != nil {
			return
		}
		_ = wsjson.Write(r.Context(), conn, frame{Type: frameError, Error: "token expired", Code: codeUnauthorized})
	}))
	defer srv.Close()

	_, err := NewTransport(srv.URL).Open(context.Background(), domain.Handshake{Credentials: "old"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Contains(t, err.Error(), "token expired")
}
