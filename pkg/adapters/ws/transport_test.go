package ws_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/tendril/pkg/adapters/ws"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/enginetest"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, e *enginetest.Engine) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(e.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestTransportContract(t *testing.T) {
	enginetest.RunTransportContract(t, func(t *testing.T, e *enginetest.Engine) ports.Transport {
		return ws.NewTransport(serve(t, e).URL)
	})
}

func TestNewTransport_URL(t *testing.T) {
	assert.Equal(t, "ws://engine:8080/ws", ws.NewTransport("http://engine:8080").Endpoint())
	assert.Equal(t, "wss://engine/ws", ws.NewTransport("https://engine/").Endpoint())
	assert.Equal(t, "ws://engine/ws", ws.NewTransport("ws://engine/ws").Endpoint())
}

func TestTransport_CancelReleasesPending(t *testing.T) {
	e := enginetest.New(enginetest.WithDelay(time.Second))
	e.On(enginetest.EntriesChain).Return([]string{})
	tr := ws.NewTransport(serve(t, e).URL)

	welcome, err := tr.Open(context.Background(), domain.Handshake{})
	require.NoError(t, err)
	defer tr.Close(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := tr.RoundTrip(ctx, &domain.Request{ID: 1, Session: welcome.SessionID, Chain: enginetest.EntriesChain})
		done <- err
	}()

	require.Eventually(t, func() bool { return tr.Pending() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Zero(t, tr.Pending())
}
