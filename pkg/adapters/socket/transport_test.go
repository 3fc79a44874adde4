package socket_test

import (
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/tendril/internal/codec"
	"github.com/aretw0/tendril/pkg/adapters/socket"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/enginetest"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportContract(t *testing.T) {
	enginetest.RunTransportContract(t, func(t *testing.T, e *enginetest.Engine) ports.Transport {
		return socket.NewTransport(e.ServeSocket(t))
	})
}

func TestTransport_Endpoint(t *testing.T) {
	assert.Equal(t, "unix:///run/engine.sock", socket.NewTransport("unix:///run/engine.sock").Endpoint())
	assert.Equal(t, "unix:///run/engine.sock", socket.NewTransport("/run/engine.sock").Endpoint())
}

func TestTransport_NoListener(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.sock")
	_, err := socket.NewTransport(path).Open(context.Background(), domain.Handshake{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting to")
}

func TestServer_UnknownAction(t *testing.T) {
	e := enginetest.New()
	endpoint := e.ServeSocket(t)

	conn, err := net.Dial("unix", strings.TrimPrefix(endpoint, "unix://"))
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, codec.NewEncoder(conn).Encode(map[string]any{"action": "explode"}))

	var reply struct {
		OK    bool   `cbor:"ok"`
		Error string `cbor:"error"`
	}
	require.NoError(t, codec.NewDecoder(conn).Decode(&reply))
	assert.False(t, reply.OK)
	assert.Contains(t, reply.Error, `unknown action "explode"`)
}

func TestTransport_ReplyError(t *testing.T) {
	e := enginetest.New(enginetest.WithRejectHandshake(assert.AnError))
	tr := socket.NewTransport(e.ServeSocket(t))

	_, err := tr.Open(context.Background(), domain.Handshake{})
	var replyErr *socket.ReplyError
	require.ErrorAs(t, err, &replyErr)
	assert.Equal(t, "open", replyErr.Action)
	assert.NotErrorIs(t, err, domain.ErrUnauthorized)
}
