// Package transport picks a ports.Transport implementation from an
// endpoint URL scheme.
package transport

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	httpadapter "github.com/aretw0/tendril/pkg/adapters/http"
	"github.com/aretw0/tendril/pkg/adapters/socket"
	"github.com/aretw0/tendril/pkg/adapters/ws"
	"github.com/aretw0/tendril/pkg/ports"
)

// ErrUnsupportedScheme is wrapped when no adapter handles the endpoint.
var ErrUnsupportedScheme = errors.New("unsupported endpoint scheme")

// New returns the transport for endpoint:
//
//	http://, https://  JSON over HTTP
//	ws://, wss://      multiplexed WebSocket
//	unix://<path>      CBOR over a Unix socket
func New(endpoint string) (ports.Transport, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("empty endpoint")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return httpadapter.NewTransport(endpoint), nil
	case "ws", "wss":
		return ws.NewTransport(endpoint), nil
	case "unix":
		path := u.Path
		if u.Host != "" {
			// unix://relative/path.sock
			path = u.Host + u.Path
		}
		if path == "" {
			return nil, fmt.Errorf("unix endpoint %q has no socket path", endpoint)
		}
		return socket.NewTransport(path), nil
	default:
		return nil, fmt.Errorf("%w %q in %q", ErrUnsupportedScheme, u.Scheme, endpoint)
	}
}
