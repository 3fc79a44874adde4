package ws

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

var _ ports.Transport = (*Transport)(nil)

// writeTimeout bounds a single frame write. Writes use their own context
// because cancelling a write context tears down the whole connection.
const writeTimeout = 10 * time.Second

// ErrConnectionLost is returned to every pending request when the
// connection drops.
var ErrConnectionLost = errors.New("websocket connection lost")

// Transport implements ports.Transport over one multiplexed WebSocket.
type Transport struct {
	url        string
	httpClient *http.Client

	conn *websocket.Conn

	mu      sync.Mutex
	pending map[uint64]chan *domain.Response
	readErr error

	readCtx    context.Context
	stopRead   context.CancelFunc
	readerDone chan struct{}
	closeOnce  sync.Once
}

// Option configures a Transport.
type Option func(*Transport)

// WithHTTPClient sets the client used for the upgrade handshake.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Transport) {
		t.httpClient = client
	}
}

// NewTransport creates a transport for an engine at url. http(s) URLs are
// converted to ws(s); the Path suffix is added when missing.
func NewTransport(url string, opts ...Option) *Transport {
	t := &Transport{
		url:        wsURL(url),
		pending:    make(map[uint64]chan *domain.Response),
		readerDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Endpoint implements ports.Transport.
func (t *Transport) Endpoint() string {
	return t.url
}

// Open dials, sends hello and waits for welcome. The reader goroutine is
// started only after a successful handshake.
func (t *Transport) Open(ctx context.Context, hello domain.Handshake) (domain.Welcome, error) {
	header := make(http.Header)
	if hello.Credentials != "" {
		header.Set("Authorization", "Bearer "+hello.Credentials)
	}
	hello.Credentials = ""

	conn, resp, err := websocket.Dial(ctx, t.url, &websocket.DialOptions{
		HTTPClient: t.httpClient,
		HTTPHeader: header,
	})
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return domain.Welcome{}, fmt.Errorf("%w: dial websocket: %v", domain.ErrUnauthorized, err)
		}
		return domain.Welcome{}, fmt.Errorf("dial websocket: %w", err)
	}

	if err := wsjson.Write(ctx, conn, frame{Type: frameHello, Hello: &hello}); err != nil {
		conn.CloseNow()
		return domain.Welcome{}, fmt.Errorf("send hello: %w", err)
	}

	var reply frame
	if err := wsjson.Read(ctx, conn, &reply); err != nil {
		conn.CloseNow()
		return domain.Welcome{}, fmt.Errorf("read welcome: %w", err)
	}
	switch {
	case reply.Type == frameError && reply.Code == codeUnauthorized:
		conn.CloseNow()
		return domain.Welcome{}, fmt.Errorf("%w: %s", domain.ErrUnauthorized, reply.Error)
	case reply.Type == frameError:
		conn.CloseNow()
		return domain.Welcome{}, errors.New(reply.Error)
	case reply.Type != frameWelcome || reply.Welcome == nil:
		conn.CloseNow()
		return domain.Welcome{}, fmt.Errorf("unexpected %q frame during handshake", reply.Type)
	}

	t.conn = conn
	t.readCtx, t.stopRead = context.WithCancel(context.Background())
	go t.readLoop()

	return *reply.Welcome, nil
}

// RoundTrip registers the request, writes it and waits for the matching
// response. Cancelling ctx drops the pending entry; a late response is
// discarded by the reader.
func (t *Transport) RoundTrip(ctx context.Context, req *domain.Request) (*domain.Response, error) {
	if t.conn == nil {
		return nil, errors.New("websocket transport: not open")
	}

	ch := make(chan *domain.Response, 1)
	t.mu.Lock()
	if t.readErr != nil {
		err := t.readErr
		t.mu.Unlock()
		return nil, err
	}
	t.pending[req.ID] = ch
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.pending, req.ID)
		t.mu.Unlock()
	}()

	writeCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	err := wsjson.Write(writeCtx, t.conn, frame{Type: frameRequest, Request: req})
	cancel()
	if err != nil {
		return nil, fmt.Errorf("send request %d: %w", req.ID, err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, t.failure()
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close sends a normal closure and stops the reader. Safe to call more
// than once and before Open.
func (t *Transport) Close(ctx context.Context) error {
	var err error
	t.closeOnce.Do(func() {
		if t.conn == nil {
			return
		}
		err = t.conn.Close(websocket.StatusNormalClosure, "session closed")
		t.stopRead()
		select {
		case <-t.readerDone:
		case <-ctx.Done():
		}
		if errors.Is(err, net.ErrClosed) || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
			err = nil
		}
	})
	return err
}

// Pending reports how many requests are waiting for a response.
func (t *Transport) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

func (t *Transport) readLoop() {
	defer close(t.readerDone)
	for {
		var f frame
		if err := wsjson.Read(t.readCtx, t.conn, &f); err != nil {
			t.fail(err)
			return
		}
		if f.Type != frameResponse || f.Response == nil {
			continue
		}

		t.mu.Lock()
		ch, ok := t.pending[f.Response.ID]
		if ok {
			delete(t.pending, f.Response.ID)
		}
		t.mu.Unlock()

		if ok {
			ch <- f.Response
		}
	}
}

// fail records the reader's terminal error and wakes every waiter.
func (t *Transport) fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readErr = fmt.Errorf("%w: %v", ErrConnectionLost, err)
	for id, ch := range t.pending {
		close(ch)
		delete(t.pending, id)
	}
}

func (t *Transport) failure() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.readErr != nil {
		return t.readErr
	}
	return ErrConnectionLost
}

func wsURL(u string) string {
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	u = strings.TrimRight(u, "/")
	if !strings.HasSuffix(u, Path) {
		u += Path
	}
	return u
}
