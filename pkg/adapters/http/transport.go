package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

var _ ports.Transport = (*Transport)(nil)

// maxErrorBody caps how much of a failed response is quoted in errors.
const maxErrorBody = 4 << 10

// Transport implements ports.Transport over HTTP. Each RoundTrip is an
// independent POST, so concurrent resolutions never share a stream.
type Transport struct {
	baseURL string
	client  *http.Client

	mu          sync.RWMutex
	sessionID   string
	credentials string
}

// Option configures a Transport.
type Option func(*Transport)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Transport) {
		t.client = client
	}
}

// NewTransport creates a transport for an engine at baseURL
// (e.g. "http://127.0.0.1:8080").
func NewTransport(baseURL string, opts ...Option) *Transport {
	t := &Transport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Endpoint implements ports.Transport.
func (t *Transport) Endpoint() string {
	return t.baseURL
}

// Open posts the handshake and records the session id.
func (t *Transport) Open(ctx context.Context, hello domain.Handshake) (domain.Welcome, error) {
	credentials := hello.Credentials
	hello.Credentials = ""

	var welcome domain.Welcome
	status, err := t.do(ctx, http.MethodPost, PathSession, credentials, "", hello, &welcome)
	if err != nil {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return domain.Welcome{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
		}
		return domain.Welcome{}, err
	}

	t.mu.Lock()
	t.sessionID = welcome.SessionID
	t.credentials = credentials
	t.mu.Unlock()
	return welcome, nil
}

// RoundTrip posts one request and decodes the response.
func (t *Transport) RoundTrip(ctx context.Context, req *domain.Request) (*domain.Response, error) {
	t.mu.RLock()
	credentials := t.credentials
	t.mu.RUnlock()

	var resp domain.Response
	if _, err := t.do(ctx, http.MethodPost, PathQuery, credentials, req.Session, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Close deletes the engine-side session. A session the engine no longer
// knows about counts as released.
func (t *Transport) Close(ctx context.Context) error {
	t.mu.Lock()
	id, credentials := t.sessionID, t.credentials
	t.sessionID = ""
	t.mu.Unlock()

	defer t.client.CloseIdleConnections()
	if id == "" {
		return nil
	}

	status, err := t.do(ctx, http.MethodDelete, PathSession+"/"+id, credentials, id, nil, nil)
	if err != nil && status != http.StatusNotFound {
		return err
	}
	return nil
}

// do performs one JSON exchange. It returns the HTTP status (0 when no
// response arrived) alongside any error.
func (t *Transport) do(ctx context.Context, method, path, credentials, sessionID string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	req.Header.Set("Accept", contentTypeJSON)
	if credentials != "" {
		req.Header.Set("Authorization", "Bearer "+credentials)
	}
	if sessionID != "" {
		req.Header.Set(HeaderSession, sessionID)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}
