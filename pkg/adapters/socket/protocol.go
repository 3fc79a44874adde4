// Package socket carries sessions over a Unix socket using CBOR.
//
// Each connection handles exactly one request-response cycle: the client
// writes an envelope naming an action ("open", "query" or "close"), the
// engine writes a reply and the connection closes. CBOR is self-delimiting,
// so no extra framing is needed. A reply with ok=false is a transport-level
// failure; engine faults are carried inside a successful "query" reply.
package socket

import "github.com/aretw0/tendril/internal/codec"

const (
	actionOpen  = "open"
	actionQuery = "query"
	actionClose = "close"
)

// codeUnauthorized marks a failed "open" caused by rejected credentials.
const codeUnauthorized = "unauthorized"

// maxMessageSize caps a single envelope or reply in either direction.
const maxMessageSize = 1024 * 1024

type envelope struct {
	Action  string           `cbor:"action"`
	Payload codec.RawMessage `cbor:"payload,omitempty"`
}

type reply struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Code  string           `cbor:"code,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

type closeRequest struct {
	Session string `cbor:"session"`
}
