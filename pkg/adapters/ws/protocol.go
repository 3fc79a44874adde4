// Package ws carries a session over a single WebSocket connection.
//
// The client sends a hello frame, the engine answers with welcome (or error),
// and from then on request and response frames flow in both directions with
// no ordering guarantee: responses are matched to requests by Request.ID, so
// any number of resolutions can be in flight at once. Closing the connection
// releases the engine-side session.
package ws

import "github.com/aretw0/tendril/pkg/domain"

// Path is the route the engine serves WebSocket sessions on.
const Path = "/ws"

const (
	frameHello    = "hello"
	frameWelcome  = "welcome"
	frameRequest  = "request"
	frameResponse = "response"
	frameError    = "error"
)

// codeUnauthorized marks an error frame caused by rejected credentials.
const codeUnauthorized = "unauthorized"

type frame struct {
	Type     string            `json:"type"`
	Hello    *domain.Handshake `json:"hello,omitempty"`
	Welcome  *domain.Welcome   `json:"welcome,omitempty"`
	Request  *domain.Request   `json:"request,omitempty"`
	Response *domain.Response  `json:"response,omitempty"`
	Error    string            `json:"error,omitempty"`
	Code     string            `json:"code,omitempty"`
}
