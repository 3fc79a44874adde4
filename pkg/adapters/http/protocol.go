// Package http carries sessions and chains over plain HTTP with JSON bodies.
//
// The protocol has three routes:
//
//	POST   /session       Handshake -> Welcome (Authorization: Bearer <credentials>)
//	POST   /query         Request   -> Response (X-Tendril-Session header)
//	DELETE /session/{id}  releases the engine-side session
//
// A 2xx status means the exchange succeeded; engine faults travel inside the
// Response body. Any other status is a transport failure.
package http

const (
	PathSession = "/session"
	PathQuery   = "/query"
	PathHealth  = "/health"

	// HeaderSession carries the session id on query requests.
	HeaderSession = "X-Tendril-Session"

	contentTypeJSON = "application/json"
)
