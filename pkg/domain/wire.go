package domain

// Handshake is the first message a client sends when opening a session.
type Handshake struct {
	// Credentials is optional auth material, passed through to the engine verbatim.
	Credentials string `json:"credentials,omitempty"`
	// Client identifies the client library and version.
	Client string `json:"client,omitempty"`
}

// Welcome is the engine's answer to a successful Handshake.
type Welcome struct {
	SessionID string `json:"session_id"`
	Engine    string `json:"engine,omitempty"`
}

// Request carries one complete chain to the engine. One Request is one
// round trip, regardless of how many operations the chain holds.
type Request struct {
	ID      uint64 `json:"id"`
	Session string `json:"session"`
	Chain   Chain  `json:"chain"`
}

// Fault is an engine-reported failure while executing a chain.
type Fault struct {
	Message string `json:"message"`
	// Step is the index of the operation that failed, or -1 when unknown.
	Step int `json:"step"`
}

// Response is the engine's answer to a Request. A non-empty Errors slice
// means the engine received and executed the request but reported a
// semantic fault; transport failures are never encoded here.
type Response struct {
	ID     uint64  `json:"id"`
	Data   any     `json:"data,omitempty"`
	Errors []Fault `json:"errors,omitempty"`
}
