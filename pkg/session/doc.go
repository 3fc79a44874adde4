/*
Package session implements the connection manager: one live, exclusively owned
session to an engine.

A Session moves Connecting → Ready → Closed. Connect performs the handshake and
either returns a Ready session or a *domain.ConnectionError (and no session).
Close is idempotent and releases the transport together with any engine-side
state. Closed is absorbing: every later round trip fails with
*domain.ConnectionClosedError before the transport is touched.

Callers must guarantee Close on every exit path, either with defer or with Use:

	err := session.Use(ctx, transport, func(ctx context.Context, s *session.Session) error {
		// build and resolve references bound to s
		return nil
	})
*/
package session
