/*
Package ports defines the driven ports (interfaces) of the tendril client.

These interfaces decouple the session and resolver from concrete wire formats
and storage backends, so the same lazy reference machinery runs over HTTP,
WebSocket, a Unix socket or an in-process engine.

# Key Interfaces

  - Transport: client side of the wire; handshake, one round trip per chain, teardown.
  - Executor: engine side of the wire; used by in-process engines and test fakes.
  - ResultCache: optional memoisation of resolved values.
*/
package ports
