/*
Package domain contains the core data model shared by every tendril package.

It defines how a pending remote computation is described (Operation, Arg, Chain),
the envelopes exchanged with the engine (Handshake, Welcome, Request, Response),
the error taxonomy surfaced to callers and the lifecycle hooks used for
observability. The package is pure: no I/O, no transport knowledge.

# Key Entities

  - Operation: one step of a call chain, a name plus ordered arguments.
  - Chain: the full ordered list of operations a reference stands for.
  - Request / Response: a single round trip carrying a whole Chain.
  - ConnectionError, ConnectionClosedError, TransportError, ResolutionError: the
    four ways talking to an engine can fail.
*/
package domain
