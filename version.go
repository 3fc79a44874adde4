package tendril

import _ "embed"

// Version is the library version, sent to engines in the handshake.
//
//go:embed VERSION
var Version string
