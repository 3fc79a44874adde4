package tendril

import "github.com/aretw0/tendril/pkg/domain"

type (
	ConnectionError       = domain.ConnectionError
	ConnectionClosedError = domain.ConnectionClosedError
	TransportError        = domain.TransportError
	ResolutionError       = domain.ResolutionError
)

// ErrClosed matches every ConnectionClosedError with errors.Is.
var ErrClosed = domain.ErrClosed

// KindOf names the error class of err ("ConnectionError", ...), or "Error".
func KindOf(err error) string {
	return domain.KindOf(err)
}
