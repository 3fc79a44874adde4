package cli

import (
	"context"
	"errors"
	"io"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/presentation/tui"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitInterrupted = 130
)

// Report prints err to w as "error (<kind>): <message>" and returns the
// process exit code. Cancellation by a signal exits 130 without output.
func Report(w io.Writer, err error, sig bool) int {
	if err == nil {
		return ExitOK
	}
	if sig && errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}

	message := err.Error()
	var resErr *tendril.ResolutionError
	if errors.As(err, &resErr) {
		message = resErr.Message()
	}
	tui.NewPrinter(w).Error(tendril.KindOf(err), message)
	return ExitError
}
