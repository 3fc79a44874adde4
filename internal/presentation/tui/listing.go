package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// Printer writes command output, colouring it when w is a terminal.
type Printer struct {
	out *termenv.Output
}

// NewPrinter detects the colour profile of w. Non-terminal writers get
// plain text.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{out: termenv.NewOutput(w)}
}

// Entries prints one entry per line. Directories (trailing slash) are
// bold blue.
func (p *Printer) Entries(entries []string) {
	for _, e := range entries {
		if strings.HasSuffix(e, "/") {
			fmt.Fprintln(p.out, p.out.String(e).Foreground(p.out.Color("#818cf8")).Bold())
			continue
		}
		fmt.Fprintln(p.out, e)
	}
}

// Text prints s, adding a final newline when missing.
func (p *Printer) Text(s string) {
	fmt.Fprint(p.out, s)
	if !strings.HasSuffix(s, "\n") {
		fmt.Fprintln(p.out)
	}
}

// Error prints "error (<kind>): <message>" in red.
func (p *Printer) Error(kind, message string) {
	prefix := p.out.String(fmt.Sprintf("error (%s):", kind)).Foreground(p.out.Color("#fb7185"))
	fmt.Fprintf(p.out, "%s %s\n", prefix, message)
}
