package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/tendril/pkg/domain"
)

// Overlay marks resolution state on the diagram.
type Overlay struct {
	// FailedStep is the index of the operation the engine reported a
	// fault for, or -1.
	FailedStep int
}

// GenerateMermaid renders a chain as a left-to-right Mermaid flowchart.
// Shapes:
// - Root selection: ((Circle))
// - Terminal operation (last step): [[Subroutine]]
// - Anything else: [Rectangle]
func GenerateMermaid(chain domain.Chain, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for i, op := range chain {
		opener, closer := "[", "]"
		switch {
		case i == 0:
			opener, closer = "((", "))"
		case i == len(chain)-1:
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", stepID(i, op), opener, label(op), closer)
		if i > 0 {
			fmt.Fprintf(&sb, "    %s --> %s\n", stepID(i-1, chain[i-1]), stepID(i, op))
		}
	}

	if overlay != nil && overlay.FailedStep >= 0 && overlay.FailedStep < len(chain) {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:3px,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s failed;\n", stepID(overlay.FailedStep, chain[overlay.FailedStep]))
	}

	return sb.String()
}

func label(op domain.Operation) string {
	if len(op.Args) == 0 {
		return op.Name
	}
	parts := make([]string, len(op.Args))
	for i, a := range op.Args {
		parts[i] = fmt.Sprintf("%s: %v", a.Name, a.Value)
	}
	// Mermaid labels cannot contain double quotes.
	return strings.ReplaceAll(op.Name+" <br/> "+strings.Join(parts, ", "), "\"", "'")
}

func stepID(i int, op domain.Operation) string {
	return fmt.Sprintf("s%d_%s", i, sanitizeMermaidID(op.Name))
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
