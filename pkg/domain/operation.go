package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Arg is a single named argument of an Operation. Arguments keep the
// order in which they were supplied so that two chains built the same
// way serialise identically.
type Arg struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Operation is one step of a call chain: a field name and its
// arguments. Operations are values; nothing in this module mutates one
// after it has been placed in a Chain.
type Operation struct {
	Name string `json:"name"`
	Args []Arg  `json:"args,omitempty"`
}

// Arg returns the value of the named argument and whether it was set.
func (o Operation) Arg(name string) (any, bool) {
	for _, a := range o.Args {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// String renders the operation in bracket notation, e.g. [directory path="."].
func (o Operation) String() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(o.Name)
	for _, a := range o.Args {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteByte('=')
		b.WriteString(formatValue(a.Value))
	}
	b.WriteByte(']')
	return b.String()
}

// Chain is the ordered list of operations a Remote Reference stands for.
// The first element is the root selection (e.g. "host").
type Chain []Operation

// Root returns the root kind of the chain, or "" for an empty chain.
func (c Chain) Root() string {
	if len(c) == 0 {
		return ""
	}
	return c[0].Name
}

// Clone returns a deep copy of the chain's slices. Argument values are
// shared; callers are expected to pass immutable values (strings,
// numbers, slices they do not touch afterwards).
func (c Chain) Clone() Chain {
	if c == nil {
		return nil
	}
	out := make(Chain, len(c))
	for i, op := range c {
		out[i] = Operation{Name: op.Name}
		if len(op.Args) > 0 {
			out[i].Args = append([]Arg(nil), op.Args...)
		}
	}
	return out
}

// Equal reports whether two chains describe the same sequence of operations.
func (c Chain) Equal(other Chain) bool {
	if len(c) != len(other) {
		return false
	}
	return c.String() == other.String()
}

// String renders the chain as [root:host][directory path="."][entries].
func (c Chain) String() string {
	var b strings.Builder
	for i, op := range c {
		if i == 0 {
			b.WriteString("[root:")
			b.WriteString(op.Name)
			b.WriteString(op.String()[1+len(op.Name):])
			continue
		}
		b.WriteString(op.String())
	}
	return b.String()
}

// Key returns a stable digest of the chain, suitable as a cache or
// fixture key.
func (c Chain) Key() string {
	sum := sha256.Sum256([]byte(c.String()))
	return hex.EncodeToString(sum[:])
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return fmt.Sprintf("%q", val)
	case nil:
		return "null"
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}
