package query

import (
	"context"
	"reflect"

	"github.com/aretw0/tendril/pkg/domain"
)

// Owner is the session a Ref is bound to; in practice a *session.Session.
// This package never calls RoundTrip; it only carries the Owner along so
// the resolver knows where to send the chain.
type Owner interface {
	ID() string
	State() domain.SessionState
	RoundTrip(ctx context.Context, chain domain.Chain) (*domain.Response, error)
}

// Ref is a Remote Reference: a root kind plus an append-only chain of
// operations, bound to the Owner that will resolve it. The zero Ref is
// empty and unbound.
type Ref struct {
	owner Owner
	chain domain.Chain
}

// Root produces a reference with an empty chain tagged with kind.
func Root(owner Owner, kind string, args ...domain.Arg) Ref {
	return Ref{
		owner: owner,
		chain: domain.Chain{{Name: kind, Args: compact(args)}},
	}
}

// Arg is shorthand for a domain.Arg.
func Arg(name string, value any) domain.Arg {
	return domain.Arg{Name: name, Value: value}
}

// Select returns a new reference whose chain is r's chain plus one
// operation. r is not modified. Arguments whose value is nil (or a nil
// pointer, slice or map) are dropped, so optional arguments can be passed
// unconditionally.
func (r Ref) Select(name string, args ...domain.Arg) Ref {
	next := make(domain.Chain, len(r.chain), len(r.chain)+1)
	copy(next, r.chain)
	next = append(next, domain.Operation{Name: name, Args: compact(args)})
	return Ref{owner: r.owner, chain: next}
}

// Chain returns a copy of the reference's chain.
func (r Ref) Chain() domain.Chain {
	return r.chain.Clone()
}

// Owner returns the session the reference is bound to.
func (r Ref) Owner() Owner {
	return r.owner
}

// Kind returns the root kind.
func (r Ref) Kind() string {
	return r.chain.Root()
}

// Len is the number of operations in the chain, root included.
func (r Ref) Len() int {
	return len(r.chain)
}

// Equal reports whether both references describe the same chain. The
// owners are not compared.
func (r Ref) Equal(other Ref) bool {
	return r.chain.Equal(other.chain)
}

func (r Ref) String() string {
	return r.chain.String()
}

func compact(args []domain.Arg) []domain.Arg {
	if len(args) == 0 {
		return nil
	}
	out := make([]domain.Arg, 0, len(args))
	for _, a := range args {
		if isNil(a.Value) {
			continue
		}
		out = append(out, a)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
