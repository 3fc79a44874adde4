package query

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingOwner fails the test if anything tries to resolve through it.
type countingOwner struct {
	t     *testing.T
	calls int
}

func (o *countingOwner) ID() string                  { return "s-1" }
func (o *countingOwner) State() domain.SessionState { return domain.StateReady }
func (o *countingOwner) RoundTrip(context.Context, domain.Chain) (*domain.Response, error) {
	o.calls++
	o.t.Error("building a chain must not contact the engine")
	return nil, nil
}

func TestRef_BuildIsLazy(t *testing.T) {
	owner := &countingOwner{t: t}
	ref := Root(owner, "host")
	for _i := 0; _i < 100; _i++ {
		ref = ref.Select("directory", Arg("path", "."))
	}
	assert.Equal(t, 101, ref.Len())
	assert.Zero(t, owner.calls)
}

func TestRef_Select(t *testing.T) {
	owner := &countingOwner{t: t}
	entries := Root(owner, "host").
		Select("directory", Arg("path", ".")).
		Select("entries")

	assert.Equal(t, `[root:host][directory path="."][entries]`, entries.String())
	assert.Equal(t, "host", entries.Kind())
	assert.Same(t, owner, entries.Owner())
}

func TestRef_Immutable(t *testing.T) {
	owner := &countingOwner{t: t}
	dir := Root(owner, "host").Select("directory", Arg("path", "."))
	before := dir.String()

	a := dir.Select("file", Arg("path", "a.txt"))
	b := dir.Select("file", Arg("path", "b.txt"))

	assert.Equal(t, before, dir.String())
	assert.Equal(t, `[root:host][directory path="."][file path="a.txt"]`, a.String())
	assert.Equal(t, `[root:host][directory path="."][file path="b.txt"]`, b.String())

	chain := a.Chain()
	chain[2].Args[0].Value = "tampered"
	assert.Equal(t, `[root:host][directory path="."][file path="a.txt"]`, a.String())
}

func TestRef_SharedPrefixConcurrent(t *testing.T) {
	owner := &countingOwner{t: t}
	dir := Root(owner, "host").Select("directory", Arg("path", "."))

	var wg sync.WaitGroup
	refs := make([]Ref, 32)
	for i := range refs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			refs[i] = dir.Select("file", Arg("path", i))
		}(i)
	}
	wg.Wait()

	for i, r := range refs {
		require.Equal(t, 3, r.Len())
		v, ok := r.Chain()[2].Arg("path")
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
}

func TestRef_Associative(t *testing.T) {
	owner := &countingOwner{t: t}
	step := func(r Ref) Ref { return r.Select("directory", Arg("path", "src")) }

	oneGo := Root(owner, "host").Select("directory", Arg("path", ".")).Select("directory", Arg("path", "src")).Select("entries")
	composed := step(Root(owner, "host").Select("directory", Arg("path", "."))).Select("entries")

	assert.True(t, oneGo.Equal(composed))
	assert.Equal(t, oneGo.Chain().Key(), composed.Chain().Key())
}

func TestRef_DropsNilArgs(t *testing.T) {
	var exclude []string
	var include *[]string
	ref := Root(nil, "host").Select("directory",
		Arg("path", "."),
		Arg("exclude", exclude),
		Arg("include", include),
		Arg("extra", nil),
	)

	assert.Equal(t, `[root:host][directory path="."]`, ref.String())
	assert.Nil(t, Root(nil, "host").Select("entries", Arg("path", nil)).Chain()[1].Args)
}

func TestRef_Zero(t *testing.T) {
	var r Ref
	assert.Nil(t, r.Owner())
	assert.Zero(t, r.Len())
	assert.Equal(t, "", r.Kind())
}
