package enginetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Dialer builds a client transport connected to e, e.g. through an
// httptest server serving e.Handler().
type Dialer func(t *testing.T, e *Engine) ports.Transport

// EntriesChain is host.directory(".").entries, the chain most tests use.
var EntriesChain = domain.Chain{
	{Name: "host"},
	{Name: "directory", Args: []domain.Arg{{Name: "path", Value: "."}}},
	{Name: "entries"},
}

// RunTransportContract checks the behaviour every ports.Transport must share.
func RunTransportContract(t *testing.T, dial Dialer) {
	ctx := context.Background()

	open := func(t *testing.T, e *Engine, credentials string) (ports.Transport, domain.Welcome) {
		t.Helper()
		tr := dial(t, e)
		welcome, err := tr.Open(ctx, domain.Handshake{Credentials: credentials, Client: "contract"})
		require.NoError(t, err)
		t.Cleanup(func() { tr.Close(context.Background()) })
		return tr, welcome
	}

	t.Run("Handshake", func(t *testing.T) {
		e := New(WithCredentials("secret"), WithName("contract-engine"))
		_, welcome := open(t, e, "secret")

		assert.NotEmpty(t, welcome.SessionID)
		assert.Equal(t, "contract-engine", welcome.Engine)
		hello, ok := e.Handshake(welcome.SessionID)
		require.True(t, ok)
		assert.Equal(t, "secret", hello.Credentials)
	})

	t.Run("RejectedCredentials", func(t *testing.T) {
		e := New(WithCredentials("secret"))
		tr := dial(t, e)
		defer tr.Close(ctx)

		_, err := tr.Open(ctx, domain.Handshake{Credentials: "wrong"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.Zero(t, e.Sessions())
	})

	t.Run("RoundTrip", func(t *testing.T) {
		e := New()
		e.On(EntriesChain).Return([]string{"a.txt", "b.txt"})
		tr, welcome := open(t, e, "")

		resp, err := tr.RoundTrip(ctx, &domain.Request{ID: 7, Session: welcome.SessionID, Chain: EntriesChain})
		require.NoError(t, err)
		assert.Equal(t, uint64(7), resp.ID)
		assert.Empty(t, resp.Errors)

		var names []string
		require.NoError(t, resolve.Decode(resp.Data, &names))
		assert.Equal(t, []string{"a.txt", "b.txt"}, names)

		reqs := e.Requests()
		require.Len(t, reqs, 1)
		assert.True(t, reqs[0].Chain.Equal(EntriesChain), "engine saw %s", reqs[0].Chain)
	})

	t.Run("FaultIsNotTransportError", func(t *testing.T) {
		e := New()
		e.On(EntriesChain).Fail("no such directory")
		tr, welcome := open(t, e, "")

		resp, err := tr.RoundTrip(ctx, &domain.Request{ID: 1, Session: welcome.SessionID, Chain: EntriesChain})
		require.NoError(t, err)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "no such directory", resp.Errors[0].Message)
		assert.Equal(t, 2, resp.Errors[0].Step)
	})

	t.Run("ConcurrentRoundTrips", func(t *testing.T) {
		e := New()
		const n = 16
		for i := 0; i < n; i++ {
			e.On(fileChain(i)).Return(fmt.Sprintf("contents-%d", i))
		}
		tr, welcome := open(t, e, "")

		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				resp, err := tr.RoundTrip(ctx, &domain.Request{ID: uint64(i + 1), Session: welcome.SessionID, Chain: fileChain(i)})
				if err != nil {
					errs <- err
					return
				}
				if resp.ID != uint64(i+1) || resp.Data != fmt.Sprintf("contents-%d", i) {
					errs <- fmt.Errorf("request %d got id=%d data=%v", i+1, resp.ID, resp.Data)
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Error(err)
		}
		assert.Equal(t, int64(n), e.Executes())
	})

	t.Run("Cancellation", func(t *testing.T) {
		e := New(WithDelay(5 * time.Second))
		e.On(EntriesChain).Return([]string{})
		tr, welcome := open(t, e, "")

		cctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := tr.RoundTrip(cctx, &domain.Request{ID: 1, Session: welcome.SessionID, Chain: EntriesChain})
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("CloseReleasesSession", func(t *testing.T) {
		e := New()
		tr := dial(t, e)
		_, err := tr.Open(ctx, domain.Handshake{})
		require.NoError(t, err)
		require.Equal(t, 1, e.Sessions())

		require.NoError(t, tr.Close(ctx))
		assert.Eventually(t, func() bool { return e.Sessions() == 0 }, 2*time.Second, 10*time.Millisecond)
		assert.NoError(t, tr.Close(ctx), "second Close")
	})
}

func fileChain(i int) domain.Chain {
	return domain.Chain{
		{Name: "host"},
		{Name: "file", Args: []domain.Arg{{Name: "path", Value: fmt.Sprintf("f%d.txt", i)}}},
		{Name: "contents"},
	}
}
