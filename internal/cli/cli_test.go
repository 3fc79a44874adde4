package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/enginetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport(t *testing.T) {
	chain := enginetest.EntriesChain
	tests := []struct {
		name string
		err  error
		sig  bool
		code int
		out  string
	}{
		{"nil", nil, false, ExitOK, ""},
		{
			name: "resolution",
			err:  fmt.Errorf("ls: %w", &domain.ResolutionError{Chain: chain, Faults: []domain.Fault{{Message: "no such file or directory: /nonexistent"}}}),
			code: ExitError,
			out:  "error (ResolutionError): no such file or directory: /nonexistent\n",
		},
		{
			name: "connection",
			err:  &domain.ConnectionError{Endpoint: "http://127.0.0.1:1", Err: errors.New("connection refused")},
			code: ExitError,
			out:  "error (ConnectionError): connect http://127.0.0.1:1: connection refused\n",
		},
		{"interrupted", &domain.TransportError{Chain: chain, Err: context.Canceled}, true, ExitInterrupted, ""},
		{
			name: "cancelled without signal",
			err:  &domain.TransportError{Chain: chain, Err: context.Canceled},
			code: ExitError,
			out:  "error (TransportError): transport failure resolving [root:host][directory path=\".\"][entries]: context canceled\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Equal(t, tt.code, Report(&buf, tt.err, tt.sig))
			assert.Equal(t, tt.out, buf.String())
		})
	}
}

func TestConnect_Options(t *testing.T) {
	engine := enginetest.New(enginetest.WithCredentials("flag-token"))

	client, err := Connect(context.Background(), Options{
		Token:   "flag-token",
		Timeout: time.Second,
		Extra:   []tendril.Option{tendril.WithTransport(engine.Transport())},
	})
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, 1, engine.Sessions())
}

func TestSignalContext(t *testing.T) {
	sc := NewSignalContext(context.Background())
	assert.Nil(t, sc.Signal())
	sc.Cancel()
	<-sc.Done()
	assert.Nil(t, sc.Signal())
}
