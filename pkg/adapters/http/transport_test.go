package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/aretw0/tendril/pkg/adapters/http"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/enginetest"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, e *enginetest.Engine) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(httpadapter.NewHandler(e))
	t.Cleanup(srv.Close)
	return srv
}

func TestTransportContract(t *testing.T) {
	enginetest.RunTransportContract(t, func(t *testing.T, e *enginetest.Engine) ports.Transport {
		return httpadapter.NewTransport(serve(t, e).URL)
	})
}

func TestTransport_UnreachableEngine(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := httpadapter.NewTransport(url).Open(context.Background(), domain.Handshake{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTransport_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "engine exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := httpadapter.NewTransport(srv.URL).RoundTrip(context.Background(), &domain.Request{ID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "engine exploded")
}

func TestServer_Routes(t *testing.T) {
	e := enginetest.New(enginetest.WithCredentials("secret"))
	srv := serve(t, e)

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(srv.URL + httpadapter.PathHealth)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("open without bearer is unauthorized", func(t *testing.T) {
		resp, err := http.Post(srv.URL+httpadapter.PathSession, "application/json", strings.NewReader(`{}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("malformed query", func(t *testing.T) {
		resp, err := http.Post(srv.URL+httpadapter.PathQuery, "application/json", strings.NewReader(`{`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("session header wins over body", func(t *testing.T) {
		tr := httpadapter.NewTransport(srv.URL)
		welcome, err := tr.Open(context.Background(), domain.Handshake{Credentials: "secret"})
		require.NoError(t, err)
		defer tr.Close(context.Background())
		e.On(enginetest.EntriesChain).Return([]string{"x"})

		body, _ := json.Marshal(domain.Request{ID: 3, Session: "bogus", Chain: enginetest.EntriesChain})
		req, _ := http.NewRequest(http.MethodPost, srv.URL+httpadapter.PathQuery, strings.NewReader(string(body)))
		req.Header.Set(httpadapter.HeaderSession, welcome.SessionID)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		var out domain.Response
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Empty(t, out.Errors)
		assert.Equal(t, []any{"x"}, out.Data)
	})
}
