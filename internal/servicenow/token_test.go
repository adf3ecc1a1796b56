package servicenow

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aviro092/servicenow-mcp-server/internal/apierr"
	"github.com/aviro092/servicenow-mcp-server/internal/config"
)

func tokenStub(t *testing.T, exchanges *atomic.Int64, expiresIn int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		n := exchanges.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"tok-%d","token_type":"Bearer","expires_in":%d}`, n, expiresIn)
	}))
}

func tokenTestConfig(baseURL string) config.ServiceNowConfig {
	cfg := config.Default().ServiceNow
	cfg.BaseURL = baseURL
	cfg.ClientID = "client"
	cfg.ClientSecret = "secret"
	return cfg
}

func TestTokenManagerCachesToken(t *testing.T) {
	var exchanges atomic.Int64
	stub := tokenStub(t, &exchanges, 3600)
	defer stub.Close()

	m := NewTokenManager(tokenTestConfig(stub.URL), stub.Client())

	tok, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	tok, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, int64(1), exchanges.Load())
}

func TestTokenManagerCoalescesConcurrentRefresh(t *testing.T) {
	var exchanges atomic.Int64
	stub := tokenStub(t, &exchanges, 3600)
	defer stub.Close()

	m := NewTokenManager(tokenTestConfig(stub.URL), stub.Client())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := m.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "tok-1", tok)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), exchanges.Load())
}

func TestTokenManagerRefreshesWithinExpirySkew(t *testing.T) {
	var exchanges atomic.Int64
	// Lifetime shorter than the safety margin, so the cached token is
	// stale the moment it lands.
	stub := tokenStub(t, &exchanges, 10)
	defer stub.Close()

	m := NewTokenManager(tokenTestConfig(stub.URL), stub.Client())

	_, err := m.Token(context.Background())
	require.NoError(t, err)
	tok, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.Equal(t, int64(2), exchanges.Load())
}

func TestTokenManagerInvalidate(t *testing.T) {
	var exchanges atomic.Int64
	stub := tokenStub(t, &exchanges, 3600)
	defer stub.Close()

	m := NewTokenManager(tokenTestConfig(stub.URL), stub.Client())

	tok, err := m.Token(context.Background())
	require.NoError(t, err)

	// Invalidating a value that is no longer cached must not clobber
	// the current token.
	m.Invalidate("some-older-token")
	again, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tok, again)

	m.Invalidate(tok)
	fresh, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", fresh)
	assert.Equal(t, int64(2), exchanges.Load())
}

func TestTokenManagerRejectedCredentials(t *testing.T) {
	var exchanges atomic.Int64
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid_client"}`)
	}))
	defer stub.Close()

	m := NewTokenManager(tokenTestConfig(stub.URL), stub.Client())

	_, err := m.Token(context.Background())
	require.Error(t, err)
	assert.Equal(t, apierr.KindAuth, apierr.KindOf(err))
	// Rejected credentials are not retried.
	assert.Equal(t, int64(1), exchanges.Load())
}

func TestTokenManagerDefaultLifetime(t *testing.T) {
	var exchanges atomic.Int64
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"tok","token_type":"Bearer"}`)
	}))
	defer stub.Close()

	m := NewTokenManager(tokenTestConfig(stub.URL), stub.Client())

	_, err := m.Token(context.Background())
	require.NoError(t, err)
	cached := m.current.Load()
	require.NotNil(t, cached)
	assert.WithinDuration(t, time.Now().Add(defaultTokenTTL), cached.expiresAt, 5*time.Second)
}
