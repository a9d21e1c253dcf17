package liveness

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, calls *atomic.Int32, expiresIn int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.FormValue("grant_type"))
		n := calls.Add(1)
		fmt.Fprintf(w, `{"access_token":"token-%d","expires_in":%d}`, n, expiresIn)
	}))
}

func TestTokenSourceCachesToken(t *testing.T) {
	var calls atomic.Int32
	srv := newTokenServer(t, &calls, 3600)
	defer srv.Close()

	ts := NewTokenSource("id", "secret")
	ts.tokenURL = srv.URL

	tok1, err := ts.Token(context.Background())
	require.NoError(t, err)
	tok2, err := ts.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "token-1", tok1)
	assert.Equal(t, tok1, tok2)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTokenSourceRefreshesBeforeExpiry(t *testing.T) {
	var calls atomic.Int32
	srv := newTokenServer(t, &calls, 3600)
	defer srv.Close()

	ts := NewTokenSource("id", "secret")
	ts.tokenURL = srv.URL

	_, err := ts.Token(context.Background())
	require.NoError(t, err)

	// Push the cached expiry inside the refresh margin.
	ts.mu.Lock()
	ts.expiresAt = time.Now().Add(tokenRefreshMargin - time.Second)
	ts.mu.Unlock()

	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", tok)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTokenSourceInvalidate(t *testing.T) {
	var calls atomic.Int32
	srv := newTokenServer(t, &calls, 3600)
	defer srv.Close()

	ts := NewTokenSource("id", "secret")
	ts.tokenURL = srv.URL

	_, err := ts.Token(context.Background())
	require.NoError(t, err)
	ts.Invalidate()

	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", tok)
}
