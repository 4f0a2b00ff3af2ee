package commerce

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenServer struct {
	srv  *httptest.Server
	hits atomic.Int32
	fail atomic.Bool
}

func newTokenServer(t *testing.T) *tokenServer {
	t.Helper()

	ts := &tokenServer{}
	ts.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ts.fail.Load() {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid_client"})
			return
		}
		id, secret, ok := r.BasicAuth()
		if !ok || secret != id+"-secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid_client"})
			return
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unsupported_grant_type"})
			return
		}
		n := ts.hits.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": id + "-" + r.PostForm.Get("scope") + "-" + string(rune('0'+n)),
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *tokenServer) cache() *TokenCache {
	return NewTokenCache(ts.srv.URL, map[Scope]Credentials{
		ScopeCustomer: {ClientID: "front", ClientSecret: "front-secret", Scope: "view_products"},
		ScopeAdmin:    {ClientID: "admin", ClientSecret: "admin-secret", Scope: "manage_project"},
	}, ts.srv.Client())
}

func TestTokenCache_CachesPerScope(t *testing.T) {
	t.Parallel()

	ts := newTokenServer(t)
	cache := ts.cache()
	ctx := context.Background()

	first, err := cache.Token(ctx, ScopeCustomer)
	require.NoError(t, err)
	again, err := cache.Token(ctx, ScopeCustomer)
	require.NoError(t, err)
	admin, err := cache.Token(ctx, ScopeAdmin)
	require.NoError(t, err)

	assert.Equal(t, first, again)
	assert.Equal(t, "front-view_products-1", first)
	assert.Equal(t, "admin-manage_project-2", admin)
	assert.Equal(t, int32(2), ts.hits.Load())
}

func TestTokenCache_RefreshesNearExpiry(t *testing.T) {
	t.Parallel()

	ts := newTokenServer(t)
	cache := ts.cache()
	ctx := context.Background()

	_, err := cache.Token(ctx, ScopeAdmin)
	require.NoError(t, err)

	cache.Now = func() time.Time { return time.Now().Add(3600*time.Second - DefaultTokenLeeway/2) }
	_, err = cache.Token(ctx, ScopeAdmin)
	require.NoError(t, err)

	assert.Equal(t, int32(2), ts.hits.Load())
}

func TestTokenCache_Invalidate(t *testing.T) {
	t.Parallel()

	ts := newTokenServer(t)
	cache := ts.cache()
	ctx := context.Background()

	first, err := cache.Token(ctx, ScopeCustomer)
	require.NoError(t, err)
	cache.Invalidate(ScopeCustomer)
	second, err := cache.Token(ctx, ScopeCustomer)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestTokenCache_Errors(t *testing.T) {
	t.Parallel()

	ts := newTokenServer(t)
	cache := ts.cache()
	ctx := context.Background()

	_, err := cache.Token(ctx, Scope("partner"))
	assert.True(t, errors.Is(err, ErrAuthentication))

	ts.fail.Store(true)
	_, err = cache.Token(ctx, ScopeAdmin)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthentication))
	assert.Equal(t, int32(0), ts.hits.Load())
}
