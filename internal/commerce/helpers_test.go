package commerce

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

const testProject = "shopswift-project"

type recorded struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]any
}

// fakeBackend serves the token endpoint and the project API from one server.
// Routes are keyed by "METHOD /path" with the project prefix stripped.
type fakeBackend struct {
	t      *testing.T
	srv    *httptest.Server
	mu     sync.Mutex
	calls  []recorded
	tokens int
	routes map[string]http.HandlerFunc
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	fb := &fakeBackend{t: t, routes: map[string]http.HandlerFunc{}}
	fb.srv = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) on(route string, h http.HandlerFunc) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.routes[route] = h
}

func (fb *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/oauth/token" {
		fb.mu.Lock()
		fb.tokens++
		n := fb.tokens
		fb.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "tok-" + string(rune('0'+n)),
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/"+testProject)
	rec := recorded{Method: r.Method, Path: path, Query: r.URL.RawQuery, Auth: r.Header.Get("Authorization")}
	if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
		_ = json.Unmarshal(raw, &rec.Body)
	}

	fb.mu.Lock()
	fb.calls = append(fb.calls, rec)
	h, ok := fb.routes[r.Method+" "+path]
	fb.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"statusCode": 404, "message": "no route " + r.Method + " " + path})
		return
	}
	h(w, r)
}

func (fb *fakeBackend) recorded() []recorded {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make([]recorded, len(fb.calls))
	copy(out, fb.calls)
	return out
}

func (fb *fakeBackend) tokenCount() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.tokens
}

func (fb *fakeBackend) client() *Client {
	creds := map[Scope]Credentials{
		ScopeCustomer: {ClientID: "front", ClientSecret: "front-secret", Scope: "view_published_products:shopswift-project"},
		ScopeAdmin:    {ClientID: "admin", ClientSecret: "admin-secret", Scope: "manage_project:shopswift-project"},
	}
	cache := NewTokenCache(fb.srv.URL, creds, fb.srv.Client())
	c := NewClient(fb.srv.URL, testProject, cache, fb.srv.Client())
	c.Now = func() time.Time { return time.UnixMilli(1700000000000) }
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respond(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, status, v)
	}
}
