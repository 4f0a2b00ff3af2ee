package commerce

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

type Scope string

const (
	ScopeCustomer Scope = "customer"
	ScopeAdmin    Scope = "admin"
)

const DefaultTokenLeeway = 30 * time.Second

type Credentials struct {
	ClientID     string
	ClientSecret string
	Scope        string
}

type TokenSource interface {
	Token(ctx context.Context, scope Scope) (string, error)
	Invalidate(scope Scope)
}

type tokenEntry struct {
	mu  sync.Mutex
	cfg clientcredentials.Config
	tok *oauth2.Token
}

// TokenCache holds one client-credentials token per scope and renews it once
// it is within Leeway of its expiry. Tokens without an expiry stay cached
// until invalidated.
type TokenCache struct {
	entries map[Scope]*tokenEntry
	http    *http.Client
	Leeway  time.Duration
	Now     func() time.Time
}

func NewTokenCache(authURL string, creds map[Scope]Credentials, httpClient *http.Client) *TokenCache {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	tokenURL := strings.TrimRight(authURL, "/") + "/oauth/token"

	entries := make(map[Scope]*tokenEntry, len(creds))
	for scope, c := range creds {
		entries[scope] = &tokenEntry{cfg: clientcredentials.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			TokenURL:     tokenURL,
			Scopes:       strings.Fields(c.Scope),
			AuthStyle:    oauth2.AuthStyleInHeader,
		}}
	}
	return &TokenCache{entries: entries, http: httpClient, Leeway: DefaultTokenLeeway, Now: time.Now}
}

func (c *TokenCache) Token(ctx context.Context, scope Scope) (string, error) {
	e, ok := c.entries[scope]
	if !ok {
		return "", fmt.Errorf("no credentials for %s scope: %w", scope, ErrAuthentication)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if c.fresh(e.tok) {
		return e.tok.AccessToken, nil
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	tok, err := e.cfg.Token(ctx)
	if err != nil {
		e.tok = nil
		return "", fmt.Errorf("%w: %s scope: %w", ErrAuthentication, scope, err)
	}
	e.tok = tok
	return tok.AccessToken, nil
}

func (c *TokenCache) Invalidate(scope Scope) {
	if e, ok := c.entries[scope]; ok {
		e.mu.Lock()
		e.tok = nil
		e.mu.Unlock()
	}
}

func (c *TokenCache) fresh(tok *oauth2.Token) bool {
	if tok == nil || tok.AccessToken == "" {
		return false
	}
	if tok.Expiry.IsZero() {
		return true
	}
	return c.Now().Add(c.Leeway).Before(tok.Expiry)
}
