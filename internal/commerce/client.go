// Package commerce is the gateway to the external commerce platform. It
// acquires OAuth tokens per credential scope, performs the HTTP calls and maps
// the platform's nested payloads onto the application models.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Observer receives one call per finished backend request. Status is 0 when
// no response arrived.
type Observer interface {
	ObserveCall(scope, method string, status int)
}

type Client struct {
	baseURL string
	HTTP    *http.Client
	Tokens  TokenSource
	Obs     Observer
	Now     func() time.Time
}

// NewClient builds a client for <apiURL>/<projectKey>. The http client carries
// no timeout; calls end when the caller's context does.
func NewClient(apiURL, projectKey string, tokens TokenSource, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Client{
		baseURL: strings.TrimRight(apiURL, "/") + "/" + projectKey,
		HTTP:    httpClient,
		Tokens:  tokens,
		Now:     time.Now,
	}
}

func (c *Client) do(ctx context.Context, scope Scope, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	token, err := c.Tokens.Token(ctx, scope)
	if err != nil {
		return err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.observe(scope, method, 0)
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()
	c.observe(scope, method, resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized {
		c.Tokens.Invalidate(scope)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) observe(scope Scope, method string, status int) {
	if c.Obs != nil {
		c.Obs.ObserveCall(string(scope), method, status)
	}
}

type updateRequest struct {
	Version int64 `json:"version"`
	Actions []any `json:"actions"`
}

type versioned struct {
	ID      string `json:"id"`
	Version int64  `json:"version"`
}
