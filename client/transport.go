// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

// transport resolves request paths against the server's base URL and adds
// the session token to every request once one is known
type transport struct {
	baseURL string
	next    http.RoundTripper

	mu    sync.RWMutex
	token string
}

func (t *transport) setToken(token string) {
	t.mu.Lock()
	t.token = token
	t.mu.Unlock()
}

func (t *transport) currentToken() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	path := "/" + strings.TrimPrefix(req.URL.String(), "/")
	target, err := req.URL.Parse(strings.TrimSuffix(t.baseURL, "/") + path)
	if err != nil {
		return nil, fmt.Errorf("invalid request url %q: %w", path, err)
	}

	// RoundTrippers must not modify the caller's request
	out := req.Clone(req.Context())
	out.URL = target
	out.Host = ""
	if token := t.currentToken(); token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}

	slog.Debug("api request", "method", out.Method, "url", target.String())
	return t.next.RoundTrip(out)
}
