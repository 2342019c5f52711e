// Package wordprovider fetches random seed words for drawing and
// word-chain rounds from an external word-generator service (spec §4.8,
// §4.9 "seed word selection"). Grounded on original_source/flask-server's
// random-word HTTP call ahead of each drawing/word-chain round; no repo in
// the examples pack imports an HTTP client library for this kind of
// fire-and-forget external call, so this uses net/http directly rather
// than a third-party client (documented in DESIGN.md as a stdlib
// fallback).
package wordprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Provider supplies random words for the engine to seed rounds with.
type Provider interface {
	FetchWords(ctx context.Context, n int) ([]string, error)
}

// HTTPProvider calls an external random-word API over HTTP.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

// New returns an HTTPProvider pointed at baseURL (spec §6 config:
// WORD_PROVIDER_URL), with a bounded request timeout so a slow upstream
// never blocks a round's start.
func New(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// FetchWords requests n random words. Returns engineerr.ErrUpstreamUnavailable
// (wrapped) on any transport or decode failure so callers can fall back to
// a static word list rather than stall a round.
func (p *HTTPProvider) FetchWords(ctx context.Context, n int) ([]string, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return nil, fmt.Errorf("wordprovider: invalid base url: %w", err)
	}
	q := u.Query()
	q.Set("count", strconv.Itoa(n))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("wordprovider: build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wordprovider: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wordprovider: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Words []string `json:"words"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("wordprovider: decode response: %w", err)
	}
	if len(out.Words) < n {
		return nil, fmt.Errorf("wordprovider: expected %d words, got %d", n, len(out.Words))
	}
	return out.Words[:n], nil
}

// StaticProvider is a fixed word-list fallback used in tests and as the
// degraded-mode provider when the upstream service is unreachable (spec
// §9: seed word failure must never block round start).
type StaticProvider struct {
	Words []string
	next  int
}

// NewStatic returns a StaticProvider cycling through words in order.
func NewStatic(words []string) *StaticProvider {
	return &StaticProvider{Words: words}
}

func (p *StaticProvider) FetchWords(ctx context.Context, n int) ([]string, error) {
	if len(p.Words) == 0 {
		return nil, fmt.Errorf("wordprovider: static provider has no words")
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = p.Words[p.next%len(p.Words)]
		p.next++
	}
	return out, nil
}
