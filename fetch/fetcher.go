// Package fetch retrieves a single web page and captures the response
// headers and page title for rule evaluation.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/Jerold2105/websentry-ai/rules"
)

// maxRedirects caps redirect chains so a misbehaving target can't loop.
const maxRedirects = 5

// Result contains what a single page fetch produced. Headers are
// normalized to lower-case keys; Title falls back to "Unknown" when the
// page has no usable title.
type Result struct {
	Title      string
	Headers    rules.HeaderMap
	StatusCode int
}

// Fetcher performs bounded, read-only page fetches.
type Fetcher struct {
	client         *http.Client
	userAgent      string
	maxContentSize int64
}

// NewFetcher creates a page fetcher with the given request timeout,
// User-Agent, and body size bound.
func NewFetcher(timeout time.Duration, userAgent string, maxContentSize int64) *Fetcher {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (max %d)", maxRedirects)
				}
				return nil
			},
		},
		userAgent:      userAgent,
		maxContentSize: maxContentSize,
	}
}

// Fetch issues one GET against the URL and returns the normalized headers
// and best-effort title. Transport failures and timeouts are returned as
// errors and abort the scan; HTTP error statuses are not failures, since
// an error page's headers are still worth reviewing. Title extraction
// failures are not errors either. No retries are attempted.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", urlStr, err)
	}
	defer resp.Body.Close()

	// Read at most maxContentSize bytes; the title parser works on
	// whatever fits in the bound, and headers don't depend on the body.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxContentSize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Result{
		Title:      extractTitle(body, urlStr),
		Headers:    rules.NormalizeHeaders(resp.Header),
		StatusCode: resp.StatusCode,
	}, nil
}
