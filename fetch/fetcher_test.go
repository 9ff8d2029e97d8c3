package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher() *Fetcher {
	return NewFetcher(5*time.Second, "WebSentryAI-test/0.1", 1<<20)
}

func TestFetch_TitleAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "WebSentryAI-test/0.1", r.Header.Get("User-Agent"))
		w.Header().Set("Server", "nginx/1.18")
		w.Header().Set("X-Frame-Options", "DENY")
		fmt.Fprint(w, "<html><head><title> Example Page </title></head><body>hi</body></html>")
	}))
	defer server.Close()

	result, err := newTestFetcher().Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "Example Page", result.Title)
	assert.Equal(t, "nginx/1.18", result.Headers["server"])
	assert.Equal(t, "DENY", result.Headers["x-frame-options"])
	assert.Equal(t, http.StatusOK, result.StatusCode)
}

func TestFetch_HeadersLowerCased(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		fmt.Fprint(w, "<html></html>")
	}))
	defer server.Close()

	result, err := newTestFetcher().Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Contains(t, result.Headers, "content-security-policy")
	assert.NotContains(t, result.Headers, "Content-Security-Policy")
}

func TestFetch_NoTitleFallsBackToUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><head></head><body><p>no title here</p></body></html>")
	}))
	defer server.Close()

	result, err := newTestFetcher().Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "Unknown", result.Title)
}

func TestFetch_NonHTMLBodyFallsBackToUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte{0x00, 0x01, 0x02, 0x03})
	}))
	defer server.Close()

	result, err := newTestFetcher().Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "Unknown", result.Title)
}

func TestFetch_ErrorStatusStillScanned(t *testing.T) {
	// An error page's headers are still reviewable; only transport-level
	// failures abort a scan.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "nginx/1.18")
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer server.Close()

	result, err := newTestFetcher().Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
	assert.Equal(t, "nginx/1.18", result.Headers["server"])
}

func TestFetch_UnreachableHostFailsScan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Closed before use: connection refused.

	_, err := newTestFetcher().Fetch(context.Background(), server.URL)

	require.Error(t, err)
}

func TestFetch_TimeoutFailsScan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	fetcher := NewFetcher(100*time.Millisecond, "WebSentryAI-test/0.1", 1<<20)
	_, err := fetcher.Fetch(context.Background(), server.URL)

	require.Error(t, err)
}

func TestFetch_RedirectCap(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Redirect to itself forever.
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	_, err := newTestFetcher().Fetch(context.Background(), server.URL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redirects")
}

func TestFetch_BodyBoundStillYieldsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "big/1.0")
		fmt.Fprint(w, "<html><head><title>Big</title></head><body>")
		fmt.Fprint(w, strings.Repeat("a", 4096))
		fmt.Fprint(w, "</body></html>")
	}))
	defer server.Close()

	// Bound smaller than the body: fetch still succeeds, headers intact.
	fetcher := NewFetcher(5*time.Second, "WebSentryAI-test/0.1", 1024)
	result, err := fetcher.Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "big/1.0", result.Headers["server"])
	assert.Equal(t, "Big", result.Title)
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "simple title",
			body: "<html><head><title>Hello</title></head></html>",
			want: "Hello",
		},
		{
			name: "whitespace trimmed",
			body: "<html><head><title>\n  Spaced  \n</title></head></html>",
			want: "Spaced",
		},
		{
			name: "og:title via readability when no title element",
			body: `<html><head><meta property="og:title" content="Social Title"/></head><body><article>` +
				`<p>This page carries enough running text for the readability heuristics to settle on a main content block.</p>` +
				`<p>Security headers tell browsers how strictly to treat the page, and missing ones widen the attack surface considerably.</p>` +
				`<p>The review covers one page only and reads the response headers without authenticating or crawling any further links.</p>` +
				`</article></body></html>`,
			want: "Social Title",
		},
		{
			name: "empty document",
			body: "",
			want: "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractTitle([]byte(tt.body), "https://example.com/")
			assert.Equal(t, tt.want, got)
		})
	}
}
