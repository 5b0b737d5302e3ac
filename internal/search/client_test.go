package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/autodork/internal/model"
)

const resultsPage = `<html><body>
<div class="g"><div class="yuRUbf"><a href="https://example.com/one"><h3>One</h3></a></div></div>
<div class="g"><div class="yuRUbf"><a href="https://example.com/two"><h3>Two</h3></a></div></div>
<div class="g"><div class="yuRUbf"><a name="anchor-only"><h3>No href</h3></a></div></div>
<div class="g"><div class="other"><a href="https://example.com/ignored">Ignored</a></div></div>
</body></html>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newEngine starts a server that acts as an HTTP proxy for http:// targets
// and answers every request as the search engine.
func newEngine(t *testing.T, handler http.HandlerFunc) model.ProxyCandidate {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return model.ProxyCandidate(strings.TrimPrefix(srv.URL, "http://"))
}

func TestBuildURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		endpoint string
		term     string
		want     string
	}{
		{
			name:     "operators are encoded",
			endpoint: "https://www.google.com/search",
			term:     `site:example.com inurl:"admin login"`,
			want:     "https://www.google.com/search?q=site%3Aexample.com+inurl%3A%22admin+login%22",
		},
		{
			name:     "ampersand cannot inject parameters",
			endpoint: "https://www.google.com/search",
			term:     "a&num=100",
			want:     "https://www.google.com/search?q=a%26num%3D100",
		},
		{
			name:     "existing parameters kept",
			endpoint: "https://www.google.com/search?hl=en",
			term:     "x",
			want:     "https://www.google.com/search?hl=en&q=x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := BuildURL(tt.endpoint, tt.term)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestExtractLinks(t *testing.T) {
	t.Parallel()

	t.Run("matching anchors in order", func(t *testing.T) {
		t.Parallel()
		got, err := ExtractLinks(strings.NewReader(resultsPage), DefaultSelector)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"https://example.com/one", "https://example.com/two"}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("index %d: expected %s, got %s", i, want[i], got[i])
			}
		}
	})

	t.Run("no matches", func(t *testing.T) {
		t.Parallel()
		got, err := ExtractLinks(strings.NewReader("<html><body>nothing</body></html>"), DefaultSelector)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no links, got %v", got)
		}
	})

	t.Run("encoded line breaks are removed from hrefs", func(t *testing.T) {
		t.Parallel()
		var page strings.Builder
		for range 25 {
			page.WriteString(`<div class="yuRUbf"><a href="http://a/x&#10;y&#13;">t</a></div>`)
		}
		got, err := ExtractLinks(strings.NewReader(page.String()), DefaultSelector)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 25 {
			t.Fatalf("expected 25 links, got %d", len(got))
		}
		for _, l := range got {
			if l != "http://a/xy" {
				t.Fatalf("expected http://a/xy, got %q", l)
			}
		}
	})

	t.Run("href of only whitespace is skipped", func(t *testing.T) {
		t.Parallel()
		got, err := ExtractLinks(strings.NewReader(`<div class="yuRUbf"><a href="&#10;&#13;">t</a></div>`), DefaultSelector)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no links, got %q", got)
		}
	})

	t.Run("custom selector", func(t *testing.T) {
		t.Parallel()
		got, err := ExtractLinks(strings.NewReader(resultsPage), ".other a")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0] != "https://example.com/ignored" {
			t.Errorf("unexpected links: %v", got)
		}
	})
}

func TestGoogleClient_Query(t *testing.T) {
	t.Parallel()

	t.Run("returns links through proxy", func(t *testing.T) {
		t.Parallel()
		seen := make(chan *http.Request, 1)
		candidate := newEngine(t, func(w http.ResponseWriter, r *http.Request) {
			seen <- r.Clone(context.Background())
			_, _ = io.WriteString(w, resultsPage)
		})

		c := NewGoogleClient(
			WithEndpoint("http://search.invalid/search"),
			WithTimeout(2*time.Second),
			WithLogger(discardLogger()),
		)
		got, err := c.Query(context.Background(), "site:example.com", "agent/1.0", candidate)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 links, got %v", got)
		}

		req := <-seen
		if req.Header.Get("User-Agent") != "agent/1.0" {
			t.Errorf("expected user agent agent/1.0, got %q", req.Header.Get("User-Agent"))
		}
		if req.Host != "search.invalid" {
			t.Errorf("expected host search.invalid, got %s", req.Host)
		}
		q, _ := url.ParseQuery(req.URL.RawQuery)
		if q.Get("q") != "site:example.com" {
			t.Errorf("expected q=site:example.com, got %q", q.Get("q"))
		}
	})

	t.Run("non-200 is blocked", func(t *testing.T) {
		t.Parallel()
		candidate := newEngine(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})

		c := NewGoogleClient(WithEndpoint("http://search.invalid/search"), WithLogger(discardLogger()))
		_, err := c.Query(context.Background(), "x", "ua", candidate)
		if !errors.Is(err, ErrBlocked) {
			t.Errorf("expected ErrBlocked, got %v", err)
		}
	})

	t.Run("factory failure is transport error", func(t *testing.T) {
		t.Parallel()
		c := NewGoogleClient(
			WithHTTPClientFactory(func(model.ProxyCandidate, time.Duration) (*http.Client, error) {
				return nil, errors.New("bad proxy")
			}),
			WithLogger(discardLogger()),
		)
		_, err := c.Query(context.Background(), "x", "ua", "a:1")
		if !errors.Is(err, ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
	})

	t.Run("timeout is transport error", func(t *testing.T) {
		t.Parallel()
		candidate := newEngine(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		})

		c := NewGoogleClient(
			WithEndpoint("http://search.invalid/search"),
			WithTimeout(100*time.Millisecond),
			WithLogger(discardLogger()),
		)
		_, err := c.Query(context.Background(), "x", "ua", candidate)
		if !errors.Is(err, ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
	})

	t.Run("rate limit spaces queries", func(t *testing.T) {
		t.Parallel()
		var hits atomic.Int32
		c := NewGoogleClient(
			WithEndpoint("http://search.invalid/search"),
			WithRateLimit(20),
			WithHTTPClientFactory(func(model.ProxyCandidate, time.Duration) (*http.Client, error) {
				return &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
					hits.Add(1)
					return &http.Response{
						StatusCode: http.StatusOK,
						Body:       io.NopCloser(strings.NewReader(resultsPage)),
						Header:     make(http.Header),
					}, nil
				})}, nil
			}),
			WithLogger(discardLogger()),
		)

		start := time.Now()
		for range 3 {
			if _, err := c.Query(context.Background(), "x", "ua", "a:1"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		// Burst of 1 at 20/s: the second and third queries wait ~50ms each.
		if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
			t.Errorf("expected rate limiting to delay queries, took %v", elapsed)
		}
		if hits.Load() != 3 {
			t.Errorf("expected 3 requests, got %d", hits.Load())
		}
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
