package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/autodork/internal/model"
	"github.com/nao1215/autodork/internal/proxy"
	"golang.org/x/time/rate"
)

const (
	// DefaultEndpoint is the search URL; the query goes in the q parameter.
	DefaultEndpoint = "https://www.google.com/search"

	// DefaultSelector matches the result anchors on a results page.
	DefaultSelector = ".yuRUbf a"

	// DefaultTimeout bounds one query.
	DefaultTimeout = 10 * time.Second

	// maxBodySize caps how much of a results page is read.
	maxBodySize = 5 * 1024 * 1024 // 5 MB
)

// Client performs a single search query.
type Client interface {
	// Query returns the result URLs for term, in page order.
	// A nil error with no URLs means the engine had no results.
	Query(ctx context.Context, term string, userAgent string, p model.ProxyCandidate) ([]string, error)
}

// HTTPClientFactory builds an HTTP client routed through a proxy.
type HTTPClientFactory func(p model.ProxyCandidate, timeout time.Duration) (*http.Client, error)

// GoogleClient queries a Google-style results page.
type GoogleClient struct {
	endpoint  string
	selector  string
	timeout   time.Duration
	newClient HTTPClientFactory
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// Option configures a GoogleClient.
type Option func(*GoogleClient)

// WithEndpoint sets the search URL.
func WithEndpoint(endpoint string) Option {
	return func(c *GoogleClient) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithSelector sets the CSS selector used to find result anchors.
func WithSelector(selector string) Option {
	return func(c *GoogleClient) {
		if selector != "" {
			c.selector = selector
		}
	}
}

// WithTimeout sets the per-query timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *GoogleClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit caps the number of queries per second across every
// goroutine sharing this client. Zero or negative means unlimited.
func WithRateLimit(perSecond float64) Option {
	return func(c *GoogleClient) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			c.limiter = nil
		}
	}
}

// WithHTTPClientFactory replaces the proxied HTTP client constructor.
func WithHTTPClientFactory(f HTTPClientFactory) Option {
	return func(c *GoogleClient) {
		if f != nil {
			c.newClient = f
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *GoogleClient) {
		c.logger = logger
	}
}

// NewGoogleClient creates a client with the given options.
func NewGoogleClient(opts ...Option) *GoogleClient {
	c := &GoogleClient{
		endpoint:  DefaultEndpoint,
		selector:  DefaultSelector,
		timeout:   DefaultTimeout,
		newClient: proxy.NewHTTPClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// BuildURL returns the search URL for term with the term URL-encoded
// into the q parameter. Existing query parameters on endpoint are kept.
func BuildURL(endpoint, term string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid search endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", term)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Query implements Client.
func (c *GoogleClient) Query(ctx context.Context, term string, userAgent string, p model.ProxyCandidate) ([]string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransport, err)
		}
	}

	target, err := BuildURL(c.endpoint, term)
	if err != nil {
		return nil, err
	}

	client, err := c.newClient(p, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrBlocked, resp.StatusCode)
	}

	links, err := ExtractLinks(io.LimitReader(resp.Body, maxBodySize), c.selector)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("search completed",
		"term", term,
		"proxy", p.String(),
		"results", len(links),
	)
	return links, nil
}

// urlWhitespace strips the characters browsers drop from URLs. Entity-encoded
// line breaks are decoded by the HTML parser and would otherwise split a link.
var urlWhitespace = strings.NewReplacer("\r", "", "\n", "", "\t", "")

// ExtractLinks returns the href of every anchor matching selector, in
// document order. Line breaks and tabs inside an href are removed.
// Anchors without an href, or with an empty one, are skipped.
func ExtractLinks(r io.Reader, selector string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	links := make([]string, 0)
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(urlWhitespace.Replace(href))
		if href == "" {
			return
		}
		links = append(links, href)
	})
	return links, nil
}
