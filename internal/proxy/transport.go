package proxy

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/autodork/internal/model"
	xproxy "golang.org/x/net/proxy"
)

// maxRedirects bounds redirect chains followed through a proxy.
const maxRedirects = 10

// ParseCandidate converts a candidate into a proxy URL.
// A bare "host:port" is treated as an HTTP proxy.
func ParseCandidate(c model.ProxyCandidate) (*url.URL, error) {
	raw := strings.TrimSpace(c.String())
	if raw == "" {
		return nil, ErrInvalidCandidate
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCandidate, err)
	}

	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}

	if !isValidHostPort(u.Host) || (u.Path != "" && u.Path != "/") {
		return nil, ErrInvalidCandidate
	}
	return u, nil
}

// isValidHostPort checks for a non-empty host and a port in 1..65535.
func isValidHostPort(hostport string) bool {
	host, port, err := net.SplitHostPort(hostport)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// NewHTTPClient returns an HTTP client that routes every request through
// the given candidate.
//
// TLS certificates are verified. Keep-alives are disabled because each
// client serves a single request through a proxy that may be gone soon.
func NewHTTPClient(c model.ProxyCandidate, timeout time.Duration) (*http.Client, error) {
	u, err := ParseCandidate(c)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		DisableKeepAlives:     true,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     false,
	}

	switch u.Scheme {
	case "socks5", "socks5h":
		forward := &net.Dialer{Timeout: timeout}
		d, err := xproxy.FromURL(u, forward)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.DialContext = contextDialer(d)
	default:
		transport.Proxy = http.ProxyURL(u)
		transport.DialContext = (&net.Dialer{Timeout: timeout}).DialContext
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// contextDialer adapts a proxy.Dialer to http.Transport.DialContext.
// The SOCKS5 dialer from x/net supports contexts directly; other dialers
// are raced against the context.
func contextDialer(d xproxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(xproxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		type dialResult struct {
			conn net.Conn
			err  error
		}
		ch := make(chan dialResult, 1)
		go func() {
			conn, err := d.Dial(network, addr)
			ch <- dialResult{conn, err}
		}()
		select {
		case r := <-ch:
			return r.conn, r.err
		case <-ctx.Done():
			go func() {
				if r := <-ch; r.conn != nil {
					r.conn.Close()
				}
			}()
			return nil, ctx.Err()
		}
	}
}
