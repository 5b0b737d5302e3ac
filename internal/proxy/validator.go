package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/autodork/internal/model"
	"github.com/nao1215/autodork/internal/rotate"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultProbeURL is the known-good endpoint candidates are probed against.
	DefaultProbeURL = "https://bing.com"

	// DefaultProbeTimeout bounds each probe.
	DefaultProbeTimeout = 3 * time.Second

	// DefaultValidateConcurrency is the maximum number of probes in flight.
	DefaultValidateConcurrency = 50
)

// Prober checks a single candidate.
// It returns ProbeOK when the candidate is usable and an error describing
// the failure otherwise.
type Prober interface {
	Probe(ctx context.Context, candidate model.ProxyCandidate, userAgent string) (ProbeStatus, error)
}

// HTTPProber issues one GET to a probe URL through the candidate.
type HTTPProber struct {
	url     string
	timeout time.Duration
}

// NewHTTPProber creates a prober. Empty or non-positive arguments fall
// back to DefaultProbeURL and DefaultProbeTimeout.
func NewHTTPProber(probeURL string, timeout time.Duration) *HTTPProber {
	if probeURL == "" {
		probeURL = DefaultProbeURL
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &HTTPProber{url: probeURL, timeout: timeout}
}

// Probe implements Prober.
func (p *HTTPProber) Probe(ctx context.Context, candidate model.ProxyCandidate, userAgent string) (ProbeStatus, error) {
	client, err := NewHTTPClient(candidate, p.timeout)
	if err != nil {
		return ProbeInvalid, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return ProbeRequestError, fmt.Errorf("%w: %w", ErrProbeRequest, err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		status := ClassifyError(err)
		return status, fmt.Errorf("%w: %w", status.Error(), err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024)) //nolint:errcheck // drain only

	if resp.StatusCode != http.StatusOK {
		return ProbeBadStatus, fmt.Errorf("%w: %d", ErrProbeStatus, resp.StatusCode)
	}
	return ProbeOK, nil
}

// ClassifyError maps a failed request error to a probe status.
// Timeouts are checked first, then failures reported by the proxy itself
// (HTTP CONNECT or SOCKS handshake); everything else is a request error.
func ClassifyError(err error) ProbeStatus {
	if err == nil {
		return ProbeOK
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ProbeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ProbeTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == "proxyconnect" || strings.HasPrefix(opErr.Op, "socks") {
			return ProbeProxyError
		}
	}
	return ProbeRequestError
}

// Validator filters candidates down to the ones that pass a probe.
type Validator struct {
	prober      Prober
	concurrency int
	logger      *slog.Logger
	rng         rotate.Rand
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithConcurrency sets the maximum number of probes in flight.
// Default is 50 if not specified.
func WithConcurrency(n int) ValidatorOption {
	return func(v *Validator) {
		if n > 0 {
			v.concurrency = n
		}
	}
}

// WithValidatorLogger sets the logger for probe results.
func WithValidatorLogger(logger *slog.Logger) ValidatorOption {
	return func(v *Validator) {
		v.logger = logger
	}
}

// WithValidatorRand sets the random source used to pick the user agent.
func WithValidatorRand(rng rotate.Rand) ValidatorOption {
	return func(v *Validator) {
		if rng != nil {
			v.rng = rng
		}
	}
}

// NewValidator creates a Validator that probes with the given prober.
func NewValidator(prober Prober, opts ...ValidatorOption) *Validator {
	v := &Validator{
		prober:      prober,
		concurrency: DefaultValidateConcurrency,
		rng:         rotate.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}
	return v
}

// Filter probes every candidate concurrently and returns the ones that
// answered with HTTP 200. One user agent is picked at random for the
// whole pass. The order of the result is unspecified.
//
// Blank candidates are rejected without a network call. If ctx is
// cancelled, candidates not yet probed are skipped and ctx.Err() is
// returned along with whatever passed so far.
func (v *Validator) Filter(ctx context.Context, candidates []model.ProxyCandidate, agents *model.UserAgentPool) ([]model.ProxyCandidate, error) {
	userAgent, err := rotate.PickUserAgent(agents, v.rng)
	if err != nil {
		return nil, fmt.Errorf("failed to pick user agent for validation: %w", err)
	}

	v.logger.Info("validating proxies",
		"candidates", len(candidates),
		"concurrency", v.concurrency,
	)
	start := time.Now()

	var (
		mu      sync.Mutex
		working = make([]model.ProxyCandidate, 0)
		g       errgroup.Group
	)
	g.SetLimit(v.concurrency)

	for _, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		if c.IsEmpty() {
			v.logger.Debug("skipping empty proxy candidate")
			continue
		}

		g.Go(func() error {
			status, err := v.prober.Probe(ctx, c, userAgent)
			if status != ProbeOK {
				v.logger.Debug("proxy not working",
					"proxy", c.String(),
					"status", status.String(),
					"error", err,
				)
				return nil
			}

			v.logger.Info("good proxy found", "proxy", c.String())
			mu.Lock()
			working = append(working, c)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // probe goroutines never return errors

	v.logger.Info("proxy validation complete",
		"working", len(working),
		"candidates", len(candidates),
		"elapsed", time.Since(start),
	)

	return working, ctx.Err()
}
