package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/autodork/internal/model"
	"github.com/nao1215/autodork/internal/rotate"
	"github.com/nao1215/autodork/internal/search"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3

	// DefaultBackoffFactor scales the exponential part of the backoff.
	DefaultBackoffFactor = 1.0

	// DefaultBackoffUnit is the time unit the backoff formula is expressed in.
	DefaultBackoffUnit = time.Second
)

// ErrNoWorkingProxies is returned when dispatch starts with an empty
// working proxy set.
var ErrNoWorkingProxies = errors.New("no working proxies available")

// ResultWriter persists the URLs found for a dork.
type ResultWriter interface {
	Write(dork string, urls []string) (path string, n int, err error)
}

// Dispatcher runs dorks against a search client with retries.
// A single Dispatcher is safe for concurrent use by many goroutines.
type Dispatcher struct {
	client        search.Client
	writer        ResultWriter
	maxRetries    int
	backoffFactor float64
	backoffUnit   time.Duration
	rng           rotate.Rand
	sleep         Sleeper
	logger        *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMaxRetries sets how many times a failed attempt is retried.
// Zero means a single attempt.
func WithMaxRetries(n int) Option {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.maxRetries = n
		}
	}
}

// WithBackoffFactor sets the multiplier of the exponential backoff.
func WithBackoffFactor(f float64) Option {
	return func(d *Dispatcher) {
		if f >= 0 {
			d.backoffFactor = f
		}
	}
}

// WithBackoffUnit sets the time unit of the backoff formula.
func WithBackoffUnit(u time.Duration) Option {
	return func(d *Dispatcher) {
		if u > 0 {
			d.backoffUnit = u
		}
	}
}

// WithRand sets the random source for picks and jitter.
func WithRand(rng rotate.Rand) Option {
	return func(d *Dispatcher) {
		if rng != nil {
			d.rng = rng
		}
	}
}

// WithSleeper replaces the backoff sleep.
func WithSleeper(s Sleeper) Option {
	return func(d *Dispatcher) {
		if s != nil {
			d.sleep = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// New creates a Dispatcher.
func New(client search.Client, writer ResultWriter, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client:        client,
		writer:        writer,
		maxRetries:    DefaultMaxRetries,
		backoffFactor: DefaultBackoffFactor,
		backoffUnit:   DefaultBackoffUnit,
		rng:           rotate.Default(),
		sleep:         SleepContext,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// MaxRetries returns the configured retry budget.
func (d *Dispatcher) MaxRetries() int {
	return d.maxRetries
}

// Dispatch runs term to a terminal state and reports how it ended.
// It issues at most MaxRetries+1 search calls and never sleeps after the
// last failed attempt.
func (d *Dispatcher) Dispatch(ctx context.Context, term model.DorkQuery, proxies *model.WorkingProxySet, agents *model.UserAgentPool) *model.DispatchReport {
	report := model.NewDispatchReport(term)
	logger := d.logger.With("dork", term.String())

	logger.Info("searching for dork")

	if proxies.Len() == 0 {
		logger.Warn("no working proxies, giving up")
		report.Finish(model.OutcomeExhausted, ErrNoWorkingProxies)
		return report
	}

	retries := 0
	for {
		if err := ctx.Err(); err != nil {
			report.Finish(model.OutcomeCancelled, err)
			return report
		}

		urls, err := d.attempt(ctx, term, proxies, agents, report)
		if err == nil {
			return d.settle(term, urls, report, logger)
		}

		if ctx.Err() != nil {
			report.Finish(model.OutcomeCancelled, err)
			return report
		}

		retries++
		if retries > d.maxRetries {
			logger.Warn("retries exhausted",
				"attempts", report.Attempts,
				"error", err,
			)
			report.Finish(model.OutcomeExhausted, err)
			return report
		}

		wait := Delay(retries, d.backoffFactor, d.backoffUnit, d.rng)
		logger.Debug("search failed, rotating proxy",
			"attempt", report.Attempts,
			"error", err,
			"backoff", wait,
		)
		report.LastError = err.Error()

		if err := d.sleep(ctx, wait); err != nil {
			report.Finish(model.OutcomeCancelled, err)
			return report
		}
	}
}

// attempt performs one search with a freshly picked proxy and user agent.
func (d *Dispatcher) attempt(ctx context.Context, term model.DorkQuery, proxies *model.WorkingProxySet, agents *model.UserAgentPool, report *model.DispatchReport) ([]string, error) {
	p, err := rotate.PickProxy(proxies, d.rng)
	if err != nil {
		return nil, err
	}
	// An empty pool falls back to the HTTP client's default user agent.
	ua, _ := rotate.PickUserAgent(agents, d.rng) //nolint:errcheck // empty pool is allowed

	report.Attempts++
	urls, err := d.client.Query(ctx, term.String(), ua, p)
	if err != nil {
		return nil, fmt.Errorf("proxy %s: %w", p, err)
	}
	return urls, nil
}

// settle records a successful search, writing results when there are any.
func (d *Dispatcher) settle(term model.DorkQuery, urls []string, report *model.DispatchReport, logger *slog.Logger) *model.DispatchReport {
	report.LastError = ""
	if len(urls) == 0 {
		logger.Info("no results found")
		report.Finish(model.OutcomeEmpty, nil)
		return report
	}

	path, n, err := d.writer.Write(term.String(), urls)
	if err != nil {
		logger.Error("failed to save results", "error", err)
		report.Finish(model.OutcomeFailed, err)
		return report
	}

	report.ResultFile = path
	report.ResultCount = n
	logger.Info("saved results", "count", n, "file", path)
	report.Finish(model.OutcomeFound, nil)
	return report
}
