package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/autodork/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultDispatchConcurrency is the maximum number of dorks in flight.
const DefaultDispatchConcurrency = 20

// Dispatcher runs one dork to a terminal state.
type Dispatcher interface {
	Dispatch(ctx context.Context, term model.DorkQuery, proxies *model.WorkingProxySet, agents *model.UserAgentPool) *model.DispatchReport
}

// ReportCallback is called once per dork as soon as it settles.
// It runs on the dispatching goroutine and must be safe for concurrent use.
type ReportCallback func(report *model.DispatchReport, index int)

// Orchestrator dispatches many dorks concurrently with a bound on how
// many run at once. A dork that exhausts its retries never stops the
// others.
type Orchestrator struct {
	dispatcher  Dispatcher
	concurrency int
	logger      *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithConcurrency sets the maximum number of dorks dispatched at once.
// Default is 20 if not specified.
func WithConcurrency(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithOrchestratorLogger sets the logger.
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// NewOrchestrator creates an Orchestrator around dispatcher.
func NewOrchestrator(dispatcher Dispatcher, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		dispatcher:  dispatcher,
		concurrency: DefaultDispatchConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Run dispatches every dork and returns their reports in input order.
func (o *Orchestrator) Run(ctx context.Context, dorks []model.DorkQuery, proxies *model.WorkingProxySet, agents *model.UserAgentPool) []*model.DispatchReport {
	return o.RunWithCallback(ctx, dorks, proxies, agents, nil)
}

// RunWithCallback dispatches every dork, calling cb (if non-nil) for each
// one as it settles, and returns the reports in input order.
//
// Once ctx is cancelled, dorks that have not started are reported as
// cancelled without being dispatched.
func (o *Orchestrator) RunWithCallback(
	ctx context.Context,
	dorks []model.DorkQuery,
	proxies *model.WorkingProxySet,
	agents *model.UserAgentPool,
	cb ReportCallback,
) []*model.DispatchReport {
	o.logger.Info("dispatching dorks",
		"dorks", len(dorks),
		"working_proxies", proxies.Len(),
		"concurrency", o.concurrency,
	)
	start := time.Now()

	// Each goroutine writes only its own index.
	reports := make([]*model.DispatchReport, len(dorks))

	var g errgroup.Group
	g.SetLimit(o.concurrency)

	for i, dork := range dorks {
		g.Go(func() error {
			var report *model.DispatchReport
			if err := ctx.Err(); err != nil {
				report = model.NewDispatchReport(dork)
				report.Finish(model.OutcomeCancelled, err)
			} else {
				report = o.dispatcher.Dispatch(ctx, dork, proxies, agents)
			}

			reports[i] = report
			if cb != nil {
				cb(report, i)
			}
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // dispatch goroutines never return errors

	o.logger.Info("dispatch complete",
		"dorks", len(dorks),
		"elapsed", time.Since(start),
	)
	return reports
}
