package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/autodork/internal/input"
	"github.com/nao1215/autodork/internal/model"
	"github.com/nao1215/autodork/internal/proxy"
)

// Step names, recorded in model.Run.PerformedSteps.
const (
	StepLoadInputs      = "load_inputs"
	StepFetchProxies    = "fetch_proxies"
	StepValidateProxies = "validate_proxies"
	StepPrepareResults  = "prepare_results"
	StepDispatch        = "dispatch"
)

// LoadInputsStep reads the dorks file and the user-agent pool.
type LoadInputsStep struct {
	dorksPath      string
	userAgentsPath string

	// randomAgents, when positive, replaces the user-agent file with that
	// many generated user agents.
	randomAgents int
}

// NewLoadInputsStep creates the input loading step.
func NewLoadInputsStep(dorksPath, userAgentsPath string, randomAgents int) *LoadInputsStep {
	return &LoadInputsStep{
		dorksPath:      dorksPath,
		userAgentsPath: userAgentsPath,
		randomAgents:   randomAgents,
	}
}

// Name returns the step name.
func (s *LoadInputsStep) Name() string {
	return StepLoadInputs
}

// Do loads dorks and user agents into the run.
func (s *LoadInputsStep) Do(_ context.Context, run *model.Run) error {
	dorks, err := input.LoadDorks(s.dorksPath)
	if err != nil {
		return err
	}

	var agents *model.UserAgentPool
	if s.randomAgents > 0 {
		agents, err = input.RandomUserAgents(s.randomAgents)
	} else {
		agents, err = input.LoadUserAgents(s.userAgentsPath)
	}
	if err != nil {
		return err
	}

	run.Dorks = dorks
	run.UserAgents = agents
	return nil
}

// FetchProxiesStep pulls raw candidates from a proxy source.
type FetchProxiesStep struct {
	source proxy.Source
	logger *slog.Logger
}

// NewFetchProxiesStep creates the proxy fetching step.
func NewFetchProxiesStep(source proxy.Source, logger *slog.Logger) *FetchProxiesStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchProxiesStep{source: source, logger: logger}
}

// Name returns the step name.
func (s *FetchProxiesStep) Name() string {
	return StepFetchProxies
}

// Do fetches candidates into the run.
func (s *FetchProxiesStep) Do(ctx context.Context, run *model.Run) error {
	candidates, err := s.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to get proxies: %w", err)
	}
	s.logger.Info("loaded proxy candidates", "count", len(candidates))
	run.Candidates = candidates
	return nil
}

// ValidateProxiesStep keeps only the candidates that pass a probe.
type ValidateProxiesStep struct {
	validator *proxy.Validator
	logger    *slog.Logger
}

// NewValidateProxiesStep creates the validation step.
func NewValidateProxiesStep(validator *proxy.Validator, logger *slog.Logger) *ValidateProxiesStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidateProxiesStep{validator: validator, logger: logger}
}

// Name returns the step name.
func (s *ValidateProxiesStep) Name() string {
	return StepValidateProxies
}

// Do validates the run's candidates. An empty working set is not an
// error here; every dork will then end exhausted without a search call.
func (s *ValidateProxiesStep) Do(ctx context.Context, run *model.Run) error {
	working, err := s.validator.Filter(ctx, run.Candidates, run.UserAgents)
	if err != nil {
		return err
	}
	if len(working) == 0 {
		s.logger.Warn("no working proxies found", "candidates", len(run.Candidates))
	}
	run.WorkingProxies = model.NewWorkingProxySet(working)
	return nil
}

// Preparer creates the output location before dispatch.
type Preparer interface {
	Prepare() error
}

// PrepareResultsStep makes sure the results directory exists.
type PrepareResultsStep struct {
	preparer Preparer
}

// NewPrepareResultsStep creates the results preparation step.
func NewPrepareResultsStep(p Preparer) *PrepareResultsStep {
	return &PrepareResultsStep{preparer: p}
}

// Name returns the step name.
func (s *PrepareResultsStep) Name() string {
	return StepPrepareResults
}

// Do creates the results directory.
func (s *PrepareResultsStep) Do(_ context.Context, _ *model.Run) error {
	return s.preparer.Prepare()
}

// DispatchStep runs every dork through the orchestrator.
type DispatchStep struct {
	orchestrator *Orchestrator
	callback     ReportCallback
}

// NewDispatchStep creates the dispatch step. cb may be nil.
func NewDispatchStep(o *Orchestrator, cb ReportCallback) *DispatchStep {
	return &DispatchStep{orchestrator: o, callback: cb}
}

// Name returns the step name.
func (s *DispatchStep) Name() string {
	return StepDispatch
}

// Do dispatches the run's dorks and stores the reports.
// Individual dork failures are recorded in the reports, not returned.
func (s *DispatchStep) Do(ctx context.Context, run *model.Run) error {
	run.Reports = s.orchestrator.RunWithCallback(ctx, run.Dorks, run.WorkingProxies, run.UserAgents, s.callback)
	return nil
}
