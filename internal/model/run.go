package model

import "time"

// Run is the state shared by the pipeline steps for one batch.
// Each step reads what the previous steps filled in and adds its own part.
type Run struct {
	// ID is the history database identifier, zero when history is disabled.
	ID int64 `json:"id,omitempty"`

	// Dorks are the queries loaded from the dorks file.
	Dorks []DorkQuery `json:"dorks"`

	// UserAgents is the pool rotated across requests.
	UserAgents *UserAgentPool `json:"-"`

	// Candidates are the raw proxies from the proxy source.
	Candidates []ProxyCandidate `json:"-"`

	// WorkingProxies are the candidates that passed validation.
	WorkingProxies *WorkingProxySet `json:"-"`

	// Reports holds one entry per dork, in input order.
	Reports []*DispatchReport `json:"reports"`

	// PerformedSteps lists the pipeline steps that completed.
	PerformedSteps []string `json:"performed_steps"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewRun creates an empty run stamped with the current time.
func NewRun() *Run {
	return &Run{
		StartedAt:      time.Now(),
		PerformedSteps: make([]string, 0),
	}
}

// AddStep records that a pipeline step completed.
func (r *Run) AddStep(name string) {
	r.PerformedSteps = append(r.PerformedSteps, name)
}

// Summary builds the aggregate view of the run.
func (r *Run) Summary() *RunSummary {
	s := &RunSummary{
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		DorkCount:      len(r.Dorks),
		CandidateCount: len(r.Candidates),
		WorkingCount:   r.WorkingProxies.Len(),
		UserAgentCount: r.UserAgents.Len(),
		Outcomes:       make(map[Outcome]int),
		Reports:        r.Reports,
	}
	for _, rep := range r.Reports {
		if rep == nil {
			continue
		}
		s.Outcomes[rep.Outcome]++
		s.TotalResults += rep.ResultCount
		s.TotalAttempts += rep.Attempts
	}
	return s
}

// RunSummary is the aggregate of one run, consumed by report writers.
type RunSummary struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	DorkCount      int `json:"dork_count"`
	CandidateCount int `json:"candidate_count"`
	WorkingCount   int `json:"working_proxy_count"`
	UserAgentCount int `json:"user_agent_count"`

	// Outcomes counts reports by terminal state.
	Outcomes map[Outcome]int `json:"outcomes"`

	TotalResults  int `json:"total_results"`
	TotalAttempts int `json:"total_attempts"`

	Reports []*DispatchReport `json:"reports"`
}

// Count returns how many dorks ended in the given outcome.
func (s *RunSummary) Count(o Outcome) int {
	return s.Outcomes[o]
}

// Elapsed returns the wall-clock duration of the run.
func (s *RunSummary) Elapsed() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// HasFailures reports whether any dork was exhausted or failed to persist.
func (s *RunSummary) HasFailures() bool {
	return s.Count(OutcomeExhausted) > 0 || s.Count(OutcomeFailed) > 0
}
