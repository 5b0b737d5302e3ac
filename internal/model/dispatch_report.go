package model

import "time"

// DispatchReport records how a single dork was dispatched.
// One report is produced per dork regardless of outcome.
type DispatchReport struct {
	// Dork is the query that was dispatched.
	Dork DorkQuery `json:"dork"`

	// Outcome is the terminal state reached.
	Outcome Outcome `json:"outcome"`

	// Attempts is the number of search requests issued.
	Attempts int `json:"attempts"`

	// ResultCount is the number of URLs written to ResultFile.
	ResultCount int `json:"result_count"`

	// ResultFile is the path of the written results file, empty unless found.
	ResultFile string `json:"result_file,omitempty"`

	// LastError is the message of the last failure, if any.
	LastError string `json:"last_error,omitempty"`

	// StartedAt is when dispatch of this dork began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the dork reached its terminal state.
	FinishedAt time.Time `json:"finished_at"`
}

// NewDispatchReport creates a report for the given dork, stamped with the
// current time as its start.
func NewDispatchReport(dork DorkQuery) *DispatchReport {
	return &DispatchReport{
		Dork:      dork,
		StartedAt: time.Now(),
	}
}

// Finish records the terminal outcome and the failure, if any.
func (r *DispatchReport) Finish(outcome Outcome, err error) {
	r.Outcome = outcome
	if err != nil {
		r.LastError = err.Error()
	}
	r.FinishedAt = time.Now()
}

// Duration returns how long the dispatch took.
// It returns zero if the report has not finished.
func (r *DispatchReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
