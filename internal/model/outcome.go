package model

import "fmt"

// Outcome is the terminal state of one dork dispatch.
type Outcome int

const (
	// OutcomeUnknown is the zero value and never a terminal state.
	OutcomeUnknown Outcome = iota

	// OutcomeFound means at least one result URL was written to disk.
	OutcomeFound

	// OutcomeEmpty means the search succeeded but returned no results.
	// This is terminal; the dork is not retried.
	OutcomeEmpty

	// OutcomeExhausted means every allowed attempt failed.
	OutcomeExhausted

	// OutcomeCancelled means the run was cancelled before the dork settled.
	OutcomeCancelled

	// OutcomeFailed means results were found but could not be persisted.
	OutcomeFailed
)

const outcomeUnknownStr = "unknown"

// String returns the lower-case name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeEmpty:
		return "empty"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return outcomeUnknownStr
	}
}

// MarshalText implements encoding.TextMarshaler so outcomes serialize by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseOutcome converts a name produced by String back into an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	for _, o := range AllOutcomes() {
		if o.String() == s {
			return o, nil
		}
	}
	return OutcomeUnknown, fmt.Errorf("unknown outcome %q", s)
}

// AllOutcomes returns every terminal outcome in display order.
func AllOutcomes() []Outcome {
	return []Outcome{OutcomeFound, OutcomeEmpty, OutcomeExhausted, OutcomeFailed, OutcomeCancelled}
}

// IsSuccess reports whether the dork completed without exhausting retries.
// Both found and empty count as success.
func (o Outcome) IsSuccess() bool {
	return o == OutcomeFound || o == OutcomeEmpty
}
