package checks

import "time"

// Status represents the outcome status of a single check.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
	// StatusError means the check could not be evaluated (probe failures
	// persisting past the retry budget, timeouts). Distinct from failed,
	// which means the check ran and the condition did not hold.
	StatusError Status = "error"
	// StatusSkipped marks checks abandoned because the run was canceled.
	StatusSkipped Status = "skipped"
)

// CheckResult is the recorded outcome of evaluating one CheckSpec.
// Immutable after the runner records it; owned by the report.
type CheckResult struct {
	Spec       CheckSpec `json:"spec"`
	Status     Status    `json:"status"`
	Observed   *int64    `json:"observed,omitempty"`
	Message    string    `json:"message"`
	Attempts   int       `json:"attempts"`
	DurationMs int64     `json:"duration_ms"`
}

// Outcome is the overall result of a validation run.
type Outcome string

const (
	OutcomePassed Outcome = "passed"
	OutcomeFailed Outcome = "failed"
	// OutcomeAborted marks a partial run: the driver was interrupted and the
	// report only covers the checks that completed. Never reported as passed.
	OutcomeAborted Outcome = "aborted"
)

// Digest holds per-status counts for machine consumers.
type Digest struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errors  int `json:"errors"`
	Skipped int `json:"skipped"`
}

// Report aggregates the results of one validation run. Results appear in the
// same order as the specs they were produced from, one result per spec.
type Report struct {
	Environment string        `json:"environment"`
	StartedAt   time.Time     `json:"started_at"`
	DurationMs  int64         `json:"duration_ms"`
	Aborted     bool          `json:"aborted,omitempty"`
	Results     []CheckResult `json:"checks"`
}

// Digest counts results by status.
func (r *Report) Digest() Digest {
	d := Digest{Total: len(r.Results)}
	for _, res := range r.Results {
		switch res.Status {
		case StatusPassed:
			d.Passed++
		case StatusFailed:
			d.Failed++
		case StatusError:
			d.Errors++
		case StatusSkipped:
			d.Skipped++
		}
	}
	return d
}

// Outcome computes the overall gate decision. Passed requires a complete run
// in which every check passed; errors count as failing for gating purposes.
func (r *Report) Outcome() Outcome {
	if r.Aborted {
		return OutcomeAborted
	}
	for _, res := range r.Results {
		if res.Status != StatusPassed {
			return OutcomeFailed
		}
	}
	return OutcomePassed
}
