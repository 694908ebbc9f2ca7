package checks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/amiya-ps-559/dab-project/internal/probe"
)

// Defaults for runner tuning. Overridable per run via options or config.
const (
	DefaultWorkers        = 4
	DefaultCheckTimeout   = 60 * time.Second
	DefaultRetryAttempts  = 3
	DefaultInitialBackoff = 500 * time.Millisecond
)

// RetryPolicy bounds how transient probe failures are retried before a check
// is marked as status=error.
type RetryPolicy struct {
	Attempts       int
	InitialBackoff time.Duration
}

// Runner evaluates check specs against a probe. Checks are independent: a
// failing or erroring check never stops the rest of the run.
type Runner struct {
	probe        probe.Probe
	workers      int
	checkTimeout time.Duration
	retry        RetryPolicy
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers bounds check concurrency. Values below 1 fall back to the default.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithCheckTimeout caps the total elapsed time of a single check, retries
// included. Expiry marks the check as status=error.
func WithCheckTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.checkTimeout = d
		}
	}
}

// WithRetryPolicy overrides the transient-failure retry policy.
func WithRetryPolicy(p RetryPolicy) RunnerOption {
	return func(r *Runner) {
		if p.Attempts > 0 {
			r.retry.Attempts = p.Attempts
		}
		if p.InitialBackoff > 0 {
			r.retry.InitialBackoff = p.InitialBackoff
		}
	}
}

// NewRunner creates a runner backed by the given probe.
func NewRunner(p probe.Probe, opts ...RunnerOption) *Runner {
	r := &Runner{
		probe:        p,
		workers:      DefaultWorkers,
		checkTimeout: DefaultCheckTimeout,
		retry: RetryPolicy{
			Attempts:       DefaultRetryAttempts,
			InitialBackoff: DefaultInitialBackoff,
		},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run evaluates every spec and returns the aggregated report. Results are
// collected into a slice indexed by original spec position, so report order
// matches spec order regardless of completion order. When ctx is canceled,
// unstarted and in-flight checks are recorded as skipped and the report is
// marked aborted.
func (r *Runner) Run(ctx context.Context, environment string, specs []CheckSpec) *Report {
	started := time.Now()
	results := make([]CheckResult, len(specs))

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, spec := range specs {
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = skippedResult(spec)
				return nil
			}
			results[i] = r.runCheck(ctx, spec)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors; results carry status

	return &Report{
		Environment: environment,
		StartedAt:   started,
		DurationMs:  time.Since(started).Milliseconds(),
		Aborted:     ctx.Err() != nil,
		Results:     results,
	}
}

func skippedResult(spec CheckSpec) CheckResult {
	return CheckResult{
		Spec:    spec,
		Status:  StatusSkipped,
		Message: "run canceled before check executed",
	}
}

// runCheck evaluates a single spec, retrying transient probe failures with
// exponential backoff inside the per-check timeout.
func (r *Runner) runCheck(ctx context.Context, spec CheckSpec) CheckResult {
	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, r.checkTimeout)
	defer cancel()

	res := CheckResult{Spec: spec}

	backoff := retry.NewExponential(r.retry.InitialBackoff)
	backoff = retry.WithMaxRetries(uint64(r.retry.Attempts-1), backoff)

	err := retry.Do(cctx, backoff, func(ctx context.Context) error {
		res.Attempts++
		status, observed, msg, err := r.evaluate(ctx, spec)
		if err != nil {
			if probe.IsConnection(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		res.Status, res.Observed, res.Message = status, observed, msg
		return nil
	})

	switch {
	case err == nil:
		// res already populated by the successful attempt.
	case probe.IsNotFound(err):
		// Deterministic platform state: the check evaluated and did not hold.
		res.Status = StatusFailed
		res.Message = err.Error()
	case ctx.Err() != nil:
		// Parent canceled mid-flight: the run is aborting.
		res.Status = StatusSkipped
		res.Message = "run canceled before check completed"
	case errors.Is(err, context.DeadlineExceeded):
		res.Status = StatusError
		res.Message = fmt.Sprintf("check timed out after %s", r.checkTimeout)
	case probe.IsConnection(err):
		res.Status = StatusError
		res.Message = fmt.Sprintf("retries exhausted: %v", err)
	default:
		res.Status = StatusError
		res.Message = err.Error()
	}

	res.DurationMs = time.Since(start).Milliseconds()
	slog.Debug("check complete",
		"kind", spec.Kind,
		"target", spec.Target,
		"status", res.Status,
		"attempts", res.Attempts,
		"duration_ms", res.DurationMs)
	return res
}

// evaluate dispatches a single probe round by check kind. A returned error
// means the condition could not be determined this attempt; otherwise the
// check's verdict is in the returned status.
func (r *Runner) evaluate(ctx context.Context, spec CheckSpec) (Status, *int64, string, error) {
	switch spec.Kind {
	case KindTableExists:
		ok, err := r.probe.TableExists(ctx, spec.Target)
		if err != nil {
			return "", nil, "", err
		}
		if !ok {
			return StatusFailed, nil, fmt.Sprintf("table %s does not exist", spec.Target), nil
		}
		return StatusPassed, nil, fmt.Sprintf("table %s exists", spec.Target), nil

	case KindRowCountMin:
		min, err := spec.MinRows()
		if err != nil {
			return "", nil, "", err
		}
		n, err := r.probe.RowCount(ctx, spec.Target)
		if err != nil {
			return "", nil, "", err
		}
		if n < min {
			return StatusFailed, &n, fmt.Sprintf("table %s has %d rows, below minimum %d", spec.Target, n, min), nil
		}
		return StatusPassed, &n, fmt.Sprintf("table %s has %d rows (minimum %d)", spec.Target, n, min), nil

	case KindJobExists:
		ok, err := r.probe.JobExists(ctx, spec.Target)
		if err != nil {
			return "", nil, "", err
		}
		if !ok {
			return StatusFailed, nil, fmt.Sprintf("job %q not found", spec.Target), nil
		}
		return StatusPassed, nil, fmt.Sprintf("job %q is scheduled", spec.Target), nil
	}
	return "", nil, "", fmt.Errorf("unknown check kind %q", spec.Kind)
}
