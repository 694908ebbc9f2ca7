package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func result(status Status) CheckResult {
	return CheckResult{
		Spec:   CheckSpec{Kind: KindTableExists, Target: "sales.orders"},
		Status: status,
	}
}

func TestReport_Digest(t *testing.T) {
	r := &Report{
		Environment: "dev",
		Results: []CheckResult{
			result(StatusPassed),
			result(StatusPassed),
			result(StatusFailed),
			result(StatusError),
			result(StatusSkipped),
		},
	}

	d := r.Digest()
	assert.Equal(t, Digest{Total: 5, Passed: 2, Failed: 1, Errors: 1, Skipped: 1}, d)
}

func TestReport_Outcome(t *testing.T) {
	tests := []struct {
		name    string
		results []CheckResult
		aborted bool
		want    Outcome
	}{
		{
			name:    "all passed",
			results: []CheckResult{result(StatusPassed), result(StatusPassed)},
			want:    OutcomePassed,
		},
		{
			name:    "single fail forces overall fail",
			results: []CheckResult{result(StatusPassed), result(StatusFailed)},
			want:    OutcomeFailed,
		},
		{
			name:    "single error forces overall fail",
			results: []CheckResult{result(StatusPassed), result(StatusError)},
			want:    OutcomeFailed,
		},
		{
			name:    "aborted run is never a pass",
			results: []CheckResult{result(StatusPassed), result(StatusSkipped)},
			aborted: true,
			want:    OutcomeAborted,
		},
		{
			name: "no checks",
			want: OutcomePassed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Report{Environment: "dev", Results: tt.results, Aborted: tt.aborted}
			assert.Equal(t, tt.want, r.Outcome())
		})
	}
}
