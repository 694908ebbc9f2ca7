package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amiya-ps-559/dab-project/internal/coverage"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "nil error",
			want: ExitSuccess,
		},
		{
			name: "check failure",
			err:  &CheckFailureError{Message: "validation failed: 2 failed, 0 error(s) out of 5 checks"},
			want: ExitCheckFailed,
		},
		{
			name: "coverage below threshold",
			err:  &coverage.BelowThresholdError{Percent: 79.9, Threshold: 80},
			want: ExitCheckFailed,
		},
		{
			name: "aborted run",
			err:  &AbortedError{Message: "validation aborted: 3 of 5 checks completed"},
			want: ExitAborted,
		},
		{
			name: "config error",
			err:  errors.New("parsing config validation.yaml: no such file"),
			want: ExitConfigError,
		},
		{
			name: "wrapped check failure",
			err:  fmt.Errorf("running gate: %w", &CheckFailureError{Message: "failed"}),
			want: ExitCheckFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
