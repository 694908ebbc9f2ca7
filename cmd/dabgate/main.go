package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/amiya-ps-559/dab-project/internal/coverage"
)

// Exit codes consumed by the CI pipeline as the promotion gate signal.
const (
	ExitSuccess     = 0 // every check passed
	ExitCheckFailed = 1 // validation or coverage gate failed
	ExitConfigError = 2 // configuration or setup error, nothing was validated
	ExitAborted     = 3 // run interrupted; the report is partial
)

// CheckFailureError indicates the validation run completed but one or more
// checks did not pass.
type CheckFailureError struct {
	Message string
}

func (e *CheckFailureError) Error() string {
	return e.Message
}

// AbortedError indicates the run was interrupted and only a partial report
// was produced. Never mapped to success.
type AbortedError struct {
	Message string
}

func (e *AbortedError) Error() string {
	return e.Message
}

// exitCode maps an error from execute to the gate's exit code contract.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var abortErr *AbortedError
	var checkErr *CheckFailureError
	var coverageErr *coverage.BelowThresholdError
	switch {
	case errors.As(err, &abortErr):
		return ExitAborted
	case errors.As(err, &checkErr), errors.As(err, &coverageErr):
		return ExitCheckFailed
	}

	// All other errors are configuration/setup errors
	return ExitConfigError
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
