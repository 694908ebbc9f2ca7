// Package coverage implements the unit-test coverage gate: an independent
// pass/fail decision comparing a measured coverage percentage against a
// configured threshold. It runs at a different pipeline stage than the
// post-deployment checks (post-test, pre-deploy).
package coverage

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// DefaultThreshold is the minimum coverage percentage required when no
// override is given.
const DefaultThreshold = 80.0

// BelowThresholdError carries both sides of a failed coverage comparison.
type BelowThresholdError struct {
	Percent   float64
	Threshold float64
}

func (e *BelowThresholdError) Error() string {
	return fmt.Sprintf("coverage %.1f%% is below the required threshold %.1f%%", e.Percent, e.Threshold)
}

// Gate compares coverage measurements against a threshold.
type Gate struct {
	Threshold float64
}

// NewGate creates a gate. A threshold of 0 keeps the default.
func NewGate(threshold float64) *Gate {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Gate{Threshold: threshold}
}

// Evaluate passes iff percent >= threshold (boundary inclusive). Failure is
// a *BelowThresholdError.
func (g *Gate) Evaluate(percent float64) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("coverage percentage %.1f is outside 0-100", percent)
	}
	if percent < g.Threshold {
		return &BelowThresholdError{Percent: percent, Threshold: g.Threshold}
	}
	return nil
}

// coverageLine matches test-runner summary lines such as
// "coverage: 82.5% of statements".
var coverageLine = regexp.MustCompile(`coverage:\s*([0-9]+(?:\.[0-9]+)?)%`)

// ParsePercent extracts a coverage percentage from s. It accepts a bare
// number ("82.5"), a percentage ("82.5%"), or test-runner output containing
// one or more "coverage: NN.N% of statements" lines, in which case the last
// line wins (matching how multi-package output ends with the aggregate).
func ParsePercent(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(strings.TrimSuffix(trimmed, "%"), 64); err == nil {
		return v, nil
	}
	matches := coverageLine.FindAllStringSubmatch(trimmed, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("no coverage percentage found in input")
	}
	last := matches[len(matches)-1]
	return strconv.ParseFloat(last[1], 64)
}

// ParseFile reads a file and extracts a coverage percentage from its contents.
func ParseFile(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading coverage input: %w", err)
	}
	return ParsePercent(string(data))
}
