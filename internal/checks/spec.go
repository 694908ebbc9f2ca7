// Package checks implements the post-deployment validation engine: check
// specifications, the concurrent runner that evaluates them against a probe,
// and the aggregated report consumed by the CI driver.
package checks

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Kind identifies the type of a validation check.
type Kind string

const (
	// KindTableExists asserts that a table is present in the workspace.
	KindTableExists Kind = "table_exists"
	// KindRowCountMin asserts that a table holds at least params.min rows.
	KindRowCountMin Kind = "row_count_min"
	// KindJobExists asserts that a scheduled job with the target name exists.
	KindJobExists Kind = "job_exists"
)

// Known reports whether k is a recognized check kind.
func (k Kind) Known() bool {
	switch k {
	case KindTableExists, KindRowCountMin, KindJobExists:
		return true
	}
	return false
}

// CheckSpec is one declared assertion about deployed platform state.
// Immutable once loaded from configuration.
type CheckSpec struct {
	Kind   Kind           `yaml:"kind" json:"kind"`
	Target string         `yaml:"target" json:"target"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// Name returns a stable identifier for the check, used in reports.
func (s CheckSpec) Name() string {
	return fmt.Sprintf("%s %s", s.Kind, s.Target)
}

// MinRows decodes the row_count_min parameters. Only meaningful for
// KindRowCountMin.
func (s CheckSpec) MinRows() (int64, error) {
	var v struct {
		Min *int64 `mapstructure:"min"`
	}
	if err := mapstructure.Decode(s.Params, &v); err != nil {
		return 0, fmt.Errorf("check %s: decoding params: %w", s.Name(), err)
	}
	if v.Min == nil {
		return 0, fmt.Errorf("check %s: params.min is required", s.Name())
	}
	if *v.Min < 0 {
		return 0, fmt.Errorf("check %s: params.min must be non-negative, got %d", s.Name(), *v.Min)
	}
	return *v.Min, nil
}

// Validate checks the spec for semantic problems the schema may not have
// caught (unknown kind, empty target, bad kind-specific params).
func (s CheckSpec) Validate() error {
	if !s.Kind.Known() {
		return fmt.Errorf("unknown check kind %q", s.Kind)
	}
	if s.Target == "" {
		return fmt.Errorf("%s check has an empty target", s.Kind)
	}
	if s.Kind == KindRowCountMin {
		if _, err := s.MinRows(); err != nil {
			return err
		}
	}
	return nil
}
