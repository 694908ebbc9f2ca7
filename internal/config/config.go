// Package config loads and validates the declarative check specification
// consumed by the validate command. Loading is a pure parse+validate step:
// any problem here aborts before a single probe call is made.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amiya-ps-559/dab-project/internal/checks"
)

// ParseError indicates the config file could not be read or is not valid YAML.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError indicates the config parsed but violates the check schema
// (unknown kind, empty target, missing or invalid params). All violations
// are collected.
type SchemaError struct {
	Path       string
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("config %s has %d schema violation(s):\n  %s",
		e.Path, len(e.Violations), strings.Join(e.Violations, "\n  "))
}

// EnvironmentNotFoundError indicates the selected environment declares no
// checks in the config document.
type EnvironmentNotFoundError struct {
	Name     string
	Declared []string
}

func (e *EnvironmentNotFoundError) Error() string {
	if len(e.Declared) == 0 {
		return fmt.Sprintf("environment %q has no checks declared", e.Name)
	}
	return fmt.Sprintf("environment %q has no checks declared (declared environments: %s)",
		e.Name, strings.Join(e.Declared, ", "))
}

// Duration is a time.Duration that unmarshals from YAML strings like "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// RetryConfig tunes transient-failure retries. Zero values mean "use the
// runner default".
type RetryConfig struct {
	Attempts       int      `yaml:"attempts"`
	InitialBackoff Duration `yaml:"initial_backoff"`
}

// Defaults holds run-wide tuning shared by all environments.
type Defaults struct {
	Workers      int         `yaml:"workers"`
	CheckTimeout Duration    `yaml:"check_timeout"`
	Retry        RetryConfig `yaml:"retry"`
}

// Environment is the list of checks declared for one deployment environment.
type Environment struct {
	Checks []checks.CheckSpec `yaml:"checks"`
}

// Document is a fully validated check specification.
type Document struct {
	Defaults     Defaults               `yaml:"defaults"`
	Environments map[string]Environment `yaml:"environments"`
}

// Load reads, parses, and validates the config document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	violations, err := validateBytes(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if len(violations) > 0 {
		return nil, &SchemaError{Path: path, Violations: violations}
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	// Semantic validation of each check spec, with environment context in
	// the message. Catches what the structural schema cannot.
	violations = violations[:0]
	for env, e := range doc.Environments {
		for i, spec := range e.Checks {
			if err := spec.Validate(); err != nil {
				violations = append(violations, fmt.Sprintf("environments.%s.checks[%d]: %v", env, i, err))
			}
		}
	}
	if len(violations) > 0 {
		sort.Strings(violations)
		return nil, &SchemaError{Path: path, Violations: violations}
	}

	return &doc, nil
}

// Checks returns the check specs declared for the named environment, in
// declaration order. Duplicate targets are permitted; each produces an
// independent result.
func (d *Document) Checks(environment string) ([]checks.CheckSpec, error) {
	env, ok := d.Environments[environment]
	if !ok || len(env.Checks) == 0 {
		declared := make([]string, 0, len(d.Environments))
		for name := range d.Environments {
			declared = append(declared, name)
		}
		sort.Strings(declared)
		return nil, &EnvironmentNotFoundError{Name: environment, Declared: declared}
	}
	return env.Checks, nil
}

// RunnerOptions translates the document defaults into runner options,
// omitting anything left unset so runner defaults apply.
func (d *Document) RunnerOptions() []checks.RunnerOption {
	var opts []checks.RunnerOption
	if d.Defaults.Workers > 0 {
		opts = append(opts, checks.WithWorkers(d.Defaults.Workers))
	}
	if d.Defaults.CheckTimeout > 0 {
		opts = append(opts, checks.WithCheckTimeout(time.Duration(d.Defaults.CheckTimeout)))
	}
	if d.Defaults.Retry.Attempts > 0 || d.Defaults.Retry.InitialBackoff > 0 {
		opts = append(opts, checks.WithRetryPolicy(checks.RetryPolicy{
			Attempts:       d.Defaults.Retry.Attempts,
			InitialBackoff: time.Duration(d.Defaults.Retry.InitialBackoff),
		}))
	}
	return opts
}
