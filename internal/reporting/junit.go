// Package reporting renders a validation report as JUnit XML so CI systems
// can surface per-check outcomes in their test-report UIs.
package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"

	"github.com/amiya-ps-559/dab-project/internal/checks"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one validation run.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one check.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

// JUnitFailure represents a check whose condition did not hold.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitError represents a check that could not be evaluated.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
}

// JUnitSkipped marks a check abandoned by an aborted run.
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit converts a validation report to JUnit XML form.
func ConvertToJUnit(report *checks.Report) *JUnitTestSuites {
	digest := report.Digest()
	durationSec := float64(report.DurationMs) / 1000.0

	suite := JUnitTestSuite{
		Name:      fmt.Sprintf("validation:%s", report.Environment),
		Tests:     digest.Total,
		Failures:  digest.Failed,
		Errors:    digest.Errors,
		Skipped:   digest.Skipped,
		Time:      durationSec,
		Timestamp: report.StartedAt.Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "environment", Value: report.Environment},
			{Name: "outcome", Value: string(report.Outcome())},
		},
	}

	for _, res := range report.Results {
		suite.TestCases = append(suite.TestCases, convertResult(report.Environment, res))
	}

	return &JUnitTestSuites{
		Tests:      digest.Total,
		Failures:   digest.Failed,
		Errors:     digest.Errors,
		Time:       durationSec,
		TestSuites: []JUnitTestSuite{suite},
	}
}

func convertResult(environment string, res checks.CheckResult) JUnitTestCase {
	tc := JUnitTestCase{
		Name:      res.Spec.Name(),
		Classname: environment,
		Time:      float64(res.DurationMs) / 1000.0,
	}

	switch res.Status {
	case checks.StatusFailed:
		tc.Failure = &JUnitFailure{
			Message: res.Message,
			Type:    "CheckFailure",
			Body:    failureBody(res),
		}
	case checks.StatusError:
		tc.Error = &JUnitError{
			Message: res.Message,
			Type:    "ProbeError",
		}
	case checks.StatusSkipped:
		tc.Skipped = &JUnitSkipped{Message: res.Message}
	}

	return tc
}

func failureBody(res checks.CheckResult) string {
	if res.Observed == nil {
		return res.Message
	}
	return fmt.Sprintf("%s (observed=%d)", res.Message, *res.Observed)
}

// WriteJUnitXML writes JUnit XML for the report to the specified file path.
func WriteJUnitXML(report *checks.Report, path string) error {
	suites := ConvertToJUnit(report)

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	output := append([]byte(xml.Header), data...)
	return os.WriteFile(path, output, 0644)
}
