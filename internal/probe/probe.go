// Package probe defines the capability interface through which validation
// checks query live workspace state, plus the error taxonomy shared by its
// implementations. Production code talks to the Databricks REST APIs (see the
// databricks subpackage); tests use the in-memory FixtureProbe.
package probe

import (
	"context"
	"errors"
	"fmt"
)

// Probe answers existence and count queries against a deployed environment.
// Implementations must be safe for concurrent use; the check runner calls
// them from multiple workers.
type Probe interface {
	// TableExists reports whether the named table is present.
	TableExists(ctx context.Context, name string) (bool, error)

	// RowCount returns the number of rows in the named table. It fails with
	// *NotFoundError when the table does not exist.
	RowCount(ctx context.Context, name string) (int64, error)

	// JobExists reports whether a scheduled job with the given name exists.
	JobExists(ctx context.Context, name string) (bool, error)
}

// ConnectionError wraps a transient transport, auth, or server-side failure.
// Callers treat it as retryable; a deterministic "object is absent" answer is
// never a ConnectionError.
type ConnectionError struct {
	Op     string // probe operation, e.g. "row_count"
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("probe %s %q: %v", e.Op, e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// NotFoundError indicates the queried object does not exist where existence
// was a precondition of the query (e.g. counting rows of a missing table).
// It reflects real platform state, so checks record it as a failure rather
// than an evaluation error.
type NotFoundError struct {
	Target string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("target not found: %s", e.Target)
}

// IsConnection reports whether err is (or wraps) a *ConnectionError.
func IsConnection(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err is (or wraps) a *NotFoundError.
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}
