package probe

import (
	"context"
	"fmt"
	"sync"
)

// FixtureProbe is an in-memory Probe for tests. It serves answers from a
// fixture of tables and jobs, can be scripted to fail transiently, and counts
// every call so tests can assert that no probe traffic happened.
type FixtureProbe struct {
	mu       sync.Mutex
	tables   map[string]int64
	jobs     map[string]bool
	failures map[string]int // remaining transient failures per op/target
	calls    int
}

// NewFixtureProbe creates an empty fixture probe.
func NewFixtureProbe() *FixtureProbe {
	return &FixtureProbe{
		tables:   map[string]int64{},
		jobs:     map[string]bool{},
		failures: map[string]int{},
	}
}

// SetTable registers a table with the given row count.
func (p *FixtureProbe) SetTable(name string, rows int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tables[name] = rows
}

// SetJob registers a scheduled job.
func (p *FixtureProbe) SetJob(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs[name] = true
}

// FailNext makes the next n calls of op against target return a
// *ConnectionError before real answers resume.
func (p *FixtureProbe) FailNext(op, target string, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[op+"/"+target] = n
}

// Calls returns the total number of probe invocations observed.
func (p *FixtureProbe) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *FixtureProbe) begin(op, target string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	key := op + "/" + target
	if p.failures[key] > 0 {
		p.failures[key]--
		return &ConnectionError{Op: op, Target: target, Err: fmt.Errorf("injected transient failure")}
	}
	return nil
}

func (p *FixtureProbe) TableExists(ctx context.Context, name string) (bool, error) {
	if err := p.begin("table_exists", name); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.tables[name]
	return ok, nil
}

func (p *FixtureProbe) RowCount(ctx context.Context, name string) (int64, error) {
	if err := p.begin("row_count", name); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	rows, ok := p.tables[name]
	if !ok {
		return 0, &NotFoundError{Target: name}
	}
	return rows, nil
}

func (p *FixtureProbe) JobExists(ctx context.Context, name string) (bool, error) {
	if err := p.begin("job_exists", name); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jobs[name], nil
}
