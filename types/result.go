package types

import (
	"errors"
	"time"
)

// Status represents the outcome of a case execution.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusSkip Status = "skip"
	StatusFail Status = "fail"
)

// Phase names the lifecycle step a failure was raised in.
type Phase string

const (
	PhaseInit     Phase = "init"     // fixture construction or Init
	PhaseTest     Phase = "test"     // the test function body
	PhaseFinalize Phase = "finalize" // fixture Finalize
)

// Failure is one recorded case failure.
type Failure struct {
	Phase Phase
	Err   error
}

// PreFinalize reports whether the failure happened before teardown began.
func (f Failure) PreFinalize() bool {
	return f.Phase != PhaseFinalize
}

// LogEntry is a retained log line of a case.
type LogEntry struct {
	Time  time.Time
	Level string
	Msg   string
	Ctx   []any
}

// CaseResult captures the outcome of a single case run.
type CaseResult struct {
	Group      string
	ID         CaseID
	Status     Status
	Failures   []Failure // In the order they were recorded
	SkipReason string
	Warnings   int
	Logs       []LogEntry
	Debug      bool
	StartTime  time.Time
	Duration   time.Duration
	TimedOut   bool // Set by the harness when the case exceeded its deadline
	Sealed     bool
}

// Reason returns the error that decided the case's failure: the first
// recorded failure, or nil.
func (r *CaseResult) Reason() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return r.Failures[0].Err
}

// Name returns the fully qualified case name, "group:test:params".
func (r *CaseResult) Name() string {
	if r.Group == "" {
		return r.ID.String()
	}
	return r.Group + ":" + r.ID.String()
}

// Err joins every recorded failure into one error.
func (r *CaseResult) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

// FailedIn reports whether a failure was recorded in the given phase.
func (r *CaseResult) FailedIn(phase Phase) bool {
	for _, f := range r.Failures {
		if f.Phase == phase {
			return true
		}
	}
	return false
}
