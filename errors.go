package casekit

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-casekit/exitcodes"
	"github.com/ethereum-optimism/infra/op-casekit/runner"
)

var (
	_ cli.ExitCoder = (*RuntimeError)(nil)
	_ cli.ExitCoder = (*TestFailureError)(nil)
)

// RuntimeError means the run itself could not be completed: bad config or
// plan, a registration error, or an interrupt.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// ExitCode implements cli.ExitCoder.
func (e *RuntimeError) ExitCode() int {
	return exitcodes.RuntimeErr
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// TestFailureError reports a completed run with failed cases.
type TestFailureError struct {
	RunID    string
	Failed   int
	TimedOut int
	Summary  string // Rendered failure list, see runner.RunnerResult.String
}

// NewTestFailureError summarizes the failures of result.
func NewTestFailureError(result *runner.RunnerResult) *TestFailureError {
	return &TestFailureError{
		RunID:    result.RunID,
		Failed:   result.Stats.Failed,
		TimedOut: result.Stats.TimedOut,
		Summary:  result.String(),
	}
}

func (e *TestFailureError) Error() string {
	msg := fmt.Sprintf("test failure: run %s had %d failed case(s)", e.RunID, e.Failed)
	if e.TimedOut > 0 {
		msg += fmt.Sprintf(", %d timed out", e.TimedOut)
	}
	return msg
}

// ExitCode implements cli.ExitCoder.
func (e *TestFailureError) ExitCode() int {
	return exitcodes.TestFailure
}

// IsTestFailureError checks if the error is or wraps a TestFailureError
func IsTestFailureError(err error) bool {
	var testErr *TestFailureError
	return err != nil && errors.As(err, &testErr)
}
