package group

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/ethereum-optimism/infra/op-casekit/params"
	"github.com/ethereum-optimism/infra/op-casekit/types"
)

// Registration errors, for inspection with errors.Is.
var (
	// ErrInvalidName is returned when a test name is empty, contains
	// characters outside [A-Za-z0-9_], or is not in canonical
	// (percent-decoded) form.
	ErrInvalidName = errors.New("invalid test name")

	// ErrDuplicateName is returned when a name is registered twice in a group.
	ErrDuplicateName = errors.New("duplicate test name")

	// ErrAlreadyParameterized is returned by a second call to Test.Params.
	ErrAlreadyParameterized = errors.New("test is already parameterized")

	// ErrInvalidParamType is returned when a public parameter value is not
	// one of the allowed types. The concrete error is a *params.TypeError.
	ErrInvalidParamType = params.ErrInvalidType

	// ErrDuplicateCase is returned when two parameter mappings of a test
	// have equal public projections. The concrete error is a
	// *DuplicateCaseError.
	ErrDuplicateCase = errors.New("duplicate test case")

	// ErrNilTestFunc is returned when a test is registered without a body.
	ErrNilTestFunc = errors.New("test function is nil")
)

// DuplicateCaseError identifies the two colliding parameter mappings.
type DuplicateCaseError struct {
	Test   string
	First  int
	Second int
	Params types.Params // public projection shared by both
}

func (e *DuplicateCaseError) Error() string {
	id := types.CaseID{Test: e.Test, Params: e.Params}
	return fmt.Sprintf("duplicate test case %s (params #%d and #%d)", id, e.First, e.Second)
}

// Unwrap implements the errors.Unwrap interface
func (e *DuplicateCaseError) Unwrap() error {
	return ErrDuplicateCase
}

// PanicError is recorded when a fixture or test function panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// protect runs fn, converting a panic into a *PanicError.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
