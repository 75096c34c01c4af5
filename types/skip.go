package types

import (
	"errors"
	"fmt"
)

// ErrSkip is returned (possibly wrapped) by a test function or fixture Init
// to skip the case instead of failing it.
var ErrSkip = errors.New("case skipped")

// SkipError carries the reason a case was skipped.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("case skipped: %s", e.Reason)
}

// Is makes errors.Is(err, ErrSkip) hold for a SkipError.
func (e *SkipError) Is(target error) bool {
	return target == ErrSkip
}

// Skip returns an error that skips the current case.
func Skip(reason string) error {
	return &SkipError{Reason: reason}
}

// Skipf is Skip with a formatted reason.
func Skipf(format string, args ...any) error {
	return &SkipError{Reason: fmt.Sprintf(format, args...)}
}

// SkipReason reports whether err signals a skip, and its reason.
func SkipReason(err error) (string, bool) {
	if err == nil || !errors.Is(err, ErrSkip) {
		return "", false
	}
	var skipErr *SkipError
	if errors.As(err, &skipErr) {
		return skipErr.Reason, true
	}
	return err.Error(), true
}
