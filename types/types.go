// Package types contains shared types used across the casekit engine and harness.
package types

import (
	"context"
	"reflect"
	"sort"
	"strings"
)

// PrivatePrefix marks a parameter key as private: visible to the test body
// but excluded from the case identity.
const PrivatePrefix = "_"

// Params maps parameter names to values. Values are restricted to numbers,
// strings, booleans, nil (undefined) and sequences of numbers.
type Params map[string]any

// IsPublicKey reports whether k takes part in case identity.
func IsPublicKey(k string) bool {
	return !strings.HasPrefix(k, PrivatePrefix)
}

// Public returns the public projection of p. A nil receiver yields nil.
func (p Params) Public() Params {
	if p == nil {
		return nil
	}
	pub := make(Params, len(p))
	for k, v := range p {
		if IsPublicKey(k) {
			pub[k] = cloneValue(v)
		}
	}
	return pub
}

// Clone returns a copy of p. Slice values are copied as well, so the
// clone shares no backing arrays with p.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.IsNil() {
		return v
	}
	cp := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
	reflect.Copy(cp, rv)
	return cp.Interface()
}

// Keys returns the keys of p in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Recorder opens a case-scoped log/result pair for each executed case.
// Implementations must be safe for concurrent use when the harness runs
// cases concurrently.
type Recorder interface {
	Record(test string, public Params) (CaseLog, *CaseResult)
}

// CaseLog is the per-case log handle handed to fixtures and used by the
// engine to record lifecycle events.
type CaseLog interface {
	// Start marks the beginning of the case. debug controls whether debug
	// entries are retained on the result.
	Start(debug bool)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	// Warn records a warning; a passing case with warnings reports StatusWarn.
	Warn(msg string, ctx ...any)
	// Skip marks the case as skipped. Failures take precedence over skips.
	Skip(reason string)
	RecordFailure(phase Phase, err error)
	// Seal finalizes timing and status. It must be called exactly once.
	Seal()
}

// Runnable is a single executable case with its identity erased of the
// fixture type, as consumed by the registry and runner.
type Runnable interface {
	ID() CaseID
	Run(ctx context.Context, debug bool) *CaseResult
}
