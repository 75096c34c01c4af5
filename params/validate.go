package params

import (
	"errors"
	"fmt"

	"github.com/ethereum-optimism/infra/op-casekit/types"
)

// ErrInvalidType is wrapped by every TypeError.
var ErrInvalidType = errors.New("invalid parameter type")

// TypeError reports a public parameter whose value is not one of the
// allowed types.
type TypeError struct {
	Key   string
	Value any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("parameter %q has invalid type %T", e.Key, e.Value)
}

// Unwrap implements the errors.Unwrap interface
func (e *TypeError) Unwrap() error {
	return ErrInvalidType
}

// ValidValue reports whether v is an allowed public parameter value:
// a number, string, bool, nil, or a sequence of numbers.
func ValidValue(v any) bool {
	switch v.(type) {
	case nil, string, bool:
		return true
	}
	if _, ok := types.Number(v); ok {
		return true
	}
	_, ok := types.NumberSeq(v)
	return ok
}

// Validate checks every public value of p and returns a *TypeError for the
// first invalid one, in key order.
func Validate(p types.Params) error {
	for _, k := range p.Keys() {
		if !types.IsPublicKey(k) {
			continue
		}
		if !ValidValue(p[k]) {
			return &TypeError{Key: k, Value: p[k]}
		}
	}
	return nil
}
