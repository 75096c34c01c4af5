// Package selftest registers groups that exercise the case engine end to
// end. They run against in-memory fixtures only, so a casekit binary can
// verify its own wiring without external resources.
package selftest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/ethereum-optimism/infra/op-casekit/group"
	"github.com/ethereum-optimism/infra/op-casekit/params"
	"github.com/ethereum-optimism/infra/op-casekit/registry"
	"github.com/ethereum-optimism/infra/op-casekit/types"
)

// Group names.
const (
	ArithGroup     = "selftest_arith"
	LifecycleGroup = "selftest_lifecycle"
)

// Env is an in-memory fixture. It tracks which lifecycle steps ran so tests
// can assert on ordering, and holds a small key/value store that Init
// populates and Finalize clears.
type Env struct {
	Log    types.CaseLog
	Params types.Params

	mu    sync.Mutex
	store map[string]float64
	steps []string
}

// NewEnv is the group.Factory for Env.
func NewEnv(caseLog types.CaseLog, p types.Params) (*Env, error) {
	return &Env{Log: caseLog, Params: p}, nil
}

// Init implements group.Fixture.
func (e *Env) Init(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.steps = append(e.steps, "init")
	e.store = make(map[string]float64)
	for k, v := range e.Params {
		if n, ok := types.Number(v); ok {
			e.store[k] = n
		}
	}
	e.Log.Debug("Env initialized", "keys", len(e.store))
	return ctx.Err()
}

// Finalize implements group.Fixture.
func (e *Env) Finalize(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return errors.New("finalize without init")
	}
	e.steps = append(e.steps, "finalize")
	e.store = nil
	return nil
}

// Num returns the numeric value stored for key.
func (e *Env) Num(key string) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.store[key]
	if !ok {
		return 0, fmt.Errorf("no numeric param %q", key)
	}
	return v, nil
}

// Steps returns the lifecycle steps seen so far.
func (e *Env) Steps() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.steps...)
}

// Register adds the self-test groups to reg.
func Register(reg *registry.Registry) error {
	arith, err := Arith()
	if err != nil {
		return err
	}
	if err := reg.Register(arith); err != nil {
		return err
	}
	lifecycle, err := Lifecycle()
	if err != nil {
		return err
	}
	return reg.Register(lifecycle)
}

// Arith builds a parameterized arithmetic group. Private keys carry the
// expected result so it stays out of the case identity.
func Arith() (*group.Group[*Env], error) {
	g := group.New(ArithGroup, NewEnv)

	add, err := g.Test("add", func(ctx context.Context, e *Env) error {
		return checkBinary(e, func(a, b float64) float64 { return a + b })
	})
	if err != nil {
		return nil, err
	}
	operands := params.New().
		Combine("a", 0, 1, -3).
		Combine("b", 2, 7.5)
	if err := add.Params(withExpected(operands, func(a, b float64) float64 { return a + b }).Iter()); err != nil {
		return nil, err
	}

	div, err := g.Test("div", func(ctx context.Context, e *Env) error {
		b, err := e.Num("b")
		if err != nil {
			return err
		}
		if b == 0 {
			return types.Skip("division by zero is undefined")
		}
		return checkBinary(e, func(a, b float64) float64 { return a / b })
	})
	if err != nil {
		return nil, err
	}
	divisors := params.New().
		Combine("a", 6, 9).
		Combine("b", 0, 3)
	if err := div.Params(withExpected(divisors, func(a, b float64) float64 {
		if b == 0 {
			return math.NaN()
		}
		return a / b
	}).Iter()); err != nil {
		return nil, err
	}

	sum, err := g.Test("sum", func(ctx context.Context, e *Env) error {
		values, ok := types.NumberSeq(e.Params["values"])
		if !ok {
			return errors.New("values is not a number sequence")
		}
		var total float64
		for _, v := range values {
			total += v
		}
		if len(values) > 3 {
			e.Log.Warn("Long sequence summed", "len", len(values))
		}
		if want := e.Params["_total"]; want != total {
			return fmt.Errorf("sum = %g, want %v", total, want)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := sum.Params(params.List(
		types.Params{"values": []float64{}, "_total": 0.0},
		types.Params{"values": []float64{1, 2, 3}, "_total": 6.0},
		types.Params{"values": []float64{1, 1, 1, 1, 1}, "_total": 5.0},
	)); err != nil {
		return nil, err
	}

	return g, nil
}

func withExpected(b *params.Builder, op func(a, b float64) float64) *params.Builder {
	return b.Expand("_want", func(p types.Params) []any {
		a, _ := types.Number(p["a"])
		bv, _ := types.Number(p["b"])
		return []any{op(a, bv)}
	})
}

func checkBinary(e *Env, op func(a, b float64) float64) error {
	a, err := e.Num("a")
	if err != nil {
		return err
	}
	b, err := e.Num("b")
	if err != nil {
		return err
	}
	want, _ := types.Number(e.Params["_want"])
	if got := op(a, b); got != want {
		return fmt.Errorf("op(%g, %g) = %g, want %g", a, b, got, want)
	}
	e.Log.Info("Checked", "a", a, "b", b, "result", want)
	return nil
}

// Lifecycle builds an unparameterized group whose tests confirm the
// fixture protocol from inside the test body.
func Lifecycle() (*group.Group[*Env], error) {
	g := group.New(LifecycleGroup, NewEnv)

	tests := []struct {
		name string
		fn   group.TestFunc[*Env]
	}{
		{"init_before_test", func(ctx context.Context, e *Env) error {
			if steps := e.Steps(); len(steps) != 1 || steps[0] != "init" {
				return fmt.Errorf("unexpected steps before test: %v", steps)
			}
			return nil
		}},
		{"context_live", func(ctx context.Context, e *Env) error {
			return ctx.Err()
		}},
		{"unparameterized_params_empty", func(ctx context.Context, e *Env) error {
			if len(e.Params) != 0 {
				return fmt.Errorf("expected empty params, got %v", e.Params)
			}
			return nil
		}},
	}
	for _, tc := range tests {
		if _, err := g.Test(tc.name, tc.fn); err != nil {
			return nil, err
		}
	}
	return g, nil
}
