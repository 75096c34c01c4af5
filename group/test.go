package group

import (
	"fmt"
	"iter"

	"github.com/ethereum-optimism/infra/op-casekit/params"
	"github.com/ethereum-optimism/infra/op-casekit/types"
)

// Test binds a test function to a fixture type, optionally with a frozen
// list of parameter mappings.
type Test[F Fixture] struct {
	name          string
	factory       Factory[F]
	fn            TestFunc[F]
	params        []types.Params
	parameterized bool
}

// Name returns the test name.
func (t *Test[F]) Name() string {
	return t.name
}

// Parameterized reports whether Params has been set.
func (t *Test[F]) Parameterized() bool {
	return t.parameterized
}

// Params sets the test's parameter mappings. It may be called once. The
// source is fully materialized, every public value is type checked, and no
// two mappings may share a public projection; nothing is stored unless all
// checks pass.
func (t *Test[F]) Params(src iter.Seq[types.Params]) error {
	if t.parameterized {
		return fmt.Errorf("%w: %q", ErrAlreadyParameterized, t.name)
	}

	var list []types.Params
	if src != nil {
		for p := range src {
			if p == nil {
				p = types.Params{}
			}
			list = append(list, p.Clone())
		}
	}

	for i, p := range list {
		if err := params.Validate(p); err != nil {
			return fmt.Errorf("test %q params #%d: %w", t.name, i, err)
		}
	}
	if first, second, found := params.FindDuplicate(list); found {
		return &DuplicateCaseError{
			Test:   t.name,
			First:  first,
			Second: second,
			Params: list[second].Public(),
		}
	}

	t.params = list
	t.parameterized = true
	return nil
}

// Iterate yields the test's cases: a single case with nil params when the
// test is unparameterized, otherwise one per stored mapping in order.
func (t *Test[F]) Iterate(rec types.Recorder) iter.Seq[*RunCase[F]] {
	return func(yield func(*RunCase[F]) bool) {
		if !t.parameterized {
			yield(t.newCase(rec, nil))
			return
		}
		for _, p := range t.params {
			if !yield(t.newCase(rec, p)) {
				return
			}
		}
	}
}

func (t *Test[F]) newCase(rec types.Recorder, p types.Params) *RunCase[F] {
	return &RunCase[F]{
		id:      types.CaseID{Test: t.name, Params: p.Public()},
		params:  p.Clone(),
		factory: t.factory,
		fn:      t.fn,
		rec:     rec,
	}
}
