package group

import (
	"fmt"
	"iter"
	"net/url"
	"regexp"

	"github.com/ethereum-optimism/infra/op-casekit/types"
)

var validName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Group is an ordered collection of Tests sharing one fixture type.
// Registration is not safe for concurrent use; iteration of a fully
// registered Group is.
type Group[F Fixture] struct {
	name    string
	factory Factory[F]
	seen    map[string]struct{}
	tests   []*Test[F]
}

// New creates an empty group. name identifies the group in a registry.
func New[F Fixture](name string, factory Factory[F]) *Group[F] {
	return &Group[F]{
		name:    name,
		factory: factory,
		seen:    make(map[string]struct{}),
	}
}

// Name returns the group's registry name.
func (g *Group[F]) Name() string {
	return g.name
}

// Tests returns the registered test names in registration order.
func (g *Group[F]) Tests() []string {
	names := make([]string, len(g.tests))
	for i, t := range g.tests {
		names[i] = t.name
	}
	return names
}

// Test registers a new test and returns it for further configuration.
func (g *Group[F]) Test(name string, fn TestFunc[F]) (*Test[F], error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if _, ok := g.seen[name]; ok {
		return nil, fmt.Errorf("%w: %q in group %q", ErrDuplicateName, name, g.name)
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrNilTestFunc, name)
	}
	t := &Test[F]{
		name:    name,
		factory: g.factory,
		fn:      fn,
	}
	g.seen[name] = struct{}{}
	g.tests = append(g.tests, t)
	return t, nil
}

// ValidateName checks that name is non-empty, already in percent-decoded
// form, and drawn from [A-Za-z0-9_].
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	decoded, err := url.PathUnescape(name)
	if err != nil || decoded != name {
		return fmt.Errorf("%w: %q is not in canonical form", ErrInvalidName, name)
	}
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: %q contains characters outside [A-Za-z0-9_]", ErrInvalidName, name)
	}
	return nil
}

// Iterate yields a fresh RunCase for every case of every test, in
// registration order. The sequence can be ranged over any number of times
// and always produces the same identities in the same order.
func (g *Group[F]) Iterate(rec types.Recorder) iter.Seq[*RunCase[F]] {
	return func(yield func(*RunCase[F]) bool) {
		for _, t := range g.tests {
			for c := range t.Iterate(rec) {
				if !yield(c) {
					return
				}
			}
		}
	}
}

// Cases is Iterate with the fixture type erased.
func (g *Group[F]) Cases(rec types.Recorder) iter.Seq[types.Runnable] {
	return func(yield func(types.Runnable) bool) {
		for c := range g.Iterate(rec) {
			if !yield(c) {
				return
			}
		}
	}
}
