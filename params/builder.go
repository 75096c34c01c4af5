package params

import (
	"iter"
	"slices"

	"github.com/ethereum-optimism/infra/op-casekit/types"
)

type stage func(iter.Seq[types.Params]) iter.Seq[types.Params]

// Builder generates parameter mappings as a cartesian product of
// declared keys. Builders are immutable: each method returns a new one, so a
// common prefix can be shared between tests.
type Builder struct {
	stages []stage
}

// New returns a builder yielding a single empty mapping.
func New() *Builder {
	return &Builder{}
}

func (b *Builder) with(s stage) *Builder {
	return &Builder{stages: append(slices.Clip(b.stages), s)}
}

// Combine multiplies every mapping by the given values of key.
func (b *Builder) Combine(key string, values ...any) *Builder {
	return b.Expand(key, func(types.Params) []any { return values })
}

// Expand multiplies every mapping by the values fn derives from it.
func (b *Builder) Expand(key string, fn func(p types.Params) []any) *Builder {
	return b.with(func(src iter.Seq[types.Params]) iter.Seq[types.Params] {
		return func(yield func(types.Params) bool) {
			for p := range src {
				for _, v := range fn(p) {
					next := p.Clone()
					next[key] = v
					if !yield(next) {
						return
					}
				}
			}
		}
	})
}

// Filter keeps the mappings for which pred holds.
func (b *Builder) Filter(pred func(p types.Params) bool) *Builder {
	return b.with(func(src iter.Seq[types.Params]) iter.Seq[types.Params] {
		return func(yield func(types.Params) bool) {
			for p := range src {
				if pred(p) && !yield(p) {
					return
				}
			}
		}
	})
}

// Unless drops the mappings for which pred holds.
func (b *Builder) Unless(pred func(p types.Params) bool) *Builder {
	return b.Filter(func(p types.Params) bool { return !pred(p) })
}

// Iter returns the generated mappings in declaration order. Every call
// regenerates the sequence from scratch.
func (b *Builder) Iter() iter.Seq[types.Params] {
	var seq iter.Seq[types.Params] = func(yield func(types.Params) bool) {
		yield(types.Params{})
	}
	for _, s := range b.stages {
		seq = s(seq)
	}
	return seq
}

// Collect materializes Iter.
func (b *Builder) Collect() []types.Params {
	return slices.Collect(b.Iter())
}

// List adapts a fixed list of mappings into a parameter source.
func List(ps ...types.Params) iter.Seq[types.Params] {
	return slices.Values(ps)
}
