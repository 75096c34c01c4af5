package registry

import (
	"fmt"
	"iter"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/op-casekit/types"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Plan selects which groups and tests a run executes.
type Plan struct {
	Groups []GroupPlan `yaml:"groups"`
}

// GroupPlan selects tests from one group. Include and Exclude entries are
// exact test names, or prefixes when they end in "*". An empty Include
// selects every test.
type GroupPlan struct {
	Name    string        `yaml:"name"`
	Include []string      `yaml:"include,omitempty"`
	Exclude []string      `yaml:"exclude,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// LoadPlan reads a plan from a YAML file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading plan file")
	}
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, errors.Wrap(err, "parsing plan file")
	}
	return &plan, nil
}

// Selection is a group chosen for a run together with its test filter.
type Selection struct {
	Source  Source
	Timeout time.Duration // Zero means the run's default
	include []string
	exclude []string
}

// Name returns the selected group's name.
func (s Selection) Name() string {
	return s.Source.Name()
}

// Selects reports whether the named test is part of the selection.
func (s Selection) Selects(test string) bool {
	if len(s.include) > 0 && !matchAny(s.include, test) {
		return false
	}
	return !matchAny(s.exclude, test)
}

// Cases yields the group's cases that pass the filter.
func (s Selection) Cases(rec types.Recorder) iter.Seq[types.Runnable] {
	return func(yield func(types.Runnable) bool) {
		for c := range s.Source.Cases(rec) {
			if !s.Selects(c.ID().Test) {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

func matchAny(patterns []string, test string) bool {
	return slices.ContainsFunc(patterns, func(p string) bool {
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			return strings.HasPrefix(test, prefix)
		}
		return p == test
	})
}

// Select resolves a plan against the registry. A nil plan selects every
// registered group in full. Groups are returned in plan order.
func (r *Registry) Select(plan *Plan) ([]Selection, error) {
	if plan == nil {
		var out []Selection
		for _, src := range r.Sources() {
			out = append(out, Selection{Source: src})
		}
		return out, nil
	}

	seen := make(map[string]bool)
	out := make([]Selection, 0, len(plan.Groups))
	for _, gp := range plan.Groups {
		src, ok := r.Get(gp.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownGroup, gp.Name)
		}
		if seen[gp.Name] {
			return nil, fmt.Errorf("%w: %s listed twice in plan", ErrDuplicateGroup, gp.Name)
		}
		seen[gp.Name] = true

		tests := src.Tests()
		for _, inc := range gp.Include {
			if strings.HasSuffix(inc, "*") {
				continue
			}
			if !slices.Contains(tests, inc) {
				return nil, fmt.Errorf("group %s has no test %q", gp.Name, inc)
			}
		}
		out = append(out, Selection{
			Source:  src,
			Timeout: gp.Timeout,
			include: gp.Include,
			exclude: gp.Exclude,
		})
	}
	return out, nil
}
