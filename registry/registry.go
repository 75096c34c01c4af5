// Package registry holds the groups available to a run. The registry is an
// explicit value owned by the harness and passed by reference; groups are
// registered into it rather than into package-level state.
package registry

import (
	"errors"
	"fmt"
	"iter"
	"sync"

	"github.com/ethereum-optimism/infra/op-casekit/types"
	"github.com/ethereum/go-ethereum/log"
)

var (
	// ErrDuplicateGroup is returned when a group name is registered twice.
	ErrDuplicateGroup = errors.New("duplicate group")
	// ErrUnknownGroup is returned when a plan names an unregistered group.
	ErrUnknownGroup = errors.New("unknown group")
)

// Source is a named group of cases. *group.Group satisfies it for every
// fixture type.
type Source interface {
	Name() string
	Tests() []string
	Cases(rec types.Recorder) iter.Seq[types.Runnable]
}

// Registry manages the registered groups
type Registry struct {
	log     log.Logger
	sources []Source
	byName  map[string]Source
	mu      sync.RWMutex
}

// Config contains registry configuration
type Config struct {
	Log log.Logger
}

// NewRegistry creates a new, empty registry instance
func NewRegistry(cfg Config) *Registry {
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	return &Registry{
		log:    cfg.Log,
		byName: make(map[string]Source),
	}
}

// Register adds a group. Names must be non-empty and unique.
func (r *Registry) Register(src Source) error {
	if src == nil {
		return errors.New("source cannot be nil")
	}
	name := src.Name()
	if name == "" {
		return errors.New("group name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateGroup, name)
	}
	r.byName[name] = src
	r.sources = append(r.sources, src)
	r.log.Debug("Registered group", "group", name, "tests", len(src.Tests()))
	return nil
}

// Names returns the registered group names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = s.Name()
	}
	return names
}

// Get returns the group with the given name.
func (r *Registry) Get(name string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[name]
	return s, ok
}

// Sources returns all registered groups in registration order.
func (r *Registry) Sources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}
