package phase

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownPhase is returned by Lookup for a name that was never registered.
var ErrUnknownPhase = errors.New("unknown phase")

// Registry is the fixed catalog of phase definitions. It is built once at
// startup and only read afterwards, so it needs no locking.
type Registry struct {
	defs map[string]*Definition
	idle *Definition
}

// NewRegistry freezes defs into a registry. Names must be unique and the
// catalog must contain the Idle definition.
func NewRegistry(defs ...*Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]*Definition, len(defs))}
	for _, d := range defs {
		if d == nil || d.name == "" {
			return nil, errors.New("registry: definition without a name")
		}
		if _, dup := r.defs[d.name]; dup {
			return nil, fmt.Errorf("registry: duplicate phase %q", d.name)
		}
		r.defs[d.name] = d
	}
	idle, ok := r.defs[Idle]
	if !ok {
		return nil, fmt.Errorf("registry: missing %q definition", Idle)
	}
	if idle.capture != CaptureNone {
		return nil, fmt.Errorf("registry: %q must not capture (got %s)", Idle, idle.capture)
	}
	r.idle = idle
	return r, nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*Definition, error) {
	d, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPhase, name)
	}
	return d, nil
}

// MustLookup is Lookup for names that are known to be built in.
func (r *Registry) MustLookup(name string) *Definition {
	d, err := r.Lookup(name)
	if err != nil {
		panic(err)
	}
	return d
}

// Idle returns the root sentinel definition.
func (r *Registry) Idle() *Definition { return r.idle }

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered definitions.
func (r *Registry) Count() int { return len(r.defs) }
