package phase

import "fmt"

// Completion decides what happens to a child context's records when it is
// popped.
type Completion uint8

const (
	// Independent contexts are committed on their own.
	Independent Completion = iota
	// Merge contexts hand their records to the parent, which commits them
	// as part of its own event.
	Merge
)

func (c Completion) String() string {
	switch c {
	case Independent:
		return "independent"
	case Merge:
		return "merge"
	default:
		return fmt.Sprintf("completion(%d)", uint8(c))
	}
}

// ParseCompletion accepts "independent" or "merge".
func ParseCompletion(s string) (Completion, error) {
	switch s {
	case "", "independent":
		return Independent, nil
	case "merge":
		return Merge, nil
	}
	return 0, fmt.Errorf("unknown completion policy %q", s)
}

// Factory builds a new, unattached context for def. It must not have side
// effects.
type Factory func(def *Definition, source any, reg *Registry) *Context

// Spec is the mutable blueprint a Definition is frozen from.
type Spec struct {
	Name             string
	Capture          CapturePolicy
	Completion       Completion
	Cancellable      bool
	DiscardOnFailure bool
	Factory          Factory
}

// Definition is an immutable phase kind. Compare definitions by pointer.
type Definition struct {
	name             string
	capture          CapturePolicy
	completion       Completion
	cancellable      bool
	discardOnFailure bool
	factory          Factory
}

// Define freezes a spec into a Definition.
func Define(s Spec) *Definition {
	f := s.Factory
	if f == nil {
		f = defaultFactory
	}
	return &Definition{
		name:             s.Name,
		capture:          s.Capture,
		completion:       s.Completion,
		cancellable:      s.Cancellable,
		discardOnFailure: s.DiscardOnFailure,
		factory:          f,
	}
}

func defaultFactory(def *Definition, source any, _ *Registry) *Context {
	return NewContext(def, source)
}

func (d *Definition) Name() string             { return d.name }
func (d *Definition) Capture() CapturePolicy   { return d.capture }
func (d *Definition) Completion() Completion   { return d.completion }
func (d *Definition) Cancellable() bool        { return d.cancellable }
func (d *Definition) DiscardOnFailure() bool   { return d.discardOnFailure }
func (d *Definition) Captures(c Category) bool { return d.capture.Captures(c) }
func (d *Definition) String() string           { return d.name }

// Spec returns a copy of the blueprint, used to derive an overridden
// definition at startup.
func (d *Definition) Spec() Spec {
	return Spec{
		Name:             d.name,
		Capture:          d.capture,
		Completion:       d.completion,
		Cancellable:      d.cancellable,
		DiscardOnFailure: d.discardOnFailure,
		Factory:          d.factory,
	}
}

// NewContext runs the definition's factory.
func (d *Definition) NewContext(source any, reg *Registry) *Context {
	return d.factory(d, source, reg)
}
