package phase

import (
	"fmt"
	"strings"
)

// Cause is one link of a cause chain: the phase that was active and the
// object that started it.
type Cause struct {
	Phase  string
	Source any
}

func (c Cause) String() string {
	if c.Source == nil {
		return c.Phase
	}
	return fmt.Sprintf("%s(%v)", c.Phase, c.Source)
}

// Chain is the ordered list of causes from the root idle context down to the
// context that produced a mutation.
type Chain []Cause

func (c Chain) String() string {
	parts := make([]string, len(c))
	for i, cause := range c {
		parts[i] = cause.String()
	}
	return "[" + strings.Join(parts, " > ") + "]"
}

// Leaf returns the innermost cause.
func (c Chain) Leaf() Cause {
	if len(c) == 0 {
		return Cause{}
	}
	return c[len(c)-1]
}

// Record is one captured side effect. It is owned by the context that
// captured it until that context is committed.
type Record struct {
	Effect Effect
	Actor  any   // entity, plugin or task that performed the mutation (optional)
	Chain  Chain // snapshot taken at capture time
	Seq    uint64

	cancelled bool
}

func (r *Record) Category() Category { return r.Effect.Category() }

// Cancel elides the record from the apply step.
func (r *Record) Cancel()         { r.cancelled = true }
func (r *Record) Cancelled() bool { return r.cancelled }

func (r *Record) String() string {
	return fmt.Sprintf("#%d %s %s", r.Seq, r.Effect, r.Chain)
}
