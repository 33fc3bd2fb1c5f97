package phase

import (
	"errors"
	"fmt"
)

// State is the lifecycle position of a Context. Contexts only move forward.
type State uint8

const (
	StateIdle State = iota // root sentinel, never popped
	StateActive
	StateCompleting
	StateCommitted
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateCompleting:
		return "completing"
	case StateCommitted:
		return "committed"
	case StateDiscarded:
		return "discarded"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

var errBadTransition = errors.New("illegal context transition")

// buffer keeps captured records in capture order and, alongside, one slice per
// category so that apply order can be derived without re-sorting.
type buffer struct {
	all   []*Record
	byCat [numCategories][]*Record
}

func (b *buffer) add(r *Record) {
	b.all = append(b.all, r)
	c := r.Category()
	b.byCat[c] = append(b.byCat[c], r)
}

func (b *buffer) reset() {
	b.all = nil
	for i := range b.byCat {
		b.byCat[i] = nil
	}
}

// Context is one live activation of a phase.
type Context struct {
	def       *Definition
	source    any
	parent    *Context
	depth     int
	state     State
	cancelled bool
	failed    bool
	nextSeq   uint64
	buf       buffer
}

// NewContext returns an unattached, active context.
func NewContext(def *Definition, source any) *Context {
	return &Context{def: def, source: source, state: StateActive}
}

// NewRoot returns the idle sentinel that sits at the bottom of every stack.
func NewRoot(def *Definition) *Context {
	return &Context{def: def, state: StateIdle}
}

func (c *Context) Definition() *Definition { return c.def }
func (c *Context) Name() string            { return c.def.name }
func (c *Context) Source() any             { return c.source }
func (c *Context) Parent() *Context        { return c.parent }
func (c *Context) Depth() int              { return c.depth }
func (c *Context) State() State            { return c.state }
func (c *Context) IsRoot() bool            { return c.parent == nil }

// Attach links c under parent. A context can be attached once.
func (c *Context) Attach(parent *Context) error {
	if parent == nil {
		return errors.New("attach: nil parent")
	}
	if c.parent != nil {
		return fmt.Errorf("attach %s: already attached to %s", c.def.name, c.parent.def.name)
	}
	if c.state != StateActive {
		return fmt.Errorf("attach %s: %w (%s)", c.def.name, errBadTransition, c.state)
	}
	c.parent = parent
	c.depth = parent.depth + 1
	return nil
}

// Cancel flags the whole context; the committer discards all of its records.
func (c *Context) Cancel()         { c.cancelled = true }
func (c *Context) Cancelled() bool { return c.cancelled }

// MarkFailed records that the triggering code returned an error or panicked.
func (c *Context) MarkFailed()  { c.failed = true }
func (c *Context) Failed() bool { return c.failed }

// Chain returns the cause chain from the root down to c.
func (c *Context) Chain() Chain {
	chain := make(Chain, c.depth+1)
	for n := c; n != nil; n = n.parent {
		chain[n.depth] = Cause{Phase: n.def.name, Source: n.source}
	}
	return chain
}

// Capture appends a new record for e. The record's chain is snapshotted now.
func (c *Context) Capture(e Effect, actor any) *Record {
	r := &Record{Effect: e, Actor: actor, Chain: c.Chain()}
	c.Append(r)
	return r
}

// Append adds an existing record, keeping its original chain.
func (c *Context) Append(r *Record) {
	c.nextSeq++
	r.Seq = c.nextSeq
	c.buf.add(r)
}

// Len is the number of records currently buffered.
func (c *Context) Len() int { return len(c.buf.all) }

// Records returns the buffered records in capture order.
func (c *Context) Records() []*Record {
	out := make([]*Record, len(c.buf.all))
	copy(out, c.buf.all)
	return out
}

// ByCategory returns the buffered records of one category in capture order.
func (c *Context) ByCategory(cat Category) []*Record {
	if cat >= numCategories {
		return nil
	}
	out := make([]*Record, len(c.buf.byCat[cat]))
	copy(out, c.buf.byCat[cat])
	return out
}

// Drain transfers ownership of every buffered record to the caller and
// empties the buffer.
func (c *Context) Drain() []*Record {
	out := c.buf.all
	c.buf.reset()
	return out
}

// Adopt re-attributes records from a merged child. They keep their chains and
// land after everything c already holds.
func (c *Context) Adopt(records []*Record) {
	for _, r := range records {
		c.Append(r)
	}
}

// Transition moves c to the next lifecycle state.
func (c *Context) Transition(to State) error {
	ok := false
	switch c.state {
	case StateActive:
		ok = to == StateCompleting
	case StateCompleting:
		ok = to == StateCommitted || to == StateDiscarded
	}
	if !ok {
		return fmt.Errorf("%s: %w %s -> %s", c.def.name, errBadTransition, c.state, to)
	}
	c.state = to
	return nil
}

func (c *Context) String() string {
	if c.source == nil {
		return fmt.Sprintf("%s@%d", c.def.name, c.depth)
	}
	return fmt.Sprintf("%s(%v)@%d", c.def.name, c.source, c.depth)
}

// PendingBlock returns the latest uncancelled block state captured for pos in
// this context.
func (c *Context) PendingBlock(pos BlockPos) (BlockState, bool) {
	recs := c.buf.byCat[CategoryBlock]
	for i := len(recs) - 1; i >= 0; i-- {
		bc, ok := recs[i].Effect.(BlockChange)
		if ok && bc.Pos == pos && !recs[i].Cancelled() {
			return bc.New, true
		}
	}
	return "", false
}
