package tracker

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/l1jgo/causetrack/internal/core/commit"
	"github.com/l1jgo/causetrack/internal/core/phase"
	"go.uber.org/zap"
)

// Committer finalizes popped contexts and applies pass-through records.
type Committer interface {
	Commit(ctx *phase.Context) commit.Result
	Apply(r *phase.Record) error
}

// Tracker is the stack of active phase contexts. It belongs to one goroutine
// (the game loop); every push, pop and record from any other goroutine is
// refused with ErrReentrancy, so the stack itself needs no locks.
type Tracker struct {
	reg       *phase.Registry
	committer Committer
	log       *zap.Logger

	root      *phase.Context
	top       *phase.Context
	scheduled *phase.Definition

	owner        atomic.Uint64
	bound        atomic.Bool // BindOwner already used
	started      atomic.Bool // first Push happened
	shuttingDown atomic.Bool
}

// New builds a tracker owned by the calling goroutine, with the idle root
// already in place.
func New(reg *phase.Registry, committer Committer, log *zap.Logger) (*Tracker, error) {
	scheduled, err := reg.Lookup(phase.ScheduledTask)
	if err != nil {
		return nil, fmt.Errorf("tracker: %w", err)
	}
	root := phase.NewRoot(reg.Idle())
	t := &Tracker{
		reg:       reg,
		committer: committer,
		log:       log,
		root:      root,
		top:       root,
		scheduled: scheduled,
	}
	t.owner.Store(goroutineID())
	return t, nil
}

func (t *Tracker) Registry() *phase.Registry { return t.reg }

// BindOwner hands the stack to the calling goroutine when the loop runs on a
// different goroutine than the one that built the tracker. It works once, and
// only before the first Push; afterwards ownership is fixed.
func (t *Tracker) BindOwner() error {
	if t.started.Load() {
		return fmt.Errorf("bind owner after the loop started: %w", ErrReentrancy)
	}
	if !t.bound.CompareAndSwap(false, true) {
		return fmt.Errorf("bind owner twice: %w", ErrReentrancy)
	}
	t.owner.Store(goroutineID())
	return nil
}

// IsOwner reports whether the caller runs on the owning goroutine.
func (t *Tracker) IsOwner() bool {
	return goroutineID() == t.owner.Load()
}

func (t *Tracker) checkOwner(op string) error {
	if !t.IsOwner() {
		return fmt.Errorf("%s: %w", op, ErrReentrancy)
	}
	return nil
}

// Current returns the top of the stack. It is never nil: the idle root is
// always at the bottom. Owner goroutine only.
func (t *Tracker) Current() *phase.Context { return t.top }

// Depth is the number of contexts above the idle root.
func (t *Tracker) Depth() int { return t.top.Depth() }

// Idle reports whether only the root is on the stack.
func (t *Tracker) Idle() bool { return t.top == t.root }

// Push starts a new context for def, linked under the current top.
func (t *Tracker) Push(def *phase.Definition, source any) (*Frame, error) {
	if def == nil {
		return nil, fmt.Errorf("push: nil definition: %w", phase.ErrUnknownPhase)
	}
	if err := t.checkOwner("push " + def.Name()); err != nil {
		return nil, err
	}
	if reg, err := t.reg.Lookup(def.Name()); err != nil || reg != def {
		return nil, fmt.Errorf("push %s: not in the registry: %w", def.Name(), phase.ErrUnknownPhase)
	}
	t.started.Store(true)
	ctx := def.NewContext(source, t.reg)
	if ctx == nil || ctx.Definition() != def {
		return nil, fmt.Errorf("push %s: factory returned a foreign context", def.Name())
	}
	if err := ctx.Attach(t.top); err != nil {
		return nil, fmt.Errorf("push %s: %w", def.Name(), err)
	}
	t.top = ctx
	return &Frame{t: t, ctx: ctx}, nil
}

// Pop releases f, which must be the current top, hands its context to the
// committer and makes the parent current again. On error the stack is left
// untouched.
func (t *Tracker) Pop(f *Frame) (commit.Result, error) {
	if f == nil || f.t != t {
		return commit.Result{}, fmt.Errorf("pop: foreign frame: %w", ErrStackCorruption)
	}
	if err := t.checkOwner("pop " + f.ctx.Name()); err != nil {
		return commit.Result{}, err
	}
	if t.top == t.root {
		return commit.Result{}, t.corruption(f, "pop on empty stack")
	}
	if f.ctx.State() != phase.StateActive {
		return commit.Result{}, t.corruption(f, "frame already released")
	}
	if f.ctx != t.top {
		return commit.Result{}, t.corruption(f, "frame is not the top of the stack")
	}
	f.result = t.complete(f.ctx)
	return f.result, nil
}

// complete runs the Completing phase of ctx (the top) and restores its parent.
// ctx stays current while committing so that records produced by listeners
// are attributed to it.
func (t *Tracker) complete(ctx *phase.Context) commit.Result {
	defer func() { t.top = ctx.Parent() }()
	if ctx.Failed() && ctx.Definition().DiscardOnFailure() {
		ctx.Cancel()
	}
	if err := ctx.Transition(phase.StateCompleting); err != nil {
		t.log.Error("phase transition", zap.Error(err))
	}
	return t.committer.Commit(ctx)
}

func (t *Tracker) corruption(f *Frame, why string) error {
	t.log.Error("phase stack corruption",
		zap.String("reason", why),
		zap.Stringer("frame", f.ctx),
		zap.Stringer("top", t.top),
		zap.Stringer("chain", t.top.Chain()))
	return fmt.Errorf("%s: release %s with top %s %s: %w",
		why, f.ctx, t.top, t.top.Chain(), ErrStackCorruption)
}

// Recover unwinds the stack down to f after a caller failed to release its
// children: every context above f is discarded, then f itself is popped as a
// failed operation. If f is not on the stack at all, ErrStackUntrusted is
// returned and the stack must not be used any more.
func (t *Tracker) Recover(f *Frame) error {
	if f == nil || f.t != t {
		return fmt.Errorf("recover: foreign frame: %w", ErrStackUntrusted)
	}
	if err := t.checkOwner("recover " + f.ctx.Name()); err != nil {
		return err
	}
	if f.ctx.State() != phase.StateActive {
		return nil
	}
	onStack := false
	for n := t.top; n != nil; n = n.Parent() {
		if n == f.ctx {
			onStack = true
			break
		}
	}
	if !onStack {
		t.log.Error("phase stack untrusted",
			zap.Stringer("frame", f.ctx),
			zap.Stringer("chain", t.top.Chain()))
		return fmt.Errorf("recover %s: %w", f.ctx, ErrStackUntrusted)
	}
	if _, err := t.discardDownTo(f.ctx); err != nil {
		return err
	}
	f.ctx.MarkFailed()
	t.complete(f.ctx)
	return nil
}

// Begin looks up the phase by name and pushes it.
func (t *Tracker) Begin(name string, source any) (*Frame, error) {
	def, err := t.reg.Lookup(name)
	if err != nil {
		return nil, err
	}
	return t.Push(def, source)
}

// End pops f, discarding the commit summary.
func (t *Tracker) End(f *Frame) error {
	_, err := t.Pop(f)
	return err
}

// Run executes fn inside a context of the named phase. The context is released
// on every exit path; an error return or a panic marks it failed (panics are
// re-raised after the release).
func (t *Tracker) Run(name string, source any, fn func() error) error {
	def, err := t.reg.Lookup(name)
	if err != nil {
		return err
	}
	return t.RunPhase(def, source, fn)
}

// RunPhase is Run with an already resolved definition.
func (t *Tracker) RunPhase(def *phase.Definition, source any, fn func() error) (err error) {
	f, err := t.Push(def, source)
	if err != nil {
		return err
	}
	finished := false
	defer func() {
		if !finished {
			f.ctx.MarkFailed()
		}
		if cerr := t.release(f); cerr != nil && err == nil {
			err = cerr
		}
	}()
	err = fn()
	if err != nil {
		f.ctx.MarkFailed()
	}
	finished = true
	return err
}

// release pops f, falling back to Recover when fn leaked nested frames.
func (t *Tracker) release(f *Frame) error {
	_, err := t.Pop(f)
	if err == nil || !errors.Is(err, ErrStackCorruption) {
		return err
	}
	if rerr := t.Recover(f); rerr != nil {
		return rerr
	}
	return err
}

// Unwind discards every context above the idle root and returns how many were
// dropped. The loop calls it when a system returns with contexts still open.
func (t *Tracker) Unwind() (int, error) {
	if err := t.checkOwner("unwind"); err != nil {
		return 0, err
	}
	return t.discardDownTo(t.root)
}

// discardDownTo cancels and completes every context above stop.
func (t *Tracker) discardDownTo(stop *phase.Context) (int, error) {
	n := 0
	for t.top != stop {
		leaked := t.top
		if leaked.State() != phase.StateActive {
			return n, fmt.Errorf("discard %s in state %s: %w", leaked, leaked.State(), ErrStackUntrusted)
		}
		t.log.Warn("discarding leaked phase context",
			zap.Stringer("context", leaked),
			zap.Int("records", leaked.Len()))
		leaked.MarkFailed()
		leaked.Cancel()
		t.complete(leaked)
		n++
	}
	return n, nil
}
