package system

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// StackGuard is the tracker view the runner uses to check that a system left
// no phase context open.
type StackGuard interface {
	Idle() bool
	Depth() int
	Unwind() (int, error)
}

// Runner executes systems in stage order each tick. After every system it
// verifies the phase stack is back to idle and discards whatever leaked.
type Runner struct {
	systems []System
	sorted  bool
	guard   StackGuard
	log     *zap.Logger
	leaks   int
}

func NewRunner(guard StackGuard, log *zap.Logger) *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
		guard:   guard,
		log:     log,
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick runs every system once. It returns an error only when the phase stack
// can no longer be trusted; the loop must stop then.
func (r *Runner) Tick(dt time.Duration) error {
	r.ensureSorted()
	for _, s := range r.systems {
		s.Update(dt)
		if err := r.check(s); err != nil {
			return err
		}
	}
	return nil
}

// Leaks returns how many contexts have been discarded after leaking out of a
// system.
func (r *Runner) Leaks() int { return r.leaks }

func (r *Runner) check(s System) error {
	if r.guard == nil || r.guard.Idle() {
		return nil
	}
	depth := r.guard.Depth()
	n, err := r.guard.Unwind()
	r.leaks += n
	r.log.Error("system left phase contexts open",
		zap.String("system", fmt.Sprintf("%T", s)),
		zap.Stringer("stage", s.Stage()),
		zap.Int("depth", depth),
		zap.Int("discarded", n))
	if err != nil {
		return fmt.Errorf("unwind after %T: %w", s, err)
	}
	return nil
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Stage() < r.systems[j].Stage()
		})
		r.sorted = true
	}
}
