package tracker

import (
	"fmt"

	"go.uber.org/zap"
)

// SetShuttingDown flips the tracker into shutdown mode. From then on scheduled
// tasks drained off the owner goroutine run untracked.
func (t *Tracker) SetShuttingDown() { t.shuttingDown.Store(true) }

func (t *Tracker) ShuttingDown() bool { return t.shuttingDown.Load() }

// RunScheduled invokes a deferred task at the moment it starts executing.
//
// On the owner goroutine the task runs inside a scheduled_task context whose
// source is the task, so everything it mutates is attributed and committed.
// During shutdown a non-owner caller runs the task with no context at all.
// Any other non-owner call is refused.
func (t *Tracker) RunScheduled(task any, fn func() error) error {
	if !t.IsOwner() {
		if t.shuttingDown.Load() {
			t.log.Debug("scheduled task running untracked", zap.Any("task", task))
			return fn()
		}
		return fmt.Errorf("run scheduled %v: %w", task, ErrReentrancy)
	}
	return t.RunPhase(t.scheduled, task, fn)
}
