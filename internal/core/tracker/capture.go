package tracker

import (
	"fmt"

	"github.com/l1jgo/causetrack/internal/core/phase"
)

// RecordBlockChange is called by world code in place of writing the block.
func (t *Tracker) RecordBlockChange(pos phase.BlockPos, from, to phase.BlockState, actor any) error {
	return t.record(phase.BlockChange{Pos: pos, Old: from, New: to}, actor)
}

// RecordEntitySpawn is called by world code in place of spawning the entity.
func (t *Tracker) RecordEntitySpawn(spawn phase.EntitySpawn, actor any) error {
	return t.record(spawn, actor)
}

// RecordItemDrop is called by world code in place of dropping the item.
func (t *Tracker) RecordItemDrop(drop phase.ItemDrop, actor any) error {
	return t.record(drop, actor)
}

// RecordScheduledInvocation is called in place of handing a task to the
// scheduler.
func (t *Tracker) RecordScheduledInvocation(inv phase.ScheduledInvocation, actor any) error {
	return t.record(inv, actor)
}

// record buffers e in the current context, or applies it right away when the
// current phase passes its category through.
func (t *Tracker) record(e phase.Effect, actor any) error {
	if !t.IsOwner() {
		if t.shuttingDown.Load() {
			// Best effort during shutdown: no context, apply directly.
			return t.committer.Apply(&phase.Record{Effect: e, Actor: actor})
		}
		return fmt.Errorf("record %s: %w", e, ErrReentrancy)
	}
	ctx := t.top
	if ctx == nil {
		return ErrNoActiveContext
	}
	if !ctx.Definition().Captures(e.Category()) {
		return t.committer.Apply(&phase.Record{Effect: e, Actor: actor, Chain: ctx.Chain()})
	}
	ctx.Capture(e, actor)
	return nil
}

// PendingBlock looks through the active chain, innermost first, for a block
// change at pos that is captured but not yet committed. World code uses it so
// that reads inside an operation see that operation's own writes.
func (t *Tracker) PendingBlock(pos phase.BlockPos) (phase.BlockState, bool) {
	for n := t.top; n != nil; n = n.Parent() {
		if st, ok := n.PendingBlock(pos); ok {
			return st, true
		}
	}
	return "", false
}
