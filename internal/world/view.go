package world

import (
	"github.com/l1jgo/causetrack/internal/core/phase"
)

// Recorder is the part of the tracker world code writes through. Every
// mutation is recorded instead of applied; the committer applies it later.
type Recorder interface {
	RecordBlockChange(pos phase.BlockPos, from, to phase.BlockState, actor any) error
	RecordEntitySpawn(spawn phase.EntitySpawn, actor any) error
	RecordItemDrop(drop phase.ItemDrop, actor any) error
	RecordScheduledInvocation(inv phase.ScheduledInvocation, actor any) error
	PendingBlock(pos phase.BlockPos) (phase.BlockState, bool)
}

// BlockAt returns the state at pos as seen by the running operation: its own
// captured but uncommitted changes win over the committed world.
func (s *State) BlockAt(rec Recorder, pos phase.BlockPos) phase.BlockState {
	if st, ok := rec.PendingBlock(pos); ok {
		return st
	}
	return s.Block(pos)
}

// PlaceBlock records a change of pos to state. Placing the block that is
// already there records nothing.
func (s *State) PlaceBlock(rec Recorder, pos phase.BlockPos, state phase.BlockState, actor any) error {
	from := s.BlockAt(rec, pos)
	if from == state {
		return nil
	}
	return rec.RecordBlockChange(pos, from, state, actor)
}

// BreakBlock records pos turning into air plus the block's drop, if any.
func (s *State) BreakBlock(rec Recorder, pos phase.BlockPos, actor any) error {
	from := s.BlockAt(rec, pos)
	if from == phase.BlockAir {
		return nil
	}
	if err := rec.RecordBlockChange(pos, from, phase.BlockAir, actor); err != nil {
		return err
	}
	info := s.table.Get(from)
	if info == nil || info.Drop == "" {
		return nil
	}
	return rec.RecordItemDrop(phase.ItemDrop{Item: info.Drop, Count: info.DropCount, Pos: pos}, actor)
}

// Spawn records a new entity.
func (s *State) Spawn(rec Recorder, kind string, pos phase.BlockPos, ttl int, actor any) error {
	return rec.RecordEntitySpawn(phase.EntitySpawn{Kind: kind, Pos: pos, TTL: ttl}, actor)
}

// Drop records an item stack hitting the ground.
func (s *State) Drop(rec Recorder, item string, count int32, pos phase.BlockPos, actor any) error {
	return rec.RecordItemDrop(phase.ItemDrop{Item: item, Count: count, Pos: pos}, actor)
}

// Later records a task submission to run delay ticks from now.
func (s *State) Later(rec Recorder, name string, delay int, fn func() error, actor any) error {
	return rec.RecordScheduledInvocation(phase.ScheduledInvocation{Name: name, Delay: delay, Run: fn}, actor)
}
