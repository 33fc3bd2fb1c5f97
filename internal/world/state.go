package world

import (
	"errors"
	"fmt"
	"sort"

	"github.com/l1jgo/causetrack/internal/core/ecs"
	"github.com/l1jgo/causetrack/internal/core/phase"
	"github.com/l1jgo/causetrack/internal/data"
	"go.uber.org/zap"
)

// ErrNoScheduler is returned by Schedule before a scheduler is attached.
var ErrNoScheduler = errors.New("world: no scheduler attached")

// Scheduler accepts tasks whose submission has been committed.
type Scheduler interface {
	Schedule(inv phase.ScheduledInvocation) error
}

// Entity is the component every spawned entity carries.
type Entity struct {
	Kind string
	Pos  phase.BlockPos
}

// Lifetime is attached to entities that expire after a number of ticks.
type Lifetime struct {
	Remaining int
}

// State holds the simulated world: blocks, ECS entities and ground items.
// It implements phase.Applier, so the committer writes to it and nothing else
// should. Accessed only from the game loop goroutine, no locks needed.
type State struct {
	blocks  map[phase.BlockPos]phase.BlockState
	ticking map[phase.BlockPos]struct{}
	table   *data.BlockTable

	ecs       *ecs.World
	entities  *ecs.PtrComponentStore[Entity]
	lifetimes *ecs.PtrComponentStore[Lifetime]

	ground    map[int32]*GroundItem
	groundTTL int

	updates []phase.BlockPos
	queued  map[phase.BlockPos]struct{}

	sched Scheduler
	log   *zap.Logger
}

// NewState creates an empty world. groundTTL is applied to drops that do not
// carry their own TTL.
func NewState(table *data.BlockTable, groundTTL int, log *zap.Logger) *State {
	w := ecs.NewWorld()
	return &State{
		blocks:    make(map[phase.BlockPos]phase.BlockState, 1024),
		ticking:   make(map[phase.BlockPos]struct{}),
		table:     table,
		ecs:       w,
		entities:  ecs.NewPtrComponentStore[Entity](w.Registry()),
		lifetimes: ecs.NewPtrComponentStore[Lifetime](w.Registry()),
		ground:    make(map[int32]*GroundItem, 64),
		groundTTL: groundTTL,
		queued:    make(map[phase.BlockPos]struct{}),
		log:       log,
	}
}

// SetScheduler attaches the scheduler committed tasks are handed to.
func (s *State) SetScheduler(sched Scheduler) { s.sched = sched }

func (s *State) ECS() *ecs.World                             { return s.ecs }
func (s *State) Entities() *ecs.PtrComponentStore[Entity]    { return s.entities }
func (s *State) Lifetimes() *ecs.PtrComponentStore[Lifetime] { return s.lifetimes }
func (s *State) Blocks() *data.BlockTable                    { return s.table }

// Block returns the committed state at pos.
func (s *State) Block(pos phase.BlockPos) phase.BlockState {
	if st, ok := s.blocks[pos]; ok {
		return st
	}
	return phase.BlockAir
}

// BlockCount returns the number of non-air blocks.
func (s *State) BlockCount() int { return len(s.blocks) }

// ---------- phase.Applier ----------

// SetBlock writes state at pos and queues block updates for pos and its
// vertical neighbours.
func (s *State) SetBlock(pos phase.BlockPos, state phase.BlockState) error {
	if state == "" {
		return fmt.Errorf("set block %s: empty state", pos)
	}
	if state == phase.BlockAir {
		delete(s.blocks, pos)
	} else {
		s.blocks[pos] = state
	}
	if info := s.table.Get(state); info != nil && info.Ticking {
		s.ticking[pos] = struct{}{}
	} else {
		delete(s.ticking, pos)
	}
	s.QueueUpdate(pos)
	s.QueueUpdate(pos.Offset(0, 1, 0))
	s.QueueUpdate(pos.Offset(0, -1, 0))
	return nil
}

// SpawnEntity creates the entity described by spawn.
func (s *State) SpawnEntity(spawn phase.EntitySpawn) error {
	if spawn.Kind == "" {
		return errors.New("spawn entity: empty kind")
	}
	id := s.ecs.CreateEntity()
	s.entities.Set(id, &Entity{Kind: spawn.Kind, Pos: spawn.Pos})
	if spawn.TTL > 0 {
		s.lifetimes.Set(id, &Lifetime{Remaining: spawn.TTL})
	}
	s.log.Debug("entity spawned", zap.Stringer("id", id), zap.String("kind", spawn.Kind), zap.Stringer("pos", spawn.Pos))
	return nil
}

// DropItem places an item stack on the ground.
func (s *State) DropItem(drop phase.ItemDrop) error {
	if drop.Item == "" || drop.Count <= 0 {
		return fmt.Errorf("drop item: invalid stack %dx%q", drop.Count, drop.Item)
	}
	ttl := drop.TTL
	if ttl == 0 {
		ttl = s.groundTTL
	}
	g := &GroundItem{
		ID:    NextGroundItemID(),
		Item:  drop.Item,
		Count: drop.Count,
		Pos:   drop.Pos,
		TTL:   ttl,
	}
	s.ground[g.ID] = g
	return nil
}

// Schedule hands a committed task submission to the scheduler.
func (s *State) Schedule(inv phase.ScheduledInvocation) error {
	if s.sched == nil {
		return ErrNoScheduler
	}
	return s.sched.Schedule(inv)
}

// ---------- block updates ----------

// QueueUpdate asks the block tick system to look at pos on its next run.
func (s *State) QueueUpdate(pos phase.BlockPos) {
	if _, ok := s.queued[pos]; ok {
		return
	}
	s.queued[pos] = struct{}{}
	s.updates = append(s.updates, pos)
}

// TakeUpdates removes and returns up to max queued positions in queue order
// (max <= 0 takes all). Positions queued while the caller processes the batch
// wait for the next call.
func (s *State) TakeUpdates(max int) []phase.BlockPos {
	n := len(s.updates)
	if max > 0 && max < n {
		n = max
	}
	out := make([]phase.BlockPos, n)
	copy(out, s.updates[:n])
	s.updates = append(s.updates[:0], s.updates[n:]...)
	for _, p := range out {
		delete(s.queued, p)
	}
	return out
}

// PendingUpdates returns the number of queued block updates.
func (s *State) PendingUpdates() int { return len(s.updates) }

// TickingBlocks returns the positions of ticking blocks, sorted so that every
// run visits them in the same order.
func (s *State) TickingBlocks() []phase.BlockPos {
	out := make([]phase.BlockPos, 0, len(s.ticking))
	for p := range s.ticking {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Z < b.Z
	})
	return out
}
