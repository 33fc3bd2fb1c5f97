package system

import (
	"time"

	"github.com/l1jgo/causetrack/internal/core/ecs"
	"github.com/l1jgo/causetrack/internal/core/phase"
	coresys "github.com/l1jgo/causetrack/internal/core/system"
	"github.com/l1jgo/causetrack/internal/scripting"
	"github.com/l1jgo/causetrack/internal/world"
	"go.uber.org/zap"
)

// LootTable decides what a dying entity leaves behind.
type LootTable interface {
	EntityLoot(kind string) []scripting.Loot
}

// EntityTickSystem ages ground items and entities with a lifetime. Entities
// whose lifetime runs out die in a nested entity_death phase, so their loot is
// attributed to both the tick and the death. Stage 2 (Update).
type EntityTickSystem struct {
	world *world.State
	tr    Tracker
	loot  LootTable // nil = no loot
	log   *zap.Logger
	tick  uint64
}

func NewEntityTickSystem(ws *world.State, tr Tracker, loot LootTable, log *zap.Logger) *EntityTickSystem {
	return &EntityTickSystem{world: ws, tr: tr, loot: loot, log: log}
}

func (s *EntityTickSystem) Stage() coresys.Stage { return coresys.StageUpdate }

func (s *EntityTickSystem) Update(_ time.Duration) {
	s.tick++
	s.world.TickGroundItems()

	if s.world.Lifetimes().Len() == 0 {
		return
	}
	err := s.tr.Run(phase.EntityTick, s.tick, func() error {
		var firstErr error
		ecs.Each2(s.world.Entities(), s.world.Lifetimes(), func(id ecs.EntityID, e *world.Entity, l *world.Lifetime) {
			if l.Remaining <= 0 {
				return // already dead, waiting for cleanup
			}
			l.Remaining--
			if l.Remaining > 0 {
				return
			}
			if err := s.tr.Run(phase.EntityDeath, id, func() error { return s.die(id, e) }); err != nil && firstErr == nil {
				firstErr = err
			}
		})
		return firstErr
	})
	if err != nil {
		s.log.Error("entity tick failed", zap.Uint64("tick", s.tick), zap.Error(err))
	}
}

// die records the entity's loot and queues it for destruction.
func (s *EntityTickSystem) die(id ecs.EntityID, e *world.Entity) error {
	s.world.ECS().MarkForDestruction(id)
	if s.loot == nil {
		return nil
	}
	for _, l := range s.loot.EntityLoot(e.Kind) {
		if err := s.world.Drop(s.tr, l.Item, l.Count, e.Pos, id); err != nil {
			return err
		}
	}
	return nil
}
