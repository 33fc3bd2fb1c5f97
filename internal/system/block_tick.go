package system

import (
	"time"

	"github.com/l1jgo/causetrack/internal/core/phase"
	coresys "github.com/l1jgo/causetrack/internal/core/system"
	"github.com/l1jgo/causetrack/internal/world"
	"go.uber.org/zap"
)

// BlockRules runs scripted behaviour for ticking blocks.
type BlockRules interface {
	HasBlockRule() bool
	BlockTick(pos phase.BlockPos, state phase.BlockState) error
}

// BlockTickSystem processes queued block updates (gravity, fragile blocks)
// and the scripted rule of ticking blocks. Every position runs in its own
// block_tick phase; reactions of the blocks around it run in a nested
// neighbor_notify phase. Stage 2 (Update).
type BlockTickSystem struct {
	world      *world.State
	tr         Tracker
	rules      BlockRules // nil = no scripted rules
	maxPerTick int
	log        *zap.Logger
}

func NewBlockTickSystem(ws *world.State, tr Tracker, rules BlockRules, maxPerTick int, log *zap.Logger) *BlockTickSystem {
	return &BlockTickSystem{
		world:      ws,
		tr:         tr,
		rules:      rules,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *BlockTickSystem) Stage() coresys.Stage { return coresys.StageUpdate }

func (s *BlockTickSystem) Update(_ time.Duration) {
	for _, pos := range s.world.TakeUpdates(s.maxPerTick) {
		if err := s.tr.Run(phase.BlockTick, pos, func() error { return s.updateBlock(pos) }); err != nil {
			s.log.Error("block update failed", zap.Stringer("pos", pos), zap.Error(err))
		}
	}

	if s.rules == nil || !s.rules.HasBlockRule() {
		return
	}
	for _, pos := range s.world.TickingBlocks() {
		err := s.tr.Run(phase.BlockTick, pos, func() error {
			state := s.world.BlockAt(s.tr, pos)
			if state == phase.BlockAir {
				return nil
			}
			return s.rules.BlockTick(pos, state)
		})
		if err != nil {
			s.log.Error("block rule failed", zap.Stringer("pos", pos), zap.Error(err))
		}
	}
}

// updateBlock applies physics to the block at pos.
func (s *BlockTickSystem) updateBlock(pos phase.BlockPos) error {
	state := s.world.BlockAt(s.tr, pos)
	info := s.world.Blocks().Get(state)
	if info == nil {
		return nil
	}
	below := pos.Offset(0, -1, 0)
	if s.world.BlockAt(s.tr, below) != phase.BlockAir {
		return nil
	}

	switch {
	case info.Gravity:
		if err := s.world.PlaceBlock(s.tr, pos, phase.BlockAir, "gravity"); err != nil {
			return err
		}
		if err := s.world.PlaceBlock(s.tr, below, state, "gravity"); err != nil {
			return err
		}
	case info.Fragile:
		if err := s.world.BreakBlock(s.tr, pos, "unsupported"); err != nil {
			return err
		}
	default:
		return nil
	}
	return s.tr.Run(phase.NeighborNotify, pos, func() error { return s.notifyAbove(pos) })
}

// notifyAbove breaks a fragile block resting on pos, which has just become
// air.
func (s *BlockTickSystem) notifyAbove(pos phase.BlockPos) error {
	above := pos.Offset(0, 1, 0)
	info := s.world.Blocks().Get(s.world.BlockAt(s.tr, above))
	if info == nil || !info.Fragile {
		return nil
	}
	return s.world.BreakBlock(s.tr, above, "unsupported")
}
