package system

import (
	"time"

	"github.com/l1jgo/causetrack/internal/core/ecs"
	coresys "github.com/l1jgo/causetrack/internal/core/system"
	"go.uber.org/zap"
)

// CleanupSystem flushes the deferred entity destruction queue at tick end, so
// entities never disappear in the middle of a commit. Stage 5 (Cleanup).
type CleanupSystem struct {
	world *ecs.World
	log   *zap.Logger
}

func NewCleanupSystem(world *ecs.World, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{world: world, log: log}
}

func (s *CleanupSystem) Stage() coresys.Stage { return coresys.StageCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	if n := s.world.FlushDestroyQueue(); n > 0 {
		s.log.Debug("entities destroyed", zap.Int("count", n), zap.Int("live", s.world.Live()))
	}
}
