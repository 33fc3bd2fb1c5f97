package system

import (
	"context"
	"time"

	coresys "github.com/l1jgo/causetrack/internal/core/system"
	"github.com/l1jgo/causetrack/internal/persist"
	"go.uber.org/zap"
)

// Pruner deletes cause log entries older than a number of days.
type Pruner interface {
	Prune(ctx context.Context, days int) (int64, error)
}

// PersistenceSystem periodically writes the buffered cause journal to the
// database and, with a retention set, prunes old entries. Stage 4 (Persist).
type PersistenceSystem struct {
	journal   *persist.Journal
	writer    persist.Writer
	log       *zap.Logger
	tickCount int
	interval  int // flush every N ticks

	pruner        Pruner
	retentionDays int
	pruneEvery    int // prune every N successful flushes
	flushes       int
}

func NewPersistenceSystem(journal *persist.Journal, writer persist.Writer, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	return &PersistenceSystem{
		journal:  journal,
		writer:   writer,
		log:      log,
		interval: intervalTicks,
	}
}

// SetRetention enables pruning: every pruneEvery successful interval flushes,
// entries older than days are deleted. days <= 0 disables it.
func (s *PersistenceSystem) SetRetention(p Pruner, days, pruneEvery int) {
	if pruneEvery < 1 {
		pruneEvery = 1
	}
	s.pruner = p
	s.retentionDays = days
	s.pruneEvery = pruneEvery
}

func (s *PersistenceSystem) Stage() coresys.Stage { return coresys.StagePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	if !s.Flush() || s.pruner == nil || s.retentionDays <= 0 {
		return
	}
	s.flushes++
	if s.flushes < s.pruneEvery {
		return
	}
	s.flushes = 0
	s.prune()
}

// Flush writes everything buffered right away and reports whether it
// succeeded. Also called on shutdown.
func (s *PersistenceSystem) Flush() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n, err := s.journal.Flush(ctx, s.writer)
	if err != nil {
		s.log.Error("cause journal flush failed", zap.Int("pending", s.journal.Len()), zap.Error(err))
		return false
	}
	if n > 0 {
		s.log.Debug("cause journal flushed", zap.Int("entries", n))
	}
	return true
}

func (s *PersistenceSystem) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := s.pruner.Prune(ctx, s.retentionDays)
	if err != nil {
		s.log.Error("cause log prune failed", zap.Int("retention_days", s.retentionDays), zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("cause log pruned", zap.Int64("entries", n), zap.Int("retention_days", s.retentionDays))
	}
}
