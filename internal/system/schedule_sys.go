package system

import (
	"time"

	coresys "github.com/l1jgo/causetrack/internal/core/system"
	"github.com/l1jgo/causetrack/internal/schedule"
)

// ScheduleSystem runs due scheduled tasks, each inside its own scheduled_task
// phase. Stage 1 (Schedule).
type ScheduleSystem struct {
	sched *schedule.Scheduler
}

func NewScheduleSystem(sched *schedule.Scheduler) *ScheduleSystem {
	return &ScheduleSystem{sched: sched}
}

func (s *ScheduleSystem) Stage() coresys.Stage { return coresys.StageSchedule }

func (s *ScheduleSystem) Update(_ time.Duration) {
	s.sched.RunPending()
}
