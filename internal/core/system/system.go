package system

import "time"

// Stage defines execution ordering within a single tick.
type Stage int

const (
	StageInput    Stage = iota // 0: console commands, plugin triggers
	StageSchedule              // 1: due scheduled tasks
	StageUpdate                // 2: block and entity ticks
	StageEvents                // 3: deferred event lane
	StagePersist               // 4: cause journal flush
	StageCleanup               // 5: destroy queued entities
)

func (s Stage) String() string {
	switch s {
	case StageInput:
		return "input"
	case StageSchedule:
		return "schedule"
	case StageUpdate:
		return "update"
	case StageEvents:
		return "events"
	case StagePersist:
		return "persist"
	case StageCleanup:
		return "cleanup"
	}
	return "stage?"
}

// System is the interface every tick system implements.
type System interface {
	Stage() Stage
	Update(dt time.Duration)
}
