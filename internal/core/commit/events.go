package commit

import (
	"github.com/google/uuid"
	"github.com/l1jgo/causetrack/internal/core/phase"
)

// CauseEvent is the part every causal payload shares: what kind of mutation it
// is, the chain that produced it and a cancel flag.
type CauseEvent struct {
	Category phase.Category
	Chain    phase.Chain
	Actor    any

	record      *phase.Record
	cancellable bool
}

// Phase returns the name of the phase that directly produced the mutation.
func (e *CauseEvent) Phase() string { return e.Chain.Leaf().Phase }

// Cancellable reports whether Cancel has any effect.
func (e *CauseEvent) Cancellable() bool { return e.cancellable }

// Cancel elides this mutation from the apply step. It is a no-op when the
// committing phase is not cancellable.
func (e *CauseEvent) Cancel() {
	if e.cancellable {
		e.record.Cancel()
	}
}

func (e *CauseEvent) Cancelled() bool { return e.record.Cancelled() }

// BlockChangeEvent is published before a captured block change is applied.
type BlockChangeEvent struct {
	*CauseEvent
	Change phase.BlockChange
}

// EntitySpawnEvent is published before a captured spawn is applied.
type EntitySpawnEvent struct {
	*CauseEvent
	Spawn phase.EntitySpawn
}

// ItemDropEvent is published before a captured drop is applied.
type ItemDropEvent struct {
	*CauseEvent
	Drop phase.ItemDrop
}

// TaskScheduleEvent is published before a captured task is handed to the
// scheduler.
type TaskScheduleEvent struct {
	*CauseEvent
	Task phase.ScheduledInvocation
}

// CommitCompleted goes out on the deferred lane once a context is finalized.
type CommitCompleted struct {
	Batch   uuid.UUID
	Phase   string
	Source  any
	Outcome Outcome
	Applied int
	Elided  int
	Failed  int
}
