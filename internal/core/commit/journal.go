package commit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/l1jgo/causetrack/internal/core/phase"
)

// JournalEntry describes one applied record for the cause log.
type JournalEntry struct {
	Batch    uuid.UUID
	Seq      uint64
	Phase    string
	Category string
	Chain    string
	Effect   string
	Actor    string
	At       time.Time
}

// Journal receives the entries of every committed batch. Implementations must
// not block; the persist stage flushes them later.
type Journal interface {
	Append(entries ...JournalEntry)
}

func newJournalEntry(batch uuid.UUID, r *phase.Record, at time.Time) JournalEntry {
	actor := ""
	if r.Actor != nil {
		actor = fmt.Sprint(r.Actor)
	}
	return JournalEntry{
		Batch:    batch,
		Seq:      r.Seq,
		Phase:    r.Chain.Leaf().Phase,
		Category: r.Category().String(),
		Chain:    r.Chain.String(),
		Effect:   r.Effect.String(),
		Actor:    actor,
		At:       at,
	}
}
