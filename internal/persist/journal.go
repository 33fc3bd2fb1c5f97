package persist

import (
	"context"
	"sync"

	"github.com/l1jgo/causetrack/internal/core/commit"
	"go.uber.org/zap"
)

// Writer stores a batch of journal entries.
type Writer interface {
	WriteBatch(ctx context.Context, entries []commit.JournalEntry) error
}

// Journal buffers committed entries in memory until the persistence stage
// flushes them. It implements commit.Journal. When the buffer is full the
// oldest entries are dropped.
type Journal struct {
	mu       sync.Mutex
	entries  []commit.JournalEntry
	capacity int
	dropped  int
	log      *zap.Logger
}

func NewJournal(capacity int, log *zap.Logger) *Journal {
	if capacity <= 0 {
		capacity = 10_000
	}
	return &Journal{capacity: capacity, log: log}
}

// Append never blocks.
func (j *Journal) Append(entries ...commit.JournalEntry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entries...)
	j.trim()
}

// Len returns the number of buffered entries.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

// Dropped returns how many entries were discarded for lack of space since the
// last successful flush.
func (j *Journal) Dropped() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.dropped
}

// Flush hands every buffered entry to w. On failure the entries are put back
// in front of anything appended meanwhile and the error is returned.
func (j *Journal) Flush(ctx context.Context, w Writer) (int, error) {
	j.mu.Lock()
	batch := j.entries
	j.entries = nil
	dropped := j.dropped
	j.mu.Unlock()

	if len(batch) == 0 {
		return 0, nil
	}
	if err := w.WriteBatch(ctx, batch); err != nil {
		j.mu.Lock()
		j.entries = append(batch, j.entries...)
		j.trim()
		j.mu.Unlock()
		return 0, err
	}

	if dropped > 0 {
		j.log.Warn("cause journal overflowed, entries lost", zap.Int("dropped", dropped))
		j.mu.Lock()
		j.dropped -= dropped
		j.mu.Unlock()
	}
	return len(batch), nil
}

// trim drops the oldest entries beyond capacity. Caller holds mu.
func (j *Journal) trim() {
	if over := len(j.entries) - j.capacity; over > 0 {
		j.entries = append(j.entries[:0:0], j.entries[over:]...)
		j.dropped += over
	}
}
