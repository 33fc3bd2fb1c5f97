package commit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/l1jgo/causetrack/internal/core/event"
	"github.com/l1jgo/causetrack/internal/core/phase"
	"go.uber.org/zap"
)

// Outcome is how a popped context was finalized.
type Outcome uint8

const (
	Committed Outcome = iota
	Discarded
	Merged
)

func (o Outcome) String() string {
	switch o {
	case Committed:
		return "committed"
	case Discarded:
		return "discarded"
	case Merged:
		return "merged"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

// Result summarizes one Commit call.
type Result struct {
	Batch     uuid.UUID
	Outcome   Outcome
	Applied   int
	Elided    int // cancelled by a listener
	Failed    int // apply returned an error or panicked
	Discarded int // dropped with a cancelled context
	Merged    int // handed to the parent context
	Dropped   int // still pending after the last pass
	Passes    int
}

// DefaultMaxPasses bounds how many times Commit re-drains a context that keeps
// receiving records from its own listeners.
const DefaultMaxPasses = 16

// Options carries the optional collaborators of a Committer.
type Options struct {
	Bus       *event.Bus
	Journal   Journal
	MaxPasses int
	Now       func() time.Time
}

// Committer finalizes popped contexts: it notifies listeners, applies the
// surviving records to the world and reports what happened.
// Game loop goroutine only.
type Committer struct {
	target    phase.Applier
	bus       *event.Bus
	journal   Journal
	maxPasses int
	now       func() time.Time
	log       *zap.Logger
}

func New(target phase.Applier, log *zap.Logger, opts Options) *Committer {
	if opts.MaxPasses <= 0 {
		opts.MaxPasses = DefaultMaxPasses
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Bus == nil {
		opts.Bus = event.NewBus()
	}
	return &Committer{
		target:    target,
		bus:       opts.Bus,
		journal:   opts.Journal,
		maxPasses: opts.MaxPasses,
		now:       opts.Now,
		log:       log,
	}
}

// Bus returns the bus listeners subscribe on.
func (c *Committer) Bus() *event.Bus { return c.bus }

// Apply writes a record straight to the world. Used for categories the active
// phase passes through.
func (c *Committer) Apply(r *phase.Record) error {
	if err := c.safeApply(r); err != nil {
		recordsTotal.WithLabelValues(r.Category().String(), resultFailed).Inc()
		return err
	}
	recordsTotal.WithLabelValues(r.Category().String(), resultPassthrough).Inc()
	return nil
}

// Commit finalizes ctx, which must be in the completing state.
func (c *Committer) Commit(ctx *phase.Context) Result {
	def := ctx.Definition()
	res := Result{Batch: uuid.New()}

	switch {
	case ctx.Cancelled():
		res.Outcome = Discarded
		for _, r := range ctx.Drain() {
			res.Discarded++
			recordsTotal.WithLabelValues(r.Category().String(), resultDiscarded).Inc()
		}
		c.finish(ctx, phase.StateDiscarded, &res)
		return res

	case def.Completion() == phase.Merge && ctx.Parent() != nil && !ctx.Parent().IsRoot():
		// The parent reports these as part of its own event.
		res.Outcome = Merged
		recs := ctx.Drain()
		ctx.Parent().Adopt(recs)
		res.Merged = len(recs)
		for _, r := range recs {
			recordsTotal.WithLabelValues(r.Category().String(), resultMerged).Inc()
		}
		c.finish(ctx, phase.StateCommitted, &res)
		return res
	}

	res.Outcome = Committed
	var entries []JournalEntry
	for {
		recs := ctx.Drain()
		if len(recs) == 0 {
			break
		}
		if res.Passes >= c.maxPasses {
			res.Dropped += len(recs)
			c.log.Error("commit pass limit reached, dropping records",
				zap.Stringer("context", ctx),
				zap.Int("passes", res.Passes),
				zap.Int("dropped", len(recs)))
			for _, r := range recs {
				recordsTotal.WithLabelValues(r.Category().String(), resultDropped).Inc()
			}
			break
		}
		res.Passes++

		for _, r := range recs {
			c.dispatch(r, def.Cancellable())
		}

		at := c.now()
		for _, cat := range phase.Categories() {
			for _, r := range recs {
				if r.Category() != cat {
					continue
				}
				if r.Cancelled() {
					res.Elided++
					recordsTotal.WithLabelValues(cat.String(), resultElided).Inc()
					continue
				}
				if err := c.safeApply(r); err != nil {
					res.Failed++
					recordsTotal.WithLabelValues(cat.String(), resultFailed).Inc()
					c.log.Error("apply record failed, skipping",
						zap.Stringer("context", ctx),
						zap.Stringer("record", r),
						zap.Error(err))
					continue
				}
				res.Applied++
				recordsTotal.WithLabelValues(cat.String(), resultApplied).Inc()
				if c.journal != nil {
					entries = append(entries, newJournalEntry(res.Batch, r, at))
				}
			}
		}
	}

	if c.journal != nil && len(entries) > 0 {
		c.journal.Append(entries...)
	}
	c.finish(ctx, phase.StateCommitted, &res)
	return res
}

func (c *Committer) finish(ctx *phase.Context, to phase.State, res *Result) {
	if err := ctx.Transition(to); err != nil {
		c.log.Error("context transition", zap.Error(err))
	}
	contextsTotal.WithLabelValues(ctx.Name(), res.Outcome.String()).Inc()
	batchSize.Observe(float64(res.Applied + res.Elided + res.Failed + res.Discarded + res.Merged))
	event.Emit(c.bus, CommitCompleted{
		Batch:   res.Batch,
		Phase:   ctx.Name(),
		Source:  ctx.Source(),
		Outcome: res.Outcome,
		Applied: res.Applied,
		Elided:  res.Elided,
		Failed:  res.Failed,
	})
}

// dispatch publishes the typed event for r. Nothing is built for event types
// without subscribers. A panicking listener is logged and treated as not
// having cancelled anything.
func (c *Committer) dispatch(r *phase.Record, cancellable bool) {
	defer func() {
		if p := recover(); p != nil {
			c.log.Error("listener panicked",
				zap.Stringer("record", r),
				zap.Any("panic", p))
		}
	}()
	switch e := r.Effect.(type) {
	case phase.BlockChange:
		if event.HasSubscribers[*BlockChangeEvent](c.bus) {
			event.Publish(c.bus, &BlockChangeEvent{CauseEvent: newCauseEvent(r, cancellable), Change: e})
		}
	case phase.EntitySpawn:
		if event.HasSubscribers[*EntitySpawnEvent](c.bus) {
			event.Publish(c.bus, &EntitySpawnEvent{CauseEvent: newCauseEvent(r, cancellable), Spawn: e})
		}
	case phase.ItemDrop:
		if event.HasSubscribers[*ItemDropEvent](c.bus) {
			event.Publish(c.bus, &ItemDropEvent{CauseEvent: newCauseEvent(r, cancellable), Drop: e})
		}
	case phase.ScheduledInvocation:
		if event.HasSubscribers[*TaskScheduleEvent](c.bus) {
			event.Publish(c.bus, &TaskScheduleEvent{CauseEvent: newCauseEvent(r, cancellable), Task: e})
		}
	}
}

func newCauseEvent(r *phase.Record, cancellable bool) *CauseEvent {
	return &CauseEvent{
		Category:    r.Category(),
		Chain:       r.Chain,
		Actor:       r.Actor,
		record:      r,
		cancellable: cancellable,
	}
}

// safeApply turns a panicking apply into an error so one bad mutation cannot
// abandon the rest of the batch.
func (c *Committer) safeApply(r *phase.Record) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("apply %s panicked: %v", r.Effect, p)
		}
	}()
	return r.Effect.Apply(c.target)
}
