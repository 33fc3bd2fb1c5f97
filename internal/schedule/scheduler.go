package schedule

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/l1jgo/causetrack/internal/core/phase"
	"go.uber.org/zap"
)

var (
	ErrQueueFull = errors.New("scheduler queue full")
	ErrClosed    = errors.New("scheduler closed")
)

// Bridge is the tracker side of task execution.
type Bridge interface {
	RunScheduled(task any, fn func() error) error
	SetShuttingDown()
}

// Task is one deferred callback. It is the source of the scheduled_task
// context it runs in.
type Task struct {
	ID   uint64
	Name string
	Due  uint64 // tick number at which the task becomes runnable
	Run  func() error
}

func (t *Task) String() string {
	return fmt.Sprintf("task#%d(%s)", t.ID, t.Name)
}

// Scheduler queues tasks from any goroutine and runs them on the game loop.
// Submit is safe for concurrent use. RunPending belongs to the game loop;
// Shutdown may race it, and every task still runs exactly once.
type Scheduler struct {
	bridge     Bridge
	log        *zap.Logger
	maxPerTick int

	mu       sync.RWMutex // guards closed and pending
	closed   bool
	incoming chan *Task
	pending  []*Task

	nextID atomic.Uint64
	tick   atomic.Uint64
}

func New(bridge Bridge, queueSize, maxPerTick int, log *zap.Logger) *Scheduler {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Scheduler{
		bridge:     bridge,
		log:        log,
		maxPerTick: maxPerTick,
		incoming:   make(chan *Task, queueSize),
	}
}

// Submit queues fn to run delay ticks from now (0 = next RunPending).
func (s *Scheduler) Submit(name string, delay int, fn func() error) (*Task, error) {
	if fn == nil {
		return nil, fmt.Errorf("submit %s: nil func", name)
	}
	if delay < 0 {
		delay = 0
	}
	t := &Task{
		ID:   s.nextID.Add(1),
		Name: name,
		Due:  s.tick.Load() + uint64(delay),
		Run:  fn,
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("submit %s: %w", t, ErrClosed)
	}
	select {
	case s.incoming <- t:
		return t, nil
	default:
		return nil, fmt.Errorf("submit %s: %w", t, ErrQueueFull)
	}
}

// Schedule adapts a committed ScheduledInvocation record.
func (s *Scheduler) Schedule(inv phase.ScheduledInvocation) error {
	_, err := s.Submit(inv.Name, inv.Delay, inv.Run)
	return err
}

// Tick returns the current tick number.
func (s *Scheduler) Tick() uint64 { return s.tick.Load() }

// Pending returns how many accepted tasks have not run yet.
func (s *Scheduler) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending) + len(s.incoming)
}

// RunPending advances the tick and runs every due task, at most maxPerTick of
// them (0 = unlimited). It returns the number of tasks run. Tasks submitted
// while it runs wait for the next call.
func (s *Scheduler) RunPending() int {
	now := s.tick.Add(1)
	s.mu.Lock()
	s.collect()
	s.mu.Unlock()

	ran := 0
	for s.maxPerTick <= 0 || ran < s.maxPerTick {
		t := s.popDue(now)
		if t == nil {
			break
		}
		s.run(t)
		ran++
	}
	return ran
}

// popDue removes the head of the pending list if it is due by now.
func (s *Scheduler) popDue(now uint64) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 || s.pending[0].Due > now {
		return nil
	}
	t := s.pending[0]
	s.pending = s.pending[1:]
	return t
}

// Shutdown stops accepting tasks, flags the tracker as shutting down and runs
// everything still queued, due or not. It may be called from whichever
// goroutine handles shutdown, even while the loop is inside RunPending; off the
// owner goroutine the tasks run untracked.
func (s *Scheduler) Shutdown() int {
	s.mu.Lock()
	s.closed = true
	s.collect()
	drain := s.pending
	s.pending = nil
	s.mu.Unlock()

	s.bridge.SetShuttingDown()

	for _, t := range drain {
		s.run(t)
	}
	if len(drain) > 0 {
		s.log.Info("drained scheduled tasks on shutdown", zap.Int("tasks", len(drain)))
	}
	return len(drain)
}

// collect moves submitted tasks into the pending list, ordered by due tick
// then submission order. Caller holds mu.
func (s *Scheduler) collect() {
	added := false
	for {
		select {
		case t := <-s.incoming:
			s.pending = append(s.pending, t)
			added = true
			continue
		default:
		}
		break
	}
	if added {
		sort.SliceStable(s.pending, func(i, j int) bool {
			if s.pending[i].Due != s.pending[j].Due {
				return s.pending[i].Due < s.pending[j].Due
			}
			return s.pending[i].ID < s.pending[j].ID
		})
	}
}

func (s *Scheduler) run(t *Task) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Error("scheduled task panicked", zap.Stringer("task", t), zap.Any("panic", p))
		}
	}()
	if err := s.bridge.RunScheduled(t, t.Run); err != nil {
		s.log.Error("scheduled task failed", zap.Stringer("task", t), zap.Error(err))
	}
}
