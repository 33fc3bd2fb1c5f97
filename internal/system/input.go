package system

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/l1jgo/causetrack/internal/core/commit"
	coresys "github.com/l1jgo/causetrack/internal/core/system"
	"github.com/l1jgo/causetrack/internal/scripting"
	"go.uber.org/zap"
)

// ErrInputFull is returned by Enqueue when the console queue is full.
var ErrInputFull = errors.New("input queue full")

// CommandRunner executes console lines inside their phases.
type CommandRunner interface {
	RunCommand(name string, args []string) error
	RunPlugin(name string) error
}

// CauseLookup reads back the flushed entries of one commit batch.
type CauseLookup interface {
	ByBatch(ctx context.Context, batch uuid.UUID) ([]commit.JournalEntry, error)
}

// InputSystem drains console lines queued by the reader goroutine and runs
// them on the game loop. "plugin <name>" triggers a plugin, "cause <batch>"
// prints a logged batch, anything else is a script command. Stage 0 (Input).
type InputSystem struct {
	lines      chan string
	runner     CommandRunner
	causes     CauseLookup
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(runner CommandRunner, queueSize, maxPerTick int, log *zap.Logger) *InputSystem {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &InputSystem{
		lines:      make(chan string, queueSize),
		runner:     runner,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

// SetCauseLookup enables the cause command.
func (s *InputSystem) SetCauseLookup(l CauseLookup) { s.causes = l }

// Enqueue is safe for concurrent use. It never blocks.
func (s *InputSystem) Enqueue(line string) error {
	select {
	case s.lines <- line:
		return nil
	default:
		return ErrInputFull
	}
}

func (s *InputSystem) Stage() coresys.Stage { return coresys.StageInput }

func (s *InputSystem) Update(_ time.Duration) {
	for n := 0; s.maxPerTick <= 0 || n < s.maxPerTick; n++ {
		select {
		case line := <-s.lines:
			s.exec(line)
		default:
			return
		}
	}
}

func (s *InputSystem) exec(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	var err error
	switch {
	case fields[0] == "cause" && len(fields) == 2:
		s.showCause(fields[1])
		return
	case fields[0] == "plugin" && len(fields) == 2:
		err = s.runner.RunPlugin(fields[1])
	default:
		err = s.runner.RunCommand(fields[0], fields[1:])
	}
	switch {
	case errors.Is(err, scripting.ErrUnknownPlugin):
		s.log.Warn("unknown command", zap.String("line", line))
	case err != nil:
		s.log.Error("command failed", zap.String("line", line), zap.Error(err))
	}
}

func (s *InputSystem) showCause(arg string) {
	if s.causes == nil {
		s.log.Warn("cause log disabled", zap.String("batch", arg))
		return
	}
	batch, err := uuid.Parse(arg)
	if err != nil {
		s.log.Warn("bad batch id", zap.String("batch", arg), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	entries, err := s.causes.ByBatch(ctx, batch)
	if err != nil {
		s.log.Error("cause lookup failed", zap.Stringer("batch", batch), zap.Error(err))
		return
	}
	if len(entries) == 0 {
		s.log.Info("no cause log entries", zap.Stringer("batch", batch))
		return
	}
	for _, e := range entries {
		s.log.Info("cause",
			zap.Stringer("batch", batch),
			zap.Uint64("seq", e.Seq),
			zap.String("phase", e.Phase),
			zap.String("chain", e.Chain),
			zap.String("effect", e.Effect),
			zap.String("actor", e.Actor))
	}
}
