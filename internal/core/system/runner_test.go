package system

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeGuard pretends a stack of depth contexts is open after a leaking system.
type fakeGuard struct {
	depth     int
	unwindErr error
	unwinds   int
}

func (g *fakeGuard) Idle() bool { return g.depth == 0 }
func (g *fakeGuard) Depth() int { return g.depth }

func (g *fakeGuard) Unwind() (int, error) {
	g.unwinds++
	n := g.depth
	g.depth = 0
	return n, g.unwindErr
}

type stubSystem struct {
	stage Stage
	name  string
	leak  int
	guard *fakeGuard
	log   *[]string
}

func (s *stubSystem) Stage() Stage { return s.stage }

func (s *stubSystem) Update(time.Duration) {
	*s.log = append(*s.log, s.name)
	if s.guard != nil {
		s.guard.depth += s.leak
	}
}

func TestTickRunsStagesInOrder(t *testing.T) {
	var log []string
	r := NewRunner(&fakeGuard{}, zap.NewNop())
	r.Register(&stubSystem{stage: StageCleanup, name: "cleanup", log: &log})
	r.Register(&stubSystem{stage: StageInput, name: "input", log: &log})
	r.Register(&stubSystem{stage: StageUpdate, name: "update-a", log: &log})
	r.Register(&stubSystem{stage: StageUpdate, name: "update-b", log: &log})
	r.Register(&stubSystem{stage: StageSchedule, name: "schedule", log: &log})

	require.NoError(t, r.Tick(time.Millisecond))
	assert.Equal(t, []string{"input", "schedule", "update-a", "update-b", "cleanup"}, log)
}

func TestLeakedContextsAreUnwound(t *testing.T) {
	var log []string
	g := &fakeGuard{}
	core, logs := observer.New(zapcore.ErrorLevel)
	r := NewRunner(g, zap.New(core))
	r.Register(&stubSystem{stage: StageUpdate, name: "leaky", leak: 2, guard: g, log: &log})
	r.Register(&stubSystem{stage: StageCleanup, name: "after", log: &log})

	require.NoError(t, r.Tick(time.Millisecond))
	assert.Equal(t, 2, r.Leaks())
	assert.Equal(t, 1, g.unwinds)
	assert.Equal(t, []string{"leaky", "after"}, log, "later systems still run")

	entries := logs.FilterMessage("system left phase contexts open").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2), entries[0].ContextMap()["depth"])
	assert.Equal(t, "update", entries[0].ContextMap()["stage"])
}

func TestUntrustedStackStopsTick(t *testing.T) {
	var log []string
	g := &fakeGuard{unwindErr: errors.New("untrusted")}
	r := NewRunner(g, zap.NewNop())
	r.Register(&stubSystem{stage: StageInput, name: "leaky", leak: 1, guard: g, log: &log})
	r.Register(&stubSystem{stage: StageCleanup, name: "never", log: &log})

	err := r.Tick(time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "untrusted")
	assert.Equal(t, []string{"leaky"}, log)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "input", StageInput.String())
	assert.Equal(t, "cleanup", StageCleanup.String())
}
