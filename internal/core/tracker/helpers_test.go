package tracker

import (
	"errors"
	"testing"

	"github.com/l1jgo/causetrack/internal/core/commit"
	"github.com/l1jgo/causetrack/internal/core/event"
	"github.com/l1jgo/causetrack/internal/core/phase"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errBoom = errors.New("boom")

// memWorld is an in-memory phase.Applier.
type memWorld struct {
	blocks    map[phase.BlockPos]phase.BlockState
	spawns    []phase.EntitySpawn
	drops     []phase.ItemDrop
	scheduled []phase.ScheduledInvocation
}

func newMemWorld() *memWorld {
	return &memWorld{blocks: make(map[phase.BlockPos]phase.BlockState)}
}

func (w *memWorld) SetBlock(pos phase.BlockPos, st phase.BlockState) error {
	w.blocks[pos] = st
	return nil
}

func (w *memWorld) SpawnEntity(s phase.EntitySpawn) error {
	w.spawns = append(w.spawns, s)
	return nil
}

func (w *memWorld) DropItem(d phase.ItemDrop) error {
	w.drops = append(w.drops, d)
	return nil
}

func (w *memWorld) Schedule(inv phase.ScheduledInvocation) error {
	w.scheduled = append(w.scheduled, inv)
	return nil
}

type fixture struct {
	tr    *Tracker
	world *memWorld
	bus   *event.Bus
	reg   *phase.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithLog(t, zap.NewNop())
}

func newFixtureWithLog(t *testing.T, log *zap.Logger) *fixture {
	t.Helper()
	return build(t, phase.DefaultRegistry(), log)
}

// newFixtureWithDefs registers extra definitions next to the built-ins.
func newFixtureWithDefs(t *testing.T, extra ...*phase.Definition) *fixture {
	t.Helper()
	var defs []*phase.Definition
	for _, s := range phase.Builtins() {
		defs = append(defs, phase.Define(s))
	}
	reg, err := phase.NewRegistry(append(defs, extra...)...)
	require.NoError(t, err)
	return build(t, reg, zap.NewNop())
}

func build(t *testing.T, reg *phase.Registry, log *zap.Logger) *fixture {
	t.Helper()
	w := newMemWorld()
	bus := event.NewBus()
	c := commit.New(w, log, commit.Options{Bus: bus, MaxPasses: 4})
	tr, err := New(reg, c, log)
	require.NoError(t, err)
	return &fixture{tr: tr, world: w, bus: bus, reg: reg}
}

func (f *fixture) push(t *testing.T, name string, source any) *Frame {
	t.Helper()
	fr, err := f.tr.Begin(name, source)
	require.NoError(t, err)
	return fr
}

func (f *fixture) pop(t *testing.T, fr *Frame) commit.Result {
	t.Helper()
	res, err := f.tr.Pop(fr)
	require.NoError(t, err)
	return res
}

func stone(x int32) (phase.BlockPos, phase.BlockState, phase.BlockState) {
	return phase.BlockPos{X: x, Y: 64}, phase.BlockAir, "STONE"
}

// onOtherGoroutine runs fn on a fresh goroutine and waits for it.
func onOtherGoroutine(fn func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	<-done
}
