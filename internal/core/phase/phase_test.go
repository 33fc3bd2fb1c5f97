package phase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapturePolicy(t *testing.T) {
	p := CaptureOf(CategoryBlock, CategoryDrop)
	assert.True(t, p.Captures(CategoryBlock))
	assert.True(t, p.Captures(CategoryDrop))
	assert.False(t, p.Captures(CategoryEntity))
	assert.False(t, p.Captures(CategoryScheduled))
	assert.False(t, CaptureNone.Captures(CategoryBlock))
	for _, c := range Categories() {
		assert.True(t, CaptureAll.Captures(c), c.String())
	}
	assert.Equal(t, "none", CaptureNone.String())
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		got, err := ParseCategory(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	got, err := ParseCategory(" Item_Drop ")
	require.NoError(t, err)
	assert.Equal(t, CategoryDrop, got)

	_, err = ParseCategory("weather")
	assert.Error(t, err)
}

func TestParseCompletion(t *testing.T) {
	c, err := ParseCompletion("merge")
	require.NoError(t, err)
	assert.Equal(t, Merge, c)
	c, err = ParseCompletion("")
	require.NoError(t, err)
	assert.Equal(t, Independent, c)
	_, err = ParseCompletion("sometimes")
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	t.Run("requires idle", func(t *testing.T) {
		_, err := NewRegistry(Define(Spec{Name: Plugin, Capture: CaptureAll}))
		assert.Error(t, err)
	})

	t.Run("idle must not capture", func(t *testing.T) {
		_, err := NewRegistry(Define(Spec{Name: Idle, Capture: CaptureAll}))
		assert.Error(t, err)
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		_, err := NewRegistry(
			Define(Spec{Name: Idle}),
			Define(Spec{Name: Plugin}),
			Define(Spec{Name: Plugin}),
		)
		assert.Error(t, err)
	})

	t.Run("lookup", func(t *testing.T) {
		r := DefaultRegistry()
		assert.Equal(t, len(Builtins()), r.Count())
		d, err := r.Lookup(ScheduledTask)
		require.NoError(t, err)
		assert.Same(t, d, r.MustLookup(ScheduledTask))
		assert.Equal(t, Idle, r.Idle().Name())

		_, err = r.Lookup("weather")
		assert.True(t, errors.Is(err, ErrUnknownPhase))
		assert.Panics(t, func() { r.MustLookup("weather") })
	})

	t.Run("names sorted", func(t *testing.T) {
		names := DefaultRegistry().Names()
		assert.IsIncreasing(t, names)
	})
}

func TestDefinitionIsFrozen(t *testing.T) {
	spec := Spec{Name: "custom", Capture: CaptureOf(CategoryBlock), Cancellable: true}
	d := Define(spec)
	spec.Capture = CaptureAll
	spec.Cancellable = false

	assert.True(t, d.Captures(CategoryBlock))
	assert.False(t, d.Captures(CategoryEntity))
	assert.True(t, d.Cancellable())

	again := Define(d.Spec())
	assert.NotSame(t, d, again)
	assert.Equal(t, d.Capture(), again.Capture())
}

func TestCustomFactory(t *testing.T) {
	var gotSource any
	d := Define(Spec{Name: "custom", Factory: func(def *Definition, source any, _ *Registry) *Context {
		gotSource = source
		return NewContext(def, source)
	}})
	ctx := d.NewContext("src", nil)
	assert.Equal(t, "src", gotSource)
	assert.Same(t, d, ctx.Definition())
	assert.Equal(t, StateActive, ctx.State())
}

func newChain(t *testing.T) (root, a, b *Context) {
	t.Helper()
	r := DefaultRegistry()
	root = NewRoot(r.Idle())
	a = NewContext(r.MustLookup(ScheduledTask), "task-x")
	require.NoError(t, a.Attach(root))
	b = NewContext(r.MustLookup(NeighborNotify), BlockPos{X: 1})
	require.NoError(t, b.Attach(a))
	return root, a, b
}

func TestContextChain(t *testing.T) {
	root, a, b := newChain(t)

	assert.True(t, root.IsRoot())
	assert.Equal(t, StateIdle, root.State())
	assert.Equal(t, 0, root.Depth())
	assert.Equal(t, 2, b.Depth())
	assert.Same(t, a, b.Parent())

	chain := b.Chain()
	require.Len(t, chain, 3)
	assert.Equal(t, Idle, chain[0].Phase)
	assert.Equal(t, Cause{Phase: ScheduledTask, Source: "task-x"}, chain[1])
	assert.Equal(t, NeighborNotify, chain.Leaf().Phase)
	assert.Equal(t, "[idle > scheduled_task(task-x) > neighbor_notify((1,0,0))]", chain.String())
}

func TestAttachOnce(t *testing.T) {
	root, a, _ := newChain(t)
	assert.Error(t, a.Attach(root))
	assert.Error(t, a.Attach(nil))
}

func TestTransitions(t *testing.T) {
	_, a, _ := newChain(t)

	assert.Error(t, a.Transition(StateCommitted), "active cannot skip completing")
	require.NoError(t, a.Transition(StateCompleting))
	require.NoError(t, a.Transition(StateCommitted))
	assert.Error(t, a.Transition(StateActive), "contexts only move forward")
	assert.Error(t, a.Transition(StateDiscarded))
}

func TestCaptureSnapshotsChain(t *testing.T) {
	_, a, b := newChain(t)
	r := b.Capture(BlockChange{Pos: BlockPos{Y: 64}, Old: BlockAir, New: "STONE"}, "actor")

	assert.Equal(t, uint64(1), r.Seq)
	assert.Equal(t, "actor", r.Actor)
	assert.Equal(t, b.Chain(), r.Chain)
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, 0, a.Len())
}

func TestBufferOrdering(t *testing.T) {
	_, a, _ := newChain(t)
	a.Capture(ItemDrop{Item: "sand", Count: 1}, nil)
	a.Capture(BlockChange{Pos: BlockPos{X: 1}, New: "SAND"}, nil)
	a.Capture(EntitySpawn{Kind: "zombie"}, nil)
	a.Capture(BlockChange{Pos: BlockPos{X: 2}, New: "SAND"}, nil)

	recs := a.Records()
	require.Len(t, recs, 4)
	for i, r := range recs {
		assert.Equal(t, uint64(i+1), r.Seq)
	}

	blocks := a.ByCategory(CategoryBlock)
	require.Len(t, blocks, 2)
	assert.Equal(t, int32(1), blocks[0].Effect.(BlockChange).Pos.X)
	assert.Equal(t, int32(2), blocks[1].Effect.(BlockChange).Pos.X)
	assert.Len(t, a.ByCategory(CategoryScheduled), 0)
	assert.Nil(t, a.ByCategory(Category(99)))
}

func TestDrainAndAdopt(t *testing.T) {
	_, a, b := newChain(t)
	a.Capture(BlockChange{Pos: BlockPos{X: 1}, New: "STONE"}, nil)
	b.Capture(BlockChange{Pos: BlockPos{X: 2}, New: "SAND"}, nil)
	b.Capture(ItemDrop{Item: "torch", Count: 1}, nil)

	drained := b.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.ByCategory(CategoryBlock))

	a.Adopt(drained)
	recs := a.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, "STONE", string(recs[0].Effect.(BlockChange).New))
	assert.Equal(t, "SAND", string(recs[1].Effect.(BlockChange).New))
	assert.Equal(t, "torch", recs[2].Effect.(ItemDrop).Item)
	// Adopted records keep the chain they were captured under.
	assert.Equal(t, NeighborNotify, recs[1].Chain.Leaf().Phase)
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{recs[0].Seq, recs[1].Seq, recs[2].Seq})
}

func TestPendingBlock(t *testing.T) {
	_, a, _ := newChain(t)
	pos := BlockPos{Y: 64}

	_, ok := a.PendingBlock(pos)
	assert.False(t, ok)

	a.Capture(BlockChange{Pos: pos, Old: BlockAir, New: "SAND"}, nil)
	last := a.Capture(BlockChange{Pos: pos, Old: "SAND", New: "GRAVEL"}, nil)
	st, ok := a.PendingBlock(pos)
	require.True(t, ok)
	assert.Equal(t, BlockState("GRAVEL"), st)

	last.Cancel()
	st, ok = a.PendingBlock(pos)
	require.True(t, ok)
	assert.Equal(t, BlockState("SAND"), st)
}

func TestEffectsApplyThroughApplier(t *testing.T) {
	a := &fakeApplier{}
	ran := false
	effects := []Effect{
		BlockChange{Pos: BlockPos{Y: 1}, New: "STONE"},
		EntitySpawn{Kind: "zombie"},
		ItemDrop{Item: "bone", Count: 2},
		ScheduledInvocation{Name: "later", Run: func() error { ran = true; return nil }},
	}
	for _, e := range effects {
		require.NoError(t, e.Apply(a))
	}
	assert.Equal(t, []string{"block", "spawn", "drop", "schedule"}, a.calls)
	assert.False(t, ran, "scheduling must not run the task")
}

type fakeApplier struct {
	calls []string
}

func (f *fakeApplier) SetBlock(BlockPos, BlockState) error {
	f.calls = append(f.calls, "block")
	return nil
}

func (f *fakeApplier) SpawnEntity(EntitySpawn) error {
	f.calls = append(f.calls, "spawn")
	return nil
}

func (f *fakeApplier) DropItem(ItemDrop) error {
	f.calls = append(f.calls, "drop")
	return nil
}

func (f *fakeApplier) Schedule(ScheduledInvocation) error {
	f.calls = append(f.calls, "schedule")
	return nil
}
