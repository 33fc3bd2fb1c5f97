package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pos struct{ x int }
type hp struct{ v int }

func TestEntityPoolRecyclesWithNewGeneration(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	assert.False(t, a.IsZero())
	assert.True(t, p.Alive(a))

	p.Destroy(a)
	assert.False(t, p.Alive(a))

	b := p.Create()
	assert.Equal(t, a.Index(), b.Index())
	assert.Equal(t, a.Generation()+1, b.Generation())
	assert.False(t, p.Destroy(a), "stale ID")
	assert.True(t, p.Alive(b))
	assert.Equal(t, 1, p.Live())
}

func TestDeferredDestructionClearsComponents(t *testing.T) {
	w := NewWorld()
	ps := NewPtrComponentStore[pos](w.Registry())
	hs := NewPtrComponentStore[hp](w.Registry())

	e1 := w.CreateEntity()
	e2 := w.CreateEntity()
	ps.Set(e1, &pos{1})
	ps.Set(e2, &pos{2})
	hs.Set(e2, &hp{10})

	w.MarkForDestruction(e2)
	w.MarkForDestruction(e2)
	assert.True(t, w.Alive(e2), "destruction waits for the flush")
	assert.Equal(t, 1, w.PendingDestruction(), "marking twice queues once")

	assert.Equal(t, 1, w.FlushDestroyQueue())
	assert.False(t, w.Alive(e2))
	assert.Equal(t, 1, w.Live())
	assert.False(t, ps.Has(e2))
	assert.False(t, hs.Has(e2))
	assert.Equal(t, 1, ps.Len())
	assert.Zero(t, w.PendingDestruction())
}

func TestEach2VisitsOnlyEntitiesWithBoth(t *testing.T) {
	w := NewWorld()
	ps := NewPtrComponentStore[pos](w.Registry())
	hs := NewPtrComponentStore[hp](w.Registry())

	a := w.CreateEntity()
	b := w.CreateEntity()
	ps.Set(a, &pos{1})
	ps.Set(b, &pos{2})
	hs.Set(b, &hp{5})

	var seen []EntityID
	Each2(ps, hs, func(id EntityID, p *pos, h *hp) {
		seen = append(seen, id)
		h.v--
	})
	require.Equal(t, []EntityID{b}, seen)
	got, ok := hs.Get(b)
	require.True(t, ok)
	assert.Equal(t, 4, got.v)
}

func TestRemoveAllCountsComponents(t *testing.T) {
	reg := NewRegistry()
	ps := NewPtrComponentStore[pos](reg)
	NewPtrComponentStore[hp](reg)
	assert.Equal(t, 2, reg.Stores())

	id := NewEntityID(7, 1)
	ps.Set(id, &pos{1})
	assert.Equal(t, 1, reg.RemoveAll(id))
	assert.Zero(t, reg.RemoveAll(id))
}

func TestIterationIsOrderedByID(t *testing.T) {
	w := NewWorld()
	ps := NewPtrComponentStore[pos](w.Registry())
	hs := NewPtrComponentStore[hp](w.Registry())
	var ids []EntityID
	for i := 0; i < 20; i++ {
		id := w.CreateEntity()
		ids = append(ids, id)
		ps.Set(id, &pos{i})
		hs.Set(id, &hp{i})
	}
	assert.Equal(t, ids, ps.IDs())

	var seen []int
	ps.Each(func(_ EntityID, p *pos) { seen = append(seen, p.x) })
	for i, x := range seen {
		assert.Equal(t, i, x)
	}

	var both []EntityID
	Each2(ps, hs, func(id EntityID, _ *pos, _ *hp) { both = append(both, id) })
	assert.Equal(t, ids, both)
}
