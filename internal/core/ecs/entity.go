package ecs

import "fmt"

// EntityID packs a slot index (low 32 bits) and the slot's generation (high
// 32 bits). A destroyed slot gets a new generation, so old IDs stop matching.
type EntityID uint64

func NewEntityID(index uint32, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

func (id EntityID) Index() uint32      { return uint32(id) }
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }
func (id EntityID) IsZero() bool       { return id == 0 }

// String is the form used as a cause source, e.g. "entity#3.1".
func (id EntityID) String() string {
	return fmt.Sprintf("entity#%d.%d", id.Index(), id.Generation())
}

// EntityPool hands out IDs, reusing freed slots. Generations start at 1 so a
// valid ID is never zero.
type EntityPool struct {
	generations []uint32
	free        []uint32
	live        int
}

func NewEntityPool() *EntityPool {
	return &EntityPool{
		generations: make([]uint32, 0, 256),
		free:        make([]uint32, 0, 64),
	}
}

func (p *EntityPool) Create() EntityID {
	p.live++
	if n := len(p.free); n > 0 {
		idx := p.free[n-1]
		p.free = p.free[:n-1]
		return NewEntityID(idx, p.generations[idx])
	}
	p.generations = append(p.generations, 1)
	return NewEntityID(uint32(len(p.generations)-1), 1)
}

func (p *EntityPool) Alive(id EntityID) bool {
	idx := int(id.Index())
	return idx < len(p.generations) && p.generations[idx] == id.Generation()
}

// Destroy frees the slot of id. Stale IDs are ignored and reported as false.
func (p *EntityPool) Destroy(id EntityID) bool {
	if !p.Alive(id) {
		return false
	}
	idx := id.Index()
	p.generations[idx]++
	p.free = append(p.free, idx)
	p.live--
	return true
}

// Live returns the number of allocated, not yet destroyed IDs.
func (p *EntityPool) Live() int { return p.live }
