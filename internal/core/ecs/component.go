package ecs

import "sort"

// Removable is implemented by every component store. Remove reports whether
// the entity had a component in the store.
type Removable interface {
	Remove(id EntityID) bool
}

// PtrComponentStore maps entity IDs to component pointers.
type PtrComponentStore[T any] struct {
	data map[EntityID]*T
}

// NewPtrComponentStore creates a store and registers it with reg so that
// destroyed entities are removed from it.
func NewPtrComponentStore[T any](reg *Registry) *PtrComponentStore[T] {
	s := &PtrComponentStore[T]{
		data: make(map[EntityID]*T, 64),
	}
	if reg != nil {
		reg.Register(s)
	}
	return s
}

func (s *PtrComponentStore[T]) Set(id EntityID, c *T) {
	s.data[id] = c
}

func (s *PtrComponentStore[T]) Get(id EntityID) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

func (s *PtrComponentStore[T]) Remove(id EntityID) bool {
	if _, ok := s.data[id]; !ok {
		return false
	}
	delete(s.data, id)
	return true
}

func (s *PtrComponentStore[T]) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *PtrComponentStore[T]) Len() int {
	return len(s.data)
}

// IDs returns the entities in the store in ascending ID order.
func (s *PtrComponentStore[T]) IDs() []EntityID {
	ids := make([]EntityID, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// Each visits every component in ascending ID order, so that whatever fn
// records is captured in the same order on every run.
func (s *PtrComponentStore[T]) Each(fn func(EntityID, *T)) {
	for _, id := range s.IDs() {
		fn(id, s.data[id])
	}
}

func sortIDs(ids []EntityID) {
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Index() != ids[j].Index() {
			return ids[i].Index() < ids[j].Index()
		}
		return ids[i].Generation() < ids[j].Generation()
	})
}
