package ecs

// Registry knows every component store of a World so that a destroyed entity
// leaves nothing behind.
type Registry struct {
	stores []Removable
}

func NewRegistry() *Registry {
	return &Registry{stores: make([]Removable, 0, 4)}
}

// Register is called by NewPtrComponentStore.
func (r *Registry) Register(store Removable) {
	r.stores = append(r.stores, store)
}

// Stores returns the number of registered stores.
func (r *Registry) Stores() int { return len(r.stores) }

// RemoveAll clears id from every store and reports how many components it
// had.
func (r *Registry) RemoveAll(id EntityID) int {
	n := 0
	for _, s := range r.stores {
		if s.Remove(id) {
			n++
		}
	}
	return n
}
