package ecs

// World owns the entity pool, the component registry and the deferred
// destruction queue. Entities die at end of tick (CleanupSystem), never in the
// middle of a commit, so a record that names an entity can always resolve it.
type World struct {
	pool         *EntityPool
	registry     *Registry
	destroyQueue []EntityID
	queued       map[EntityID]struct{}
}

func NewWorld() *World {
	return &World{
		pool:         NewEntityPool(),
		registry:     NewRegistry(),
		destroyQueue: make([]EntityID, 0, 64),
		queued:       make(map[EntityID]struct{}),
	}
}

func (w *World) Registry() *Registry { return w.registry }

// CreateEntity allocates a fresh ID.
func (w *World) CreateEntity() EntityID { return w.pool.Create() }

func (w *World) Alive(id EntityID) bool { return w.pool.Alive(id) }

// Live returns the number of allocated, not yet destroyed entities.
func (w *World) Live() int { return w.pool.Live() }

// MarkForDestruction queues an entity for end-of-tick cleanup. Marking the
// same entity twice queues it once.
func (w *World) MarkForDestruction(id EntityID) {
	if _, ok := w.queued[id]; ok {
		return
	}
	w.queued[id] = struct{}{}
	w.destroyQueue = append(w.destroyQueue, id)
}

// PendingDestruction returns the number of queued entities.
func (w *World) PendingDestruction() int { return len(w.destroyQueue) }

// FlushDestroyQueue destroys all queued entities and clears their components.
// Returns the number actually destroyed.
func (w *World) FlushDestroyQueue() int {
	n := 0
	for _, id := range w.destroyQueue {
		if !w.pool.Alive(id) {
			continue
		}
		w.registry.RemoveAll(id)
		w.pool.Destroy(id)
		n++
	}
	w.destroyQueue = w.destroyQueue[:0]
	clear(w.queued)
	return n
}
