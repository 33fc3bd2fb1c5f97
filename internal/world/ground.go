package world

import (
	"sync/atomic"

	"github.com/l1jgo/causetrack/internal/core/phase"
)

// groundItemIDCounter generates unique IDs for ground items.
var groundItemIDCounter atomic.Int32

// NextGroundItemID returns a unique ID for a ground item.
func NextGroundItemID() int32 {
	return groundItemIDCounter.Add(1)
}

// GroundItem is a dropped item stack lying in the world. Not persisted.
type GroundItem struct {
	ID    int32
	Item  string
	Count int32
	Pos   phase.BlockPos
	TTL   int // ticks remaining until removal (0 = permanent)
}

// TickGroundItems ages every ground item by one tick and removes the expired
// ones. Returns how many were removed.
func (s *State) TickGroundItems() int {
	removed := 0
	for id, g := range s.ground {
		if g.TTL <= 0 {
			continue
		}
		g.TTL--
		if g.TTL == 0 {
			delete(s.ground, id)
			removed++
		}
	}
	return removed
}

// GroundItems returns the items lying at pos.
func (s *State) GroundItems(pos phase.BlockPos) []*GroundItem {
	var out []*GroundItem
	for _, g := range s.ground {
		if g.Pos == pos {
			out = append(out, g)
		}
	}
	return out
}

// GroundItemCount returns the number of item stacks on the ground.
func (s *State) GroundItemCount() int { return len(s.ground) }
