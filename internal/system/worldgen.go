package system

import (
	"github.com/l1jgo/causetrack/internal/core/phase"
	"github.com/l1jgo/causetrack/internal/world"
)

// GenerateTerrain lays a flat square platform of state at height y, radius
// blocks around the origin. It runs in the world_gen phase, which captures
// nothing, so every block is written straight through.
func GenerateTerrain(tr Tracker, ws *world.State, radius, y int32, state phase.BlockState) error {
	return tr.Run(phase.WorldGen, "flat", func() error {
		for x := -radius; x <= radius; x++ {
			for z := -radius; z <= radius; z++ {
				if err := ws.PlaceBlock(tr, phase.BlockPos{X: x, Y: y, Z: z}, state, nil); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
