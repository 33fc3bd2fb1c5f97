package system

import (
	"testing"
	"time"

	"github.com/l1jgo/causetrack/internal/core/commit"
	"github.com/l1jgo/causetrack/internal/core/event"
	"github.com/l1jgo/causetrack/internal/core/phase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEntityDeathDropsLootInsideTick(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.ws.SpawnEntity(phase.EntitySpawn{Kind: "zombie", Pos: at(1, 64, 1), TTL: 2}))
	require.NoError(t, e.ws.SpawnEntity(phase.EntitySpawn{Kind: "pig", Pos: at(2, 64, 2)}))

	var chains []string
	event.Subscribe(e.bus, func(ev *commit.ItemDropEvent) { chains = append(chains, ev.Chain.String()) })

	loot := lootTable{"zombie": {{Item: "rotten_flesh", Count: 2}}}
	s := NewEntityTickSystem(e.ws, e.tr, loot, zap.NewNop())
	cleanup := NewCleanupSystem(e.ws.ECS(), zap.NewNop())

	s.Update(time.Millisecond)
	assert.Zero(t, e.ws.GroundItemCount())

	s.Update(time.Millisecond)
	require.Len(t, e.ws.GroundItems(at(1, 64, 1)), 1)
	assert.Equal(t, int32(2), e.ws.GroundItems(at(1, 64, 1))[0].Count)
	require.Len(t, chains, 1)
	assert.Regexp(t, `^\[idle > entity_tick\(2\) > entity_death\(entity#\d+\.\d+\)\]$`, chains[0])

	// the entity lives until the cleanup stage
	assert.Equal(t, 2, e.ws.ECS().Live())
	cleanup.Update(time.Millisecond)
	assert.Equal(t, 1, e.ws.ECS().Live())
	assert.Zero(t, e.ws.Lifetimes().Len())

	s.Update(time.Millisecond)
	assert.Len(t, chains, 1)
	assert.True(t, e.tr.Idle())
}

func TestCancelledDeathLootIsElided(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.ws.SpawnEntity(phase.EntitySpawn{Kind: "skeleton", TTL: 1}))
	event.Subscribe(e.bus, func(ev *commit.ItemDropEvent) {
		if ev.Drop.Item == "arrow" {
			ev.Cancel()
		}
	})

	loot := lootTable{"skeleton": {{Item: "bone", Count: 1}, {Item: "arrow", Count: 3}}}
	NewEntityTickSystem(e.ws, e.tr, loot, zap.NewNop()).Update(time.Millisecond)

	items := e.ws.GroundItems(phase.BlockPos{})
	require.Len(t, items, 1)
	assert.Equal(t, "bone", items[0].Item)
}

func TestEntityTickWithoutLoot(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.ws.SpawnEntity(phase.EntitySpawn{Kind: "zombie", TTL: 1}))

	var none LootTable
	NewEntityTickSystem(e.ws, e.tr, none, zap.NewNop()).Update(time.Millisecond)
	assert.Equal(t, 1, e.ws.ECS().PendingDestruction())
	assert.Zero(t, e.ws.GroundItemCount())
}

func TestEntityTickAgesGroundItems(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.ws.DropItem(phase.ItemDrop{Item: "dirt", Count: 1, TTL: 1}))
	NewEntityTickSystem(e.ws, e.tr, lootTable{}, zap.NewNop()).Update(time.Millisecond)
	assert.Zero(t, e.ws.GroundItemCount())
}

var _ LootTable = lootTable(nil)
