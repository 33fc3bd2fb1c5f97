package system

import (
	"testing"

	"github.com/l1jgo/causetrack/internal/core/commit"
	"github.com/l1jgo/causetrack/internal/core/event"
	"github.com/l1jgo/causetrack/internal/core/phase"
	"github.com/l1jgo/causetrack/internal/core/tracker"
	"github.com/l1jgo/causetrack/internal/data"
	"github.com/l1jgo/causetrack/internal/schedule"
	"github.com/l1jgo/causetrack/internal/scripting"
	"github.com/l1jgo/causetrack/internal/world"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memJournal struct {
	entries []commit.JournalEntry
}

func (j *memJournal) Append(entries ...commit.JournalEntry) { j.entries = append(j.entries, entries...) }

type env struct {
	ws      *world.State
	tr      *tracker.Tracker
	bus     *event.Bus
	sched   *schedule.Scheduler
	journal *memJournal
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := zap.NewNop()
	tbl, err := data.NewBlockTable([]data.BlockInfo{
		{Name: "STONE", Drop: "cobblestone"},
		{Name: "SAND", Gravity: true, Drop: "sand"},
		{Name: "TORCH", Fragile: true, Drop: "torch"},
		{Name: "GRASS", Drop: "dirt", Ticking: true},
		{Name: "DIRT", Drop: "dirt"},
	})
	require.NoError(t, err)
	ws := world.NewState(tbl, 0, log)
	bus := event.NewBus()
	j := &memJournal{}
	c := commit.New(ws, log, commit.Options{Bus: bus, Journal: j})
	tr, err := tracker.New(phase.DefaultRegistry(), c, log)
	require.NoError(t, err)
	sched := schedule.New(tr, 64, 0, log)
	ws.SetScheduler(sched)
	return &env{ws: ws, tr: tr, bus: bus, sched: sched, journal: j}
}

func at(x, y, z int32) phase.BlockPos { return phase.BlockPos{X: x, Y: y, Z: z} }

// lootTable is a fixed LootTable.
type lootTable map[string][]scripting.Loot

func (l lootTable) EntityLoot(kind string) []scripting.Loot { return l[kind] }

// ruleFunc adapts a function to BlockRules.
type ruleFunc func(pos phase.BlockPos, state phase.BlockState) error

func (f ruleFunc) HasBlockRule() bool { return f != nil }
func (f ruleFunc) BlockTick(pos phase.BlockPos, state phase.BlockState) error {
	return f(pos, state)
}
