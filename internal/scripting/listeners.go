package scripting

import (
	"fmt"

	"github.com/l1jgo/causetrack/internal/core/commit"
	"github.com/l1jgo/causetrack/internal/core/event"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// AttachListeners subscribes the Lua handlers the scripts define
// (on_block_change, on_entity_spawn, on_item_drop) to bus. A handler that
// returns true cancels the mutation. Returns how many were attached.
func (e *Engine) AttachListeners(bus *event.Bus) int {
	n := 0
	if fn := e.global("on_block_change"); fn != nil {
		event.Subscribe(bus, func(ev *commit.BlockChangeEvent) {
			t := e.causeTable(ev.CauseEvent)
			t.RawSetString("x", lua.LNumber(ev.Change.Pos.X))
			t.RawSetString("y", lua.LNumber(ev.Change.Pos.Y))
			t.RawSetString("z", lua.LNumber(ev.Change.Pos.Z))
			t.RawSetString("old", lua.LString(ev.Change.Old))
			t.RawSetString("new", lua.LString(ev.Change.New))
			e.invokeListener("on_block_change", fn, t, ev.CauseEvent)
		})
		n++
	}
	if fn := e.global("on_entity_spawn"); fn != nil {
		event.Subscribe(bus, func(ev *commit.EntitySpawnEvent) {
			t := e.causeTable(ev.CauseEvent)
			t.RawSetString("kind", lua.LString(ev.Spawn.Kind))
			t.RawSetString("x", lua.LNumber(ev.Spawn.Pos.X))
			t.RawSetString("y", lua.LNumber(ev.Spawn.Pos.Y))
			t.RawSetString("z", lua.LNumber(ev.Spawn.Pos.Z))
			e.invokeListener("on_entity_spawn", fn, t, ev.CauseEvent)
		})
		n++
	}
	if fn := e.global("on_item_drop"); fn != nil {
		event.Subscribe(bus, func(ev *commit.ItemDropEvent) {
			t := e.causeTable(ev.CauseEvent)
			t.RawSetString("item", lua.LString(ev.Drop.Item))
			t.RawSetString("count", lua.LNumber(ev.Drop.Count))
			t.RawSetString("x", lua.LNumber(ev.Drop.Pos.X))
			t.RawSetString("y", lua.LNumber(ev.Drop.Pos.Y))
			t.RawSetString("z", lua.LNumber(ev.Drop.Pos.Z))
			e.invokeListener("on_item_drop", fn, t, ev.CauseEvent)
		})
		n++
	}
	return n
}

// causeTable packs the fields every event shares. phases lists the chain
// from the root down.
func (e *Engine) causeTable(ev *commit.CauseEvent) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("phase", lua.LString(ev.Phase()))
	t.RawSetString("chain", lua.LString(ev.Chain.String()))
	t.RawSetString("cancellable", lua.LBool(ev.Cancellable()))
	if ev.Actor != nil {
		t.RawSetString("actor", lua.LString(fmt.Sprint(ev.Actor)))
	}
	phases := e.vm.NewTable()
	for i, c := range ev.Chain {
		phases.RawSetInt(i+1, lua.LString(c.Phase))
	}
	t.RawSetString("phases", phases)
	return t
}

func (e *Engine) invokeListener(name string, fn *lua.LFunction, t *lua.LTable, ev *commit.CauseEvent) {
	result, err := e.call(fn, t)
	if err != nil {
		e.log.Error("lua listener error", zap.String("func", name), zap.Error(err))
		return
	}
	if lua.LVAsBool(result) {
		ev.Cancel()
	}
}
