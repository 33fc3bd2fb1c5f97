package scripting

import (
	"github.com/l1jgo/causetrack/internal/core/phase"
	lua "github.com/yuin/gopher-lua"
)

// registerWorldAPI exposes the world table to scripts:
//
//	world.block(x, y, z)                  -> state name
//	world.set_block(x, y, z, state)
//	world.break_block(x, y, z)
//	world.drop_item(item, count, x, y, z)
//	world.spawn(kind, x, y, z [, ttl])
//	world.schedule(name, delay, fn)
//	world.run(phase, source, fn)
//
// Every mutation goes through the tracker and is attributed to the running
// phase.
func (e *Engine) registerWorldAPI() {
	t := e.vm.NewTable()
	e.vm.SetFuncs(t, map[string]lua.LGFunction{
		"block":       e.luaBlock,
		"set_block":   e.luaSetBlock,
		"break_block": e.luaBreakBlock,
		"drop_item":   e.luaDropItem,
		"spawn":       e.luaSpawn,
		"schedule":    e.luaSchedule,
		"run":         e.luaRun,
	})
	e.vm.SetGlobal("world", t)
}

func checkPos(L *lua.LState, first int) phase.BlockPos {
	return phase.BlockPos{
		X: int32(L.CheckInt(first)),
		Y: int32(L.CheckInt(first + 1)),
		Z: int32(L.CheckInt(first + 2)),
	}
}

func (e *Engine) bound(L *lua.LState) bool {
	if e.world == nil || e.tr == nil {
		L.RaiseError("%s", ErrNotBound)
		return false
	}
	return true
}

func (e *Engine) luaBlock(L *lua.LState) int {
	if !e.bound(L) {
		return 0
	}
	L.Push(lua.LString(e.world.BlockAt(e.tr, checkPos(L, 1))))
	return 1
}

func (e *Engine) luaSetBlock(L *lua.LState) int {
	if !e.bound(L) {
		return 0
	}
	pos := checkPos(L, 1)
	state := phase.BlockState(L.CheckString(4))
	if err := e.world.PlaceBlock(e.tr, pos, state, "lua"); err != nil {
		L.RaiseError("set_block %s: %s", pos, err)
	}
	return 0
}

func (e *Engine) luaBreakBlock(L *lua.LState) int {
	if !e.bound(L) {
		return 0
	}
	pos := checkPos(L, 1)
	if err := e.world.BreakBlock(e.tr, pos, "lua"); err != nil {
		L.RaiseError("break_block %s: %s", pos, err)
	}
	return 0
}

func (e *Engine) luaDropItem(L *lua.LState) int {
	if !e.bound(L) {
		return 0
	}
	item := L.CheckString(1)
	count := int32(L.CheckInt(2))
	pos := checkPos(L, 3)
	if err := e.world.Drop(e.tr, item, count, pos, "lua"); err != nil {
		L.RaiseError("drop_item %s: %s", item, err)
	}
	return 0
}

func (e *Engine) luaSpawn(L *lua.LState) int {
	if !e.bound(L) {
		return 0
	}
	kind := L.CheckString(1)
	pos := checkPos(L, 2)
	ttl := L.OptInt(5, 0)
	if err := e.world.Spawn(e.tr, kind, pos, ttl, "lua"); err != nil {
		L.RaiseError("spawn %s: %s", kind, err)
	}
	return 0
}

// luaSchedule records a task submission. The Lua function runs later on the
// game loop, inside the scheduled_task phase of the task.
func (e *Engine) luaSchedule(L *lua.LState) int {
	if !e.bound(L) {
		return 0
	}
	name := L.CheckString(1)
	delay := L.CheckInt(2)
	fn := L.CheckFunction(3)
	run := func() error {
		_, err := e.call(fn)
		return err
	}
	if err := e.world.Later(e.tr, name, delay, run, "lua"); err != nil {
		L.RaiseError("schedule %s: %s", name, err)
	}
	return 0
}

// luaRun calls fn inside a nested context of the named phase.
func (e *Engine) luaRun(L *lua.LState) int {
	if !e.bound(L) {
		return 0
	}
	name := L.CheckString(1)
	source := L.CheckString(2)
	fn := L.CheckFunction(3)
	err := e.tr.Run(name, source, func() error {
		_, err := e.call(fn)
		return err
	})
	if err != nil {
		L.RaiseError("run %s(%s): %s", name, source, err)
	}
	return 0
}
