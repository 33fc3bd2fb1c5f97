package scripting

import (
	"fmt"

	"github.com/l1jgo/causetrack/internal/core/phase"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Loot is one stack produced by entity_loot.
type Loot struct {
	Item  string
	Count int32
}

// HasBlockRule reports whether the scripts define block_tick.
func (e *Engine) HasBlockRule() bool { return e.global("block_tick") != nil }

// BlockTick calls Lua block_tick(ev) for a ticking block. The rule mutates
// the world through the world table; its changes belong to the caller's phase.
func (e *Engine) BlockTick(pos phase.BlockPos, state phase.BlockState) error {
	fn := e.global("block_tick")
	if fn == nil {
		return nil
	}
	t := e.vm.NewTable()
	t.RawSetString("x", lua.LNumber(pos.X))
	t.RawSetString("y", lua.LNumber(pos.Y))
	t.RawSetString("z", lua.LNumber(pos.Z))
	t.RawSetString("state", lua.LString(state))
	if _, err := e.call(fn, t); err != nil {
		return fmt.Errorf("lua block_tick %s: %w", pos, err)
	}
	return nil
}

// EntityLoot calls Lua entity_loot(kind) and returns the stacks an entity of
// that kind leaves behind when it dies.
func (e *Engine) EntityLoot(kind string) []Loot {
	fn := e.global("entity_loot")
	if fn == nil {
		return nil
	}
	result, err := e.call(fn, lua.LString(kind))
	if err != nil {
		e.log.Error("lua entity_loot error", zap.String("kind", kind), zap.Error(err))
		return nil
	}
	rt, ok := result.(*lua.LTable)
	if !ok {
		return nil
	}
	var loot []Loot
	rt.ForEach(func(_, v lua.LValue) {
		row, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		l := Loot{Item: lStr(row, "item"), Count: int32(lInt(row, "count"))}
		if l.Count <= 0 {
			l.Count = 1
		}
		if l.Item != "" {
			loot = append(loot, l)
		}
	})
	return loot
}
