package scripting

import (
	"errors"
	"fmt"
	"sort"

	"github.com/l1jgo/causetrack/internal/core/phase"
	lua "github.com/yuin/gopher-lua"
)

// ErrUnknownPlugin is returned for a plugin or command the scripts do not
// define.
var ErrUnknownPlugin = errors.New("unknown plugin")

// RunPlugin runs plugins[name]() inside a plugin phase whose source is the
// plugin name. A Lua error fails the phase and its changes are discarded.
func (e *Engine) RunPlugin(name string) error {
	fn, err := e.lookup("plugins", name)
	if err != nil {
		return err
	}
	return e.tr.Run(phase.Plugin, name, func() error {
		_, err := e.call(fn)
		return err
	})
}

// RunCommand runs commands[name](args...) inside a command phase. The source
// is the command line as typed.
func (e *Engine) RunCommand(name string, args []string) error {
	fn, err := e.lookup("commands", name)
	if err != nil {
		return err
	}
	line := name
	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		line += " " + a
		largs[i] = lua.LString(a)
	}
	return e.tr.Run(phase.Command, line, func() error {
		_, err := e.call(fn, largs...)
		return err
	})
}

// Plugins returns the names of the defined plugins, sorted.
func (e *Engine) Plugins() []string {
	tbl, ok := e.vm.GetGlobal("plugins").(*lua.LTable)
	if !ok {
		return nil
	}
	var names []string
	tbl.ForEach(func(k, v lua.LValue) {
		if _, ok := v.(*lua.LFunction); ok {
			names = append(names, lua.LVAsString(k))
		}
	})
	sort.Strings(names)
	return names
}

func (e *Engine) lookup(table, name string) (*lua.LFunction, error) {
	if e.tr == nil {
		return nil, ErrNotBound
	}
	tbl, ok := e.vm.GetGlobal(table).(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", table, name, ErrUnknownPlugin)
	}
	fn, ok := tbl.RawGetString(name).(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", table, name, ErrUnknownPlugin)
	}
	return fn, nil
}
