package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/l1jgo/causetrack/internal/world"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ErrNotBound is raised inside Lua when a world function is called before
// Bind.
var ErrNotBound = errors.New("scripting: world not bound")

// Tracker is what the engine needs from the phase tracker: the recording
// primitives and a way to run a function inside a named phase.
type Tracker interface {
	world.Recorder
	Run(name string, source any, fn func() error) error
}

// Engine wraps a single gopher-lua VM for block rules, loot tables, plugins
// and commit listeners. Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger

	world *world.State
	tr    Tracker
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory: top-level files first, then rules/ and plugins/.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("plugins", vm.NewTable())
	vm.SetGlobal("commands", vm.NewTable())

	e := &Engine{vm: vm, log: log}
	e.registerWorldAPI()

	for _, dir := range []string{scriptsDir, filepath.Join(scriptsDir, "rules"), filepath.Join(scriptsDir, "plugins")} {
		if err := e.loadDir(dir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk of Lua source. Used by tests and the console.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// Bind connects the world API to the simulation and the tracker.
func (e *Engine) Bind(ws *world.State, tr Tracker) {
	e.world = ws
	e.tr = tr
}

// call invokes fn with args and returns its first result (nil if it returned
// nothing).
func (e *Engine) call(fn lua.LValue, args ...lua.LValue) (lua.LValue, error) {
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		return lua.LNil, err
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return result, nil
}

// global returns the named global function, or nil when the scripts do not
// define it.
func (e *Engine) global(name string) *lua.LFunction {
	fn, _ := e.vm.GetGlobal(name).(*lua.LFunction)
	return fn
}

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
