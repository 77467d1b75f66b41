package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/roadroute/editor/internal/core/store"
	"github.com/roadroute/editor/internal/editor"
	"github.com/roadroute/editor/internal/world"
)

// Engine wraps a single gopher-lua VM bound to one editor.
// Single-goroutine access only (edit loop).
type Engine struct {
	vm     *lua.LState
	editor *editor.Editor
	log    *zap.Logger
}

// NewEngine creates a Lua VM with the edit API installed as globals.
func NewEngine(ed *editor.Editor, log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, editor: ed, log: log}
	for name, fn := range map[string]lua.LGFunction{
		"road":         e.luaRoad,
		"intersection": e.luaIntersection,
		"destroy":      e.luaDestroy,
		"erase":        e.luaErase,
		"hit":          e.luaHit,
		"resolve":      e.luaResolve,
		"undo":         e.luaUndo,
		"count":        e.luaCount,
		"reset":        e.luaReset,
		"log":          e.luaLog,
	} {
		vm.SetGlobal(name, vm.NewFunction(fn))
	}
	return e
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// RunFile executes one script.
func (e *Engine) RunFile(path string) error {
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}
	e.log.Debug("ran lua script", zap.String("file", path))
	return nil
}

// RunString executes a chunk of Lua source.
func (e *Engine) RunString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("run script: %w", err)
	}
	return nil
}

// RunDir executes every .lua file in dir in name order. A missing directory
// is not an error.
func (e *Engine) RunDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		if err := e.RunFile(filepath.Join(dir, name)); err != nil {
			return 0, err
		}
	}
	return len(names), nil
}

// road{x1=, y1=, x2=, y2=, name=, surface=, speed_limit=, lane_count=} -> id
func (e *Engine) luaRoad(L *lua.LState) int {
	t := L.CheckTable(1)
	r := world.Road{
		Name:       lua.LVAsString(t.RawGetString("name")),
		Start:      world.Point{Lat: number(L, t, "x1"), Lon: number(L, t, "y1")},
		End:        world.Point{Lat: number(L, t, "x2"), Lon: number(L, t, "y2")},
		SpeedLimit: float64(lua.LVAsNumber(t.RawGetString("speed_limit"))),
		LaneCount:  laneCount(L, t),
		Surface:    world.ParseSurface(lua.LVAsString(t.RawGetString("surface"))),
	}
	if t.RawGetString("surface") == lua.LNil {
		r.Surface = world.SurfaceAsphalt
	}
	r = e.editor.CreateRoad(r)
	L.Push(lua.LNumber(r.ID))
	return 1
}

// intersection{x=, y=, lights=} -> id
func (e *Engine) luaIntersection(L *lua.LState) int {
	t := L.CheckTable(1)
	x := e.editor.CreateIntersection(world.Intersection{
		Point:         world.Point{Lat: number(L, t, "x"), Lon: number(L, t, "y")},
		TrafficLights: lua.LVAsBool(t.RawGetString("lights")),
	})
	L.Push(lua.LNumber(x.ID))
	return 1
}

// destroy(kind, id) -> bool
func (e *Engine) luaDestroy(L *lua.LState) int {
	kind := checkKind(L, 1)
	id := checkID(L, 2)
	L.Push(lua.LBool(e.editor.Destroy(kind, id)))
	return 1
}

// erase(kind, x, y) -> {ids}
func (e *Engine) luaErase(L *lua.LState) int {
	kind := checkKind(L, 1)
	p := world.Point{Lat: checkCoord(L, 2), Lon: checkCoord(L, 3)}
	L.Push(idList(L, e.editor.DestroyAt(kind, p)))
	return 1
}

// hit(kind, x, y) -> {ids}
func (e *Engine) luaHit(L *lua.LState) int {
	kind := checkKind(L, 1)
	p := world.Point{Lat: checkCoord(L, 2), Lon: checkCoord(L, 3)}
	L.Push(idList(L, e.editor.HitTest(kind, p)))
	return 1
}

// resolve(kind, id) -> table or nil
func (e *Engine) luaResolve(L *lua.LState) int {
	kind := checkKind(L, 1)
	id := checkID(L, 2)
	t := L.NewTable()
	switch kind {
	case world.KindRoad:
		r, ok := e.editor.ResolveRoad(id)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		t.RawSetString("id", lua.LNumber(r.ID))
		t.RawSetString("name", lua.LString(r.Name))
		t.RawSetString("x1", lua.LNumber(r.Start.Lat))
		t.RawSetString("y1", lua.LNumber(r.Start.Lon))
		t.RawSetString("x2", lua.LNumber(r.End.Lat))
		t.RawSetString("y2", lua.LNumber(r.End.Lon))
		t.RawSetString("speed_limit", lua.LNumber(r.SpeedLimit))
		t.RawSetString("lane_count", lua.LNumber(r.LaneCount))
		t.RawSetString("surface", lua.LString(r.Surface.String()))
		t.RawSetString("length", lua.LNumber(r.Length()))
	case world.KindIntersection:
		x, ok := e.editor.ResolveIntersection(id)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		t.RawSetString("id", lua.LNumber(x.ID))
		t.RawSetString("x", lua.LNumber(x.Point.Lat))
		t.RawSetString("y", lua.LNumber(x.Point.Lon))
		t.RawSetString("lights", lua.LBool(x.TrafficLights))
	}
	L.Push(t)
	return 1
}

// undo() -> bool; raises on an identity collision.
func (e *Engine) luaUndo(L *lua.LState) int {
	entry, err := e.editor.Undo()
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	L.Push(lua.LBool(entry != nil))
	return 1
}

// count(kind) -> n
func (e *Engine) luaCount(L *lua.LState) int {
	L.Push(lua.LNumber(e.editor.Count(checkKind(L, 1))))
	return 1
}

// reset(kind)
func (e *Engine) luaReset(L *lua.LState) int {
	e.editor.Reset(checkKind(L, 1))
	return 0
}

// log(msg)
func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}

func checkKind(L *lua.LState, n int) world.Kind {
	kind, err := world.ParseKind(L.CheckString(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return kind
}

func number(L *lua.LState, t *lua.LTable, key string) float64 {
	v, ok := t.RawGetString(key).(lua.LNumber)
	if !ok {
		L.RaiseError("field %q must be a number", key)
	}
	if !finite(float64(v)) {
		L.RaiseError("field %q must be a finite number", key)
	}
	return float64(v)
}

// laneCount reads the optional lane_count field. Fractions are rejected the
// same way the CSV loader rejects them.
func laneCount(L *lua.LState, t *lua.LTable) int {
	lv := t.RawGetString("lane_count")
	if lv == lua.LNil {
		return 0
	}
	v, ok := lv.(lua.LNumber)
	if !ok || !finite(float64(v)) || float64(v) != math.Trunc(float64(v)) ||
		v < 0 || v > math.MaxInt32 {
		L.RaiseError("field %q must be a whole number", "lane_count")
	}
	return int(v)
}

func checkCoord(L *lua.LState, n int) float64 {
	v := float64(L.CheckNumber(n))
	if !finite(v) {
		L.ArgError(n, "coordinate must be a finite number")
	}
	return v
}

// checkID accepts any whole number in the id range. Out-of-range values are
// an error rather than wrapping onto another entity's id.
func checkID(L *lua.LState, n int) store.ID {
	v := float64(L.CheckNumber(n))
	if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
		L.ArgError(n, "id must be a whole number in int32 range")
	}
	return store.ID(v)
}

func finite(v float64) bool { return !math.IsInf(v, 0) && !math.IsNaN(v) }

func idList(L *lua.LState, ids []store.ID) *lua.LTable {
	t := L.CreateTable(len(ids), 0)
	for _, id := range ids {
		t.Append(lua.LNumber(id))
	}
	return t
}
