package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM holding the tunable game formulas.
// Star systems tick on separate goroutines, so every call into the VM holds mu.
type Engine struct {
	mu  sync.Mutex
	vm  *lua.LState
	log *zap.Logger
}

// scriptDirs are loaded in order; later files may override earlier globals.
var scriptDirs = []string{"core", "sensors", "combat"}

// NewEngine creates a Lua engine and loads all scripts under scriptsDir.
// Missing subdirectories are skipped.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	for _, sub := range scriptDirs {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			e.vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// NewEngineFromSource builds an engine from inline chunks, in order.
func NewEngineFromSource(log *zap.Logger, chunks ...string) (*Engine, error) {
	e := newEngine(log)
	for i, src := range chunks {
		if err := e.vm.DoString(src); err != nil {
			e.vm.Close()
			return nil, fmt.Errorf("load chunk %d: %w", i, err)
		}
	}
	return e, nil
}

func newEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	return &Engine{vm: vm, log: log}
}

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
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

func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.Close()
}

// Has reports whether a global Lua function named fn is defined.
func (e *Engine) Has(fn string) bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.vm.GetGlobal(fn).(*lua.LFunction)
	return ok
}

// DetectionContext is the input of calc_detection.
type DetectionContext struct {
	Emission     float64 // W
	Reflectivity float64
	CrossSection float64 // m^2
	Illumination float64 // W/m^2 falling on the target
	Sensitivity  float64 // W
	Resolution   float64
	Range        float64 // m, 0 = unlimited
	Distance     float64 // m
}

// CalcDetection calls calc_detection(ctx) and returns the signal quality in
// [0,1]. ok is false when the function is missing or fails, in which case the
// caller uses its built-in formula.
func (e *Engine) CalcDetection(ctx DetectionContext) (quality float64, ok bool) {
	if e == nil {
		return 0, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.vm.NewTable()
	t.RawSetString("emission", lua.LNumber(ctx.Emission))
	t.RawSetString("reflectivity", lua.LNumber(ctx.Reflectivity))
	t.RawSetString("cross_section", lua.LNumber(ctx.CrossSection))
	t.RawSetString("illumination", lua.LNumber(ctx.Illumination))
	t.RawSetString("sensitivity", lua.LNumber(ctx.Sensitivity))
	t.RawSetString("resolution", lua.LNumber(ctx.Resolution))
	t.RawSetString("range", lua.LNumber(ctx.Range))
	t.RawSetString("distance", lua.LNumber(ctx.Distance))
	return e.callNumber("calc_detection", t)
}

// HitContext is the input of calc_hit_chance.
type HitContext struct {
	Range         float64 // m
	BeamSpeed     float64 // m/s
	BaseHitChance float64
	TargetSpeed   float64 // m/s
}

// CalcHitChance calls calc_hit_chance(ctx) and returns a probability in
// [0,1]. ok is false when the caller should use its built-in formula.
func (e *Engine) CalcHitChance(ctx HitContext) (chance float64, ok bool) {
	if e == nil {
		return 0, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.vm.NewTable()
	t.RawSetString("range", lua.LNumber(ctx.Range))
	t.RawSetString("beam_speed", lua.LNumber(ctx.BeamSpeed))
	t.RawSetString("base_hit_chance", lua.LNumber(ctx.BaseHitChance))
	t.RawSetString("target_speed", lua.LNumber(ctx.TargetSpeed))
	return e.callNumber("calc_hit_chance", t)
}

// callNumber calls a one-argument global returning a number. Caller holds mu.
func (e *Engine) callNumber(name string, arg lua.LValue) (float64, bool) {
	fn, isFn := e.vm.GetGlobal(name).(*lua.LFunction)
	if !isFn {
		return 0, false
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, arg); err != nil {
		e.log.Error("lua call failed", zap.String("func", name), zap.Error(err))
		return 0, false
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)

	n, isNum := ret.(lua.LNumber)
	if !isNum {
		e.log.Error("lua function returned non-number", zap.String("func", name), zap.String("type", ret.Type().String()))
		return 0, false
	}
	return clamp01(float64(n)), true
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
