// Package sim runs a game: one entity manager per star system plus a global
// manager for factions, all ticked together against a single game clock.
package sim

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/medleye27/Pulsar4x/internal/component"
	"github.com/medleye27/Pulsar4x/internal/config"
	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/core/event"
	coresys "github.com/medleye27/Pulsar4x/internal/core/system"
	"github.com/medleye27/Pulsar4x/internal/data"
	"github.com/medleye27/Pulsar4x/internal/orbital"
	"github.com/medleye27/Pulsar4x/internal/scripting"
	"github.com/medleye27/Pulsar4x/internal/sensors"
	"github.com/medleye27/Pulsar4x/internal/system"
	"github.com/medleye27/Pulsar4x/internal/weapons"
)

// GlobalManager is the name of the manager holding factions.
const GlobalManager = "global"

var (
	ErrUnknownSystem   = errors.New("unknown star system")
	ErrDuplicateSystem = errors.New("star system already loaded")
	ErrBadStep         = errors.New("tick length must be positive")
)

// Options configure a new game. Tables and Script are optional.
type Options struct {
	Name           string
	Start          time.Time
	Workers        int // star systems ticked at once, 0 = GOMAXPROCS
	SensorInterval time.Duration
	Tables         *data.Tables
	Script         *scripting.Engine
	Log            *zap.Logger
}

// OptionsFromConfig fills Options from the game and simulation sections.
func OptionsFromConfig(cfg *config.Config, tables *data.Tables, script *scripting.Engine, log *zap.Logger) Options {
	return Options{
		Name:           cfg.Game.Name,
		Start:          cfg.Game.StartDate,
		Workers:        cfg.Simulation.Workers,
		SensorInterval: cfg.Simulation.SensorInterval,
		Tables:         tables,
		Script:         script,
		Log:            log,
	}
}

// StarSystem is one star system's manager and the runner that ticks it.
type StarSystem struct {
	ID      string
	Name    string
	Manager *ecs.Manager

	runner *coresys.Runner
}

// Primary returns the system's star: the first root body of type star.
func (s *StarSystem) Primary() (ecs.Entity, bool) {
	var star ecs.Entity
	found := false
	ecs.Each2(s.Manager, component.SystemBodyInfoType, component.PositionType, func(e ecs.Entity, b *component.SystemBodyInfo, p *component.Position) {
		if found || b.BodyType != component.BodyStar {
			return
		}
		if _, hasParent := p.Parent(); !hasParent {
			star, found = e, true
		}
	})
	return star, found
}

// SOIParent returns the body whose sphere of influence holds the absolute
// position at: the primary, or the innermost body orbiting down from it
// whose sphere contains at.
func (s *StarSystem) SOIParent(at orbital.Vector3) (ecs.Entity, bool) {
	cur, ok := s.Primary()
	if !ok {
		return ecs.Entity{}, false
	}
	for {
		next, ok := s.soiChild(cur, at)
		if !ok {
			return cur, true
		}
		cur = next
	}
}

func (s *StarSystem) soiChild(parent ecs.Entity, at orbital.Vector3) (ecs.Entity, bool) {
	pp, ok := component.PositionType.Get(parent)
	pm := component.MassOf(parent)
	if !ok || pm <= 0 {
		return ecs.Entity{}, false
	}
	d := at.Distance(pp.AbsolutePosition())

	var child ecs.Entity
	found := false
	ecs.Each2(s.Manager, component.OrbitType, component.PositionType, func(e ecs.Entity, o *component.Orbit, p *component.Position) {
		ke := o.Elements
		if found || o.Parent.Guid != parent.Guid() || ke.IsHyperbolic() || !component.SystemBodyInfoType.Has(e) {
			return
		}
		soi := orbital.SOIRadius(ke.SemiMajorAxis, component.MassOf(e), pm)
		// the body stays between periapsis and apoapsis of its parent
		if d < ke.Periapsis()-soi || d > ke.Apoapsis()+soi {
			return
		}
		if at.Distance(p.AbsolutePosition()) < soi {
			child, found = e, true
		}
	})
	return child, found
}

// Game owns every manager of a running game. Advance, Snapshot and the
// star system operations must be called from one goroutine.
type Game struct {
	name string
	log  *zap.Logger

	dir     *ecs.Directory
	global  *ecs.Manager
	systems []*StarSystem
	byID    map[string]*StarSystem

	bus    *event.Bus
	script *scripting.Engine
	tables *data.Tables

	workers        int
	sensorInterval time.Duration
	runner         *coresys.Runner

	now  time.Time
	tick uint64
}

func New(opts Options) (*Game, error) {
	if err := component.RegisterAll(); err != nil {
		return nil, fmt.Errorf("register datablobs: %w", err)
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	dir := ecs.NewDirectory()
	global, err := ecs.NewManager(GlobalManager, dir)
	if err != nil {
		return nil, err
	}
	g := &Game{
		name:           opts.Name,
		log:            opts.Log,
		dir:            dir,
		global:         global,
		byID:           make(map[string]*StarSystem),
		bus:            event.NewBus(),
		script:         opts.Script,
		tables:         opts.Tables,
		workers:        opts.Workers,
		sensorInterval: opts.SensorInterval,
		runner:         coresys.NewRunner(),
		now:            opts.Start,
	}
	g.runner.Register(system.NewEventDispatchSystem(g.bus, g.log))
	g.runner.Register(system.NewCleanupSystem(g.global, g.log))
	return g, nil
}

func (g *Game) Name() string              { return g.name }
func (g *Game) Now() time.Time            { return g.now }
func (g *Game) TickNumber() uint64        { return g.tick }
func (g *Game) Directory() *ecs.Directory { return g.dir }
func (g *Game) Global() *ecs.Manager      { return g.global }
func (g *Game) Bus() *event.Bus           { return g.bus }
func (g *Game) Tables() *data.Tables      { return g.tables }
func (g *Game) Script() *scripting.Engine { return g.script }
func (g *Game) Systems() []*StarSystem    { return append([]*StarSystem(nil), g.systems...) }

// StarSystem returns the loaded system with the given id.
func (g *Game) StarSystem(id string) (*StarSystem, bool) {
	s, ok := g.byID[id]
	return s, ok
}

// EnableAutosave saves through saver every interval of game time, after
// events have been dispatched.
func (g *Game) EnableAutosave(saver system.Saver, interval, timeout time.Duration) {
	g.runner.Register(system.NewAutosaveSystem(saver, interval, timeout, g.log))
}

// AddStarSystem creates an empty star system with its own manager and tick
// pipeline.
func (g *Game) AddStarSystem(id, name string) (*StarSystem, error) {
	if _, exists := g.byID[id]; exists {
		return nil, fmt.Errorf("add star system %q: %w", id, ErrDuplicateSystem)
	}
	m, err := ecs.NewManager(id, g.dir)
	if err != nil {
		return nil, err
	}
	s := &StarSystem{ID: id, Name: name, Manager: m, runner: g.newRunner(m, name)}
	g.systems = append(g.systems, s)
	g.byID[id] = s
	g.log.Info("star system loaded", zap.String("id", id), zap.String("name", name))
	return s, nil
}

func (g *Game) newRunner(m *ecs.Manager, name string) *coresys.Runner {
	combat := weapons.Combat{Script: g.script, Bus: g.bus, System: name}
	det := sensors.Detector{Script: g.script}

	r := coresys.NewRunner()
	r.Register(system.NewNewtonIntegratorSystem(m))
	r.Register(system.NewMovementSystem(m, g.log))
	r.Register(system.NewSensorSystem(m, det, g.bus, g.sensorInterval, g.log))
	r.Register(system.NewWeaponSystem(m, combat, g.log))
	r.Register(system.NewBeamSystem(m, combat))
	r.Register(system.NewCleanupSystem(m, g.log))
	return r
}

// UnloadStarSystem destroys every entity of the system and drops it from the
// game. Contacts on its entities fall back to memory. It returns the number
// of entities destroyed.
func (g *Game) UnloadStarSystem(id string) (int, error) {
	s, ok := g.byID[id]
	if !ok {
		return 0, fmt.Errorf("unload %q: %w", id, ErrUnknownSystem)
	}
	n := 0
	var errs []error
	for _, e := range s.Manager.Entities() {
		if err := s.Manager.DestroyEntity(e); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	delete(g.byID, id)
	for i, o := range g.systems {
		if o == s {
			g.systems = append(g.systems[:i], g.systems[i+1:]...)
			break
		}
	}
	g.log.Info("star system unloaded", zap.String("id", id), zap.Int("entities", n))
	return n, errors.Join(errs...)
}

// Advance moves the game clock forward by dt. Star systems tick in parallel,
// at most Workers at a time; events and global cleanup then run on the
// calling goroutine. On error the clock is left unchanged, but systems that
// finished their tick keep its effects.
func (g *Game) Advance(ctx context.Context, dt time.Duration) error {
	if dt <= 0 {
		return fmt.Errorf("advance by %s: %w", dt, ErrBadStep)
	}
	t := coresys.Tick{At: g.now.Add(dt), Delta: dt, Number: g.tick + 1}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for _, s := range g.systems {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.runner.Tick(t); err != nil {
				return fmt.Errorf("star system %s: %w", s.ID, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("tick %d: %w", t.Number, err)
	}
	if err := g.runner.Tick(t); err != nil {
		return fmt.Errorf("tick %d: %w", t.Number, err)
	}

	g.now = t.At
	g.tick = t.Number
	return nil
}

// Run calls Advance n times, stopping early when ctx is done.
func (g *Game) Run(ctx context.Context, n int, dt time.Duration) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.Advance(ctx, dt); err != nil {
			return err
		}
	}
	return nil
}

// Jump moves e into another star system, parked at offset from that
// system's primary and parented to the body whose sphere of influence holds
// it. Movement orders do not survive the jump.
func (g *Game) Jump(e ecs.Entity, toID string, offset orbital.Vector3) (ecs.Entity, error) {
	dst, ok := g.byID[toID]
	if !ok {
		return ecs.Entity{}, fmt.Errorf("jump %s to %q: %w", e, toID, ErrUnknownSystem)
	}
	moved, err := e.Manager().Transfer(e, dst.Manager)
	if err != nil {
		return ecs.Entity{}, fmt.Errorf("jump %s to %q: %w", e, toID, err)
	}
	for _, key := range []ecs.TypeKey{
		component.OrbitType,
		component.NewtonSimpleMoveType,
		component.NewtonMoveType,
		component.WarpMovingType,
	} {
		if _, has := dst.Manager.GetDataBlob(moved, key); has {
			if err := dst.Manager.RemoveDataBlob(moved, key); err != nil {
				return moved, err
			}
		}
	}

	pos, ok := component.PositionType.Get(moved)
	if !ok {
		return moved, nil
	}
	pos.MoveType = component.MoveNone
	pos.Velocity = orbital.Zero
	if err := pos.SetParent(ecs.Entity{}); err != nil {
		return moved, err
	}
	at := offset
	if star, ok := dst.Primary(); ok {
		at = component.PositionType.Must(star).AbsolutePosition().Add(offset)
		parent, _ := dst.SOIParent(at)
		if err := pos.SetParent(parent); err != nil {
			return moved, err
		}
	}
	pos.SetAbsolutePosition(at)
	return moved, nil
}
