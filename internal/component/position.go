package component

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/orbital"
)

// MoveType tags which movement model last wrote a Position.
type MoveType uint8

const (
	MoveNone MoveType = iota
	MoveOrbit
	MoveNewtonSimple
	MoveNewtonComplex
	MoveWarp
)

func (t MoveType) String() string {
	switch t {
	case MoveNone:
		return "None"
	case MoveOrbit:
		return "Orbit"
	case MoveNewtonSimple:
		return "NewtonSimple"
	case MoveNewtonComplex:
		return "NewtonComplex"
	case MoveWarp:
		return "Warp"
	}
	return fmt.Sprintf("MoveType(%d)", uint8(t))
}

var (
	ErrParentHasNoPosition = errors.New("new parent must have a Position")
	ErrParentCycle         = errors.New("parent would create a cycle")
)

// Position is the canonical parent-relative position of an entity. Positions
// form a tree through their parents; a root has no parent and an infinite SGP.
type Position struct {
	ecs.Blob
	MoveType MoveType
	Velocity orbital.Vector3
	SGP      float64
	Kepler   orbital.KeplerElements

	relative orbital.Vector3
	parent   EntityRef
}

func (*Position) BlobType() ecs.TypeKey { return PositionType }

// NewPosition returns a root position at abs.
func NewPosition(abs orbital.Vector3) *Position {
	return &Position{relative: abs, SGP: math.Inf(1)}
}

// Parent returns the parent entity while it is alive.
func (p *Position) Parent() (ecs.Entity, bool) {
	return p.parent.Entity()
}

func (p *Position) parentPosition() (*Position, bool) {
	e, ok := p.parent.Entity()
	if !ok {
		return nil, false
	}
	return PositionType.Get(e)
}

func (p *Position) RelativePosition() orbital.Vector3     { return p.relative }
func (p *Position) SetRelativePosition(v orbital.Vector3) { p.relative = v }

// AbsolutePosition sums relative positions up the parent chain. A missing or
// dead parent makes this position a root.
func (p *Position) AbsolutePosition() orbital.Vector3 {
	abs := p.relative
	for cur, ok := p.parentPosition(); ok; cur, ok = cur.parentPosition() {
		abs = abs.Add(cur.relative)
	}
	return abs
}

func (p *Position) SetAbsolutePosition(v orbital.Vector3) {
	if pp, ok := p.parentPosition(); ok {
		p.relative = v.Sub(pp.AbsolutePosition())
		return
	}
	p.relative = v
}

// SetParent re-parents p, keeping its absolute position. The zero Entity
// detaches p into a root. On error nothing changes.
func (p *Position) SetParent(newParent ecs.Entity) error {
	abs := p.AbsolutePosition()
	self := p.OwningEntity()

	if newParent.IsZero() {
		p.parent = EntityRef{}
		p.relative = abs
		p.SGP = math.Inf(1)
		return nil
	}

	pp, ok := PositionType.Get(newParent)
	if !ok {
		return fmt.Errorf("set parent of %s to %s: %w", self, newParent, ErrParentHasNoPosition)
	}
	if self.IsValid() {
		if newParent.Guid() == self.Guid() {
			return fmt.Errorf("set parent of %s to itself: %w", self, ErrParentCycle)
		}
		for anc, ok := pp.Parent(); ok; {
			if anc.Guid() == self.Guid() {
				return fmt.Errorf("set parent of %s to descendant %s: %w", self, newParent, ErrParentCycle)
			}
			ap, has := PositionType.Get(anc)
			if !has {
				break
			}
			anc, ok = ap.Parent()
		}
	} else if pp == p {
		return fmt.Errorf("set parent to own position: %w", ErrParentCycle)
	}

	mass := MassOf(newParent)
	if self.IsValid() {
		mass += MassOf(self)
	}
	p.parent = RefTo(newParent)
	p.relative = abs.Sub(pp.AbsolutePosition())
	p.SGP = orbital.StandardGravitationalParameter(mass)
	return nil
}

// Distance is the absolute distance between two positions.
func Distance(a, b *Position) float64 {
	return a.AbsolutePosition().Distance(b.AbsolutePosition())
}

type positionJSON struct {
	MoveType MoveType               `json:"moveType"`
	Relative orbital.Vector3        `json:"relative"`
	Velocity orbital.Vector3        `json:"velocity"`
	SGP      *float64               `json:"sgp,omitempty"`
	Kepler   orbital.KeplerElements `json:"kepler"`
	Parent   EntityRef              `json:"parent"`
}

// MarshalJSON omits an infinite SGP, which JSON cannot carry; absence means
// root on load.
func (p *Position) MarshalJSON() ([]byte, error) {
	w := positionJSON{
		MoveType: p.MoveType,
		Relative: p.relative,
		Velocity: p.Velocity,
		Kepler:   p.Kepler,
		Parent:   p.parent,
	}
	if !math.IsInf(p.SGP, 0) {
		sgp := p.SGP
		w.SGP = &sgp
	}
	return json.Marshal(w)
}

func (p *Position) UnmarshalJSON(data []byte) error {
	var w positionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p.MoveType = w.MoveType
	p.relative = w.Relative
	p.Velocity = w.Velocity
	p.Kepler = w.Kepler
	p.parent = w.Parent
	p.SGP = math.Inf(1)
	if w.SGP != nil {
		p.SGP = *w.SGP
	}
	return nil
}

// Validate reports a parent chain through p that loops. SetParent refuses
// cycles, but a loaded parent is taken as written.
func (p *Position) Validate() error {
	seen := map[*Position]bool{p: true}
	for cur, ok := p.parentPosition(); ok; cur, ok = cur.parentPosition() {
		if seen[cur] {
			return fmt.Errorf("parent %s: chain loops at %s: %w", p.parent.Guid, cur.OwningEntity().Guid(), ErrParentCycle)
		}
		seen[cur] = true
	}
	return nil
}

func (p *Position) ResolveRefs(find func(ecs.Guid) (ecs.Entity, bool, error)) error {
	return p.parent.Resolve(find)
}
