package component

import (
	"time"

	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/orbital"
)

// WarpMoving is non-physical straight-line travel between two points in the
// parent frame at constant speed. TargetOrbit is the orbit taken up on
// arrival.
type WarpMoving struct {
	ecs.Blob
	Parent      EntityRef              `json:"parent"`
	Start       orbital.Vector3        `json:"start"`
	End         orbital.Vector3        `json:"end"`
	Departed    time.Time              `json:"departed"`
	Speed       float64                `json:"speed"` // m/s
	TargetOrbit orbital.KeplerElements `json:"targetOrbit"`
}

func (*WarpMoving) BlobType() ecs.TypeKey { return WarpMovingType }

func (w *WarpMoving) ResolveRefs(find func(ecs.Guid) (ecs.Entity, bool, error)) error {
	return w.Parent.Resolve(find)
}

func (w *WarpMoving) Distance() float64 { return w.Start.Distance(w.End) }

// Arrival is the time the warp reaches End.
func (w *WarpMoving) Arrival() time.Time {
	if w.Speed <= 0 {
		return w.Departed
	}
	return w.Departed.Add(time.Duration(w.Distance() / w.Speed * float64(time.Second)))
}

// PositionAt returns the parent-relative position at time at, clamped to the
// endpoints.
func (w *WarpMoving) PositionAt(at time.Time) orbital.Vector3 {
	d := w.Distance()
	if d == 0 || w.Speed <= 0 {
		return w.End
	}
	travelled := at.Sub(w.Departed).Seconds() * w.Speed
	return w.Start.Lerp(w.End, travelled/d)
}

// VelocityAt is Speed along the warp line while in transit, zero otherwise.
func (w *WarpMoving) VelocityAt(at time.Time) orbital.Vector3 {
	if at.Before(w.Departed) || !at.Before(w.Arrival()) {
		return orbital.Zero
	}
	return w.End.Sub(w.Start).Normalize().Scale(w.Speed)
}
