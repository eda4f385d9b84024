package orbital

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vector3 is a position (m) or velocity (m/s) in a parent-relative frame.
// Arithmetic goes through mgl64; the named fields keep the saved shape.
type Vector3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

var Zero = Vector3{}

func V(x, y, z float64) Vector3 { return Vector3{X: x, Y: y, Z: z} }

func FromVec3(w mgl64.Vec3) Vector3 { return Vector3{X: w[0], Y: w[1], Z: w[2]} }
func (v Vector3) Vec3() mgl64.Vec3  { return mgl64.Vec3{v.X, v.Y, v.Z} }

func (v Vector3) Add(o Vector3) Vector3      { return FromVec3(v.Vec3().Add(o.Vec3())) }
func (v Vector3) Sub(o Vector3) Vector3      { return FromVec3(v.Vec3().Sub(o.Vec3())) }
func (v Vector3) Scale(s float64) Vector3    { return FromVec3(v.Vec3().Mul(s)) }
func (v Vector3) Dot(o Vector3) float64      { return v.Vec3().Dot(o.Vec3()) }
func (v Vector3) Cross(o Vector3) Vector3    { return FromVec3(v.Vec3().Cross(o.Vec3())) }
func (v Vector3) Length() float64            { return v.Vec3().Len() }
func (v Vector3) Distance(o Vector3) float64 { return v.Vec3().Sub(o.Vec3()).Len() }

// Normalize returns the unit vector along v, or Zero for a zero vector.
func (v Vector3) Normalize() Vector3 {
	if v.Length() == 0 {
		return Zero
	}
	return FromVec3(v.Vec3().Normalize())
}

// Lerp interpolates between v and o; t is clamped to [0,1].
func (v Vector3) Lerp(o Vector3, t float64) Vector3 {
	t = mgl64.Clamp(t, 0, 1)
	return v.Add(o.Sub(v).Scale(t))
}

func (v Vector3) IsFinite() bool {
	for _, c := range v.Vec3() {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
