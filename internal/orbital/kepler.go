package orbital

import (
	"errors"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrParabolic = errors.New("parabolic orbit not supported")

// KeplerElements describe a two-body orbit around a parent. Angles are in
// radians, SemiMajorAxis in metres (negative for hyperbolic trajectories).
type KeplerElements struct {
	SGP                float64   `json:"sgp"`
	SemiMajorAxis      float64   `json:"semiMajorAxis"`
	Eccentricity       float64   `json:"eccentricity"`
	Inclination        float64   `json:"inclination"`
	LoAN               float64   `json:"loan"`
	AoP                float64   `json:"aop"`
	MeanAnomalyAtEpoch float64   `json:"meanAnomalyAtEpoch"`
	Epoch              time.Time `json:"epoch"`
}

func (ke KeplerElements) IsHyperbolic() bool { return ke.Eccentricity > 1 }

// Periapsis is the closest approach distance.
func (ke KeplerElements) Periapsis() float64 {
	return ke.SemiMajorAxis * (1 - ke.Eccentricity)
}

// Apoapsis is +Inf for open trajectories.
func (ke KeplerElements) Apoapsis() float64 {
	if ke.Eccentricity >= 1 {
		return math.Inf(1)
	}
	return ke.SemiMajorAxis * (1 + ke.Eccentricity)
}

// MeanMotion in rad/s.
func (ke KeplerElements) MeanMotion() float64 {
	a := math.Abs(ke.SemiMajorAxis)
	return math.Sqrt(ke.SGP / (a * a * a))
}

// Period is +Inf for open trajectories.
func (ke KeplerElements) Period() time.Duration {
	if ke.Eccentricity >= 1 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(2 * math.Pi / ke.MeanMotion() * float64(time.Second))
}

// PeriodSeconds is the period as float seconds, avoiding Duration rounding.
func (ke KeplerElements) PeriodSeconds() float64 {
	if ke.Eccentricity >= 1 {
		return math.Inf(1)
	}
	return 2 * math.Pi / ke.MeanMotion()
}

// MeanAnomalyAt propagates the mean anomaly to at. Elliptic results are
// wrapped into [0, 2pi).
func (ke KeplerElements) MeanAnomalyAt(at time.Time) float64 {
	dt := at.Sub(ke.Epoch).Seconds()
	m := ke.MeanAnomalyAtEpoch + ke.MeanMotion()*dt
	if ke.Eccentricity < 1 {
		m = wrapAngle(m)
	}
	return m
}

// SolveKepler returns the eccentric anomaly E for mean anomaly m of an
// elliptic orbit, solving m = E - e sin E by Newton iteration.
func SolveKepler(m, e float64) float64 {
	m = wrapAngle(m)
	E := m
	if e > 0.8 {
		E = math.Pi
	}
	for i := 0; i < 50; i++ {
		f := E - e*math.Sin(E) - m
		d := f / (1 - e*math.Cos(E))
		E -= d
		if math.Abs(d) < 1e-14 {
			break
		}
	}
	return E
}

// SolveKeplerHyperbolic returns the hyperbolic anomaly H for m = e sinh H - H.
func SolveKeplerHyperbolic(m, e float64) float64 {
	H := math.Asinh(m / e)
	for i := 0; i < 100; i++ {
		f := e*math.Sinh(H) - H - m
		d := f / (e*math.Cosh(H) - 1)
		H -= d
		if math.Abs(d) < 1e-14 {
			break
		}
	}
	return H
}

// TrueAnomalyAt returns the true anomaly at time at.
func (ke KeplerElements) TrueAnomalyAt(at time.Time) float64 {
	e := ke.Eccentricity
	m := ke.MeanAnomalyAt(at)
	if e < 1 {
		E := SolveKepler(m, e)
		return wrapAngle(2 * math.Atan2(math.Sqrt(1+e)*math.Sin(E/2), math.Sqrt(1-e)*math.Cos(E/2)))
	}
	H := SolveKeplerHyperbolic(m, e)
	return 2 * math.Atan2(math.Sqrt(e+1)*math.Sinh(H/2), math.Sqrt(e-1)*math.Cosh(H/2))
}

// StateVectors returns the parent-relative position and velocity at time at.
func StateVectors(ke KeplerElements, at time.Time) (pos, vel Vector3, err error) {
	e := ke.Eccentricity
	if math.Abs(e-1) < epsilon {
		return Zero, Zero, ErrParabolic
	}
	nu := ke.TrueAnomalyAt(at)
	p := ke.SemiMajorAxis * (1 - e*e)
	r := p / (1 + e*math.Cos(nu))

	pf := Vector3{r * math.Cos(nu), r * math.Sin(nu), 0}
	k := math.Sqrt(ke.SGP / p)
	vf := Vector3{-k * math.Sin(nu), k * (e + math.Cos(nu)), 0}

	return ke.rotate(pf), ke.rotate(vf), nil
}

// PerifocalToParent is Rz(LoAN)·Rx(i)·Rz(AoP), taking perifocal vectors
// into the parent frame.
func (ke KeplerElements) PerifocalToParent() mgl64.Mat3 {
	return mgl64.Rotate3DZ(ke.LoAN).
		Mul3(mgl64.Rotate3DX(ke.Inclination)).
		Mul3(mgl64.Rotate3DZ(ke.AoP))
}

func (ke KeplerElements) rotate(v Vector3) Vector3 {
	return FromVec3(ke.PerifocalToParent().Mul3x1(v.Vec3()))
}

// KeplerFromStateVectors derives elements from a parent-relative state at
// epoch. Circular orbits get AoP 0 with the anomaly measured from the node
// (or the x axis when also equatorial).
func KeplerFromStateVectors(sgp float64, pos, vel Vector3, epoch time.Time) KeplerElements {
	r := pos.Length()
	v2 := vel.Dot(vel)
	h := pos.Cross(vel)
	hl := h.Length()
	n := Vector3{-h.Y, h.X, 0}
	nl := n.Length()
	ev := pos.Scale(v2 - sgp/r).Sub(vel.Scale(pos.Dot(vel))).Scale(1 / sgp)
	e := ev.Length()

	energy := v2/2 - sgp/r
	a := -sgp / (2 * energy)

	inc := 0.0
	if hl > 0 {
		inc = math.Acos(clamp(h.Z / hl))
	}
	equatorial := nl < epsilon*hl || hl == 0
	circular := e < 1e-9

	loan := 0.0
	if !equatorial {
		loan = wrapAngle(math.Atan2(n.Y, n.X))
	}

	var aop, nu float64
	switch {
	case !circular && !equatorial:
		aop = math.Acos(clamp(n.Dot(ev) / (nl * e)))
		if ev.Z < 0 {
			aop = 2*math.Pi - aop
		}
	case !circular:
		aop = wrapAngle(math.Atan2(ev.Y, ev.X))
		if h.Z < 0 {
			aop = wrapAngle(-aop)
		}
	}

	switch {
	case !circular:
		nu = math.Acos(clamp(ev.Dot(pos) / (e * r)))
		if pos.Dot(vel) < 0 {
			nu = 2*math.Pi - nu
		}
	case !equatorial:
		nu = math.Acos(clamp(n.Dot(pos) / (nl * r)))
		if pos.Z < 0 {
			nu = 2*math.Pi - nu
		}
	default:
		nu = math.Atan2(pos.Y, pos.X)
		if h.Z < 0 {
			nu = -nu
		}
		nu = wrapAngle(nu)
	}

	var m float64
	if e < 1 {
		E := math.Atan2(math.Sqrt(1-e*e)*math.Sin(nu), e+math.Cos(nu))
		m = wrapAngle(E - e*math.Sin(E))
	} else {
		if nu > math.Pi {
			nu -= 2 * math.Pi
		}
		H := 2 * math.Atanh(math.Sqrt((e-1)/(e+1))*math.Tan(nu/2))
		m = e*math.Sinh(H) - H
	}

	return KeplerElements{
		SGP:                sgp,
		SemiMajorAxis:      a,
		Eccentricity:       e,
		Inclination:        inc,
		LoAN:               loan,
		AoP:                aop,
		MeanAnomalyAtEpoch: m,
		Epoch:              epoch,
	}
}

// CircularOrbit is a prograde equatorial circular orbit of radius r starting
// on the +x axis at epoch.
func CircularOrbit(sgp, r float64, epoch time.Time) KeplerElements {
	return KeplerElements{SGP: sgp, SemiMajorAxis: r, Epoch: epoch}
}

// CircularSpeed is the orbital speed of a circular orbit of radius r.
func CircularSpeed(sgp, r float64) float64 {
	return math.Sqrt(sgp / r)
}

// SOIRadius is the Laplace sphere of influence of a body of mass m orbiting
// a parent of mass pm at semi-major axis a.
func SOIRadius(a, m, pm float64) float64 {
	return a * math.Pow(m/pm, 0.4)
}

func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

func clamp(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}
