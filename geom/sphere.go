package geom

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Sphere is the sphere of given Center and Radius, parameterized by
// colatitude u in [0, pi] from the +z pole and azimuth v in [0, 2*pi).
// An Inverted sphere keeps the same point set with the normal pointing
// toward the center.
type Sphere struct {
	Center   v3.Vec
	Radius   float64
	Inverted bool
}

func (s Sphere) dir(uv v2.Vec) v3.Vec {
	su, cu := math.Sincos(uv.X)
	sv, cv := math.Sincos(uv.Y)
	return v3.Vec{X: su * cv, Y: su * sv, Z: cu}
}

// Subs evaluates the sphere at (u, v).
func (s Sphere) Subs(uv v2.Vec) v3.Vec {
	return s.Center.Add(s.dir(uv).MulScalar(s.Radius))
}

// Normal returns the oriented unit normal.
func (s Sphere) Normal(uv v2.Vec) v3.Vec {
	n := s.dir(uv)
	if s.Inverted {
		return n.Neg()
	}
	return n
}

// DerU returns the colatitude derivative.
func (s Sphere) DerU(uv v2.Vec) v3.Vec {
	su, cu := math.Sincos(uv.X)
	sv, cv := math.Sincos(uv.Y)
	return v3.Vec{X: cu * cv, Y: cu * sv, Z: -su}.MulScalar(s.Radius)
}

// DerV returns the azimuth derivative.
func (s Sphere) DerV(uv v2.Vec) v3.Vec {
	su, _ := math.Sincos(uv.X)
	sv, cv := math.Sincos(uv.Y)
	return v3.Vec{X: -su * sv, Y: su * cv, Z: 0}.MulScalar(s.Radius)
}

// DerUU returns the second colatitude derivative.
func (s Sphere) DerUU(uv v2.Vec) v3.Vec {
	return s.dir(uv).MulScalar(-s.Radius)
}

// DerUV returns the mixed second derivative.
func (s Sphere) DerUV(uv v2.Vec) v3.Vec {
	_, cu := math.Sincos(uv.X)
	sv, cv := math.Sincos(uv.Y)
	return v3.Vec{X: -cu * sv, Y: cu * cv, Z: 0}.MulScalar(s.Radius)
}

// DerVV returns the second azimuth derivative.
func (s Sphere) DerVV(uv v2.Vec) v3.Vec {
	su, _ := math.Sincos(uv.X)
	sv, cv := math.Sincos(uv.Y)
	return v3.Vec{X: -su * cv, Y: -su * sv, Z: 0}.MulScalar(s.Radius)
}

// ParamRange returns [0, pi] x [0, 2*pi].
func (s Sphere) ParamRange() (Interval, Interval) {
	return Interval{0, math.Pi}, Interval{0, 2 * math.Pi}
}

// SearchParameter inverts the sphere at pt.
func (s Sphere) SearchParameter(pt v3.Vec, hint v2.Vec, budget int) (v2.Vec, bool) {
	uv, ok := s.SearchNearestParameter(pt, hint, budget)
	if ok && s.Subs(uv).Sub(pt).Length2() <= Tolerance2 {
		return uv, true
	}
	return v2.Vec{}, false
}

// SearchNearestParameter projects pt radially. The azimuth is unwrapped
// toward the hint so that chained projections cross the seam continuously;
// at the poles the azimuth degenerates and the hint, if any, is kept.
func (s Sphere) SearchNearestParameter(pt v3.Vec, hint v2.Vec, budget int) (v2.Vec, bool) {
	d := pt.Sub(s.Center)
	dl := d.Length()
	if dl < denomEps {
		return v2.Vec{}, false
	}
	u := math.Acos(clamp(d.Z/dl, -1, 1))
	var v float64
	switch {
	case math.Hypot(d.X, d.Y) < poleEps*dl && hasHintUV(hint):
		v = hint.Y
	default:
		v = math.Atan2(d.Y, d.X)
		if v < 0 {
			v += 2 * math.Pi
		}
		if hasHintUV(hint) {
			v += 2 * math.Pi * math.Round((hint.Y-v)/(2*math.Pi))
		}
	}
	return v2.Vec{X: u, Y: v}, true
}

// ParameterDivision refines both axes against the sphere's curvature.
func (s Sphere) ParameterDivision(ur, vr Interval, tol float64) ([]float64, []float64) {
	return surfaceDivision(s, ur, vr, tol)
}

// Invert flips the normal orientation.
func (s Sphere) Invert() Surface {
	s.Inverted = !s.Inverted
	return s
}

func (Sphere) isSurface() {}

func clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}

// poleEps detects projections that land on a parameterization pole.
const poleEps = 1e-12
