package geom

import (
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gogpu/brep/internal/newton"
)

// Plane is the affine surface Origin + u*XAxis + v*YAxis. The canonical
// parameter cell is [0, 1] x [0, 1], but evaluation and the searches extend
// over the whole plane. The normal is XAxis x YAxis, normalized.
type Plane struct {
	Origin, XAxis, YAxis v3.Vec
}

// Subs evaluates the plane at (u, v).
func (p Plane) Subs(uv v2.Vec) v3.Vec {
	return p.Origin.Add(p.XAxis.MulScalar(uv.X)).Add(p.YAxis.MulScalar(uv.Y))
}

// Normal returns the constant unit normal.
func (p Plane) Normal(uv v2.Vec) v3.Vec {
	return p.XAxis.Cross(p.YAxis).Normalize()
}

// DerU returns XAxis.
func (p Plane) DerU(uv v2.Vec) v3.Vec { return p.XAxis }

// DerV returns YAxis.
func (p Plane) DerV(uv v2.Vec) v3.Vec { return p.YAxis }

// DerUU returns the zero vector.
func (p Plane) DerUU(uv v2.Vec) v3.Vec { return v3.Vec{} }

// DerUV returns the zero vector.
func (p Plane) DerUV(uv v2.Vec) v3.Vec { return v3.Vec{} }

// DerVV returns the zero vector.
func (p Plane) DerVV(uv v2.Vec) v3.Vec { return v3.Vec{} }

// ParamRange returns the canonical unit cell.
func (p Plane) ParamRange() (Interval, Interval) {
	return Interval{0, 1}, Interval{0, 1}
}

// SearchParameter inverts the plane at pt.
func (p Plane) SearchParameter(pt v3.Vec, hint v2.Vec, budget int) (v2.Vec, bool) {
	uv, ok := p.SearchNearestParameter(pt, hint, budget)
	if ok && p.Subs(uv).Sub(pt).Length2() <= Tolerance2 {
		return uv, true
	}
	return v2.Vec{}, false
}

// SearchNearestParameter projects pt onto the plane by solving the Gram
// system of the axes. A single step is exact.
func (p Plane) SearchNearestParameter(pt v3.Vec, hint v2.Vec, budget int) (v2.Vec, bool) {
	d := pt.Sub(p.Origin)
	u, v, ok := newton.Solve2(
		p.XAxis.Length2(), p.XAxis.Dot(p.YAxis),
		p.XAxis.Dot(p.YAxis), p.YAxis.Length2(),
		d.Dot(p.XAxis), d.Dot(p.YAxis),
	)
	if !ok {
		return v2.Vec{}, false
	}
	return v2.Vec{X: u, Y: v}, true
}

// ParameterDivision returns the rectangle corners; a plane has no interior
// curvature.
func (p Plane) ParameterDivision(ur, vr Interval, tol float64) ([]float64, []float64) {
	return []float64{ur.Min, ur.Max}, []float64{vr.Min, vr.Max}
}

// Invert swaps the axes, flipping the normal.
func (p Plane) Invert() Surface {
	return Plane{Origin: p.Origin, XAxis: p.YAxis, YAxis: p.XAxis}
}

func (Plane) isSurface() {}
