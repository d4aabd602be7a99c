package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Polyline is a piecewise-linear curve through Pts. The parameter range is
// [0, n-1] for n points; the integer part of a parameter selects the
// segment, the fraction interpolates along it.
type Polyline struct {
	Pts []v3.Vec
}

func (p Polyline) segment(t float64) (int, float64) {
	n := len(p.Pts) - 1
	t = p.ParamRange().Clamp(t)
	i := int(math.Floor(t))
	if i >= n {
		i = n - 1
	}
	return i, t - float64(i)
}

// Subs evaluates the polyline at t.
func (p Polyline) Subs(t float64) v3.Vec {
	i, f := p.segment(t)
	return p.Pts[i].Add(p.Pts[i+1].Sub(p.Pts[i]).MulScalar(f))
}

// Der returns the derivative, the segment vector at floor(t).
func (p Polyline) Der(t float64) v3.Vec {
	i, _ := p.segment(t)
	return p.Pts[i+1].Sub(p.Pts[i])
}

// Der2 returns the zero vector.
func (p Polyline) Der2(t float64) v3.Vec { return v3.Vec{} }

// ParamRange returns [0, n-1].
func (p Polyline) ParamRange() Interval {
	return Interval{0, float64(len(p.Pts) - 1)}
}

// FrontBack returns the first and last points.
func (p Polyline) FrontBack() (v3.Vec, v3.Vec) {
	return p.Pts[0], p.Pts[len(p.Pts)-1]
}

// SearchParameter inverts the polyline at pt.
func (p Polyline) SearchParameter(pt v3.Vec, hint float64, budget int) (float64, bool) {
	t, ok := p.SearchNearestParameter(pt, hint, budget)
	if ok && p.Subs(t).Sub(pt).Length2() <= Tolerance2 {
		return t, true
	}
	return 0, false
}

// SearchNearestParameter projects pt onto every segment and keeps the best.
// The hint and budget are ignored; the scan is already exact.
func (p Polyline) SearchNearestParameter(pt v3.Vec, hint float64, budget int) (float64, bool) {
	best, bestDist, ok := 0.0, math.MaxFloat64, false
	for i := 0; i+1 < len(p.Pts); i++ {
		seg := Line{p.Pts[i], p.Pts[i+1]}
		f, fok := seg.SearchNearestParameter(pt, NoHint, budget)
		if !fok {
			continue
		}
		if d := seg.Subs(f).Sub(pt).Length2(); d < bestDist {
			best, bestDist, ok = float64(i)+f, d, true
		}
	}
	return best, ok
}

// ParameterDivision returns the segment knots covered by r, with the range
// ends.
func (p Polyline) ParameterDivision(r Interval, tol float64) []float64 {
	div := []float64{r.Min}
	for k := math.Floor(r.Min) + 1; k < r.Max; k++ {
		if k > r.Min {
			div = append(div, k)
		}
	}
	return append(div, r.Max)
}

// Cut splits the polyline at t. Cutting at a knot shares the knot between
// the pieces; cutting inside a segment inserts the evaluated point.
func (p Polyline) Cut(t float64) (Curve, Curve) {
	i, f := p.segment(t)
	at := p.Subs(t)
	if f <= paramEps && i > 0 {
		return Polyline{clonePts(p.Pts[:i+1])}, Polyline{clonePts(p.Pts[i:])}
	}
	if f >= 1-paramEps && i+2 < len(p.Pts) {
		return Polyline{clonePts(p.Pts[:i+2])}, Polyline{clonePts(p.Pts[i+1:])}
	}
	front := append(clonePts(p.Pts[:i+1]), at)
	back := append([]v3.Vec{at}, clonePts(p.Pts[i+1:])...)
	return Polyline{front}, Polyline{back}
}

// Invert returns the polyline traversed backwards.
func (p Polyline) Invert() Curve {
	rev := make([]v3.Vec, len(p.Pts))
	for i, pt := range p.Pts {
		rev[len(p.Pts)-1-i] = pt
	}
	return Polyline{rev}
}

func (Polyline) isCurve() {}

func clonePts(pts []v3.Vec) []v3.Vec {
	out := make([]v3.Vec, len(pts))
	copy(out, pts)
	return out
}

// paramEps separates a knot cut from an interior cut.
const paramEps = 1e-9
