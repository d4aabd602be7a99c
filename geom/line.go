package geom

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Line is the straight segment from P0 to P1, parameterized over [0, 1].
type Line struct {
	P0, P1 v3.Vec
}

// Subs evaluates the segment at t.
func (l Line) Subs(t float64) v3.Vec {
	return l.P0.Add(l.P1.Sub(l.P0).MulScalar(t))
}

// Der returns the constant segment derivative P1 - P0.
func (l Line) Der(t float64) v3.Vec { return l.P1.Sub(l.P0) }

// Der2 returns the zero vector.
func (l Line) Der2(t float64) v3.Vec { return v3.Vec{} }

// ParamRange returns [0, 1].
func (l Line) ParamRange() Interval { return Interval{0, 1} }

// FrontBack returns the segment endpoints.
func (l Line) FrontBack() (v3.Vec, v3.Vec) { return l.P0, l.P1 }

// SearchParameter inverts the segment at pt.
func (l Line) SearchParameter(pt v3.Vec, hint float64, budget int) (float64, bool) {
	t, _ := l.SearchNearestParameter(pt, hint, budget)
	if l.Subs(t).Sub(pt).Length2() <= Tolerance2 {
		return t, true
	}
	return 0, false
}

// SearchNearestParameter projects pt onto the segment.
func (l Line) SearchNearestParameter(pt v3.Vec, hint float64, budget int) (float64, bool) {
	d := l.P1.Sub(l.P0)
	den := d.Length2()
	if den < denomEps {
		return 0, false
	}
	return l.ParamRange().Clamp(pt.Sub(l.P0).Dot(d) / den), true
}

// ParameterDivision returns the range ends; a segment has no interior
// features.
func (l Line) ParameterDivision(r Interval, tol float64) []float64 {
	return []float64{r.Min, r.Max}
}

// Cut splits the segment at t.
func (l Line) Cut(t float64) (Curve, Curve) {
	mid := l.Subs(t)
	return Line{l.P0, mid}, Line{mid, l.P1}
}

// Invert returns the reversed segment.
func (l Line) Invert() Curve { return Line{l.P1, l.P0} }

func (Line) isCurve() {}
