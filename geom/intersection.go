package geom

import (
	"errors"
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrShortSeed reports an intersection seed with fewer than two samples.
var ErrShortSeed = errors.New("geom: intersection seed needs at least two samples")

// IntersectionSample is one seed vertex of an intersection curve: the point
// in 3-space and its parameters on both surfaces.
type IntersectionSample struct {
	P        v3.Vec
	UV0, UV1 v2.Vec
}

// Intersection is the transversal intersection curve of two surfaces. It is
// carried by a seed polyline whose vertices lie on both surfaces; between
// vertices, evaluation re-projects the linear interpolation onto the true
// intersection with a budgeted Newton correction. The parameter range is
// [0, n-1] for n seed vertices, like Polyline.
type Intersection struct {
	s0, s1 Surface
	pts    []v3.Vec
	uv0    []v2.Vec
	uv1    []v2.Vec
	budget int
	tol    float64
}

// NewIntersection builds an intersection curve over refined seed samples.
// A non-positive budget falls back to DefaultBudget.
func NewIntersection(s0, s1 Surface, seed []IntersectionSample, tol float64, budget int) (*Intersection, error) {
	if len(seed) < 2 {
		return nil, ErrShortSeed
	}
	if budget <= 0 {
		budget = DefaultBudget
	}
	if tol <= 0 {
		tol = Tolerance
	}
	c := &Intersection{
		s0: s0, s1: s1,
		pts:    make([]v3.Vec, len(seed)),
		uv0:    make([]v2.Vec, len(seed)),
		uv1:    make([]v2.Vec, len(seed)),
		budget: budget,
		tol:    tol,
	}
	for i, s := range seed {
		c.pts[i] = s.P
		c.uv0[i] = s.UV0
		c.uv1[i] = s.UV1
	}
	return c, nil
}

// Surfaces returns the two carrier surfaces.
func (c *Intersection) Surfaces() (Surface, Surface) { return c.s0, c.s1 }

// Samples returns a copy of the refined seed samples.
func (c *Intersection) Samples() []IntersectionSample {
	out := make([]IntersectionSample, len(c.pts))
	for i := range c.pts {
		out[i] = IntersectionSample{P: c.pts[i], UV0: c.uv0[i], UV1: c.uv1[i]}
	}
	return out
}

// Closed reports whether the seed wraps onto itself.
func (c *Intersection) Closed() bool {
	return c.pts[0].Sub(c.pts[len(c.pts)-1]).Length() <= c.tol
}

func (c *Intersection) segment(t float64) (int, float64) {
	n := len(c.pts) - 1
	t = c.ParamRange().Clamp(t)
	i := int(math.Floor(t))
	if i >= n {
		i = n - 1
	}
	return i, t - float64(i)
}

func lerp2(a, b v2.Vec, f float64) v2.Vec {
	return a.Add(b.Sub(a).MulScalar(f))
}

func (c *Intersection) at(t float64) (pt v3.Vec, q0, q1 v2.Vec, converged bool) {
	i, f := c.segment(t)
	seed := c.pts[i].Add(c.pts[i+1].Sub(c.pts[i]).MulScalar(f))
	return doubleCorrect(c.s0, c.s1, seed,
		lerp2(c.uv0[i], c.uv0[i+1], f), lerp2(c.uv1[i], c.uv1[i+1], f), c.budget)
}

// Eval evaluates the curve at t and reports whether the Newton correction
// converged. An unconverged result is the best estimate found within the
// budget.
func (c *Intersection) Eval(t float64) (v3.Vec, bool) {
	pt, _, _, ok := c.at(t)
	return pt, ok
}

// Sample evaluates the curve at t together with its parameters on both
// surfaces, refined like Eval.
func (c *Intersection) Sample(t float64) (IntersectionSample, bool) {
	pt, q0, q1, ok := c.at(t)
	return IntersectionSample{P: pt, UV0: q0, UV1: q1}, ok
}

// Subs evaluates the curve at t, keeping the best estimate even when the
// correction budget runs out.
func (c *Intersection) Subs(t float64) v3.Vec {
	pt, _ := c.Eval(t)
	return pt
}

// Der evaluates the first derivative at t. The direction is the normalized
// cross product of the surface normals; the magnitude ties the curve
// parameter to the seed parameter.
func (c *Intersection) Der(t float64) v3.Vec {
	i, _ := c.segment(t)
	ld := c.pts[i+1].Sub(c.pts[i])
	_, q0, q1, _ := c.at(t)
	u, ok := c.tangentDir(q0, q1)
	if !ok {
		return ld
	}
	den := ld.Dot(u)
	if math.Abs(den) < denomEps {
		return ld
	}
	return u.MulScalar(ld.Length2() / den)
}

// Der2 evaluates the second derivative at t, differentiating the tangent
// construction through the surface shape operators.
func (c *Intersection) Der2(t float64) v3.Vec {
	i, _ := c.segment(t)
	ld := c.pts[i+1].Sub(c.pts[i])
	_, q0, q1, _ := c.at(t)
	n0, n1 := c.s0.Normal(q0), c.s1.Normal(q1)
	w := n0.Cross(n1)
	wl := w.Length()
	if wl < denomEps {
		return v3.Vec{}
	}
	u := w.DivScalar(wl)
	den := ld.Dot(u)
	if math.Abs(den) < denomEps {
		return v3.Vec{}
	}
	d := u.MulScalar(ld.Length2() / den)
	n0d, ok0 := normalDeriv(c.s0, q0, d)
	n1d, ok1 := normalDeriv(c.s1, q1, d)
	if !ok0 || !ok1 {
		return v3.Vec{}
	}
	wd := n0d.Cross(n1).Add(n0.Cross(n1d))
	ud := wd.Sub(u.MulScalar(u.Dot(wd))).DivScalar(wl)
	scale := ld.Length2() / den
	scaleD := -ld.Length2() * ld.Dot(ud) / (den * den)
	return ud.MulScalar(scale).Add(u.MulScalar(scaleD))
}

func (c *Intersection) tangentDir(q0, q1 v2.Vec) (v3.Vec, bool) {
	w := c.s0.Normal(q0).Cross(c.s1.Normal(q1))
	wl := w.Length()
	if wl < denomEps {
		return v3.Vec{}, false
	}
	return w.DivScalar(wl), true
}

// ParamRange returns [0, n-1].
func (c *Intersection) ParamRange() Interval {
	return Interval{0, float64(len(c.pts) - 1)}
}

// FrontBack returns the refined seed endpoints.
func (c *Intersection) FrontBack() (v3.Vec, v3.Vec) {
	return c.pts[0], c.pts[len(c.pts)-1]
}

// SearchParameter inverts the curve at pt.
func (c *Intersection) SearchParameter(pt v3.Vec, hint float64, budget int) (float64, bool) {
	return searchCurveExact(c, pt, hint, budget)
}

// SearchNearestParameter finds the parameter nearest to pt.
func (c *Intersection) SearchNearestParameter(pt v3.Vec, hint float64, budget int) (float64, bool) {
	return searchCurveNearest(c, pt, hint, budget)
}

// ParameterDivision returns the seed knots covered by r, with the range
// ends.
func (c *Intersection) ParameterDivision(r Interval, tol float64) []float64 {
	return Polyline{c.pts}.ParameterDivision(r, tol)
}

// Cut splits the curve at t. Cutting at a seed knot shares the knot;
// cutting inside a segment inserts the refined point.
func (c *Intersection) Cut(t float64) (Curve, Curve) {
	i, f := c.segment(t)
	switch {
	case f <= paramEps && i > 0:
		return c.slice(0, i+1), c.slice(i, len(c.pts))
	case f >= 1-paramEps && i+2 < len(c.pts):
		return c.slice(0, i+2), c.slice(i+1, len(c.pts))
	}
	pt, q0, q1, _ := c.at(t)
	front := &Intersection{
		s0: c.s0, s1: c.s1, budget: c.budget, tol: c.tol,
		pts: append(clonePts(c.pts[:i+1]), pt),
		uv0: append(cloneUVs(c.uv0[:i+1]), q0),
		uv1: append(cloneUVs(c.uv1[:i+1]), q1),
	}
	back := &Intersection{
		s0: c.s0, s1: c.s1, budget: c.budget, tol: c.tol,
		pts: append([]v3.Vec{pt}, c.pts[i+1:]...),
		uv0: append([]v2.Vec{q0}, c.uv0[i+1:]...),
		uv1: append([]v2.Vec{q1}, c.uv1[i+1:]...),
	}
	return front, back
}

func (c *Intersection) slice(lo, hi int) *Intersection {
	return &Intersection{
		s0: c.s0, s1: c.s1, budget: c.budget, tol: c.tol,
		pts: clonePts(c.pts[lo:hi]),
		uv0: cloneUVs(c.uv0[lo:hi]),
		uv1: cloneUVs(c.uv1[lo:hi]),
	}
}

// Invert reverses the traversal. The surface pair keeps its order.
func (c *Intersection) Invert() Curve {
	n := len(c.pts)
	inv := &Intersection{
		s0: c.s0, s1: c.s1, budget: c.budget, tol: c.tol,
		pts: make([]v3.Vec, n),
		uv0: make([]v2.Vec, n),
		uv1: make([]v2.Vec, n),
	}
	for i := 0; i < n; i++ {
		inv.pts[i] = c.pts[n-1-i]
		inv.uv0[i] = c.uv0[n-1-i]
		inv.uv1[i] = c.uv1[n-1-i]
	}
	return inv
}

func (*Intersection) isCurve() {}

func cloneUVs(uvs []v2.Vec) []v2.Vec {
	out := make([]v2.Vec, len(uvs))
	copy(out, uvs)
	return out
}
