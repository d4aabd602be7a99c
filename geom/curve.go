package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

const (
	// Tolerance is the geometric coincidence threshold. Two points closer
	// than this are considered the same point; the exact searches use it
	// as their acceptance bound.
	Tolerance = 1e-7

	// Tolerance2 is the squared coincidence threshold.
	Tolerance2 = Tolerance * Tolerance

	// DefaultBudget is the Newton trial budget used when a caller passes a
	// non-positive budget.
	DefaultBudget = 100
)

// NoHint marks a parameter search without a starting guess. Searches seed
// themselves from a coarse scan over the parameter range instead.
var NoHint = math.NaN()

func hasHint(h float64) bool { return !math.IsNaN(h) }

// Curve is a parametric curve in 3-space. The kind set is closed: Line,
// Polyline and Intersection.
type Curve interface {
	// Subs evaluates the curve at parameter t.
	Subs(t float64) v3.Vec
	// Der evaluates the first derivative at t.
	Der(t float64) v3.Vec
	// Der2 evaluates the second derivative at t.
	Der2(t float64) v3.Vec
	// ParamRange returns the parameter range of the curve.
	ParamRange() Interval
	// FrontBack returns the curve's endpoints, Subs at the range ends.
	FrontBack() (v3.Vec, v3.Vec)
	// SearchParameter inverts the curve at pt. It reports failure when pt
	// does not lie on the curve within Tolerance.
	SearchParameter(pt v3.Vec, hint float64, budget int) (float64, bool)
	// SearchNearestParameter finds a parameter minimizing the distance
	// from pt to the curve.
	SearchNearestParameter(pt v3.Vec, hint float64, budget int) (float64, bool)
	// ParameterDivision subdivides r until each cell deviates from its
	// chord by at most tol. The result includes both range ends.
	ParameterDivision(r Interval, tol float64) []float64
	// Cut splits the curve at t into a front and a back piece.
	Cut(t float64) (Curve, Curve)
	// Invert returns the curve traversed in the opposite direction.
	Invert() Curve

	isCurve()
}

// curveFrontBack is the shared FrontBack implementation.
func curveFrontBack(c Curve) (v3.Vec, v3.Vec) {
	r := c.ParamRange()
	return c.Subs(r.Min), c.Subs(r.Max)
}

// searchCurveNearest runs a damped Newton iteration on the stationarity
// condition (C(t)-pt)·C'(t) = 0, clamped to the parameter range. It reports
// whether the iteration converged within budget.
func searchCurveNearest(c Curve, pt v3.Vec, hint float64, budget int) (float64, bool) {
	if budget <= 0 {
		budget = DefaultBudget
	}
	r := c.ParamRange()
	t := hint
	if !hasHint(t) {
		t = scanCurve(c, pt)
	}
	t = r.Clamp(t)
	for i := 0; i < budget; i++ {
		d := c.Subs(t).Sub(pt)
		der := c.Der(t)
		num := d.Dot(der)
		den := der.Length2() + d.Dot(c.Der2(t))
		if math.Abs(den) < denomEps {
			// Stationary derivative; cannot improve the estimate.
			return t, num*num <= Tolerance2*der.Length2()
		}
		step := num / den
		next := r.Clamp(t - step)
		if math.Abs(next-t)*der.Length() <= Tolerance {
			return next, true
		}
		t = next
	}
	return t, false
}

// searchCurveExact is searchCurveNearest plus the on-curve acceptance test.
func searchCurveExact(c Curve, pt v3.Vec, hint float64, budget int) (float64, bool) {
	t, _ := searchCurveNearest(c, pt, hint, budget)
	if c.Subs(t).Sub(pt).Length2() <= Tolerance2 {
		return t, true
	}
	return 0, false
}

// scanCurve seeds a hintless search with the best of a coarse parameter
// sweep.
const scanSamples = 32

func scanCurve(c Curve, pt v3.Vec) float64 {
	r := c.ParamRange()
	best, bestDist := r.Min, math.MaxFloat64
	for i := 0; i <= scanSamples; i++ {
		t := r.Lerp(float64(i) / scanSamples)
		if d := c.Subs(t).Sub(pt).Length2(); d < bestDist {
			best, bestDist = t, d
		}
	}
	return best
}

// adaptiveDivision bisects r until the midpoint of every cell sits within
// tol of the cell's chord.
func adaptiveDivision(eval func(float64) v3.Vec, r Interval, tol float64) []float64 {
	div := []float64{r.Min}
	divideSpan(eval, r.Min, r.Max, tol, maxDivisionDepth, &div)
	return append(div, r.Max)
}

func divideSpan(eval func(float64) v3.Vec, t0, t1, tol float64, depth int, out *[]float64) {
	if depth <= 0 {
		return
	}
	mid := 0.5 * (t0 + t1)
	chord := eval(t0).Add(eval(t1)).MulScalar(0.5)
	if eval(mid).Sub(chord).Length() <= tol {
		return
	}
	divideSpan(eval, t0, mid, tol, depth-1, out)
	*out = append(*out, mid)
	divideSpan(eval, mid, t1, tol, depth-1, out)
}

const maxDivisionDepth = 12

// denomEps guards Newton denominators against exact singularity.
const denomEps = 1e-30
