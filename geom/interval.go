package geom

import "math"

// Interval is a closed parameter range [Min, Max].
type Interval struct {
	Min, Max float64
}

// Span returns the length of the interval.
func (r Interval) Span() float64 { return r.Max - r.Min }

// Mid returns the midpoint of the interval.
func (r Interval) Mid() float64 { return 0.5 * (r.Min + r.Max) }

// Clamp limits t to the interval.
func (r Interval) Clamp(t float64) float64 {
	return math.Min(math.Max(t, r.Min), r.Max)
}

// Contains reports whether t lies in the interval, widened by tol on both
// ends.
func (r Interval) Contains(t, tol float64) bool {
	return t >= r.Min-tol && t <= r.Max+tol
}

// Lerp maps s in [0, 1] onto the interval.
func (r Interval) Lerp(s float64) float64 {
	return r.Min + s*(r.Max-r.Min)
}

// Hull returns the smallest interval covering r and t.
func (r Interval) Hull(t float64) Interval {
	if t < r.Min {
		r.Min = t
	}
	if t > r.Max {
		r.Max = t
	}
	return r
}

// UVRect is a rectangle in a surface's parameter space.
type UVRect struct {
	U, V Interval
}

// Contains reports whether uv lies in the rectangle, widened by tol.
func (r UVRect) Contains(u, v, tol float64) bool {
	return r.U.Contains(u, tol) && r.V.Contains(v, tol)
}

// Inflate grows the rectangle by d on every side.
func (r UVRect) Inflate(d float64) UVRect {
	return UVRect{
		U: Interval{r.U.Min - d, r.U.Max + d},
		V: Interval{r.V.Min - d, r.V.Max + d},
	}
}
