// Package newton implements the bounded iteration skeletons shared by the
// geometry searches. Every loop in this package runs under an explicit
// trial budget; exhausting the budget degrades to the best estimate seen
// so far instead of failing.
package newton

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// condEps rejects 2x2 systems whose determinant is cancellation noise.
const condEps = 1e-12

// Solve2 solves the system
//
//	a11 x + a12 y = b1
//	a21 x + a22 y = b2
//
// by Cramer's rule. It reports failure when the matrix is singular or too
// ill-conditioned to trust.
func Solve2(a11, a12, a21, a22, b1, b2 float64) (x, y float64, ok bool) {
	det := a11*a22 - a12*a21
	scale := math.Max(math.Abs(a11*a22), math.Abs(a12*a21))
	if det == 0 || math.Abs(det) <= condEps*scale {
		return 0, 0, false
	}
	return (b1*a22 - b2*a12) / det, (a11*b2 - a21*b1) / det, true
}

// Project drives p through step until the correction shrinks below tol or
// the budget runs out. step returns the corrected point; a false flag from
// step aborts the iteration. The returned flag reports convergence, and the
// final estimate is returned either way.
func Project(p v3.Vec, step func(v3.Vec) (v3.Vec, bool), budget int, tol float64) (v3.Vec, bool) {
	for i := 0; i < budget; i++ {
		next, ok := step(p)
		if !ok {
			return p, false
		}
		moved := next.Sub(p).Length()
		p = next
		if moved <= tol {
			return p, true
		}
	}
	return p, false
}
