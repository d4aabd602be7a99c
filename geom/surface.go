package geom

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gogpu/brep/internal/newton"
)

// NoHintUV marks a surface search without a starting guess.
var NoHintUV = v2.Vec{X: math.NaN(), Y: math.NaN()}

func hasHintUV(h v2.Vec) bool { return !math.IsNaN(h.X) && !math.IsNaN(h.Y) }

// Surface is a parametric surface in 3-space. The kind set is closed:
// Plane and Sphere.
type Surface interface {
	// Subs evaluates the surface at (u, v).
	Subs(uv v2.Vec) v3.Vec
	// Normal evaluates the oriented unit normal at (u, v).
	Normal(uv v2.Vec) v3.Vec
	// DerU and DerV evaluate the first partial derivatives.
	DerU(uv v2.Vec) v3.Vec
	DerV(uv v2.Vec) v3.Vec
	// DerUU, DerUV and DerVV evaluate the second partial derivatives.
	DerUU(uv v2.Vec) v3.Vec
	DerUV(uv v2.Vec) v3.Vec
	DerVV(uv v2.Vec) v3.Vec
	// ParamRange returns the canonical (u, v) ranges.
	ParamRange() (Interval, Interval)
	// SearchParameter inverts the surface at pt. It reports failure when
	// pt does not lie on the surface within Tolerance.
	SearchParameter(pt v3.Vec, hint v2.Vec, budget int) (v2.Vec, bool)
	// SearchNearestParameter finds parameters minimizing the distance
	// from pt to the surface.
	SearchNearestParameter(pt v3.Vec, hint v2.Vec, budget int) (v2.Vec, bool)
	// ParameterDivision subdivides the given rectangle per axis until
	// each cell deviates from flat by at most tol.
	ParameterDivision(ur, vr Interval, tol float64) ([]float64, []float64)
	// Invert returns the surface with the opposite orientation.
	Invert() Surface

	isSurface()
}

// orientationSign is +1 when the oriented normal agrees with DerU x DerV
// and -1 when the surface is inverted.
func orientationSign(s Surface, uv v2.Vec) float64 {
	if s.Normal(uv).Dot(s.DerU(uv).Cross(s.DerV(uv))) < 0 {
		return -1
	}
	return 1
}

// tangentCoords decomposes a tangent direction d into a*Su + b*Sv by
// solving the Gram system.
func tangentCoords(s Surface, uv v2.Vec, d v3.Vec) (a, b float64, ok bool) {
	su, sv := s.DerU(uv), s.DerV(uv)
	return newton.Solve2(
		su.Dot(su), su.Dot(sv),
		su.Dot(sv), sv.Dot(sv),
		d.Dot(su), d.Dot(sv),
	)
}

// normalDeriv evaluates the derivative of the oriented unit normal along
// the tangent direction d, via the shape operator.
func normalDeriv(s Surface, uv v2.Vec, d v3.Vec) (v3.Vec, bool) {
	a, b, ok := tangentCoords(s, uv, d)
	if !ok {
		return v3.Vec{}, false
	}
	su, sv := s.DerU(uv), s.DerV(uv)
	suu, suv, svv := s.DerUU(uv), s.DerUV(uv), s.DerVV(uv)
	w := su.Cross(sv)
	wu := suu.Cross(sv).Add(su.Cross(suv))
	wv := suv.Cross(sv).Add(su.Cross(svv))
	wd := wu.MulScalar(a).Add(wv.MulScalar(b))
	wl := w.Length()
	if wl < denomEps {
		return v3.Vec{}, false
	}
	n := w.DivScalar(wl)
	nd := wd.Sub(n.MulScalar(n.Dot(wd))).DivScalar(wl)
	return nd.MulScalar(orientationSign(s, uv)), true
}

// surfaceDivision is the shared per-axis adaptive subdivision. Each axis is
// refined along the iso-line through the middle of the other axis.
func surfaceDivision(s Surface, ur, vr Interval, tol float64) ([]float64, []float64) {
	vm, um := vr.Mid(), ur.Mid()
	uDiv := adaptiveDivision(func(u float64) v3.Vec {
		return s.Subs(v2.Vec{X: u, Y: vm})
	}, ur, tol)
	vDiv := adaptiveDivision(func(v float64) v3.Vec {
		return s.Subs(v2.Vec{X: um, Y: v})
	}, vr, tol)
	return uDiv, vDiv
}
