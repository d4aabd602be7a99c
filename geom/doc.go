// Package geom provides the geometric carriers behind the topology kernel:
// parametric curves, parametric surfaces, the Newton searches that invert
// them, and the surface/surface intersection engine.
//
// # Curves and surfaces
//
// [Curve] and [Surface] are closed interfaces. The concrete curve kinds are
// [Line], [Polyline] and [Intersection]; the concrete surface kinds are
// [Plane] and [Sphere]. All kinds are immutable values: operations such as
// [Curve.Cut] and [Curve.Invert] return fresh curves and never alias the
// receiver's backing storage.
//
// A curve maps a scalar parameter to a point in 3-space; a surface maps a
// (u, v) pair. Both expose first and second derivatives, which is what the
// Newton machinery runs on. Derivatives of the intersection kind are exact,
// derived from the surface shape operators rather than finite differences.
//
// # Searches
//
// The parameter searches come in two strengths. SearchNearestParameter
// projects a point onto the carrier and always produces a parameter;
// SearchParameter additionally demands that the projected image coincide
// with the query point within [Tolerance], reporting failure otherwise.
// Both run the same damped Newton iteration under an explicit trial budget
// and never loop unboundedly.
//
// # Intersection
//
// [IntersectSurfaces] samples two surfaces over given parameter rectangles,
// traces the zero set of their signed gap, and returns the transversal
// intersection as a list of [Intersection] curves. Coincident overlaps are
// reported separately; tangential contact yields no curves.
package geom
