package geom

import (
	"errors"
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrUnknownKind reports a serialized record whose kind tag is not a
// curve or surface kind of this package.
var ErrUnknownKind = errors.New("geom: unknown record kind")

// CurveRecord is the serialized form of a curve. Intersection curves are
// transient and demote to their refined polyline.
type CurveRecord struct {
	Kind string       `json:"kind"` // "line" or "polyline"
	Pts  [][3]float64 `json:"pts"`
}

// SurfaceRecord is the serialized form of a surface, a tagged union over
// the surface kinds.
type SurfaceRecord struct {
	Kind   string        `json:"kind"` // "plane" or "sphere"
	Plane  *PlaneRecord  `json:"plane,omitempty"`
	Sphere *SphereRecord `json:"sphere,omitempty"`
}

// PlaneRecord carries the plane frame.
type PlaneRecord struct {
	Origin [3]float64 `json:"origin"`
	XAxis  [3]float64 `json:"xAxis"`
	YAxis  [3]float64 `json:"yAxis"`
}

// SphereRecord carries the sphere data.
type SphereRecord struct {
	Center   [3]float64 `json:"center"`
	Radius   float64    `json:"radius"`
	Inverted bool       `json:"inverted,omitempty"`
}

// EncodeCurve converts a curve to its serialized record.
func EncodeCurve(c Curve) CurveRecord {
	switch k := c.(type) {
	case Line:
		return CurveRecord{Kind: "line", Pts: [][3]float64{arr(k.P0), arr(k.P1)}}
	case Polyline:
		return CurveRecord{Kind: "polyline", Pts: arrs(k.Pts)}
	case *Intersection:
		return CurveRecord{Kind: "polyline", Pts: arrs(k.pts)}
	}
	return CurveRecord{}
}

// DecodeCurve rebuilds a curve from its record.
func DecodeCurve(r CurveRecord) (Curve, error) {
	switch r.Kind {
	case "line":
		if len(r.Pts) != 2 {
			return nil, fmt.Errorf("geom: line record needs 2 points, got %d", len(r.Pts))
		}
		return Line{vec(r.Pts[0]), vec(r.Pts[1])}, nil
	case "polyline":
		if len(r.Pts) < 2 {
			return nil, ErrShortSeed
		}
		return Polyline{vecs(r.Pts)}, nil
	}
	return nil, fmt.Errorf("%w: curve %q", ErrUnknownKind, r.Kind)
}

// EncodeSurface converts a surface to its serialized record.
func EncodeSurface(s Surface) SurfaceRecord {
	switch k := s.(type) {
	case Plane:
		return SurfaceRecord{Kind: "plane", Plane: &PlaneRecord{
			Origin: arr(k.Origin), XAxis: arr(k.XAxis), YAxis: arr(k.YAxis),
		}}
	case Sphere:
		return SurfaceRecord{Kind: "sphere", Sphere: &SphereRecord{
			Center: arr(k.Center), Radius: k.Radius, Inverted: k.Inverted,
		}}
	}
	return SurfaceRecord{}
}

// DecodeSurface rebuilds a surface from its record.
func DecodeSurface(r SurfaceRecord) (Surface, error) {
	switch {
	case r.Kind == "plane" && r.Plane != nil:
		return Plane{
			Origin: vec(r.Plane.Origin),
			XAxis:  vec(r.Plane.XAxis),
			YAxis:  vec(r.Plane.YAxis),
		}, nil
	case r.Kind == "sphere" && r.Sphere != nil:
		return Sphere{
			Center:   vec(r.Sphere.Center),
			Radius:   r.Sphere.Radius,
			Inverted: r.Sphere.Inverted,
		}, nil
	}
	return nil, fmt.Errorf("%w: surface %q", ErrUnknownKind, r.Kind)
}

func arr(p v3.Vec) [3]float64 { return [3]float64{p.X, p.Y, p.Z} }

func vec(a [3]float64) v3.Vec { return v3.Vec{X: a[0], Y: a[1], Z: a[2]} }

func arrs(pts []v3.Vec) [][3]float64 {
	out := make([][3]float64, len(pts))
	for i, p := range pts {
		out[i] = arr(p)
	}
	return out
}

func vecs(as [][3]float64) []v3.Vec {
	out := make([]v3.Vec, len(as))
	for i, a := range as {
		out[i] = vec(a)
	}
	return out
}
