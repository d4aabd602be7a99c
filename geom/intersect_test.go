package geom

import (
	"math"
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func unitRect() UVRect {
	return UVRect{U: Interval{0, 1}, V: Interval{0, 1}}
}

func sphereRect() UVRect {
	return UVRect{U: Interval{0, math.Pi}, V: Interval{0, 2 * math.Pi}}
}

// onSurface reports the distance from pt to its projection on s.
func onSurface(s Surface, pt v3.Vec) float64 {
	uv, ok := s.SearchNearestParameter(pt, NoHintUV, 0)
	if !ok {
		return math.MaxFloat64
	}
	return s.Subs(uv).Sub(pt).Length()
}

// -------------------------------------------------------------------
// Plane/Plane Tests
// -------------------------------------------------------------------

func TestIntersectSurfaces_PlanePlane(t *testing.T) {
	// z=0 over [0,2]^2 against the x=1 plane: the line x=1, z=0.
	s0 := Plane{Origin: v3.Vec{}, XAxis: v3.Vec{X: 2}, YAxis: v3.Vec{Y: 2}}
	s1 := Plane{Origin: v3.Vec{X: 1, Y: -1, Z: -1}, XAxis: v3.Vec{Y: 2}, YAxis: v3.Vec{Z: 2}}

	curves, coincident := IntersectSurfaces(s0, s1, unitRect(), unitRect(), 1e-7, 0)
	if coincident {
		t.Fatal("transversal planes reported coincident")
	}
	if len(curves) != 1 {
		t.Fatalf("got %d curves, want 1", len(curves))
	}

	c := curves[0]
	r := c.ParamRange()
	for i := 0; i <= 8; i++ {
		p := c.Subs(r.Lerp(float64(i) / 8))
		if math.Abs(p.X-1) > 1e-6 || math.Abs(p.Z) > 1e-6 {
			t.Fatalf("curve point %v off the line x=1, z=0", p)
		}
	}

	// n0 x n1 = +z x +x = +y.
	der := c.Der(r.Mid())
	if der.Y <= 0 || math.Abs(der.X) > 1e-6*math.Abs(der.Y) {
		t.Errorf("curve not oriented along +y: der = %v", der)
	}
	if d2 := c.Der2(r.Mid()); d2.Length() > 1e-6 {
		t.Errorf("line intersection has curvature %v", d2)
	}
}

func TestIntersectSurfaces_CoincidentPlanes(t *testing.T) {
	s0 := Plane{Origin: v3.Vec{}, XAxis: v3.Vec{X: 2}, YAxis: v3.Vec{Y: 2}}
	s1 := Plane{Origin: v3.Vec{X: -1, Y: -1}, XAxis: v3.Vec{X: 4}, YAxis: v3.Vec{Y: 4}}

	curves, coincident := IntersectSurfaces(s0, s1, unitRect(), unitRect(), 1e-7, 0)
	if !coincident {
		t.Fatal("coplanar patches not reported coincident")
	}
	if len(curves) != 0 {
		t.Errorf("coincident patches yielded %d curves", len(curves))
	}
}

func TestIntersectSurfaces_Disjoint(t *testing.T) {
	s0 := Plane{Origin: v3.Vec{}, XAxis: v3.Vec{X: 2}, YAxis: v3.Vec{Y: 2}}
	s1 := Sphere{Center: v3.Vec{Z: 3}, Radius: 1}

	curves, coincident := IntersectSurfaces(s0, s1, unitRect(), sphereRect(), 1e-7, 0)
	if coincident || len(curves) != 0 {
		t.Errorf("disjoint surfaces: curves=%d coincident=%v", len(curves), coincident)
	}
}

// -------------------------------------------------------------------
// Plane/Sphere Tests
// -------------------------------------------------------------------

func TestIntersectSurfaces_PlaneSphere(t *testing.T) {
	// z=0 over [-2,2]^2 against a sphere poking through: the circle of
	// radius sqrt(3)/2 around the origin.
	s0 := Plane{
		Origin: v3.Vec{X: -2, Y: -2},
		XAxis:  v3.Vec{X: 4},
		YAxis:  v3.Vec{Y: 4},
	}
	s1 := Sphere{Center: v3.Vec{Z: 0.5}, Radius: 1}

	curves, coincident := IntersectSurfaces(s0, s1, unitRect(), sphereRect(), 1e-7, 0)
	if coincident {
		t.Fatal("reported coincident")
	}
	if len(curves) != 1 {
		t.Fatalf("got %d curves, want 1", len(curves))
	}

	c := curves[0]
	if !c.Closed() {
		t.Error("circle intersection is not closed")
	}
	want := math.Sqrt(0.75)
	r := c.ParamRange()
	for i := 0; i <= 16; i++ {
		p := c.Subs(r.Lerp(float64(i) / 16))
		radius := math.Hypot(p.X, p.Y)
		if math.Abs(p.Z) > 1e-6 || math.Abs(radius-want) > 1e-6 {
			t.Fatalf("point %v off the circle (radius %v, want %v)", p, radius, want)
		}
	}
}

// -------------------------------------------------------------------
// Sphere/Sphere Tests
// -------------------------------------------------------------------

func TestIntersectSurfaces_SphereSphere(t *testing.T) {
	// Unit spheres 1.5 apart: the circle x=0.75 of radius sqrt(0.4375).
	s0 := Sphere{Center: v3.Vec{}, Radius: 1}
	s1 := Sphere{Center: v3.Vec{X: 1.5}, Radius: 1}

	curves, coincident := IntersectSurfaces(s0, s1, sphereRect(), sphereRect(), 1e-7, 0)
	if coincident {
		t.Fatal("reported coincident")
	}
	if len(curves) == 0 {
		t.Fatal("no intersection curves found")
	}

	for ci, c := range curves {
		r := c.ParamRange()
		for i := 0; i <= 12; i++ {
			tt := r.Lerp(float64(i) / 12)
			p, converged := c.Eval(tt)
			if !converged {
				t.Fatalf("curve %d: correction did not converge at t=%v", ci, tt)
			}
			if d := onSurface(s0, p); d > 1e-6 {
				t.Fatalf("curve %d: point %v is %v off sphere 0", ci, p, d)
			}
			if d := onSurface(s1, p); d > 1e-6 {
				t.Fatalf("curve %d: point %v is %v off sphere 1", ci, p, d)
			}
			if math.Abs(p.X-0.75) > 1e-6 {
				t.Fatalf("curve %d: point %v off the plane x=0.75", ci, p)
			}
		}
	}
}

func TestIntersection_SearchRoundTrip(t *testing.T) {
	s0 := Sphere{Center: v3.Vec{}, Radius: 1}
	s1 := Sphere{Center: v3.Vec{X: 1.5}, Radius: 1}

	curves, _ := IntersectSurfaces(s0, s1, sphereRect(), sphereRect(), 1e-7, 0)
	if len(curves) == 0 {
		t.Fatal("no curves")
	}
	c := curves[0]
	r := c.ParamRange()

	for i := 1; i < 8; i++ {
		want := r.Lerp(float64(i) / 8)
		p := c.Subs(want)
		got, ok := c.SearchParameter(p, want+0.1, 0)
		if !ok {
			t.Fatalf("SearchParameter failed at t=%v", want)
		}
		if c.Subs(got).Sub(p).Length() > 1e-6 {
			t.Errorf("round trip at t=%v landed %v away", want, c.Subs(got).Sub(p).Length())
		}
	}
}

func TestIntersection_DerOrthogonality(t *testing.T) {
	s0 := Sphere{Center: v3.Vec{}, Radius: 1}
	s1 := Sphere{Center: v3.Vec{X: 1.5}, Radius: 1}

	curves, _ := IntersectSurfaces(s0, s1, sphereRect(), sphereRect(), 1e-7, 0)
	if len(curves) == 0 {
		t.Fatal("no curves")
	}
	c := curves[0]
	r := c.ParamRange()

	for i := 1; i < 6; i++ {
		tt := r.Lerp(float64(i) / 6)
		p := c.Subs(tt)
		der := c.Der(tt).Normalize()
		n0 := p.Sub(s0.Center).Normalize()
		n1 := p.Sub(s1.Center).Normalize()
		if math.Abs(der.Dot(n0)) > 1e-5 || math.Abs(der.Dot(n1)) > 1e-5 {
			t.Errorf("tangent at t=%v not orthogonal to the normals", tt)
		}
	}
}

func TestIntersection_CutInvert(t *testing.T) {
	s0 := Plane{Origin: v3.Vec{}, XAxis: v3.Vec{X: 2}, YAxis: v3.Vec{Y: 2}}
	s1 := Plane{Origin: v3.Vec{X: 1, Y: -1, Z: -1}, XAxis: v3.Vec{Y: 2}, YAxis: v3.Vec{Z: 2}}

	curves, _ := IntersectSurfaces(s0, s1, unitRect(), unitRect(), 1e-7, 0)
	if len(curves) != 1 {
		t.Fatalf("got %d curves, want 1", len(curves))
	}
	c := curves[0]
	mid := c.ParamRange().Mid()

	front, back := c.Cut(mid)
	_, fb := front.FrontBack()
	bf, _ := back.FrontBack()
	if !vecEqual(fb, c.Subs(mid), 1e-6) || !vecEqual(bf, c.Subs(mid), 1e-6) {
		t.Error("cut pieces do not meet at the cut point")
	}

	inv := c.Invert()
	rc, ri := c.ParamRange(), inv.ParamRange()
	if !vecEqual(inv.Subs(ri.Min), c.Subs(rc.Max), 1e-9) {
		t.Error("Invert did not reverse the ends")
	}
}

// -------------------------------------------------------------------
// Double correction Tests
// -------------------------------------------------------------------

func TestDoubleCorrect(t *testing.T) {
	s0 := Sphere{Center: v3.Vec{}, Radius: 1}
	s1 := Sphere{Center: v3.Vec{X: 1.5}, Radius: 1}

	// Start well off the intersection circle.
	seed := v3.Vec{X: 0.8, Y: 0.7, Z: 0.1}
	h0 := v2.Vec{X: math.Pi / 2, Y: 0.5}
	h1 := v2.Vec{X: math.Pi / 2, Y: math.Pi - 0.5}

	pt, _, _, ok := doubleCorrect(s0, s1, seed, h0, h1, 0)
	if !ok {
		t.Fatal("correction did not converge")
	}
	if d := onSurface(s0, pt); d > 1e-7 {
		t.Errorf("refined point %v off sphere 0 by %v", pt, d)
	}
	if d := onSurface(s1, pt); d > 1e-7 {
		t.Errorf("refined point %v off sphere 1 by %v", pt, d)
	}
}

func TestDoubleCorrect_Tangential(t *testing.T) {
	// Spheres touching at a single point have parallel normals there.
	s0 := Sphere{Center: v3.Vec{}, Radius: 1}
	s1 := Sphere{Center: v3.Vec{X: 2}, Radius: 1}

	seed := v3.Vec{X: 1, Y: 0, Z: 0}
	h0 := v2.Vec{X: math.Pi / 2, Y: 0}
	h1 := v2.Vec{X: math.Pi / 2, Y: math.Pi}

	if _, _, _, ok := doubleCorrect(s0, s1, seed, h0, h1, 0); ok {
		t.Error("tangential contact reported as converged")
	}
}
