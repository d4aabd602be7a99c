package geom

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

const epsilon = 1e-9

func vecEqual(a, b v3.Vec, eps float64) bool {
	return a.Sub(b).Length() < eps
}

// numDer estimates a derivative by central differences.
func numDer(f func(float64) v3.Vec, t, h float64) v3.Vec {
	return f(t + h).Sub(f(t - h)).DivScalar(2 * h)
}

// -------------------------------------------------------------------
// Line Tests
// -------------------------------------------------------------------

func TestLine_Subs(t *testing.T) {
	l := Line{v3.Vec{X: 1, Y: 2, Z: 3}, v3.Vec{X: 3, Y: 2, Z: 1}}

	tests := []struct {
		name   string
		t      float64
		expect v3.Vec
	}{
		{"front", 0, v3.Vec{X: 1, Y: 2, Z: 3}},
		{"back", 1, v3.Vec{X: 3, Y: 2, Z: 1}},
		{"mid", 0.5, v3.Vec{X: 2, Y: 2, Z: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.Subs(tt.t); !vecEqual(got, tt.expect, epsilon) {
				t.Errorf("Subs(%v) = %v, want %v", tt.t, got, tt.expect)
			}
		})
	}
}

func TestLine_Search(t *testing.T) {
	l := Line{v3.Vec{}, v3.Vec{X: 4, Y: 0, Z: 0}}

	tt, ok := l.SearchParameter(v3.Vec{X: 1, Y: 0, Z: 0}, NoHint, 0)
	if !ok || math.Abs(tt-0.25) > epsilon {
		t.Fatalf("SearchParameter on curve = (%v, %v), want (0.25, true)", tt, ok)
	}

	if _, ok := l.SearchParameter(v3.Vec{X: 1, Y: 1, Z: 0}, NoHint, 0); ok {
		t.Error("SearchParameter off curve reported ok")
	}

	nt, ok := l.SearchNearestParameter(v3.Vec{X: 1, Y: 1, Z: 0}, NoHint, 0)
	if !ok || math.Abs(nt-0.25) > epsilon {
		t.Errorf("SearchNearestParameter = (%v, %v), want (0.25, true)", nt, ok)
	}

	// Nearest clamps beyond the ends.
	ct, _ := l.SearchNearestParameter(v3.Vec{X: 9, Y: 0, Z: 0}, NoHint, 0)
	if ct != 1 {
		t.Errorf("clamped nearest = %v, want 1", ct)
	}
}

func TestLine_CutInvert(t *testing.T) {
	l := Line{v3.Vec{}, v3.Vec{X: 2, Y: 0, Z: 0}}
	front, back := l.Cut(0.25)

	ff, fb := front.FrontBack()
	bf, bb := back.FrontBack()
	mid := v3.Vec{X: 0.5, Y: 0, Z: 0}
	if !vecEqual(ff, v3.Vec{}, epsilon) || !vecEqual(fb, mid, epsilon) {
		t.Errorf("front piece = %v..%v", ff, fb)
	}
	if !vecEqual(bf, mid, epsilon) || !vecEqual(bb, v3.Vec{X: 2, Y: 0, Z: 0}, epsilon) {
		t.Errorf("back piece = %v..%v", bf, bb)
	}

	inv := l.Invert()
	if !vecEqual(inv.Subs(0), l.Subs(1), epsilon) || !vecEqual(inv.Subs(1), l.Subs(0), epsilon) {
		t.Error("Invert did not swap the ends")
	}
}

// -------------------------------------------------------------------
// Polyline Tests
// -------------------------------------------------------------------

func zigzag() Polyline {
	return Polyline{[]v3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 1, Z: 0},
		{X: 2, Y: 0, Z: 0},
		{X: 3, Y: 1, Z: 0},
	}}
}

func TestPolyline_Subs(t *testing.T) {
	p := zigzag()

	tests := []struct {
		name   string
		t      float64
		expect v3.Vec
	}{
		{"front", 0, v3.Vec{X: 0, Y: 0, Z: 0}},
		{"knot", 1, v3.Vec{X: 1, Y: 1, Z: 0}},
		{"interior", 1.5, v3.Vec{X: 1.5, Y: 0.5, Z: 0}},
		{"back", 3, v3.Vec{X: 3, Y: 1, Z: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Subs(tt.t); !vecEqual(got, tt.expect, epsilon) {
				t.Errorf("Subs(%v) = %v, want %v", tt.t, got, tt.expect)
			}
		})
	}
}

func TestPolyline_Der(t *testing.T) {
	p := zigzag()
	want := v3.Vec{X: 1, Y: -1, Z: 0}
	if got := p.Der(1.5); !vecEqual(got, want, epsilon) {
		t.Errorf("Der(1.5) = %v, want %v", got, want)
	}
}

func TestPolyline_Search(t *testing.T) {
	p := zigzag()

	tt, ok := p.SearchParameter(v3.Vec{X: 1.5, Y: 0.5, Z: 0}, NoHint, 0)
	if !ok || math.Abs(tt-1.5) > epsilon {
		t.Fatalf("SearchParameter = (%v, %v), want (1.5, true)", tt, ok)
	}

	if _, ok := p.SearchParameter(v3.Vec{X: 1.5, Y: 0.8, Z: 0}, NoHint, 0); ok {
		t.Error("SearchParameter off polyline reported ok")
	}
}

func TestPolyline_ParameterDivision(t *testing.T) {
	p := zigzag()
	div := p.ParameterDivision(Interval{0.5, 2.5}, 0.1)
	want := []float64{0.5, 1, 2, 2.5}
	if len(div) != len(want) {
		t.Fatalf("division = %v, want %v", div, want)
	}
	for i := range want {
		if math.Abs(div[i]-want[i]) > epsilon {
			t.Errorf("division[%d] = %v, want %v", i, div[i], want[i])
		}
	}
}

func TestPolyline_Cut(t *testing.T) {
	p := zigzag()

	t.Run("interior", func(t *testing.T) {
		front, back := p.Cut(1.5)
		_, fb := front.FrontBack()
		bf, _ := back.FrontBack()
		at := v3.Vec{X: 1.5, Y: 0.5, Z: 0}
		if !vecEqual(fb, at, epsilon) || !vecEqual(bf, at, epsilon) {
			t.Errorf("cut ends = %v / %v, want %v", fb, bf, at)
		}
	})

	t.Run("knot", func(t *testing.T) {
		front, back := p.Cut(2)
		fr := front.ParamRange()
		br := back.ParamRange()
		if fr.Span() != 2 || br.Span() != 1 {
			t.Errorf("piece spans = %v, %v, want 2, 1", fr.Span(), br.Span())
		}
	})
}

func TestPolyline_Invert(t *testing.T) {
	p := zigzag()
	inv := p.Invert()
	r := p.ParamRange()
	for _, tt := range []float64{0, 0.7, 1.5, 3} {
		if !vecEqual(inv.Subs(r.Max-tt), p.Subs(tt), epsilon) {
			t.Errorf("Invert mismatch at t=%v", tt)
		}
	}
}
