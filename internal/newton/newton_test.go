package newton

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

func TestSolve2(t *testing.T) {
	tests := []struct {
		name               string
		a11, a12, a21, a22 float64
		b1, b2             float64
		wantX, wantY       float64
		wantOK             bool
	}{
		{"identity", 1, 0, 0, 1, 3, -2, 3, -2, true},
		{"general", 2, 1, 1, 3, 5, 10, 1, 3, true},
		{"singular", 1, 2, 2, 4, 1, 2, 0, 0, false},
		{"zero", 0, 0, 0, 0, 0, 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, ok := Solve2(tt.a11, tt.a12, tt.a21, tt.a22, tt.b1, tt.b2)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if math.Abs(x-tt.wantX) > 1e-12 || math.Abs(y-tt.wantY) > 1e-12 {
				t.Errorf("solution = (%v, %v), want (%v, %v)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestProject_Converges(t *testing.T) {
	// Halving the distance to a target converges geometrically.
	target := v3.Vec{X: 1, Y: 2, Z: 3}
	step := func(p v3.Vec) (v3.Vec, bool) {
		return p.Add(target.Sub(p).MulScalar(0.5)), true
	}

	got, ok := Project(v3.Vec{}, step, 100, 1e-9)
	if !ok {
		t.Fatal("projection did not converge")
	}
	if got.Sub(target).Length() > 1e-8 {
		t.Errorf("converged to %v, want %v", got, target)
	}
}

func TestProject_BudgetExhausted(t *testing.T) {
	// A constant-size step never converges; the best estimate comes back
	// with a false flag.
	step := func(p v3.Vec) (v3.Vec, bool) {
		return p.Add(v3.Vec{X: 1}), true
	}

	got, ok := Project(v3.Vec{}, step, 5, 1e-9)
	if ok {
		t.Fatal("diverging projection reported converged")
	}
	if got.X != 5 {
		t.Errorf("estimate = %v, want X=5 after 5 trials", got)
	}
}

func TestProject_Aborts(t *testing.T) {
	step := func(p v3.Vec) (v3.Vec, bool) { return p, false }
	got, ok := Project(v3.Vec{X: 7}, step, 10, 1e-9)
	if ok || got.X != 7 {
		t.Errorf("aborted projection = (%v, %v), want original point and false", got, ok)
	}
}
