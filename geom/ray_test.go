package geom

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

func TestRaySurface_Plane(t *testing.T) {
	p := xyPlane() // z = 1

	hits := RaySurface(p, v3.Vec{X: 1, Y: 1, Z: -2}, v3.Vec{Z: 1})
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if math.Abs(hits[0].T-3) > epsilon {
		t.Errorf("hit T = %v, want 3", hits[0].T)
	}

	if hits := RaySurface(p, v3.Vec{X: 1, Y: 1, Z: 2}, v3.Vec{Z: 1}); len(hits) != 0 {
		t.Errorf("ray away from plane hit %d times", len(hits))
	}
	if hits := RaySurface(p, v3.Vec{}, v3.Vec{X: 1}); len(hits) != 0 {
		t.Errorf("parallel ray hit %d times", len(hits))
	}
}

func TestRaySurface_Sphere(t *testing.T) {
	s := Sphere{Center: v3.Vec{X: 5}, Radius: 1}

	tests := []struct {
		name   string
		origin v3.Vec
		dir    v3.Vec
		hits   int
	}{
		{"through", v3.Vec{}, v3.Vec{X: 1}, 2},
		{"from inside", v3.Vec{X: 5}, v3.Vec{Y: 1}, 1},
		{"miss", v3.Vec{}, v3.Vec{Y: 1}, 0},
		{"behind", v3.Vec{X: 8}, v3.Vec{X: 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := RaySurface(s, tt.origin, tt.dir)
			if len(hits) != tt.hits {
				t.Fatalf("got %d hits, want %d", len(hits), tt.hits)
			}
			for _, h := range hits {
				p := tt.origin.Add(tt.dir.MulScalar(h.T))
				if math.Abs(p.Sub(s.Center).Length()-s.Radius) > epsilon {
					t.Errorf("hit %v not on the sphere", p)
				}
			}
		})
	}
}
