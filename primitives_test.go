package brep

import (
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gogpu/brep/topo"
)

func TestBox(t *testing.T) {
	a := topo.NewArena(0)
	s, err := Box(a, v3.Vec{}, v3.Vec{X: 2, Y: 1, Z: 0.5})
	if err != nil {
		t.Fatalf("Box: %v", err)
	}
	if len(s.Shells) != 1 || len(s.Shells[0].Faces) != 6 {
		t.Fatalf("box has %d shells, %d faces", len(s.Shells), len(s.Shells[0].Faces))
	}
	if c := a.SolidCondition(s); c != topo.Closed {
		t.Fatalf("box condition = %v", c)
	}
	if vol := solidVolume(a, s); !near(vol, 1.0, 1e-9) {
		t.Errorf("box volume = %v, want 1", vol)
	}
	for _, f := range s.Shells[0].Faces {
		if !a.Orientation(f) {
			t.Errorf("face %d not on the outward side", f)
		}
	}
}

func TestBox_BadCorners(t *testing.T) {
	a := topo.NewArena(0)
	if _, err := Box(a, v3.Vec{X: 1}, v3.Vec{X: 1, Y: 1, Z: 1}); err == nil {
		t.Fatal("degenerate box accepted")
	}
}

func TestSphereSolid(t *testing.T) {
	a := topo.NewArena(0)
	s, err := SphereSolid(a, v3.Vec{X: 1, Y: 2, Z: 3}, 0.5)
	if err != nil {
		t.Fatalf("SphereSolid: %v", err)
	}
	if len(s.Shells) != 1 || len(s.Shells[0].Faces) != 1 {
		t.Fatalf("sphere has %d shells, %d faces", len(s.Shells), len(s.Shells[0].Faces))
	}
	f := s.Shells[0].Faces[0]
	if len(a.Wires(f)) != 0 {
		t.Errorf("sphere face carries %d boundary wires", len(a.Wires(f)))
	}
	if c := a.SolidCondition(s); c != topo.Closed {
		t.Errorf("sphere condition = %v", c)
	}
}

func TestSphereSolid_BadRadius(t *testing.T) {
	a := topo.NewArena(0)
	if _, err := SphereSolid(a, v3.Vec{}, 0); err == nil {
		t.Fatal("zero radius accepted")
	}
}
