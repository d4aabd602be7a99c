package brep

import (
	"testing"

	"github.com/gogpu/brep/geom"
)

func TestResolveOptions_Defaults(t *testing.T) {
	o := resolveOptions(nil)
	if o.tol != geom.Tolerance {
		t.Errorf("tol = %v, want %v", o.tol, geom.Tolerance)
	}
	if o.budget != geom.DefaultBudget {
		t.Errorf("budget = %v, want %v", o.budget, geom.DefaultBudget)
	}
	if o.workers != 1 {
		t.Errorf("workers = %v, want 1", o.workers)
	}
	if o.snapdir != "" {
		t.Errorf("snapdir = %q, want empty", o.snapdir)
	}
}

func TestResolveOptions_Override(t *testing.T) {
	o := resolveOptions([]Option{
		WithTolerance(1e-5),
		WithBudget(25),
		WithParallelism(8),
		WithSnapshotDir("/tmp/uv"),
	})
	if o.tol != 1e-5 || o.budget != 25 || o.workers != 8 || o.snapdir != "/tmp/uv" {
		t.Errorf("resolved = %+v", o)
	}
}

func TestResolveOptions_RejectsNonPositive(t *testing.T) {
	o := resolveOptions([]Option{
		WithTolerance(-1),
		WithBudget(0),
		WithParallelism(-3),
	})
	if o.tol != geom.Tolerance || o.budget != geom.DefaultBudget || o.workers != 1 {
		t.Errorf("resolved = %+v, want defaults kept", o)
	}
}
