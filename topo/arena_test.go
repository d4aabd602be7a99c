package topo

import (
	"errors"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gogpu/brep/geom"
)

func pt(x, y, z float64) v3.Vec { return v3.Vec{X: x, Y: y, Z: z} }

func zPlane() geom.Plane {
	return geom.Plane{Origin: pt(0, 0, 0), XAxis: pt(1, 0, 0), YAxis: pt(0, 1, 0)}
}

// squareWire builds the unit square at z=0 from fresh vertices and line
// edges, returning the corners and the wire a->b->c->d->a.
func squareWire(t *testing.T, a *Arena) ([4]VertexID, Wire) {
	t.Helper()
	pts := [4]v3.Vec{pt(0, 0, 0), pt(1, 0, 0), pt(1, 1, 0), pt(0, 1, 0)}
	var vs [4]VertexID
	for i, p := range pts {
		vs[i] = a.NewVertex(p)
	}
	w := make(Wire, 0, 4)
	for i := range pts {
		e, err := a.NewEdge(vs[i], vs[(i+1)%4], geom.Line{P0: pts[i], P1: pts[(i+1)%4]})
		if err != nil {
			t.Fatalf("edge %d: %v", i, err)
		}
		w = append(w, e)
	}
	return vs, w
}

// assertChained checks that consecutive wire edges share a vertex and the
// wire closes on itself.
func assertChained(t *testing.T, a *Arena, w Wire) {
	t.Helper()
	for i, e := range w {
		next := w[(i+1)%len(w)]
		if a.Back(e) != a.Front(next) {
			t.Fatalf("wire broken after edge %d: back %d, next front %d", i, a.Back(e), a.Front(next))
		}
	}
}

func TestArena_Vertices(t *testing.T) {
	a := NewArena(0)
	if a.Tolerance() != geom.Tolerance {
		t.Fatalf("default tolerance = %v", a.Tolerance())
	}
	v := a.NewVertex(pt(1, 2, 3))
	if !a.HasVertex(v) {
		t.Fatal("vertex not registered")
	}
	if got := a.Point(v); got != pt(1, 2, 3) {
		t.Fatalf("Point = %v", got)
	}
	if err := a.MoveVertex(v, pt(4, 5, 6)); err != nil {
		t.Fatalf("MoveVertex: %v", err)
	}
	if got := a.Point(v); got != pt(4, 5, 6) {
		t.Fatalf("Point after move = %v", got)
	}
	if err := a.MoveVertex(v+100, pt(0, 0, 0)); !errors.Is(err, ErrUnknownVertex) {
		t.Fatalf("MoveVertex unknown: %v", err)
	}
}

func TestNewEdge(t *testing.T) {
	a := NewArena(0)
	va := a.NewVertex(pt(0, 0, 0))
	vb := a.NewVertex(pt(1, 0, 0))
	line := geom.Line{P0: pt(0, 0, 0), P1: pt(1, 0, 0)}

	e, err := a.NewEdge(va, vb, line)
	if err != nil {
		t.Fatalf("NewEdge: %v", err)
	}
	if !e.Forward {
		t.Fatal("new edge should traverse forward")
	}
	if a.Front(e) != va || a.Back(e) != vb {
		t.Fatalf("ends = %d -> %d", a.Front(e), a.Back(e))
	}
	inv := e.Inverse()
	if a.Front(inv) != vb || a.Back(inv) != va {
		t.Fatal("inverse ends not swapped")
	}
	if !e.Same(inv) {
		t.Fatal("inverse should keep identity")
	}
	cf, _ := a.Curve(inv).FrontBack()
	if cf.Sub(pt(1, 0, 0)).Length() > 1e-12 {
		t.Fatalf("inverse curve front = %v", cf)
	}

	if _, err := a.NewEdge(va+100, vb, line); !errors.Is(err, ErrUnknownVertex) {
		t.Fatalf("unknown front: %v", err)
	}
	if _, err := a.NewEdge(va, vb, geom.Line{P0: pt(0, 0, 0), P1: pt(2, 0, 0)}); !errors.Is(err, ErrEndpointMismatch) {
		t.Fatalf("mismatched curve: %v", err)
	}
}

func TestNewFace(t *testing.T) {
	a := NewArena(0)
	_, w := squareWire(t, a)

	f, err := a.NewFace(zPlane(), true, w)
	if err != nil {
		t.Fatalf("NewFace: %v", err)
	}
	if !a.HasFace(f) || !a.Orientation(f) {
		t.Fatal("face not stored as oriented")
	}

	ws := a.Wires(f)
	if len(ws) != 1 || len(ws[0]) != 4 {
		t.Fatalf("Wires = %v", ws)
	}
	// Stored wires are copies, detached from the caller's slice.
	w[0] = Edge{}
	if a.Wires(f)[0][0].ID == 0 {
		t.Fatal("stored wire aliased caller slice")
	}

	// Boundaries reverse the wire when the face uses the opposite side.
	g, err := a.NewFace(zPlane(), false, a.Wires(f)[0])
	if err != nil {
		t.Fatalf("NewFace opposite: %v", err)
	}
	fw, gw := a.Boundaries(f)[0], a.Boundaries(g)[0]
	for i := range fw {
		mirror := gw[len(gw)-1-i]
		if fw[i].ID != mirror.ID || fw[i].Forward == mirror.Forward {
			t.Fatalf("boundary %d not reversed: %+v vs %+v", i, fw[i], mirror)
		}
	}
	assertChained(t, a, gw)
}

func TestNewFace_Validation(t *testing.T) {
	a := NewArena(0)
	_, w := squareWire(t, a)

	if _, err := a.NewFace(zPlane(), true, Wire{}); !errors.Is(err, ErrEmptyWire) {
		t.Fatalf("empty wire: %v", err)
	}
	bogus := Wire{{ID: 9999, Forward: true}}
	if _, err := a.NewFace(zPlane(), true, bogus); !errors.Is(err, ErrUnknownEdge) {
		t.Fatalf("unknown edge: %v", err)
	}
	if _, err := a.NewFace(zPlane(), true, w[:3]); !errors.Is(err, ErrWireNotClosed) {
		t.Fatalf("open wire: %v", err)
	}
	flipped := w.Clone()
	flipped[1] = flipped[1].Inverse()
	if _, err := a.NewFace(zPlane(), true, flipped); !errors.Is(err, ErrWireNotClosed) {
		t.Fatalf("misdirected wire: %v", err)
	}

	// A figure eight chains and closes but pinches at the shared vertex.
	o := a.NewVertex(pt(0, 0, 0))
	lobes := []v3.Vec{pt(1, 0, 0), pt(1, 1, 0), pt(-1, 0, 0), pt(-1, -1, 0)}
	var vs [4]VertexID
	for i, p := range lobes {
		vs[i] = a.NewVertex(p)
	}
	seg := func(f, b VertexID) Edge {
		e, err := a.NewEdge(f, b, geom.Line{P0: a.Point(f), P1: a.Point(b)})
		if err != nil {
			t.Fatalf("edge: %v", err)
		}
		return e
	}
	eight := Wire{
		seg(o, vs[0]), seg(vs[0], vs[1]), seg(vs[1], o),
		seg(o, vs[2]), seg(vs[2], vs[3]), seg(vs[3], o),
	}
	if _, err := a.NewFace(zPlane(), true, eight); !errors.Is(err, ErrWireNotSimple) {
		t.Fatalf("pinched wire: %v", err)
	}
}

func TestSplitEdge(t *testing.T) {
	a := NewArena(0)
	_, w := squareWire(t, a)
	f1, err := a.NewFace(zPlane(), true, w)
	if err != nil {
		t.Fatalf("face 1: %v", err)
	}
	f2, err := a.NewFace(zPlane(), true, w.Inverse())
	if err != nil {
		t.Fatalf("face 2: %v", err)
	}

	target := w[0] // bottom edge (0,0,0)-(1,0,0)
	mid := pt(0.5, 0, 0)
	v, pieces, err := a.SplitEdge(target.ID, mid)
	if err != nil {
		t.Fatalf("SplitEdge: %v", err)
	}
	if a.Point(v) != mid {
		t.Fatalf("split vertex at %v", a.Point(v))
	}
	if a.HasEdge(target.ID) {
		t.Fatal("split edge still present")
	}

	w1 := a.Wires(f1)[0]
	if len(w1) != 5 {
		t.Fatalf("forward wire length = %d", len(w1))
	}
	if w1[0].ID != pieces[0] || !w1[0].Forward || w1[1].ID != pieces[1] || !w1[1].Forward {
		t.Fatalf("forward splice = %+v %+v", w1[0], w1[1])
	}
	assertChained(t, a, w1)

	w2 := a.Wires(f2)[0]
	if len(w2) != 5 {
		t.Fatalf("reverse wire length = %d", len(w2))
	}
	if w2[3].ID != pieces[1] || w2[3].Forward || w2[4].ID != pieces[0] || w2[4].Forward {
		t.Fatalf("reverse splice = %+v %+v", w2[3], w2[4])
	}
	assertChained(t, a, w2)
}

func TestSplitEdge_Validation(t *testing.T) {
	a := NewArena(0)
	_, w := squareWire(t, a)

	if _, _, err := a.SplitEdge(9999, pt(0.5, 0, 0)); !errors.Is(err, ErrUnknownEdge) {
		t.Fatalf("unknown edge: %v", err)
	}
	if _, _, err := a.SplitEdge(w[0].ID, pt(0, 0, 0)); !errors.Is(err, ErrSplitAtEnd) {
		t.Fatalf("split at end: %v", err)
	}
	if _, _, err := a.SplitEdge(w[0].ID, pt(0.5, 3, 0)); !errors.Is(err, ErrSplitOffCurve) {
		t.Fatalf("split off curve: %v", err)
	}
}

func TestSplitEdge_FailureLeavesArenaIntact(t *testing.T) {
	a := NewArena(0)
	_, w := squareWire(t, a)
	f, err := a.NewFace(zPlane(), true, w)
	if err != nil {
		t.Fatalf("face: %v", err)
	}
	target := w[0]
	before := a.NewVertex(pt(9, 9, 9))

	if _, _, err := a.SplitEdge(target.ID, pt(0.5, 3, 0)); !errors.Is(err, ErrSplitOffCurve) {
		t.Fatalf("split off curve: %v", err)
	}

	// The failed split must not have allocated anything: the next handle
	// follows the marker vertex directly.
	after := a.NewVertex(pt(9, 9, 10))
	if uint64(after) != uint64(before)+1 {
		t.Fatalf("failed split consumed handles: %d -> %d", before, after)
	}
	if !a.HasEdge(target.ID) {
		t.Fatal("failed split retired the edge")
	}
	if a.Front(target) == 0 || a.Back(target) == 0 {
		t.Fatal("failed split lost the edge ends")
	}
	got := a.Wires(f)[0]
	if len(got) != 4 {
		t.Fatalf("wire length after failed split = %d", len(got))
	}
	assertChained(t, a, got)

	// The edge still splits cleanly afterwards.
	if _, _, err := a.SplitEdge(target.ID, pt(0.5, 0, 0)); err != nil {
		t.Fatalf("split after failure: %v", err)
	}
	assertChained(t, a, a.Wires(f)[0])
}

func TestSplitEdgeWith(t *testing.T) {
	a := NewArena(0)
	_, w := squareWire(t, a)
	mid := pt(0.5, 0, 0)
	v := a.NewVertex(mid)

	pieces, err := a.SplitEdgeWith(w[0].ID, mid, v)
	if err != nil {
		t.Fatalf("SplitEdgeWith: %v", err)
	}
	if a.Back(Edge{ID: pieces[0], Forward: true}) != v {
		t.Fatal("first piece does not end at the reused vertex")
	}
	if a.Front(Edge{ID: pieces[1], Forward: true}) != v {
		t.Fatal("second piece does not start at the reused vertex")
	}
	if _, err := a.SplitEdgeWith(w[1].ID, pt(1, 0.5, 0), v+100); !errors.Is(err, ErrUnknownVertex) {
		t.Fatalf("unknown vertex: %v", err)
	}
}

func TestReplaceVertexAndEdge(t *testing.T) {
	a := NewArena(0)
	vs, w := squareWire(t, a)
	f1, err := a.NewFace(zPlane(), true, w)
	if err != nil {
		t.Fatal(err)
	}
	cd := w[2] // (1,1,0) -> (0,1,0)

	// A second square stacked on top, built with its own copies of the
	// shared corners and the shared edge.
	vc2 := a.NewVertex(pt(1, 1, 0))
	vd2 := a.NewVertex(pt(0, 1, 0))
	ve := a.NewVertex(pt(0, 2, 0))
	vf := a.NewVertex(pt(1, 2, 0))
	mk := func(from, to VertexID) Edge {
		e, err := a.NewEdge(from, to, geom.Line{P0: a.Point(from), P1: a.Point(to)})
		if err != nil {
			t.Fatal(err)
		}
		return e
	}
	dup := mk(vd2, vc2)
	cf := mk(vc2, vf)
	fe := mk(vf, ve)
	ed := mk(ve, vd2)
	f2, err := a.NewFace(zPlane(), true, Wire{dup, cf, fe, ed})
	if err != nil {
		t.Fatal(err)
	}

	if err := a.ReplaceVertex(vd2, vs[0]); !errors.Is(err, ErrVertexMismatch) {
		t.Fatalf("distant vertices: %v", err)
	}
	if err := a.ReplaceVertex(vd2, vs[3]); err != nil {
		t.Fatalf("ReplaceVertex d: %v", err)
	}
	if err := a.ReplaceVertex(vc2, vs[2]); err != nil {
		t.Fatalf("ReplaceVertex c: %v", err)
	}
	if a.HasVertex(vd2) || a.HasVertex(vc2) {
		t.Fatal("replaced vertices not retired")
	}

	// The duplicate runs d->c, the original c->d: only the inverse fits.
	if err := a.ReplaceEdge(dup.ID, cd); !errors.Is(err, ErrEdgeMismatch) {
		t.Fatalf("misdirected substitution: %v", err)
	}
	if err := a.ReplaceEdge(dup.ID, cd.Inverse()); err != nil {
		t.Fatalf("ReplaceEdge: %v", err)
	}
	if a.HasEdge(dup.ID) {
		t.Fatal("replaced edge not retired")
	}

	w2 := a.Wires(f2)[0]
	if w2[0].ID != cd.ID || w2[0].Forward {
		t.Fatalf("glued use = %+v", w2[0])
	}
	assertChained(t, a, w2)
	sh := Shell{Faces: []FaceID{f1, f2}}
	if got := a.ShellCondition(sh); got != Oriented {
		t.Fatalf("glued strip condition = %v", got)
	}
	if bs := a.Boundary(sh); len(bs) != 1 || len(bs[0]) != 6 {
		t.Fatalf("glued boundary = %v", bs)
	}
}

func TestImportSolid(t *testing.T) {
	src := NewArena(0)
	_, w := squareWire(t, src)
	top, err := src.NewFace(zPlane(), true, w)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	bottom, err := src.NewFace(zPlane(), false, w)
	if err != nil {
		t.Fatalf("bottom: %v", err)
	}
	solid := Solid{Shells: []Shell{{Faces: []FaceID{top, bottom}}}}

	dst := NewArena(0)
	got, err := dst.ImportSolid(src, solid)
	if err != nil {
		t.Fatalf("ImportSolid: %v", err)
	}
	if len(got.Shells) != 1 || len(got.Shells[0].Faces) != 2 {
		t.Fatalf("imported shape = %+v", got)
	}
	if !Isomorphic(src, solid, dst, got) {
		t.Fatal("import changed structure")
	}
	// Shared edges import once: both faces must reference the same handles.
	fw := dst.Wires(got.Shells[0].Faces[0])[0]
	bw := dst.Wires(got.Shells[0].Faces[1])[0]
	for i := range fw {
		if fw[i].ID != bw[i].ID {
			t.Fatalf("edge %d duplicated on import", i)
		}
	}
	// The source stays usable.
	if src.ShellCondition(solid.Shells[0]) != Closed {
		t.Fatal("source arena disturbed by import")
	}

	if _, err := dst.ImportSolid(src, Solid{Shells: []Shell{{Faces: []FaceID{9999}}}}); !errors.Is(err, ErrUnknownFace) {
		t.Fatalf("unknown face: %v", err)
	}
}
