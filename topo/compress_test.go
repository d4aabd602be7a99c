package topo

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/brep/geom"
)

// pillow returns a closed two-face solid over the unit square.
func pillow(t *testing.T, a *Arena) Solid {
	t.Helper()
	_, w := squareWire(t, a)
	top, err := a.NewFace(zPlane(), true, w)
	if err != nil {
		t.Fatal(err)
	}
	bottom, err := a.NewFace(zPlane(), false, w)
	if err != nil {
		t.Fatal(err)
	}
	return Solid{Shells: []Shell{{Faces: []FaceID{top, bottom}}}}
}

func TestCompressExpandShell(t *testing.T) {
	a := NewArena(0)
	_, w := squareWire(t, a)
	f, err := a.NewFace(zPlane(), true, w)
	if err != nil {
		t.Fatal(err)
	}
	sh := Shell{Faces: []FaceID{f}}

	rec, err := CompressShell(a, sh)
	if err != nil {
		t.Fatalf("CompressShell: %v", err)
	}
	if len(rec.Vertices) != 4 || len(rec.Edges) != 4 || len(rec.Faces) != 1 {
		t.Fatalf("record shape = %d/%d/%d", len(rec.Vertices), len(rec.Edges), len(rec.Faces))
	}

	b := NewArena(0)
	got, err := ExpandShell(b, rec)
	if err != nil {
		t.Fatalf("ExpandShell: %v", err)
	}
	if b.ShellCondition(got) != Oriented {
		t.Fatalf("expanded condition = %v", b.ShellCondition(got))
	}
	// Compressing the expanded shell reproduces the record bit for bit.
	rec2, err := CompressShell(b, got)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(rec, rec2); diff != "" {
		t.Fatalf("round trip drifted (-first +second):\n%s", diff)
	}
}

func TestCompressExpandSolid_JSON(t *testing.T) {
	a := NewArena(0)
	s := pillow(t, a)

	rec, err := CompressSolid(a, s)
	if err != nil {
		t.Fatalf("CompressSolid: %v", err)
	}
	// The closed pillow shares its four edges between both faces.
	if len(rec.Edges) != 4 || len(rec.Faces) != 2 || len(rec.Shells) != 1 {
		t.Fatalf("record shape = %+v", rec)
	}

	blob, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back SolidRecord
	if err := json.Unmarshal(blob, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	b := NewArena(0)
	got, err := ExpandSolid(b, back)
	if err != nil {
		t.Fatalf("ExpandSolid: %v", err)
	}
	if b.SolidCondition(got) != Closed {
		t.Fatalf("expanded condition = %v", b.SolidCondition(got))
	}
	if !Isomorphic(a, s, b, got) {
		t.Fatal("round trip changed structure")
	}

	rec2, err := CompressSolid(b, got)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(rec, rec2); diff != "" {
		t.Fatalf("round trip drifted (-first +second):\n%s", diff)
	}
}

func TestExpand_Damaged(t *testing.T) {
	a := NewArena(0)
	s := pillow(t, a)
	rec, err := CompressSolid(a, s)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("edge index", func(t *testing.T) {
		bad := rec
		bad.Faces = append([]FaceRecord(nil), rec.Faces...)
		wires := [][]EdgeUse{{{Edge: 99, Forward: true}}}
		bad.Faces[0] = FaceRecord{Wires: wires, Orient: true, Surface: rec.Faces[0].Surface}
		if _, err := ExpandSolid(NewArena(0), bad); !errors.Is(err, ErrUnknownEdge) {
			t.Fatalf("expand: %v", err)
		}
	})

	t.Run("broken wire", func(t *testing.T) {
		bad := rec
		bad.Faces = append([]FaceRecord(nil), rec.Faces...)
		wires := make([][]EdgeUse, len(rec.Faces[0].Wires))
		for i, uses := range rec.Faces[0].Wires {
			wires[i] = append([]EdgeUse(nil), uses...)
		}
		wires[0][1].Forward = !wires[0][1].Forward
		bad.Faces[0] = FaceRecord{Wires: wires, Orient: rec.Faces[0].Orient, Surface: rec.Faces[0].Surface}
		if _, err := ExpandSolid(NewArena(0), bad); !errors.Is(err, ErrWireNotClosed) {
			t.Fatalf("expand: %v", err)
		}
	})

	t.Run("alien curve", func(t *testing.T) {
		bad := rec
		bad.Edges = append([]EdgeRecord(nil), rec.Edges...)
		bad.Edges[0].Curve.Kind = "nurbs"
		if _, err := ExpandSolid(NewArena(0), bad); !errors.Is(err, geom.ErrUnknownKind) {
			t.Fatalf("expand: %v", err)
		}
	})
}

func TestIsomorphic(t *testing.T) {
	a := NewArena(0)
	s := pillow(t, a)

	b := NewArena(0)
	other := pillow(t, b)
	if !Isomorphic(a, s, b, other) {
		t.Fatal("identical constructions differ")
	}

	// Splitting an edge changes wire lengths.
	c := NewArena(0)
	split := pillow(t, c)
	target := c.Wires(split.Shells[0].Faces[0])[0][0]
	if _, _, err := c.SplitEdge(target.ID, pt(0.5, 0, 0)); err != nil {
		t.Fatalf("split: %v", err)
	}
	if Isomorphic(a, s, c, split) {
		t.Fatal("split solid still isomorphic")
	}

	// A single open face is not a pillow.
	d := NewArena(0)
	_, w := squareWire(t, d)
	f, _ := d.NewFace(zPlane(), true, w)
	single := Solid{Shells: []Shell{{Faces: []FaceID{f}}}}
	if Isomorphic(a, s, d, single) {
		t.Fatal("open face matched closed pillow")
	}
}
