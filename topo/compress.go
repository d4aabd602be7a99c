package topo

import (
	"fmt"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gogpu/brep/geom"
)

// EdgeRecord flattens an edge to vertex indices and a curve record.
type EdgeRecord struct {
	Front int              `json:"front"`
	Back  int              `json:"back"`
	Curve geom.CurveRecord `json:"curve"`
}

// EdgeUse is a directed reference to an edge by index.
type EdgeUse struct {
	Edge    int  `json:"edge"`
	Forward bool `json:"forward"`
}

// FaceRecord flattens a face to wires of edge uses over a surface record.
type FaceRecord struct {
	Wires   [][]EdgeUse        `json:"wires"`
	Orient  bool               `json:"orient"`
	Surface geom.SurfaceRecord `json:"surface"`
}

// ShellRecord is the serialized form of one shell.
type ShellRecord struct {
	Vertices [][3]float64 `json:"vertices"`
	Edges    []EdgeRecord `json:"edges"`
	Faces    []FaceRecord `json:"faces"`
}

// SolidRecord is the serialized form of a solid: shared pools plus shells
// as face-index lists.
type SolidRecord struct {
	Vertices [][3]float64 `json:"vertices"`
	Edges    []EdgeRecord `json:"edges"`
	Faces    []FaceRecord `json:"faces"`
	Shells   [][]int      `json:"shells"`
}

// compressor indexes handles in first-seen traversal order.
type compressor struct {
	a     *Arena
	verts map[VertexID]int
	edges map[EdgeID]int
	faces map[FaceID]int
	rec   SolidRecord
}

func newCompressor(a *Arena) *compressor {
	return &compressor{
		a:     a,
		verts: map[VertexID]int{},
		edges: map[EdgeID]int{},
		faces: map[FaceID]int{},
	}
}

func (c *compressor) vertex(v VertexID) (int, error) {
	if i, ok := c.verts[v]; ok {
		return i, nil
	}
	if !c.a.HasVertex(v) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownVertex, v)
	}
	p := c.a.Point(v)
	i := len(c.rec.Vertices)
	c.verts[v] = i
	c.rec.Vertices = append(c.rec.Vertices, [3]float64{p.X, p.Y, p.Z})
	return i, nil
}

func (c *compressor) edge(id EdgeID) (int, error) {
	if i, ok := c.edges[id]; ok {
		return i, nil
	}
	rec, ok := c.a.edges[id]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownEdge, id)
	}
	front, err := c.vertex(rec.front)
	if err != nil {
		return 0, err
	}
	back, err := c.vertex(rec.back)
	if err != nil {
		return 0, err
	}
	i := len(c.rec.Edges)
	c.edges[id] = i
	c.rec.Edges = append(c.rec.Edges, EdgeRecord{
		Front: front,
		Back:  back,
		Curve: geom.EncodeCurve(rec.curve),
	})
	return i, nil
}

func (c *compressor) face(f FaceID) (int, error) {
	if i, ok := c.faces[f]; ok {
		return i, nil
	}
	rec, ok := c.a.faces[f]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownFace, f)
	}
	fr := FaceRecord{
		Wires:   make([][]EdgeUse, len(rec.wires)),
		Orient:  rec.orient,
		Surface: geom.EncodeSurface(rec.surf),
	}
	for wi, w := range rec.wires {
		uses := make([]EdgeUse, len(w))
		for i, e := range w {
			ei, err := c.edge(e.ID)
			if err != nil {
				return 0, err
			}
			uses[i] = EdgeUse{Edge: ei, Forward: e.Forward}
		}
		fr.Wires[wi] = uses
	}
	i := len(c.rec.Faces)
	c.faces[f] = i
	c.rec.Faces = append(c.rec.Faces, fr)
	return i, nil
}

// CompressShell flattens a shell to an index-based record.
func CompressShell(a *Arena, sh Shell) (ShellRecord, error) {
	c := newCompressor(a)
	for _, f := range sh.Faces {
		if _, err := c.face(f); err != nil {
			return ShellRecord{}, err
		}
	}
	return ShellRecord{
		Vertices: c.rec.Vertices,
		Edges:    c.rec.Edges,
		Faces:    c.rec.Faces,
	}, nil
}

// CompressSolid flattens a solid to an index-based record with pools
// shared across shells.
func CompressSolid(a *Arena, s Solid) (SolidRecord, error) {
	c := newCompressor(a)
	c.rec.Shells = make([][]int, 0, len(s.Shells))
	for _, sh := range s.Shells {
		idx := make([]int, 0, len(sh.Faces))
		for _, f := range sh.Faces {
			fi, err := c.face(f)
			if err != nil {
				return SolidRecord{}, err
			}
			idx = append(idx, fi)
		}
		c.rec.Shells = append(c.rec.Shells, idx)
	}
	return c.rec, nil
}

// expander rebuilds handles through the arena constructors so a damaged
// record fails validation instead of producing a broken model.
type expander struct {
	a     *Arena
	verts []VertexID
	edges []EdgeID
	faces []FaceID
}

func newExpander(a *Arena, vertices [][3]float64) *expander {
	x := &expander{a: a, verts: make([]VertexID, len(vertices))}
	for i, p := range vertices {
		x.verts[i] = a.NewVertex(v3.Vec{X: p[0], Y: p[1], Z: p[2]})
	}
	return x
}

func (x *expander) expandEdges(recs []EdgeRecord) error {
	x.edges = make([]EdgeID, len(recs))
	for i, er := range recs {
		if er.Front < 0 || er.Front >= len(x.verts) || er.Back < 0 || er.Back >= len(x.verts) {
			return fmt.Errorf("edge %d: %w", i, ErrUnknownVertex)
		}
		curve, err := geom.DecodeCurve(er.Curve)
		if err != nil {
			return fmt.Errorf("edge %d: %w", i, err)
		}
		e, err := x.a.NewEdge(x.verts[er.Front], x.verts[er.Back], curve)
		if err != nil {
			return fmt.Errorf("edge %d: %w", i, err)
		}
		x.edges[i] = e.ID
	}
	return nil
}

func (x *expander) expandFaces(recs []FaceRecord) error {
	x.faces = make([]FaceID, len(recs))
	for i, fr := range recs {
		surf, err := geom.DecodeSurface(fr.Surface)
		if err != nil {
			return fmt.Errorf("face %d: %w", i, err)
		}
		wires := make([]Wire, len(fr.Wires))
		for wi, uses := range fr.Wires {
			w := make(Wire, len(uses))
			for j, u := range uses {
				if u.Edge < 0 || u.Edge >= len(x.edges) {
					return fmt.Errorf("face %d wire %d: %w", i, wi, ErrUnknownEdge)
				}
				w[j] = Edge{ID: x.edges[u.Edge], Forward: u.Forward}
			}
			wires[wi] = w
		}
		f, err := x.a.NewFace(surf, fr.Orient, wires...)
		if err != nil {
			return fmt.Errorf("face %d: %w", i, err)
		}
		x.faces[i] = f
	}
	return nil
}

// ExpandShell rebuilds a shell from its record into the arena, revalidating
// every edge and wire on the way.
func ExpandShell(a *Arena, rec ShellRecord) (Shell, error) {
	x := newExpander(a, rec.Vertices)
	if err := x.expandEdges(rec.Edges); err != nil {
		return Shell{}, err
	}
	if err := x.expandFaces(rec.Faces); err != nil {
		return Shell{}, err
	}
	return Shell{Faces: x.faces}, nil
}

// ExpandSolid rebuilds a solid from its record into the arena.
func ExpandSolid(a *Arena, rec SolidRecord) (Solid, error) {
	x := newExpander(a, rec.Vertices)
	if err := x.expandEdges(rec.Edges); err != nil {
		return Solid{}, err
	}
	if err := x.expandFaces(rec.Faces); err != nil {
		return Solid{}, err
	}
	out := Solid{Shells: make([]Shell, 0, len(rec.Shells))}
	for si, idx := range rec.Shells {
		sh := Shell{Faces: make([]FaceID, 0, len(idx))}
		for _, fi := range idx {
			if fi < 0 || fi >= len(x.faces) {
				return Solid{}, fmt.Errorf("shell %d: %w", si, ErrUnknownFace)
			}
			sh.Faces = append(sh.Faces, x.faces[fi])
		}
		out.Shells = append(out.Shells, sh)
	}
	return out, nil
}

// Isomorphic reports whether two solids share combinatorial structure:
// matching shell count and, shell for shell, matching condition, element
// counts, Euler characteristic, wire lengths, and vertex degrees. It
// compares structure only, never positions, so a compress/expand round
// trip or a handle-renaming copy stays isomorphic to its source.
func Isomorphic(a *Arena, sa Solid, b *Arena, sb Solid) bool {
	if len(sa.Shells) != len(sb.Shells) {
		return false
	}
	sigA := shellSignatures(a, sa)
	sigB := shellSignatures(b, sb)
	for i := range sigA {
		if sigA[i] != sigB[i] {
			return false
		}
	}
	return true
}

func shellSignatures(a *Arena, s Solid) []string {
	sigs := make([]string, 0, len(s.Shells))
	for _, sh := range s.Shells {
		sigs = append(sigs, a.shellSignature(sh))
	}
	sort.Strings(sigs)
	return sigs
}

func (a *Arena) shellSignature(sh Shell) string {
	degree := map[VertexID]int{}
	edges := map[EdgeID]bool{}
	var wireLens, faceWires []int
	for _, f := range sh.Faces {
		ws := a.Wires(f)
		faceWires = append(faceWires, len(ws))
		for _, w := range ws {
			wireLens = append(wireLens, len(w))
			for _, e := range w {
				if edges[e.ID] {
					continue
				}
				edges[e.ID] = true
				fwd := Edge{ID: e.ID, Forward: true}
				degree[a.Front(fwd)]++
				degree[a.Back(fwd)]++
			}
		}
	}
	degrees := make([]int, 0, len(degree))
	for _, d := range degree {
		degrees = append(degrees, d)
	}
	sort.Ints(degrees)
	sort.Ints(wireLens)
	sort.Ints(faceWires)
	nv, ne, nf := len(degree), len(edges), len(sh.Faces)
	return fmt.Sprintf("%v|%d;%d;%d;%d|%v|%v|%v",
		a.ShellCondition(sh), nv, ne, nf, nv-ne+nf, faceWires, wireLens, degrees)
}
