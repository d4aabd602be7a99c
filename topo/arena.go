package topo

import (
	"fmt"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gogpu/brep/geom"
)

// Arena owns the topological records and allocates their handles. Handles
// come from one monotonic counter and are never reused; all structural
// mutation goes through the arena so that every wire referencing an edge
// stays consistent.
type Arena struct {
	tol    float64
	nextID uint64
	verts  map[VertexID]v3.Vec
	edges  map[EdgeID]*edgeRec
	faces  map[FaceID]*faceRec
}

type edgeRec struct {
	front, back VertexID
	curve       geom.Curve
}

type faceRec struct {
	wires  []Wire
	orient bool
	surf   geom.Surface
}

// NewArena returns an empty arena. A non-positive tolerance falls back to
// geom.Tolerance.
func NewArena(tol float64) *Arena {
	if tol <= 0 {
		tol = geom.Tolerance
	}
	return &Arena{
		tol:   tol,
		verts: map[VertexID]v3.Vec{},
		edges: map[EdgeID]*edgeRec{},
		faces: map[FaceID]*faceRec{},
	}
}

// Tolerance returns the coincidence tolerance of the arena.
func (a *Arena) Tolerance() float64 { return a.tol }

func (a *Arena) alloc() uint64 {
	a.nextID++
	return a.nextID
}

// -------------------------------------------------------------------
// Vertices
// -------------------------------------------------------------------

// NewVertex allocates a vertex at p.
func (a *Arena) NewVertex(p v3.Vec) VertexID {
	v := VertexID(a.alloc())
	a.verts[v] = p
	return v
}

// HasVertex reports whether v is a vertex of this arena.
func (a *Arena) HasVertex(v VertexID) bool {
	_, ok := a.verts[v]
	return ok
}

// Point returns the position of v, or the zero vector for an unknown
// handle.
func (a *Arena) Point(v VertexID) v3.Vec { return a.verts[v] }

// MoveVertex repositions v. The caller is responsible for keeping incident
// curves consistent.
func (a *Arena) MoveVertex(v VertexID, p v3.Vec) error {
	if !a.HasVertex(v) {
		return fmt.Errorf("%w: %d", ErrUnknownVertex, v)
	}
	a.verts[v] = p
	return nil
}

// -------------------------------------------------------------------
// Edges
// -------------------------------------------------------------------

// NewEdge allocates an edge from front to back along c. The ends of c must
// land on the vertices within the arena tolerance. The returned Edge
// traverses forward.
func (a *Arena) NewEdge(front, back VertexID, c geom.Curve) (Edge, error) {
	if !a.HasVertex(front) {
		return Edge{}, fmt.Errorf("%w: front %d", ErrUnknownVertex, front)
	}
	if !a.HasVertex(back) {
		return Edge{}, fmt.Errorf("%w: back %d", ErrUnknownVertex, back)
	}
	cf, cb := c.FrontBack()
	if cf.Sub(a.verts[front]).Length() > a.tol || cb.Sub(a.verts[back]).Length() > a.tol {
		return Edge{}, ErrEndpointMismatch
	}
	id := EdgeID(a.alloc())
	a.edges[id] = &edgeRec{front: front, back: back, curve: c}
	return Edge{ID: id, Forward: true}, nil
}

// HasEdge reports whether id is an edge of this arena.
func (a *Arena) HasEdge(id EdgeID) bool {
	_, ok := a.edges[id]
	return ok
}

// Front returns the start vertex of a directed edge use.
func (a *Arena) Front(e Edge) VertexID {
	rec, ok := a.edges[e.ID]
	if !ok {
		return 0
	}
	if e.Forward {
		return rec.front
	}
	return rec.back
}

// Back returns the end vertex of a directed edge use.
func (a *Arena) Back(e Edge) VertexID {
	return a.Front(e.Inverse())
}

// Curve returns the curve of a directed edge use, inverted as needed so
// that its front matches Front(e). Unknown handles yield nil.
func (a *Arena) Curve(e Edge) geom.Curve {
	rec, ok := a.edges[e.ID]
	if !ok {
		return nil
	}
	if e.Forward {
		return rec.curve
	}
	return rec.curve.Invert()
}

// EdgeCurve returns the absolute (forward) curve of an edge.
func (a *Arena) EdgeCurve(id EdgeID) geom.Curve {
	rec, ok := a.edges[id]
	if !ok {
		return nil
	}
	return rec.curve
}

// -------------------------------------------------------------------
// Faces
// -------------------------------------------------------------------

// NewFace allocates a face over surf bounded by the given wires, stored as
// passed; orient false means the face uses the opposite side of surf, and
// Boundaries will reverse the wires accordingly. Each wire must chain
// back-to-front by vertex identity and close into a loop.
func (a *Arena) NewFace(surf geom.Surface, orient bool, wires ...Wire) (FaceID, error) {
	for wi, w := range wires {
		if err := a.checkWire(w); err != nil {
			return 0, fmt.Errorf("wire %d: %w", wi, err)
		}
	}
	f := FaceID(a.alloc())
	stored := make([]Wire, len(wires))
	for i, w := range wires {
		stored[i] = w.Clone()
	}
	a.faces[f] = &faceRec{wires: stored, orient: orient, surf: surf}
	return f, nil
}

func (a *Arena) checkWire(w Wire) error {
	if len(w) == 0 {
		return ErrEmptyWire
	}
	for _, e := range w {
		if !a.HasEdge(e.ID) {
			return fmt.Errorf("%w: %d", ErrUnknownEdge, e.ID)
		}
	}
	for i, e := range w {
		next := w[(i+1)%len(w)]
		if a.Back(e) != a.Front(next) {
			return fmt.Errorf("%w: edge %d ends at vertex %d, next starts at %d",
				ErrWireNotClosed, e.ID, a.Back(e), a.Front(next))
		}
	}
	seen := make(map[VertexID]bool, len(w))
	for _, e := range w {
		v := a.Front(e)
		if seen[v] {
			return fmt.Errorf("%w: vertex %d repeats", ErrWireNotSimple, v)
		}
		seen[v] = true
	}
	return nil
}

// HasFace reports whether f is a face of this arena.
func (a *Arena) HasFace(f FaceID) bool {
	_, ok := a.faces[f]
	return ok
}

// Surface returns the carrier surface of f, nil for an unknown handle.
func (a *Arena) Surface(f FaceID) geom.Surface {
	rec, ok := a.faces[f]
	if !ok {
		return nil
	}
	return rec.surf
}

// Orientation reports which side of the carrier the face uses.
func (a *Arena) Orientation(f FaceID) bool {
	rec, ok := a.faces[f]
	return ok && rec.orient
}

// Normal returns the outward normal of the face at a surface parameter:
// the carrier normal, flipped when the face uses the opposite side.
func (a *Arena) Normal(f FaceID, uv v2.Vec) v3.Vec {
	rec, ok := a.faces[f]
	if !ok {
		return v3.Vec{}
	}
	n := rec.surf.Normal(uv)
	if !rec.orient {
		n = n.Neg()
	}
	return n
}

// Wires returns copies of the stored boundary wires of f.
func (a *Arena) Wires(f FaceID) []Wire {
	rec, ok := a.faces[f]
	if !ok {
		return nil
	}
	out := make([]Wire, len(rec.wires))
	for i, w := range rec.wires {
		out[i] = w.Clone()
	}
	return out
}

// Boundaries returns the effective boundary wires of f: the stored wires,
// reversed when the face uses the opposite side of its carrier.
func (a *Arena) Boundaries(f FaceID) []Wire {
	rec, ok := a.faces[f]
	if !ok {
		return nil
	}
	out := make([]Wire, len(rec.wires))
	for i, w := range rec.wires {
		if rec.orient {
			out[i] = w.Clone()
		} else {
			out[i] = w.Inverse()
		}
	}
	return out
}

// -------------------------------------------------------------------
// Edge splitting
// -------------------------------------------------------------------

// SplitEdge cuts an edge at a point on its curve, allocating the split
// vertex. Every wire in the arena referencing the edge is rewritten to the
// two-piece chain, and the old handle is retired. A failed split leaves
// the arena untouched: both pieces are validated before anything is
// allocated or registered.
func (a *Arena) SplitEdge(id EdgeID, pt v3.Vec) (VertexID, [2]EdgeID, error) {
	if err := a.checkSplit(id, pt); err != nil {
		return 0, [2]EdgeID{}, err
	}
	c1, c2, err := a.cutPieces(id, pt, pt)
	if err != nil {
		return 0, [2]EdgeID{}, err
	}
	v := a.NewVertex(pt)
	return v, a.registerSplit(id, v, c1, c2), nil
}

// SplitEdgeWith is SplitEdge reusing an existing vertex, which must sit on
// the curve at the split point.
func (a *Arena) SplitEdgeWith(id EdgeID, pt v3.Vec, v VertexID) ([2]EdgeID, error) {
	if !a.HasVertex(v) {
		return [2]EdgeID{}, fmt.Errorf("%w: %d", ErrUnknownVertex, v)
	}
	if err := a.checkSplit(id, pt); err != nil {
		return [2]EdgeID{}, err
	}
	c1, c2, err := a.cutPieces(id, pt, a.verts[v])
	if err != nil {
		return [2]EdgeID{}, err
	}
	return a.registerSplit(id, v, c1, c2), nil
}

func (a *Arena) checkSplit(id EdgeID, pt v3.Vec) error {
	rec, ok := a.edges[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownEdge, id)
	}
	if pt.Sub(a.verts[rec.front]).Length() <= a.tol || pt.Sub(a.verts[rec.back]).Length() <= a.tol {
		return ErrSplitAtEnd
	}
	return nil
}

// cutPieces cuts the edge curve at pt and validates that both pieces land
// on the edge ends and on the split position vp. Nothing is registered
// here, so a failure cannot leave a half-split edge behind.
func (a *Arena) cutPieces(id EdgeID, pt, vp v3.Vec) (geom.Curve, geom.Curve, error) {
	rec := a.edges[id]
	t, ok := rec.curve.SearchParameter(pt, geom.NoHint, 0)
	if !ok {
		return nil, nil, ErrSplitOffCurve
	}
	c1, c2 := rec.curve.Cut(t)
	f1, b1 := c1.FrontBack()
	f2, b2 := c2.FrontBack()
	if f1.Sub(a.verts[rec.front]).Length() > a.tol || b1.Sub(vp).Length() > a.tol ||
		f2.Sub(vp).Length() > a.tol || b2.Sub(a.verts[rec.back]).Length() > a.tol {
		return nil, nil, ErrEndpointMismatch
	}
	return c1, c2, nil
}

// registerSplit installs two validated pieces, rewrites every wire to the
// two-piece chain and retires the old handle.
func (a *Arena) registerSplit(id EdgeID, v VertexID, c1, c2 geom.Curve) [2]EdgeID {
	rec := a.edges[id]
	e1 := EdgeID(a.alloc())
	a.edges[e1] = &edgeRec{front: rec.front, back: v, curve: c1}
	e2 := EdgeID(a.alloc())
	a.edges[e2] = &edgeRec{front: v, back: rec.back, curve: c2}
	for _, frec := range a.faces {
		for i, w := range frec.wires {
			frec.wires[i] = spliceWire(w, id, e1, e2)
		}
	}
	delete(a.edges, id)
	return [2]EdgeID{e1, e2}
}

// spliceWire replaces every use of old with the two-piece chain, honoring
// the traversal direction.
func spliceWire(w Wire, old, first, second EdgeID) Wire {
	found := false
	for _, e := range w {
		if e.ID == old {
			found = true
			break
		}
	}
	if !found {
		return w
	}
	out := make(Wire, 0, len(w)+1)
	for _, e := range w {
		switch {
		case e.ID != old:
			out = append(out, e)
		case e.Forward:
			out = append(out, Edge{ID: first, Forward: true}, Edge{ID: second, Forward: true})
		default:
			out = append(out, Edge{ID: second, Forward: false}, Edge{ID: first, Forward: false})
		}
	}
	return out
}

// -------------------------------------------------------------------
// Substitution
// -------------------------------------------------------------------

// ReplaceVertex substitutes keep for drop in every edge record and retires
// drop. The two vertices must coincide within the arena tolerance.
func (a *Arena) ReplaceVertex(drop, keep VertexID) error {
	if drop == keep {
		return nil
	}
	if !a.HasVertex(drop) {
		return fmt.Errorf("%w: %d", ErrUnknownVertex, drop)
	}
	if !a.HasVertex(keep) {
		return fmt.Errorf("%w: %d", ErrUnknownVertex, keep)
	}
	if a.verts[drop].Sub(a.verts[keep]).Length() > a.tol {
		return ErrVertexMismatch
	}
	for _, rec := range a.edges {
		if rec.front == drop {
			rec.front = keep
		}
		if rec.back == drop {
			rec.back = keep
		}
	}
	delete(a.verts, drop)
	return nil
}

// ReplaceEdge substitutes keep for the forward traversal of drop in every
// wire and retires drop. The directed endpoints must match by identity and
// the curve midpoints must coincide within the arena tolerance.
func (a *Arena) ReplaceEdge(drop EdgeID, keep Edge) error {
	if drop == keep.ID {
		return nil
	}
	rec, ok := a.edges[drop]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownEdge, drop)
	}
	if !a.HasEdge(keep.ID) {
		return fmt.Errorf("%w: %d", ErrUnknownEdge, keep.ID)
	}
	if rec.front != a.Front(keep) || rec.back != a.Back(keep) {
		return ErrEdgeMismatch
	}
	if midPoint(rec.curve).Sub(midPoint(a.Curve(keep))).Length() > a.tol {
		return ErrEdgeMismatch
	}
	for _, frec := range a.faces {
		for wi, w := range frec.wires {
			for i, e := range w {
				if e.ID != drop {
					continue
				}
				sub := keep
				if !e.Forward {
					sub = keep.Inverse()
				}
				frec.wires[wi][i] = sub
			}
		}
	}
	delete(a.edges, drop)
	return nil
}

func midPoint(c geom.Curve) v3.Vec {
	return c.Subs(c.ParamRange().Mid())
}

// -------------------------------------------------------------------
// Import
// -------------------------------------------------------------------

// ImportSolid deep-copies a solid from another arena, allocating fresh
// handles in deterministic traversal order. Curves and surfaces are shared
// as immutable values.
func (a *Arena) ImportSolid(src *Arena, s Solid) (Solid, error) {
	vmap := map[VertexID]VertexID{}
	emap := map[EdgeID]EdgeID{}
	out := Solid{Shells: make([]Shell, 0, len(s.Shells))}
	for _, sh := range s.Shells {
		nsh := Shell{Faces: make([]FaceID, 0, len(sh.Faces))}
		for _, f := range sh.Faces {
			rec, ok := src.faces[f]
			if !ok {
				return Solid{}, fmt.Errorf("%w: %d", ErrUnknownFace, f)
			}
			wires := make([]Wire, len(rec.wires))
			for wi, w := range rec.wires {
				nw := make(Wire, len(w))
				for i, e := range w {
					ne, err := a.importEdge(src, e.ID, vmap, emap)
					if err != nil {
						return Solid{}, err
					}
					nw[i] = Edge{ID: ne, Forward: e.Forward}
				}
				wires[wi] = nw
			}
			nf, err := a.NewFace(rec.surf, rec.orient, wires...)
			if err != nil {
				return Solid{}, err
			}
			nsh.Faces = append(nsh.Faces, nf)
		}
		out.Shells = append(out.Shells, nsh)
	}
	return out, nil
}

func (a *Arena) importEdge(src *Arena, id EdgeID, vmap map[VertexID]VertexID, emap map[EdgeID]EdgeID) (EdgeID, error) {
	if ne, ok := emap[id]; ok {
		return ne, nil
	}
	rec, ok := src.edges[id]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownEdge, id)
	}
	front, err := a.importVertex(src, rec.front, vmap)
	if err != nil {
		return 0, err
	}
	back, err := a.importVertex(src, rec.back, vmap)
	if err != nil {
		return 0, err
	}
	ne, err := a.NewEdge(front, back, rec.curve)
	if err != nil {
		return 0, err
	}
	emap[id] = ne.ID
	return ne.ID, nil
}

func (a *Arena) importVertex(src *Arena, v VertexID, vmap map[VertexID]VertexID) (VertexID, error) {
	if nv, ok := vmap[v]; ok {
		return nv, nil
	}
	p, ok := src.verts[v]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownVertex, v)
	}
	nv := a.NewVertex(p)
	vmap[v] = nv
	return nv, nil
}
