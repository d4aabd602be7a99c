package brep

import (
	"fmt"
	"math"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gogpu/brep/geom"
	"github.com/gogpu/brep/topo"
)

// vertexPool merges arc endpoints within tolerance onto shared vertices
// with a uniform spatial hash. Boundary vertices of both operands are
// seeded up front, so endpoints landing on an existing corner reuse it
// instead of minting a twin within tolerance.
type vertexPool struct {
	w    *topo.Arena
	tol  float64
	cell float64
	grid map[[3]int64][]topo.VertexID
}

func newVertexPool(w *topo.Arena) *vertexPool {
	tol := w.Tolerance()
	return &vertexPool{w: w, tol: tol, cell: 2 * tol, grid: map[[3]int64][]topo.VertexID{}}
}

func (p *vertexPool) key(pt v3.Vec) [3]int64 {
	return [3]int64{
		int64(math.Floor(pt.X / p.cell)),
		int64(math.Floor(pt.Y / p.cell)),
		int64(math.Floor(pt.Z / p.cell)),
	}
}

func (p *vertexPool) register(v topo.VertexID) {
	k := p.key(p.w.Point(v))
	for _, have := range p.grid[k] {
		if have == v {
			return
		}
	}
	p.grid[k] = append(p.grid[k], v)
}

// find returns the nearest pooled vertex within tolerance of pt. The cell
// is twice the tolerance, so scanning the neighbor cells covers the ball.
func (p *vertexPool) find(pt v3.Vec) (topo.VertexID, bool) {
	k := p.key(pt)
	var best topo.VertexID
	bestDist := math.Inf(1)
	found := false
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				cell := [3]int64{k[0] + dx, k[1] + dy, k[2] + dz}
				for _, v := range p.grid[cell] {
					d := p.w.Point(v).Sub(pt).Length()
					if d <= p.tol && d < bestDist {
						best, bestDist, found = v, d, true
					}
				}
			}
		}
	}
	return best, found
}

// faceArc ties a registered arc edge to one of the two faces carrying it.
// side 0 means the face is the curve's first surface, so the UV0 samples
// apply to it.
type faceArc struct {
	edge  topo.EdgeID
	other topo.FaceID
	side  int
}

// splitReq queues one boundary edge split.
type splitReq struct {
	pt v3.Vec
	v  topo.VertexID
}

// mergeArcs registers the trimmed arcs of all pairs in the arena. Endpoint
// positions become pooled vertices, boundary crossings split the crossed
// edges at those vertices, and each arc becomes an edge tagged to both of
// its faces. Runs sequentially in job order, so results are reproducible.
func (e *engine) mergeArcs(outs []pairOut) error {
	pool := newVertexPool(e.w)
	for _, op := range []*operand{&e.a, &e.b} {
		for _, f := range op.orig {
			for _, w := range e.w.Wires(f) {
				for _, eu := range w {
					pool.register(e.w.Front(eu))
				}
			}
		}
	}

	splits := map[topo.EdgeID][]splitReq{}
	type pendArc struct {
		rec         arcRec
		front, back topo.VertexID
	}
	var pending []pendArc

	for i := range outs {
		for _, rec := range outs[i].arcs {
			headPt, tailPt := rec.curve.FrontBack()
			front := e.arcVertex(pool, splits, headPt, rec.headHits)
			back := e.arcVertex(pool, splits, tailPt, rec.tailHits)
			if front == back {
				Logger().Warn("dropping arc collapsing to a point",
					"faceA", uint64(rec.fa), "faceB", uint64(rec.fb))
				continue
			}
			pending = append(pending, pendArc{rec: rec, front: front, back: back})
		}
	}

	if err := e.execSplits(splits); err != nil {
		return err
	}

	for _, p := range pending {
		edge, err := e.w.NewEdge(p.front, p.back, p.rec.curve)
		if err != nil {
			return fmt.Errorf("brep: register intersection arc: %w", err)
		}
		e.arcEdges[edge.ID] = true
		e.faceArcs[p.rec.fa] = append(e.faceArcs[p.rec.fa], faceArc{edge: edge.ID, other: p.rec.fb, side: 0})
		e.faceArcs[p.rec.fb] = append(e.faceArcs[p.rec.fb], faceArc{edge: edge.ID, other: p.rec.fa, side: 1})
	}
	Logger().Debug("merged intersection arcs",
		"arcs", len(pending), "splitEdges", len(splits))
	return nil
}

// arcVertex resolves an arc endpoint to a vertex. Endpoints with boundary
// hits are snapped onto the first crossed edge, so the later split lands
// on its curve. A hit whose vertex coincides with an edge end reuses the
// corner and queues no split there.
func (e *engine) arcVertex(pool *vertexPool, splits map[topo.EdgeID][]splitReq, pt v3.Vec, hits []boundaryHit) topo.VertexID {
	if len(hits) > 0 {
		pt = e.snapToBoundary(pt, hits[0].edge)
	}
	v, ok := pool.find(pt)
	if !ok {
		v = e.w.NewVertex(pt)
		pool.register(v)
	}
	vpt := e.w.Point(v)
	for _, h := range hits {
		fwd := topo.Edge{ID: h.edge, Forward: true}
		fv, bv := e.w.Front(fwd), e.w.Back(fwd)
		if fv == v || bv == v {
			continue
		}
		if e.w.Point(fv).Sub(vpt).Length() <= e.opts.tol ||
			e.w.Point(bv).Sub(vpt).Length() <= e.opts.tol {
			continue
		}
		dup := false
		for _, q := range splits[h.edge] {
			if q.v == v {
				dup = true
				break
			}
		}
		if !dup {
			splits[h.edge] = append(splits[h.edge], splitReq{pt: vpt, v: v})
		}
	}
	return v
}

// snapToBoundary projects an arc endpoint onto a boundary edge curve by
// alternating nearest-point projections between the two curves. The
// returned point lies on the boundary curve.
func (e *engine) snapToBoundary(pt v3.Vec, edge topo.EdgeID) v3.Vec {
	bc := e.w.EdgeCurve(edge)
	if bc == nil {
		return pt
	}
	p := pt
	s, ok := bc.SearchNearestParameter(p, geom.NoHint, e.opts.budget)
	if !ok {
		return pt
	}
	q := bc.Subs(s)
	for range 8 {
		if q.Sub(p).Length() <= e.opts.tol*0.25 {
			break
		}
		p = q
		s, ok = bc.SearchNearestParameter(p, geom.NoHint, e.opts.budget)
		if !ok {
			break
		}
		q = bc.Subs(s)
	}
	return q
}

// execSplits applies the queued boundary splits, walking each edge's
// requests in curve order so successive splits always land on the
// remaining piece.
func (e *engine) execSplits(splits map[topo.EdgeID][]splitReq) error {
	ids := make([]topo.EdgeID, 0, len(splits))
	for id := range splits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		c := e.w.EdgeCurve(id)
		type ordered struct {
			splitReq
			t float64
		}
		ord := make([]ordered, 0, len(splits[id]))
		for _, r := range splits[id] {
			t, ok := c.SearchParameter(r.pt, geom.NoHint, e.opts.budget)
			if !ok {
				return fmt.Errorf("brep: split point off edge %d", id)
			}
			ord = append(ord, ordered{r, t})
		}
		sort.Slice(ord, func(i, j int) bool { return ord[i].t < ord[j].t })

		rest := id
		for _, r := range ord {
			fwd := topo.Edge{ID: rest, Forward: true}
			if e.w.Front(fwd) == r.v || e.w.Back(fwd) == r.v {
				continue
			}
			pieces, err := e.w.SplitEdgeWith(rest, r.pt, r.v)
			if err != nil {
				return fmt.Errorf("brep: split edge %d: %w", id, err)
			}
			rest = pieces[1]
		}
	}
	return nil
}

// cancelMirrors drops coincident face pairs bounding the two operands from
// opposite sides. Their shared rim is glued after division so the faces
// around the seam join into one shell.
func (e *engine) cancelMirrors(jobs []pairJob, outs []pairOut) {
	for i, j := range jobs {
		if !outs[i].coincident {
			continue
		}
		if e.dropped[j.fa] || e.dropped[j.fb] {
			continue
		}
		if !e.mirrorPair(j.fa, j.fb) {
			continue
		}
		e.dropped[j.fa] = true
		e.dropped[j.fb] = true
		e.seams = append(e.seams, [2]topo.FaceID{j.fa, j.fb})
		Logger().Debug("cancelling mirrored faces",
			"faceA", uint64(j.fa), "faceB", uint64(j.fb))
	}
}

// mirrorPair reports whether two coincident faces share their boundary
// vertex set within tolerance and bound space from opposite sides.
// Coincident faces that merely overlap are left alone; the result then
// fails closure validation instead of gluing a partial seam.
func (e *engine) mirrorPair(fa, fb topo.FaceID) bool {
	va := e.boundaryVertexSet(fa)
	vb := e.boundaryVertexSet(fb)
	if len(va) == 0 || len(va) != len(vb) {
		return false
	}
	used := map[topo.VertexID]bool{}
	for _, bv := range vb {
		bp := e.w.Point(bv)
		matched := false
		for _, av := range va {
			if used[av] {
				continue
			}
			if e.w.Point(av).Sub(bp).Length() <= e.opts.tol {
				used[av] = true
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	uvA := e.repUV(fa)
	pt := e.w.Surface(fa).Subs(uvA)
	uvB, ok := e.w.Surface(fb).SearchNearestParameter(pt, geom.NoHintUV, e.opts.budget)
	if !ok {
		return false
	}
	return e.w.Normal(fa, uvA).Dot(e.w.Normal(fb, uvB)) < 0
}

// glueSeams unifies the rims of cancelled mirror pairs. Rim vertices of
// the second face collapse onto the first's, then each rim edge of the
// second is replaced by its counterpart, direction corrected, so shared
// edges appear exactly once.
func (e *engine) glueSeams() error {
	for _, s := range e.seams {
		fa, fb := s[0], s[1]
		va := e.boundaryVertexSet(fa)
		for _, bv := range e.boundaryVertexSet(fb) {
			if !e.w.HasVertex(bv) {
				continue
			}
			bp := e.w.Point(bv)
			for _, av := range va {
				if av == bv || !e.w.HasVertex(av) {
					continue
				}
				if e.w.Point(av).Sub(bp).Length() <= e.opts.tol {
					if err := e.w.ReplaceVertex(bv, av); err != nil {
						return fmt.Errorf("brep: glue seam vertices: %w", err)
					}
					break
				}
			}
		}

		edgesA := e.boundaryEdges(fa)
		for _, eb := range e.boundaryEdges(fb) {
			if !e.w.HasEdge(eb) {
				continue
			}
			bFront := e.w.Front(topo.Edge{ID: eb, Forward: true})
			bBack := e.w.Back(topo.Edge{ID: eb, Forward: true})
			glued := false
			for _, ea := range edgesA {
				if ea == eb || !e.w.HasEdge(ea) {
					continue
				}
				aFront := e.w.Front(topo.Edge{ID: ea, Forward: true})
				aBack := e.w.Back(topo.Edge{ID: ea, Forward: true})
				var keep topo.Edge
				switch {
				case aFront == bFront && aBack == bBack:
					keep = topo.Edge{ID: ea, Forward: true}
				case aFront == bBack && aBack == bFront:
					keep = topo.Edge{ID: ea, Forward: false}
				default:
					continue
				}
				if err := e.w.ReplaceEdge(eb, keep); err != nil {
					return fmt.Errorf("brep: glue seam edges: %w", err)
				}
				glued = true
				break
			}
			if !glued {
				Logger().Warn("seam edge left unglued", "edge", uint64(eb))
			}
		}
	}
	return nil
}

func (e *engine) boundaryVertexSet(f topo.FaceID) []topo.VertexID {
	var vs []topo.VertexID
	seen := map[topo.VertexID]bool{}
	for _, w := range e.w.Wires(f) {
		for _, eu := range w {
			v := e.w.Front(eu)
			if !seen[v] {
				seen[v] = true
				vs = append(vs, v)
			}
		}
	}
	return vs
}

func (e *engine) boundaryEdges(f topo.FaceID) []topo.EdgeID {
	var ids []topo.EdgeID
	seen := map[topo.EdgeID]bool{}
	for _, w := range e.w.Wires(f) {
		for _, eu := range w {
			if !seen[eu.ID] {
				seen[eu.ID] = true
				ids = append(ids, eu.ID)
			}
		}
	}
	return ids
}
