package brep

import (
	"fmt"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gogpu/brep/geom"
	"github.com/gogpu/brep/topo"
)

// overlayCoincident resolves coincident planar face pairs whose boundaries
// do not mirror each other. The boundaries are arranged against each other
// in the shared plane: coincident rim vertices unify, each boundary splits
// where the other's vertices and chords land on it, and the pieces of
// either boundary running through the other face's interior become
// division cuts of that face. Cut edges are borrowed across the pair, so
// after division the two copies of the shared region carry identical wire
// edge sets and resolveOverlaps can reconcile them by identity.
func (e *engine) overlayCoincident(jobs []pairJob, outs []pairOut) error {
	var live [][2]topo.FaceID
	for i, j := range jobs {
		if !outs[i].coincident || e.dropped[j.fa] || e.dropped[j.fb] {
			continue
		}
		if !e.planarPair(j) {
			Logger().Warn("coincident non-planar face pair left unresolved",
				"faceA", uint64(j.fa), "faceB", uint64(j.fb))
			continue
		}
		live = append(live, [2]topo.FaceID{j.fa, j.fb})
	}
	if len(live) == 0 {
		return nil
	}

	// Unification retires vertices, so it runs to completion before any
	// vertex is pooled or queued for a split.
	for _, pr := range live {
		if err := e.unifyRims(pr[0], pr[1]); err != nil {
			return err
		}
	}

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
	for _, pr := range live {
		e.queueVertexSplits(pr[0], pr[1], splits)
		e.queueVertexSplits(pr[1], pr[0], splits)
		e.queueCrossSplits(pr[0], pr[1], pool, splits)
	}
	if err := e.execSplits(splits); err != nil {
		return err
	}

	for _, pr := range live {
		if err := e.mergeRims(pr[0], pr[1]); err != nil {
			return err
		}
	}
	for _, pr := range live {
		e.collectCuts(pr[0], pr[1])
		e.collectCuts(pr[1], pr[0])
	}
	e.overlaps = append(e.overlaps, live...)
	Logger().Debug("overlaid coincident faces", "pairs", len(live), "splitEdges", len(splits))
	return nil
}

// planarPair reports whether both carriers of a coincident pair are
// planes. The overlay arranges boundaries by lifting them into one shared
// parameter frame, which only a plane pair guarantees to agree on.
func (e *engine) planarPair(j pairJob) bool {
	_, okA := e.w.Surface(j.fa).(geom.Plane)
	_, okB := e.w.Surface(j.fb).(geom.Plane)
	return okA && okB
}

// unifyRims collapses boundary vertices of the second face onto coincident
// vertices of the first, so seam pieces meet by handle identity.
func (e *engine) unifyRims(fa, fb topo.FaceID) error {
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
					return fmt.Errorf("brep: unify coincident rims: %w", err)
				}
				break
			}
		}
	}
	return nil
}

// queueVertexSplits queues a split of fy's boundary wherever a boundary
// vertex of fx sits mid-edge on it. The vertex itself is reused, so the
// resulting pieces chain through a handle both faces share.
func (e *engine) queueVertexSplits(fx, fy topo.FaceID, splits map[topo.EdgeID][]splitReq) {
	edges := e.boundaryEdges(fy)
	for _, v := range e.boundaryVertexSet(fx) {
		vp := e.w.Point(v)
		for _, id := range edges {
			fwd := topo.Edge{ID: id, Forward: true}
			if e.w.Front(fwd) == v || e.w.Back(fwd) == v {
				continue
			}
			c := e.w.EdgeCurve(id)
			t, ok := c.SearchNearestParameter(vp, geom.NoHint, e.opts.budget)
			if !ok {
				continue
			}
			q := c.Subs(t)
			if q.Sub(vp).Length() > e.opts.tol {
				continue
			}
			if q.Sub(e.w.Point(e.w.Front(fwd))).Length() <= e.opts.tol ||
				q.Sub(e.w.Point(e.w.Back(fwd))).Length() <= e.opts.tol {
				continue
			}
			queueSplit(splits, id, splitReq{pt: q, v: v})
		}
	}
}

// queueCrossSplits finds transversal boundary crossings of the pair in the
// first face's parameter frame and queues a split of both crossed edges at
// a pooled vertex.
func (e *engine) queueCrossSplits(fa, fb topo.FaceID, pool *vertexPool, splits map[topo.EdgeID][]splitReq) {
	surf := e.w.Surface(fa)
	for _, ca := range e.planeChords(surf, fa) {
		for _, cb := range e.planeChords(surf, fb) {
			s, ok := segCross(ca.a, ca.b, cb.a, cb.b)
			if !ok {
				continue
			}
			uv := v2.Vec{
				X: ca.a.X + s*(ca.b.X-ca.a.X),
				Y: ca.a.Y + s*(ca.b.Y-ca.a.Y),
			}
			pt := e.snapToBoundary(surf.Subs(uv), ca.edge)
			v, found := pool.find(pt)
			if !found {
				v = e.w.NewVertex(pt)
				pool.register(v)
			}
			vp := e.w.Point(v)
			for _, id := range [2]topo.EdgeID{ca.edge, cb.edge} {
				fwd := topo.Edge{ID: id, Forward: true}
				if e.w.Front(fwd) == v || e.w.Back(fwd) == v {
					continue
				}
				if e.w.Point(e.w.Front(fwd)).Sub(vp).Length() <= e.opts.tol ||
					e.w.Point(e.w.Back(fwd)).Sub(vp).Length() <= e.opts.tol {
					continue
				}
				queueSplit(splits, id, splitReq{pt: vp, v: v})
			}
		}
	}
}

// queueSplit appends one split request, dropping duplicates for the same
// vertex.
func queueSplit(splits map[topo.EdgeID][]splitReq, id topo.EdgeID, r splitReq) {
	for _, q := range splits[id] {
		if q.v == r.v {
			return
		}
	}
	splits[id] = append(splits[id], r)
}

// planeChords lifts the current boundary wires of f into the given
// surface's parameter space, one tagged chord per polyline step.
func (e *engine) planeChords(surf geom.Surface, f topo.FaceID) []uvSeg {
	var segs []uvSeg
	hint := geom.NoHintUV
	for _, w := range e.w.Wires(f) {
		for _, eu := range w {
			uv := e.liftBoundaryUV(surf, eu, &hint)
			for i := 0; i+1 < len(uv); i++ {
				segs = append(segs, uvSeg{a: uv[i], b: uv[i+1], edge: eu.ID})
			}
		}
	}
	return segs
}

// mergeRims replaces boundary pieces of fb duplicating a piece of fa with
// the fa piece, direction corrected. Collinear rim stretches of the pair
// split into congruent pieces, and the divided copies of the shared region
// only reconcile by edge identity when each such piece appears once.
func (e *engine) mergeRims(fa, fb topo.FaceID) error {
	edgesA := e.boundaryEdges(fa)
	for _, eb := range e.boundaryEdges(fb) {
		if !e.w.HasEdge(eb) {
			continue
		}
		bc := e.w.EdgeCurve(eb)
		if bc == nil {
			continue
		}
		fwd := topo.Edge{ID: eb, Forward: true}
		bFront, bBack := e.w.Front(fwd), e.w.Back(fwd)
		mid := bc.Subs(bc.ParamRange().Mid())
		for _, ea := range edgesA {
			if ea == eb || !e.w.HasEdge(ea) {
				continue
			}
			afwd := topo.Edge{ID: ea, Forward: true}
			aFront, aBack := e.w.Front(afwd), e.w.Back(afwd)
			var keep topo.Edge
			switch {
			case aFront == bFront && aBack == bBack:
				keep = topo.Edge{ID: ea, Forward: true}
			case aFront == bBack && aBack == bFront:
				keep = topo.Edge{ID: ea, Forward: false}
			default:
				continue
			}
			ac := e.w.EdgeCurve(ea)
			t, ok := ac.SearchNearestParameter(mid, geom.NoHint, e.opts.budget)
			if !ok || ac.Subs(t).Sub(mid).Length() > e.opts.tol {
				continue
			}
			if err := e.w.ReplaceEdge(eb, keep); err != nil {
				return fmt.Errorf("brep: merge overlapping rims: %w", err)
			}
			break
		}
	}
	return nil
}

// collectCuts records the boundary pieces of donor that run through the
// interior of host. After the overlay splits, a donor edge lies wholly
// inside, wholly outside, or along the host rim, so its midpoint decides.
// Rim-collinear pieces are not cuts.
func (e *engine) collectCuts(host, donor topo.FaceID) {
	surf := e.w.Surface(host)
	g := e.geo[host]
	have := map[topo.EdgeID]bool{}
	for _, id := range e.faceCuts[host] {
		have[id] = true
	}
	rim := e.boundaryEdges(host)
	for _, id := range e.boundaryEdges(donor) {
		if have[id] {
			continue
		}
		c := e.w.EdgeCurve(id)
		if c == nil {
			continue
		}
		p := c.Subs(c.ParamRange().Mid())
		if e.nearAnyEdge(rim, p) {
			continue
		}
		uv, ok := surf.SearchNearestParameter(p, geom.NoHintUV, e.opts.budget)
		if !ok || !insideUV(g.segs, uv) {
			continue
		}
		have[id] = true
		e.faceCuts[host] = append(e.faceCuts[host], id)
	}
}

// nearAnyEdge reports whether p lies within tolerance of any listed edge.
func (e *engine) nearAnyEdge(edges []topo.EdgeID, p v3.Vec) bool {
	for _, id := range edges {
		c := e.w.EdgeCurve(id)
		if c == nil {
			continue
		}
		t, ok := c.SearchNearestParameter(p, geom.NoHint, e.opts.budget)
		if !ok {
			continue
		}
		if c.Subs(t).Sub(p).Length() <= e.opts.tol {
			return true
		}
	}
	return false
}

// resolveOverlaps reconciles the divided pieces of each overlaid pair.
// The two pieces covering the shared region carry identical wire edge
// sets, so they match by identity. Opposite-facing twins cancel like
// mirrored faces; same-facing twins cover one surface twice, so the
// second operand's copy drops and the first's takes the membership the
// operation selects for. Either way the twin rim becomes a label barrier
// and the faces beyond it classify by location.
func (e *engine) resolveOverlaps() {
	for _, pr := range e.overlaps {
		subsA := e.pieces(pr[0])
		subsB := e.pieces(pr[1])
		for _, sa := range subsA {
			if e.dropped[sa] {
				continue
			}
			aset := edgeIDSet(e.boundaryEdges(sa))
			for _, sb := range subsB {
				if sb == sa || e.dropped[sb] {
					continue
				}
				if !sameEdgeSet(aset, edgeIDSet(e.boundaryEdges(sb))) {
					continue
				}
				e.resolveTwin(sa, sb)
				break
			}
		}
	}
}

// pieces returns the live descendants of f after division.
func (e *engine) pieces(f topo.FaceID) []topo.FaceID {
	if subs, ok := e.subsOf[f]; ok {
		return subs
	}
	return []topo.FaceID{f}
}

func (e *engine) resolveTwin(sa, sb topo.FaceID) {
	uvA := e.repUV(sa)
	pt := e.w.Surface(sa).Subs(uvA)
	uvB, ok := e.w.Surface(sb).SearchNearestParameter(pt, geom.NoHintUV, e.opts.budget)
	if !ok {
		Logger().Warn("overlap twin orientation check failed",
			"faceA", uint64(sa), "faceB", uint64(sb))
		return
	}
	opposite := e.w.Normal(sa, uvA).Dot(e.w.Normal(sb, uvB)) < 0
	e.dropped[sb] = true
	if opposite {
		e.dropped[sa] = true
	} else {
		e.labels[sa] = e.want
	}
	for _, id := range e.boundaryEdges(sa) {
		e.rimEdges[id] = true
	}
	Logger().Debug("resolved overlap twins",
		"faceA", uint64(sa), "faceB", uint64(sb), "opposite", opposite)
}

func edgeIDSet(ids []topo.EdgeID) map[topo.EdgeID]bool {
	s := make(map[topo.EdgeID]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

func sameEdgeSet(a, b map[topo.EdgeID]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}
