package brep

import (
	"fmt"
	"math"
	"sort"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/dhconnelly/rtreego"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/brep/geom"
	"github.com/gogpu/brep/topo"
)

// uvSeg is one chord of a face boundary lifted into the face's parameter
// space, tagged with the boundary edge it came from.
type uvSeg struct {
	a, b v2.Vec
	edge topo.EdgeID
}

// faceGeo caches what the pairing and trimming phases need per face: the
// boundary polygon in UV, the parameter rectangle around it, and a
// tolerance-inflated spatial box.
type faceGeo struct {
	segs       []uvSeg
	rect       geom.UVRect
	pmin, pmax v3.Vec
}

// liftChordFactor scales the working tolerance into the chord tolerance
// used when flattening boundary curves into UV polygons.
const liftChordFactor = 1e3

// boxChordFactor coarsens the chord tolerance again for the surface grid
// feeding the spatial boxes. The boxes are inflated by the same amount.
const boxChordFactor = 1e2

func (e *engine) buildGeo() {
	for _, op := range []*operand{&e.a, &e.b} {
		for _, f := range op.orig {
			e.geo[f] = e.liftFace(f)
		}
	}
}

// liftFace flattens the stored boundary wires of f into parameter space.
// Stored wires wind counterclockwise in UV whatever the orientation flag,
// so the polygon works directly as an even-odd region test.
func (e *engine) liftFace(f topo.FaceID) *faceGeo {
	surf := e.w.Surface(f)
	chord := e.opts.tol * liftChordFactor
	g := &faceGeo{}

	havePt := false
	addPt := func(p v3.Vec) {
		if !havePt {
			g.pmin, g.pmax = p, p
			havePt = true
			return
		}
		g.pmin = g.pmin.Min(p)
		g.pmax = g.pmax.Max(p)
	}

	hint := geom.NoHintUV
	haveUV := false
	for _, w := range e.w.Wires(f) {
		for _, eu := range w {
			c := e.w.Curve(eu)
			params := c.ParameterDivision(c.ParamRange(), chord)
			var prev v2.Vec
			for i, t := range params {
				p := c.Subs(t)
				uv, ok := surf.SearchNearestParameter(p, hint, e.opts.budget)
				if !ok {
					uv, _ = surf.SearchNearestParameter(p, geom.NoHintUV, e.opts.budget)
				}
				hint = uv
				addPt(p)
				if !haveUV {
					g.rect = geom.UVRect{
						U: geom.Interval{Min: uv.X, Max: uv.X},
						V: geom.Interval{Min: uv.Y, Max: uv.Y},
					}
					haveUV = true
				} else {
					g.rect.U = g.rect.U.Hull(uv.X)
					g.rect.V = g.rect.V.Hull(uv.Y)
				}
				if i > 0 {
					g.segs = append(g.segs, uvSeg{a: prev, b: uv, edge: eu.ID})
				}
				prev = uv
			}
		}
	}
	if !haveUV {
		ur, vr := surf.ParamRange()
		g.rect = geom.UVRect{U: ur, V: vr}
	}

	// A grid over the surface itself catches curvature bulging past the
	// boundary hull, and gives boundary-less faces a box at all.
	boxChord := chord * boxChordFactor
	us, vs := surf.ParameterDivision(g.rect.U, g.rect.V, boxChord)
	for _, u := range us {
		for _, v := range vs {
			addPt(surf.Subs(v2.Vec{X: u, Y: v}))
		}
	}

	pad := boxChord + e.opts.tol
	g.pmin = g.pmin.Sub(v3.Vec{X: pad, Y: pad, Z: pad})
	g.pmax = g.pmax.Add(v3.Vec{X: pad, Y: pad, Z: pad})
	return g
}

func (g *faceGeo) treeRect() (rtreego.Rect, error) {
	return rtreego.NewRectFromPoints(
		rtreego.Point{g.pmin.X, g.pmin.Y, g.pmin.Z},
		rtreego.Point{g.pmax.X, g.pmax.Y, g.pmax.Z},
	)
}

// faceBox adapts a face box to the R-tree's Spatial interface.
type faceBox struct {
	f    topo.FaceID
	rect rtreego.Rect
}

func (b *faceBox) Bounds() rtreego.Rect { return b.rect }

// pairJob is one candidate face pair whose boxes overlap.
type pairJob struct {
	fa, fb topo.FaceID
}

// candidatePairs prunes the face-pair grid with an R-tree over the first
// operand's boxes. The result is ordered by handle so later phases stay
// deterministic whatever order the tree reports.
func (e *engine) candidatePairs() ([]pairJob, error) {
	tree := rtreego.NewTree(3, 2, 8)
	for _, f := range e.a.orig {
		r, err := e.geo[f].treeRect()
		if err != nil {
			return nil, fmt.Errorf("brep: face %d bounds: %w", f, err)
		}
		tree.Insert(&faceBox{f: f, rect: r})
	}
	var jobs []pairJob
	for _, fb := range e.b.orig {
		r, err := e.geo[fb].treeRect()
		if err != nil {
			return nil, fmt.Errorf("brep: face %d bounds: %w", fb, err)
		}
		for _, hit := range tree.SearchIntersect(r) {
			jobs = append(jobs, pairJob{fa: hit.(*faceBox).f, fb: fb})
		}
	}
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].fa != jobs[j].fa {
			return jobs[i].fa < jobs[j].fa
		}
		return jobs[i].fb < jobs[j].fb
	})
	Logger().Debug("candidate face pairs", "count", len(jobs))
	return jobs, nil
}

// pairOut is the geometry produced for one candidate pair.
type pairOut struct {
	coincident bool
	arcs       []arcRec
}

// computePairs runs the per-pair geometry, fanning out across workers when
// parallelism is enabled. Jobs only read the arena and write disjoint
// slots, so the merge phase sees identical results in either mode.
func (e *engine) computePairs(jobs []pairJob) []pairOut {
	outs := make([]pairOut, len(jobs))
	if e.opts.workers <= 1 {
		for i, j := range jobs {
			outs[i] = e.computePair(j)
		}
		return outs
	}
	var g errgroup.Group
	g.SetLimit(e.opts.workers)
	for i, j := range jobs {
		g.Go(func() error {
			outs[i] = e.computePair(j)
			return nil
		})
	}
	_ = g.Wait()
	return outs
}

func (e *engine) computePair(j pairJob) pairOut {
	s0, s1 := e.w.Surface(j.fa), e.w.Surface(j.fb)
	curves, coincident := geom.IntersectSurfaces(s0, s1, e.geo[j.fa].rect, e.geo[j.fb].rect, e.opts.tol, e.opts.budget)
	if coincident {
		return pairOut{coincident: true}
	}
	var out pairOut
	for _, c := range curves {
		out.arcs = append(out.arcs, e.trimPair(j, c)...)
	}
	return out
}

// boundaryHit records that a trimmed arc endpoint lies on a face boundary
// edge, which the merge phase must split there.
type boundaryHit struct {
	face topo.FaceID
	edge topo.EdgeID
}

// arcRec is one trimmed intersection arc between two faces, not yet
// registered in the arena. Endpoints without hits are chain points shared
// with arcs from neighboring pairs.
type arcRec struct {
	fa, fb   topo.FaceID
	curve    *geom.Intersection
	headHits []boundaryHit
	tailHits []boundaryHit
}

// cutPoint is a parameter where an intersection curve crosses a boundary
// polygon.
type cutPoint struct {
	t    float64
	hits []boundaryHit
}

// trimPair cuts one intersection curve against both boundary polygons and
// keeps the intervals lying inside both faces.
func (e *engine) trimPair(j pairJob, c *geom.Intersection) []arcRec {
	samples := c.Samples()
	n := len(samples) - 1
	if n < 1 {
		return nil
	}
	ga, gb := e.geo[j.fa], e.geo[j.fb]
	cuts := e.curveCuts(j, c, samples)
	closed := c.Closed()

	type span struct {
		t0, t1     float64
		head, tail *cutPoint
	}
	var spans []span
	switch {
	case len(cuts) == 0:
		spans = []span{{t0: 0, t1: float64(n)}}
	case closed:
		for i := range cuts {
			next := &cuts[(i+1)%len(cuts)]
			t1 := next.t
			if i == len(cuts)-1 {
				t1 += float64(n)
			}
			spans = append(spans, span{t0: cuts[i].t, t1: t1, head: &cuts[i], tail: next})
		}
	default:
		prevT := 0.0
		var prev *cutPoint
		for i := range cuts {
			spans = append(spans, span{t0: prevT, t1: cuts[i].t, head: prev, tail: &cuts[i]})
			prevT = cuts[i].t
			prev = &cuts[i]
		}
		spans = append(spans, span{t0: prevT, t1: float64(n), head: prev})
	}

	var arcs []arcRec
	for _, sp := range spans {
		if sp.t1-sp.t0 <= 1e-9 {
			continue
		}
		tm := 0.5 * (sp.t0 + sp.t1)
		if tm >= float64(n) {
			tm -= float64(n)
		}
		sm, ok := c.Sample(tm)
		if !ok {
			continue
		}
		if !insideUV(ga.segs, sm.UV0) || !insideUV(gb.segs, sm.UV1) {
			continue
		}
		if closed && len(cuts) == 0 {
			arcs = append(arcs, e.splitLoop(j, c, samples)...)
			continue
		}
		if a, ok := e.buildArc(j, c, samples, sp.t0, sp.t1, sp.head, sp.tail); ok {
			arcs = append(arcs, a)
		}
	}
	return arcs
}

// curveCuts scans the curve's sample chords against both boundary polygons
// and returns the crossings ordered along the curve. Crossings landing on
// the same point, such as the curve leaving both faces through a shared
// corner, are merged into one cut with the hits of both.
func (e *engine) curveCuts(j pairJob, c *geom.Intersection, samples []geom.IntersectionSample) []cutPoint {
	var cuts []cutPoint
	scan := func(face topo.FaceID, segs []uvSeg, uvOf func(geom.IntersectionSample) v2.Vec) {
		for i := 0; i+1 < len(samples); i++ {
			a0, a1 := uvOf(samples[i]), uvOf(samples[i+1])
			for _, sg := range segs {
				if s, ok := segCross(a0, a1, sg.a, sg.b); ok {
					cuts = append(cuts, cutPoint{
						t:    float64(i) + s,
						hits: []boundaryHit{{face: face, edge: sg.edge}},
					})
				}
			}
		}
	}
	scan(j.fa, e.geo[j.fa].segs, func(s geom.IntersectionSample) v2.Vec { return s.UV0 })
	scan(j.fb, e.geo[j.fb].segs, func(s geom.IntersectionSample) v2.Vec { return s.UV1 })
	sort.Slice(cuts, func(i, k int) bool { return cuts[i].t < cuts[k].t })

	var merged []cutPoint
	for _, cp := range cuts {
		if len(merged) > 0 {
			last := &merged[len(merged)-1]
			p0, ok0 := c.Eval(last.t)
			p1, ok1 := c.Eval(cp.t)
			if ok0 && ok1 && p1.Sub(p0).Length() <= e.opts.tol {
				last.hits = append(last.hits, cp.hits...)
				continue
			}
		}
		merged = append(merged, cp)
	}
	return merged
}

// buildArc extracts the kept interval [t0, t1] as a fresh intersection
// curve seeded from the refined cut samples plus the interior marching
// samples. Dangling endpoints are checked against both boundaries so that
// an arc terminating on an edge still splits it.
func (e *engine) buildArc(j pairJob, c *geom.Intersection, samples []geom.IntersectionSample, t0, t1 float64, head, tail *cutPoint) (arcRec, bool) {
	n := len(samples) - 1
	var seed []geom.IntersectionSample

	if head != nil {
		s, ok := c.Sample(t0)
		if !ok {
			return arcRec{}, false
		}
		seed = append(seed, s)
	} else {
		seed = append(seed, samples[0])
	}

	tailSample := samples[n]
	if tail != nil {
		tt := t1
		if tt > float64(n) {
			tt -= float64(n)
		}
		s, ok := c.Sample(tt)
		if !ok {
			return arcRec{}, false
		}
		tailSample = s
	}

	for k := int(math.Floor(t0)) + 1; float64(k) < t1; k++ {
		idx := k
		if idx >= n {
			idx -= n
		}
		s := samples[idx]
		if s.P.Sub(seed[len(seed)-1].P).Length() <= e.opts.tol ||
			s.P.Sub(tailSample.P).Length() <= e.opts.tol {
			continue
		}
		seed = append(seed, s)
	}
	seed = append(seed, tailSample)

	if len(seed) == 2 && seed[0].P.Sub(seed[1].P).Length() <= e.opts.tol {
		Logger().Warn("dropping degenerate intersection arc",
			"faceA", uint64(j.fa), "faceB", uint64(j.fb))
		return arcRec{}, false
	}
	s0, s1 := c.Surfaces()
	arcCurve, err := geom.NewIntersection(s0, s1, seed, e.opts.tol, e.opts.budget)
	if err != nil {
		Logger().Warn("dropping intersection arc",
			"faceA", uint64(j.fa), "faceB", uint64(j.fb), "error", err)
		return arcRec{}, false
	}

	rec := arcRec{fa: j.fa, fb: j.fb, curve: arcCurve}
	if head != nil {
		rec.headHits = head.hits
	} else {
		rec.headHits = e.boundaryTouches(j, seed[0].P)
	}
	if tail != nil {
		rec.tailHits = tail.hits
	} else {
		rec.tailHits = e.boundaryTouches(j, tailSample.P)
	}
	return rec, true
}

// splitLoop keeps a closed intersection loop lying wholly inside both
// faces. The loop becomes two open arcs so vertex and edge records stay
// free of self-loops.
func (e *engine) splitLoop(j pairJob, c *geom.Intersection, samples []geom.IntersectionSample) []arcRec {
	n := len(samples) - 1
	h := n / 2
	if h < 1 || n-h < 1 {
		Logger().Warn("dropping degenerate intersection loop",
			"faceA", uint64(j.fa), "faceB", uint64(j.fb))
		return nil
	}
	s0, s1 := c.Surfaces()
	first, err := geom.NewIntersection(s0, s1, samples[:h+1], e.opts.tol, e.opts.budget)
	if err != nil {
		return nil
	}
	second, err := geom.NewIntersection(s0, s1, samples[h:], e.opts.tol, e.opts.budget)
	if err != nil {
		return nil
	}
	return []arcRec{
		{fa: j.fa, fb: j.fb, curve: first},
		{fa: j.fa, fb: j.fb, curve: second},
	}
}

// boundaryTouches reports the boundary edges of either face that pass
// within tolerance of pt. A dangling arc endpoint touching an edge midway
// is a split request just like a detected crossing.
func (e *engine) boundaryTouches(j pairJob, pt v3.Vec) []boundaryHit {
	var hits []boundaryHit
	for _, fc := range [2]struct {
		f topo.FaceID
		g *faceGeo
	}{{j.fa, e.geo[j.fa]}, {j.fb, e.geo[j.fb]}} {
		seen := map[topo.EdgeID]bool{}
		for _, sg := range fc.g.segs {
			if seen[sg.edge] {
				continue
			}
			seen[sg.edge] = true
			c := e.w.EdgeCurve(sg.edge)
			t, ok := c.SearchNearestParameter(pt, geom.NoHint, e.opts.budget)
			if !ok {
				continue
			}
			if c.Subs(t).Sub(pt).Length() <= e.opts.tol {
				hits = append(hits, boundaryHit{face: fc.f, edge: sg.edge})
			}
		}
	}
	return hits
}

// segCross intersects two segments, returning the fraction along a0 to a1.
// Contacts at segment ends do not count; a curve terminating on a boundary
// is picked up by the touch scan instead.
func segCross(a0, a1, b0, b1 v2.Vec) (float64, bool) {
	dx, dy := a1.X-a0.X, a1.Y-a0.Y
	ex, ey := b1.X-b0.X, b1.Y-b0.Y
	den := dx*ey - dy*ex
	if den == 0 {
		return 0, false
	}
	fx, fy := b0.X-a0.X, b0.Y-a0.Y
	s := (fx*ey - fy*ex) / den
	u := (fx*dy - fy*dx) / den
	if s <= 0 || s >= 1 || u <= 0 || u >= 1 {
		return 0, false
	}
	return s, true
}

// insideUV is an even-odd point test against a lifted boundary polygon. An
// empty polygon means the face covers its whole closed surface.
func insideUV(segs []uvSeg, p v2.Vec) bool {
	if len(segs) == 0 {
		return true
	}
	crossings := 0
	for _, s := range segs {
		if (s.a.Y > p.Y) != (s.b.Y > p.Y) {
			x := s.a.X + (p.Y-s.a.Y)/(s.b.Y-s.a.Y)*(s.b.X-s.a.X)
			if x > p.X {
				crossings++
			}
		}
	}
	return crossings%2 == 1
}
