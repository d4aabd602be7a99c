package brep

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/gogpu/brep/geom"
	"github.com/gogpu/brep/internal/uvsnap"
	"github.com/gogpu/brep/topo"
)

// halfEdge is one directed use of an edge in a face's parameter space.
// Boundary half-edges exist only in their stored wire direction, which
// keeps the face region on the left; arc half-edges exist in both
// directions, each labeled with the status of the region on its left.
type halfEdge struct {
	e        topo.Edge
	from, to topo.VertexID
	uv       []v2.Vec
	arc      *faceArc
	label    Status
	visited  bool
}

// divideAll splits every face crossed by intersection arcs or overlay
// cuts into its regions, replacing the face in its shell listing by the
// sub-faces.
func (e *engine) divideAll() error {
	for _, op := range []*operand{&e.a, &e.b} {
		for si, faces := range op.shells {
			var out []topo.FaceID
			for _, f := range faces {
				arcs := e.faceArcs[f]
				cuts := e.faceCuts[f]
				if (len(arcs) == 0 && len(cuts) == 0) || e.dropped[f] {
					out = append(out, f)
					continue
				}
				subs, err := e.divideFace(f, arcs, cuts)
				if err != nil {
					return err
				}
				e.subsOf[f] = subs
				out = append(out, subs...)
			}
			op.shells[si] = out
		}
	}
	return nil
}

// divideFace partitions f along its arcs and cuts. Every region is
// rebuilt as a face over the parent surface with the parent's
// orientation; the parent record stays in the arena but leaves the shell
// listing.
func (e *engine) divideFace(f topo.FaceID, arcs []faceArc, cuts []topo.EdgeID) ([]topo.FaceID, error) {
	surf := e.w.Surface(f)
	var hes []*halfEdge

	hint := geom.NoHintUV
	for _, w := range e.w.Wires(f) {
		for _, eu := range w {
			hes = append(hes, &halfEdge{
				e:    eu,
				from: e.w.Front(eu),
				to:   e.w.Back(eu),
				uv:   e.liftBoundaryUV(surf, eu, &hint),
			})
		}
	}
	boundaryCount := len(hes)

	sorted := append([]faceArc(nil), arcs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].edge < sorted[j].edge })
	for i := range sorted {
		fa := &sorted[i]
		uv := e.arcUV(fa)
		if len(uv) < 2 {
			return nil, fmt.Errorf("brep: face %d: arc %d has no parameter trace", f, fa.edge)
		}
		lbl := e.arcLabel(f, fa)
		fwd := topo.Edge{ID: fa.edge, Forward: true}
		hes = append(hes, &halfEdge{
			e:     fwd,
			from:  e.w.Front(fwd),
			to:    e.w.Back(fwd),
			uv:    uv,
			arc:   fa,
			label: lbl,
		})
		ruv := make([]v2.Vec, len(uv))
		for k, p := range uv {
			ruv[len(uv)-1-k] = p
		}
		hes = append(hes, &halfEdge{
			e:     fwd.Inverse(),
			from:  e.w.Back(fwd),
			to:    e.w.Front(fwd),
			uv:    ruv,
			arc:   fa,
			label: flipStatus(lbl),
		})
	}

	// Cut edges are another face's boundary pieces running through this
	// face. They carry no region status of their own; the regions they
	// bound classify by location after the overlap twins resolve.
	sortedCuts := append([]topo.EdgeID(nil), cuts...)
	sort.Slice(sortedCuts, func(i, j int) bool { return sortedCuts[i] < sortedCuts[j] })
	for _, id := range sortedCuts {
		fwd := topo.Edge{ID: id, Forward: true}
		cutHint := geom.NoHintUV
		uv := e.liftBoundaryUV(surf, fwd, &cutHint)
		if len(uv) < 2 {
			return nil, fmt.Errorf("brep: face %d: cut %d has no parameter trace", f, id)
		}
		hes = append(hes, &halfEdge{
			e:    fwd,
			from: e.w.Front(fwd),
			to:   e.w.Back(fwd),
			uv:   uv,
		})
		ruv := make([]v2.Vec, len(uv))
		for k, p := range uv {
			ruv[len(uv)-1-k] = p
		}
		hes = append(hes, &halfEdge{
			e:    fwd.Inverse(),
			from: e.w.Back(fwd),
			to:   e.w.Front(fwd),
			uv:   ruv,
		})
	}

	out := map[topo.VertexID][]*halfEdge{}
	for _, he := range hes {
		out[he.from] = append(out[he.from], he)
	}

	var orbits [][]*halfEdge
	for _, he := range hes {
		if he.visited {
			continue
		}
		orbit, err := walkOrbit(out, he, len(hes))
		if err != nil {
			return nil, fmt.Errorf("brep: dividing face %d: %w", f, err)
		}
		orbits = append(orbits, orbit)
	}

	// Positive loops bound regions; negative loops are holes of the
	// smallest region containing them. A face covering a closed surface
	// has no outer boundary, so there every loop bounds a region.
	type region struct {
		outer []*halfEdge
		poly  []v2.Vec
		holes [][]*halfEdge
		area  float64
		label Status
	}
	closedSurf := boundaryCount == 0
	minArea := 100 * e.opts.tol * e.opts.tol
	var regions []region
	var holes [][]*halfEdge
	for _, orbit := range orbits {
		poly := orbitPoly(orbit)
		area := polyArea(poly)
		if math.Abs(area) <= minArea {
			Logger().Warn("dropping degenerate region loop",
				"face", uint64(f), "error", ErrDegenerateLoop)
			continue
		}
		if closedSurf || area > 0 {
			regions = append(regions, region{outer: orbit, poly: poly, area: area})
		} else {
			holes = append(holes, orbit)
		}
	}
	if len(regions) == 0 {
		Logger().Warn("division left no regions, face kept whole", "face", uint64(f))
		return []topo.FaceID{f}, nil
	}
	for _, h := range holes {
		p := regionRep(orbitPoly(h), nil)
		hset := orbitEdgeSet(h)
		best := -1
		bestArea := math.Inf(1)
		for i, r := range regions {
			// The island bounded by the same loop shares the hole's edges
			// and must not adopt it.
			if sameEdgeSet(hset, orbitEdgeSet(r.outer)) {
				continue
			}
			if r.area < bestArea && insidePoly(r.poly, p) {
				best, bestArea = i, r.area
			}
		}
		if best < 0 {
			Logger().Warn("hole loop outside all regions", "face", uint64(f))
			continue
		}
		regions[best].holes = append(regions[best].holes, h)
	}

	for i := range regions {
		r := &regions[i]
		conflict := false
		scan := func(loop []*halfEdge) {
			for _, he := range loop {
				if he.arc == nil || he.label == StatusUnknown {
					continue
				}
				if r.label == StatusUnknown {
					r.label = he.label
				} else if r.label != he.label {
					conflict = true
				}
			}
		}
		scan(r.outer)
		for _, h := range r.holes {
			scan(h)
		}
		if conflict {
			Logger().Warn("conflicting region labels", "face", uint64(f))
			r.label = StatusUnknown
		}
	}

	var made []topo.FaceID
	for i := range regions {
		r := &regions[i]
		wires := make([]topo.Wire, 0, 1+len(r.holes))
		holePolys := make([][]v2.Vec, 0, len(r.holes))
		wires = append(wires, orbitWire(r.outer))
		for _, h := range r.holes {
			wires = append(wires, orbitWire(h))
			holePolys = append(holePolys, orbitPoly(h))
		}
		nf, err := e.w.NewFace(surf, e.w.Orientation(f), wires...)
		if err != nil {
			return nil, fmt.Errorf("brep: assembling sub-face of %d: %w", f, err)
		}
		e.labels[nf] = r.label
		// Sub-faces have no lifted geometry; a region-interior parameter
		// point stands in for later orientation and parity checks.
		e.faceRep[nf] = regionRep(r.poly, holePolys)
		made = append(made, nf)
	}
	Logger().Debug("divided face", "face", uint64(f), "regions", len(made))

	if e.opts.snapdir != "" {
		loops := make([]uvsnap.Loop, 0, len(regions))
		for i := range regions {
			loops = append(loops, uvsnap.Loop{
				Pts:   regions[i].poly,
				Shade: statusShade(regions[i].label),
			})
		}
		path := filepath.Join(e.opts.snapdir, fmt.Sprintf("face-%05d.png", uint64(f)))
		if err := uvsnap.Write(path, 512, loops); err != nil {
			Logger().Warn("uv snapshot failed", "face", uint64(f), "error", err)
		}
	}
	return made, nil
}

func statusShade(s Status) uint8 {
	switch s {
	case StatusAnd:
		return 64
	case StatusOr:
		return 192
	}
	return 128
}

// liftBoundaryUV flattens one boundary edge use into parameter space,
// chaining the projection hint across calls so periodic surfaces unwrap
// continuously.
func (e *engine) liftBoundaryUV(surf geom.Surface, eu topo.Edge, hint *v2.Vec) []v2.Vec {
	c := e.w.Curve(eu)
	params := c.ParameterDivision(c.ParamRange(), e.opts.tol*liftChordFactor)
	uv := make([]v2.Vec, len(params))
	for i, t := range params {
		q, ok := surf.SearchNearestParameter(c.Subs(t), *hint, e.opts.budget)
		if !ok {
			q, _ = surf.SearchNearestParameter(c.Subs(t), geom.NoHintUV, e.opts.budget)
		}
		uv[i] = q
		*hint = q
	}
	return uv
}

// arcUV returns the arc's parameter trace on the face's side of the
// intersection curve, in the edge's stored direction.
func (e *engine) arcUV(fa *faceArc) []v2.Vec {
	c, ok := e.w.EdgeCurve(fa.edge).(*geom.Intersection)
	if !ok {
		return nil
	}
	samples := c.Samples()
	uv := make([]v2.Vec, len(samples))
	for i, s := range samples {
		if fa.side == 0 {
			uv[i] = s.UV0
		} else {
			uv[i] = s.UV1
		}
	}
	return uv
}

// arcLabel computes the status of the region left of the arc's forward
// direction in f's parameter space. The common region of the two solids
// lies left of the carrier normal crossed with the other face's outward
// normal, in stored-wire coordinates, for either orientation flag.
func (e *engine) arcLabel(f topo.FaceID, fa *faceArc) Status {
	c, ok := e.w.EdgeCurve(fa.edge).(*geom.Intersection)
	if !ok {
		return StatusUnknown
	}
	tm := c.ParamRange().Mid()
	s, ok := c.Sample(tm)
	if !ok {
		return StatusUnknown
	}
	uvSelf, uvOther := s.UV0, s.UV1
	if fa.side == 1 {
		uvSelf, uvOther = s.UV1, s.UV0
	}
	carrier := e.w.Surface(f).Normal(uvSelf)
	other := e.w.Normal(fa.other, uvOther)
	dot := c.Der(tm).Dot(carrier.Cross(other))
	switch {
	case dot > 0:
		return StatusAnd
	case dot < 0:
		return StatusOr
	}
	Logger().Warn("tangential arc, region label unknown", "edge", uint64(fa.edge))
	return StatusUnknown
}

func flipStatus(s Status) Status {
	switch s {
	case StatusAnd:
		return StatusOr
	case StatusOr:
		return StatusAnd
	}
	return StatusUnknown
}

// walkOrbit traces one region loop. At each head vertex the walk turns as
// sharply counterclockwise as possible, which keeps the enclosed region on
// the left and separates touching loops.
func walkOrbit(out map[topo.VertexID][]*halfEdge, start *halfEdge, total int) ([]*halfEdge, error) {
	orbit := []*halfEdge{start}
	start.visited = true
	cur := start
	for steps := 0; ; steps++ {
		if steps > total {
			return nil, fmt.Errorf("region walk does not close")
		}
		nxt, ok := nextHalfEdge(out, cur)
		if !ok {
			return nil, fmt.Errorf("region walk ends at a dead vertex")
		}
		if nxt == start {
			return orbit, nil
		}
		if nxt.visited {
			return nil, fmt.Errorf("region walk crossed itself")
		}
		nxt.visited = true
		orbit = append(orbit, nxt)
		cur = nxt
	}
}

// nextHalfEdge picks the outgoing half-edge making the sharpest
// counterclockwise turn relative to arriving along cur. The reverse of
// cur itself is a last resort, taken only at a dead end.
func nextHalfEdge(out map[topo.VertexID][]*halfEdge, cur *halfEdge) (*halfEdge, bool) {
	in := chordInto(cur)
	ref := v2.Vec{X: -in.X, Y: -in.Y}
	var best, twin *halfEdge
	bestAng := math.Inf(-1)
	for _, cand := range out[cur.to] {
		if cand.e.ID == cur.e.ID && cand.e.Forward != cur.e.Forward {
			twin = cand
			continue
		}
		ang := ccwFrom(ref, chordFrom(cand))
		if ang > bestAng || (ang == bestAng && best != nil && cand.e.ID < best.e.ID) {
			best, bestAng = cand, ang
		}
	}
	if best != nil {
		return best, true
	}
	if twin != nil {
		return twin, true
	}
	return nil, false
}

// ccwFrom returns the counterclockwise angle from a to b in (0, 2*pi].
func ccwFrom(a, b v2.Vec) float64 {
	ang := math.Atan2(a.X*b.Y-a.Y*b.X, a.X*b.X+a.Y*b.Y)
	if ang <= 0 {
		ang += 2 * math.Pi
	}
	return ang
}

func chordFrom(he *halfEdge) v2.Vec {
	p0 := he.uv[0]
	for _, p := range he.uv[1:] {
		d := v2.Vec{X: p.X - p0.X, Y: p.Y - p0.Y}
		if d.X != 0 || d.Y != 0 {
			return d
		}
	}
	return v2.Vec{X: 1}
}

func chordInto(he *halfEdge) v2.Vec {
	pn := he.uv[len(he.uv)-1]
	for i := len(he.uv) - 2; i >= 0; i-- {
		d := v2.Vec{X: pn.X - he.uv[i].X, Y: pn.Y - he.uv[i].Y}
		if d.X != 0 || d.Y != 0 {
			return d
		}
	}
	return v2.Vec{X: 1}
}

func orbitWire(orbit []*halfEdge) topo.Wire {
	w := make(topo.Wire, len(orbit))
	for i, he := range orbit {
		w[i] = he.e
	}
	return w
}

// orbitPoly concatenates the loop's lifted points, one entry per chord
// start, closing implicitly.
func orbitPoly(orbit []*halfEdge) []v2.Vec {
	var poly []v2.Vec
	for _, he := range orbit {
		if len(he.uv) > 1 {
			poly = append(poly, he.uv[:len(he.uv)-1]...)
		} else {
			poly = append(poly, he.uv...)
		}
	}
	return poly
}

func polyArea(poly []v2.Vec) float64 {
	area := 0.0
	for i := range poly {
		j := (i + 1) % len(poly)
		area += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return 0.5 * area
}

func insidePoly(poly []v2.Vec, p v2.Vec) bool {
	crossings := 0
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)/(b.Y-a.Y)*(b.X-a.X)
			if x > p.X {
				crossings++
			}
		}
	}
	return crossings%2 == 1
}

func orbitEdgeSet(orbit []*halfEdge) map[topo.EdgeID]bool {
	s := make(map[topo.EdgeID]bool, len(orbit))
	for _, he := range orbit {
		s[he.e.ID] = true
	}
	return s
}

// regionRep picks a parameter point interior to a loop and outside the
// given holes: the vertex centroid when it qualifies, otherwise samples
// between the centroid and the loop points.
func regionRep(outer []v2.Vec, holes [][]v2.Vec) v2.Vec {
	in := func(p v2.Vec) bool {
		if !insidePoly(outer, p) {
			return false
		}
		for _, h := range holes {
			if insidePoly(h, p) {
				return false
			}
		}
		return true
	}
	var c v2.Vec
	for _, p := range outer {
		c = c.Add(p)
	}
	c = c.MulScalar(1 / float64(len(outer)))
	if in(c) {
		return c
	}
	for _, s := range []float64{0.5, 0.75, 0.25} {
		for _, p := range outer {
			m := v2.Vec{X: c.X + (p.X-c.X)*s, Y: c.Y + (p.Y-c.Y)*s}
			if in(m) {
				return m
			}
		}
	}
	return c
}
