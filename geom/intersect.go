package geom

import (
	"math"
	"sort"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gogpu/brep/internal/newton"
)

// doubleCorrect pushes seed onto both surfaces at once. Each trial projects
// the estimate onto the two tangent planes by solving the normal system;
// parallel normals abort the correction as tangential contact.
func doubleCorrect(s0, s1 Surface, seed v3.Vec, h0, h1 v2.Vec, budget int) (pt v3.Vec, q0, q1 v2.Vec, converged bool) {
	if budget <= 0 {
		budget = DefaultBudget
	}
	q0, q1 = h0, h1
	pt, converged = newton.Project(seed, func(p v3.Vec) (v3.Vec, bool) {
		g0, ok0 := s0.SearchNearestParameter(p, q0, budget)
		g1, ok1 := s1.SearchNearestParameter(p, q1, budget)
		if !ok0 || !ok1 {
			return p, false
		}
		q0, q1 = g0, g1
		pt0, n0 := s0.Subs(q0), s0.Normal(q0)
		pt1, n1 := s1.Subs(q1), s1.Normal(q1)
		a, b, ok := newton.Solve2(
			n0.Dot(n0), n0.Dot(n1),
			n0.Dot(n1), n1.Dot(n1),
			pt0.Sub(p).Dot(n0), pt1.Sub(p).Dot(n1),
		)
		if !ok {
			return p, false
		}
		return p.Add(n0.MulScalar(a)).Add(n1.MulScalar(b)), true
	}, budget, Tolerance)
	return pt, q0, q1, converged
}

// IntersectSurfaces traces the transversal intersection of s0 over r0 with
// s1. The zero set of the signed gap between the surfaces is contoured on
// an adaptive sample grid of s0, and every contour vertex is refined by the
// double projection. Chains are oriented along n0 x n1.
//
// r1 seeds the projections onto s1, which matters when s1 is periodic and
// the rectangle selects a branch of the seam.
//
// The second result reports surface coincidence over the sampled region:
// every sample within tol of s1. Coincident patches yield no curves, and
// tangential contact aborts chain refinement, so isolated touch points
// yield none either.
func IntersectSurfaces(s0, s1 Surface, r0, r1 UVRect, tol float64, budget int) ([]*Intersection, bool) {
	if tol <= 0 {
		tol = Tolerance
	}
	if budget <= 0 {
		budget = DefaultBudget
	}
	g := newGapGrid(s0, s1, r0, r1, tol, budget)
	if g == nil {
		return nil, false
	}
	if g.coincident {
		return nil, true
	}
	var curves []*Intersection
	for _, chain := range g.contour() {
		if c := g.refineChain(chain, tol, budget); c != nil {
			curves = append(curves, c)
		}
	}
	return curves, false
}

// gapGrid samples s0 over a parameter rectangle and stores, per sample, the
// projection onto s1 and the signed gap along s1's normal.
type gapGrid struct {
	s0, s1     Surface
	us, vs     []float64
	q1         [][]v2.Vec
	gap        [][]float64
	valid      [][]bool
	cross      map[crossKey]crossing
	coincident bool
}

// gridFloor is the minimum sample count per axis; coarser grids miss
// features smaller than a cell.
const gridFloor = 17

func newGapGrid(s0, s1 Surface, r0, r1 UVRect, tol float64, budget int) *gapGrid {
	if r0.U.Span() <= 0 || r0.V.Span() <= 0 {
		return nil
	}
	extent := patchExtent(s0, r0)
	if extent <= 0 {
		return nil
	}
	us, vs := s0.ParameterDivision(r0.U, r0.V, extent/32)
	us = densify(us, gridFloor)
	vs = densify(vs, gridFloor)

	g := &gapGrid{
		s0: s0, s1: s1, us: us, vs: vs,
		q1:    make([][]v2.Vec, len(us)),
		gap:   make([][]float64, len(us)),
		valid: make([][]bool, len(us)),
		cross: map[crossKey]crossing{},
	}
	all := true
	rowHint := v2.Vec{X: r1.U.Mid(), Y: r1.V.Mid()}
	for i := range us {
		g.q1[i] = make([]v2.Vec, len(vs))
		g.gap[i] = make([]float64, len(vs))
		g.valid[i] = make([]bool, len(vs))
		hint := rowHint
		for j := range vs {
			p := s0.Subs(v2.Vec{X: us[i], Y: vs[j]})
			q, ok := s1.SearchNearestParameter(p, hint, budget)
			if !ok {
				all = false
				continue
			}
			d := p.Sub(s1.Subs(q)).Dot(s1.Normal(q))
			if d == 0 {
				d = zeroNudge
			}
			g.q1[i][j] = q
			g.gap[i][j] = d
			g.valid[i][j] = true
			hint = q
			if j == 0 {
				rowHint = q
			}
			if math.Abs(d) > tol {
				all = false
			}
		}
	}
	g.coincident = all
	return g
}

// patchExtent estimates the 3-space size of the sampled patch from its
// corner and center evaluations.
func patchExtent(s Surface, r UVRect) float64 {
	pts := []v3.Vec{
		s.Subs(v2.Vec{X: r.U.Min, Y: r.V.Min}),
		s.Subs(v2.Vec{X: r.U.Max, Y: r.V.Min}),
		s.Subs(v2.Vec{X: r.U.Min, Y: r.V.Max}),
		s.Subs(v2.Vec{X: r.U.Max, Y: r.V.Max}),
		s.Subs(v2.Vec{X: r.U.Mid(), Y: r.V.Mid()}),
	}
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		lo, hi = lo.Min(p), hi.Max(p)
	}
	return hi.Sub(lo).Length()
}

// densify splits grid cells uniformly until the axis has at least n values.
func densify(axis []float64, n int) []float64 {
	for len(axis) < n {
		next := make([]float64, 0, 2*len(axis)-1)
		for i := 0; i+1 < len(axis); i++ {
			next = append(next, axis[i], 0.5*(axis[i]+axis[i+1]))
		}
		axis = append(next, axis[len(axis)-1])
	}
	return axis
}

// zeroNudge resolves samples that land exactly on the intersection; the
// contour shifts by far less than any tolerance.
const zeroNudge = 1e-30

// crossKey identifies a grid edge: the lower corner (i, j) and the axis the
// edge runs along.
type crossKey struct {
	i, j  int
	along int // 0: u axis, 1: v axis
}

type crossing struct {
	uv0 v2.Vec
	q1  v2.Vec
}

// contour runs marching squares over the gap signs and links the resulting
// segments into chains of grid-edge keys.
func (g *gapGrid) contour() [][]crossKey {
	for i := 0; i+1 < len(g.us); i++ {
		for j := range g.vs {
			g.edgeCrossing(crossKey{i, j, 0}, i, j, i+1, j)
		}
	}
	for i := range g.us {
		for j := 0; j+1 < len(g.vs); j++ {
			g.edgeCrossing(crossKey{i, j, 1}, i, j, i, j+1)
		}
	}

	adj := map[crossKey][]crossKey{}
	link := func(a, b crossKey) {
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}
	for i := 0; i+1 < len(g.us); i++ {
		for j := 0; j+1 < len(g.vs); j++ {
			var keys []crossKey
			for _, k := range [4]crossKey{
				{i, j, 0}, {i, j + 1, 0}, {i, j, 1}, {i + 1, j, 1},
			} {
				if _, ok := g.cross[k]; ok {
					keys = append(keys, k)
				}
			}
			switch len(keys) {
			case 2:
				link(keys[0], keys[1])
			case 4:
				// Saddle cell; the center sign picks the pairing.
				bottom, top := crossKey{i, j, 0}, crossKey{i, j + 1, 0}
				left, right := crossKey{i, j, 1}, crossKey{i + 1, j, 1}
				center := 0.25 * (g.gap[i][j] + g.gap[i+1][j] + g.gap[i][j+1] + g.gap[i+1][j+1])
				if (center > 0) == (g.gap[i][j] > 0) {
					link(bottom, right)
					link(top, left)
				} else {
					link(bottom, left)
					link(top, right)
				}
			}
		}
	}
	return g.linkChains(adj)
}

func (g *gapGrid) edgeCrossing(key crossKey, i0, j0, i1, j1 int) {
	if !g.valid[i0][j0] || !g.valid[i1][j1] {
		return
	}
	a, b := g.gap[i0][j0], g.gap[i1][j1]
	if a*b >= 0 {
		return
	}
	s := a / (a - b)
	uv0 := v2.Vec{
		X: g.us[i0] + s*(g.us[i1]-g.us[i0]),
		Y: g.vs[j0] + s*(g.vs[j1]-g.vs[j0]),
	}
	g.cross[key] = crossing{uv0: uv0, q1: lerp2(g.q1[i0][j0], g.q1[i1][j1], s)}
}

// linkChains walks the crossing adjacency into maximal open or closed
// chains, in deterministic key order.
func (g *gapGrid) linkChains(adj map[crossKey][]crossKey) [][]crossKey {
	keys := make([]crossKey, 0, len(g.cross))
	for k := range g.cross {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		ka, kb := keys[a], keys[b]
		if ka.i != kb.i {
			return ka.i < kb.i
		}
		if ka.j != kb.j {
			return ka.j < kb.j
		}
		return ka.along < kb.along
	})

	visited := map[crossKey]bool{}
	var chains [][]crossKey
	for _, start := range keys {
		if visited[start] || len(adj[start]) == 0 {
			continue
		}
		if chain := walkChain(start, adj, visited); len(chain) >= 2 {
			chains = append(chains, chain)
		}
	}
	return chains
}

func walkChain(start crossKey, adj map[crossKey][]crossKey, visited map[crossKey]bool) []crossKey {
	grow := func() []crossKey {
		var out []crossKey
		cur := start
		for {
			visited[cur] = true
			out = append(out, cur)
			next, ok := nextUnvisited(adj[cur], visited)
			if !ok {
				return out
			}
			cur = next
		}
	}
	forward := grow()
	// A mid-chain start grows both ways; stitch the reverse side on.
	visited[start] = false
	backward := grow()
	visited[start] = true
	chain := forward
	if len(backward) > 1 {
		chain = make([]crossKey, 0, len(forward)+len(backward)-1)
		for i := len(backward) - 1; i > 0; i-- {
			chain = append(chain, backward[i])
		}
		chain = append(chain, forward...)
	}
	return maybeClose(chain, adj)
}

func nextUnvisited(cands []crossKey, visited map[crossKey]bool) (crossKey, bool) {
	for _, c := range cands {
		if !visited[c] {
			return c, true
		}
	}
	return crossKey{}, false
}

// maybeClose repeats the first key at the end of a chain whose ends are
// still linked, making the seed wrap.
func maybeClose(chain []crossKey, adj map[crossKey][]crossKey) []crossKey {
	if len(chain) < 3 {
		return chain
	}
	for _, n := range adj[chain[len(chain)-1]] {
		if n == chain[0] {
			return append(chain, chain[0])
		}
	}
	return chain
}

// refineChain double-corrects every contour vertex and assembles the
// intersection curve, oriented along n0 x n1.
func (g *gapGrid) refineChain(chain []crossKey, tol float64, budget int) *Intersection {
	closed := len(chain) >= 4 && chain[0] == chain[len(chain)-1]
	if closed {
		chain = chain[:len(chain)-1]
	}
	samples := make([]IntersectionSample, 0, len(chain)+1)
	for _, k := range chain {
		cr := g.cross[k]
		seed := g.s0.Subs(cr.uv0)
		pt, q0, q1, _ := doubleCorrect(g.s0, g.s1, seed, cr.uv0, cr.q1, budget)
		if n := len(samples); n > 0 && pt.Sub(samples[n-1].P).Length() <= tol {
			continue
		}
		samples = append(samples, IntersectionSample{P: pt, UV0: q0, UV1: q1})
	}
	if closed && len(samples) >= 3 {
		samples = append(samples, samples[0])
	}
	if len(samples) < 2 {
		return nil
	}
	c, err := NewIntersection(g.s0, g.s1, samples, tol, budget)
	if err != nil {
		return nil
	}
	return orientChain(c)
}

// orientChain flips the curve if its mid tangent disagrees with n0 x n1.
func orientChain(c *Intersection) *Intersection {
	mid := c.ParamRange().Mid()
	_, q0, q1, _ := c.at(mid)
	w := c.s0.Normal(q0).Cross(c.s1.Normal(q1))
	if w.Length() < denomEps {
		return c
	}
	i, _ := c.segment(mid)
	if c.pts[i+1].Sub(c.pts[i]).Dot(w) < 0 {
		return c.Invert().(*Intersection)
	}
	return c
}
