package brep

import (
	"fmt"
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gogpu/brep/geom"
	"github.com/gogpu/brep/topo"
)

// rayDir is the fixed classification ray direction, chosen off the
// coordinate axes so rays cast from axis-aligned geometry do not graze
// faces or run along edges.
var rayDir = v3.Vec{X: 0.7380332, Y: 0.5403023, Z: 0.4040595}

// classify labels every live face of both operands. Arc labels propagate
// across components connected by ordinary edges; a component untouched by
// arcs is located by ray parity against the other operand. Overlap twin
// rims also bound propagation, since the faces on either side of a seam
// belong to different regions.
func (e *engine) classify() error {
	if err := e.classifyOperand(&e.a, &e.b); err != nil {
		return err
	}
	return e.classifyOperand(&e.b, &e.a)
}

func (e *engine) classifyOperand(op, other *operand) error {
	otherInverted := e.operandVolume(other) < 0
	for si, faces := range op.shells {
		var live []topo.FaceID
		for _, f := range faces {
			if !e.dropped[f] {
				live = append(live, f)
			}
		}
		if len(live) == 0 {
			continue
		}
		comps, err := e.w.Components(topo.Shell{Faces: live}, func(id topo.EdgeID) bool {
			return e.arcEdges[id] || e.rimEdges[id]
		})
		if err != nil {
			return fmt.Errorf("brep: classifying shell %d: %w", si, err)
		}
		for _, comp := range comps {
			lbl := StatusUnknown
			for _, f := range comp {
				l := e.labels[f]
				if l == StatusUnknown {
					continue
				}
				if lbl == StatusUnknown {
					lbl = l
				} else if lbl != l {
					return fmt.Errorf("%w: conflicting labels in shell %d", ErrUnclassifiedRegion, si)
				}
			}
			if lbl == StatusUnknown {
				if e.compHasArcs(comp) {
					return fmt.Errorf("%w: unlabeled component in divided shell %d", ErrUnclassifiedRegion, si)
				}
				if e.rayParity(other, e.repPoint(comp[0])) != otherInverted {
					lbl = StatusAnd
				} else {
					lbl = StatusOr
				}
			}
			for _, f := range comp {
				e.labels[f] = lbl
			}
		}
	}
	return nil
}

// compHasArcs reports whether any face of the component carries an
// intersection arc. Division labels every region an arc bounds, so an
// unlabeled component with arcs is an internal failure, not a candidate
// for location by parity.
func (e *engine) compHasArcs(comp []topo.FaceID) bool {
	for _, f := range comp {
		for _, w := range e.w.Wires(f) {
			for _, eu := range w {
				if e.arcEdges[eu.ID] {
					return true
				}
			}
		}
	}
	return false
}

// rayParity reports whether a ray from p crosses the other operand's
// boundary an odd number of times. Surface hits count only inside the
// face's boundary polygon.
func (e *engine) rayParity(op *operand, p v3.Vec) bool {
	hits := 0
	for _, f := range op.orig {
		surf := e.w.Surface(f)
		for _, h := range geom.RaySurface(surf, p, rayDir) {
			if h.T <= e.opts.tol {
				continue
			}
			if insideUV(e.geo[f].segs, h.UV) {
				hits++
			}
		}
	}
	return hits%2 == 1
}

// repPoint picks a point inside a face region for parity testing.
func (e *engine) repPoint(f topo.FaceID) v3.Vec {
	return e.w.Surface(f).Subs(e.repUV(f))
}

// repUV picks a parameter point inside the face's boundary polygon, or
// the middle of the parameter cell for boundary-less faces. Division
// records an interior point for each sub-face it creates; those take
// priority because sub-faces carry no lifted geometry of their own.
func (e *engine) repUV(f topo.FaceID) v2.Vec {
	if uv, ok := e.faceRep[f]; ok {
		return uv
	}
	g := e.geo[f]
	if g == nil || len(g.segs) == 0 {
		ur, vr := e.w.Surface(f).ParamRange()
		return v2.Vec{X: ur.Mid(), Y: vr.Mid()}
	}
	var c v2.Vec
	for _, sg := range g.segs {
		c = c.Add(sg.a)
	}
	c = c.MulScalar(1 / float64(len(g.segs)))
	if insideUV(g.segs, c) {
		return c
	}
	// Concave regions can exclude their vertex average; sample toward the
	// polygon instead.
	for _, sg := range g.segs {
		m := c.Add(sg.a).MulScalar(0.5)
		if insideUV(g.segs, m) {
			return m
		}
	}
	return c
}

// operandVolume integrates the signed volume enclosed by the operand over
// its effective face boundaries. Negative volume marks an inverted
// operand, such as a complement from Not, which flips the parity test.
func (e *engine) operandVolume(op *operand) float64 {
	vol := 0.0
	chord := e.opts.tol * liftChordFactor
	for _, f := range op.orig {
		wires := e.w.Boundaries(f)
		if len(wires) == 0 {
			if sph, ok := e.w.Surface(f).(geom.Sphere); ok {
				v := 4.0 / 3.0 * math.Pi * sph.Radius * sph.Radius * sph.Radius
				if sph.Inverted == e.w.Orientation(f) {
					v = -v
				}
				vol += v
			}
			continue
		}
		for _, w := range wires {
			var poly []v3.Vec
			for _, eu := range w {
				c := e.w.Curve(eu)
				params := c.ParameterDivision(c.ParamRange(), chord)
				for _, t := range params[:len(params)-1] {
					poly = append(poly, c.Subs(t))
				}
			}
			if len(poly) < 3 {
				continue
			}
			for i := 1; i+1 < len(poly); i++ {
				vol += poly[0].Dot(poly[i].Cross(poly[i+1])) / 6
			}
		}
	}
	return vol
}
