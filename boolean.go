package brep

import (
	"fmt"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/gogpu/brep/topo"
)

// engine carries the working state of one boolean evaluation. All
// topology lives in a private arena; the caller's operands are imported
// and never mutated.
type engine struct {
	w    *topo.Arena
	opts options
	want Status

	a, b operand

	geo      map[topo.FaceID]*faceGeo
	arcEdges map[topo.EdgeID]bool
	faceArcs map[topo.FaceID][]faceArc
	faceCuts map[topo.FaceID][]topo.EdgeID
	labels   map[topo.FaceID]Status
	dropped  map[topo.FaceID]bool
	seams    [][2]topo.FaceID
	overlaps [][2]topo.FaceID
	subsOf   map[topo.FaceID][]topo.FaceID
	faceRep  map[topo.FaceID]v2.Vec
	rimEdges map[topo.EdgeID]bool
}

// operand is one imported solid: the live shell listing, rewritten as
// faces are divided, plus the frozen import for containment tests.
type operand struct {
	shells [][]topo.FaceID
	orig   []topo.FaceID
}

func newOperand(s topo.Solid) operand {
	var op operand
	for _, sh := range s.Shells {
		faces := append([]topo.FaceID(nil), sh.Faces...)
		op.shells = append(op.shells, faces)
		op.orig = append(op.orig, faces...)
	}
	return op
}

func newEngine(want Status, w *topo.Arena, opts options, a, b topo.Solid) *engine {
	return &engine{
		w:        w,
		opts:     opts,
		want:     want,
		a:        newOperand(a),
		b:        newOperand(b),
		geo:      map[topo.FaceID]*faceGeo{},
		arcEdges: map[topo.EdgeID]bool{},
		faceArcs: map[topo.FaceID][]faceArc{},
		faceCuts: map[topo.FaceID][]topo.EdgeID{},
		labels:   map[topo.FaceID]Status{},
		dropped:  map[topo.FaceID]bool{},
		subsOf:   map[topo.FaceID][]topo.FaceID{},
		faceRep:  map[topo.FaceID]v2.Vec{},
		rimEdges: map[topo.EdgeID]bool{},
	}
}

func (e *engine) run() error {
	e.buildGeo()
	jobs, err := e.candidatePairs()
	if err != nil {
		return err
	}
	outs := e.computePairs(jobs)
	if err := e.mergeArcs(outs); err != nil {
		return err
	}
	e.cancelMirrors(jobs, outs)
	if err := e.overlayCoincident(jobs, outs); err != nil {
		return err
	}
	if err := e.divideAll(); err != nil {
		return err
	}
	e.resolveOverlaps()
	if err := e.glueSeams(); err != nil {
		return err
	}
	return e.classify()
}

// selectFaces returns the live faces labeled with the operation's status,
// in operand order.
func (e *engine) selectFaces() []topo.FaceID {
	var kept []topo.FaceID
	for _, op := range []*operand{&e.a, &e.b} {
		for _, faces := range op.shells {
			for _, f := range faces {
				if !e.dropped[f] && e.labels[f] == e.want {
					kept = append(kept, f)
				}
			}
		}
	}
	return kept
}

// assemble groups kept faces into connected shells and checks each one is
// watertight.
func (e *engine) assemble(kept []topo.FaceID) (topo.Solid, error) {
	if len(kept) == 0 {
		return topo.Solid{}, ErrEmptyResult
	}
	comps, err := e.w.Components(topo.Shell{Faces: kept}, nil)
	if err != nil {
		return topo.Solid{}, fmt.Errorf("brep: assembling result: %w", err)
	}
	var out topo.Solid
	for _, comp := range comps {
		sh := topo.Shell{Faces: comp}
		if cond := e.w.ShellCondition(sh); cond != topo.Closed {
			return topo.Solid{}, fmt.Errorf("%w: shell condition %v", ErrResultNotClosed, cond)
		}
		out.Shells = append(out.Shells, sh)
	}
	return out, nil
}

// boolean evaluates one regularized operation into a fresh arena.
func boolean(want Status, ar *topo.Arena, a topo.Solid, br *topo.Arena, b topo.Solid, opts []Option) (*topo.Arena, topo.Solid, error) {
	o := resolveOptions(opts)
	w := topo.NewArena(o.tol)
	ia, err := w.ImportSolid(ar, a)
	if err != nil {
		return nil, topo.Solid{}, fmt.Errorf("brep: importing first operand: %w", err)
	}
	ib, err := w.ImportSolid(br, b)
	if err != nil {
		return nil, topo.Solid{}, fmt.Errorf("brep: importing second operand: %w", err)
	}
	if err := HealSolid(w, ia); err != nil {
		return nil, topo.Solid{}, err
	}
	if err := HealSolid(w, ib); err != nil {
		return nil, topo.Solid{}, err
	}
	if c := w.SolidCondition(ia); c != topo.Closed {
		return nil, topo.Solid{}, fmt.Errorf("%w: first operand is %v", ErrShellNotClosed, c)
	}
	if c := w.SolidCondition(ib); c != topo.Closed {
		return nil, topo.Solid{}, fmt.Errorf("%w: second operand is %v", ErrShellNotClosed, c)
	}
	e := newEngine(want, w, o, ia, ib)
	if err := e.run(); err != nil {
		return nil, topo.Solid{}, err
	}
	out, err := e.assemble(e.selectFaces())
	if err != nil {
		return nil, topo.Solid{}, err
	}
	Logger().Debug("boolean finished", "op", want.String(), "shells", len(out.Shells))
	return w, out, nil
}

// Or returns the union of two solids. The operands may live in different
// arenas; the result lives in a new arena returned alongside it.
func Or(ar *topo.Arena, a topo.Solid, br *topo.Arena, b topo.Solid, opts ...Option) (*topo.Arena, topo.Solid, error) {
	return boolean(StatusOr, ar, a, br, b, opts)
}

// And returns the intersection of two solids.
func And(ar *topo.Arena, a topo.Solid, br *topo.Arena, b topo.Solid, opts ...Option) (*topo.Arena, topo.Solid, error) {
	return boolean(StatusAnd, ar, a, br, b, opts)
}

// Not returns the complement of s: every face copied with its orientation
// flipped, sharing the original wires. The result represents the
// unbounded region outside s.
func Not(a *topo.Arena, s topo.Solid) topo.Solid {
	var out topo.Solid
	for _, sh := range s.Shells {
		nsh := topo.Shell{Faces: make([]topo.FaceID, 0, len(sh.Faces))}
		for _, f := range sh.Faces {
			nf, err := a.NewFace(a.Surface(f), !a.Orientation(f), a.Wires(f)...)
			if err != nil {
				// The wires come from a live face and re-validate as is.
				Logger().Error("flipping a live face failed", "face", uint64(f), "error", err)
				continue
			}
			nsh.Faces = append(nsh.Faces, nf)
		}
		out.Shells = append(out.Shells, nsh)
	}
	return out
}

// Sub returns the difference of a minus b, evaluated as the intersection
// of a with the complement of b.
func Sub(ar *topo.Arena, a topo.Solid, br *topo.Arena, b topo.Solid, opts ...Option) (*topo.Arena, topo.Solid, error) {
	o := resolveOptions(opts)
	scratch := topo.NewArena(o.tol)
	nb, err := scratch.ImportSolid(br, b)
	if err != nil {
		return nil, topo.Solid{}, fmt.Errorf("brep: importing second operand: %w", err)
	}
	return And(ar, a, scratch, Not(scratch, nb), opts...)
}
