package topo

// VertexID addresses a vertex in an arena.
type VertexID uint64

// EdgeID addresses an edge in an arena, independent of direction.
type EdgeID uint64

// FaceID addresses a face in an arena.
type FaceID uint64

// Edge is a directed use of an edge: the handle plus a traversal direction.
// The zero Edge is invalid.
type Edge struct {
	ID      EdgeID
	Forward bool
}

// Inverse returns the same edge traversed the other way.
func (e Edge) Inverse() Edge {
	e.Forward = !e.Forward
	return e
}

// Same reports whether two directed uses refer to the same edge handle.
func (e Edge) Same(o Edge) bool { return e.ID == o.ID }

// Wire is a chain of directed edges. A valid face boundary chains
// back-to-front by vertex identity and closes into a loop.
type Wire []Edge

// Inverse returns the wire traversed the other way.
func (w Wire) Inverse() Wire {
	inv := make(Wire, len(w))
	for i, e := range w {
		inv[len(w)-1-i] = e.Inverse()
	}
	return inv
}

// Clone returns a copy of the wire.
func (w Wire) Clone() Wire {
	c := make(Wire, len(w))
	copy(c, w)
	return c
}

// Shell is a collection of faces, usually the boundary of one region of
// space.
type Shell struct {
	Faces []FaceID
}

// Solid is a collection of shells: one outer boundary per connected
// component plus any cavity shells.
type Solid struct {
	Shells []Shell
}

// Faces returns every face of the solid, shell by shell.
func (s Solid) Faces() []FaceID {
	var out []FaceID
	for _, sh := range s.Shells {
		out = append(out, sh.Faces...)
	}
	return out
}

// Condition classifies how sound a shell's edge matching is, from best to
// worst.
type Condition int

const (
	// Closed means every edge is traversed exactly twice, in opposite
	// directions: the shell bounds a region watertightly.
	Closed Condition = iota
	// Oriented means edge uses are consistent but some edges are traversed
	// only once: an orientable surface with boundary.
	Oriented
	// Regular means some edge is traversed twice in the same direction:
	// the surface is manifold but not orientable as given.
	Regular
	// Irregular means some edge is traversed more than twice: the shell is
	// not a manifold.
	Irregular
)

func (c Condition) String() string {
	switch c {
	case Closed:
		return "closed"
	case Oriented:
		return "oriented"
	case Regular:
		return "regular"
	case Irregular:
		return "irregular"
	}
	return "unknown"
}
