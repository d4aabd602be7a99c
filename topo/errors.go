package topo

import "errors"

var (
	// ErrUnknownVertex reports a vertex handle with no record in the arena.
	ErrUnknownVertex = errors.New("topo: unknown vertex")
	// ErrUnknownEdge reports an edge handle with no record in the arena.
	ErrUnknownEdge = errors.New("topo: unknown edge")
	// ErrUnknownFace reports a face handle with no record in the arena.
	ErrUnknownFace = errors.New("topo: unknown face")

	// ErrEndpointMismatch reports a curve whose ends do not land on the
	// edge's vertices.
	ErrEndpointMismatch = errors.New("topo: curve ends do not match the edge vertices")

	// ErrEmptyWire reports a face boundary with no edges.
	ErrEmptyWire = errors.New("topo: empty wire")
	// ErrWireNotClosed reports a boundary whose edges do not chain into a
	// closed loop by vertex identity.
	ErrWireNotClosed = errors.New("topo: wire does not close")
	// ErrWireNotSimple reports a boundary that visits a vertex twice
	// before closing.
	ErrWireNotSimple = errors.New("topo: wire pinches at a vertex")

	// ErrSplitOffCurve reports a split point that does not lie on the
	// edge's curve.
	ErrSplitOffCurve = errors.New("topo: split point not on the edge curve")
	// ErrSplitAtEnd reports a split point indistinguishable from an edge
	// vertex.
	ErrSplitAtEnd = errors.New("topo: split point too close to an edge end")

	// ErrVertexMismatch reports a vertex substitution between points that
	// do not coincide.
	ErrVertexMismatch = errors.New("topo: vertices do not coincide")
	// ErrEdgeMismatch reports an edge substitution whose endpoints or
	// geometry do not match.
	ErrEdgeMismatch = errors.New("topo: edges do not coincide")
)
