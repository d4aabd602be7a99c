// Package brep is a boundary-representation solid modeling kernel.
//
// # Overview
//
// brep keeps solids as watertight shells of faces that share edges and
// vertices by identity, and combines two such solids with the regularized
// boolean operations And (intersection), Or (union) and Sub (difference).
// The kernel cuts faces along the numerically computed intersection curves
// of their carrier surfaces, classifies the resulting fragments against the
// other operand, and reassembles the kept fragments into a new watertight
// solid.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/brep"
//		"github.com/gogpu/brep/topo"
//		v3 "github.com/deadsy/sdfx/vec/v3"
//	)
//
//	arena := topo.NewArena(0)
//	a, _ := brep.Box(arena, v3.Vec{}, v3.Vec{X: 1, Y: 1, Z: 1})
//	b, _ := brep.Box(arena, v3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, v3.Vec{X: 1.5, Y: 1.5, Z: 1.5})
//
//	res, union, err := brep.Or(arena, a, arena, b)
//	if err != nil {
//		// no result: the inputs were rejected or the cut did not close
//	}
//	_ = res   // arena owning the result
//	_ = union // the united solid
//
// # Architecture
//
// The library is organized into:
//   - Root package: boolean assembler (pairing, division, classification,
//     gluing, healing, validation)
//   - topo: topology kernel (arena, handles, wires, faces, shells,
//     shell condition, serialization)
//   - geom: geometry provider (curve and surface kinds with evaluation,
//     derivatives, parameter search, division, cut and inversion)
//   - internal/newton: bounded Newton iteration and small linear solves
//   - internal/uvsnap: PNG snapshots of face divisions for debugging
//
// # Operands and results
//
// Operands are never mutated: And and Or deep-copy both solids into a
// fresh working arena, heal them there, and return that arena with the
// result. Operations that cannot produce a valid closed solid return an
// error instead of an approximate shape; callers retry with a looser
// tolerance or reject the input.
//
// # Logging
//
// brep produces no log output by default. Call SetLogger to direct
// diagnostics (dropped degenerate loops, unconverged refinements,
// per-pair traces) to a log/slog logger of your choice.
package brep

// Version information
const (
	// Version is the current version of the library
	Version = "0.2.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 2

	// VersionPatch is the patch version
	VersionPatch = 0
)
