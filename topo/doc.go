// Package topo is the boundary-representation topology kernel: vertices,
// edges, wires, faces, shells and solids, tied to the geometric carriers of
// package geom.
//
// # Handles and the arena
//
// Topological elements live in an [Arena] and are addressed by integer
// handles ([VertexID], [EdgeID], [FaceID]). Handles are allocated from a
// single monotonic counter and never reused, so element identity is a
// plain comparison: two faces share an edge exactly when their wires carry
// the same [EdgeID]. Geometric proximity never creates identity.
//
// An [Edge] value pairs an edge handle with a traversal direction; its
// Inverse shares the handle. [Wire], [Shell] and [Solid] are thin handle
// aggregates and say nothing without their arena.
//
// # Validation
//
// Constructors validate what they can see locally: an edge's curve must
// land on its vertices, a wire must chain back-to-front by vertex identity
// and close into a loop. Shell-level soundness is a derived property,
// reported by [Arena.ShellCondition] as the worst per-edge classification over
// the shell ([Closed] when every edge is matched by exactly two opposite
// traversals).
//
// # Serialization
//
// CompressShell flattens a shell into an index-based record set that
// marshals to JSON; ExpandShell rebuilds it through the ordinary
// constructors, so a corrupted record fails validation instead of
// producing a broken shell.
package topo
