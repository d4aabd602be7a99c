package brep

import (
	"fmt"

	"github.com/gogpu/brep/topo"
)

// HealSolid normalizes a solid for the assembler: every self-loop edge
// (front vertex equal to back vertex) is split at its curve midpoint,
// rewriting all referencing wires. Downstream graph algorithms assume no
// self-loops. Face and shell structure is unchanged; the arena is mutated
// in place, so callers working on shared data should import first.
func HealSolid(a *topo.Arena, s topo.Solid) error {
	seen := map[topo.EdgeID]bool{}
	var loops []topo.EdgeID
	for _, sh := range s.Shells {
		for _, f := range sh.Faces {
			for _, w := range a.Wires(f) {
				for _, e := range w {
					if seen[e.ID] {
						continue
					}
					seen[e.ID] = true
					if a.Front(e) == a.Back(e) {
						loops = append(loops, e.ID)
					}
				}
			}
		}
	}
	for _, id := range loops {
		c := a.EdgeCurve(id)
		mid := c.Subs(c.ParamRange().Mid())
		if _, _, err := a.SplitEdge(id, mid); err != nil {
			return fmt.Errorf("brep: healing edge %d: %w", id, err)
		}
	}
	if len(loops) > 0 {
		Logger().Debug("healed self-loop edges", "count", len(loops))
	}
	return nil
}
