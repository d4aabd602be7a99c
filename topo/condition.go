package topo

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/katalvlaran/lvlath/bfs"
	"github.com/katalvlaran/lvlath/core"
)

// edgeUse counts the directed traversals of one edge by a shell's
// effective boundaries.
type edgeUse struct {
	forward, backward int
}

func (a *Arena) edgeUses(sh Shell) map[EdgeID]edgeUse {
	uses := map[EdgeID]edgeUse{}
	for _, f := range sh.Faces {
		for _, w := range a.Boundaries(f) {
			for _, e := range w {
				u := uses[e.ID]
				if e.Forward {
					u.forward++
				} else {
					u.backward++
				}
				uses[e.ID] = u
			}
		}
	}
	return uses
}

func classifyUse(u edgeUse) Condition {
	switch n := u.forward + u.backward; {
	case n == 1:
		return Oriented
	case n == 2 && u.forward == 1:
		return Closed
	case n == 2:
		return Regular
	default:
		return Irregular
	}
}

// ShellCondition classifies a shell by its worst edge: an edge traversed
// once leaves the shell Oriented, twice in opposite directions Closed,
// twice in the same direction Regular, and more than twice Irregular.
func (a *Arena) ShellCondition(sh Shell) Condition {
	cond := Closed
	for _, u := range a.edgeUses(sh) {
		if c := classifyUse(u); c > cond {
			cond = c
		}
	}
	return cond
}

// SolidCondition returns the worst shell condition of the solid.
func (a *Arena) SolidCondition(s Solid) Condition {
	cond := Closed
	for _, sh := range s.Shells {
		if c := a.ShellCondition(sh); c > cond {
			cond = c
		}
	}
	return cond
}

// Boundary extracts the open border of a shell: every edge traversed
// exactly once by the effective boundaries, chained into wires by vertex
// identity. A Closed shell has an empty boundary.
func (a *Arena) Boundary(sh Shell) []Wire {
	uses := a.edgeUses(sh)
	var loose []Edge
	seen := map[EdgeID]bool{}
	for _, f := range sh.Faces {
		for _, w := range a.Boundaries(f) {
			for _, e := range w {
				if u := uses[e.ID]; u.forward+u.backward != 1 || seen[e.ID] {
					continue
				}
				seen[e.ID] = true
				loose = append(loose, e)
			}
		}
	}
	sort.Slice(loose, func(i, j int) bool { return loose[i].ID < loose[j].ID })

	byFront := map[VertexID][]int{}
	pred := map[VertexID]int{}
	for i, e := range loose {
		byFront[a.Front(e)] = append(byFront[a.Front(e)], i)
		pred[a.Back(e)]++
	}
	// Chain heads first so open borders come out in one piece; closed
	// loops start from their lowest edge handle.
	order := make([]int, 0, len(loose))
	for i, e := range loose {
		if pred[a.Front(e)] == 0 {
			order = append(order, i)
		}
	}
	for i, e := range loose {
		if pred[a.Front(e)] != 0 {
			order = append(order, i)
		}
	}

	used := make([]bool, len(loose))
	var wires []Wire
	for _, i := range order {
		if used[i] {
			continue
		}
		used[i] = true
		w := Wire{loose[i]}
		for a.Back(w[len(w)-1]) != a.Front(w[0]) {
			next := -1
			for _, j := range byFront[a.Back(w[len(w)-1])] {
				if !used[j] {
					next = j
					break
				}
			}
			if next < 0 {
				break
			}
			used[next] = true
			w = append(w, loose[next])
		}
		wires = append(wires, w)
	}
	return wires
}

// Components partitions a shell's faces into groups connected through
// shared edges. Edges for which skip returns true do not connect; a nil
// skip connects through every edge. Groups come out in first-seen order
// over sh.Faces, each sorted by handle.
func (a *Arena) Components(sh Shell, skip func(EdgeID) bool) ([][]FaceID, error) {
	g, _ := core.NewGraph()
	names := make(map[string]FaceID, len(sh.Faces))
	for _, f := range sh.Faces {
		if !a.HasFace(f) {
			return nil, fmt.Errorf("%w: %d", ErrUnknownFace, f)
		}
		id := faceName(f)
		names[id] = f
		if !g.HasVertex(id) {
			if err := g.AddVertex(id); err != nil {
				return nil, err
			}
		}
	}

	owners := map[EdgeID][]FaceID{}
	for _, f := range sh.Faces {
		for _, w := range a.Boundaries(f) {
			for _, e := range w {
				if skip != nil && skip(e.ID) {
					continue
				}
				owners[e.ID] = append(owners[e.ID], f)
			}
		}
	}
	ids := make([]EdgeID, 0, len(owners))
	for id := range owners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	linked := map[[2]FaceID]bool{}
	for _, id := range ids {
		fs := owners[id]
		for i := 1; i < len(fs); i++ {
			p, q := fs[i-1], fs[i]
			if p == q {
				continue
			}
			if q < p {
				p, q = q, p
			}
			key := [2]FaceID{p, q}
			if linked[key] {
				continue
			}
			linked[key] = true
			if _, err := g.AddEdge(faceName(p), faceName(q), 0); err != nil {
				return nil, err
			}
		}
	}

	visited := map[FaceID]bool{}
	var comps [][]FaceID
	for _, f := range sh.Faces {
		if visited[f] {
			continue
		}
		res, err := bfs.BFS(g, faceName(f))
		if err != nil {
			return nil, err
		}
		comp := make([]FaceID, 0, len(res.Order))
		for _, name := range res.Order {
			fc := names[name]
			visited[fc] = true
			comp = append(comp, fc)
		}
		sort.Slice(comp, func(i, j int) bool { return comp[i] < comp[j] })
		comps = append(comps, comp)
	}
	return comps, nil
}

func faceName(f FaceID) string { return strconv.FormatUint(uint64(f), 10) }
