package brep

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gogpu/brep/geom"
	"github.com/gogpu/brep/topo"
)

// Box builds an axis-aligned closed box solid between two opposite
// corners. Each face carries a plane whose unit parameter cell spans
// exactly the face, with the normal pointing out of the box.
func Box(a *topo.Arena, min, max v3.Vec) (topo.Solid, error) {
	if min.X >= max.X || min.Y >= max.Y || min.Z >= max.Z {
		return topo.Solid{}, fmt.Errorf("brep: box corners not ordered: %v, %v", min, max)
	}
	d := max.Sub(min)

	// Corner index bits: 1 = x at max, 2 = y at max, 4 = z at max.
	corner := func(i int) v3.Vec {
		p := min
		if i&1 != 0 {
			p.X = max.X
		}
		if i&2 != 0 {
			p.Y = max.Y
		}
		if i&4 != 0 {
			p.Z = max.Z
		}
		return p
	}
	var vs [8]topo.VertexID
	for i := range vs {
		vs[i] = a.NewVertex(corner(i))
	}

	built := map[[2]int]topo.Edge{}
	edge := func(i, j int) (topo.Edge, error) {
		if e, ok := built[[2]int{i, j}]; ok {
			return e, nil
		}
		if e, ok := built[[2]int{j, i}]; ok {
			return e.Inverse(), nil
		}
		e, err := a.NewEdge(vs[i], vs[j], geom.Line{P0: corner(i), P1: corner(j)})
		if err != nil {
			return topo.Edge{}, err
		}
		built[[2]int{i, j}] = e
		return e, nil
	}

	// Each face walks O, O+X, O+X+Y, O+Y: counterclockwise around the
	// plane's unit cell, normal X×Y outward.
	type frame struct {
		origin  v3.Vec
		x, y    v3.Vec
		corners [4]int
	}
	frames := []frame{
		{min, v3.Vec{Y: d.Y}, v3.Vec{X: d.X}, [4]int{0, 2, 3, 1}},                                // -z
		{v3.Vec{X: min.X, Y: min.Y, Z: max.Z}, v3.Vec{X: d.X}, v3.Vec{Y: d.Y}, [4]int{4, 5, 7, 6}}, // +z
		{min, v3.Vec{X: d.X}, v3.Vec{Z: d.Z}, [4]int{0, 1, 5, 4}},                                // -y
		{v3.Vec{X: min.X, Y: max.Y, Z: min.Z}, v3.Vec{Z: d.Z}, v3.Vec{X: d.X}, [4]int{2, 6, 7, 3}}, // +y
		{min, v3.Vec{Z: d.Z}, v3.Vec{Y: d.Y}, [4]int{0, 4, 6, 2}},                                // -x
		{v3.Vec{X: max.X, Y: min.Y, Z: min.Z}, v3.Vec{Y: d.Y}, v3.Vec{Z: d.Z}, [4]int{1, 3, 7, 5}}, // +x
	}

	sh := topo.Shell{Faces: make([]topo.FaceID, 0, len(frames))}
	for _, fr := range frames {
		w := make(topo.Wire, 0, 4)
		for k := range fr.corners {
			e, err := edge(fr.corners[k], fr.corners[(k+1)%4])
			if err != nil {
				return topo.Solid{}, err
			}
			w = append(w, e)
		}
		f, err := a.NewFace(geom.Plane{Origin: fr.origin, XAxis: fr.x, YAxis: fr.y}, true, w)
		if err != nil {
			return topo.Solid{}, err
		}
		sh.Faces = append(sh.Faces, f)
	}
	return topo.Solid{Shells: []topo.Shell{sh}}, nil
}

// SphereSolid builds a closed solid bounded by one full sphere face. The
// face has no boundary wires; the sphere's radial normal points outward.
func SphereSolid(a *topo.Arena, center v3.Vec, radius float64) (topo.Solid, error) {
	if radius <= 0 {
		return topo.Solid{}, fmt.Errorf("brep: sphere radius %v not positive", radius)
	}
	f, err := a.NewFace(geom.Sphere{Center: center, Radius: radius}, true)
	if err != nil {
		return topo.Solid{}, err
	}
	return topo.Solid{Shells: []topo.Shell{{Faces: []topo.FaceID{f}}}}, nil
}
