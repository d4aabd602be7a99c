package geom

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// RayHit is one intersection of a ray with a surface.
type RayHit struct {
	T  float64 // distance along the direction, in units of |dir|
	UV v2.Vec
}

// RaySurface intersects the ray origin + t*dir, t > 0, with a surface. Hits
// closer than Tolerance to the origin are discarded, so a ray cast from a
// point on the surface reports only the far side.
func RaySurface(s Surface, origin, dir v3.Vec) []RayHit {
	switch k := s.(type) {
	case Plane:
		return rayPlane(k, origin, dir)
	case Sphere:
		return raySphere(k, origin, dir)
	}
	return nil
}

func rayPlane(p Plane, origin, dir v3.Vec) []RayHit {
	n := p.XAxis.Cross(p.YAxis)
	den := n.Dot(dir)
	if math.Abs(den) < denomEps {
		return nil
	}
	t := n.Dot(p.Origin.Sub(origin)) / den
	if t*dir.Length() <= Tolerance {
		return nil
	}
	uv, ok := p.SearchNearestParameter(origin.Add(dir.MulScalar(t)), NoHintUV, 0)
	if !ok {
		return nil
	}
	return []RayHit{{T: t, UV: uv}}
}

func raySphere(s Sphere, origin, dir v3.Vec) []RayHit {
	oc := origin.Sub(s.Center)
	a := dir.Length2()
	if a < denomEps {
		return nil
	}
	b := 2 * oc.Dot(dir)
	c := oc.Length2() - s.Radius*s.Radius
	disc := b*b - 4*a*c
	if disc < 0 {
		return nil
	}
	sq := math.Sqrt(disc)
	var hits []RayHit
	for _, t := range [2]float64{(-b - sq) / (2 * a), (-b + sq) / (2 * a)} {
		if t*dir.Length() <= Tolerance {
			continue
		}
		uv, ok := s.SearchNearestParameter(origin.Add(dir.MulScalar(t)), NoHintUV, 0)
		if !ok {
			continue
		}
		hits = append(hits, RayHit{T: t, UV: uv})
	}
	if len(hits) == 2 && hits[0].T == hits[1].T {
		hits = hits[:1]
	}
	return hits
}
