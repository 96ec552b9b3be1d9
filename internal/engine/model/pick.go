package model

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-rig/internal/engine/picking"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Pick returns the distance along ray to the nearest posed triangle. The
// world box is tested first.
func (m *Model) Pick(ray picking.Ray) (float32, bool) {
	if m.box.Empty {
		return 0, false
	}
	if _, ok := m.box.RayIntersects(ray); !ok {
		return 0, false
	}

	mesh := m.proto.Mesh
	if cap(m.posed) < len(mesh.Vertices) {
		m.posed = make([]math.Vec3, len(mesh.Vertices))
	}
	m.posed = m.posed[:len(mesh.Vertices)]
	for i, v := range mesh.Vertices {
		p, err := m.arr.Transform(v.Position, v.Index)
		if err != nil {
			return 0, false
		}
		m.posed[i] = p
	}

	best := math32.Inf(1)
	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		a := m.posed[mesh.Indices[i]]
		b := m.posed[mesh.Indices[i+1]]
		c := m.posed[mesh.Indices[i+2]]
		if t, ok := ray.IntersectTriangle(a, b, c); ok && t < best {
			best = t
		}
	}
	if math32.IsInf(best, 1) {
		return 0, false
	}
	return best, true
}
