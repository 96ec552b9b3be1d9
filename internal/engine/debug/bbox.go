// Package debug provides visualization helpers for the rig viewer.
package debug

import (
	"github.com/Faultbox/midgard-rig/internal/engine/bounds"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// BBoxWireframeVertexCount is the vertex count of a box wireframe (12 edges × 2).
const BBoxWireframeVertexCount = 24

// DefaultBBoxPadding is the padding used for selection boxes.
const DefaultBBoxPadding = 0.05

// boxEdges indexes the corner order of bounds.Box.Corners.
var boxEdges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0}, // near face
	{4, 5}, {5, 6}, {6, 7}, {7, 4}, // far face
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // connecting edges
}

// BoxWireframe returns line-list vertices, [x, y, z] per vertex, for b
// grown by padding on every side. Empty boxes yield nil.
func BoxWireframe(b *bounds.Box, padding float32) []float32 {
	if b.Empty {
		return nil
	}
	pad := math.V3(padding, padding, padding)
	grown := bounds.FromMinMax(b.Min.Sub(pad), b.Max.Add(pad))
	corners := grown.Corners()

	out := make([]float32, 0, BBoxWireframeVertexCount*3)
	for _, e := range boxEdges {
		a, c := corners[e[0]], corners[e[1]]
		out = append(out, a.X, a.Y, a.Z, c.X, c.Y, c.Z)
	}
	return out
}
