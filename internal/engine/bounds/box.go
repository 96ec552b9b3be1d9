// Package bounds provides the axis-aligned bounding box used for culling
// and coarse picking.
package bounds

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-rig/internal/engine/picking"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// minClipW keeps the perspective divide finite for corners on or behind
// the eye plane.
const minClipW = 1e-6

// Box is an axis-aligned bounding box.
//
// The corner cache is not derived automatically: call FillVectors after
// changing Min or Max and before using UnionTransformed, RayIntersects or
// SurvivesClip on this box.
type Box struct {
	Min   math.Vec3
	Max   math.Vec3
	Empty bool

	corners [8]math.Vec3
}

// New returns an empty box.
func New() Box {
	return Box{Empty: true}
}

// FromMinMax returns a non-empty box spanning min and max with its corners filled.
func FromMinMax(min, max math.Vec3) Box {
	b := Box{Min: min.Min(max), Max: min.Max(max)}
	b.FillVectors()
	return b
}

// Reset empties the box.
func (b *Box) Reset() {
	*b = Box{Empty: true}
}

// FillVectors refreshes the 8-corner cache from Min and Max.
func (b *Box) FillVectors() {
	lo, hi := b.Min, b.Max
	b.corners = [8]math.Vec3{
		{X: lo.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: hi.Y, Z: hi.Z},
		{X: lo.X, Y: hi.Y, Z: hi.Z},
	}
}

// Corners returns the cached corners.
func (b *Box) Corners() [8]math.Vec3 {
	return b.corners
}

// Center returns the center of the box.
func (b *Box) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns Max - Min.
func (b *Box) Size() math.Vec3 {
	return b.Max.Sub(b.Min)
}

// UnionPoint expands the box to contain p.
func (b *Box) UnionPoint(p math.Vec3) {
	if b.Empty {
		b.Min, b.Max, b.Empty = p, p, false
		return
	}
	b.Min = b.Min.Min(p)
	b.Max = b.Max.Max(p)
}

// UnionBox expands the box to contain other. Empty boxes are ignored.
func (b *Box) UnionBox(other *Box) {
	if other.Empty {
		return
	}
	b.UnionPoint(other.Min)
	b.UnionPoint(other.Max)
}

// UnionTransformed transforms other's cached corners by m and unions each.
func (b *Box) UnionTransformed(other *Box, m math.Mat4) {
	if other.Empty {
		return
	}
	for _, c := range other.corners {
		b.UnionPoint(m.TransformVec3(c))
	}
}

// Overlap is a separating-axis test over the three min/max pairs.
func (b *Box) Overlap(other *Box) bool {
	if b.Empty || other.Empty {
		return false
	}
	return overlaps(b.Min, b.Max, other.Min, other.Max)
}

func overlaps(aMin, aMax, bMin, bMax math.Vec3) bool {
	if aMax.X < bMin.X || aMin.X > bMax.X {
		return false
	}
	if aMax.Y < bMin.Y || aMin.Y > bMax.Y {
		return false
	}
	if aMax.Z < bMin.Z || aMin.Z > bMax.Z {
		return false
	}
	return true
}

// faces lists the 12 corner triangles, two per face, indexing corners.
var faces = [12][3]int{
	{0, 1, 2}, {0, 2, 3}, // -Z
	{4, 6, 5}, {4, 7, 6}, // +Z
	{0, 4, 5}, {0, 5, 1}, // -Y
	{3, 2, 6}, {3, 6, 7}, // +Y
	{0, 3, 7}, {0, 7, 4}, // -X
	{1, 5, 6}, {1, 6, 2}, // +X
}

// RayIntersects tests the ray against the box's 12 corner triangles and
// returns the nearest hit distance. Used as a coarse filter ahead of
// per-triangle mesh picking.
func (b *Box) RayIntersects(ray picking.Ray) (float32, bool) {
	if b.Empty {
		return 0, false
	}
	nearest := math32.Inf(1)
	hit := false
	for _, f := range faces {
		t, ok := ray.IntersectTriangle(b.corners[f[0]], b.corners[f[1]], b.corners[f[2]])
		if ok && t < nearest {
			nearest, hit = t, true
		}
	}
	if !hit {
		return 0, false
	}
	return nearest, true
}

var (
	clipMin = math.Vec3{X: -1, Y: -1, Z: 0}
	clipMax = math.Vec3{X: 1, Y: 1, Z: 1}
)

func insideClip(p math.Vec3) bool {
	return p.X >= -1 && p.X <= 1 &&
		p.Y >= -1 && p.Y <= 1 &&
		p.Z >= 0 && p.Z <= 1
}

// SurvivesClip reports whether the box may be visible under viewProj.
//
// Tier 1 accepts as soon as one perspective-divided corner lies inside the
// canonical clip volume. Tier 2 builds the spanning box of all 8 divided
// corners and accepts if it overlaps [-1,1]x[-1,1]x[0,1], which catches
// boxes straddling the frustum with no corner inside.
func (b *Box) SurvivesClip(viewProj math.Mat4) bool {
	if b.Empty {
		return false
	}

	var ndc [8]math.Vec3
	for i, c := range b.corners {
		ndc[i] = viewProj.MulVec4(math.Point(c)).PerspDiv(minClipW)
		if insideClip(ndc[i]) {
			return true
		}
	}

	lo, hi := ndc[0], ndc[0]
	for _, p := range ndc[1:] {
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	return overlaps(lo, hi, clipMin, clipMax)
}
