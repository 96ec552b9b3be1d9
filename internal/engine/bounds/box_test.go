package bounds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-rig/internal/engine/picking"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

func TestUnionPoint(t *testing.T) {
	b := New()
	assert.True(t, b.Empty)

	b.UnionPoint(math.V3(1, 2, 3))
	assert.False(t, b.Empty)
	assert.Equal(t, math.V3(1, 2, 3), b.Min)
	assert.Equal(t, math.V3(1, 2, 3), b.Max)

	b.UnionPoint(math.V3(-1, 5, 0))
	assert.Equal(t, math.V3(-1, 2, 0), b.Min)
	assert.Equal(t, math.V3(1, 5, 3), b.Max)
}

func TestUnionBoxIgnoresEmpty(t *testing.T) {
	b := FromMinMax(math.V3(0, 0, 0), math.V3(1, 1, 1))
	empty := New()
	b.UnionBox(&empty)
	assert.Equal(t, math.V3(1, 1, 1), b.Max)

	other := FromMinMax(math.V3(-2, 0, 0), math.V3(0, 4, 0))
	b.UnionBox(&other)
	assert.Equal(t, math.V3(-2, 0, 0), b.Min)
	assert.Equal(t, math.V3(1, 4, 1), b.Max)
}

func TestUnionTransformed(t *testing.T) {
	src := FromMinMax(math.V3(-1, -1, -1), math.V3(1, 1, 1))
	m := math.Translate(10, 0, 0).Mul(math.RotateY(0.7853982))

	dst := New()
	dst.UnionTransformed(&src, m)

	// A 45 degree yaw turns the unit cube into a sqrt(2) half-width square in XZ.
	assert.InDelta(t, 10-1.41421, dst.Min.X, 1e-4)
	assert.InDelta(t, 10+1.41421, dst.Max.X, 1e-4)
	assert.InDelta(t, -1, dst.Min.Y, 1e-5)
	assert.InDelta(t, 1.41421, dst.Max.Z, 1e-4)
}

func TestCornersRequireFillVectors(t *testing.T) {
	b := FromMinMax(math.V3(0, 0, 0), math.V3(1, 1, 1))
	b.Max = math.V3(5, 5, 5)
	assert.Equal(t, math.V3(1, 1, 1), b.Corners()[6], "cache must not follow Max until refreshed")

	b.FillVectors()
	assert.Equal(t, math.V3(5, 5, 5), b.Corners()[6])
}

func TestOverlap(t *testing.T) {
	a := FromMinMax(math.V3(0, 0, 0), math.V3(2, 2, 2))

	tests := []struct {
		name string
		b    Box
		want bool
	}{
		{"overlapping", FromMinMax(math.V3(1, 1, 1), math.V3(3, 3, 3)), true},
		{"touching", FromMinMax(math.V3(2, 0, 0), math.V3(3, 2, 2)), true},
		{"contained", FromMinMax(math.V3(0.5, 0.5, 0.5), math.V3(1, 1, 1)), true},
		{"separated on x", FromMinMax(math.V3(3, 0, 0), math.V3(4, 2, 2)), false},
		{"separated on y", FromMinMax(math.V3(0, -3, 0), math.V3(2, -1, 2)), false},
		{"separated on z", FromMinMax(math.V3(0, 0, 5), math.V3(2, 2, 6)), false},
		{"empty", New(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Overlap(&tt.b))
			assert.Equal(t, tt.want, tt.b.Overlap(&a))
		})
	}
}

func TestRayIntersectsMatchesSlabTest(t *testing.T) {
	b := FromMinMax(math.V3(-1, -2, -3), math.V3(1, 2, 3))

	rays := []picking.Ray{
		picking.NewRay(math.V3(-10, 0.3, 0.1), math.V3(1, 0, 0)),
		picking.NewRay(math.V3(0.3, 10, -0.5), math.V3(0, -1, 0)),
		picking.NewRay(math.V3(5, 5, 5), math.V3(-1, -1, -1)),
		picking.NewRay(math.V3(5, 5, 5), math.V3(1, 1, 1)),
		picking.NewRay(math.V3(-10, 3, 0), math.V3(1, 0, 0)),
		picking.NewRay(math.V3(4, 0, 10), math.V3(0, 0.1, -1)),
	}

	for i, r := range rays {
		gotT, gotHit := b.RayIntersects(r)
		wantT, wantHit := r.IntersectAABB(b.Min, b.Max)
		require.Equal(t, wantHit, gotHit, "ray %d", i)
		if wantHit {
			assert.InDelta(t, wantT, gotT, 1e-4, "ray %d", i)
		}
	}

	empty := New()
	_, hit := empty.RayIntersects(rays[0])
	assert.False(t, hit)
}

func TestSurvivesClip(t *testing.T) {
	// With an identity view-projection, world space is clip space (w = 1).
	id := math.Identity()

	tests := []struct {
		name string
		box  Box
		want bool
	}{
		{"inside frustum", FromMinMax(math.V3(-0.5, -0.5, 0.2), math.V3(0.5, 0.5, 0.8)), true},
		{"one corner inside", FromMinMax(math.V3(0.5, 0.5, 0.5), math.V3(3, 3, 3)), true},
		{"behind near plane", FromMinMax(math.V3(-0.5, -0.5, -2), math.V3(0.5, 0.5, -1)), false},
		{"beyond far plane", FromMinMax(math.V3(-0.5, -0.5, 2), math.V3(0.5, 0.5, 3)), false},
		{"off to the side", FromMinMax(math.V3(2, -0.5, 0.2), math.V3(3, 0.5, 0.8)), false},
		{"straddling, no corner inside", FromMinMax(math.V3(-3, -3, 0.2), math.V3(3, 3, 0.8)), true},
		{"straddling depth only", FromMinMax(math.V3(-0.5, -0.5, -5), math.V3(0.5, 0.5, 5)), true},
		{"empty", New(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.box.SurvivesClip(id))
		})
	}
}

func TestSurvivesClipPerspective(t *testing.T) {
	view := math.LookAt(math.V3(0, 0, 10), math.Vec3{}, math.V3(0, 1, 0))
	proj := math.PerspectiveZO(1.0, 1.0, 0.5, 100)
	viewProj := proj.Mul(view)

	inFront := FromMinMax(math.V3(-0.5, -0.5, -0.5), math.V3(0.5, 0.5, 0.5))
	assert.True(t, inFront.SurvivesClip(viewProj))

	behind := FromMinMax(math.V3(-0.5, -0.5, 11), math.V3(0.5, 0.5, 12))
	assert.False(t, behind.SurvivesClip(viewProj))

	farAway := FromMinMax(math.V3(-0.5, -0.5, -200), math.V3(0.5, 0.5, -199))
	assert.False(t, farAway.SurvivesClip(viewProj))

	// A wall much wider than the view at the camera's focus: every corner
	// projects outside, but the spanning box covers the screen.
	wall := FromMinMax(math.V3(-100, -100, -1), math.V3(100, 100, 1))
	assert.True(t, wall.SurvivesClip(viewProj))
}
