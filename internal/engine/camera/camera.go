// Package camera provides the orbit camera used by the rig viewer.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-rig/internal/engine/bounds"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center math.Vec3

	Distance float32
	Pitch    float32 // radians above the XZ plane
	Yaw      float32 // radians around Y

	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera returns a camera with viewer defaults.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        10,
		Pitch:           0.4,
		MinDistance:     0.5,
		MaxDistance:     500,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the eye position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	cp := math32.Cos(c.Pitch)
	return c.Center.Add(math.V3(
		c.Distance*cp*math32.Sin(c.Yaw),
		c.Distance*math32.Sin(c.Pitch),
		c.Distance*cp*math32.Cos(c.Yaw),
	))
}

// ViewMatrix returns the world-to-eye matrix.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.V3(0, 1, 0))
}

// ViewProj returns projection * view with zero-to-one clip depth.
func (c *OrbitCamera) ViewProj(fovY, aspect, near, far float32) math.Mat4 {
	return math.PerspectiveZO(fovY, aspect, near, far).Mul(c.ViewMatrix())
}

// HandleDrag rotates the camera by a mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch += deltaY * c.DragSensitivity
	c.Pitch = clamp(c.Pitch, c.MinPitch, c.MaxPitch)
}

// HandleZoom scales the distance by a scroll delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// HandleMovement pans the center on the XZ plane relative to the view.
func (c *OrbitCamera) HandleMovement(forward, right, up float32) {
	speed := c.Distance * 0.01
	sy, cy := math32.Sincos(c.Yaw)
	c.Center.X += (-sy*forward + cy*right) * speed
	c.Center.Z += (-cy*forward - sy*right) * speed
	c.Center.Y += up * speed
}

// FitToBounds centers on b and backs off far enough to see all of it.
// Empty boxes leave the camera unchanged.
func (c *OrbitCamera) FitToBounds(b *bounds.Box) {
	if b.Empty {
		return
	}
	c.Center = b.Center()
	radius := b.Size().Length() / 2
	c.Distance = clamp(radius*2.5, c.MinDistance, c.MaxDistance)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
