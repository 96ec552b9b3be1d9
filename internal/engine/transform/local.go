// Package transform holds per-node rigid transforms and the flat matrix
// store a model instance resolves them into.
package transform

import (
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Local is a node's rigid transform: an offset and a yaw/pitch/roll
// rotation, with cached forward and inverse matrices.
//
// The cached matrices are only valid after UpdateMatrices has been called
// following the latest change to Offset or Rotation.
type Local struct {
	Offset   math.Vec3
	Rotation math.Vec3 // X = yaw, Y = pitch, Z = roll (radians)

	offset      math.Mat4
	rotation    math.Mat4
	offsetInv   math.Mat4
	rotationInv math.Mat4
}

// NewLocal returns a transform with refreshed matrices.
func NewLocal(offset, rotation math.Vec3) Local {
	l := Local{Offset: offset, Rotation: rotation}
	l.UpdateMatrices()
	return l
}

// Set replaces offset and rotation. Matrices are not refreshed.
func (l *Local) Set(offset, rotation math.Vec3) {
	l.Offset = offset
	l.Rotation = rotation
}

// UpdateMatrices rebuilds the offset and rotation matrices and their inverses.
func (l *Local) UpdateMatrices() {
	l.offset = math.TranslateVec(l.Offset)
	l.rotation = math.RotateYawPitchRoll(l.Rotation.X, l.Rotation.Y, l.Rotation.Z)
	// Both inverses go through the general 4x4 inverse.
	l.offsetInv = l.offset.Inverse()
	l.rotationInv = l.rotation.Inverse()
}

// Trans folds this transform into a parent-to-child accumulator:
// accum = accum * offset * rotation.
func (l *Local) Trans(accum *math.Mat4) {
	*accum = accum.Mul(l.offset).Mul(l.rotation)
}

// InvTrans removes what Trans added, restoring the accumulator for the
// caller's next sibling.
func (l *Local) InvTrans(accum *math.Mat4) {
	*accum = accum.Mul(l.rotationInv).Mul(l.offsetInv)
}

// Matrix returns offset * rotation as of the last UpdateMatrices.
func (l *Local) Matrix() math.Mat4 {
	return l.offset.Mul(l.rotation)
}
