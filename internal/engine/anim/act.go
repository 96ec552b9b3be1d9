// Package anim sequences keyframe-free procedural animation: flows of
// timed motions whose acts move segment offsets and rotations of a model.
package anim

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-rig/internal/engine/transform"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Target is the model surface an animation drives.
type Target interface {
	SegmentTransformIndex(name string) (int, bool)
	LocalTransform(tti int) (*transform.Local, error)
	MarkDirty(tti int) error
	HighIndex() int
}

// ActKind selects how an act moves its field.
type ActKind uint8

const (
	// AbsoluteTarget eases the field toward Value.
	AbsoluteTarget ActKind = iota
	// AdditiveDelta adds Value to the rotation linearly over the motion.
	AdditiveDelta
)

func (k ActKind) String() string {
	switch k {
	case AbsoluteTarget:
		return "target"
	case AdditiveDelta:
		return "delta"
	default:
		return "unknown"
	}
}

// Field selects which half of a local transform an act moves.
type Field uint8

const (
	FieldOffset Field = iota
	FieldRotation
)

func (f Field) String() string {
	if f == FieldOffset {
		return "offset"
	}
	return "rotation"
}

// Act is one segment change inside a motion. It is authored by name and
// bound to a transform index before it can run.
type Act struct {
	Kind    ActKind
	Segment string
	Field   Field
	Value   math.Vec3

	index int
	bound bool
}

// NewTarget returns an unbound absolute act.
func NewTarget(segment string, field Field, value math.Vec3) Act {
	return Act{Kind: AbsoluteTarget, Segment: segment, Field: field, Value: value}
}

// NewDelta returns an unbound additive rotation act.
func NewDelta(segment string, value math.Vec3) Act {
	return Act{Kind: AdditiveDelta, Segment: segment, Field: FieldRotation, Value: value}
}

// Index returns the bound transform index.
func (a Act) Index() int { return a.index }

// Bound reports whether the act has been resolved against a target.
func (a Act) Bound() bool { return a.bound }

// Bind returns a copy of the act resolved against target.
func (a Act) Bind(target Target) (Act, error) {
	tti, ok := target.SegmentTransformIndex(a.Segment)
	if !ok {
		return a, &NameResolutionError{Segment: a.Segment}
	}
	a.index = tti
	a.bound = true
	if a.Kind == AdditiveDelta {
		a.Field = FieldRotation
	}
	return a, nil
}

// curve is the ease-in-out timing curve, falling from 2 at t=0 to 0 at t=d.
func curve(t, d float32) float32 {
	return math32.Sin((t/d-1)*math32.Pi-math32.Pi/2) + 1
}

// easeProportion is the share of the remaining distance to cover between
// s and e of a motion lasting d.
func easeProportion(s, e, d float32) float32 {
	if d <= 0 {
		return 1
	}
	fs := curve(s, d)
	den := curve(d, d) - fs
	if den == 0 {
		return 1
	}
	return (curve(e, d) - fs) / den
}

func linearProportion(s, e, d float32) float32 {
	if d <= 0 {
		return 1
	}
	return e/d - s/d
}

// Run applies the act for the interval [s, e] of a motion lasting d.
func (a *Act) Run(target Target, s, e, d float32) error {
	if !a.bound {
		return ErrNotBound
	}
	local, err := target.LocalTransform(a.index)
	if err != nil {
		return err
	}

	switch a.Kind {
	case AbsoluteTarget:
		p := easeProportion(s, e, d)
		field := &local.Offset
		if a.Field == FieldRotation {
			field = &local.Rotation
		}
		*field = field.Add(a.Value.Sub(*field).Scale(p))
	case AdditiveDelta:
		p := linearProportion(s, e, d)
		local.Rotation = local.Rotation.Add(a.Value.Scale(p))
	}

	return target.MarkDirty(a.index)
}
