package anim

import (
	gomath "math"

	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Flow is a looping sequence of motions. Motions are shared between
// instances; the run state is per instance.
type Flow struct {
	Motions []Motion
	Start   int

	current int
	elapsed float32
	loops   int
}

// Current returns the index of the running motion.
func (f *Flow) Current() int { return f.current }

// Elapsed returns the time spent in the running motion.
func (f *Flow) Elapsed() float32 { return f.elapsed }

// Loops returns how many times the flow has wrapped back to Start.
func (f *Flow) Loops() int { return f.loops }

// CycleLength returns the summed duration of all motions.
func (f *Flow) CycleLength() float32 {
	var total float32
	for i := range f.Motions {
		total += f.Motions[i].Duration
	}
	return total
}

// Reset rewinds the flow to its start motion.
func (f *Flow) Reset() {
	f.current = f.Start
	f.elapsed = 0
	f.loops = 0
}

func (f *Flow) advance() {
	f.elapsed = 0
	f.current = (f.current + 1) % len(f.Motions)
	if f.current == f.Start {
		f.loops++
	}
}

// Run advances the flow by step, carrying overflow into following motions
// within the same call.
func (f *Flow) Run(target Target, step float32) error {
	if len(f.Motions) == 0 {
		return nil
	}
	if step < 0 {
		return ErrNegativeStep
	}

	// A cycle of zero-length motions would never absorb the step; apply
	// each motion once instead.
	if f.CycleLength() <= 0 {
		if step == 0 {
			return nil
		}
		for range f.Motions {
			if _, _, _, err := f.Motions[f.current].Run(target, 0, step); err != nil {
				return err
			}
			f.advance()
		}
		return nil
	}

	// Whole cycles beyond the first are replayed in closed form so the step
	// never shrinks through float32 subtraction.
	cycle := float64(f.CycleLength())
	if whole := gomath.Floor(float64(step) / cycle); whole >= 2 {
		if err := f.runSteps(target, float32(cycle)); err != nil {
			return err
		}
		if err := f.skipCycles(target, whole-1); err != nil {
			return err
		}
		step = float32(gomath.Max(0, float64(step)-whole*cycle))
	}
	return f.runSteps(target, step)
}

func (f *Flow) runSteps(target Target, step float32) error {
	// stalled counts consecutive motions that consumed no time.
	stalled := 0
	for {
		next, overflow, done, err := f.Motions[f.current].Run(target, f.elapsed, step)
		if err != nil {
			return err
		}
		if !done {
			f.elapsed = next
			return nil
		}
		f.advance()

		if overflow >= step {
			stalled++
			if stalled >= len(f.Motions) {
				return ErrStepStalled
			}
		} else {
			stalled = 0
		}
		step = overflow
	}
}

type fieldKey struct {
	index int
	field Field
}

// skipCycles applies n whole cycles after at least one has run. Every
// absolute act completes once per cycle, so fields it moves are already at
// their per-cycle value; only fields moved purely by deltas still change.
func (f *Flow) skipCycles(target Target, n float64) error {
	sums := make(map[fieldKey][3]float64)
	absolute := make(map[fieldKey]bool)
	for i := range f.Motions {
		for _, a := range f.Motions[i].Acts {
			if !a.bound {
				return ErrNotBound
			}
			k := fieldKey{index: a.index, field: a.Field}
			if a.Kind == AbsoluteTarget {
				absolute[k] = true
				continue
			}
			sum := sums[k]
			sum[0] += float64(a.Value.X)
			sum[1] += float64(a.Value.Y)
			sum[2] += float64(a.Value.Z)
			sums[k] = sum
		}
	}

	for k, sum := range sums {
		if absolute[k] {
			continue
		}
		local, err := target.LocalTransform(k.index)
		if err != nil {
			return err
		}
		r := local.Rotation
		local.Rotation = math.Vec3{
			X: float32(float64(r.X) + n*sum[0]),
			Y: float32(float64(r.Y) + n*sum[1]),
			Z: float32(float64(r.Z) + n*sum[2]),
		}
		if err := target.MarkDirty(k.index); err != nil {
			return err
		}
	}
	f.loops += int(n)
	return nil
}
