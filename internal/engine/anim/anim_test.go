package anim

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-rig/internal/engine/transform"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

const eps = 1e-5

type fakeTarget struct {
	names  map[string]int
	locals []transform.Local
	dirty  map[int]int
}

func newFakeTarget(names ...string) *fakeTarget {
	f := &fakeTarget{
		names:  make(map[string]int, len(names)),
		locals: make([]transform.Local, len(names)),
		dirty:  make(map[int]int),
	}
	for i, n := range names {
		f.names[n] = i
	}
	return f
}

func (f *fakeTarget) SegmentTransformIndex(name string) (int, bool) {
	i, ok := f.names[name]
	return i, ok
}

func (f *fakeTarget) LocalTransform(tti int) (*transform.Local, error) {
	if tti < 0 || tti >= len(f.locals) {
		return nil, &transform.CapacityError{Op: "local", Index: tti, Limit: len(f.locals) - 1}
	}
	return &f.locals[tti], nil
}

func (f *fakeTarget) MarkDirty(tti int) error {
	f.dirty[tti]++
	return nil
}

func (f *fakeTarget) HighIndex() int { return len(f.locals) - 1 }

func TestEaseProportion(t *testing.T) {
	assert.InDelta(t, 1, easeProportion(0, 1, 1), eps)
	assert.InDelta(t, 0.5, easeProportion(0, 0.5, 1), eps)
	assert.InDelta(t, 0.5, easeProportion(0, 1, 2), eps)
	assert.InDelta(t, 0, easeProportion(0.3, 0.3, 1), eps)

	// Degenerate intervals cover the full distance.
	assert.Equal(t, float32(1), easeProportion(0, 0, 0))
	assert.Equal(t, float32(1), easeProportion(1, 1, 1))

	// Ease in: the first tenth covers less than a tenth of the distance.
	assert.Less(t, easeProportion(0, 0.1, 1), float32(0.1))
}

func TestMotionOverflow(t *testing.T) {
	target := newFakeTarget("root")
	m := Motion{Duration: 1}

	next, overflow, done, err := m.Run(target, 0.6, 0.6)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, float32(0), next)
	assert.InDelta(t, 0.2, overflow, eps)

	next, overflow, done, err = m.Run(target, 0.2, 0.3)
	require.NoError(t, err)
	assert.False(t, done)
	assert.InDelta(t, 0.5, next, eps)
	assert.Equal(t, float32(0), overflow)

	// Landing exactly on the end keeps the motion current.
	next, _, done, err = m.Run(target, 0.5, 0.5)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, float32(1), next)
}

func TestAbsoluteTargetEasesToValue(t *testing.T) {
	target := newFakeTarget("root", "arm")
	act, err := NewTarget("arm", FieldOffset, math.V3(2, 0, -4)).Bind(target)
	require.NoError(t, err)
	assert.Equal(t, 1, act.Index())

	m := Motion{Acts: []Act{act}, Duration: 1}
	s := float32(0)
	for i := 0; i < 5; i++ {
		s, _, _, err = m.Run(target, s, 0.1)
		require.NoError(t, err)
	}
	// Halfway through the curve, half the distance is covered.
	assert.True(t, target.locals[1].Offset.ApproxEqual(math.V3(1, 0, -2), 1e-4), "got %v", target.locals[1].Offset)

	_, _, done, err := m.Run(target, s, 1)
	require.NoError(t, err)
	assert.True(t, done)
	assert.True(t, target.locals[1].Offset.ApproxEqual(math.V3(2, 0, -4), 1e-4))
	assert.Equal(t, math.Vec3{}, target.locals[1].Rotation)
	assert.Equal(t, 6, target.dirty[1])
}

func TestAdditiveDeltaAccumulates(t *testing.T) {
	target := newFakeTarget("root")
	tpl := &Template{Name: "spin", Flows: []FlowTemplate{{
		Motions: []Motion{{Acts: []Act{NewDelta("root", math.V3(1, 0, 0))}, Duration: 2}},
	}}}

	a, err := Bind(tpl, target)
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		require.NoError(t, a.Run(target, 0.5))
	}
	assert.InDelta(t, 2, target.locals[0].Rotation.X, 1e-4)
	assert.Equal(t, float32(0), target.locals[0].Offset.X)
	assert.Equal(t, 1, a.Flows()[0].Loops())
}

func TestDeltaForcesRotationField(t *testing.T) {
	target := newFakeTarget("root")
	act := Act{Kind: AdditiveDelta, Segment: "root", Field: FieldOffset, Value: math.V3(0, 1, 0)}
	bound, err := act.Bind(target)
	require.NoError(t, err)
	assert.Equal(t, FieldRotation, bound.Field)
}

func TestUnboundActFails(t *testing.T) {
	target := newFakeTarget("root")
	act := NewTarget("root", FieldOffset, math.V3(1, 1, 1))
	assert.ErrorIs(t, act.Run(target, 0, 1, 1), ErrNotBound)
}

func timedTemplate() *Template {
	return &Template{Name: "walk", Flows: []FlowTemplate{{
		Motions: []Motion{
			{Acts: []Act{NewTarget("root", FieldOffset, math.V3(0, 1, 0))}, Duration: 0.5},
			{Acts: []Act{NewDelta("arm", math.V3(0, 0, 1))}, Duration: 1},
			{Acts: []Act{NewTarget("root", FieldOffset, math.V3(0, 0, 0))}, Duration: 0.25},
		},
	}}}
}

func TestFlowTimeConservation(t *testing.T) {
	small := newFakeTarget("root", "arm")
	a, err := Bind(timedTemplate(), small)
	require.NoError(t, err)
	for i := 0; i < 11; i++ {
		require.NoError(t, a.Run(small, 0.25))
	}

	big := newFakeTarget("root", "arm")
	b, err := Bind(timedTemplate(), big)
	require.NoError(t, err)
	require.NoError(t, b.Run(big, 2.75))

	for _, f := range []Flow{a.Flows()[0], b.Flows()[0]} {
		assert.Equal(t, 1, f.Current())
		assert.InDelta(t, 0.5, f.Elapsed(), eps)
		assert.Equal(t, 1, f.Loops())
		assert.InDelta(t, 1.75, f.CycleLength(), eps)
	}
	assert.InDelta(t, small.locals[1].Rotation.Z, big.locals[1].Rotation.Z, 1e-4)
	assert.InDelta(t, 1.5, big.locals[1].Rotation.Z, 1e-4)
}

func TestFlowLargeStepKeepsAllCycles(t *testing.T) {
	tests := []struct {
		name     string
		duration float32
		step     float32
	}{
		{"thousand seconds of millisecond motions", 0.001, 1000},
		{"million seconds of millisecond motions", 0.001, 1e6},
		{"fractional cycles", 0.3, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := newFakeTarget("root")
			a, err := Bind(&Template{Name: "spin", Flows: []FlowTemplate{{
				Motions: []Motion{{Acts: []Act{NewDelta("root", math.V3(1, 0, 0))}, Duration: tt.duration}},
			}}}, target)
			require.NoError(t, err)

			require.NoError(t, a.Run(target, tt.step))

			cycles := float64(tt.step) / float64(tt.duration)
			assert.InEpsilon(t, cycles, float64(target.locals[0].Rotation.X), 1e-5)
			assert.InDelta(t, gomath.Floor(cycles), float64(a.Flows()[0].Loops()), 1)
		})
	}
}

func TestFlowLargeStepSettlesAbsoluteActs(t *testing.T) {
	target := newFakeTarget("root", "arm")
	a, err := Bind(timedTemplate(), target)
	require.NoError(t, err)

	require.NoError(t, a.Run(target, 1000*1.75+0.75))

	f := a.Flows()[0]
	assert.Equal(t, 1, f.Current())
	assert.InDelta(t, 0.25, f.Elapsed(), eps)
	assert.Equal(t, 1000, f.Loops())
	assert.InDelta(t, 1000.25, target.locals[1].Rotation.Z, 1e-3)
	assert.True(t, target.locals[0].Offset.ApproxEqual(math.V3(0, 1, 0), 1e-5), "got %v", target.locals[0].Offset)
}

func TestFlowZeroLengthCycle(t *testing.T) {
	target := newFakeTarget("root")
	a, err := Bind(&Template{Name: "snap", Flows: []FlowTemplate{{
		Motions: []Motion{
			{Acts: []Act{NewTarget("root", FieldOffset, math.V3(3, 0, 0))}},
			{Acts: []Act{NewDelta("root", math.V3(0, 1, 0))}},
		},
	}}}, target)
	require.NoError(t, err)

	require.NoError(t, a.Run(target, 1))
	assert.Equal(t, math.V3(3, 0, 0), target.locals[0].Offset)
	assert.Equal(t, math.V3(0, 1, 0), target.locals[0].Rotation)
	assert.Equal(t, 0, a.Flows()[0].Current())
}

func TestFlowRejectsNegativeStep(t *testing.T) {
	target := newFakeTarget("root", "arm")
	a, err := Bind(timedTemplate(), target)
	require.NoError(t, err)
	assert.ErrorIs(t, a.Run(target, -0.1), ErrNegativeStep)
}

func TestFlowResetToStart(t *testing.T) {
	target := newFakeTarget("root", "arm")
	tpl := timedTemplate()
	tpl.Flows[0].Start = 2
	a, err := Bind(tpl, target)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Flows()[0].Current())

	// Wrapping past the last motion is not a loop until Start comes round.
	require.NoError(t, a.Run(target, 0.5))
	assert.Equal(t, 0, a.Flows()[0].Current())
	assert.Equal(t, 0, a.Flows()[0].Loops())
	require.NoError(t, a.Run(target, 1.5))
	assert.Equal(t, 2, a.Flows()[0].Current())
	assert.Equal(t, 1, a.Flows()[0].Loops())

	a.Reset()
	assert.Equal(t, 2, a.Flows()[0].Current())
	assert.Equal(t, float32(0), a.Flows()[0].Elapsed())
	assert.Equal(t, 0, a.Flows()[0].Loops())
}

func TestTemplateValidate(t *testing.T) {
	tpl := timedTemplate()
	tpl.Flows[0].Start = 3
	assert.ErrorIs(t, tpl.Validate(), ErrInvalidStart)

	tpl = timedTemplate()
	tpl.Flows[0].Motions[1].Duration = -1
	_, err := Bind(tpl, newFakeTarget("root", "arm"))
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestBindUnknownSegment(t *testing.T) {
	_, err := Bind(timedTemplate(), newFakeTarget("root"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownSegment))

	var nre *NameResolutionError
	require.True(t, errors.As(err, &nre))
	assert.Equal(t, "walk", nre.Anim)
	assert.Equal(t, "arm", nre.Segment)
	assert.Contains(t, err.Error(), `"walk"`)
}

func TestFreshInstanceMatchesBind(t *testing.T) {
	first := newFakeTarget("root", "arm")
	proto, err := Bind(timedTemplate(), first)
	require.NoError(t, err)
	require.NoError(t, proto.Run(first, 1.1))

	viaClone := newFakeTarget("root", "arm")
	clone := proto.FreshInstance()
	assert.Equal(t, 0, clone.Flows()[0].Current())
	assert.Equal(t, float32(0), clone.Flows()[0].Elapsed())

	viaBind := newFakeTarget("root", "arm")
	fresh, err := Bind(timedTemplate(), viaBind)
	require.NoError(t, err)

	for _, step := range []float32{0.1, 0.4, 0.7, 0.3, 1.2} {
		require.NoError(t, clone.Run(viaClone, step))
		require.NoError(t, fresh.Run(viaBind, step))
	}
	assert.Equal(t, viaBind.locals, viaClone.locals)

	// The prototype's run state is untouched by its instances.
	assert.Equal(t, 1, proto.Flows()[0].Current())
	assert.InDelta(t, 0.6, proto.Flows()[0].Elapsed(), eps)
}

func TestPlayer(t *testing.T) {
	target := newFakeTarget("root", "arm")
	p := NewPlayer(target)
	require.NoError(t, p.Run(0.5))
	assert.Nil(t, p.Current())

	require.NoError(t, p.Set(timedTemplate()))
	require.NotNil(t, p.Current())
	require.NoError(t, p.Run(0.25))
	assert.InDelta(t, 0.25, p.Current().Flows()[0].Elapsed(), eps)

	p.Reset()
	assert.Equal(t, float32(0), p.Current().Flows()[0].Elapsed())

	// A bound anim is replayed as an independent instance.
	proto := p.Current()
	require.NoError(t, p.Set(proto))
	assert.NotSame(t, proto, p.Current())

	// Failed sets keep the previous animation.
	running := p.Current()
	assert.ErrorIs(t, p.Set(&Anim{Name: "raw"}), ErrNotBound)
	assert.ErrorIs(t, p.Set(&Template{Name: "bad", Flows: []FlowTemplate{{
		Motions: []Motion{{Acts: []Act{NewTarget("tail", FieldOffset, math.Vec3{})}}},
	}}}), ErrUnknownSegment)
	assert.Same(t, running, p.Current())

	p.Clear()
	assert.Nil(t, p.Current())
}

func TestPlayerRejectsOversizedAnim(t *testing.T) {
	big := newFakeTarget("root", "arm")
	proto, err := Bind(timedTemplate(), big)
	require.NoError(t, err)

	// Same names, fewer transform slots.
	small := newFakeTarget("root")
	small.names["arm"] = 1
	p := NewPlayer(small)

	err = p.Set(proto)
	assert.ErrorIs(t, err, transform.ErrCapacity)
	assert.Nil(t, p.Current())
}

func TestCache(t *testing.T) {
	c := NewCache()
	tpl := timedTemplate()

	a, err := c.Prototype(tpl, "humanoid", newFakeTarget("root", "arm"))
	require.NoError(t, err)
	b, err := c.Prototype(tpl, "humanoid", newFakeTarget("root", "arm"))
	require.NoError(t, err)
	assert.Same(t, a, b)

	other, err := c.Prototype(tpl, "quadruped", newFakeTarget("arm", "root"))
	require.NoError(t, err)
	assert.NotSame(t, a, other)

	_, err = c.Prototype(tpl, "stump", newFakeTarget("root"))
	assert.ErrorIs(t, err, ErrUnknownSegment)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 1, c.Hits())
	assert.Equal(t, 2, c.Misses())
}

func TestCacheSeparatesTemplatesSharingName(t *testing.T) {
	c := NewCache()
	walk := timedTemplate()
	renamed := &Template{Name: walk.Name, Flows: []FlowTemplate{{
		Motions: []Motion{{Acts: []Act{NewDelta("root", math.V3(1, 0, 0))}, Duration: 1}},
	}}}

	a, err := c.Prototype(walk, "humanoid", newFakeTarget("root", "arm"))
	require.NoError(t, err)
	b, err := c.Prototype(renamed, "humanoid", newFakeTarget("root", "arm"))
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Len(t, b.Flows()[0].Motions, 1)
	assert.Len(t, a.Flows()[0].Motions, 3)
	assert.Equal(t, 2, c.Misses())
	assert.Equal(t, 0, c.Hits())
}
