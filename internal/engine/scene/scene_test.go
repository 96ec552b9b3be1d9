package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-rig/internal/engine/anim"
	"github.com/Faultbox/midgard-rig/internal/engine/batch"
	"github.com/Faultbox/midgard-rig/internal/engine/model"
	"github.com/Faultbox/midgard-rig/internal/engine/picking"
	"github.com/Faultbox/midgard-rig/internal/engine/segment"
	"github.com/Faultbox/midgard-rig/internal/engine/transform"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

func testPrototype(t *testing.T) *model.Prototype {
	t.Helper()
	b := segment.NewBuilder()
	body, err := b.AddSegment(-1, "body", 0, math.Vec3{}, math.Vec3{})
	require.NoError(t, err)
	_, err = b.AddSegment(body, "arm", 1, math.Vec3{}, math.Vec3{})
	require.NoError(t, err)
	g, err := b.Build()
	require.NoError(t, err)

	p, err := model.NewPrototype("flag", g, &model.Mesh{
		Vertices: []model.Vertex{
			{Position: math.V3(0, 0, 0), Index: 1},
			{Position: math.V3(1, 0, 0), Index: 1},
			{Position: math.V3(0, 1, 0), Index: 1},
		},
		Indices: []uint32{0, 1, 2},
	})
	require.NoError(t, err)
	return p
}

func waveTemplate() *anim.Template {
	return &anim.Template{Name: "wave", Flows: []anim.FlowTemplate{{
		Motions: []anim.Motion{{Acts: []anim.Act{anim.NewDelta("arm", math.V3(0.5, 0, 0))}, Duration: 1}},
	}}}
}

// viewProj maps |x|,|y| < 10 and |z| < 5 into the clip volume.
func viewProj() math.Mat4 {
	return math.Translate(0, 0, 0.5).Mul(math.Scale(0.1, 0.1, 0.1))
}

type countDrawer struct {
	direct int
}

func (d *countDrawer) DrawDirect(*model.Mesh, *transform.Array) error {
	d.direct++
	return nil
}

type drawLog struct {
	calls []int
}

func (d *drawLog) draw(n int) error {
	d.calls = append(d.calls, n)
	return nil
}

func TestFrame(t *testing.T) {
	s := New(Config{BatchCapacity: 2, TimeScale: 1, MaxStep: 0.1})
	proto := testPrototype(t)

	single, err := model.New(proto)
	require.NoError(t, err)
	s.AddModel(single, math.Translate(0, 5, 0))

	far, err := model.New(proto)
	require.NoError(t, err)
	s.AddModel(far, math.Translate(100, 0, 0))

	dl := &drawLog{}
	g, err := s.SpawnGrid(proto, 5, 3, waveTemplate(), batch.Discard, dl.draw)
	require.NoError(t, err)
	require.Len(t, g.Models, 5)

	all := s.Models()
	require.Len(t, all, 7)
	assert.Same(t, single, all[0])
	assert.Same(t, far, all[1])
	assert.Same(t, g.Models[0], all[2])

	dd := &countDrawer{}
	st, err := s.Frame(0.05, viewProj(), dd)
	require.NoError(t, err)
	assert.Equal(t, Stats{Models: 7, Culled: 1, Direct: 1, Batches: 3, Instances: 5}, st)
	assert.Equal(t, []int{2, 2, 1}, dl.calls)
	assert.Equal(t, 1, dd.direct)
	assert.Equal(t, 1, s.Frames())

	assert.Equal(t, 1, s.Cache().Len())
	assert.Equal(t, 1, s.Cache().Misses())
	assert.Equal(t, 4, s.Cache().Hits())

	// Steps are clamped to MaxStep.
	_, err = s.Frame(1, viewProj(), dd)
	require.NoError(t, err)
	for _, m := range g.Models {
		assert.InDelta(t, 0.15, m.Anim().Flows()[0].Elapsed(), 1e-5)
	}
}

func TestSpawnGridLayout(t *testing.T) {
	s := New(DefaultConfig())
	g, err := s.SpawnGrid(testPrototype(t), 4, 2, nil, batch.Discard, (&drawLog{}).draw)
	require.NoError(t, err)
	assert.Nil(t, g.Models[0].Anim())

	_, err = s.Frame(0, math.Identity(), &countDrawer{})
	require.NoError(t, err)

	var origins []math.Vec3
	for _, m := range g.Models {
		p, err := m.Transforms().Transform(math.Vec3{}, 0)
		require.NoError(t, err)
		origins = append(origins, p)
	}
	assert.Equal(t, []math.Vec3{
		math.V3(-1, 0, -1), math.V3(1, 0, -1),
		math.V3(-1, 0, 1), math.V3(1, 0, 1),
	}, origins)

	_, err = s.SpawnGrid(testPrototype(t), 0, 1, nil, batch.Discard, nil)
	assert.ErrorIs(t, err, batch.ErrInvalidSize)
}

func TestAddGroupRootCount(t *testing.T) {
	s := New(DefaultConfig())
	proto := testPrototype(t)
	m, err := model.New(proto)
	require.NoError(t, err)
	buf, err := batch.New(4, 2, batch.Discard)
	require.NoError(t, err)
	g, err := model.NewGroup([]*model.Model{m}, buf, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, s.AddGroup(g, nil), ErrRootCount)
	assert.NoError(t, s.AddGroup(g, []math.Mat4{math.Identity()}))
}

func TestBoundsAndPick(t *testing.T) {
	s := New(DefaultConfig())
	proto := testPrototype(t)

	near, err := model.New(proto)
	require.NoError(t, err)
	s.AddModel(near, math.Translate(0, 0, 2))
	back, err := model.New(proto)
	require.NoError(t, err)
	s.AddModel(back, math.Identity())

	_, err = s.Frame(0, viewProj(), &countDrawer{})
	require.NoError(t, err)

	box := s.Bounds()
	assert.False(t, box.Empty)
	assert.Equal(t, math.V3(0, 0, 0), box.Min)
	assert.Equal(t, math.V3(1, 1, 2), box.Max)

	hit, dist, ok := s.Pick(picking.NewRay(math.V3(0.2, 0.3, 10), math.V3(0, 0, -1)))
	require.True(t, ok)
	assert.Same(t, near, hit)
	assert.InDelta(t, 8, dist, 1e-5)

	_, _, ok = s.Pick(picking.NewRay(math.V3(5, 5, 10), math.V3(0, 0, -1)))
	assert.False(t, ok)
}
