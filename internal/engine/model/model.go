package model

import (
	"fmt"

	"github.com/Faultbox/midgard-rig/internal/engine/anim"
	"github.com/Faultbox/midgard-rig/internal/engine/bounds"
	"github.com/Faultbox/midgard-rig/internal/engine/segment"
	"github.com/Faultbox/midgard-rig/internal/engine/transform"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Model is one posed instance of a Prototype. It is not safe for
// concurrent use.
type Model struct {
	proto  *Prototype
	graph  *segment.Graph
	arr    *transform.Array
	box    bounds.Box
	player *anim.Player

	root    math.Mat4
	hasRoot bool
	culled  bool
	posed   []math.Vec3
}

// New instances proto with its own graph state and transform array.
func New(proto *Prototype) (*Model, error) {
	arr, err := transform.NewArray(proto.Graph.HighIndex())
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", proto.Name, err)
	}
	m := &Model{
		proto: proto,
		graph: proto.Graph.Clone(),
		arr:   arr,
		box:   bounds.New(),
	}
	m.player = anim.NewPlayer(m)
	return m, nil
}

// Name returns the prototype name.
func (m *Model) Name() string { return m.proto.Name }

// Prototype returns the shared prototype.
func (m *Model) Prototype() *Prototype { return m.proto }

// Mesh returns the shared mesh.
func (m *Model) Mesh() *Mesh { return m.proto.Mesh }

// Graph returns the instance's segment graph.
func (m *Model) Graph() *segment.Graph { return m.graph }

// Transforms returns the resolved matrices of the last Update.
func (m *Model) Transforms() *transform.Array { return m.arr }

// Bounds returns the world box of the last Update.
func (m *Model) Bounds() *bounds.Box { return &m.box }

// Culled reports whether the last visibility test rejected the model.
func (m *Model) Culled() bool { return m.culled }

// TopologyKey identifies the prototype's segment layout.
func (m *Model) TopologyKey() string { return m.proto.topology }

// Update resolves the graph under root and rebuilds the world box from the
// leaf segments.
func (m *Model) Update(root math.Mat4) error {
	if !m.hasRoot || root != m.root {
		m.graph.MarkAllDirty()
		m.root = root
		m.hasRoot = true
	}

	accum := root
	if err := m.graph.Update(&accum, m.arr); err != nil {
		return fmt.Errorf("model %q: %w", m.proto.Name, err)
	}

	m.box.Reset()
	for i := 0; i < m.graph.Len(); i++ {
		if !m.graph.IsLeaf(i) {
			continue
		}
		seg := m.graph.Segment(i)
		if seg.Box.Empty {
			continue
		}
		mat, err := m.arr.Get(seg.Index())
		if err != nil {
			return fmt.Errorf("model %q: %w", m.proto.Name, err)
		}
		m.box.UnionTransformed(&seg.Box, mat)
	}
	m.box.FillVectors()
	return nil
}

// Visible tests the world box against viewProj and records the result.
func (m *Model) Visible(viewProj math.Mat4) bool {
	m.culled = !m.box.SurvivesClip(viewProj)
	return !m.culled
}

// Draw culls the model and, if it survives, draws it through d. It reports
// whether a draw was issued.
func (m *Model) Draw(viewProj math.Mat4, d Drawer) (bool, error) {
	if !m.Visible(viewProj) {
		return false, nil
	}
	if err := d.DrawDirect(m.proto.Mesh, m.arr); err != nil {
		return true, fmt.Errorf("model %q: %w", m.proto.Name, err)
	}
	return true, nil
}

// SegmentIndex returns the graph arena id of the named segment.
func (m *Model) SegmentIndex(name string) (int, bool) {
	return m.graph.Find(name)
}

// SegmentTransformIndex returns the transform index of the named segment.
func (m *Model) SegmentTransformIndex(name string) (int, bool) {
	return m.graph.TransformIndex(name)
}

func (m *Model) segmentFor(tti int) (*segment.Segment, error) {
	if tti < 0 || tti > m.graph.HighIndex() {
		return nil, &transform.CapacityError{Op: "segment", Index: tti, Limit: m.graph.HighIndex()}
	}
	id, ok := m.graph.ByTransformIndex(tti)
	if !ok {
		return nil, fmt.Errorf("index %d: %w", tti, ErrNotSegment)
	}
	return m.graph.Segment(id), nil
}

// LocalTransform returns the local transform of the segment owning tti.
func (m *Model) LocalTransform(tti int) (*transform.Local, error) {
	s, err := m.segmentFor(tti)
	if err != nil {
		return nil, err
	}
	return &s.Local, nil
}

// MarkDirty flags the segment owning tti for the next Update.
func (m *Model) MarkDirty(tti int) error {
	id, ok := m.graph.ByTransformIndex(tti)
	if !ok {
		_, err := m.segmentFor(tti)
		return err
	}
	m.graph.MarkDirty(id)
	return nil
}

// HighIndex returns the largest transform index of the model.
func (m *Model) HighIndex() int { return m.graph.HighIndex() }

// SetAnim starts src on this model. See anim.Player.Set.
func (m *Model) SetAnim(src anim.Source) error {
	return m.player.Set(src)
}

// RunAnim advances the current animation by step seconds.
func (m *Model) RunAnim(step float32) error {
	return m.player.Run(step)
}

// ResetAnim rewinds the current animation.
func (m *Model) ResetAnim() { m.player.Reset() }

// ClearAnim stops animating. Segments keep their current pose.
func (m *Model) ClearAnim() { m.player.Clear() }

// Anim returns the running animation, or nil.
func (m *Model) Anim() *anim.Anim { return m.player.Current() }

// Clone returns an independent instance with the same pose and a fresh
// copy of the running animation.
func (m *Model) Clone() (*Model, error) {
	arr, err := transform.NewArray(m.graph.HighIndex())
	if err != nil {
		return nil, err
	}
	if err := arr.CopyFrom(m.arr); err != nil {
		return nil, err
	}

	c := &Model{
		proto: m.proto,
		graph: m.graph.Clone(),
		arr:   arr,
		box:   m.box,
	}
	c.player = anim.NewPlayer(c)
	if cur := m.player.Current(); cur != nil {
		if err := c.player.Set(cur); err != nil {
			return nil, err
		}
	}
	return c, nil
}
