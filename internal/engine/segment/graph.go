// Package segment implements the hierarchical transform graph of a model:
// a tree of segments, each bound to a local transform and a slot in the
// model's transform array, resolved by a dirty-flag incremental update.
package segment

import (
	"github.com/Faultbox/midgard-rig/internal/engine/bounds"
	"github.com/Faultbox/midgard-rig/internal/engine/transform"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Segment is one node of the graph.
type Segment struct {
	Local transform.Local
	Box   bounds.Box // rest-pose bounds of the vertices tagged with Index

	name     string
	index    int
	parent   int // -1 for roots; lookup only, never owns
	children []int
	blends   []int
	dirty    bool
}

// Name returns the segment name.
func (s *Segment) Name() string { return s.name }

// Index returns the segment's transform index.
func (s *Segment) Index() int { return s.index }

// Parent returns the parent's arena id, or -1 for a root.
func (s *Segment) Parent() int { return s.parent }

// Children returns the arena ids of the children, in order.
func (s *Segment) Children() []int { return s.children }

// Blends returns the arena ids of the segment's blends.
func (s *Segment) Blends() []int { return s.blends }

// Dirty reports whether the segment will be rewritten on the next update.
func (s *Segment) Dirty() bool { return s.dirty }

// Blend echoes a proportion of its owner's offset and rotation into its own
// transform slot. Blends are leaves.
type Blend struct {
	Local transform.Local

	name       string
	owner      int
	index      int
	proportion float32
}

// Name returns the blend name.
func (b *Blend) Name() string { return b.name }

// Index returns the blend's transform index.
func (b *Blend) Index() int { return b.index }

// Owner returns the arena id of the owning segment.
func (b *Blend) Owner() int { return b.owner }

// Proportion returns the fraction of the owner's transform the blend echoes.
func (b *Blend) Proportion() float32 { return b.proportion }

// lookup tables are built once and shared by clones.
type lookup struct {
	byName  map[string]int
	byIndex []int // transform index -> segment arena id, -1 for blends and gaps
}

// Graph is an arena-owned tree of segments and blends.
type Graph struct {
	segments  []Segment
	blends    []Blend
	roots     []int
	highIndex int
	lookup    *lookup
}

// Len returns the number of segments.
func (g *Graph) Len() int { return len(g.segments) }

// BlendLen returns the number of blends.
func (g *Graph) BlendLen() int { return len(g.blends) }

// Roots returns the arena ids of the root segments.
func (g *Graph) Roots() []int { return g.roots }

// HighIndex returns the largest transform index used in the graph.
func (g *Graph) HighIndex() int { return g.highIndex }

// Segment returns the segment with arena id i.
func (g *Graph) Segment(i int) *Segment { return &g.segments[i] }

// Blend returns the blend with arena id i.
func (g *Graph) Blend(i int) *Blend { return &g.blends[i] }

// IsLeaf reports whether segment i has no child segments.
func (g *Graph) IsLeaf(i int) bool { return len(g.segments[i].children) == 0 }

// Find returns the arena id of the segment named name.
func (g *Graph) Find(name string) (int, bool) {
	i, ok := g.lookup.byName[name]
	return i, ok
}

// TransformIndex returns the transform index of the segment named name.
func (g *Graph) TransformIndex(name string) (int, bool) {
	i, ok := g.Find(name)
	if !ok {
		return 0, false
	}
	return g.segments[i].index, true
}

// ByTransformIndex returns the arena id of the segment owning transform index tti.
func (g *Graph) ByTransformIndex(tti int) (int, bool) {
	if tti < 0 || tti >= len(g.lookup.byIndex) {
		return 0, false
	}
	i := g.lookup.byIndex[tti]
	return i, i >= 0
}

// MarkDirty flags segment i for rewrite on the next update.
func (g *Graph) MarkDirty(i int) {
	g.segments[i].dirty = true
}

// MarkAllDirty flags every segment.
func (g *Graph) MarkAllDirty() {
	for i := range g.segments {
		g.segments[i].dirty = true
	}
}

// Clone returns an independent copy for another model instance. Local
// transforms and boxes are copied, every segment starts dirty, lookup
// tables are shared.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		segments:  make([]Segment, len(g.segments)),
		blends:    make([]Blend, len(g.blends)),
		roots:     g.roots,
		highIndex: g.highIndex,
		lookup:    g.lookup,
	}
	copy(c.segments, g.segments)
	copy(c.blends, g.blends)
	for i := range c.segments {
		c.segments[i].dirty = true
	}
	return c
}

// Walk visits every segment depth-first in child order.
func (g *Graph) Walk(fn func(id, depth int)) {
	var visit func(id, depth int)
	visit = func(id, depth int) {
		fn(id, depth)
		for _, c := range g.segments[id].children {
			visit(c, depth+1)
		}
	}
	for _, r := range g.roots {
		visit(r, 0)
	}
}

// CreateBoundingBoxes resets every segment's local box to the union of the
// rest-pose positions whose tag equals the segment's transform index.
// positions and tags are parallel.
func (g *Graph) CreateBoundingBoxes(positions []math.Vec3, tags []int) {
	for i := range g.segments {
		g.segments[i].Box.Reset()
	}
	for v, tag := range tags {
		id, ok := g.ByTransformIndex(tag)
		if !ok {
			continue
		}
		g.segments[id].Box.UnionPoint(positions[v])
	}
	for i := range g.segments {
		g.segments[i].Box.FillVectors()
	}
}
