// Package model ties a segment graph, its mesh and its animation player
// into a drawable, pickable model instance.
package model

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-rig/internal/engine/transform"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Model errors.
var (
	ErrVertexIndex    = errors.New("vertex transform index out of range")
	ErrMeshIndex      = errors.New("mesh index out of range")
	ErrNotSegment     = errors.New("transform index does not belong to a segment")
	ErrMixedTopology  = errors.New("group models have different topologies")
	ErrGroupMatrices  = errors.New("group buffer matrix count does not match model")
	ErrEmptyPrototype = errors.New("prototype needs a graph and a mesh")
)

// Vertex is a rest-pose position tagged with the transform index that
// moves it.
type Vertex struct {
	Position math.Vec3
	Index    int
}

// Mesh is an indexed triangle list.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// Validate checks vertex tags against highIndex and the index buffer
// against the vertex count.
func (m *Mesh) Validate(highIndex int) error {
	for i, v := range m.Vertices {
		if v.Index < 0 || v.Index > highIndex {
			return fmt.Errorf("vertex %d: index %d outside [0, %d]: %w", i, v.Index, highIndex, ErrVertexIndex)
		}
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%d indices is not a triangle list: %w", len(m.Indices), ErrMeshIndex)
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			return fmt.Errorf("index %d refers to vertex %d of %d: %w", i, idx, len(m.Vertices), ErrMeshIndex)
		}
	}
	return nil
}

// Positions returns the rest-pose positions and their transform tags.
func (m *Mesh) Positions() ([]math.Vec3, []int) {
	pos := make([]math.Vec3, len(m.Vertices))
	tags := make([]int, len(m.Vertices))
	for i, v := range m.Vertices {
		pos[i] = v.Position
		tags[i] = v.Index
	}
	return pos, tags
}

// Drawer draws one model instance immediately.
type Drawer interface {
	DrawDirect(mesh *Mesh, arr *transform.Array) error
}
