package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-rig/internal/engine/model"
)

// Geometry is a mesh uploaded to the GPU: positions at attribute 0 and
// transform indices at attribute 1.
type Geometry struct {
	vao       uint32
	positions uint32
	tags      uint32
	ebo       uint32
	count     int32
}

func newGeometry(mesh *model.Mesh) (*Geometry, error) {
	if len(mesh.Vertices) == 0 || len(mesh.Indices) == 0 {
		return nil, ErrEmptyMesh
	}

	pos := make([]float32, 0, len(mesh.Vertices)*3)
	tags := make([]uint32, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		pos = append(pos, v.Position.X, v.Position.Y, v.Position.Z)
		tags[i] = uint32(v.Index)
	}

	g := &Geometry{count: int32(len(mesh.Indices))}
	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	gl.GenBuffers(1, &g.positions)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.positions)
	gl.BufferData(gl.ARRAY_BUFFER, len(pos)*4, gl.Ptr(pos), gl.STATIC_DRAW)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(0)

	gl.GenBuffers(1, &g.tags)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.tags)
	gl.BufferData(gl.ARRAY_BUFFER, len(tags)*4, gl.Ptr(tags), gl.STATIC_DRAW)
	gl.VertexAttribIPointer(1, 1, gl.UNSIGNED_INT, 4, nil)
	gl.EnableVertexAttribArray(1)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(mesh.Indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	if err := checkError("upload geometry"); err != nil {
		g.Delete()
		return nil, fmt.Errorf("%d vertices: %w", len(mesh.Vertices), err)
	}
	return g, nil
}

// IndexCount returns the number of indices drawn per instance.
func (g *Geometry) IndexCount() int { return int(g.count) }

// Delete releases the GPU objects.
func (g *Geometry) Delete() {
	if g.vao != 0 {
		gl.DeleteVertexArrays(1, &g.vao)
	}
	for _, b := range []*uint32{&g.positions, &g.tags, &g.ebo} {
		if *b != 0 {
			gl.DeleteBuffers(1, b)
		}
	}
	*g = Geometry{}
}
