// Package renderer provides OpenGL rendering functionality.
package renderer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-rig/internal/engine/batch"
	"github.com/Faultbox/midgard-rig/internal/engine/lighting"
	"github.com/Faultbox/midgard-rig/internal/engine/model"
	"github.com/Faultbox/midgard-rig/internal/engine/shader"
	"github.com/Faultbox/midgard-rig/internal/engine/transform"
	"github.com/Faultbox/midgard-rig/internal/logger"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Renderer errors.
var (
	ErrBlockTooLarge = errors.New("instance block exceeds uniform buffer size")
	ErrEmptyMesh     = errors.New("mesh has no triangles")
	ErrGL            = errors.New("OpenGL error")
)

var _ model.Drawer = (*Renderer)(nil)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
	VSync  bool

	// MaxMatrices sizes the instance uniform block: batch capacity times
	// matrices per instance.
	MaxMatrices int

	Sun lighting.Sun
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config Config

	program     uint32
	viewProjLoc int32
	mpiLoc      int32
	colorLoc    int32
	lightLoc    int32

	lineProgram     uint32
	lineViewProjLoc int32
	lineColorLoc    int32
	lineVAO         uint32
	lineVBO         uint32

	instances *InstanceUploader
	geoms     map[*model.Mesh]*Geometry
	direct    map[int]*batch.Buffer
	viewProj  math.Mat4
	color     [4]float32
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
		geoms:  make(map[*model.Mesh]*Geometry),
		direct: make(map[int]*batch.Buffer),
		color:  [4]float32{0.75, 0.7, 0.6, 1},
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	rendererName := gl.GoStr(gl.GetString(gl.RENDERER))
	var maxBlock int32
	gl.GetIntegerv(gl.MAX_UNIFORM_BLOCK_SIZE, &maxBlock)
	logger.Info("OpenGL initialized",
		zap.String("version", version),
		zap.String("renderer", rendererName),
		zap.Int32("max_uniform_block", maxBlock),
	)

	if cfg.MaxMatrices <= 0 || cfg.MaxMatrices*matrixBytes > int(maxBlock) {
		return nil, fmt.Errorf("%d matrices (%d bytes, limit %d): %w",
			cfg.MaxMatrices, cfg.MaxMatrices*matrixBytes, maxBlock, ErrBlockTooLarge)
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	var err error
	r.program, err = shader.CompileProgram(rigVertexSource(cfg.MaxMatrices), rigFragmentSource)
	if err != nil {
		return nil, fmt.Errorf("rig program: %w", err)
	}
	if err := shader.BindUniformBlock(r.program, InstanceBlock, InstanceBinding); err != nil {
		r.Close()
		return nil, err
	}
	r.viewProjLoc = shader.MustGetUniform(r.program, "uViewProj")
	r.mpiLoc = shader.MustGetUniform(r.program, "uMatricesPerInstance")
	r.colorLoc = shader.MustGetUniform(r.program, "uColor")
	r.lightLoc = shader.MustGetUniform(r.program, "uLightDir")
	r.SetLight(cfg.Sun)

	r.lineProgram, err = shader.CompileProgram(lineVertexSource, lineFragmentSource)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("line program: %w", err)
	}
	r.lineViewProjLoc = shader.MustGetUniform(r.lineProgram, "uViewProj")
	r.lineColorLoc = shader.MustGetUniform(r.lineProgram, "uColor")
	r.createLineBuffer()

	r.instances = newInstanceUploader(cfg.MaxMatrices)
	if err := checkError("init"); err != nil {
		r.Close()
		return nil, err
	}

	logger.Debug("renderer created",
		zap.Uint32("program", r.program),
		zap.Int("instance_block_bytes", r.instances.Size()),
	)
	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	for mesh, g := range r.geoms {
		g.Delete()
		delete(r.geoms, mesh)
	}
	if r.instances != nil {
		r.instances.delete()
	}
	if r.lineVAO != 0 {
		gl.DeleteVertexArrays(1, &r.lineVAO)
	}
	if r.lineVBO != 0 {
		gl.DeleteBuffers(1, &r.lineVBO)
	}
	if r.lineProgram != 0 {
		gl.DeleteProgram(r.lineProgram)
	}
	if r.program != 0 {
		gl.DeleteProgram(r.program)
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Begin clears the frame and sets the camera for every draw that follows.
// viewProj uses zero-to-one depth and is remapped to GL depth on upload.
func (r *Renderer) Begin(viewProj math.Mat4) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	r.viewProj = viewProj
	clip := viewProj.DepthNO()

	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.viewProjLoc, 1, false, clip.Ptr())
	gl.UseProgram(r.lineProgram)
	gl.UniformMatrix4fv(r.lineViewProjLoc, 1, false, clip.Ptr())
	gl.UseProgram(0)
}

// SetLight points the rig shading at sun.
func (r *Renderer) SetLight(sun lighting.Sun) {
	d := sun.Direction()
	gl.UseProgram(r.program)
	gl.Uniform3f(r.lightLoc, d.X, d.Y, d.Z)
	gl.UseProgram(0)
}

// Uploader returns the instance block uploader shared by every batch.
func (r *Renderer) Uploader() *InstanceUploader {
	return r.instances
}

// Geometry returns the uploaded geometry for mesh, uploading it on first
// use.
func (r *Renderer) Geometry(mesh *model.Mesh) (*Geometry, error) {
	if g, ok := r.geoms[mesh]; ok {
		return g, nil
	}
	g, err := newGeometry(mesh)
	if err != nil {
		return nil, err
	}
	r.geoms[mesh] = g
	return g, nil
}

// DrawFunc returns a batch.DrawFunc drawing geom with matricesPerInstance
// matrices per instance from the instance block.
func (r *Renderer) DrawFunc(geom *Geometry, matricesPerInstance int) batch.DrawFunc {
	return func(instances int) error {
		gl.UseProgram(r.program)
		gl.Uniform1i(r.mpiLoc, int32(matricesPerInstance))
		gl.Uniform4f(r.colorLoc, r.color[0], r.color[1], r.color[2], r.color[3])
		gl.BindVertexArray(geom.vao)
		gl.DrawElementsInstanced(gl.TRIANGLES, geom.count, gl.UNSIGNED_INT, nil, int32(instances))
		gl.BindVertexArray(0)
		return checkError("draw instanced")
	}
}

// DrawDirect implements model.Drawer as a single-instance batch.
func (r *Renderer) DrawDirect(mesh *model.Mesh, arr *transform.Array) error {
	geom, err := r.Geometry(mesh)
	if err != nil {
		return err
	}
	n := arr.Len()
	buf, ok := r.direct[n]
	if !ok {
		buf, err = batch.New(1, n, r.instances)
		if err != nil {
			return err
		}
		r.direct[n] = buf
	}
	if err := buf.Append(arr); err != nil {
		return err
	}
	return buf.Flush(r.DrawFunc(geom, n))
}

func (r *Renderer) createLineBuffer() {
	gl.GenVertexArrays(1, &r.lineVAO)
	gl.BindVertexArray(r.lineVAO)
	gl.GenBuffers(1, &r.lineVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// DrawLines draws a line list of xyz triples in world space.
func (r *Renderer) DrawLines(vertices []float32, color [4]float32) {
	if len(vertices) < 6 {
		return
	}
	gl.UseProgram(r.lineProgram)
	gl.Uniform4f(r.lineColorLoc, color[0], color[1], color[2], color[3])
	gl.BindVertexArray(r.lineVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STREAM_DRAW)
	gl.DrawArrays(gl.LINES, 0, int32(len(vertices)/3))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}

// ReadPixels returns the back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, w, h
}

func checkError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%s: 0x%04x: %w", op, code, ErrGL)
	}
	return nil
}
