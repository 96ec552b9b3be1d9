// Package viewer implements the interactive rig viewer loop.
package viewer

import (
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-rig/internal/config"
	"github.com/Faultbox/midgard-rig/internal/engine/debug"
	"github.com/Faultbox/midgard-rig/internal/engine/input"
	"github.com/Faultbox/midgard-rig/internal/engine/lighting"
	"github.com/Faultbox/midgard-rig/internal/engine/model"
	"github.com/Faultbox/midgard-rig/internal/engine/renderer"
	"github.com/Faultbox/midgard-rig/internal/engine/scene"
	"github.com/Faultbox/midgard-rig/internal/engine/window"
	"github.com/Faultbox/midgard-rig/internal/logger"
	"github.com/Faultbox/midgard-rig/internal/world"
)

var (
	boxColor      = [4]float32{0.3, 0.8, 0.4, 1}
	selectedColor = [4]float32{1, 0.85, 0.2, 1}
)

// Viewer owns the window, the renderer and the world being shown.
type Viewer struct {
	config   *config.Config
	running  bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	world    *world.World
	shots    *debug.Screenshots

	paused    bool
	showBoxes bool
	capture   bool
	selected  *model.Model
	last      scene.Stats
}

// New opens the window and loads the configured rig into it.
func New(cfg *config.Config) (*Viewer, error) {
	proto, tpl, err := world.Load(cfg)
	if err != nil {
		return nil, err
	}
	mpi := proto.Graph.HighIndex() + 1

	v := &Viewer{
		config: cfg,
		shots:  debug.NewScreenshots(cfg.Scene.Screenshots, proto.Name),
	}

	v.window, err = window.New(window.Config{
		Title:      "midgard-rig: " + proto.Name,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer needs the GL context created by the window.
	width, height := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{
		Width:       width,
		Height:      height,
		VSync:       cfg.Graphics.VSync,
		MaxMatrices: cfg.Batch.Capacity * mpi,
		Sun: lighting.Sun{
			Longitude: cfg.Graphics.SunLongitude,
			Latitude:  cfg.Graphics.SunLatitude,
		},
	})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	geom, err := v.renderer.Geometry(proto.Mesh)
	if err != nil {
		v.Close()
		return nil, err
	}
	v.world, err = world.New(cfg, proto, tpl, v.renderer.Uploader(), v.renderer.DrawFunc(geom, mpi))
	if err != nil {
		v.Close()
		return nil, err
	}

	v.input = input.New()
	logger.Info("viewer initialized",
		zap.String("rig", proto.Name),
		zap.Int("geometry_indices", geom.IndexCount()),
	)
	return v, nil
}

// Run drives frames until the window is closed or Escape is pressed.
func (v *Viewer) Run() error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting viewer loop")

	for v.running {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		if v.input.Update() {
			v.running = false
			break
		}
		for _, event := range v.input.Events() {
			v.handleEvent(event)
		}
		v.move(dt)

		if err := v.render(dt); err != nil {
			return fmt.Errorf("render error: %w", err)
		}
		if v.capture {
			v.screenshot()
			v.capture = false
		}
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.window.SetTitle(fmt.Sprintf("midgard-rig: %s | %d fps | %d instances, %d culled, %d batches",
				v.world.Proto.Name, frameCount, v.last.Instances+v.last.Direct, v.last.Culled, v.last.Batches))
			logger.Debug("fps", zap.Int("count", frameCount), zap.Float32("dt_ms", dt*1000))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

// Close cleans up viewer resources.
func (v *Viewer) Close() {
	logger.Info("closing viewer")

	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

func (v *Viewer) handleEvent(event input.Event) {
	switch event.Type {
	case input.EventWindowResize:
		width, height := v.window.DrawableSize()
		v.renderer.Resize(width, height)
	case input.EventMouseMove:
		if event.Button == sdl.BUTTON_LEFT {
			v.world.Camera.HandleDrag(float32(event.DeltaX), float32(event.DeltaY))
		}
	case input.EventMouseWheel:
		v.world.Camera.HandleZoom(event.Wheel)
	case input.EventMouseDown:
		if event.Button == sdl.BUTTON_RIGHT {
			v.pick(event.MouseX, event.MouseY)
		}
	case input.EventKeyDown:
		switch event.Key {
		case sdl.SCANCODE_ESCAPE:
			v.running = false
		case sdl.SCANCODE_SPACE:
			v.paused = !v.paused
		case sdl.SCANCODE_B:
			v.showBoxes = !v.showBoxes
		case sdl.SCANCODE_R:
			for _, m := range v.world.Scene.Models() {
				m.ResetAnim()
			}
		case sdl.SCANCODE_F12:
			v.capture = true
		}
	}
}

func (v *Viewer) move(dt float32) {
	forward := v.input.Axis(sdl.SCANCODE_W, sdl.SCANCODE_S)
	right := v.input.Axis(sdl.SCANCODE_D, sdl.SCANCODE_A)
	up := v.input.Axis(sdl.SCANCODE_E, sdl.SCANCODE_Q)
	if forward != 0 || right != 0 || up != 0 {
		speed := v.world.Camera.Distance * dt
		v.world.Camera.HandleMovement(forward*speed, right*speed, up*speed)
	}
}

// pick selects the model under a window-space mouse position.
func (v *Viewer) pick(x, y int) {
	ww, wh := v.window.GetSize()
	m, ok := v.world.Pick(float32(x), float32(y), float32(ww), float32(wh), v.window.Aspect())
	if !ok {
		v.selected = nil
		return
	}
	v.selected = m
	lo, hi := m.Bounds().Min.Array(), m.Bounds().Max.Array()
	logger.Info("picked model",
		zap.String("name", m.Name()),
		zap.Float32s("min", lo[:]),
		zap.Float32s("max", hi[:]),
	)
}

func (v *Viewer) render(dt float32) error {
	if v.paused {
		dt = 0
	}
	v.renderer.Begin(v.world.ViewProj(v.window.Aspect()))

	st, err := v.world.Step(dt, v.window.Aspect(), v.renderer)
	if err != nil {
		return err
	}
	v.last = st

	if v.showBoxes {
		for _, m := range v.world.Scene.Models() {
			if !m.Culled() {
				v.renderer.DrawLines(debug.BoxWireframe(m.Bounds(), debug.DefaultBBoxPadding), boxColor)
			}
		}
	}
	if v.selected != nil {
		v.renderer.DrawLines(debug.BoxWireframe(v.selected.Bounds(), 2*debug.DefaultBBoxPadding), selectedColor)
	}
	return nil
}

func (v *Viewer) screenshot() {
	pixels, width, height := v.renderer.ReadPixels()
	path, err := v.shots.SaveRGBA(pixels, width, height)
	if err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", path))
}
