// Package world assembles a scene from config: it loads the rig, spawns
// the instance grid and keeps the camera framed on it.
package world

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-rig/internal/config"
	"github.com/Faultbox/midgard-rig/internal/engine/anim"
	"github.com/Faultbox/midgard-rig/internal/engine/batch"
	"github.com/Faultbox/midgard-rig/internal/engine/camera"
	"github.com/Faultbox/midgard-rig/internal/engine/model"
	"github.com/Faultbox/midgard-rig/internal/engine/picking"
	"github.com/Faultbox/midgard-rig/internal/engine/scene"
	"github.com/Faultbox/midgard-rig/internal/engine/transform"
	"github.com/Faultbox/midgard-rig/internal/loader"
	"github.com/Faultbox/midgard-rig/internal/logger"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// ErrUnknownAnim is returned when the configured animation is not defined
// by the rig.
var ErrUnknownAnim = errors.New("rig has no such animation")

// Load reads the configured rig and looks up the configured animation. An
// empty animation name yields a nil template.
func Load(cfg *config.Config) (*model.Prototype, *anim.Template, error) {
	proto, err := loader.LoadRig(cfg.Scene.Rig)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Scene.Anim == "" {
		return proto, nil, nil
	}
	tpl, ok := proto.Anim(cfg.Scene.Anim)
	if !ok {
		return nil, nil, fmt.Errorf("%q in %s (have %v): %w", cfg.Scene.Anim, cfg.Scene.Rig, proto.AnimNames(), ErrUnknownAnim)
	}
	return proto, tpl, nil
}

// World is a populated scene with its camera.
type World struct {
	Proto  *model.Prototype
	Scene  *scene.Scene
	Group  *model.Group
	Camera *camera.OrbitCamera

	fovY float32
	near float32
	far  float32
}

type noDraw struct{}

func (noDraw) DrawDirect(*model.Mesh, *transform.Array) error { return nil }

// New spawns cfg.Scene.Instances copies of proto playing tpl, resolves
// them once and frames the camera on the result.
func New(cfg *config.Config, proto *model.Prototype, tpl *anim.Template, up batch.Uploader, draw batch.DrawFunc) (*World, error) {
	sc := scene.New(scene.Config{
		BatchCapacity: cfg.Batch.Capacity,
		TimeScale:     cfg.Animation.TimeScale,
		MaxStep:       cfg.Animation.MaxStep,
	})
	g, err := sc.SpawnGrid(proto, cfg.Scene.Instances, cfg.Scene.Spacing, tpl, up, draw)
	if err != nil {
		return nil, err
	}

	w := &World{
		Proto:  proto,
		Scene:  sc,
		Group:  g,
		Camera: camera.NewOrbitCamera(),
		fovY:   cfg.Graphics.FOV * math32.Pi / 180,
		near:   cfg.Graphics.Near,
		far:    cfg.Graphics.Far,
	}

	// Resolve the rest pose without drawing so the bounds are known.
	if _, err := sc.Frame(0, w.offscreen(), noDraw{}); err != nil {
		return nil, err
	}
	box := sc.Bounds()
	w.Camera.FitToBounds(&box)

	logger.Info("world ready",
		zap.String("rig", proto.Name),
		zap.Int("instances", len(g.Models)),
		zap.Int("matrices_per_instance", g.Buffer.MatricesPerInstance()),
		zap.Int("batch_capacity", g.Buffer.Capacity()),
	)
	return w, nil
}

// offscreen collapses everything onto one point behind the near plane so
// the settle frame culls every model.
func (w *World) offscreen() math.Mat4 {
	return math.Translate(0, 0, -10).Mul(math.Scale(0, 0, 0))
}

// ViewProj returns the camera's view-projection for aspect.
func (w *World) ViewProj(aspect float32) math.Mat4 {
	return w.Camera.ViewProj(w.fovY, aspect, w.near, w.far)
}

// Step advances the world by dt seconds and draws it from the camera.
func (w *World) Step(dt, aspect float32, d model.Drawer) (scene.Stats, error) {
	return w.Scene.Frame(dt, w.ViewProj(aspect), d)
}

// Pick returns the model under the screen point (x, y) of a width by height
// viewport.
func (w *World) Pick(x, y, width, height, aspect float32) (*model.Model, bool) {
	ray := picking.ScreenToRay(x, y, width, height, w.ViewProj(aspect).Inverse())
	m, _, ok := w.Scene.Pick(ray)
	return m, ok
}
