// Package scene drives the per-frame loop of a set of rigged models:
// animate, resolve transforms, then cull and draw.
package scene

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-rig/internal/engine/anim"
	"github.com/Faultbox/midgard-rig/internal/engine/batch"
	"github.com/Faultbox/midgard-rig/internal/engine/bounds"
	"github.com/Faultbox/midgard-rig/internal/engine/model"
	"github.com/Faultbox/midgard-rig/internal/engine/picking"
	"github.com/Faultbox/midgard-rig/internal/logger"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// ErrRootCount is returned when a group is added with the wrong number of
// placement matrices.
var ErrRootCount = errors.New("one root matrix per group model required")

// Config contains frame loop options.
type Config struct {
	BatchCapacity int
	TimeScale     float32
	MaxStep       float32 // 0 disables clamping
}

// DefaultConfig returns the frame loop defaults.
func DefaultConfig() Config {
	return Config{
		BatchCapacity: 64,
		TimeScale:     1,
		MaxStep:       0.1,
	}
}

// Stats summarizes one frame.
type Stats struct {
	Models    int
	Culled    int
	Direct    int
	Batches   int
	Instances int
}

type placed struct {
	model *model.Model
	root  math.Mat4
}

type group struct {
	group *model.Group
	roots []math.Mat4
}

// Scene owns the models of one view. All work happens on the caller's
// goroutine.
type Scene struct {
	config Config
	models []placed
	groups []group
	cache  *anim.Cache
	log    *zap.Logger
	frames int
}

// New creates an empty scene.
func New(cfg Config) *Scene {
	return &Scene{
		config: cfg,
		cache:  anim.NewCache(),
		log:    logger.Named("scene"),
	}
}

// Cache returns the scene's bound animation cache.
func (s *Scene) Cache() *anim.Cache { return s.cache }

// Frames returns how many frames have been run.
func (s *Scene) Frames() int { return s.frames }

// AddModel adds a directly drawn model placed at root.
func (s *Scene) AddModel(m *model.Model, root math.Mat4) {
	s.models = append(s.models, placed{model: m, root: root})
}

// AddGroup adds a batch-drawn group with one placement per model.
func (s *Scene) AddGroup(g *model.Group, roots []math.Mat4) error {
	if len(roots) != len(g.Models) {
		return fmt.Errorf("%d roots for %d models: %w", len(roots), len(g.Models), ErrRootCount)
	}
	s.groups = append(s.groups, group{group: g, roots: roots})
	return nil
}

// SpawnGrid instances proto n times on a square grid in the XZ plane,
// starts tpl on each (bound once through the cache, nil for none) and adds
// them as one batched group.
func (s *Scene) SpawnGrid(proto *model.Prototype, n int, spacing float32, tpl *anim.Template, up batch.Uploader, draw batch.DrawFunc) (*model.Group, error) {
	if n <= 0 {
		return nil, fmt.Errorf("spawn %d instances: %w", n, batch.ErrInvalidSize)
	}

	side := int(math32.Ceil(math32.Sqrt(float32(n))))
	half := float32(side-1) * spacing / 2

	models := make([]*model.Model, n)
	roots := make([]math.Mat4, n)
	for i := range models {
		m, err := model.New(proto)
		if err != nil {
			return nil, err
		}
		if tpl != nil {
			a, err := s.cache.Prototype(tpl, proto.TopologyKey(), m)
			if err != nil {
				return nil, err
			}
			if err := m.SetAnim(a); err != nil {
				return nil, err
			}
		}
		models[i] = m
		roots[i] = math.Translate(float32(i%side)*spacing-half, 0, float32(i/side)*spacing-half)
	}

	buf, err := batch.New(s.config.BatchCapacity, proto.Graph.HighIndex()+1, up)
	if err != nil {
		return nil, err
	}
	g, err := model.NewGroup(models, buf, draw)
	if err != nil {
		return nil, err
	}
	if err := s.AddGroup(g, roots); err != nil {
		return nil, err
	}

	s.log.Debug("spawned grid",
		zap.String("prototype", proto.Name),
		zap.Int("instances", n),
		zap.Int("side", side),
		zap.Int("cached_anims", s.cache.Len()))
	return g, nil
}

func (s *Scene) scaleStep(step float32) float32 {
	step *= s.config.TimeScale
	if s.config.MaxStep > 0 && step > s.config.MaxStep {
		step = s.config.MaxStep
	}
	if step < 0 {
		step = 0
	}
	return step
}

// Frame advances animations by step seconds, resolves every model and
// draws the survivors of culling against viewProj.
func (s *Scene) Frame(step float32, viewProj math.Mat4, d model.Drawer) (Stats, error) {
	var st Stats
	step = s.scaleStep(step)

	if err := s.each(func(m *model.Model, _ math.Mat4) error { return m.RunAnim(step) }); err != nil {
		return st, err
	}
	if err := s.each(func(m *model.Model, root math.Mat4) error { return m.Update(root) }); err != nil {
		return st, err
	}

	for _, p := range s.models {
		st.Models++
		drawn, err := p.model.Draw(viewProj, d)
		if err != nil {
			return st, err
		}
		if drawn {
			st.Direct++
		} else {
			st.Culled++
		}
	}
	for _, g := range s.groups {
		st.Models += len(g.group.Models)
		gs, err := model.DrawBatched(g.group, viewProj)
		st.Culled += gs.Culled
		st.Batches += gs.Batches
		st.Instances += gs.Visible
		if err != nil {
			return st, err
		}
	}

	s.frames++
	s.log.Debug("frame",
		zap.Int("frame", s.frames),
		zap.Float32("step", step),
		zap.Int("models", st.Models),
		zap.Int("culled", st.Culled),
		zap.Int("direct", st.Direct),
		zap.Int("batches", st.Batches),
		zap.Int("instances", st.Instances))
	return st, nil
}

func (s *Scene) each(fn func(m *model.Model, root math.Mat4) error) error {
	for _, p := range s.models {
		if err := fn(p.model, p.root); err != nil {
			return err
		}
	}
	for _, g := range s.groups {
		for i, m := range g.group.Models {
			if err := fn(m, g.roots[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Models returns every model, direct ones first, in frame order.
func (s *Scene) Models() []*model.Model {
	var out []*model.Model
	_ = s.each(func(m *model.Model, _ math.Mat4) error {
		out = append(out, m)
		return nil
	})
	return out
}

// Bounds returns the union of every model's world box as of the last frame.
func (s *Scene) Bounds() bounds.Box {
	box := bounds.New()
	_ = s.each(func(m *model.Model, _ math.Mat4) error {
		box.UnionBox(m.Bounds())
		return nil
	})
	box.FillVectors()
	return box
}

// Pick returns the nearest model hit by ray.
func (s *Scene) Pick(ray picking.Ray) (*model.Model, float32, bool) {
	var best *model.Model
	nearest := math32.Inf(1)
	_ = s.each(func(m *model.Model, _ math.Mat4) error {
		if t, ok := m.Pick(ray); ok && t < nearest {
			best, nearest = m, t
		}
		return nil
	})
	if best == nil {
		return nil, 0, false
	}
	return best, nearest, true
}
