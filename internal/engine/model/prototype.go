package model

import (
	"fmt"
	"hash/fnv"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-rig/internal/engine/anim"
	"github.com/Faultbox/midgard-rig/internal/engine/segment"
	"github.com/Faultbox/midgard-rig/internal/logger"
)

// Prototype is the shared, read-only description models are instanced
// from.
type Prototype struct {
	Name  string
	Graph *segment.Graph
	Mesh  *Mesh
	Anims map[string]*anim.Template

	topology string
}

// NewPrototype validates mesh against graph and computes the per-segment
// rest-pose boxes.
func NewPrototype(name string, graph *segment.Graph, mesh *Mesh) (*Prototype, error) {
	if graph == nil || mesh == nil {
		return nil, ErrEmptyPrototype
	}
	if err := mesh.Validate(graph.HighIndex()); err != nil {
		return nil, fmt.Errorf("prototype %q: %w", name, err)
	}

	graph.CreateBoundingBoxes(mesh.Positions())

	p := &Prototype{
		Name:     name,
		Graph:    graph,
		Mesh:     mesh,
		Anims:    make(map[string]*anim.Template),
		topology: topologyKey(graph),
	}

	if logger.Enabled() {
		logger.Named("model").Debug("prototype ready",
			zap.String("name", name),
			zap.Int("segments", graph.Len()),
			zap.Int("blends", graph.BlendLen()),
			zap.Int("vertices", len(mesh.Vertices)),
			zap.String("topology", p.topology))
	}
	return p, nil
}

// AddAnim registers an animation template under its name.
func (p *Prototype) AddAnim(tpl *anim.Template) {
	p.Anims[tpl.Name] = tpl
}

// Anim returns the template registered under name.
func (p *Prototype) Anim(name string) (*anim.Template, bool) {
	tpl, ok := p.Anims[name]
	return tpl, ok
}

// AnimNames returns the registered template names in sorted order.
func (p *Prototype) AnimNames() []string {
	names := make([]string, 0, len(p.Anims))
	for n := range p.Anims {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// TopologyKey identifies the segment layout. Prototypes with equal keys
// resolve segment names to the same transform indices.
func (p *Prototype) TopologyKey() string { return p.topology }

func topologyKey(g *segment.Graph) string {
	h := fnv.New64a()
	g.Walk(func(id, depth int) {
		s := g.Segment(id)
		fmt.Fprintf(h, "%d/%s/%d;", depth, s.Name(), s.Index())
		for _, b := range s.Blends() {
			fmt.Fprintf(h, "+%s/%d;", g.Blend(b).Name(), g.Blend(b).Index())
		}
	})
	return fmt.Sprintf("%016x", h.Sum64())
}
