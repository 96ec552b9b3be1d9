package model

import (
	"fmt"

	"github.com/Faultbox/midgard-rig/internal/engine/batch"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Group is a set of models sharing one topology, drawn through one
// instance batch.
type Group struct {
	Models []*Model
	Buffer *batch.Buffer
	Draw   batch.DrawFunc
}

// NewGroup checks that every model matches the first one's topology and
// that the buffer carries one matrix per transform slot.
func NewGroup(models []*Model, buf *batch.Buffer, draw batch.DrawFunc) (*Group, error) {
	if draw == nil {
		return nil, batch.ErrNoDraw
	}
	for i, m := range models {
		if m.TopologyKey() != models[0].TopologyKey() {
			return nil, fmt.Errorf("model %d %q: %w", i, m.Name(), ErrMixedTopology)
		}
		if n := m.Transforms().Len(); n != buf.MatricesPerInstance() {
			return nil, fmt.Errorf("model %d has %d matrices, buffer takes %d: %w",
				i, n, buf.MatricesPerInstance(), ErrGroupMatrices)
		}
	}
	return &Group{Models: models, Buffer: buf, Draw: draw}, nil
}

// GroupStats summarizes one DrawBatched call.
type GroupStats struct {
	Visible int
	Culled  int
	Batches int
}

// DrawBatched culls every model in g, then appends the survivors to the
// group buffer, flushing when full and once at the end.
func DrawBatched(g *Group, viewProj math.Mat4) (GroupStats, error) {
	var st GroupStats
	for _, m := range g.Models {
		if m.Visible(viewProj) {
			st.Visible++
		} else {
			st.Culled++
		}
	}
	if st.Visible == 0 {
		return st, nil
	}

	before := g.Buffer.Flushes()
	for _, m := range g.Models {
		if m.Culled() {
			continue
		}
		if err := g.Buffer.AppendAndMaybeFlush(m.Transforms(), g.Draw); err != nil {
			st.Batches = g.Buffer.Flushes() - before
			return st, fmt.Errorf("model %q: %w", m.Name(), err)
		}
	}
	err := g.Buffer.Flush(g.Draw)
	st.Batches = g.Buffer.Flushes() - before
	return st, err
}
