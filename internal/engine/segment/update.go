package segment

import (
	"fmt"

	"github.com/Faultbox/midgard-rig/internal/engine/transform"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Update resolves every root subtree into arr, threading a single
// accumulator through a depth-first walk. accum is restored to its input
// value on return.
func (g *Graph) Update(accum *math.Mat4, arr *transform.Array) error {
	for _, r := range g.roots {
		if err := g.updateSegment(r, accum, arr); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) updateSegment(id int, accum *math.Mat4, arr *transform.Array) error {
	s := &g.segments[id]

	if s.dirty {
		for _, b := range s.blends {
			if err := g.updateBlend(&g.blends[b], s, accum, arr); err != nil {
				return err
			}
		}

		s.Local.UpdateMatrices()
		s.Local.Trans(accum)
		if err := arr.Set(s.index, *accum); err != nil {
			return fmt.Errorf("segment %q: %w", s.name, err)
		}

		for _, c := range s.children {
			g.segments[c].dirty = true
			if err := g.updateSegment(c, accum, arr); err != nil {
				return err
			}
		}
		s.dirty = false
	} else {
		// Clean: nothing is written here, but the accumulator still has
		// to pass through this node so dirty descendants see the right parent.
		s.Local.Trans(accum)
		for _, c := range s.children {
			if err := g.updateSegment(c, accum, arr); err != nil {
				return err
			}
		}
	}

	s.Local.InvTrans(accum)
	return nil
}

// updateBlend writes the blend's matrix using the accumulator as it stands
// before the owner's own transform is applied.
func (g *Graph) updateBlend(b *Blend, owner *Segment, accum *math.Mat4, arr *transform.Array) error {
	b.Local.Set(owner.Local.Offset.Scale(b.proportion), owner.Local.Rotation.Scale(b.proportion))
	b.Local.UpdateMatrices()

	b.Local.Trans(accum)
	err := arr.Set(b.index, *accum)
	b.Local.InvTrans(accum)
	if err != nil {
		return fmt.Errorf("blend %q: %w", b.name, err)
	}
	return nil
}
