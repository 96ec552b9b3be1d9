package anim

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-rig/internal/logger"
)

// FlowTemplate is an authored flow. Its acts refer to segments by name.
type FlowTemplate struct {
	Start   int
	Motions []Motion
}

// Template is a named, immutable animation script. It can be bound to any
// number of models.
type Template struct {
	Name  string
	Flows []FlowTemplate
}

// Validate checks durations and start indices.
func (t *Template) Validate() error {
	for fi, ft := range t.Flows {
		if len(ft.Motions) > 0 && (ft.Start < 0 || ft.Start >= len(ft.Motions)) {
			return fmt.Errorf("anim %q flow %d: start %d: %w", t.Name, fi, ft.Start, ErrInvalidStart)
		}
		for mi, m := range ft.Motions {
			if m.Duration < 0 {
				return fmt.Errorf("anim %q flow %d motion %d: %w", t.Name, fi, mi, ErrInvalidDuration)
			}
		}
	}
	return nil
}

// Anim is an animation bound to a model topology, carrying its own run
// state. Bound motions are shared by every FreshInstance.
type Anim struct {
	Name string

	flows    []Flow
	maxIndex int
	bound    bool
}

// Bind resolves every act of tpl against target.
func Bind(tpl *Template, target Target) (*Anim, error) {
	if err := tpl.Validate(); err != nil {
		return nil, err
	}

	a := &Anim{Name: tpl.Name, flows: make([]Flow, len(tpl.Flows)), maxIndex: -1}
	for fi, ft := range tpl.Flows {
		motions := make([]Motion, len(ft.Motions))
		for mi, m := range ft.Motions {
			acts := make([]Act, len(m.Acts))
			for ai, act := range m.Acts {
				bound, err := act.Bind(target)
				if err != nil {
					var nre *NameResolutionError
					if errors.As(err, &nre) {
						nre.Anim = tpl.Name
					}
					return nil, err
				}
				if bound.index > a.maxIndex {
					a.maxIndex = bound.index
				}
				acts[ai] = bound
			}
			motions[mi] = Motion{Acts: acts, Duration: m.Duration}
		}
		a.flows[fi] = Flow{Motions: motions, Start: ft.Start}
		a.flows[fi].Reset()
	}
	a.bound = true

	if logger.Enabled() {
		logger.Named("anim").Debug("bound animation",
			zap.String("anim", tpl.Name),
			zap.Int("flows", len(a.flows)),
			zap.Int("max_index", a.maxIndex))
	}
	return a, nil
}

// FreshInstance returns a copy sharing the bound motions with reset run
// state.
func (a *Anim) FreshInstance() *Anim {
	c := &Anim{Name: a.Name, flows: make([]Flow, len(a.flows)), maxIndex: a.maxIndex, bound: a.bound}
	for i := range a.flows {
		c.flows[i] = Flow{Motions: a.flows[i].Motions, Start: a.flows[i].Start}
		c.flows[i].Reset()
	}
	return c
}

// Bound reports whether the animation has been resolved against a model.
func (a *Anim) Bound() bool { return a.bound }

// MaxIndex returns the largest transform index any act touches, or -1.
func (a *Anim) MaxIndex() int { return a.maxIndex }

// Flows returns the flows with their run state.
func (a *Anim) Flows() []Flow { return a.flows }

// Run advances every flow by step.
func (a *Anim) Run(target Target, step float32) error {
	if !a.bound {
		return ErrNotBound
	}
	for i := range a.flows {
		if err := a.flows[i].Run(target, step); err != nil {
			return fmt.Errorf("anim %q flow %d: %w", a.Name, i, err)
		}
	}
	return nil
}

// Reset rewinds every flow.
func (a *Anim) Reset() {
	for i := range a.flows {
		a.flows[i].Reset()
	}
}
