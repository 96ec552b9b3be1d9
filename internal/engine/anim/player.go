package anim

import (
	"github.com/Faultbox/midgard-rig/internal/engine/transform"
)

// Source is something a Player can be set to: a *Template, which is bound
// on the spot, or an already bound *Anim, which is replayed as a fresh
// instance.
type Source interface {
	sourceName() string
}

func (t *Template) sourceName() string { return t.Name }
func (a *Anim) sourceName() string     { return a.Name }

// Player holds the animation currently driving one model.
type Player struct {
	target  Target
	current *Anim
}

// NewPlayer returns an idle player for target.
func NewPlayer(target Target) *Player {
	return &Player{target: target}
}

// Set replaces the running animation. On error the previous one keeps
// running.
func (p *Player) Set(src Source) error {
	var next *Anim
	switch s := src.(type) {
	case *Template:
		a, err := Bind(s, p.target)
		if err != nil {
			return err
		}
		next = a
	case *Anim:
		if !s.Bound() {
			return ErrNotBound
		}
		if hi := p.target.HighIndex(); s.MaxIndex() > hi {
			return &transform.CapacityError{Op: "set anim", Index: s.MaxIndex(), Limit: hi}
		}
		next = s.FreshInstance()
	default:
		return ErrUnknownSource
	}

	next.Reset()
	p.current = next
	return nil
}

// Run advances the current animation. It is a no-op when idle.
func (p *Player) Run(step float32) error {
	if p.current == nil {
		return nil
	}
	return p.current.Run(p.target, step)
}

// Reset rewinds the current animation.
func (p *Player) Reset() {
	if p.current != nil {
		p.current.Reset()
	}
}

// Clear stops animating.
func (p *Player) Clear() {
	p.current = nil
}

// Current returns the running animation, or nil.
func (p *Player) Current() *Anim {
	return p.current
}
