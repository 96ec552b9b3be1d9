package anim

import (
	"errors"
	"fmt"
)

// Sequencer errors.
var (
	ErrUnknownSegment  = errors.New("unknown segment")
	ErrNotBound        = errors.New("animation is not bound to a model")
	ErrNegativeStep    = errors.New("negative time step")
	ErrInvalidDuration = errors.New("negative motion duration")
	ErrInvalidStart    = errors.New("flow start motion out of range")
	ErrUnknownSource   = errors.New("unsupported animation source")
	ErrStepStalled     = errors.New("time step too large to advance flow")
)

// NameResolutionError reports an act whose segment name does not exist in
// the target model.
type NameResolutionError struct {
	Anim    string
	Segment string
}

func (e *NameResolutionError) Error() string {
	if e.Anim == "" {
		return fmt.Sprintf("segment %q not found", e.Segment)
	}
	return fmt.Sprintf("anim %q: segment %q not found", e.Anim, e.Segment)
}

// Is matches ErrUnknownSegment.
func (e *NameResolutionError) Is(target error) bool {
	return target == ErrUnknownSegment
}
