package transform

import (
	"errors"
	"fmt"
)

// ErrCapacity matches every CapacityError via errors.Is.
var ErrCapacity = errors.New("capacity exceeded")

// CapacityError reports a write outside a fixed-capacity store: a transform
// index beyond a model's high index, or an append to a full instance batch.
// It signals a mismatch between declared and actual sizes and is not retried.
type CapacityError struct {
	Op    string
	Index int
	Limit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: index %d outside [0, %d]", e.Op, e.Index, e.Limit)
}

// Is reports whether target is ErrCapacity.
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacity
}
