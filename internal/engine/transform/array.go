package transform

import (
	"github.com/Faultbox/midgard-rig/pkg/math"
)

type slot struct {
	matrix     math.Mat4
	transposed math.Mat4
}

// Array is the dense, index-addressed store of resolved matrices (and their
// transposes) for one model instance. Slot i belongs to the segment or blend
// whose transform index is i.
type Array struct {
	slots []slot
}

// NewArray allocates highIndex+1 identity slots.
func NewArray(highIndex int) (*Array, error) {
	if highIndex < 0 {
		return nil, &CapacityError{Op: "new array", Index: highIndex, Limit: 0}
	}
	a := &Array{slots: make([]slot, highIndex+1)}
	id := math.Identity()
	for i := range a.slots {
		a.slots[i] = slot{matrix: id, transposed: id}
	}
	return a, nil
}

// Len returns the number of slots.
func (a *Array) Len() int {
	return len(a.slots)
}

// HighIndex returns the largest valid index.
func (a *Array) HighIndex() int {
	return len(a.slots) - 1
}

func (a *Array) check(op string, index int) error {
	if index < 0 || index >= len(a.slots) {
		return &CapacityError{Op: op, Index: index, Limit: len(a.slots) - 1}
	}
	return nil
}

// Set stores m and its transpose at index.
func (a *Array) Set(index int, m math.Mat4) error {
	if err := a.check("set transform", index); err != nil {
		return err
	}
	a.slots[index] = slot{matrix: m, transposed: m.Transpose()}
	return nil
}

// Get returns the matrix at index.
func (a *Array) Get(index int) (math.Mat4, error) {
	if err := a.check("get transform", index); err != nil {
		return math.Mat4{}, err
	}
	return a.slots[index].matrix, nil
}

// GetTransposed returns the transposed matrix at index.
func (a *Array) GetTransposed(index int) (math.Mat4, error) {
	if err := a.check("get transposed", index); err != nil {
		return math.Mat4{}, err
	}
	return a.slots[index].transposed, nil
}

// Transform applies the matrix at index to a vertex position tagged with
// that index.
func (a *Array) Transform(p math.Vec3, index int) (math.Vec3, error) {
	m, err := a.Get(index)
	if err != nil {
		return math.Vec3{}, err
	}
	return m.TransformVec3(p), nil
}

// CopyFrom overwrites every slot with other's. Lengths must match.
func (a *Array) CopyFrom(other *Array) error {
	if len(other.slots) != len(a.slots) {
		return &CapacityError{Op: "copy transforms", Index: other.HighIndex(), Limit: a.HighIndex()}
	}
	copy(a.slots, other.slots)
	return nil
}
