// Package batch accumulates the resolved matrices of many model instances
// that share one mesh so they can be drawn with a single instanced call.
package batch

import (
	"errors"

	"github.com/Faultbox/midgard-rig/internal/engine/transform"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Batch errors.
var (
	// ErrInvalidSize is returned by New for non-positive dimensions.
	ErrInvalidSize = errors.New("batch capacity and matrices per instance must be positive")
	// ErrNoDraw is returned when a flush has no draw function.
	ErrNoDraw = errors.New("batch has no draw function")
)

// Uploader copies a packed instance block to the GPU.
type Uploader interface {
	UploadInstances(block []byte) error
}

// DrawFunc issues one instanced draw for the given instance count.
type DrawFunc func(instances int) error

type discard struct{}

func (discard) UploadInstances([]byte) error { return nil }

// Discard is an Uploader that drops every block.
var Discard Uploader = discard{}

// Buffer is a fixed-capacity instance batch. A partially filled buffer is
// only drawn when the caller flushes it.
type Buffer struct {
	matrices []math.Mat4
	capacity int
	mpi      int
	count    int
	offset   int
	flushes  int
	up       Uploader
	packed   []byte
}

// New allocates a buffer holding capacity instances of matricesPerInstance
// matrices each.
func New(capacity, matricesPerInstance int, up Uploader) (*Buffer, error) {
	if capacity <= 0 || matricesPerInstance <= 0 {
		return nil, ErrInvalidSize
	}
	if up == nil {
		up = Discard
	}
	n := capacity * matricesPerInstance
	return &Buffer{
		matrices: make([]math.Mat4, n),
		capacity: capacity,
		mpi:      matricesPerInstance,
		up:       up,
		packed:   make([]byte, 0, n*matrixBytes),
	}, nil
}

// Count returns the number of instances appended since the last flush.
func (b *Buffer) Count() int { return b.count }

// Offset returns the number of matrices appended since the last flush.
func (b *Buffer) Offset() int { return b.offset }

// Capacity returns the maximum instance count.
func (b *Buffer) Capacity() int { return b.capacity }

// MatricesPerInstance returns the per-instance matrix count.
func (b *Buffer) MatricesPerInstance() int { return b.mpi }

// Full reports whether another Append would fail.
func (b *Buffer) Full() bool { return b.count == b.capacity }

// Flushes returns how many non-empty flushes have been issued.
func (b *Buffer) Flushes() int { return b.flushes }

// Append copies the transposed matrices of one instance into the buffer.
func (b *Buffer) Append(arr *transform.Array) error {
	if b.count == b.capacity {
		return &transform.CapacityError{Op: "append", Index: b.count, Limit: b.capacity - 1}
	}
	if arr.Len() < b.mpi {
		return &transform.CapacityError{Op: "append", Index: b.mpi - 1, Limit: arr.HighIndex()}
	}

	for i := 0; i < b.mpi; i++ {
		m, err := arr.GetTransposed(i)
		if err != nil {
			return err
		}
		b.matrices[b.offset+i] = m
	}
	b.count++
	b.offset += b.mpi
	return nil
}

// AppendAndMaybeFlush appends and flushes once the buffer is full.
func (b *Buffer) AppendAndMaybeFlush(arr *transform.Array, draw DrawFunc) error {
	if err := b.Append(arr); err != nil {
		return err
	}
	if b.Full() {
		return b.Flush(draw)
	}
	return nil
}

// Flush uploads the pending instances and draws them. The buffer is
// emptied even when upload or draw fails.
func (b *Buffer) Flush(draw DrawFunc) error {
	if b.count == 0 {
		return nil
	}
	n := b.count
	defer func() {
		b.count = 0
		b.offset = 0
	}()

	if draw == nil {
		return ErrNoDraw
	}
	b.flushes++
	if err := b.up.UploadInstances(b.Pack()); err != nil {
		return err
	}
	return draw(n)
}
