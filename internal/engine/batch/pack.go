package batch

import (
	"encoding/binary"
	gomath "math"
)

const matrixBytes = 16 * 4

// Pack encodes the pending matrices as little-endian float32 in stored
// element order. The returned slice is reused by the next call.
func (b *Buffer) Pack() []byte {
	out := b.packed[:b.offset*matrixBytes]
	for i := 0; i < b.offset; i++ {
		base := i * matrixBytes
		for j, f := range b.matrices[i] {
			binary.LittleEndian.PutUint32(out[base+j*4:], gomath.Float32bits(f))
		}
	}
	return out
}
