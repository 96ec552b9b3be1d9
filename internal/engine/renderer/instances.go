package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-rig/internal/engine/batch"
)

// InstanceBinding is the uniform buffer binding point of the instance block.
const InstanceBinding = 0

const matrixBytes = 16 * 4

var _ batch.Uploader = (*InstanceUploader)(nil)

// InstanceUploader copies packed batch blocks into the instance uniform
// buffer.
type InstanceUploader struct {
	ubo  uint32
	size int
}

func newInstanceUploader(maxMatrices int) *InstanceUploader {
	u := &InstanceUploader{size: maxMatrices * matrixBytes}
	gl.GenBuffers(1, &u.ubo)
	gl.BindBuffer(gl.UNIFORM_BUFFER, u.ubo)
	gl.BufferData(gl.UNIFORM_BUFFER, u.size, nil, gl.DYNAMIC_DRAW)
	gl.BindBufferBase(gl.UNIFORM_BUFFER, InstanceBinding, u.ubo)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	return u
}

// Size returns the block size in bytes.
func (u *InstanceUploader) Size() int { return u.size }

// UploadInstances implements batch.Uploader.
func (u *InstanceUploader) UploadInstances(block []byte) error {
	if len(block) == 0 {
		return nil
	}
	if len(block) > u.size {
		return fmt.Errorf("%d bytes into %d byte block: %w", len(block), u.size, ErrBlockTooLarge)
	}
	gl.BindBuffer(gl.UNIFORM_BUFFER, u.ubo)
	gl.BufferSubData(gl.UNIFORM_BUFFER, 0, len(block), gl.Ptr(block))
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	return checkError("upload instances")
}

func (u *InstanceUploader) delete() {
	if u.ubo != 0 {
		gl.DeleteBuffers(1, &u.ubo)
		u.ubo = 0
	}
}
