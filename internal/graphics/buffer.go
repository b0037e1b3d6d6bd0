// Package graphics holds the OpenGL 4.6 side of the streaming pipeline:
// persistently mapped buffers, fences, the Hi-Z and cull compute passes, and
// the chunk and overlay renderers. Everything here must run on the thread
// that owns the GL context.
package graphics

import (
	"errors"
	"fmt"
	"time"
	"unsafe"

	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/ring"
	"github.com/go-gl/gl/v4.6-core/gl"
)

// ErrMapFailed is returned when the driver refuses a persistent mapping.
var ErrMapFailed = errors.New("graphics: buffer mapping failed")

const persistentFlags = gl.MAP_WRITE_BIT | gl.MAP_PERSISTENT_BIT | gl.MAP_COHERENT_BIT

// MappedBuffer is an immutable-storage buffer mapped for coherent writes for
// its whole lifetime. Bytes aliases GPU-visible memory.
type MappedBuffer struct {
	ID    uint32
	Bytes []byte
}

// NewMappedBuffer allocates and maps size bytes.
func NewMappedBuffer(size int) (*MappedBuffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d", ErrMapFailed, size)
	}
	var id uint32
	gl.CreateBuffers(1, &id)
	gl.NamedBufferStorage(id, size, nil, persistentFlags)

	ptr := gl.MapNamedBufferRange(id, 0, size, persistentFlags)
	if ptr == nil {
		gl.DeleteBuffers(1, &id)
		return nil, fmt.Errorf("%w: %d bytes", ErrMapFailed, size)
	}
	return &MappedBuffer{
		ID:    id,
		Bytes: unsafe.Slice((*byte)(ptr), size),
	}, nil
}

// Delete unmaps and frees the buffer. Bytes must not be touched afterwards.
func (b *MappedBuffer) Delete() {
	if b == nil || b.ID == 0 {
		return
	}
	gl.UnmapNamedBuffer(b.ID)
	gl.DeleteBuffers(1, &b.ID)
	b.ID = 0
	b.Bytes = nil
}

// fence wraps a GL sync object.
type fence uintptr

func insertFence() fence {
	return fence(gl.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0))
}

// Wait flushes pending commands and waits up to timeout. A failed wait
// counts as signaled so a lost context can't hang the frame loop.
func (f fence) Wait(timeout time.Duration) bool {
	switch gl.ClientWaitSync(uintptr(f), gl.SYNC_FLUSH_COMMANDS_BIT, uint64(timeout.Nanoseconds())) {
	case gl.TIMEOUT_EXPIRED:
		return false
	}
	return true
}

func (f fence) Delete() {
	gl.DeleteSync(uintptr(f))
}

var _ ring.Fence = fence(0)
