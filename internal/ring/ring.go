// Package ring implements a triple-buffered streaming buffer for per-frame
// vertex data. Each segment is guarded by a fence from the last draw that
// read it, so the CPU never overwrites bytes the GPU may still consume.
package ring

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Segments is the number of windows the buffer is split into.
const Segments = 3

// ErrInvalidConfig is returned by New for unusable sizes.
var ErrInvalidConfig = errors.New("ring: invalid configuration")

// Fence marks a point in the GPU command stream.
type Fence interface {
	// Wait blocks for at most timeout and reports whether the fence has signaled.
	Wait(timeout time.Duration) bool
	Delete()
}

// Device issues the GPU commands the buffer depends on. All calls happen on
// the thread that owns the graphics context.
type Device interface {
	// InsertFence returns a fence covering every command issued so far.
	InsertFence() Fence
	// DrawRange draws count vertices starting at byte offset in the ring buffer.
	DrawRange(offset, count int)
}

// Options configures a Buffer.
type Options struct {
	// SegmentSize is the usable size of one segment in bytes.
	SegmentSize int
	// Alignment is the required offset granularity of a segment start,
	// e.g. GL_SHADER_STORAGE_BUFFER_OFFSET_ALIGNMENT.
	Alignment int
	// VertexStride is the size of one vertex in bytes.
	VertexStride int
	// WaitSlice is how long one fence wait blocks before it is retried and
	// logged. Defaults to 10ms.
	WaitSlice time.Duration
	Logger    *slog.Logger
}

// Buffer is the fenced ring. It is not safe for concurrent use.
type Buffer struct {
	mem     []byte
	dev     Device
	stride  int // aligned distance between segment starts
	size    int
	vstride int
	slice   time.Duration
	log     *slog.Logger

	fences [Segments]Fence
	head   int
	locked bool
	stalls int
}

// SegmentStride returns the aligned distance between segment starts.
func SegmentStride(segmentSize, alignment int) int {
	if alignment <= 1 {
		return segmentSize
	}
	return (segmentSize + alignment - 1) / alignment * alignment
}

// Required returns the number of bytes the backing buffer must hold.
func Required(segmentSize, alignment int) int {
	return Segments * SegmentStride(segmentSize, alignment)
}

// New splits mem into Segments aligned windows. mem must be coherently
// mapped: writes are not flushed.
func New(mem []byte, dev Device, opts Options) (*Buffer, error) {
	if opts.SegmentSize <= 0 || opts.VertexStride <= 0 || opts.SegmentSize < opts.VertexStride {
		return nil, fmt.Errorf("%w: segment %d bytes, vertex stride %d", ErrInvalidConfig, opts.SegmentSize, opts.VertexStride)
	}
	if need := Required(opts.SegmentSize, opts.Alignment); len(mem) < need {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrInvalidConfig, need, len(mem))
	}
	if dev == nil {
		return nil, fmt.Errorf("%w: nil device", ErrInvalidConfig)
	}
	if opts.WaitSlice <= 0 {
		opts.WaitSlice = 10 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Buffer{
		mem:     mem,
		dev:     dev,
		stride:  SegmentStride(opts.SegmentSize, opts.Alignment),
		size:    opts.SegmentSize,
		vstride: opts.VertexStride,
		slice:   opts.WaitSlice,
		log:     opts.Logger,
		// the first Lock lands on segment 0
		head: Segments - 1,
	}, nil
}

// LockNextSegment advances to the next segment, blocks until the draw that
// last read it has retired, and returns its write window.
func (b *Buffer) LockNextSegment() []byte {
	if b.locked {
		panic("ring: LockNextSegment called twice without UnlockAndDraw")
	}
	b.head = (b.head + 1) % Segments

	if f := b.fences[b.head]; f != nil {
		start := time.Now()
		for !f.Wait(b.slice) {
			b.log.Warn("ring segment still in use by the GPU", "segment", b.head, "waited", time.Since(start))
		}
		if time.Since(start) >= b.slice {
			b.stalls++
		}
	}

	b.locked = true
	off := b.head * b.stride
	return b.mem[off : off+b.size : off+b.size]
}

// UnlockAndDraw draws count vertices from the locked segment and fences it.
// A count larger than the segment holds is clamped and logged. It returns the
// number of vertices drawn.
func (b *Buffer) UnlockAndDraw(count int) int {
	if !b.locked {
		panic("ring: UnlockAndDraw without LockNextSegment")
	}
	b.locked = false

	if limit := b.size / b.vstride; count > limit {
		b.log.Warn("ring segment overflow, clamping draw", "requested", count, "capacity", limit)
		count = limit
	}
	if count > 0 {
		b.dev.DrawRange(b.head*b.stride, count)
	}

	if old := b.fences[b.head]; old != nil {
		old.Delete()
	}
	b.fences[b.head] = b.dev.InsertFence()
	return count
}

// Head returns the index of the most recently locked segment.
func (b *Buffer) Head() int { return b.head }

// SegmentSize returns the usable bytes per segment.
func (b *Buffer) SegmentSize() int { return b.size }

// Capacity returns the number of vertices one segment holds.
func (b *Buffer) Capacity() int { return b.size / b.vstride }

// Stalls returns how many locks had to wait longer than one wait slice.
func (b *Buffer) Stalls() int { return b.stalls }

// Close deletes every outstanding fence.
func (b *Buffer) Close() {
	for i, f := range b.fences {
		if f != nil {
			f.Delete()
			b.fences[i] = nil
		}
	}
}
