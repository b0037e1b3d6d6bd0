// Package gpuheap sub-allocates one large, persistently mapped GPU buffer.
// It deals in byte offsets; the caller owns the buffer object itself.
package gpuheap

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/btree"
)

// NoSpace is returned by Allocate when no free block can hold the request.
const NoSpace = -1

type block struct {
	offset int
	size   int
}

func byOffset(a, b block) bool { return a.offset < b.offset }

// Heap is a best-fit, coalescing free-list allocator over a mapped byte
// range. The free list is ordered by offset and never holds two contiguous
// entries.
type Heap struct {
	mu       sync.Mutex
	mem      []byte
	free     *btree.BTreeG[block]
	freeSize int
	log      *slog.Logger
}

// New manages mem, which must stay mapped for the lifetime of the heap.
// Writes through mem are assumed visible to the GPU without a flush.
func New(mem []byte, logger *slog.Logger) *Heap {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Heap{
		mem:  mem,
		free: btree.NewG(16, byOffset),
		log:  logger,
	}
	if len(mem) > 0 {
		h.free.ReplaceOrInsert(block{offset: 0, size: len(mem)})
		h.freeSize = len(mem)
	}
	return h
}

func alignUp(v, alignment int) int {
	if alignment <= 1 {
		return v
	}
	if r := v % alignment; r != 0 {
		return v + alignment - r
	}
	return v
}

// Allocate reserves size bytes whose offset is a multiple of alignment and
// returns that offset, or NoSpace. Among the blocks that fit, the one leaving
// the least waste after padding is chosen; an exact fit ends the search.
func (h *Heap) Allocate(size, alignment int) int {
	if size <= 0 {
		return NoSpace
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var (
		best      block
		bestStart int
		bestWaste = -1
	)
	h.free.Ascend(func(b block) bool {
		start := alignUp(b.offset, alignment)
		pad := start - b.offset
		if pad+size > b.size {
			return true
		}
		waste := b.size - pad - size
		if bestWaste < 0 || waste < bestWaste {
			best, bestStart, bestWaste = b, start, waste
		}
		return waste != 0
	})
	if bestWaste < 0 {
		h.log.Warn("gpu heap out of space", "request", size, "free", h.freeSize, "blocks", h.free.Len())
		return NoSpace
	}

	h.free.Delete(best)
	if pad := bestStart - best.offset; pad > 0 {
		h.free.ReplaceOrInsert(block{offset: best.offset, size: pad})
	}
	if end, blockEnd := bestStart+size, best.offset+best.size; end < blockEnd {
		h.free.ReplaceOrInsert(block{offset: end, size: blockEnd - end})
	}
	h.freeSize -= size
	return bestStart
}

// Free returns [offset, offset+size) to the free list and merges it with
// adjacent free blocks. Freeing a range that is out of bounds or already
// free is a programming error and panics.
func (h *Heap) Free(offset, size int) {
	if size <= 0 {
		return
	}
	if offset < 0 || offset+size > len(h.mem) {
		panic(fmt.Sprintf("gpuheap: free [%d,%d) outside heap of %d bytes", offset, offset+size, len(h.mem)))
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	freed := block{offset: offset, size: size}

	var prev, next block
	hasPrev, hasNext := false, false
	h.free.DescendLessOrEqual(freed, func(b block) bool {
		prev, hasPrev = b, true
		return false
	})
	h.free.AscendGreaterOrEqual(freed, func(b block) bool {
		next, hasNext = b, true
		return false
	})
	if hasPrev && prev.offset+prev.size > offset {
		panic(fmt.Sprintf("gpuheap: free [%d,%d) overlaps free block [%d,%d)", offset, offset+size, prev.offset, prev.offset+prev.size))
	}
	if hasNext && offset+size > next.offset {
		panic(fmt.Sprintf("gpuheap: free [%d,%d) overlaps free block [%d,%d)", offset, offset+size, next.offset, next.offset+next.size))
	}

	if hasNext && offset+size == next.offset {
		h.free.Delete(next)
		freed.size += next.size
	}
	if hasPrev && prev.offset+prev.size == offset {
		h.free.Delete(prev)
		freed.offset = prev.offset
		freed.size += prev.size
	}
	h.free.ReplaceOrInsert(freed)
	h.freeSize += size
}

// Upload copies data into the mapped buffer at offset. No fencing happens
// here: the caller must know the GPU is not reading that range.
func (h *Heap) Upload(offset int, data []byte) {
	if offset < 0 || offset+len(data) > len(h.mem) {
		panic(fmt.Sprintf("gpuheap: upload [%d,%d) outside heap of %d bytes", offset, offset+len(data), len(h.mem)))
	}
	copy(h.mem[offset:], data)
}

// Capacity returns the size of the managed buffer.
func (h *Heap) Capacity() int { return len(h.mem) }

// UsedBytes returns the bytes currently handed out, alignment padding excluded.
func (h *Heap) UsedBytes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.mem) - h.freeSize
}

// FreeBytes returns the total size of the free list.
func (h *Heap) FreeBytes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.freeSize
}

// FreeBlockCount returns the number of entries in the free list.
func (h *Heap) FreeBlockCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.free.Len()
}

// LargestFreeBlock returns the size of the biggest free block.
func (h *Heap) LargestFreeBlock() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	largest := 0
	h.free.Ascend(func(b block) bool {
		largest = max(largest, b.size)
		return true
	})
	return largest
}

// FreeList returns a copy of the free list as (offset, size) pairs in offset order.
func (h *Heap) FreeList() [][2]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([][2]int, 0, h.free.Len())
	h.free.Ascend(func(b block) bool {
		out = append(out, [2]int{b.offset, b.size})
		return true
	})
	return out
}
