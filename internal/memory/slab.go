// Package memory holds the CPU-side allocators used by the chunk pipeline.
package memory

import (
	"fmt"
	"sync"
	"unsafe"
)

// Growth selects how many records a new page holds.
type Growth int

const (
	// GrowLinear adds pages of the initial page size.
	GrowLinear Growth = iota
	// GrowGeometric doubles the page size each time the pool grows.
	GrowGeometric
)

// SlabOptions configures a Slab.
type SlabOptions struct {
	// PageSize is the number of records in the first page. Defaults to 64.
	PageSize int
	// MaxRecords is a hard cap on the number of records; zero means unbounded.
	MaxRecords int
	Growth     Growth
}

type page[T any] struct {
	records []T
	base    uintptr
	end     uintptr
}

// Slab hands out fixed-size records carved from pages it never frees or
// moves until the pool itself is dropped.
type Slab[T any] struct {
	mu       sync.Mutex
	pages    []page[T]
	free     []*T
	nextSize int
	total    int
	inUse    int
	opts     SlabOptions
}

// NewSlab creates an empty pool; the first page is allocated on first Acquire.
func NewSlab[T any](opts SlabOptions) *Slab[T] {
	if opts.PageSize <= 0 {
		opts.PageSize = 64
	}
	return &Slab[T]{
		nextSize: opts.PageSize,
		opts:     opts,
	}
}

// Acquire returns a zeroed record, or nil when the hard cap is reached and
// every record is in use.
func (s *Slab[T]) Acquire() *T {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.free) == 0 && !s.grow() {
		return nil
	}
	p := s.free[len(s.free)-1]
	s.free = s.free[:len(s.free)-1]
	s.inUse++
	return p
}

// Release zeroes p and returns it to the free stack. Releasing a pointer that
// did not come from this pool panics.
func (s *Slab[T]) Release(p *T) {
	if p == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.owns(p) {
		panic(fmt.Sprintf("memory: released pointer %p does not belong to this slab", p))
	}
	var zero T
	*p = zero
	s.free = append(s.free, p)
	s.inUse--
}

func (s *Slab[T]) grow() bool {
	n := s.nextSize
	if s.opts.MaxRecords > 0 {
		n = min(n, s.opts.MaxRecords-s.total)
	}
	if n <= 0 {
		return false
	}

	records := make([]T, n)
	var zero T
	size := unsafe.Sizeof(zero)
	base := uintptr(unsafe.Pointer(unsafe.SliceData(records)))
	s.pages = append(s.pages, page[T]{
		records: records,
		base:    base,
		end:     base + uintptr(n)*size,
	})
	// push in reverse so records are handed out in address order
	for i := n - 1; i >= 0; i-- {
		s.free = append(s.free, &records[i])
	}
	s.total += n

	if s.opts.Growth == GrowGeometric {
		s.nextSize *= 2
	}
	return true
}

func (s *Slab[T]) owns(p *T) bool {
	addr := uintptr(unsafe.Pointer(p))
	for _, pg := range s.pages {
		if addr >= pg.base && addr < pg.end {
			return true
		}
	}
	return false
}

// InUse returns the number of records currently handed out.
func (s *Slab[T]) InUse() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inUse
}

// Capacity returns the number of records backed by allocated pages.
func (s *Slab[T]) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Pages returns how many pages the pool has allocated.
func (s *Slab[T]) Pages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}
