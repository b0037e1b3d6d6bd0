// Package config holds the tunable settings of the streaming pipeline.
package config

import (
	"runtime"
	"sync"
)

// Generator kinds understood by the world package.
const (
	GeneratorHeightmap = "heightmap"
	GeneratorDensity   = "density"
	GeneratorFlat      = "flat"
)

const (
	MinRenderDistance = 2
	MaxRenderDistance = 64
)

// Settings is shared between the frame loop and any debug UI. All access
// goes through the accessors.
type Settings struct {
	mu sync.RWMutex

	renderDistance int // in chunks
	workers        int
	heapBytes      int
	ringSegment    int
	maxObjects     int
	maxChunks      int
	occlusion      bool
	maxSubmissions int
	generator      string
	seed           int64
	fpsLimit       int
}

// Default returns settings sized for a desktop GPU.
func Default() *Settings {
	return &Settings{
		renderDistance: 12,
		workers:        max(runtime.NumCPU()-1, 1),
		heapBytes:      256 << 20,
		ringSegment:    1 << 20,
		maxObjects:     65536,
		maxChunks:      65536,
		occlusion:      true,
		maxSubmissions: 256,
		generator:      GeneratorHeightmap,
		seed:           1337,
	}
}

// RenderDistance returns the streaming radius in chunks.
func (s *Settings) RenderDistance() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.renderDistance
}

// SetRenderDistance sets the streaming radius, clamped to a sane range.
func (s *Settings) SetRenderDistance(distance int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderDistance = min(max(distance, MinRenderDistance), MaxRenderDistance)
}

// EvictDistance returns the radius beyond which chunks are unloaded. It is
// larger than the render distance so chunks at the edge don't thrash.
func (s *Settings) EvictDistance() int {
	return s.RenderDistance() + 2
}

// Workers returns the task executor size.
func (s *Settings) Workers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workers
}

// SetWorkers sets the task executor size; at least one worker is kept.
func (s *Settings) SetWorkers(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = max(n, 1)
}

// HeapBytes returns the capacity of the GPU vertex heap.
func (s *Settings) HeapBytes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.heapBytes
}

// SetHeapBytes sets the GPU vertex heap capacity, at least 1 MiB.
func (s *Settings) SetHeapBytes(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heapBytes = max(n, 1<<20)
}

// RingSegmentBytes returns the size of one streaming ring segment.
func (s *Settings) RingSegmentBytes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ringSegment
}

// SetRingSegmentBytes sets the ring segment size, at least 64 KiB.
func (s *Settings) SetRingSegmentBytes(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ringSegment = max(n, 64<<10)
}

// MaxObjects returns the culler's object table capacity.
func (s *Settings) MaxObjects() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxObjects
}

// SetMaxObjects sets the object table capacity.
func (s *Settings) SetMaxObjects(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxObjects = max(n, 1)
}

// MaxChunks returns the hard cap on loaded chunk nodes.
func (s *Settings) MaxChunks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxChunks
}

// SetMaxChunks sets the hard cap on loaded chunk nodes.
func (s *Settings) SetMaxChunks(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxChunks = max(n, 1)
}

// Occlusion reports whether Hi-Z occlusion culling is enabled.
func (s *Settings) Occlusion() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.occlusion
}

// SetOcclusion toggles Hi-Z occlusion culling.
func (s *Settings) SetOcclusion(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.occlusion = enabled
}

// MaxSubmissions returns how many generation tasks one streaming update may submit.
func (s *Settings) MaxSubmissions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxSubmissions
}

// SetMaxSubmissions sets the per-update submission budget.
func (s *Settings) SetMaxSubmissions(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxSubmissions = max(n, 1)
}

// Generator returns the terrain generator kind.
func (s *Settings) Generator() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generator
}

// SetGenerator selects the terrain generator kind. Unknown kinds fall back
// to the heightmap generator.
func (s *Settings) SetGenerator(kind string) {
	switch kind {
	case GeneratorHeightmap, GeneratorDensity, GeneratorFlat:
	default:
		kind = GeneratorHeightmap
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generator = kind
}

// Seed returns the world seed.
func (s *Settings) Seed() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seed
}

// SetSeed sets the world seed.
func (s *Settings) SetSeed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seed = seed
}

// FPSLimit returns the frame rate cap; 0 means uncapped.
func (s *Settings) FPSLimit() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fpsLimit
}

// SetFPSLimit sets the frame rate cap. Negative values disable it.
func (s *Settings) SetFPSLimit(fps int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fpsLimit = max(fps, 0)
}
