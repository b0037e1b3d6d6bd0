package world

import (
	"fmt"
	"sync/atomic"

	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/meshing"
)

// State is a chunk's position in the streaming pipeline.
type State int32

const (
	Missing State = iota
	Generating
	Generated
	Meshing
	Meshed
	Active
	Destroyed

	numStates
)

var stateNames = [numStates]string{
	Missing:    "missing",
	Generating: "generating",
	Generated:  "generated",
	Meshing:    "meshing",
	Meshed:     "meshed",
	Active:     "active",
	Destroyed:  "destroyed",
}

func (s State) String() string {
	if s < 0 || s >= numStates {
		return fmt.Sprintf("State(%d)", int32(s))
	}
	return stateNames[s]
}

// next is the single forward edge out of each state. Destroyed is reachable
// from anywhere and handled separately.
var next = [numStates]State{
	Missing:    Generating,
	Generating: Generated,
	Generated:  Meshing,
	Meshing:    Meshed,
	Meshed:     Active,
	Active:     Destroyed,
	Destroyed:  Destroyed,
}

// Legal reports whether a chunk may move from one state to another.
func Legal(from, to State) bool {
	if from == Destroyed {
		return false
	}
	return to == Destroyed || next[from] == to
}

// block is a range of the GPU vertex heap.
type block struct {
	offset, size int
}

// Chunk is the pipeline's record for one chunk. state and vertexCount may be
// read from any thread; every other field belongs to whoever currently drives
// the chunk (the main thread, or the single task working on it).
type Chunk struct {
	Coord ChunkCoord

	state atomic.Int32

	volume   *meshing.Volume
	vertices []uint32
	solid    int

	mesh        block
	vertexCount atomic.Int32
	deferred    int // failed upload attempts
}

// State returns the current lifecycle state.
func (c *Chunk) State() State { return State(c.state.Load()) }

// advance moves the chunk along a legal edge. It returns false when another
// party changed the state first, which in practice means the chunk was
// destroyed.
func (c *Chunk) advance(from, to State) bool {
	if !Legal(from, to) {
		panic(fmt.Sprintf("world: illegal chunk transition %v -> %v", from, to))
	}
	return c.state.CompareAndSwap(int32(from), int32(to))
}

// destroy moves the chunk to Destroyed from whatever state it is in and
// returns that state. Destroying twice returns Destroyed.
func (c *Chunk) destroy() State {
	for {
		s := c.state.Load()
		if State(s) == Destroyed {
			return Destroyed
		}
		if c.state.CompareAndSwap(s, int32(Destroyed)) {
			return State(s)
		}
	}
}

// VertexCount returns the number of vertices uploaded for an active chunk.
func (c *Chunk) VertexCount() int { return int(c.vertexCount.Load()) }
