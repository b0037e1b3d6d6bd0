package world

import (
	"math"

	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/culling"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/meshing"
	"github.com/go-gl/mathgl/mgl32"
)

// ChunkSize is the edge length of a chunk in blocks.
const ChunkSize = meshing.ChunkSize

// ChunkCoord identifies a chunk by its position in chunk units.
type ChunkCoord struct {
	X, Y, Z int
}

const (
	keyBits = 21
	keyMask = 1<<keyBits - 1
	keyBias = 1 << (keyBits - 1)
)

// Key packs the coordinate into a stable integer, 21 bits per axis.
func (c ChunkCoord) Key() int64 {
	return int64(c.X+keyBias)&keyMask |
		(int64(c.Y+keyBias)&keyMask)<<keyBits |
		(int64(c.Z+keyBias)&keyMask)<<(2*keyBits)
}

// CoordFromKey is the inverse of Key.
func CoordFromKey(k int64) ChunkCoord {
	return ChunkCoord{
		X: int(k&keyMask) - keyBias,
		Y: int(k>>keyBits&keyMask) - keyBias,
		Z: int(k>>(2*keyBits)&keyMask) - keyBias,
	}
}

// Origin returns the world position of the chunk's minimum corner.
func (c ChunkCoord) Origin() mgl32.Vec3 {
	return mgl32.Vec3{float32(c.X * ChunkSize), float32(c.Y * ChunkSize), float32(c.Z * ChunkSize)}
}

// Bounds returns the chunk's box. Min equals Origin, which the vertex shader
// relies on.
func (c ChunkCoord) Bounds() culling.AABB {
	o := c.Origin()
	return culling.AABB{Min: o, Max: o.Add(mgl32.Vec3{ChunkSize, ChunkSize, ChunkSize})}
}

// ChunkAt returns the chunk containing world position p.
func ChunkAt(p mgl32.Vec3) ChunkCoord {
	return ChunkCoord{
		X: floorDiv(int(math.Floor(float64(p[0]))), ChunkSize),
		Y: floorDiv(int(math.Floor(float64(p[1]))), ChunkSize),
		Z: floorDiv(int(math.Floor(float64(p[2]))), ChunkSize),
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
