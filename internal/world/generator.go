package world

import (
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/config"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/meshing"
)

// Materials shared by every generator. Texture layer i of TexturePaths is
// material i+1.
const (
	Air     = meshing.Empty
	Grass   = meshing.Material(1)
	Dirt    = meshing.Material(2)
	Stone   = meshing.Material(3)
	Bedrock = meshing.Material(4)
	Sand    = meshing.Material(5)
	Snow    = meshing.Material(6)
)

var blockTextures = []string{
	"assets/textures/blocks/grass.png",
	"assets/textures/blocks/dirt.png",
	"assets/textures/blocks/stone.png",
	"assets/textures/blocks/bedrock.png",
	"assets/textures/blocks/sand.png",
	"assets/textures/blocks/snow.png",
}

// DebugUI is the immediate-mode widget set a generator may draw its
// parameters with. Each widget reports whether the user changed the value.
type DebugUI interface {
	Text(label, value string)
	SliderInt(label string, v *int, lo, hi int) bool
	SliderFloat(label string, v *float64, lo, hi float64) bool
}

// Generator produces terrain. After Init it must be safe for concurrent use
// by any number of generation tasks and must not change.
type Generator interface {
	Name() string
	Init(seed int64)
	// Height returns the surface height (block Y) of a world column. Block
	// never returns a solid material above it.
	Height(wx, wz int) int
	// Block returns the material at a world position; height is Height(wx, wz).
	Block(wx, wy, wz, height int) meshing.Material
	// HeightBounds returns the block Y range of chunk column (cx, cz) that
	// can hold visible surface. Chunks outside it are never loaded.
	HeightBounds(cx, cz int) (minY, maxY int)
	// TexturePaths lists one texture per material, starting with material 1.
	TexturePaths() []string
	// Tune draws the parameters on ui. If the user changed any, it returns a
	// new initialized generator with the new values, otherwise nil. The
	// receiver itself is never modified.
	Tune(ui DebugUI) Generator
}

// VolumeFiller is implemented by generators that can fill a padded volume
// faster than one Block call per voxel.
type VolumeFiller interface {
	FillVolume(coord ChunkCoord, vol *meshing.Volume)
}

// NewGenerator returns an initialized generator of the given config kind.
// Unknown kinds get the heightmap.
func NewGenerator(kind string, seed int64) Generator {
	var g Generator
	switch kind {
	case config.GeneratorDensity:
		g = NewDensity()
	case config.GeneratorFlat:
		g = NewFlat(20)
	default:
		g = NewHeightmap()
	}
	g.Init(seed)
	return g
}

// FillVolume samples gen over the chunk plus its one-block border and
// returns the number of solid blocks inside the chunk proper.
func FillVolume(gen Generator, coord ChunkCoord, vol *meshing.Volume) int {
	vol.Clear()
	if f, ok := gen.(VolumeFiller); ok {
		f.FillVolume(coord, vol)
		return vol.SolidCount()
	}

	ox, oy, oz := coord.X*ChunkSize, coord.Y*ChunkSize, coord.Z*ChunkSize
	for x := -1; x <= ChunkSize; x++ {
		for z := -1; z <= ChunkSize; z++ {
			wx, wz := ox+x, oz+z
			h := gen.Height(wx, wz)
			top := min(ChunkSize, h-oy)
			for y := -1; y <= top; y++ {
				if m := gen.Block(wx, oy+y, wz, h); m != Air {
					vol.Set(x, y, z, m)
				}
			}
		}
	}
	return vol.SolidCount()
}
