package world

import (
	"math"
	"strconv"

	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/config"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/meshing"
)

// Heightmap builds rolling terrain from 2-D octave value noise: bedrock at
// y=0, stone, a few blocks of dirt, and a grass, sand or snow top.
type Heightmap struct {
	seed        int64
	Scale       float64
	BaseHeight  int
	Amplitude   float64
	Octaves     int
	Persistence float64
	Lacunarity  float64
	SeaLevel    int
	SnowLine    int
	DirtDepth   int
}

// NewHeightmap returns a heightmap generator with default parameters.
func NewHeightmap() *Heightmap {
	return &Heightmap{
		Scale:       1.0 / 128.0,
		BaseHeight:  64,
		Amplitude:   48,
		Octaves:     5,
		Persistence: 0.5,
		Lacunarity:  2.0,
		SeaLevel:    40,
		SnowLine:    96,
		DirtDepth:   3,
	}
}

func (g *Heightmap) Name() string { return config.GeneratorHeightmap }

func (g *Heightmap) Init(seed int64) { g.seed = seed }

// Height maps noise in [0,1] to BaseHeight +- Amplitude.
func (g *Heightmap) Height(wx, wz int) int {
	x := float64(wx) * g.Scale
	z := float64(wz) * g.Scale
	n := octaveNoise2D(x, z, g.seed, g.Octaves, g.Persistence, g.Lacunarity)
	h := float64(g.BaseHeight) + (n*2-1)*g.Amplitude
	return max(int(math.Floor(h)), 0)
}

func (g *Heightmap) Block(wx, wy, wz, height int) meshing.Material {
	switch {
	case wy < 0 || wy > height:
		return Air
	case wy == 0:
		return Bedrock
	case wy == height:
		switch {
		case height <= g.SeaLevel+1:
			return Sand
		case height >= g.SnowLine:
			return Snow
		}
		return Grass
	case wy > height-g.DirtDepth:
		if height <= g.SeaLevel+1 {
			return Sand
		}
		return Dirt
	}
	return Stone
}

// HeightBounds scans every column of the chunk plus its border. Below the
// lowest surface the column is solid all the way down, so nothing there can
// be seen.
func (g *Heightmap) HeightBounds(cx, cz int) (int, int) {
	ox, oz := cx*ChunkSize, cz*ChunkSize
	lo, hi := math.MaxInt, 0
	for x := -1; x <= ChunkSize; x++ {
		for z := -1; z <= ChunkSize; z++ {
			h := g.Height(ox+x, oz+z)
			lo = min(lo, h)
			hi = max(hi, h)
		}
	}
	return max(lo-1, 0), hi
}

func (g *Heightmap) TexturePaths() []string { return blockTextures }

func (g *Heightmap) Tune(ui DebugUI) Generator {
	ui.Text("seed", strconv.FormatInt(g.seed, 10))
	c := *g
	changed := ui.SliderInt("base height", &c.BaseHeight, 8, 200)
	changed = ui.SliderFloat("amplitude", &c.Amplitude, 0, 128) || changed
	changed = ui.SliderInt("octaves", &c.Octaves, 1, 8) || changed
	changed = ui.SliderFloat("persistence", &c.Persistence, 0.1, 0.9) || changed
	changed = ui.SliderInt("sea level", &c.SeaLevel, 0, 200) || changed
	changed = ui.SliderInt("snow line", &c.SnowLine, 0, 255) || changed
	if !changed {
		return nil
	}
	c.Init(g.seed)
	return &c
}
