package world

import (
	"strconv"

	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/config"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/meshing"
)

// Density generates terrain from a 3-D density field instead of a heightmap,
// which allows overhangs, arches and floating islands. Positive density is
// solid.
type Density struct {
	seed             int64
	Scale            float64
	BaseHeight       int     // target surface level
	GradientStrength float64 // blocks over which density falls from +1 to -1
	Octaves          int
	Persistence      float64
	Lacunarity       float64
}

// NewDensity returns a density generator with default parameters.
func NewDensity() *Density {
	return &Density{
		Scale:            1.0 / 64.0,
		BaseHeight:       64,
		GradientStrength: 32.0,
		Octaves:          4,
		Persistence:      0.5,
		Lacunarity:       2.0,
	}
}

func (g *Density) Name() string { return config.GeneratorDensity }

func (g *Density) Init(seed int64) { g.seed = seed }

func (g *Density) density(wx, wy, wz int) float64 {
	nx := float64(wx) * g.Scale
	ny := float64(wy) * g.Scale
	nz := float64(wz) * g.Scale
	n := octaveNoise3D(nx, ny, nz, g.seed, g.Octaves, g.Persistence, g.Lacunarity)*2 - 1
	return n + (float64(g.BaseHeight)-float64(wy))/g.GradientStrength
}

// Height is an upper bound: above BaseHeight+GradientStrength the gradient
// term is below -1 and no noise value can make the density positive.
func (g *Density) Height(wx, wz int) int {
	return g.BaseHeight + int(g.GradientStrength)
}

// ceiling and floor are the band where the field is not trivially solid or empty.
func (g *Density) ceiling() int { return g.BaseHeight + int(g.GradientStrength) }
func (g *Density) floor() int   { return max(g.BaseHeight-int(g.GradientStrength)-1, 0) }

func (g *Density) Block(wx, wy, wz, height int) meshing.Material {
	return g.material(wy, g.density(wx, wy, wz), g.density(wx, wy+1, wz))
}

func (g *Density) material(wy int, d, above float64) meshing.Material {
	switch {
	case wy < 0 || d <= 0:
		return Air
	case wy == 0:
		return Bedrock
	case above <= 0:
		return Grass
	}
	return Stone
}

// HeightBounds skips everything below the band: there the field is solid
// throughout and no face can be exposed.
func (g *Density) HeightBounds(cx, cz int) (int, int) {
	return g.floor(), g.ceiling()
}

func (g *Density) TexturePaths() []string { return blockTextures }

// Sample grid spacing for FillVolume; density is trilinearly interpolated
// between samples.
const (
	densityStepXZ = 4
	densityStepY  = 8
)

// FillVolume evaluates the field on a sparse grid over the padded volume and
// interpolates between samples.
func (g *Density) FillVolume(coord ChunkCoord, vol *meshing.Volume) {
	ox, oy, oz := coord.X*ChunkSize, coord.Y*ChunkSize, coord.Z*ChunkSize
	if oy-1 > g.ceiling() {
		return
	}

	// padded range is [-1, ChunkSize]; one extra row in y for the grass test
	const span = meshing.PaddedSize + 1
	numXZ := (span+densityStepXZ-1)/densityStepXZ + 1
	numY := (span+densityStepY-1)/densityStepY + 1

	samples := make([]float64, numXZ*numY*numXZ)
	idx := func(x, y, z int) int { return (x*numY+y)*numXZ + z }
	for sx := range numXZ {
		for sz := range numXZ {
			for sy := range numY {
				samples[idx(sx, sy, sz)] = g.density(
					ox-1+sx*densityStepXZ,
					oy-1+sy*densityStepY,
					oz-1+sz*densityStepXZ,
				)
			}
		}
	}

	at := func(lx, ly, lz int) float64 {
		// lx, ly, lz are offsets from the padded corner
		sx, tx := lx/densityStepXZ, float64(lx%densityStepXZ)/densityStepXZ
		sy, ty := ly/densityStepY, float64(ly%densityStepY)/densityStepY
		sz, tz := lz/densityStepXZ, float64(lz%densityStepXZ)/densityStepXZ
		d00 := lerp(samples[idx(sx, sy, sz)], samples[idx(sx+1, sy, sz)], tx)
		d01 := lerp(samples[idx(sx, sy, sz+1)], samples[idx(sx+1, sy, sz+1)], tx)
		d10 := lerp(samples[idx(sx, sy+1, sz)], samples[idx(sx+1, sy+1, sz)], tx)
		d11 := lerp(samples[idx(sx, sy+1, sz+1)], samples[idx(sx+1, sy+1, sz+1)], tx)
		return lerp(lerp(d00, d01, tz), lerp(d10, d11, tz), ty)
	}

	for lx := range meshing.PaddedSize {
		for lz := range meshing.PaddedSize {
			above := at(lx, 0, lz)
			for ly := range meshing.PaddedSize {
				d := above
				above = at(lx, ly+1, lz)
				if m := g.material(oy-1+ly, d, above); m != Air {
					vol.Set(lx-1, ly-1, lz-1, m)
				}
			}
		}
	}
}

func (g *Density) Tune(ui DebugUI) Generator {
	ui.Text("seed", strconv.FormatInt(g.seed, 10))
	c := *g
	changed := ui.SliderInt("base height", &c.BaseHeight, 8, 200)
	changed = ui.SliderFloat("gradient", &c.GradientStrength, 4, 128) || changed
	changed = ui.SliderInt("octaves", &c.Octaves, 1, 8) || changed
	if !changed {
		return nil
	}
	c.Init(g.seed)
	return &c
}
