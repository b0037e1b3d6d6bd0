package world

import (
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/config"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/meshing"
)

// Flat is a constant-height world: bedrock, dirt, and grass on top.
type Flat struct {
	SurfaceHeight int
}

// NewFlat returns a flat generator with the grass layer at height.
func NewFlat(height int) *Flat {
	return &Flat{SurfaceHeight: max(height, 0)}
}

func (g *Flat) Name() string { return config.GeneratorFlat }

func (g *Flat) Init(int64) {}

func (g *Flat) Height(int, int) int { return g.SurfaceHeight }

func (g *Flat) Block(wx, wy, wz, height int) meshing.Material {
	switch {
	case wy < 0 || wy > height:
		return Air
	case wy == 0:
		return Bedrock
	case wy == height:
		return Grass
	}
	return Dirt
}

func (g *Flat) HeightBounds(int, int) (int, int) { return 0, g.SurfaceHeight }

func (g *Flat) TexturePaths() []string { return blockTextures }

func (g *Flat) Tune(ui DebugUI) Generator {
	h := g.SurfaceHeight
	if !ui.SliderInt("height", &h, 0, 255) {
		return nil
	}
	return NewFlat(h)
}
