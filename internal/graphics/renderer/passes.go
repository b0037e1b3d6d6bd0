package renderer

import (
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/culling"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/graphics"

	"github.com/go-gl/mathgl/mgl32"
)

// ChunkPass draws every chunk that survived culling with one indirect
// multi-draw.
type ChunkPass struct {
	Chunks *graphics.ChunkRenderer
	Culler *culling.Culler
}

func (p *ChunkPass) Render(ctx Context) {
	defer ctx.Profiler.Track("renderer.chunks")()
	p.Chunks.Draw(ctx.ViewProj, p.Culler)
}

func (p *ChunkPass) Dispose() { p.Chunks.Delete() }

// BoundsPass outlines the bounds of every active chunk when enabled.
type BoundsPass struct {
	Overlay *graphics.BoundsOverlay
	// Source appends the boxes to draw to dst.
	Source  func(dst []culling.AABB) []culling.AABB
	Color   mgl32.Vec3
	Enabled bool

	boxes []culling.AABB
}

func (p *BoundsPass) Render(ctx Context) {
	if !p.Enabled {
		return
	}
	defer ctx.Profiler.Track("renderer.bounds")()
	p.boxes = p.Source(p.boxes[:0])
	p.Overlay.Draw(p.boxes, ctx.ViewProj, p.Color)
}

func (p *BoundsPass) Dispose() { p.Overlay.Delete() }
