package culling

import (
	"math/bits"

	"github.com/go-gl/mathgl/mgl32"
)

// MipLevels returns the number of levels in a pyramid for a w x h depth
// buffer: ceil(log2(max(w, h))) + 1.
func MipLevels(w, h int) int {
	n := max(w, h)
	if n <= 0 {
		return 0
	}
	return bits.Len(uint(n-1)) + 1
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// PyramidExtent returns the storage size of the pyramid for a w x h depth
// buffer. Both edges are padded up to a power of two, so every level halves
// exactly and the full chain of MipLevels(w, h) levels is a legal mip chain.
func PyramidExtent(w, h int) (pw, ph, levels int) {
	if w <= 0 || h <= 0 {
		return 0, 0, 0
	}
	pw, ph = nextPow2(w), nextPow2(h)
	return pw, ph, MipLevels(w, h)
}

// MipSize returns the dimensions of level l. Each level halves the previous
// one rounding up; on a PyramidExtent this matches GL's halving.
func MipSize(w, h, l int) (int, int) {
	for range l {
		w = max(1, (w+1)/2)
		h = max(1, (h+1)/2)
	}
	return w, h
}

// Pyramid is a CPU max-depth mip chain, row-major per level. Width and
// Height are the depth buffer's size; the levels are stored at the padded
// PyramidExtent.
type Pyramid struct {
	Width, Height int
	padW, padH    int
	levels        [][]float32
}

// BuildPyramid reduces depth (row-major, w x h) into a full pyramid. Texels
// outside the depth buffer hold the far depth. Each texel of level l is the
// maximum of the 2x2 texels it covers in level l-1.
func BuildPyramid(depth []float32, w, h int) *Pyramid {
	pw, ph, n := PyramidExtent(w, h)
	if n == 0 || len(depth) < w*h {
		return nil
	}
	p := &Pyramid{Width: w, Height: h, padW: pw, padH: ph, levels: make([][]float32, n)}
	base := make([]float32, pw*ph)
	for i := range base {
		base[i] = 1
	}
	for y := range h {
		copy(base[y*pw:y*pw+w], depth[y*w:(y+1)*w])
	}
	p.levels[0] = base

	sw, sh := pw, ph
	for l := 1; l < n; l++ {
		lw, lh := MipSize(pw, ph, l)
		prev := p.levels[l-1]
		cur := make([]float32, lw*lh)
		for y := range lh {
			y0, y1 := 2*y, min(2*y+1, sh-1)
			for x := range lw {
				x0, x1 := 2*x, min(2*x+1, sw-1)
				cur[y*lw+x] = max(
					prev[y0*sw+x0], prev[y0*sw+x1],
					prev[y1*sw+x0], prev[y1*sw+x1],
				)
			}
		}
		p.levels[l] = cur
		sw, sh = lw, lh
	}
	return p
}

// Levels returns the number of mip levels.
func (p *Pyramid) Levels() int { return len(p.levels) }

// At returns the depth stored at texel (x, y) of level l.
func (p *Pyramid) At(l, x, y int) float32 {
	lw, _ := MipSize(p.padW, p.padH, l)
	return p.levels[l][y*lw+x]
}

// Footprint is the screen rectangle and nearest depth of a projected box.
type Footprint struct {
	// X0..Y1 are inclusive level-0 pixel bounds.
	X0, Y0, X1, Y1 int
	// Depth is the nearest window-space depth of the box.
	Depth float32
}

// Project maps box through viewProj onto a w x h depth buffer. ok is false
// when any corner lies behind the eye, in which case the box must be treated
// as visible.
func Project(box AABB, viewProj mgl32.Mat4, w, h int) (fp Footprint, ok bool) {
	minX, minY := float32(1), float32(1)
	maxX, maxY := float32(-1), float32(-1)
	nearZ := float32(1)
	for _, c := range box.Corners() {
		clip := viewProj.Mul4x1(c.Vec4(1))
		if clip[3] <= 0 {
			return Footprint{}, false
		}
		inv := 1 / clip[3]
		x, y, z := clip[0]*inv, clip[1]*inv, clip[2]*inv
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
		nearZ = min(nearZ, z)
	}

	toPixel := func(ndc float32, size int) int {
		u := mgl32.Clamp(ndc*0.5+0.5, 0, 1)
		return min(int(u*float32(size)), size-1)
	}
	fp = Footprint{
		X0:    toPixel(minX, w),
		X1:    toPixel(maxX, w),
		Y0:    toPixel(minY, h),
		Y1:    toPixel(maxY, h),
		Depth: mgl32.Clamp(nearZ*0.5+0.5, 0, 1),
	}
	return fp, true
}

// Level picks the mip level at which fp spans at most 2x2 texels.
func (p *Pyramid) Level(fp Footprint) int {
	span := max(fp.X1-fp.X0, fp.Y1-fp.Y0) + 1
	l := bits.Len(uint(span - 1))
	return min(l, len(p.levels)-1)
}

// MaxDepth returns the farthest depth recorded under fp at its level.
func (p *Pyramid) MaxDepth(fp Footprint) float32 {
	l := p.Level(fp)
	var d float32
	for y := fp.Y0 >> l; y <= fp.Y1>>l; y++ {
		for x := fp.X0 >> l; x <= fp.X1>>l; x++ {
			d = max(d, p.At(l, x, y))
		}
	}
	return d
}

// OcclusionBias is the distance in world units a box must lie behind the
// recorded depth before it counts as hidden. It absorbs depth precision loss
// far from the camera.
const OcclusionBias = 0.5

// LinearDepth converts a window-space depth to eye distance for a
// perspective projection with the given clip planes.
func LinearDepth(d, near, far float32) float32 {
	z := d*2 - 1
	return 2 * near * far / (far + near - z*(far-near))
}

// Occluded reports whether box lies entirely behind the depth recorded in the
// pyramid, which must have been rendered with viewProj. near and far are the
// projection's clip planes; when they are unset depths are compared raw.
func (p *Pyramid) Occluded(box AABB, viewProj mgl32.Mat4, near, far float32) bool {
	fp, ok := Project(box, viewProj, p.Width, p.Height)
	if !ok {
		return false
	}
	occluder := p.MaxDepth(fp)
	if near <= 0 || far <= near {
		return fp.Depth > occluder
	}
	return LinearDepth(fp.Depth, near, far) > LinearDepth(occluder, near, far)+OcclusionBias
}
