package culling

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Frustum holds six normalized planes (a, b, c, d) in the order left,
// right, bottom, top, near, far. A point p is inside when a*x+b*y+c*z+d >= 0
// for every plane.
type Frustum [6]mgl32.Vec4

// FrustumFromMatrix extracts the planes of a combined projection*view matrix.
func FrustumFromMatrix(clip mgl32.Mat4) Frustum {
	// mgl32 is column-major: row i is clip[i], clip[4+i], clip[8+i], clip[12+i]
	r0, r1, r2, r3 := clip.Row(0), clip.Row(1), clip.Row(2), clip.Row(3)
	return Frustum{
		normalizePlane(r3.Add(r0)),
		normalizePlane(r3.Sub(r0)),
		normalizePlane(r3.Add(r1)),
		normalizePlane(r3.Sub(r1)),
		normalizePlane(r3.Add(r2)),
		normalizePlane(r3.Sub(r2)),
	}
}

func normalizePlane(p mgl32.Vec4) mgl32.Vec4 {
	l := float32(math.Sqrt(float64(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])))
	if l == 0 {
		return p
	}
	return p.Mul(1 / l)
}

// ContainsAABB reports whether any part of box may be inside the frustum. It
// tests the corner furthest along each plane normal, so boxes straddling a
// frustum corner can pass while being outside; that is conservative.
func (f *Frustum) ContainsAABB(box AABB) bool {
	for i := range f {
		p := &f[i]
		px := box.Max[0]
		if p[0] < 0 {
			px = box.Min[0]
		}
		py := box.Max[1]
		if p[1] < 0 {
			py = box.Min[1]
		}
		pz := box.Max[2]
		if p[2] < 0 {
			pz = box.Min[2]
		}
		if p[0]*px+p[1]*py+p[2]*pz+p[3] < 0 {
			return false
		}
	}
	return true
}
