// Package culling keeps a GPU-resident table of drawable objects and decides
// each frame which of them survive frustum and Hi-Z occlusion tests. The
// survivors are written as indirect draw commands whose count never leaves
// the GPU.
package culling

import "github.com/go-gl/mathgl/mgl32"

// AABB is an axis-aligned box in world space.
type AABB struct {
	Min, Max mgl32.Vec3
}

// Corners returns the eight corners of the box.
func (b AABB) Corners() [8]mgl32.Vec3 {
	return [8]mgl32.Vec3{
		{b.Min[0], b.Min[1], b.Min[2]},
		{b.Max[0], b.Min[1], b.Min[2]},
		{b.Min[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Max[1], b.Min[2]},
		{b.Min[0], b.Min[1], b.Max[2]},
		{b.Max[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Max[2]},
		{b.Max[0], b.Max[1], b.Max[2]},
	}
}

// ObjectRecord is one entry of the object table. Bounds.Min doubles as the
// mesh origin in the vertex shader; LODScale multiplies local positions.
type ObjectRecord struct {
	Bounds      AABB
	LODScale    float32
	FirstVertex uint32
	VertexCount uint32
}

// RecordSize is the std430 size of an ObjectRecord: vec4 min (w = LOD
// scale), vec4 max, uvec4 (firstVertex, vertexCount, pad, pad).
const RecordSize = 48

// DrawCommand mirrors DrawArraysIndirectCommand. BaseInstance carries the
// object slot so the vertex shader can fetch its record.
type DrawCommand struct {
	Count         uint32
	InstanceCount uint32
	First         uint32
	BaseInstance  uint32
}

// DrawCommandSize is the byte size of one DrawCommand.
const DrawCommandSize = 16

// FrameParams is everything a cull pass needs from the camera.
type FrameParams struct {
	View, Proj mgl32.Mat4
	// PrevViewProj is the matrix the Hi-Z pyramid was rendered with.
	PrevViewProj mgl32.Mat4
	// Near and Far are Proj's clip planes; occlusion compares eye distances
	// derived from them.
	Near, Far float32
	Occlusion bool
}

// ViewProj returns Proj * View.
func (p FrameParams) ViewProj() mgl32.Mat4 { return p.Proj.Mul4(p.View) }

// DepthBuffer describes last frame's depth. Texture is the GL handle used by
// the GPU backend; Pixels is a row-major CPU copy for the software backend.
// Depth values follow the GL convention: 0 near, 1 far.
type DepthBuffer struct {
	Texture       uint32
	Width, Height int
	Pixels        []float32
}

// Backend executes the culler's GPU work. All calls are made from the thread
// that owns the graphics context.
type Backend interface {
	// WriteRecord stores rec at slot in the object table.
	WriteRecord(slot int, rec ObjectRecord)
	// BuildHiZ reduces depth into a max-depth mip chain and returns its level
	// count, or 0 if no pyramid could be built.
	BuildHiZ(depth DepthBuffer) int
	// ReadVisibleCount returns the counter value left by the last dispatch.
	ReadVisibleCount() int
	ResetCounter()
	// Dispatch tests slots [0, slots) and appends survivors.
	Dispatch(slots int, p FrameParams)
	// DrawIndirect draws the appended commands, reading their count from the
	// counter. maxDraws bounds the count.
	DrawIndirect(maxDraws int)
}
