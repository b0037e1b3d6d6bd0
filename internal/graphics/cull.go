package graphics

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/culling"
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Shader storage bindings shared by cull.comp and chunk.vert.
const (
	bindingObjects  = 0
	bindingCommands = 1
	bindingVisible  = 2
	bindingCounter  = 3
)

const (
	cullGroupSize = 64
	hizGroupSize  = 8
)

// gpuRecord is the std430 layout of culling.ObjectRecord.
type gpuRecord struct {
	Min  mgl32.Vec4
	Max  mgl32.Vec4
	Draw [4]uint32
}

var (
	_ [culling.RecordSize - unsafe.Sizeof(gpuRecord{})]byte
	_ [unsafe.Sizeof(gpuRecord{}) - culling.RecordSize]byte
)

// CullBackend runs the culler on the GPU. The counter buffer written by the
// cull pass doubles as the parameter buffer of the indirect-count draw, so
// the CPU never needs the count to issue the draw.
type CullBackend struct {
	capacity int
	log      *slog.Logger

	objects  uint32
	commands uint32
	visible  uint32
	counter  uint32

	cull      *Shader
	hizCopy   *Shader
	hizReduce *Shader

	// hizW and hizH are the padded pyramid size; depthW and depthH the
	// depth buffer it was built from.
	hiz              uint32
	hizW, hizH, hizN int
	depthW, depthH   int
}

var _ culling.Backend = (*CullBackend)(nil)

// NewCullBackend allocates GPU tables for capacity objects and compiles the
// cull and Hi-Z programs.
func NewCullBackend(capacity int, logger *slog.Logger) (*CullBackend, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	b := &CullBackend{capacity: capacity, log: logger}

	var err error
	if b.cull, err = NewComputeShader(CullCompShader); err != nil {
		return nil, fmt.Errorf("cull pass: %w", err)
	}
	if b.hizCopy, err = NewComputeShader(HiZCopyCompShader); err != nil {
		b.Delete()
		return nil, fmt.Errorf("hi-z copy pass: %w", err)
	}
	if b.hizReduce, err = NewComputeShader(HiZReduceCompShader); err != nil {
		b.Delete()
		return nil, fmt.Errorf("hi-z reduce pass: %w", err)
	}

	b.objects = newStorage(capacity * culling.RecordSize)
	b.commands = newStorage(capacity * culling.DrawCommandSize)
	b.visible = newStorage(capacity * 4)
	b.counter = newStorage(4)

	logger.Debug("cull backend ready", "capacity", capacity)
	return b, nil
}

func newStorage(size int) uint32 {
	var id uint32
	gl.CreateBuffers(1, &id)
	gl.NamedBufferStorage(id, max(size, 4), nil, gl.DYNAMIC_STORAGE_BIT)
	gl.ClearNamedBufferData(id, gl.R32UI, gl.RED_INTEGER, gl.UNSIGNED_INT, nil)
	return id
}

func (b *CullBackend) WriteRecord(slot int, rec culling.ObjectRecord) {
	g := gpuRecord{
		Min:  rec.Bounds.Min.Vec4(rec.LODScale),
		Max:  rec.Bounds.Max.Vec4(0),
		Draw: [4]uint32{rec.FirstVertex, rec.VertexCount},
	}
	gl.NamedBufferSubData(b.objects, slot*culling.RecordSize, culling.RecordSize, unsafe.Pointer(&g))
}

// BuildHiZ copies depth into level 0 of an R32F pyramid and max-reduces
// every further level in place.
func (b *CullBackend) BuildHiZ(depth culling.DepthBuffer) int {
	if depth.Texture == 0 {
		return 0
	}
	b.ensurePyramid(depth.Width, depth.Height)

	b.hizCopy.Use()
	gl.BindTextureUnit(0, depth.Texture)
	b.hizCopy.SetInt("uDepth", 0)
	b.hizCopy.SetIVector2("uSize", int32(b.hizW), int32(b.hizH))
	b.hizCopy.SetIVector2("uDepthSize", int32(b.depthW), int32(b.depthH))
	gl.BindImageTexture(0, b.hiz, 0, false, 0, gl.WRITE_ONLY, gl.R32F)
	gl.DispatchCompute(groups(b.hizW, hizGroupSize), groups(b.hizH, hizGroupSize), 1)
	gl.MemoryBarrier(gl.SHADER_IMAGE_ACCESS_BARRIER_BIT)

	b.hizReduce.Use()
	for l := 1; l < b.hizN; l++ {
		sw, sh := culling.MipSize(b.hizW, b.hizH, l-1)
		dw, dh := culling.MipSize(b.hizW, b.hizH, l)
		b.hizReduce.SetIVector2("uSrcSize", int32(sw), int32(sh))
		b.hizReduce.SetIVector2("uDstSize", int32(dw), int32(dh))
		gl.BindImageTexture(0, b.hiz, int32(l-1), false, 0, gl.READ_ONLY, gl.R32F)
		gl.BindImageTexture(1, b.hiz, int32(l), false, 0, gl.WRITE_ONLY, gl.R32F)
		gl.DispatchCompute(groups(dw, hizGroupSize), groups(dh, hizGroupSize), 1)
		gl.MemoryBarrier(gl.SHADER_IMAGE_ACCESS_BARRIER_BIT)
	}
	gl.MemoryBarrier(gl.TEXTURE_FETCH_BARRIER_BIT)
	return b.hizN
}

func (b *CullBackend) ensurePyramid(w, h int) {
	if b.hiz != 0 && w == b.depthW && h == b.depthH {
		return
	}
	if b.hiz != 0 {
		gl.DeleteTextures(1, &b.hiz)
	}
	b.depthW, b.depthH = w, h
	b.hizW, b.hizH, b.hizN = culling.PyramidExtent(w, h)
	gl.CreateTextures(gl.TEXTURE_2D, 1, &b.hiz)
	gl.TextureStorage2D(b.hiz, int32(b.hizN), gl.R32F, int32(b.hizW), int32(b.hizH))
	gl.TextureParameteri(b.hiz, gl.TEXTURE_MIN_FILTER, gl.NEAREST_MIPMAP_NEAREST)
	gl.TextureParameteri(b.hiz, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TextureParameteri(b.hiz, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TextureParameteri(b.hiz, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	b.log.Debug("hi-z pyramid resized", "depth_width", w, "depth_height", h,
		"width", b.hizW, "height", b.hizH, "levels", b.hizN)
}

// ReadVisibleCount reads back the counter written by the previous Dispatch.
func (b *CullBackend) ReadVisibleCount() int {
	var n uint32
	gl.GetNamedBufferSubData(b.counter, 0, 4, unsafe.Pointer(&n))
	return int(n)
}

func (b *CullBackend) ResetCounter() {
	gl.ClearNamedBufferData(b.counter, gl.R32UI, gl.RED_INTEGER, gl.UNSIGNED_INT, nil)
}

func (b *CullBackend) Dispatch(slots int, p culling.FrameParams) {
	frustum := culling.FrustumFromMatrix(p.ViewProj())

	b.cull.Use()
	b.cull.SetUint("uSlots", uint32(slots))
	b.cull.SetVector4Array("uPlanes", frustum[:])
	b.cull.SetMatrix4("uPrevViewProj", &p.PrevViewProj[0])
	occlusion := p.Occlusion && b.hiz != 0
	b.cull.SetBool("uOcclusion", occlusion)
	if occlusion {
		gl.BindTextureUnit(1, b.hiz)
		b.cull.SetInt("uHiZ", 1)
		b.cull.SetIVector2("uDepthSize", int32(b.depthW), int32(b.depthH))
		b.cull.SetInt("uHiZLevels", int32(b.hizN))
		b.cull.SetFloat("uNear", p.Near)
		b.cull.SetFloat("uFar", p.Far)
		b.cull.SetFloat("uBias", culling.OcclusionBias)
	}

	b.bindTables()
	gl.DispatchCompute(groups(slots, cullGroupSize), 1, 1)
	gl.MemoryBarrier(gl.COMMAND_BARRIER_BIT | gl.SHADER_STORAGE_BARRIER_BIT | gl.BUFFER_UPDATE_BARRIER_BIT)
}

// DrawIndirect expects the chunk program and vertex array to be bound.
func (b *CullBackend) DrawIndirect(maxDraws int) {
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, bindingObjects, b.objects)
	gl.BindBuffer(gl.DRAW_INDIRECT_BUFFER, b.commands)
	gl.BindBuffer(gl.PARAMETER_BUFFER, b.counter)
	gl.MultiDrawArraysIndirectCount(gl.TRIANGLES, nil, 0, int32(maxDraws), 0)
	gl.BindBuffer(gl.PARAMETER_BUFFER, 0)
	gl.BindBuffer(gl.DRAW_INDIRECT_BUFFER, 0)
}

func (b *CullBackend) bindTables() {
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, bindingObjects, b.objects)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, bindingCommands, b.commands)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, bindingVisible, b.visible)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, bindingCounter, b.counter)
}

// Capacity returns the number of object slots.
func (b *CullBackend) Capacity() int { return b.capacity }

// Delete frees every GL object the backend owns.
func (b *CullBackend) Delete() {
	for _, id := range []*uint32{&b.objects, &b.commands, &b.visible, &b.counter} {
		if *id != 0 {
			gl.DeleteBuffers(1, id)
			*id = 0
		}
	}
	if b.hiz != 0 {
		gl.DeleteTextures(1, &b.hiz)
		b.hiz = 0
	}
	b.cull.Delete()
	b.hizCopy.Delete()
	b.hizReduce.Delete()
}

func groups(n, size int) uint32 {
	return uint32((n + size - 1) / size)
}
