package graphics

import (
	"fmt"

	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/culling"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/meshing"
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// ChunkRenderer owns the vertex heap buffer and draws every chunk that
// survived the cull pass with one indirect-count call.
type ChunkRenderer struct {
	heap     *MappedBuffer
	vao      uint32
	shader   *Shader
	textures uint32
	light    mgl32.Vec3
}

// NewChunkRenderer maps a heapBytes vertex buffer. textures is a
// GL_TEXTURE_2D_ARRAY with one layer per material.
func NewChunkRenderer(heapBytes int, textures uint32) (*ChunkRenderer, error) {
	shader, err := NewShader(ChunkVertShader, ChunkFragShader)
	if err != nil {
		return nil, fmt.Errorf("chunk shader: %w", err)
	}
	heap, err := NewMappedBuffer(heapBytes)
	if err != nil {
		shader.Delete()
		return nil, fmt.Errorf("vertex heap: %w", err)
	}

	r := &ChunkRenderer{
		heap:     heap,
		shader:   shader,
		textures: textures,
		light:    mgl32.Vec3{0.3, 1.0, 0.3}.Normalize(),
	}
	gl.CreateVertexArrays(1, &r.vao)
	gl.VertexArrayVertexBuffer(r.vao, 0, heap.ID, 0, meshing.VertexBytes)
	gl.EnableVertexArrayAttrib(r.vao, 0)
	gl.VertexArrayAttribIFormat(r.vao, 0, 1, gl.UNSIGNED_INT, 0)
	gl.VertexArrayAttribBinding(r.vao, 0, 0)
	return r, nil
}

// HeapBytes is the mapped vertex memory handed to the heap allocator.
func (r *ChunkRenderer) HeapBytes() []byte { return r.heap.Bytes }

// Draw renders the survivors of the last Cull.
func (r *ChunkRenderer) Draw(viewProj mgl32.Mat4, culler *culling.Culler) {
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)

	r.shader.Use()
	r.shader.SetMatrix4("uViewProj", &viewProj[0])
	r.shader.SetVector3("uLightDir", r.light.X(), r.light.Y(), r.light.Z())
	r.shader.SetInt("uBlocks", 0)
	gl.BindTextureUnit(0, r.textures)
	gl.BindVertexArray(r.vao)

	culler.DrawIndirect()

	gl.BindVertexArray(0)
}

func (r *ChunkRenderer) Delete() {
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
		r.vao = 0
	}
	r.heap.Delete()
	r.shader.Delete()
}
