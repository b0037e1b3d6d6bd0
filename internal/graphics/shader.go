package graphics

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed shaders/*.vert shaders/*.frag shaders/*.comp
var shaderFiles embed.FS

const ShadersDir = "shaders"

var (
	ChunkVertShader     = path.Join(ShadersDir, "chunk.vert")
	ChunkFragShader     = path.Join(ShadersDir, "chunk.frag")
	LinesVertShader     = path.Join(ShadersDir, "lines.vert")
	LinesFragShader     = path.Join(ShadersDir, "lines.frag")
	CullCompShader      = path.Join(ShadersDir, "cull.comp")
	HiZCopyCompShader   = path.Join(ShadersDir, "hiz_copy.comp")
	HiZReduceCompShader = path.Join(ShadersDir, "hiz_reduce.comp")
)

// Shader represents an OpenGL shader program
type Shader struct {
	ID       uint32
	uniforms map[string]int32
}

// NewShader links a program from embedded vertex and fragment sources.
func NewShader(vertexPath, fragmentPath string) (*Shader, error) {
	return newProgram(
		stage{vertexPath, gl.VERTEX_SHADER},
		stage{fragmentPath, gl.FRAGMENT_SHADER},
	)
}

// NewComputeShader links a program from one embedded compute source.
func NewComputeShader(computePath string) (*Shader, error) {
	return newProgram(stage{computePath, gl.COMPUTE_SHADER})
}

// Use activates the shader program
func (s *Shader) Use() {
	gl.UseProgram(s.ID)
}

// Delete releases the program.
func (s *Shader) Delete() {
	if s != nil && s.ID != 0 {
		gl.DeleteProgram(s.ID)
		s.ID = 0
	}
}

// location caches uniform lookups; unknown names resolve to -1, which GL
// silently ignores.
func (s *Shader) location(name string) int32 {
	if loc, ok := s.uniforms[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(s.ID, gl.Str(name+"\x00"))
	s.uniforms[name] = loc
	return loc
}

// SetBool sets a boolean uniform
func (s *Shader) SetBool(name string, value bool) {
	var intValue int32
	if value {
		intValue = 1
	}
	gl.Uniform1i(s.location(name), intValue)
}

// SetInt sets an integer uniform
func (s *Shader) SetInt(name string, value int32) {
	gl.Uniform1i(s.location(name), value)
}

// SetFloat sets a float uniform
func (s *Shader) SetFloat(name string, value float32) {
	gl.Uniform1f(s.location(name), value)
}

func (s *Shader) SetUint(name string, value uint32) {
	gl.Uniform1ui(s.location(name), value)
}

// SetIVector2 sets an ivec2 uniform
func (s *Shader) SetIVector2(name string, x, y int32) {
	gl.Uniform2i(s.location(name), x, y)
}

// SetVector3 sets a vector3 uniform
func (s *Shader) SetVector3(name string, x, y, z float32) {
	gl.Uniform3f(s.location(name), x, y, z)
}

// SetVector4Array sets a vec4[] uniform
func (s *Shader) SetVector4Array(name string, values []mgl32.Vec4) {
	if len(values) == 0 {
		return
	}
	gl.Uniform4fv(s.location(name), int32(len(values)), &values[0][0])
}

// SetMatrix4 sets a 4x4 matrix uniform
func (s *Shader) SetMatrix4(name string, value *float32) {
	gl.UniformMatrix4fv(s.location(name), 1, false, value)
}

type stage struct {
	path string
	kind uint32
}

func newProgram(stages ...stage) (*Shader, error) {
	shaders := make([]uint32, 0, len(stages))
	defer func() {
		for _, sh := range shaders {
			gl.DeleteShader(sh)
		}
	}()

	for _, st := range stages {
		src, err := shaderFiles.ReadFile(st.path)
		if err != nil {
			return nil, fmt.Errorf("could not read shader %s: %w", st.path, err)
		}
		sh, err := compileShader(string(src), st.kind)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", st.path, err)
		}
		shaders = append(shaders, sh)
	}

	program := gl.CreateProgram()
	for _, sh := range shaders {
		gl.AttachShader(program, sh)
	}
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)

		return nil, fmt.Errorf("failed to link program: %v", log)
	}
	return &Shader{ID: program, uniforms: make(map[string]int32)}, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)

		return 0, fmt.Errorf("failed to compile shader: %v", log)
	}
	return shader, nil
}
