package renderer

import (
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/graphics"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
)

// Context is what every pass sees for one frame.
type Context struct {
	Camera   *graphics.Camera
	DT       float64
	View     mgl32.Mat4
	Proj     mgl32.Mat4
	ViewProj mgl32.Mat4
	Profiler *profiling.Profiler
}

// Renderable is one draw pass run inside the offscreen target, in the order
// given to New.
type Renderable interface {
	Render(ctx Context)
	Dispose()
}
