// Package renderer sequences a frame: build the Hi-Z pyramid from the last
// frame's depth, cull, then run the draw passes into the offscreen target and
// present it.
package renderer

import (
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/culling"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/graphics"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	normalFOV = 70.0
	fastFOV   = 80.0
	// degrees per second
	fovTransitionSpeed = 100.0
)

// Target is the offscreen framebuffer the passes draw into.
type Target interface {
	Bind()
	Present(screenW, screenH int)
	Depth() culling.DepthBuffer
	Resize(w, h int) error
}

// Renderer orchestrates the culling stage and the renderable passes.
type Renderer struct {
	renderables []Renderable
	camera      *graphics.Camera
	target      Target
	culler      *culling.Culler
	prof        *profiling.Profiler

	occlusion bool
	// the Hi-Z pyramid is built from depth rendered with this matrix
	prevViewProj mgl32.Mat4
	havePrev     bool

	targetFOV  float32
	currentFOV float32

	screenW, screenH int
}

// New returns a renderer drawing rs in order. Occlusion culling starts
// enabled; it only takes effect once a frame has been rendered.
func New(camera *graphics.Camera, target Target, culler *culling.Culler, prof *profiling.Profiler, rs ...Renderable) *Renderer {
	camera.FOV = normalFOV
	return &Renderer{
		renderables: rs,
		camera:      camera,
		target:      target,
		culler:      culler,
		prof:        prof,
		occlusion:   true,
		targetFOV:   normalFOV,
		currentFOV:  normalFOV,
	}
}

func (r *Renderer) Camera() *graphics.Camera { return r.camera }

func (r *Renderer) Occlusion() bool { return r.occlusion }

// SetOcclusion toggles Hi-Z testing; frustum culling always runs.
func (r *Renderer) SetOcclusion(on bool) { r.occlusion = on }

// SetFast widens the field of view while the camera moves fast.
func (r *Renderer) SetFast(fast bool) {
	if fast {
		r.targetFOV = fastFOV
	} else {
		r.targetFOV = normalFOV
	}
}

// Render runs one frame.
func (r *Renderer) Render(dt float64) {
	r.stepFOV(dt)

	view := r.camera.ViewMatrix()
	proj := r.camera.ProjectionMatrix()
	ctx := Context{
		Camera:   r.camera,
		DT:       dt,
		View:     view,
		Proj:     proj,
		ViewProj: proj.Mul4(view),
		Profiler: r.prof,
	}

	params := culling.FrameParams{
		View:      view,
		Proj:      proj,
		Near:      r.camera.NearPlane,
		Far:       r.camera.FarPlane,
		Occlusion: r.occlusion && r.havePrev,
	}
	if params.Occlusion {
		params.PrevViewProj = r.prevViewProj
		func() {
			defer r.prof.Track("renderer.hiz")()
			r.culler.GenerateHiZ(r.target.Depth())
		}()
	}
	func() {
		defer r.prof.Track("renderer.cull")()
		r.culler.Cull(params)
	}()

	r.target.Bind()
	for _, renderable := range r.renderables {
		renderable.Render(ctx)
	}
	r.target.Present(r.screenW, r.screenH)

	r.prevViewProj = ctx.ViewProj
	r.havePrev = true
}

func (r *Renderer) stepFOV(dt float64) {
	step := float32(dt) * fovTransitionSpeed
	if r.currentFOV < r.targetFOV {
		r.currentFOV = min(r.currentFOV+step, r.targetFOV)
	} else if r.currentFOV > r.targetFOV {
		r.currentFOV = max(r.currentFOV-step, r.targetFOV)
	}
	r.camera.FOV = r.currentFOV
}

// Resize follows the window's framebuffer. The previous depth no longer
// matches the new size, so occlusion waits for a fresh frame.
func (r *Renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	r.screenW, r.screenH = width, height
	r.camera.SetViewport(width, height)
	r.havePrev = false
	return r.target.Resize(width, height)
}

// Dispose releases the passes in reverse order.
func (r *Renderer) Dispose() {
	for i := len(r.renderables) - 1; i >= 0; i-- {
		r.renderables[i].Dispose()
	}
}
