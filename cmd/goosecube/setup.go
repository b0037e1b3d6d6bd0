package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/config"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/culling"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/gpuheap"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/graphics"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/graphics/renderer"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/input"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/profiling"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/tasks"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/ui"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/world"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

const textureSize = 16

func setupWindow(width, height int) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(width, height, "goosecube", nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		window.Destroy()
		return nil, fmt.Errorf("gl init: %w", err)
	}

	// Frame pacing is left to the FPS limiter.
	glfw.SwapInterval(0)
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	return window, nil
}

// App holds every long-lived component of the viewer.
type App struct {
	prof     *profiling.Profiler
	exec     *tasks.Executor
	heap     *gpuheap.Heap
	backend  *graphics.CullBackend
	culler   *culling.Culler
	coord    *world.Coordinator
	target   *graphics.Target
	renderer *renderer.Renderer
	bounds   *renderer.BoundsPass
	input    *input.Manager
	tuner    *ui.Tuner
	textures uint32
}

func setupApp(window *glfw.Window, settings *config.Settings, logger *slog.Logger) (*App, error) {
	logger.Info("OpenGL context",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)))

	a := &App{
		prof:  profiling.New(),
		input: input.NewManager(),
		tuner: ui.New(),
	}
	ok := false
	defer func() {
		if !ok {
			a.Dispose()
		}
	}()

	gen := world.NewGenerator(settings.Generator(), settings.Seed())

	var err error
	a.textures, err = graphics.LoadTextureArray(os.DirFS("."), gen.TexturePaths(), textureSize, logger)
	if err != nil {
		return nil, err
	}

	chunks, err := graphics.NewChunkRenderer(settings.HeapBytes(), a.textures)
	if err != nil {
		return nil, err
	}
	a.heap = gpuheap.New(chunks.HeapBytes(), logger.With("component", "heap"))

	a.backend, err = graphics.NewCullBackend(settings.MaxObjects(), logger)
	if err != nil {
		chunks.Delete()
		return nil, err
	}
	a.culler = culling.New(a.backend, settings.MaxObjects(), logger.With("component", "culler"))

	overlay, err := graphics.NewBoundsOverlay(settings.RingSegmentBytes(), logger.With("component", "bounds"))
	if err != nil {
		chunks.Delete()
		return nil, err
	}

	w, h := window.GetFramebufferSize()
	a.target, err = graphics.NewTarget(w, h)
	if err != nil {
		chunks.Delete()
		overlay.Delete()
		return nil, err
	}

	a.exec = tasks.NewExecutor(settings.Workers(), logger.With("component", "executor"))
	a.coord = world.NewCoordinator(a.exec, a.heap, a.culler, gen, world.Options{
		MaxChunks:      settings.MaxChunks(),
		MaxSubmissions: settings.MaxSubmissions(),
		Logger:         logger.With("component", "world"),
		Profiler:       a.prof,
	})

	a.bounds = &renderer.BoundsPass{
		Overlay: overlay,
		Source:  a.coord.AppendActiveBounds,
		Color:   mgl32.Vec3{1, 0.85, 0.2},
	}
	cam := graphics.NewCamera(w, h)
	cam.Position = mgl32.Vec3{0, float32(gen.Height(0, 0) + 24), 0}
	a.renderer = renderer.New(cam, a.target, a.culler, a.prof,
		&renderer.ChunkPass{Chunks: chunks, Culler: a.culler},
		a.bounds,
	)
	a.renderer.SetOcclusion(settings.Occlusion())
	if err := a.renderer.Resize(w, h); err != nil {
		return nil, err
	}

	a.input.Attach(window)
	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		if err := a.renderer.Resize(width, height); err != nil {
			logger.Error("resize failed", "width", width, "height", height, "err", err)
		}
	})

	ok = true
	return a, nil
}

// Dispose stops the workers and releases GL objects. It must run on the
// thread that owns the context, and tolerates a partially built App.
func (a *App) Dispose() {
	if a.exec != nil {
		a.exec.Shutdown()
	}
	if a.coord != nil {
		a.coord.Close()
		a.coord = nil
	}
	if a.renderer != nil {
		a.renderer.Dispose()
		a.renderer = nil
	}
	if a.backend != nil {
		a.backend.Delete()
		a.backend = nil
	}
	if a.target != nil {
		a.target.Delete()
		a.target = nil
	}
	if a.textures != 0 {
		gl.DeleteTextures(1, &a.textures)
		a.textures = 0
	}
}
