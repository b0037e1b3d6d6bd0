package main

import (
	"log/slog"
	"time"

	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/config"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/input"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/world"

	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	flySpeed   = 40.0 // blocks per second
	fastFactor = 5.0
	statsEvery = 5 * time.Second
)

var generatorCycle = []string{
	config.GeneratorHeightmap,
	config.GeneratorDensity,
	config.GeneratorFlat,
}

// Loop runs frames until the window closes.
type Loop struct {
	window   *glfw.Window
	app      *App
	settings *config.Settings
	log      *slog.Logger
	limiter  FPSLimiter

	frames    int
	lastTime  time.Time
	lastStats time.Time
}

func NewLoop(window *glfw.Window, app *App, settings *config.Settings, logger *slog.Logger) *Loop {
	now := time.Now()
	return &Loop{
		window:    window,
		app:       app,
		settings:  settings,
		log:       logger,
		lastTime:  now,
		lastStats: now,
	}
}

func (l *Loop) Run() {
	for !l.window.ShouldClose() {
		l.tick()
	}
}

func (l *Loop) tick() {
	a := l.app
	a.prof.ResetFrame()
	now := time.Now()
	dt := now.Sub(l.lastTime).Seconds()
	l.lastTime = now

	l.handleInput(dt)

	func() {
		defer a.prof.Track("world.Update")()
		a.coord.Update(a.renderer.Camera().Position, l.settings.RenderDistance(), l.settings.EvictDistance())
	}()
	func() {
		defer a.prof.Track("world.ProcessCompleted")()
		a.coord.ProcessCompleted()
	}()

	l.tune()

	a.renderer.Render(dt)
	l.frames++

	func() { defer a.prof.Track("glfw.SwapBuffers")(); l.window.SwapBuffers() }()
	a.input.PostUpdate()
	func() { defer a.prof.Track("glfw.PollEvents")(); glfw.PollEvents() }()

	if time.Since(l.lastStats) >= statsEvery {
		l.logStats()
	}
	l.limiter.Wait(l.settings.FPSLimit())
}

func (l *Loop) handleInput(dt float64) {
	a := l.app
	in := a.input
	cam := a.renderer.Camera()

	if in.JustPressed(input.ActionQuit) {
		l.window.SetShouldClose(true)
	}
	if in.JustPressed(input.ActionToggleOcclusion) {
		on := !a.renderer.Occlusion()
		a.renderer.SetOcclusion(on)
		l.settings.SetOcclusion(on)
		l.log.Info("occlusion culling", "enabled", on)
	}
	if in.JustPressed(input.ActionToggleBounds) {
		a.bounds.Enabled = !a.bounds.Enabled
	}
	if in.JustPressed(input.ActionLogStats) {
		l.logStats()
	}
	if in.JustPressed(input.ActionCycleGenerator) {
		l.cycleGenerator()
	}

	cam.Turn(in.CursorDelta())

	fast := in.IsActive(input.ActionFast)
	a.renderer.SetFast(fast)
	speed := float32(flySpeed * dt)
	if fast {
		speed *= fastFactor
	}
	cam.Move(
		in.Axis(input.ActionMoveForward, input.ActionMoveBackward)*speed,
		in.Axis(input.ActionMoveRight, input.ActionMoveLeft)*speed,
		in.Axis(input.ActionMoveUp, input.ActionMoveDown)*speed,
	)
}

func (l *Loop) cycleGenerator() {
	next := generatorCycle[0]
	for i, kind := range generatorCycle {
		if kind == l.settings.Generator() {
			next = generatorCycle[(i+1)%len(generatorCycle)]
		}
	}
	l.settings.SetGenerator(next)
	l.app.coord.SetGenerator(world.NewGenerator(next, l.settings.Seed()))
}

// tune draws the generator's parameters on the tuner every frame so a step
// lands on the slider it was aimed at.
func (l *Loop) tune() {
	a := l.app
	in := a.input
	touched := false
	if in.JustPressed(input.ActionTuneNext) {
		if a.tuner.Visible() {
			a.tuner.Next()
		} else {
			a.tuner.Toggle()
		}
		touched = true
	}
	if in.JustPressed(input.ActionTuneIncrease) {
		a.tuner.Step(1)
		touched = true
	}
	if in.JustPressed(input.ActionTuneDecrease) {
		a.tuner.Step(-1)
		touched = true
	}
	if !a.tuner.Visible() {
		return
	}

	a.tuner.Begin()
	a.coord.TuneGenerator(a.tuner)
	a.tuner.End()
	if touched {
		l.log.Info("generator parameters", "generator", a.coord.Generator().Name(), "params", a.tuner.Lines())
	}
}

func (l *Loop) logStats() {
	a := l.app
	elapsed := time.Since(l.lastStats).Seconds()
	s := a.coord.Stats()
	pos := a.renderer.Camera().Position

	l.log.Info("frame",
		"fps", int(float64(l.frames)/max(elapsed, 1e-3)),
		"pos", [3]int{int(pos[0]), int(pos[1]), int(pos[2])},
		"visible", a.culler.VisibleCount(),
		"objects", a.culler.Len(),
		"hiz_levels", a.culler.HiZLevels(),
		"occlusion", a.renderer.Occlusion(),
	)
	l.log.Info("world",
		"loaded", s.Loaded,
		"active", s.Count(world.Active),
		"generating", s.Count(world.Generating),
		"meshing", s.Count(world.Meshing),
		"pending", s.PendingCompletions,
		"deferred_uploads", s.DeferredUploads,
		"upload_stalls", s.UploadStalls,
		"vertices", s.Vertices,
	)
	l.log.Info("memory",
		"heap_used_mib", a.heap.UsedBytes()>>20,
		"heap_mib", a.heap.Capacity()>>20,
		"free_blocks", a.heap.FreeBlockCount(),
		"queue", a.exec.QueueLength(),
		"busy_workers", a.exec.ActiveWorkers(),
		"workers", a.exec.Workers(),
		"ring_stalls", a.bounds.Overlay.Stalls(),
	)
	l.log.Debug("profile", "top", a.prof.TopN(8))

	l.frames = 0
	l.lastStats = time.Now()
}
