package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/config"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/xlab/closer"
)

func init() {
	runtime.LockOSThread()
}

func parseFlags(args []string) (*config.Settings, slog.Level, error) {
	s := config.Default()
	fs := flag.NewFlagSet("goosecube", flag.ContinueOnError)

	renderDistance := fs.Int("render-distance", s.RenderDistance(), "streaming radius in chunks")
	workers := fs.Int("workers", s.Workers(), "generation and meshing worker count")
	heapMiB := fs.Int("heap-mib", s.HeapBytes()>>20, "GPU vertex heap size in MiB")
	ringKiB := fs.Int("ring-kib", s.RingSegmentBytes()>>10, "debug line ring segment size in KiB")
	maxObjects := fs.Int("max-objects", s.MaxObjects(), "capacity of the culling object table")
	maxChunks := fs.Int("max-chunks", s.MaxChunks(), "maximum loaded chunks")
	maxSubmissions := fs.Int("max-submissions", s.MaxSubmissions(), "chunk requests per frame")
	occlusion := fs.Bool("occlusion", s.Occlusion(), "enable Hi-Z occlusion culling")
	generator := fs.String("generator", s.Generator(), "terrain generator: heightmap, density or flat")
	seed := fs.Int64("seed", s.Seed(), "world seed")
	fpsLimit := fs.Int("fps", s.FPSLimit(), "frame rate cap, 0 for uncapped")
	debug := fs.Bool("debug", false, "log at debug level")

	if err := fs.Parse(args); err != nil {
		return nil, 0, err
	}

	s.SetRenderDistance(*renderDistance)
	s.SetWorkers(*workers)
	s.SetHeapBytes(*heapMiB << 20)
	s.SetRingSegmentBytes(*ringKiB << 10)
	s.SetMaxObjects(*maxObjects)
	s.SetMaxChunks(*maxChunks)
	s.SetMaxSubmissions(*maxSubmissions)
	s.SetOcclusion(*occlusion)
	s.SetGenerator(*generator)
	s.SetSeed(*seed)
	s.SetFPSLimit(*fpsLimit)

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	return s, level, nil
}

func main() {
	defer closer.Close()

	settings, level, err := parseFlags(os.Args[1:])
	if err != nil {
		closer.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := glfw.Init(); err != nil {
		logger.Error("glfw init failed", "err", err)
		closer.Exit(1)
	}
	defer glfw.Terminate()

	window, err := setupWindow(900, 600)
	if err != nil {
		logger.Error("window setup failed", "err", err)
		closer.Exit(1)
	}
	defer window.Destroy()

	app, err := setupApp(window, settings, logger)
	if err != nil {
		logger.Error("setup failed", "err", err)
		closer.Exit(1)
	}
	defer app.Dispose()

	// Signals arrive off the main thread; only thread-safe teardown is bound.
	closer.Bind(app.exec.Shutdown)

	fmt.Fprintln(os.Stderr, "WASD/space/shift fly, ctrl fast, O occlusion, B bounds, V stats, G generator, Tab/[/] tune, Esc quit")
	NewLoop(window, app, settings, logger).Run()
}
