package world

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/culling"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/gpuheap"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/meshing"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/tasks"
	"github.com/go-gl/mathgl/mgl32"
)

// A flat world of height 5 has one chunk per column, meshed as one top and
// one bottom quad.
const flatChunkVertices = 2 * meshing.VerticesPerQuad

// manualExec queues tasks until the test runs them.
type manualExec struct {
	queue     []tasks.Task
	closed    bool
	submitted int
}

func (m *manualExec) Submit(t tasks.Task) bool {
	if m.closed {
		return false
	}
	m.queue = append(m.queue, t)
	m.submitted++
	return true
}

func (m *manualExec) Workers() int { return 1 }

func (m *manualExec) runOne() bool {
	if len(m.queue) == 0 {
		return false
	}
	t := m.queue[0]
	m.queue = m.queue[1:]
	t()
	return true
}

func (m *manualExec) runAll() {
	for m.runOne() {
	}
}

// countingExec counts submissions to a real executor.
type countingExec struct {
	*tasks.Executor
	submitted atomic.Int64
}

func (e *countingExec) Submit(t tasks.Task) bool {
	e.submitted.Add(1)
	return e.Executor.Submit(t)
}

// tallGen reports a taller column than it fills, so the upper chunks are empty.
type tallGen struct{ *Flat }

func (g tallGen) HeightBounds(int, int) (int, int) { return 0, 3*ChunkSize + 1 }

type fixture struct {
	coord  *Coordinator
	heap   *gpuheap.Heap
	culler *culling.Culler
}

func newFixture(t *testing.T, exec Executor, gen Generator, heapBytes, objects int, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		heap:   gpuheap.New(make([]byte, heapBytes), nil),
		culler: culling.New(culling.NewSoftware(objects), objects, nil),
	}
	f.coord = NewCoordinator(exec, f.heap, f.culler, gen, opts)
	return f
}

// columnsWithin lists the chunk columns Update streams for a radius around
// the origin.
func columnsWithin(radius int) [][2]int {
	var cols [][2]int
	for x := -radius; x <= radius; x++ {
		for z := -radius; z <= radius; z++ {
			if x*x+z*z <= radius*radius {
				cols = append(cols, [2]int{x, z})
			}
		}
	}
	return cols
}

// settle pumps ProcessCompleted until done reports true.
func settle(t *testing.T, c *Coordinator, done func(Stats) bool) Stats {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		c.ProcessCompleted()
		s := c.Stats()
		if done(s) {
			return s
		}
		if time.Now().After(deadline) {
			t.Fatalf("pipeline did not settle: %+v", s)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStreamingReachesActive(t *testing.T) {
	exec := tasks.NewExecutor(4, nil)
	defer exec.Shutdown()
	f := newFixture(t, exec, NewFlat(5), 1<<20, 1024, Options{})

	cols := columnsWithin(2)
	if n := f.coord.Update(mgl32.Vec3{8, 10, 8}, 2, 4); n != len(cols) {
		t.Fatalf("Update submitted %d chunks, want %d", n, len(cols))
	}
	s := settle(t, f.coord, func(s Stats) bool { return s.Count(Active) == len(cols) })

	if s.Loaded != len(cols) || s.VolumesInUse != 0 || s.NodesInUse != len(cols) {
		t.Errorf("unexpected stats after streaming: %+v", s)
	}
	if f.culler.Len() != len(cols) {
		t.Errorf("culler holds %d objects, want %d", f.culler.Len(), len(cols))
	}
	if got, want := f.heap.UsedBytes(), int(s.Vertices)*meshing.VertexBytes; got != want {
		t.Errorf("heap uses %d bytes for %d vertices", got, s.Vertices)
	}
	for _, col := range cols {
		state, verts, ok := f.coord.ChunkInfo(ChunkCoord{X: col[0], Z: col[1]})
		if !ok || state != Active || verts != flatChunkVertices {
			t.Errorf("chunk %v: state %v vertices %d loaded %v", col, state, verts, ok)
		}
	}

	bounds := f.coord.AppendActiveBounds(nil)
	if len(bounds) != len(cols) {
		t.Errorf("AppendActiveBounds returned %d boxes", len(bounds))
	}
}

func TestChunksAreSubmittedOnce(t *testing.T) {
	exec := &countingExec{Executor: tasks.NewExecutor(4, nil)}
	defer exec.Shutdown()
	f := newFixture(t, exec, NewFlat(5), 1<<20, 1024, Options{})

	cols := columnsWithin(2)
	total := 0
	for range 10 {
		total += f.coord.Update(mgl32.Vec3{}, 2, 4)
		f.coord.ProcessCompleted()
	}
	settle(t, f.coord, func(s Stats) bool { return s.Count(Active) == len(cols) })
	total += f.coord.Update(mgl32.Vec3{}, 2, 4)

	if total != len(cols) {
		t.Errorf("Update submitted %d chunks over 11 calls, want %d", total, len(cols))
	}
	// one generation and one meshing task per chunk
	if got := exec.submitted.Load(); got != int64(2*len(cols)) {
		t.Errorf("%d tasks submitted, want %d", got, 2*len(cols))
	}
}

func TestEvictionReleasesResources(t *testing.T) {
	exec := tasks.NewExecutor(2, nil)
	defer exec.Shutdown()
	f := newFixture(t, exec, NewFlat(5), 1<<20, 1024, Options{})

	f.coord.Update(mgl32.Vec3{}, 2, 4)
	settle(t, f.coord, func(s Stats) bool { return s.Count(Active) == 13 })

	far := mgl32.Vec3{100 * ChunkSize, 0, 0}
	f.coord.Update(far, 1, 3)
	settle(t, f.coord, func(s Stats) bool { return s.Count(Active) == len(columnsWithin(1)) })

	if _, _, ok := f.coord.ChunkInfo(ChunkCoord{}); ok {
		t.Error("chunk at the origin survived eviction")
	}
	if got, want := f.culler.Len(), len(columnsWithin(1)); got != want {
		t.Errorf("culler holds %d objects, want %d", got, want)
	}

	f.coord.Close()
	s := f.coord.Stats()
	if s.Loaded != 0 || s.NodesInUse != 0 || f.heap.UsedBytes() != 0 || f.culler.Len() != 0 || s.Vertices != 0 {
		t.Errorf("resources left after Close: stats %+v heap %d objects %d", s, f.heap.UsedBytes(), f.culler.Len())
	}
}

func TestUnloadWhileGenerating(t *testing.T) {
	exec := &manualExec{}
	f := newFixture(t, exec, NewFlat(5), 1<<20, 1024, Options{})

	f.coord.Update(mgl32.Vec3{}, 2, 4)
	f.coord.Unload(ChunkCoord{})

	exec.runAll()
	f.coord.ProcessCompleted()

	s := f.coord.Stats()
	if s.Count(Active) != 12 || s.Loaded != 12 {
		t.Errorf("want 12 active chunks, got %+v", s)
	}
	if s.Discarded != 1 || s.NodesInUse != 12 || s.VolumesInUse != 0 {
		t.Errorf("destroyed chunk not recycled: %+v", s)
	}
	if _, ok := f.culler.Slot(ChunkCoord{}.Key()); ok {
		t.Error("unloaded chunk was registered for drawing")
	}
	// the generation task saw the chunk destroyed and never queued a mesh
	if exec.submitted != 13+12 {
		t.Errorf("%d tasks submitted, want 25", exec.submitted)
	}
}

func TestUnloadBetweenGenerationAndMeshing(t *testing.T) {
	exec := &manualExec{}
	f := newFixture(t, exec, NewFlat(5), 1<<20, 1024, Options{})

	f.coord.Update(mgl32.Vec3{}, 0, 2)
	exec.runOne() // generation queues the mesh task
	if state, _, _ := f.coord.ChunkInfo(ChunkCoord{}); state != Meshing {
		t.Fatalf("state after generation = %v, want meshing", state)
	}
	f.coord.Unload(ChunkCoord{})
	exec.runAll()
	f.coord.ProcessCompleted()

	s := f.coord.Stats()
	if s.Loaded != 0 || s.NodesInUse != 0 || s.VolumesInUse != 0 || s.Meshed != 0 {
		t.Errorf("chunk unloaded before meshing leaked: %+v", s)
	}
	if f.heap.UsedBytes() != 0 {
		t.Errorf("heap holds %d bytes", f.heap.UsedBytes())
	}
}

func TestUnloadWhileWaitingForUpload(t *testing.T) {
	exec := &manualExec{}
	f := newFixture(t, exec, NewFlat(5), 1<<20, 1024, Options{})

	f.coord.Update(mgl32.Vec3{}, 0, 2)
	exec.runAll()
	f.coord.Unload(ChunkCoord{})
	f.coord.ProcessCompleted()

	s := f.coord.Stats()
	if s.Uploaded != 0 || s.Discarded != 1 || s.NodesInUse != 0 {
		t.Errorf("meshed chunk unloaded before upload: %+v", s)
	}
	if f.culler.Len() != 0 {
		t.Error("chunk was registered after unload")
	}
}

func TestUploadsWaitForHeapSpace(t *testing.T) {
	exec := &manualExec{}
	chunkBytes := flatChunkVertices * meshing.VertexBytes
	f := newFixture(t, exec, NewFlat(5), 5*chunkBytes, 1024, Options{})

	f.coord.Update(mgl32.Vec3{}, 2, 4)
	exec.runAll()
	f.coord.ProcessCompleted()

	s := f.coord.Stats()
	if s.Count(Active) != 5 || s.DeferredUploads != 8 || s.UploadStalls == 0 {
		t.Fatalf("want 5 uploads and 8 deferred, got %+v", s)
	}

	unloaded := 0
	for _, col := range columnsWithin(2) {
		c := ChunkCoord{X: col[0], Z: col[1]}
		if state, _, _ := f.coord.ChunkInfo(c); state == Active && unloaded < 3 {
			f.coord.Unload(c)
			unloaded++
		}
	}
	if n := f.coord.ProcessCompleted(); n != 3 {
		t.Errorf("ProcessCompleted uploaded %d after freeing 3 chunks", n)
	}
	if f.heap.FreeBytes() != 0 {
		t.Errorf("heap has %d free bytes", f.heap.FreeBytes())
	}
}

func TestUploadsWaitForObjectSlots(t *testing.T) {
	exec := &manualExec{}
	f := newFixture(t, exec, NewFlat(5), 1<<20, 4, Options{})

	f.coord.Update(mgl32.Vec3{}, 2, 4)
	exec.runAll()
	f.coord.ProcessCompleted()

	s := f.coord.Stats()
	if s.Count(Active) != 4 || s.DeferredUploads != 9 {
		t.Errorf("want 4 uploads and 9 deferred, got %+v", s)
	}
	if got := f.heap.UsedBytes(); got != 4*flatChunkVertices*meshing.VertexBytes {
		t.Errorf("rejected uploads kept %d heap bytes", got)
	}
}

func TestUploadBudget(t *testing.T) {
	exec := &manualExec{}
	f := newFixture(t, exec, NewFlat(5), 1<<20, 1024, Options{MaxUploads: 4})

	f.coord.Update(mgl32.Vec3{}, 2, 4)
	exec.runAll()
	for i, want := range []int{4, 4, 4, 1, 0} {
		if n := f.coord.ProcessCompleted(); n != want {
			t.Errorf("call %d uploaded %d, want %d", i, n, want)
		}
	}
}

func TestEmptyChunksSkipMeshing(t *testing.T) {
	exec := &manualExec{}
	f := newFixture(t, exec, tallGen{NewFlat(5)}, 1<<20, 1024, Options{})

	cols := columnsWithin(1)
	if n := f.coord.Update(mgl32.Vec3{}, 1, 3); n != 4*len(cols) {
		t.Fatalf("Update submitted %d, want %d", n, 4*len(cols))
	}
	exec.runAll()
	f.coord.ProcessCompleted()

	s := f.coord.Stats()
	if s.Count(Active) != 4*len(cols) {
		t.Errorf("empty chunks did not become active: %+v", s)
	}
	if s.Meshed != int64(len(cols)) || exec.submitted != 5*len(cols) {
		t.Errorf("meshed %d chunks with %d tasks", s.Meshed, exec.submitted)
	}
	if f.culler.Len() != len(cols) {
		t.Errorf("empty chunks were registered for drawing: %d objects", f.culler.Len())
	}
	if _, verts, _ := f.coord.ChunkInfo(ChunkCoord{Y: 2}); verts != 0 {
		t.Errorf("empty chunk has %d vertices", verts)
	}
}

func TestSetGeneratorRegenerates(t *testing.T) {
	exec := tasks.NewExecutor(4, nil)
	defer exec.Shutdown()
	f := newFixture(t, exec, NewFlat(5), 1<<20, 1024, Options{})

	cols := columnsWithin(1)
	f.coord.Update(mgl32.Vec3{}, 1, 3)
	settle(t, f.coord, func(s Stats) bool { return s.Count(Active) == len(cols) })

	f.coord.SetGenerator(NewFlat(40))
	f.coord.ProcessCompleted()
	if s := f.coord.Stats(); s.Loaded != 0 || f.heap.UsedBytes() != 0 || f.culler.Len() != 0 {
		t.Fatalf("old world survived SetGenerator: %+v", s)
	}
	if f.coord.Generator().Height(0, 0) != 40 {
		t.Error("generator not replaced")
	}

	f.coord.Update(mgl32.Vec3{}, 1, 3)
	settle(t, f.coord, func(s Stats) bool { return s.Count(Active) == 2*len(cols) })
}

func TestTuneGeneratorSwapsOnChange(t *testing.T) {
	exec := &manualExec{}
	f := newFixture(t, exec, NewFlat(5), 1<<20, 1024, Options{})

	f.coord.Update(mgl32.Vec3{}, 1, 3)
	if f.coord.TuneGenerator(&sliderUI{}) {
		t.Error("TuneGenerator swapped without a change")
	}
	if f.coord.Stats().Loaded == 0 {
		t.Error("unchanged tuning unloaded the world")
	}
	if !f.coord.TuneGenerator(&sliderUI{label: "height", value: 12}) {
		t.Fatal("TuneGenerator ignored a change")
	}
	if f.coord.Generator().Height(0, 0) != 12 || f.coord.Stats().Loaded != 0 {
		t.Error("tuned generator not installed")
	}

	exec.runAll()
	f.coord.ProcessCompleted()
	if s := f.coord.Stats(); s.NodesInUse != 0 || s.VolumesInUse != 0 {
		t.Errorf("stale tasks leaked chunks: %+v", s)
	}
}

func TestSubmissionLimits(t *testing.T) {
	t.Run("per update", func(t *testing.T) {
		f := newFixture(t, &manualExec{}, NewFlat(5), 1<<20, 1024, Options{MaxSubmissions: 5})
		for i, want := range []int{5, 5, 3, 0} {
			if n := f.coord.Update(mgl32.Vec3{}, 2, 4); n != want {
				t.Errorf("Update %d submitted %d, want %d", i, n, want)
			}
		}
	})
	t.Run("in flight", func(t *testing.T) {
		exec := &manualExec{}
		f := newFixture(t, exec, NewFlat(5), 1<<20, 1024, Options{MaxInFlight: 3})
		if n := f.coord.Update(mgl32.Vec3{}, 2, 4); n != 3 {
			t.Errorf("Update submitted %d, want 3", n)
		}
		if s := f.coord.Stats(); s.VolumesInUse != 3 {
			t.Errorf("%d volumes in use", s.VolumesInUse)
		}
		exec.runAll()
		if n := f.coord.Update(mgl32.Vec3{}, 2, 4); n != 3 {
			t.Errorf("Update after meshing submitted %d, want 3", n)
		}
	})
	t.Run("loaded chunks", func(t *testing.T) {
		exec := &manualExec{}
		f := newFixture(t, exec, NewFlat(5), 1<<20, 1024, Options{MaxChunks: 4})
		if n := f.coord.Update(mgl32.Vec3{}, 2, 4); n != 4 {
			t.Errorf("Update submitted %d, want 4", n)
		}
		exec.runAll()
		f.coord.ProcessCompleted()
		if n := f.coord.Update(mgl32.Vec3{}, 2, 4); n != 0 {
			t.Errorf("Update past the chunk cap submitted %d", n)
		}
	})
}

func TestStoppedExecutor(t *testing.T) {
	t.Run("before submission", func(t *testing.T) {
		exec := &manualExec{closed: true}
		f := newFixture(t, exec, NewFlat(5), 1<<20, 1024, Options{})
		if n := f.coord.Update(mgl32.Vec3{}, 2, 4); n != 0 {
			t.Errorf("Update submitted %d to a stopped executor", n)
		}
		if s := f.coord.Stats(); s.Loaded != 0 || s.NodesInUse != 0 || s.VolumesInUse != 0 {
			t.Errorf("rejected chunks leaked: %+v", s)
		}
	})
	t.Run("before meshing", func(t *testing.T) {
		exec := &manualExec{}
		f := newFixture(t, exec, NewFlat(5), 1<<20, 1024, Options{})
		f.coord.Update(mgl32.Vec3{}, 2, 4)
		exec.closed = true
		exec.runAll()
		f.coord.ProcessCompleted()
		if s := f.coord.Stats(); s.Loaded != 0 || s.NodesInUse != 0 || s.VolumesInUse != 0 {
			t.Errorf("abandoned chunks leaked: %+v", s)
		}
	})
}

func TestStatsFromOtherGoroutines(t *testing.T) {
	exec := tasks.NewExecutor(4, nil)
	defer exec.Shutdown()
	f := newFixture(t, exec, NewFlat(5), 1<<20, 1024, Options{})

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
				f.coord.Stats()
				f.coord.ChunkInfo(ChunkCoord{})
			}
		}
	}()

	for i := range 20 {
		f.coord.Update(mgl32.Vec3{float32(i * ChunkSize), 0, 0}, 2, 3)
		f.coord.ProcessCompleted()
	}
	close(stop)
	<-done
}
