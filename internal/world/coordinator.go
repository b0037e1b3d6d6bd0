package world

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/culling"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/memory"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/meshing"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/profiling"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/tasks"
	"github.com/go-gl/mathgl/mgl32"
)

// Executor runs generation and meshing tasks.
type Executor interface {
	Submit(t tasks.Task) bool
	Workers() int
}

// VertexHeap is where finished meshes are uploaded. Allocate returns a
// negative offset when the heap is full.
type VertexHeap interface {
	Allocate(size, alignment int) int
	Free(offset, size int)
	Upload(offset int, data []byte)
}

// ObjectTable registers uploaded meshes for culling and drawing.
type ObjectTable interface {
	AddOrUpdateChunk(key int64, rec culling.ObjectRecord) bool
	RemoveChunk(key int64)
}

// Options tunes a Coordinator. Zero values pick defaults.
type Options struct {
	// MaxChunks caps the number of loaded chunk nodes. Default 65536.
	MaxChunks int
	// MaxInFlight caps chunks between submission and upload; each holds a
	// padded volume. Default 512.
	MaxInFlight int
	// MaxSubmissions caps generation tasks submitted per Update. Default 256.
	MaxSubmissions int
	// MaxUploads caps uploads per ProcessCompleted. Default 128.
	MaxUploads int

	Logger   *slog.Logger
	Profiler *profiling.Profiler
}

type meshScratch struct {
	ext meshing.Extractor
	out *memory.Linear[uint32]
}

// Coordinator drives every chunk through Missing -> Generating -> Generated
// -> Meshing -> Meshed -> Active and tears it down on unload. Update,
// ProcessCompleted, SetGenerator and Close must be called from the thread
// that owns the graphics context; Stats and ChunkInfo may be called from
// anywhere.
//
// At most one task holds a chunk at any time: the generation task submits
// the meshing task as its last action, and each task either hands the chunk
// on or returns it to the main thread through the completion queue.
type Coordinator struct {
	exec    Executor
	heap    VertexHeap
	objects ObjectTable
	gen     Generator
	opts    Options
	log     *slog.Logger
	prof    *profiling.Profiler

	nodes   *memory.Slab[Chunk]
	volumes *memory.Slab[meshing.Volume]
	scratch chan *meshScratch

	mu     sync.RWMutex // write-locked by the main thread only
	chunks map[ChunkCoord]*Chunk

	doneMu sync.Mutex
	done   []*Chunk
	drain  []*Chunk

	deferred []*Chunk
	bounds   map[[2]int][2]int // chunk column -> chunk Y range

	generated      atomic.Int64
	meshed         atomic.Int64
	uploaded       atomic.Int64
	discarded      atomic.Int64
	uploadStalls   atomic.Int64
	pendingUploads atomic.Int64
	vertices       atomic.Int64
}

// NewCoordinator wires the pipeline together. gen must already be initialized.
func NewCoordinator(exec Executor, heap VertexHeap, objects ObjectTable, gen Generator, opts Options) *Coordinator {
	if opts.MaxChunks <= 0 {
		opts.MaxChunks = 65536
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = 512
	}
	if opts.MaxSubmissions <= 0 {
		opts.MaxSubmissions = 256
	}
	if opts.MaxUploads <= 0 {
		opts.MaxUploads = 128
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	workers := max(exec.Workers(), 1)
	scratch := make(chan *meshScratch, workers)
	for range workers {
		scratch <- &meshScratch{}
	}

	return &Coordinator{
		exec:    exec,
		heap:    heap,
		objects: objects,
		gen:     gen,
		opts:    opts,
		log:     opts.Logger,
		prof:    opts.Profiler,
		nodes: memory.NewSlab[Chunk](memory.SlabOptions{
			PageSize:   256,
			MaxRecords: opts.MaxChunks,
			Growth:     memory.GrowGeometric,
		}),
		volumes: memory.NewSlab[meshing.Volume](memory.SlabOptions{
			PageSize:   16,
			MaxRecords: opts.MaxInFlight,
		}),
		scratch: scratch,
		chunks:  make(map[ChunkCoord]*Chunk),
		bounds:  make(map[[2]int][2]int),
	}
}

// Generator returns the current terrain generator.
func (c *Coordinator) Generator() Generator { return c.gen }

// Update unloads chunks beyond evictDistance and requests missing chunks
// within renderDistance of center, nearest rings first. It returns the
// number of generation tasks submitted.
func (c *Coordinator) Update(center mgl32.Vec3, renderDistance, evictDistance int) int {
	defer c.prof.Track("world.Update")()
	cc := ChunkAt(center)
	c.evict(cc.X, cc.Z, evictDistance)
	return c.stream(cc.X, cc.Z, renderDistance)
}

func (c *Coordinator) stream(cx, cz, radius int) int {
	submitted := 0
	for r := 0; r <= radius; r++ {
		x0, x1 := cx-r, cx+r
		z0, z1 := cz-r, cz+r
		visit := func(x, z int) bool {
			dx, dz := x-cx, z-cz
			if dx*dx+dz*dz > radius*radius {
				return true
			}
			n, ok := c.enqueueColumn(x, z, c.opts.MaxSubmissions-submitted)
			submitted += n
			return ok && submitted < c.opts.MaxSubmissions
		}

		if r == 0 {
			if !visit(cx, cz) {
				return submitted
			}
			continue
		}
		for x := x0; x <= x1; x++ {
			if !visit(x, z0) {
				return submitted
			}
		}
		for z := z0 + 1; z <= z1-1; z++ {
			if !visit(x1, z) {
				return submitted
			}
		}
		for x := x1; x >= x0; x-- {
			if !visit(x, z1) {
				return submitted
			}
		}
		for z := z1 - 1; z >= z0+1; z-- {
			if !visit(x0, z) {
				return submitted
			}
		}
	}
	return submitted
}

// columnRange returns the chunk Y range of a column, cached per column.
func (c *Coordinator) columnRange(x, z int) (int, int) {
	key := [2]int{x, z}
	if r, ok := c.bounds[key]; ok {
		return r[0], r[1]
	}
	minY, maxY := c.gen.HeightBounds(x, z)
	r := [2]int{floorDiv(minY, ChunkSize), floorDiv(maxY, ChunkSize)}
	c.bounds[key] = r
	return r[0], r[1]
}

// enqueueColumn requests up to budget missing chunks of one column. ok is
// false when a capacity limit stopped it.
func (c *Coordinator) enqueueColumn(x, z, budget int) (n int, ok bool) {
	lo, hi := c.columnRange(x, z)
	for y := lo; y <= hi && n < budget; y++ {
		coord := ChunkCoord{X: x, Y: y, Z: z}
		if _, loaded := c.chunks[coord]; loaded {
			continue
		}
		if !c.request(coord) {
			return n, false
		}
		n++
	}
	return n, true
}

// request creates a chunk node and submits its generation task.
func (c *Coordinator) request(coord ChunkCoord) bool {
	ch := c.nodes.Acquire()
	if ch == nil {
		return false
	}
	vol := c.volumes.Acquire()
	if vol == nil {
		c.nodes.Release(ch)
		return false
	}
	ch.Coord = coord
	ch.volume = vol

	c.mu.Lock()
	c.chunks[coord] = ch
	c.mu.Unlock()

	ch.advance(Missing, Generating)
	gen := c.gen
	if !c.exec.Submit(func() { c.generate(ch, gen) }) {
		c.log.Warn("executor rejected generation task", "chunk", coord)
		c.forget(ch)
		return false
	}
	return true
}

// generate runs on a worker.
func (c *Coordinator) generate(ch *Chunk, gen Generator) {
	if ch.State() != Generating {
		c.finish(ch)
		return
	}
	ch.solid = FillVolume(gen, ch.Coord, ch.volume)
	c.generated.Add(1)

	if !ch.advance(Generating, Generated) || !ch.advance(Generated, Meshing) {
		c.finish(ch)
		return
	}
	if ch.solid == 0 {
		c.releaseVolume(ch)
		ch.advance(Meshing, Meshed)
		c.finish(ch)
		return
	}
	if !c.exec.Submit(func() { c.mesh(ch) }) {
		c.finish(ch)
	}
}

// mesh runs on a worker.
func (c *Coordinator) mesh(ch *Chunk) {
	if ch.State() != Meshing {
		c.finish(ch)
		return
	}

	s := <-c.scratch
	if s.out == nil {
		s.out = memory.NewLinear[uint32](meshing.WorstCaseVertices)
	}
	s.out.Reset()
	verts, ok := s.ext.Extract(ch.volume, s.out)
	if !ok {
		c.log.Error("mesh scratch exhausted", "chunk", ch.Coord)
	}
	if len(verts) > 0 {
		ch.vertices = slices.Clone(verts)
	}
	c.scratch <- s

	c.releaseVolume(ch)
	c.meshed.Add(1)
	ch.advance(Meshing, Meshed)
	c.finish(ch)
}

func (c *Coordinator) releaseVolume(ch *Chunk) {
	if ch.volume != nil {
		c.volumes.Release(ch.volume)
		ch.volume = nil
	}
}

// finish hands a chunk back to the main thread.
func (c *Coordinator) finish(ch *Chunk) {
	c.doneMu.Lock()
	c.done = append(c.done, ch)
	c.doneMu.Unlock()
}

// ProcessCompleted uploads finished meshes and recycles chunks whose tasks
// ended after they were unloaded. Uploads that don't fit in the heap are
// kept and retried on later calls. It returns the number of uploads.
func (c *Coordinator) ProcessCompleted() int {
	defer c.prof.Track("world.ProcessCompleted")()

	c.doneMu.Lock()
	c.drain, c.done = c.done, c.drain[:0]
	c.doneMu.Unlock()

	work := c.deferred
	c.deferred = nil
	work = append(work, c.drain...)
	clear(c.drain)

	uploads := 0
	for _, ch := range work {
		switch ch.State() {
		case Destroyed:
			c.discarded.Add(1)
			c.release(ch)
		case Meshed:
			if uploads >= c.opts.MaxUploads {
				c.deferred = append(c.deferred, ch)
				continue
			}
			if !c.upload(ch) {
				ch.deferred++
				c.uploadStalls.Add(1)
				c.deferred = append(c.deferred, ch)
				continue
			}
			uploads++
		default:
			// the follow-up task was rejected by a stopped executor
			c.forget(ch)
		}
	}
	c.pendingUploads.Store(int64(len(c.deferred)))
	if len(c.deferred) > 0 && uploads == 0 {
		c.log.Debug("uploads deferred", "chunks", len(c.deferred))
	}
	return uploads
}

// upload moves a meshed chunk into the heap and the object table.
func (c *Coordinator) upload(ch *Chunk) bool {
	n := len(ch.vertices)
	if n > 0 {
		data := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(ch.vertices))), n*meshing.VertexBytes)
		off := c.heap.Allocate(len(data), meshing.VertexBytes)
		if off < 0 {
			return false
		}
		c.heap.Upload(off, data)

		rec := culling.ObjectRecord{
			Bounds:      ch.Coord.Bounds(),
			LODScale:    1,
			FirstVertex: uint32(off / meshing.VertexBytes),
			VertexCount: uint32(n),
		}
		if !c.objects.AddOrUpdateChunk(ch.Coord.Key(), rec) {
			c.heap.Free(off, len(data))
			return false
		}
		ch.mesh = block{offset: off, size: len(data)}
		ch.vertices = nil
		ch.vertexCount.Store(int32(n))
		c.vertices.Add(int64(n))
	}
	if !ch.advance(Meshed, Active) {
		panic("world: meshed chunk changed state on the main thread")
	}
	c.uploaded.Add(1)
	return true
}

// Unload destroys the chunk at coord if it is loaded.
func (c *Coordinator) Unload(coord ChunkCoord) {
	if ch, ok := c.chunks[coord]; ok {
		c.unload(ch)
	}
}

func (c *Coordinator) unload(ch *Chunk) {
	c.mu.Lock()
	delete(c.chunks, ch.Coord)
	c.mu.Unlock()

	switch ch.destroy() {
	case Missing:
		c.release(ch)
	case Active:
		if ch.mesh.size > 0 {
			c.objects.RemoveChunk(ch.Coord.Key())
			c.heap.Free(ch.mesh.offset, ch.mesh.size)
			c.vertices.Add(-int64(ch.VertexCount()))
		}
		c.release(ch)
	default:
		// a task or the completion queue still holds the chunk; it is
		// recycled when it comes back through ProcessCompleted
	}
}

// forget drops a chunk no task holds any more.
func (c *Coordinator) forget(ch *Chunk) {
	c.mu.Lock()
	if c.chunks[ch.Coord] == ch {
		delete(c.chunks, ch.Coord)
	}
	c.mu.Unlock()
	ch.destroy()
	c.release(ch)
}

func (c *Coordinator) release(ch *Chunk) {
	c.releaseVolume(ch)
	c.nodes.Release(ch)
}

func (c *Coordinator) evict(cx, cz, radius int) int {
	r2 := radius * radius
	var far []*Chunk
	for coord, ch := range c.chunks {
		dx, dz := coord.X-cx, coord.Z-cz
		if dx*dx+dz*dz > r2 {
			far = append(far, ch)
		}
	}
	for _, ch := range far {
		c.unload(ch)
	}
	for key := range c.bounds {
		dx, dz := key[0]-cx, key[1]-cz
		if dx*dx+dz*dz > r2 {
			delete(c.bounds, key)
		}
	}
	if len(far) > 0 {
		c.log.Debug("evicted chunks", "count", len(far), "radius", radius)
	}
	return len(far)
}

// SetGenerator takes ownership of gen, which must be initialized, and
// unloads every chunk so the world regenerates from it. Tasks still running
// with the old generator finish harmlessly; their chunks are already
// destroyed.
func (c *Coordinator) SetGenerator(gen Generator) {
	c.unloadAll()
	c.gen = gen
	clear(c.bounds)
	c.log.Info("terrain generator changed", "generator", gen.Name())
}

// TuneGenerator shows the generator's parameters on ui and switches to the
// tuned generator if anything changed.
func (c *Coordinator) TuneGenerator(ui DebugUI) bool {
	g := c.gen.Tune(ui)
	if g == nil {
		return false
	}
	c.SetGenerator(g)
	return true
}

func (c *Coordinator) unloadAll() {
	all := make([]*Chunk, 0, len(c.chunks))
	for _, ch := range c.chunks {
		all = append(all, ch)
	}
	for _, ch := range all {
		c.unload(ch)
	}
}

// Close unloads everything and frees the heap blocks it owns. Chunks still
// held by tasks are dropped with the coordinator.
func (c *Coordinator) Close() {
	c.unloadAll()
	c.ProcessCompleted()
}

// AppendActiveBounds appends the box of every chunk with uploaded geometry.
func (c *Coordinator) AppendActiveBounds(dst []culling.AABB) []culling.AABB {
	for coord, ch := range c.chunks {
		if ch.State() == Active && ch.VertexCount() > 0 {
			dst = append(dst, coord.Bounds())
		}
	}
	return dst
}
