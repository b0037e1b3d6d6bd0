package graphics

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/culling"
	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/ring"
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	lineVertexFloats = 6 // position, colour
	lineVertexBytes  = lineVertexFloats * 4
	boxVertices      = 24
)

// boxEdges indexes AABB.Corners: twelve edges as vertex pairs.
var boxEdges = [boxVertices]int{
	0, 1, 2, 3, 4, 5, 6, 7, // along x
	0, 2, 1, 3, 4, 6, 5, 7, // along y
	0, 4, 1, 5, 2, 6, 3, 7, // along z
}

// AppendBoxLines appends line-list vertices outlining box.
func AppendBoxLines(dst []float32, box culling.AABB, color mgl32.Vec3) []float32 {
	corners := box.Corners()
	for _, i := range boxEdges {
		c := corners[i]
		dst = append(dst, c[0], c[1], c[2], color[0], color[1], color[2])
	}
	return dst
}

// BoxesPerSegment returns how many outlines fit in one ring segment.
func BoxesPerSegment(segmentBytes int) int {
	return segmentBytes / (boxVertices * lineVertexBytes)
}

// lineDevice draws line lists straight out of the ring buffer.
type lineDevice struct {
	vao uint32
	buf uint32
}

func (d *lineDevice) InsertFence() ring.Fence { return insertFence() }

func (d *lineDevice) DrawRange(offset, count int) {
	gl.VertexArrayVertexBuffer(d.vao, 0, d.buf, offset, lineVertexBytes)
	gl.BindVertexArray(d.vao)
	gl.DrawArrays(gl.LINES, 0, int32(count))
	gl.BindVertexArray(0)
}

// BoundsOverlay streams chunk outlines through a fenced ring every frame.
type BoundsOverlay struct {
	buf    *MappedBuffer
	ring   *ring.Buffer
	dev    *lineDevice
	shader *Shader
	log    *slog.Logger
}

// NewBoundsOverlay maps a ring of three segmentBytes windows.
func NewBoundsOverlay(segmentBytes int, logger *slog.Logger) (*BoundsOverlay, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	shader, err := NewShader(LinesVertShader, LinesFragShader)
	if err != nil {
		return nil, fmt.Errorf("line shader: %w", err)
	}

	// segment starts must stay vertex aligned
	align := lineVertexBytes
	buf, err := NewMappedBuffer(ring.Required(segmentBytes, align))
	if err != nil {
		shader.Delete()
		return nil, fmt.Errorf("overlay ring: %w", err)
	}

	dev := &lineDevice{buf: buf.ID}
	gl.CreateVertexArrays(1, &dev.vao)
	gl.EnableVertexArrayAttrib(dev.vao, 0)
	gl.VertexArrayAttribFormat(dev.vao, 0, 3, gl.FLOAT, false, 0)
	gl.VertexArrayAttribBinding(dev.vao, 0, 0)
	gl.EnableVertexArrayAttrib(dev.vao, 1)
	gl.VertexArrayAttribFormat(dev.vao, 1, 3, gl.FLOAT, false, 3*4)
	gl.VertexArrayAttribBinding(dev.vao, 1, 0)

	rb, err := ring.New(buf.Bytes, dev, ring.Options{
		SegmentSize:  segmentBytes,
		Alignment:    align,
		VertexStride: lineVertexBytes,
		Logger:       logger,
	})
	if err != nil {
		gl.DeleteVertexArrays(1, &dev.vao)
		buf.Delete()
		shader.Delete()
		return nil, err
	}
	return &BoundsOverlay{buf: buf, ring: rb, dev: dev, shader: shader, log: logger}, nil
}

// Draw outlines as many boxes as fit in one segment and returns that number.
func (o *BoundsOverlay) Draw(boxes []culling.AABB, viewProj mgl32.Mat4, color mgl32.Vec3) int {
	n := min(len(boxes), BoxesPerSegment(o.ring.SegmentSize()))

	seg := o.ring.LockNextSegment()
	verts := unsafe.Slice((*float32)(unsafe.Pointer(unsafe.SliceData(seg))), len(seg)/4)[:0]
	for _, b := range boxes[:n] {
		verts = AppendBoxLines(verts, b, color)
	}

	o.shader.Use()
	o.shader.SetMatrix4("uViewProj", &viewProj[0])
	o.ring.UnlockAndDraw(n * boxVertices)
	return n
}

// Stalls returns how often the CPU had to wait for a segment.
func (o *BoundsOverlay) Stalls() int { return o.ring.Stalls() }

func (o *BoundsOverlay) Delete() {
	o.ring.Close()
	if o.dev.vao != 0 {
		gl.DeleteVertexArrays(1, &o.dev.vao)
	}
	o.buf.Delete()
	o.shader.Delete()
}
