package culling

// Software is a Backend that runs the cull pass on the CPU with the same
// per-object test as the compute shader, and records the draws it would issue.
type Software struct {
	Records  []ObjectRecord
	Commands []DrawCommand
	Visible  []uint32
	// Drawn holds the commands consumed by the last DrawIndirect.
	Drawn []DrawCommand

	counter uint32
	pyramid *Pyramid
}

// NewSoftware returns a backend with room for capacity objects.
func NewSoftware(capacity int) *Software {
	return &Software{
		Records:  make([]ObjectRecord, capacity),
		Commands: make([]DrawCommand, capacity),
		Visible:  make([]uint32, capacity),
	}
}

func (s *Software) WriteRecord(slot int, rec ObjectRecord) { s.Records[slot] = rec }

func (s *Software) BuildHiZ(depth DepthBuffer) int {
	s.pyramid = BuildPyramid(depth.Pixels, depth.Width, depth.Height)
	if s.pyramid == nil {
		return 0
	}
	return s.pyramid.Levels()
}

func (s *Software) ReadVisibleCount() int { return int(s.counter) }

func (s *Software) ResetCounter() { s.counter = 0 }

func (s *Software) Dispatch(slots int, p FrameParams) {
	frustum := FrustumFromMatrix(p.ViewProj())
	for i := range min(slots, len(s.Records)) {
		rec := &s.Records[i]
		if !TestObject(rec, &frustum, s.pyramid, p) {
			continue
		}
		n := s.counter
		s.counter++
		s.Commands[n] = DrawCommand{
			Count:         rec.VertexCount,
			InstanceCount: 1,
			First:         rec.FirstVertex,
			BaseInstance:  uint32(i),
		}
		s.Visible[n] = uint32(i)
	}
}

func (s *Software) DrawIndirect(maxDraws int) {
	n := min(int(s.counter), maxDraws)
	s.Drawn = append(s.Drawn[:0], s.Commands[:n]...)
}

// VisibleSlots returns the slots appended by the last Dispatch.
func (s *Software) VisibleSlots() []uint32 { return s.Visible[:s.counter] }

// TestObject is the per-object visibility test of a cull pass. pyr may be nil.
func TestObject(rec *ObjectRecord, f *Frustum, pyr *Pyramid, p FrameParams) bool {
	if rec.VertexCount == 0 {
		return false
	}
	if !f.ContainsAABB(rec.Bounds) {
		return false
	}
	if p.Occlusion && pyr != nil && pyr.Occluded(rec.Bounds, p.PrevViewProj, p.Near, p.Far) {
		return false
	}
	return true
}
