package culling

import (
	"log/slog"
)

// Culler maps object keys to slots of a fixed-capacity object table and
// drives the cull and draw passes of its Backend. It is owned by the render
// thread.
type Culler struct {
	backend  Backend
	capacity int
	log      *slog.Logger

	slots     map[int64]int
	free      []int
	highWater int

	hizLevels int
	visible   int
}

// New creates a culler with room for capacity objects.
func New(backend Backend, capacity int, logger *slog.Logger) *Culler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Culler{
		backend:  backend,
		capacity: capacity,
		log:      logger,
		slots:    make(map[int64]int),
	}
}

// AddOrUpdateChunk writes rec for key, reusing the key's slot if it already
// has one. It returns false when the table is full.
func (c *Culler) AddOrUpdateChunk(key int64, rec ObjectRecord) bool {
	slot, ok := c.slots[key]
	if !ok {
		switch {
		case len(c.free) > 0:
			slot = c.free[len(c.free)-1]
			c.free = c.free[:len(c.free)-1]
		case c.highWater < c.capacity:
			slot = c.highWater
			c.highWater++
		default:
			c.log.Warn("object table full", "capacity", c.capacity)
			return false
		}
		c.slots[key] = slot
	}
	c.backend.WriteRecord(slot, rec)
	return true
}

// RemoveChunk disables the record of key and frees its slot. The next
// AddOrUpdateChunk that takes the slot overwrites the whole record.
func (c *Culler) RemoveChunk(key int64) {
	slot, ok := c.slots[key]
	if !ok {
		return
	}
	delete(c.slots, key)
	c.backend.WriteRecord(slot, ObjectRecord{})
	c.free = append(c.free, slot)
}

// GenerateHiZ rebuilds the depth pyramid from last frame's depth buffer.
// Occlusion stays disabled until a pyramid exists.
func (c *Culler) GenerateHiZ(depth DepthBuffer) {
	if depth.Width <= 0 || depth.Height <= 0 {
		c.hizLevels = 0
		return
	}
	c.hizLevels = c.backend.BuildHiZ(depth)
}

// Cull tests every live slot against the frame. The visible count of the
// previous pass is read back first, so this frame never waits on its own
// dispatch.
func (c *Culler) Cull(p FrameParams) {
	c.visible = c.backend.ReadVisibleCount()
	c.backend.ResetCounter()
	if c.hizLevels == 0 {
		p.Occlusion = false
	}
	if c.highWater == 0 {
		return
	}
	c.backend.Dispatch(c.highWater, p)
}

// DrawIndirect issues the single multi-draw for the survivors of Cull.
func (c *Culler) DrawIndirect() {
	if c.highWater == 0 {
		return
	}
	c.backend.DrawIndirect(c.highWater)
}

// VisibleCount returns the number of objects that survived the previous
// cull pass.
func (c *Culler) VisibleCount() int { return c.visible }

// Len returns the number of live objects.
func (c *Culler) Len() int { return len(c.slots) }

// Capacity returns the size of the object table.
func (c *Culler) Capacity() int { return c.capacity }

// HighWater returns the number of slots a dispatch covers.
func (c *Culler) HighWater() int { return c.highWater }

// Slot returns the slot assigned to key.
func (c *Culler) Slot(key int64) (int, bool) {
	s, ok := c.slots[key]
	return s, ok
}

// HiZLevels returns the level count of the current pyramid, 0 if none.
func (c *Culler) HiZLevels() int { return c.hizLevels }
