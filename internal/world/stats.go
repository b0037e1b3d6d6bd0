package world

// Stats is a snapshot of the pipeline for the debug overlay.
type Stats struct {
	Loaded  int
	ByState [numStates]int

	PendingCompletions int
	DeferredUploads    int
	UploadStalls       int64

	Generated int64
	Meshed    int64
	Uploaded  int64
	Discarded int64

	NodesInUse   int
	VolumesInUse int
	Vertices     int64
}

// Count returns the number of loaded chunks in the given state.
func (s Stats) Count(state State) int {
	if state < 0 || state >= numStates {
		return 0
	}
	return s.ByState[state]
}

// Stats is safe to call from any goroutine.
func (c *Coordinator) Stats() Stats {
	var s Stats
	c.mu.RLock()
	s.Loaded = len(c.chunks)
	for _, ch := range c.chunks {
		s.ByState[ch.State()]++
	}
	c.mu.RUnlock()

	c.doneMu.Lock()
	s.PendingCompletions = len(c.done)
	c.doneMu.Unlock()

	s.DeferredUploads = int(c.pendingUploads.Load())
	s.UploadStalls = c.uploadStalls.Load()
	s.Generated = c.generated.Load()
	s.Meshed = c.meshed.Load()
	s.Uploaded = c.uploaded.Load()
	s.Discarded = c.discarded.Load()
	s.NodesInUse = c.nodes.InUse()
	s.VolumesInUse = c.volumes.InUse()
	s.Vertices = c.vertices.Load()
	return s
}

// ChunkInfo reports the state and uploaded vertex count of a loaded chunk.
func (c *Coordinator) ChunkInfo(coord ChunkCoord) (state State, vertices int, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.chunks[coord]
	if !ok {
		return Missing, 0, false
	}
	return ch.State(), ch.VertexCount(), true
}
