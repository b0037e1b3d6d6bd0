package meshing

import (
	"math/bits"

	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/memory"
)

const (
	// VerticesPerQuad is two triangles, no index buffer.
	VerticesPerQuad = 6

	interiorMask = 1<<ChunkSize - 1
)

// WorstCaseVertices is the vertex count of a 3-D checkerboard, the most
// faces a single chunk can expose.
const WorstCaseVertices = ChunkSize * ChunkSize * ChunkSize / 2 * 6 * VerticesPerQuad

// columns holds, for each axis, one occupancy word per (u, v) column of the
// padded volume. Bit i is set when the voxel at padded coordinate i along the
// axis is solid. For axis d the in-plane axes are u = (d+1)%3, v = (d+2)%3.
type columns [3][PaddedSize * PaddedSize]uint64

// faceMasks holds one 32-bit row per (slice, row) for a single direction.
// Bit c of faces[slice][row] is an exposed face at (slice, row, c).
type faceMasks [ChunkSize][ChunkSize]uint32

func buildColumns(vol *Volume, cols *columns) {
	for py := range PaddedSize {
		for pz := range PaddedSize {
			base := (py*PaddedSize + pz) * PaddedSize
			for px := range PaddedSize {
				if vol.cells[base+px] == Empty {
					continue
				}
				cols[0][py*PaddedSize+pz] |= 1 << px
				cols[1][pz*PaddedSize+px] |= 1 << py
				cols[2][px*PaddedSize+py] |= 1 << pz
			}
		}
	}
}

// exposed returns the interior faces of one column facing the given sign:
// bit k is set when voxel k is solid and its neighbour k+sign is empty.
func exposed(col uint64, positive bool) uint32 {
	var f uint64
	if positive {
		f = col &^ (col >> 1)
	} else {
		f = col &^ (col << 1)
	}
	return uint32(f>>1) & interiorMask
}

func buildFaceMasks(cols *columns, axis int, positive bool, out *faceMasks) int {
	*out = faceMasks{}
	total := 0
	for u := range ChunkSize {
		for v := range ChunkSize {
			f := exposed(cols[axis][(u+1)*PaddedSize+(v+1)], positive)
			total += bits.OnesCount32(f)
			for f != 0 {
				k := bits.TrailingZeros32(f)
				f &= f - 1
				out[k][v] |= 1 << u
			}
		}
	}
	return total
}

// toXYZ maps (axis coordinate, u, v) back to x, y, z.
func toXYZ(axis, d, u, v int) (int, int, int) {
	switch axis {
	case 0:
		return d, u, v
	case 1:
		return v, d, u
	default:
		return u, v, d
	}
}

// ExposedFaces counts the unit faces the extractor would emit before merging.
func ExposedFaces(vol *Volume) int {
	var cols columns
	var masks faceMasks
	buildColumns(vol, &cols)
	n := 0
	for axis := range 3 {
		n += buildFaceMasks(&cols, axis, true, &masks)
		n += buildFaceMasks(&cols, axis, false, &masks)
	}
	return n
}

// Extractor turns padded volumes into packed vertex streams. Its scratch
// masks are reused between calls, so one Extractor belongs to one worker.
type Extractor struct {
	cols  columns
	masks faceMasks
}

// Extract appends the greedy-merged surface of vol to out and returns the
// vertices written by this call. ok is false when out ran out of room; the
// partial output must be discarded.
func (e *Extractor) Extract(vol *Volume, out *memory.Linear[uint32]) (vertices []uint32, ok bool) {
	start := out.Len()
	e.cols = columns{}
	buildColumns(vol, &e.cols)

	for axis := range 3 {
		for _, positive := range [2]bool{true, false} {
			buildFaceMasks(&e.cols, axis, positive, &e.masks)
			if !e.mergeDirection(vol, axis, positive, out) {
				return nil, false
			}
		}
	}
	return out.Used()[start:], true
}

// Extract is a convenience wrapper that allocates its own scratch space.
func Extract(vol *Volume) []uint32 {
	var e Extractor
	out := memory.NewLinear[uint32](WorstCaseVertices)
	verts, _ := e.Extract(vol, out)
	return append([]uint32(nil), verts...)
}

// mergeDirection greedily merges every slice of one face direction into
// rectangles: a run along the row is found from the lowest set bit, then grown
// across following rows while they hold the same run of the same material.
func (e *Extractor) mergeDirection(vol *Volume, axis int, positive bool, out *memory.Linear[uint32]) bool {
	n := Normal(axis * 2)
	if !positive {
		n++
	}

	material := func(slice, u, v int) Material {
		x, y, z := toXYZ(axis, slice, u, v)
		return vol.At(x, y, z)
	}

	for slice := range ChunkSize {
		rows := &e.masks[slice]
		for v := range ChunkSize {
			for rows[v] != 0 {
				u0 := bits.TrailingZeros32(rows[v])
				m := material(slice, u0, v)

				// width: contiguous set bits, cut at the first material change
				w := bits.TrailingZeros32(^(rows[v] >> u0))
				for i := 1; i < w; i++ {
					if material(slice, u0+i, v) != m {
						w = i
						break
					}
				}
				run := uint32((uint64(1)<<w - 1) << u0)
				rows[v] &^= run

				// height: following rows must contain the whole run
				h := 1
			grow:
				for v+h < ChunkSize && rows[v+h]&run == run {
					for i := range w {
						if material(slice, u0+i, v+h) != m {
							break grow
						}
					}
					rows[v+h] &^= run
					h++
				}

				if !emitQuad(out, axis, positive, slice, u0, v, w, h, n, TextureFor(m)) {
					return false
				}
			}
		}
	}
	return true
}

// emitQuad writes two triangles. With u x v pointing along the axis, the
// corner order c0,c1,c2,c3 is counter-clockwise seen from the positive side,
// so negative faces use the reverse order.
func emitQuad(out *memory.Linear[uint32], axis int, positive bool, slice, u0, v0, w, h int, n Normal, tex int) bool {
	dst := out.Allocate(VerticesPerQuad)
	if dst == nil {
		return false
	}

	d := slice
	if positive {
		d = slice + 1
	}
	u1, v1 := u0+w, v0+h

	corner := func(u, v int) uint32 {
		x, y, z := toXYZ(axis, d, u, v)
		return PackVertex(x, y, z, n, tex)
	}
	c0 := corner(u0, v0)
	c1 := corner(u1, v0)
	c2 := corner(u1, v1)
	c3 := corner(u0, v1)

	if positive {
		dst[0], dst[1], dst[2] = c0, c1, c2
		dst[3], dst[4], dst[5] = c2, c3, c0
	} else {
		dst[0], dst[1], dst[2] = c0, c3, c2
		dst[3], dst[4], dst[5] = c2, c1, c0
	}
	return true
}
