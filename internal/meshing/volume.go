package meshing

const (
	// ChunkSize is the edge length of a chunk in voxels. One row of a chunk
	// fits a uint32 occupancy word.
	ChunkSize = 32
	// PaddedSize adds a one-voxel border on every side.
	PaddedSize = ChunkSize + 2

	volumeLen = PaddedSize * PaddedSize * PaddedSize
)

// Material is a voxel material ID. Zero is empty space.
type Material uint16

// Empty is the material of air.
const Empty Material = 0

// Volume is a chunk's voxels plus a one-voxel border copied from the
// neighbours, so face tests at the chunk edge never leave the array.
// Coordinates are chunk-local and range over [-1, ChunkSize].
type Volume struct {
	cells [volumeLen]Material
}

func index(x, y, z int) int {
	return ((y+1)*PaddedSize+(z+1))*PaddedSize + (x + 1)
}

// InBounds reports whether (x, y, z) lies inside the padded volume.
func InBounds(x, y, z int) bool {
	return x >= -1 && x <= ChunkSize && y >= -1 && y <= ChunkSize && z >= -1 && z <= ChunkSize
}

// At returns the material at local coordinates, padding included.
func (v *Volume) At(x, y, z int) Material {
	return v.cells[index(x, y, z)]
}

// Set stores m at local coordinates, padding included.
func (v *Volume) Set(x, y, z int, m Material) {
	v.cells[index(x, y, z)] = m
}

// Clear empties the whole volume.
func (v *Volume) Clear() {
	clear(v.cells[:])
}

// SolidCount returns the number of non-empty voxels inside the chunk proper.
func (v *Volume) SolidCount() int {
	n := 0
	for y := range ChunkSize {
		for z := range ChunkSize {
			row := v.cells[index(0, y, z) : index(0, y, z)+ChunkSize]
			for _, m := range row {
				if m != Empty {
					n++
				}
			}
		}
	}
	return n
}
