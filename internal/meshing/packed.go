package meshing

// Normal indexes the six face directions.
type Normal uint8

const (
	NormalPosX Normal = iota
	NormalNegX
	NormalPosY
	NormalNegY
	NormalPosZ
	NormalNegZ
)

// Packed vertex layout (one uint32 per vertex):
//
//	bits  0-5   x (0..32)
//	bits  6-11  y (0..32)
//	bits 12-17  z (0..32)
//	bits 18-20  normal index
//	bits 21-31  texture layer
const (
	posBits      = 6
	posMask      = 1<<posBits - 1
	normalShift  = 18
	normalMask   = 0x7
	textureShift = 21
	// MaxTexture is the largest texture layer a packed vertex can carry.
	MaxTexture = 1<<11 - 1
)

// VertexBytes is the size of one packed vertex.
const VertexBytes = 4

// PackVertex encodes a chunk-local corner position, face normal and texture layer.
func PackVertex(x, y, z int, n Normal, texture int) uint32 {
	return uint32(x&posMask) |
		uint32(y&posMask)<<posBits |
		uint32(z&posMask)<<(2*posBits) |
		uint32(n&normalMask)<<normalShift |
		uint32(texture&MaxTexture)<<textureShift
}

// UnpackVertex is the inverse of PackVertex.
func UnpackVertex(v uint32) (x, y, z int, n Normal, texture int) {
	x = int(v & posMask)
	y = int(v >> posBits & posMask)
	z = int(v >> (2 * posBits) & posMask)
	n = Normal(v >> normalShift & normalMask)
	texture = int(v >> textureShift)
	return
}

// TextureFor maps a solid material to its texture layer.
func TextureFor(m Material) int {
	if m == Empty {
		return 0
	}
	return min(int(m)-1, MaxTexture)
}
