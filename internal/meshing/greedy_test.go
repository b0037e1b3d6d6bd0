package meshing

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/memory"
)

const grass Material = 1

func solidCube(m Material) *Volume {
	vol := &Volume{}
	for x := range ChunkSize {
		for y := range ChunkSize {
			for z := range ChunkSize {
				vol.Set(x, y, z, m)
			}
		}
	}
	return vol
}

func TestSingleBlockMesh(t *testing.T) {
	vol := &Volume{}
	vol.Set(0, 0, 0, grass)
	verts := Extract(vol)
	if len(verts) != 6*VerticesPerQuad {
		t.Fatalf("single block: got %d vertices, want %d", len(verts), 6*VerticesPerQuad)
	}
}

func TestTwoBlocksSeparated(t *testing.T) {
	vol := &Volume{}
	vol.Set(0, 0, 0, grass)
	vol.Set(2, 0, 0, grass)
	verts := Extract(vol)
	if len(verts) != 12*VerticesPerQuad {
		t.Fatalf("two separated blocks: got %d vertices, want %d", len(verts), 12*VerticesPerQuad)
	}
}

func TestTwoBlocksTouchingGreedy(t *testing.T) {
	vol := &Volume{}
	vol.Set(0, 0, 0, grass)
	vol.Set(1, 0, 0, grass)
	verts := Extract(vol)
	// Union is a 2x1x1 cuboid => 6 rectangles
	if len(verts) != 6*VerticesPerQuad {
		t.Fatalf("two touching blocks: got %d vertices, want %d", len(verts), 6*VerticesPerQuad)
	}
}

func TestDifferentMaterialsDoNotMerge(t *testing.T) {
	vol := &Volume{}
	vol.Set(0, 0, 0, grass)
	vol.Set(1, 0, 0, grass+1)
	verts := Extract(vol)
	// two end caps plus 4 sides split in two
	if len(verts) != 10*VerticesPerQuad {
		t.Fatalf("mixed materials: got %d vertices, want %d", len(verts), 10*VerticesPerQuad)
	}
}

func TestPaddingHidesBoundaryFace(t *testing.T) {
	vol := &Volume{}
	vol.Set(ChunkSize-1, 0, 0, grass)
	vol.Set(ChunkSize, 0, 0, grass) // neighbour chunk, in the padding
	verts := Extract(vol)
	if len(verts) != 5*VerticesPerQuad {
		t.Fatalf("padding neighbour: got %d vertices, want %d", len(verts), 5*VerticesPerQuad)
	}
}

func TestPaddingVoxelsEmitNothing(t *testing.T) {
	vol := &Volume{}
	vol.Set(-1, 5, 5, grass)
	vol.Set(ChunkSize, ChunkSize, ChunkSize, grass)
	if verts := Extract(vol); len(verts) != 0 {
		t.Fatalf("padding-only volume produced %d vertices", len(verts))
	}
}

func TestSolidChunkFaces(t *testing.T) {
	vol := solidCube(grass)

	if got, want := ExposedFaces(vol), 6*ChunkSize*ChunkSize; got != want {
		t.Fatalf("exposed faces before merging = %d, want %d", got, want)
	}

	verts := Extract(vol)
	if len(verts) != 6*VerticesPerQuad {
		t.Fatalf("solid chunk: got %d vertices, want one rectangle per face (%d)", len(verts), 6*VerticesPerQuad)
	}

	// every face must span the whole chunk
	for i := 0; i < len(verts); i += VerticesPerQuad {
		minX, minY, minZ := ChunkSize, ChunkSize, ChunkSize
		maxX, maxY, maxZ := 0, 0, 0
		for _, v := range verts[i : i+VerticesPerQuad] {
			x, y, z, _, _ := UnpackVertex(v)
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
			minZ, maxZ = min(minZ, z), max(maxZ, z)
		}
		spans := 0
		for _, s := range []int{maxX - minX, maxY - minY, maxZ - minZ} {
			if s == ChunkSize {
				spans++
			}
		}
		if spans != 2 {
			t.Fatalf("quad %d does not cover a whole chunk face: (%d,%d,%d)-(%d,%d,%d)",
				i/VerticesPerQuad, minX, minY, minZ, maxX, maxY, maxZ)
		}
	}
}

func TestSolidChunkSurroundedBySolidPadding(t *testing.T) {
	vol := &Volume{}
	for x := -1; x <= ChunkSize; x++ {
		for y := -1; y <= ChunkSize; y++ {
			for z := -1; z <= ChunkSize; z++ {
				vol.Set(x, y, z, grass)
			}
		}
	}
	if verts := Extract(vol); len(verts) != 0 {
		t.Fatalf("buried chunk produced %d vertices", len(verts))
	}
}

func TestWindingMatchesNormal(t *testing.T) {
	vol := &Volume{}
	vol.Set(3, 4, 5, grass)
	vol.Set(10, 10, 10, grass)
	vol.Set(11, 10, 10, grass)
	verts := Extract(vol)

	dirs := [6][3]int{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
	for i := 0; i < len(verts); i += 3 {
		ax, ay, az, n, _ := UnpackVertex(verts[i])
		bx, by, bz, _, _ := UnpackVertex(verts[i+1])
		cx, cy, cz, _, _ := UnpackVertex(verts[i+2])
		e1 := [3]int{bx - ax, by - ay, bz - az}
		e2 := [3]int{cx - ax, cy - ay, cz - az}
		cross := [3]int{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}
		d := dirs[n]
		dot := cross[0]*d[0] + cross[1]*d[1] + cross[2]*d[2]
		if dot <= 0 {
			t.Fatalf("triangle %d winds against its normal %d (cross %v)", i/3, n, cross)
		}
	}
}

func TestTextureComesFromSolidVoxel(t *testing.T) {
	vol := &Volume{}
	vol.Set(0, 0, 0, 7)
	for _, v := range Extract(vol) {
		if _, _, _, _, tex := UnpackVertex(v); tex != TextureFor(7) {
			t.Fatalf("texture = %d, want %d", tex, TextureFor(7))
		}
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	vol := &Volume{}
	for x := -1; x <= ChunkSize; x++ {
		for y := -1; y <= ChunkSize; y++ {
			for z := -1; z <= ChunkSize; z++ {
				if rng.Intn(3) == 0 {
					vol.Set(x, y, z, Material(1+rng.Intn(4)))
				}
			}
		}
	}

	var e Extractor
	out := memory.NewLinear[uint32](WorstCaseVertices)
	first, ok := e.Extract(vol, out)
	if !ok {
		t.Fatal("first extraction overflowed")
	}
	first = slices.Clone(first)

	out.Reset()
	second, ok := e.Extract(vol, out)
	if !ok {
		t.Fatal("second extraction overflowed")
	}
	if !slices.Equal(first, second) {
		t.Fatalf("extraction is not repeatable: %d vs %d vertices", len(first), len(second))
	}
}

func TestExtractReportsExhaustedScratch(t *testing.T) {
	vol := &Volume{}
	vol.Set(0, 0, 0, grass)
	var e Extractor
	out := memory.NewLinear[uint32](5 * VerticesPerQuad)
	if verts, ok := e.Extract(vol, out); ok || verts != nil {
		t.Fatalf("expected exhaustion, got ok=%v with %d vertices", ok, len(verts))
	}
}

func TestExtractAppendsAfterExistingScratch(t *testing.T) {
	vol := &Volume{}
	vol.Set(0, 0, 0, grass)
	var e Extractor
	out := memory.NewLinear[uint32](100)
	out.Allocate(10)
	verts, ok := e.Extract(vol, out)
	if !ok || len(verts) != 6*VerticesPerQuad {
		t.Fatalf("got ok=%v len=%d", ok, len(verts))
	}
	if out.Len() != 10+6*VerticesPerQuad {
		t.Fatalf("cursor = %d", out.Len())
	}
}

func TestWorstCaseCheckerboardFits(t *testing.T) {
	vol := &Volume{}
	for x := range ChunkSize {
		for y := range ChunkSize {
			for z := range ChunkSize {
				if (x+y+z)%2 == 0 {
					vol.Set(x, y, z, grass)
				}
			}
		}
	}
	if got := len(Extract(vol)); got != WorstCaseVertices {
		t.Fatalf("checkerboard: got %d vertices, want %d", got, WorstCaseVertices)
	}
}

func BenchmarkExtractTerrainLike(b *testing.B) {
	vol := &Volume{}
	for x := -1; x <= ChunkSize; x++ {
		for z := -1; z <= ChunkSize; z++ {
			h := 8 + (x*3+z*5)%12
			for y := -1; y < h; y++ {
				vol.Set(x, y, z, grass)
			}
		}
	}
	var e Extractor
	out := memory.NewLinear[uint32](WorstCaseVertices)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out.Reset()
		e.Extract(vol, out)
	}
}
