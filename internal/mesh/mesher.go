// Package mesh turns chunk block data into renderable face geometry.
// Meshing is CPU-only here; GPU upload happens in internal/render so that
// meshing stays testable without a GL context.
package mesh

import (
	"sync"

	"github.com/voxellab/cubeland/internal/block"
	"github.com/voxellab/cubeland/internal/vec"
)

// BlockSource answers block queries during meshing. World implements it.
// Queries must be total: unloaded coordinates read as air.
type BlockSource interface {
	BlockAt(p vec.Vec3) block.ID
	// ChunkReady reports whether the chunk at coordinate c holds real
	// block data. Boundaries against not-ready chunks are treated as
	// solid so no premature holes are emitted.
	ChunkReady(c vec.Vec3) bool
}

// ChunkMesh is the rebuilt-wholesale geometry for one chunk, split into
// the two draw passes. Vertex layout is pos(3) tex(2) normal(3).
type ChunkMesh struct {
	Coord    vec.Vec3
	Revision uint64

	Opaque      []float32
	Transparent []float32
}

func (m *ChunkMesh) OpaqueFaces() int      { return len(m.Opaque) / FloatsPerFace }
func (m *ChunkMesh) TransparentFaces() int { return len(m.Transparent) / FloatsPerFace }

// Empty reports whether the mesh has no geometry at all.
func (m *ChunkMesh) Empty() bool {
	return len(m.Opaque) == 0 && len(m.Transparent) == 0
}

// Mesher builds chunk meshes. Safe for concurrent use; scratch buffers are
// pooled across builds.
type Mesher struct {
	pool sync.Pool
}

func NewMesher() *Mesher {
	return &Mesher{
		pool: sync.Pool{
			New: func() interface{} {
				return make([]float32, 0, FloatsPerFace*6*64)
			},
		},
	}
}

// Build meshes the chunk at coordinate c. It emits a face wherever a
// non-air block borders a cell that does not occlude it; faces of opaque
// blocks go to the opaque group, everything else to the transparent group.
// Identical inputs produce identical meshes.
func (m *Mesher) Build(src BlockSource, c vec.Vec3) *ChunkMesh {
	opaque := m.pool.Get().([]float32)[:0]
	transparent := m.pool.Get().([]float32)[:0]

	origin := vec.Origin(c)
	for dy := 0; dy < vec.ChunkSize; dy++ {
		for dz := 0; dz < vec.ChunkSize; dz++ {
			for dx := 0; dx < vec.ChunkSize; dx++ {
				p := vec.Vec3{X: origin.X + dx, Y: origin.Y + dy, Z: origin.Z + dz}
				id := src.BlockAt(p)
				if block.IsAir(id) {
					continue
				}
				b := block.Get(id)
				if b.Cross {
					transparent = appendCross(transparent, p, b.Tex)
					continue
				}
				show := m.visibleFaces(src, c, p, id)
				if block.IsOpaque(id) {
					opaque = appendCube(opaque, show, p, b.Tex)
				} else {
					transparent = appendCube(transparent, show, p, b.Tex)
				}
			}
		}
	}

	out := &ChunkMesh{
		Coord:       c,
		Opaque:      append([]float32(nil), opaque...),
		Transparent: append([]float32(nil), transparent...),
	}
	m.pool.Put(opaque[:0])
	m.pool.Put(transparent[:0])
	return out
}

// visibleFaces computes the six-face visibility mask for the block at p.
func (m *Mesher) visibleFaces(src BlockSource, c vec.Vec3, p vec.Vec3, id block.ID) [6]bool {
	var show [6]bool
	for i, n := range p.Neighbors() {
		show[i] = m.faceVisible(src, c, n, id)
	}
	return show
}

func (m *Mesher) faceVisible(src BlockSource, c, neighbor vec.Vec3, self block.ID) bool {
	if nc := neighbor.Chunk(); nc != c && !src.ChunkReady(nc) {
		// Not-ready neighbor: treat the boundary as solid. The chunk is
		// re-marked dirty when the neighbor becomes ready.
		return false
	}
	nb := src.BlockAt(neighbor)
	if block.IsOpaque(self) {
		return block.IsTransparent(nb)
	}
	// Transparent blocks always render against other transparent blocks
	// and only cull against fully opaque neighbors.
	return !block.IsOpaque(nb)
}
