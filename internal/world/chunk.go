package world

import (
	"log"

	"github.com/voxellab/cubeland/internal/block"
	"github.com/voxellab/cubeland/internal/mesh"
	"github.com/voxellab/cubeland/internal/vec"
)

// LoadState tracks where a chunk is in its load/unload lifecycle.
type LoadState int

const (
	Unloaded LoadState = iota
	Loading
	Ready
)

func (s LoadState) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "invalid"
	}
}

// Chunk is a dense 16x16x16 region of blocks, the unit of loading,
// meshing and unloading. All access goes through World; a chunk never
// reads its neighbors directly.
type Chunk struct {
	coord  vec.Vec3
	blocks [vec.ChunkVolume]block.ID

	// revision bumps on every real write; the mesh slot records which
	// revision it was built from.
	revision uint64
	// modified marks unsaved edits that must be flushed before eviction.
	modified bool

	mesh *mesh.ChunkMesh
}

func newChunk(coord vec.Vec3, blocks *[vec.ChunkVolume]block.ID) *Chunk {
	c := &Chunk{coord: coord, revision: 1}
	if blocks != nil {
		c.blocks = *blocks
	}
	return c
}

func (c *Chunk) Coord() vec.Vec3  { return c.coord }
func (c *Chunk) Revision() uint64 { return c.revision }
func (c *Chunk) Modified() bool   { return c.modified }

// Block returns the block at a local coordinate. Out-of-range locals are a
// programming error: global queries must go through World.
func (c *Chunk) Block(local vec.Vec3) block.ID {
	if !inBounds(local) {
		log.Panicf("local coordinate %v out of chunk bounds", local)
	}
	return c.blocks[vec.Index(local)]
}

// set writes a block and reports whether the value actually changed.
func (c *Chunk) set(local vec.Vec3, id block.ID) bool {
	if !inBounds(local) {
		log.Panicf("local coordinate %v out of chunk bounds", local)
	}
	i := vec.Index(local)
	if c.blocks[i] == id {
		return false
	}
	c.blocks[i] = id
	c.revision++
	c.modified = true
	return true
}

// Snapshot copies the block array, for persistence or background meshing.
func (c *Chunk) Snapshot() *[vec.ChunkVolume]block.ID {
	blocks := c.blocks
	return &blocks
}

// Mesh returns the chunk's current geometry, nil until first meshed.
func (c *Chunk) Mesh() *mesh.ChunkMesh { return c.mesh }

// SetMesh replaces the chunk's geometry wholesale.
func (c *Chunk) SetMesh(m *mesh.ChunkMesh) { c.mesh = m }

// MeshCurrent reports whether the mesh slot reflects the latest revision.
func (c *Chunk) MeshCurrent() bool {
	return c.mesh != nil && c.mesh.Revision == c.revision
}

func inBounds(l vec.Vec3) bool {
	return l.X >= 0 && l.X < vec.ChunkSize &&
		l.Y >= 0 && l.Y < vec.ChunkSize &&
		l.Z >= 0 && l.Z < vec.ChunkSize
}
