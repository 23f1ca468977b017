// Package vec provides integer voxel coordinates and the global/chunk/local
// coordinate mapping used everywhere else.
package vec

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// ChunkSize is the edge length of a cubic chunk in blocks.
	ChunkSize = 16
	// ChunkVolume is the number of blocks in one chunk.
	ChunkVolume = ChunkSize * ChunkSize * ChunkSize

	shiftZ = 4
	shiftY = 8
	mask   = ChunkSize - 1
)

// Vec3 is an integer block or chunk coordinate.
type Vec3 struct {
	X, Y, Z int
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z)
}

func (v Vec3) Left() Vec3  { return Vec3{v.X - 1, v.Y, v.Z} }
func (v Vec3) Right() Vec3 { return Vec3{v.X + 1, v.Y, v.Z} }
func (v Vec3) Up() Vec3    { return Vec3{v.X, v.Y + 1, v.Z} }
func (v Vec3) Down() Vec3  { return Vec3{v.X, v.Y - 1, v.Z} }
func (v Vec3) Front() Vec3 { return Vec3{v.X, v.Y, v.Z + 1} }
func (v Vec3) Back() Vec3  { return Vec3{v.X, v.Y, v.Z - 1} }

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Neighbors returns the six face-adjacent coordinates.
func (v Vec3) Neighbors() [6]Vec3 {
	return [6]Vec3{v.Left(), v.Right(), v.Up(), v.Down(), v.Front(), v.Back()}
}

// DistSq is the squared euclidean distance to o.
func (v Vec3) DistSq(o Vec3) int {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return dx*dx + dy*dy + dz*dz
}

// Chunk returns the coordinate of the chunk containing this block.
func (v Vec3) Chunk() Vec3 {
	return Vec3{
		floorDiv(v.X, ChunkSize),
		floorDiv(v.Y, ChunkSize),
		floorDiv(v.Z, ChunkSize),
	}
}

// Local returns the block's coordinate inside its chunk, each component
// in [0, ChunkSize).
func (v Vec3) Local() Vec3 {
	return Vec3{mod(v.X), mod(v.Y), mod(v.Z)}
}

// Global recomposes a (chunk, local) pair into a global block coordinate.
func Global(chunk, local Vec3) Vec3 {
	return Vec3{
		chunk.X*ChunkSize + local.X,
		chunk.Y*ChunkSize + local.Y,
		chunk.Z*ChunkSize + local.Z,
	}
}

// Origin returns the global coordinate of a chunk's (0,0,0) block.
func Origin(chunk Vec3) Vec3 {
	return Vec3{chunk.X * ChunkSize, chunk.Y * ChunkSize, chunk.Z * ChunkSize}
}

// Index converts a local coordinate into the linear array index
// x | z<<4 | y<<8. The packing is part of the persistence format and
// must not change.
func Index(local Vec3) int {
	return local.X | local.Z<<shiftZ | local.Y<<shiftY
}

// Unindex is the inverse of Index.
func Unindex(i int) Vec3 {
	return Vec3{i & mask, i >> shiftY & mask, i >> shiftZ & mask}
}

// Near returns the block whose unit cube contains pos. Blocks are centered
// on integer coordinates, so this is a componentwise round.
func Near(pos mgl32.Vec3) Vec3 {
	return Vec3{
		int(math.Round(float64(pos.X()))),
		int(math.Round(float64(pos.Y()))),
		int(math.Round(float64(pos.Z()))),
	}
}

// Float converts a block coordinate to its center position.
func (v Vec3) Float() mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

func floorDiv(a, n int) int {
	q := a / n
	if a%n != 0 && (a < 0) != (n < 0) {
		q--
	}
	return q
}

func mod(a int) int {
	m := a % ChunkSize
	if m < 0 {
		m += ChunkSize
	}
	return m
}
