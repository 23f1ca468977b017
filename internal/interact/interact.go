package interact

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/voxellab/cubeland/internal/block"
	"github.com/voxellab/cubeland/internal/vec"
	"github.com/voxellab/cubeland/internal/world"
)

// DefaultReach is how far (in blocks) the player can target.
const DefaultReach = 8.0

// System casts interaction rays from the camera and edits the world.
type System struct {
	world *world.World
	reach float32

	// blocked vetoes placement cells, used to keep blocks out of the
	// player capsule. Nil allows everything.
	blocked func(p vec.Vec3) bool
}

func NewSystem(w *world.World, reach float32) *System {
	if reach <= 0 {
		reach = DefaultReach
	}
	return &System{world: w, reach: reach}
}

// SetPlacementVeto installs the placement veto predicate.
func (s *System) SetPlacementVeto(blocked func(p vec.Vec3) bool) {
	s.blocked = blocked
}

// Target returns the block the ray from origin along dir first strikes.
func (s *System) Target(origin, dir mgl32.Vec3) (Hit, bool) {
	return castRay(s.world.GetBlock, origin, dir, s.reach)
}

// PlaceBlock inserts id into the empty cell adjacent to the struck face.
// It is a silent no-op when nothing is targeted, the cell is occupied,
// vetoed, or its chunk is not Ready.
func (s *System) PlaceBlock(origin, dir mgl32.Vec3, id block.ID) bool {
	hit, ok := s.Target(origin, dir)
	if !ok {
		return false
	}
	target := hit.Prev
	if !block.IsAir(s.world.GetBlock(target)) {
		return false
	}
	if s.blocked != nil && s.blocked(target) {
		return false
	}
	if s.world.State(target.Chunk()) != world.Ready {
		return false
	}
	s.world.SetBlock(target, id)
	return true
}

// BreakBlock removes the struck block, returning its coordinate.
func (s *System) BreakBlock(origin, dir mgl32.Vec3) (vec.Vec3, bool) {
	hit, ok := s.Target(origin, dir)
	if !ok {
		return vec.Vec3{}, false
	}
	if s.world.State(hit.Block.Chunk()) != world.Ready {
		return vec.Vec3{}, false
	}
	s.world.SetBlock(hit.Block, block.Air)
	return hit.Block, true
}
