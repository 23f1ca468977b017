// Package interact finds the block the player is aiming at and applies
// place/break edits. All mutation goes through World.SetBlock, inheriting
// its dirty-marking contract.
package interact

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/voxellab/cubeland/internal/block"
	"github.com/voxellab/cubeland/internal/vec"
)

// Hit describes the first non-air block along a ray.
type Hit struct {
	// Block is the struck cell.
	Block vec.Vec3
	// Prev is the empty cell the ray passed through just before the
	// strike; placements go here.
	Prev vec.Vec3
	// Normal is the unit normal of the struck face, Prev - Block.
	Normal vec.Vec3
}

// blockFunc answers block queries during traversal.
type blockFunc func(p vec.Vec3) block.ID

// castRay walks the voxel grid cell by cell (Amanatides-Woo traversal)
// from origin along dir, up to maxDist, and returns the first non-air
// cell. Cells are unit cubes centered on integer coordinates, so the
// boundary planes sit at half-integers.
func castRay(get blockFunc, origin, dir mgl32.Vec3, maxDist float32) (Hit, bool) {
	cell := vec.Near(origin)
	if !block.IsAir(get(cell)) {
		// Starting inside a block: nothing sensible to target.
		return Hit{}, false
	}

	var (
		step   vec.Vec3
		tMax   mgl32.Vec3
		tDelta mgl32.Vec3
	)
	for axis := 0; axis < 3; axis++ {
		d := dir[axis]
		switch {
		case d > 0:
			setAxis(&step, axis, 1)
			tMax[axis] = (float32(axisOf(cell, axis)) + 0.5 - origin[axis]) / d
			tDelta[axis] = 1 / d
		case d < 0:
			setAxis(&step, axis, -1)
			tMax[axis] = (float32(axisOf(cell, axis)) - 0.5 - origin[axis]) / d
			tDelta[axis] = -1 / d
		default:
			tMax[axis] = float32(math.Inf(1))
			tDelta[axis] = float32(math.Inf(1))
		}
	}

	prev := cell
	for {
		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}
		if tMax[axis] > maxDist {
			return Hit{}, false
		}
		tMax[axis] += tDelta[axis]

		prev = cell
		cell = addAxis(cell, axis, axisOf(step, axis))

		if !block.IsAir(get(cell)) {
			return Hit{
				Block:  cell,
				Prev:   prev,
				Normal: prev.Sub(cell),
			}, true
		}
	}
}

func axisOf(v vec.Vec3, axis int) int {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func setAxis(v *vec.Vec3, axis, val int) {
	switch axis {
	case 0:
		v.X = val
	case 1:
		v.Y = val
	default:
		v.Z = val
	}
}

func addAxis(v vec.Vec3, axis, d int) vec.Vec3 {
	switch axis {
	case 0:
		v.X += d
	case 1:
		v.Y += d
	default:
		v.Z += d
	}
	return v
}
