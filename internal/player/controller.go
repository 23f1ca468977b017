package player

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/voxellab/cubeland/internal/vec"
)

const (
	walkSpeed = 6.0
	flySpeed  = 20.0
	gravity   = 20.0
	// terminalFall caps downward velocity.
	terminalFall = -50.0
	jumpImpulse  = 8.0

	// skin keeps the capsule a hair off the surface it collided with.
	skin = 0.001
	// maxStep bounds one collision sub-step so fast frames cannot tunnel
	// through a block.
	maxStep = 0.4
)

// Collider answers solidity queries. World implements it.
type Collider interface {
	IsSolid(p vec.Vec3) bool
}

// Capsule is the player collision volume, approximated by its bounding
// box: radius on X/Z, height on Y, centered on the controller position.
type Capsule struct {
	Radius float32
	Height float32
}

// Input is the abstract per-frame action vector delivered by the input
// dispatcher; the controller never sees raw device events.
type Input struct {
	Forward, Backward bool
	Left, Right       bool
	Jump              bool

	LookDX, LookDY float32
}

// Controller integrates input into motion and resolves collisions against
// the world, axis by axis, so the capsule slides along walls and never
// ends a frame inside a solid block.
type Controller struct {
	cam     *Camera
	world   Collider
	capsule Capsule

	// pos is the capsule center. The camera eye rides near the top.
	pos      mgl32.Vec3
	velocity mgl32.Vec3
	grounded bool
	flying   bool
}

func NewController(world Collider, spawn mgl32.Vec3) *Controller {
	c := &Controller{
		world:   world,
		capsule: Capsule{Radius: 0.3, Height: 1.8},
		pos:     spawn,
	}
	c.cam = NewCamera(c.eyePos())
	return c
}

func (c *Controller) Camera() *Camera      { return c.cam }
func (c *Controller) Pos() mgl32.Vec3      { return c.pos }
func (c *Controller) Velocity() mgl32.Vec3 { return c.velocity }
func (c *Controller) Grounded() bool       { return c.grounded }
func (c *Controller) Flying() bool         { return c.flying }
func (c *Controller) FlipFlying()          { c.flying = !c.flying }
func (c *Controller) Capsule() Capsule     { return c.capsule }

// Bottom returns the y coordinate of the capsule's lowest point.
func (c *Controller) Bottom() float32 {
	return c.pos.Y() - c.capsule.Height/2
}

func (c *Controller) eyePos() mgl32.Vec3 {
	return mgl32.Vec3{c.pos.X(), c.pos.Y() + c.capsule.Height/2 - 0.2, c.pos.Z()}
}

// SetPos teleports the capsule center, clearing velocity.
func (c *Controller) SetPos(pos mgl32.Vec3) {
	c.pos = pos
	c.velocity = mgl32.Vec3{}
	c.cam.SetPos(c.eyePos())
}

// State captures the pose for persistence.
func (c *Controller) State() State {
	rx, ry := c.cam.Angles()
	return State{X: c.pos.X(), Y: c.pos.Y(), Z: c.pos.Z(), Rx: rx, Ry: ry}
}

// Restore reinstates a persisted pose.
func (c *Controller) Restore(s State) {
	c.SetPos(mgl32.Vec3{s.X, s.Y, s.Z})
	c.cam.SetAngles(s.Rx, s.Ry)
}

// Step advances the player one frame.
func (c *Controller) Step(in Input, dt float32) {
	if in.LookDX != 0 || in.LookDY != 0 {
		c.cam.OnAngleChange(in.LookDX, in.LookDY)
	}

	if c.flying {
		c.stepFlying(in, dt)
	} else {
		c.stepWalking(in, dt)
	}
	c.cam.SetPos(c.eyePos())
}

func (c *Controller) stepWalking(in Input, dt float32) {
	horiz := c.wishDirection(in, c.cam.WalkFront())
	c.velocity = mgl32.Vec3{
		horiz.X() * walkSpeed,
		c.velocity.Y(),
		horiz.Z() * walkSpeed,
	}

	if in.Jump && c.grounded {
		c.velocity = mgl32.Vec3{c.velocity.X(), jumpImpulse, c.velocity.Z()}
		c.grounded = false
	}

	vy := c.velocity.Y() - gravity*dt
	if vy < terminalFall {
		vy = terminalFall
	}
	c.velocity = mgl32.Vec3{c.velocity.X(), vy, c.velocity.Z()}

	c.move(c.velocity.Mul(dt))
}

func (c *Controller) stepFlying(in Input, dt float32) {
	dir := c.wishDirection(in, c.cam.Front())
	c.velocity = dir.Mul(flySpeed)
	c.grounded = false
	c.move(c.velocity.Mul(dt))
}

// wishDirection combines the movement flags with the given forward basis.
func (c *Controller) wishDirection(in Input, front mgl32.Vec3) mgl32.Vec3 {
	var dir mgl32.Vec3
	if in.Forward {
		dir = dir.Add(front)
	}
	if in.Backward {
		dir = dir.Sub(front)
	}
	if in.Left {
		dir = dir.Sub(c.cam.Right())
	}
	if in.Right {
		dir = dir.Add(c.cam.Right())
	}
	if dir.Len() == 0 {
		return dir
	}
	return dir.Normalize()
}

// move applies a displacement with axis-separated collision resolution:
// X, then Y, then Z. A collision clamps the position on that axis and
// zeroes that velocity component.
func (c *Controller) move(delta mgl32.Vec3) {
	steps := 1
	if m := maxAbs(delta); m > maxStep {
		steps = int(math.Ceil(float64(m / maxStep)))
	}
	sub := delta.Mul(1 / float32(steps))

	for s := 0; s < steps; s++ {
		for axis := 0; axis < 3; axis++ {
			if sub[axis] == 0 {
				if axis == 1 {
					// A still player can have the floor removed from
					// under them; keep grounded honest.
					c.grounded = c.touchingFloor()
				}
				continue
			}
			if c.moveAxis(axis, sub[axis]) {
				c.velocity[axis] = 0
				sub[axis] = 0
				if axis == 1 {
					c.grounded = delta[1] < 0
				}
			} else if axis == 1 {
				c.grounded = false
			}
		}
	}
}

// moveAxis translates the capsule along one axis and pushes it back out
// of any solid cell it entered. Reports whether a collision happened.
func (c *Controller) moveAxis(axis int, delta float32) bool {
	c.pos[axis] += delta
	half := c.halfExtents()

	lo, hi := c.overlapCells()
	collided := false
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for z := lo.Z; z <= hi.Z; z++ {
				cell := vec.Vec3{X: x, Y: y, Z: z}
				if !c.world.IsSolid(cell) {
					continue
				}
				// Block cells are unit cubes centered on integers.
				cellCenter := float32(cellComponent(cell, axis))
				if delta > 0 {
					limit := cellCenter - 0.5 - half[axis] - skin
					if c.pos[axis] > limit {
						c.pos[axis] = limit
						collided = true
					}
				} else {
					limit := cellCenter + 0.5 + half[axis] + skin
					if c.pos[axis] < limit {
						c.pos[axis] = limit
						collided = true
					}
				}
			}
		}
	}
	return collided
}

// touchingFloor probes one skin-width below the capsule for solid ground.
func (c *Controller) touchingFloor() bool {
	half := c.halfExtents()
	probe := c.pos
	probe[1] -= 2 * skin
	lo, hi := cellRange(probe, half)
	for x := lo.X; x <= hi.X; x++ {
		for z := lo.Z; z <= hi.Z; z++ {
			if c.world.IsSolid(vec.Vec3{X: x, Y: lo.Y, Z: z}) {
				return true
			}
		}
	}
	return false
}

func (c *Controller) halfExtents() mgl32.Vec3 {
	return mgl32.Vec3{c.capsule.Radius, c.capsule.Height / 2, c.capsule.Radius}
}

func (c *Controller) overlapCells() (lo, hi vec.Vec3) {
	return cellRange(c.pos, c.halfExtents())
}

// cellRange returns the inclusive range of voxel cells overlapped by the
// box centered at pos with the given half extents.
func cellRange(pos, half mgl32.Vec3) (lo, hi vec.Vec3) {
	lo = vec.Vec3{
		X: cellIndex(pos.X() - half.X()),
		Y: cellIndex(pos.Y() - half.Y()),
		Z: cellIndex(pos.Z() - half.Z()),
	}
	hi = vec.Vec3{
		X: cellIndex(pos.X() + half.X()),
		Y: cellIndex(pos.Y() + half.Y()),
		Z: cellIndex(pos.Z() + half.Z()),
	}
	return lo, hi
}

// cellIndex maps a world coordinate to the index of the containing cell;
// cell i spans [i-0.5, i+0.5).
func cellIndex(v float32) int {
	return int(math.Floor(float64(v) + 0.5))
}

func cellComponent(cell vec.Vec3, axis int) int {
	switch axis {
	case 0:
		return cell.X
	case 1:
		return cell.Y
	default:
		return cell.Z
	}
}

func maxAbs(v mgl32.Vec3) float32 {
	m := mgl32.Abs(v.X())
	if a := mgl32.Abs(v.Y()); a > m {
		m = a
	}
	if a := mgl32.Abs(v.Z()); a > m {
		m = a
	}
	return m
}

func sin(x float32) float32 { return float32(math.Sin(float64(x))) }
func cos(x float32) float32 { return float32(math.Cos(float64(x))) }

func radian(angle float32) float32 { return mgl32.DegToRad(angle) }
