// Package player owns the camera pose, the velocity and the collision
// capsule, and resolves movement against the voxel world.
package player

import "github.com/go-gl/mathgl/mgl32"

// State is the persistable part of the player pose.
type State struct {
	X, Y, Z float32
	Rx, Ry  float32
}

// Camera holds the first-person eye pose. Position and orientation are
// written only by the Controller; everything else reads snapshots.
type Camera struct {
	pos    mgl32.Vec3
	up     mgl32.Vec3
	right  mgl32.Vec3
	front  mgl32.Vec3
	wfront mgl32.Vec3

	rotatex, rotatey float32

	// Sens scales mouse deltas to degrees.
	Sens float32
}

func NewCamera(pos mgl32.Vec3) *Camera {
	c := &Camera{
		pos:     pos,
		front:   mgl32.Vec3{0, 0, -1},
		rotatex: -90,
		rotatey: 0,
		Sens:    0.14,
	}
	c.updateAngles()
	return c
}

func (c *Camera) Matrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.pos, c.pos.Add(c.front), c.up)
}

func (c *Camera) SetPos(pos mgl32.Vec3) { c.pos = pos }
func (c *Camera) Pos() mgl32.Vec3       { return c.pos }
func (c *Camera) Front() mgl32.Vec3     { return c.front }
func (c *Camera) Right() mgl32.Vec3     { return c.right }

// WalkFront is the front vector projected onto the horizontal plane, used
// for grounded movement.
func (c *Camera) WalkFront() mgl32.Vec3 { return c.wfront }

func (c *Camera) Angles() (rx, ry float32) {
	return c.rotatex, c.rotatey
}

func (c *Camera) SetAngles(rx, ry float32) {
	c.rotatex, c.rotatey = rx, ry
	c.clampPitch()
	c.updateAngles()
}

// OnAngleChange applies a mouse look delta. Absurd spikes are dropped.
func (c *Camera) OnAngleChange(dx, dy float32) {
	if mgl32.Abs(dx) > 200 || mgl32.Abs(dy) > 200 {
		return
	}
	c.rotatex += dx * c.Sens
	c.rotatey += dy * c.Sens
	c.clampPitch()
	c.updateAngles()
}

func (c *Camera) clampPitch() {
	if c.rotatey > 89 {
		c.rotatey = 89
	}
	if c.rotatey < -89 {
		c.rotatey = -89
	}
}

func (c *Camera) updateAngles() {
	front := mgl32.Vec3{
		cos(radian(c.rotatey)) * cos(radian(c.rotatex)),
		sin(radian(c.rotatey)),
		cos(radian(c.rotatey)) * sin(radian(c.rotatex)),
	}
	c.front = front.Normalize()
	c.right = c.front.Cross(mgl32.Vec3{0, 1, 0}).Normalize()
	c.up = c.right.Cross(c.front).Normalize()
	c.wfront = mgl32.Vec3{0, 1, 0}.Cross(c.right).Normalize()
}
