package player

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
	"github.com/voxellab/cubeland/internal/vec"
)

// planeWorld is solid at y <= 0 plus any extra cells.
type planeWorld struct {
	extra map[vec.Vec3]bool
}

func (w *planeWorld) IsSolid(p vec.Vec3) bool {
	if p.Y <= 0 {
		return true
	}
	return w.extra[p]
}

func stepFor(c *Controller, in Input, seconds float32) {
	const dt = 1.0 / 60.0
	for t := float32(0); t < seconds; t += dt {
		c.Step(in, dt)
	}
}

func TestFallsToRestOnFloor(t *testing.T) {
	// Floor cells at y=0: their top surface is at y = 0.5.
	const floorTop = 0.5
	c := NewController(&planeWorld{}, mgl32.Vec3{0, 5, 0})

	stepFor(c, Input{}, 3)

	require.InDelta(t, floorTop, c.Bottom(), 0.01,
		"capsule bottom should rest on the floor surface")
	require.Zero(t, c.Velocity().Y())
	require.True(t, c.Grounded())
}

func TestNeverEndsFrameInsideFloor(t *testing.T) {
	c := NewController(&planeWorld{}, mgl32.Vec3{0, 50, 0})
	const dt = 1.0 / 60.0
	for i := 0; i < 600; i++ {
		c.Step(Input{}, dt)
		require.GreaterOrEqual(t, c.Bottom(), float32(0.5)-0.01,
			"capsule penetrated the floor on frame %d", i)
	}
}

func TestSlidesAlongWall(t *testing.T) {
	w := &planeWorld{extra: map[vec.Vec3]bool{}}
	// Wall at x=2 for a few cells up and along z.
	for y := 1; y <= 3; y++ {
		for z := -5; z <= 5; z++ {
			w.extra[vec.Vec3{X: 2, Y: y, Z: z}] = true
		}
	}
	c := NewController(w, mgl32.Vec3{0, 1.4, 0})
	stepFor(c, Input{}, 0.5) // settle on floor

	// Face +X (rotatex 0 looks along +X), then push forward into the wall.
	c.Camera().SetAngles(0, 0)
	startZ := c.Pos().Z()
	stepFor(c, Input{Forward: true}, 2)

	// Stopped by the wall: capsule right edge against the wall face.
	require.Less(t, c.Pos().X(), float32(2.0))
	require.InDelta(t, 2.0-0.5-c.Capsule().Radius, c.Pos().X(), 0.01)
	require.Zero(t, c.Velocity().X())
	require.InDelta(t, startZ, c.Pos().Z(), 0.01, "no sideways drift expected")

	// Strafing must still work while against the wall.
	stepFor(c, Input{Forward: true, Right: true}, 1)
	require.Greater(t, math.Abs(float64(c.Pos().Z()-startZ)), 0.1, "expected slide along the wall")
}

func TestJumpLeavesGroundAndLands(t *testing.T) {
	c := NewController(&planeWorld{}, mgl32.Vec3{0, 1.4, 0})
	stepFor(c, Input{}, 1)
	require.True(t, c.Grounded())
	restY := c.Pos().Y()

	c.Step(Input{Jump: true}, 1.0/60.0)
	require.False(t, c.Grounded())
	require.Positive(t, c.Velocity().Y())

	stepFor(c, Input{}, 3)
	require.True(t, c.Grounded())
	require.InDelta(t, restY, c.Pos().Y(), 0.01)
}

func TestJumpRequiresGround(t *testing.T) {
	c := NewController(&planeWorld{}, mgl32.Vec3{0, 20, 0})
	c.Step(Input{Jump: true}, 1.0/60.0)
	require.Negative(t, c.Velocity().Y(), "airborne jump must not add impulse")
}

func TestFlyingIgnoresGravity(t *testing.T) {
	c := NewController(&planeWorld{}, mgl32.Vec3{0, 20, 0})
	c.FlipFlying()
	y := c.Pos().Y()
	stepFor(c, Input{}, 1)
	require.Equal(t, y, c.Pos().Y())
}

func TestStateRoundTrip(t *testing.T) {
	c := NewController(&planeWorld{}, mgl32.Vec3{1, 10, -3})
	c.Camera().SetAngles(45, -10)
	s := c.State()

	c2 := NewController(&planeWorld{}, mgl32.Vec3{})
	c2.Restore(s)
	require.Equal(t, c.Pos(), c2.Pos())
	rx, ry := c2.Camera().Angles()
	require.Equal(t, float32(45), rx)
	require.Equal(t, float32(-10), ry)
}
