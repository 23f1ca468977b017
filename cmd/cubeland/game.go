package main

import (
	"fmt"
	"log"
	"time"

	"github.com/faiface/mainthread"
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.2/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxellab/cubeland/internal/block"
	"github.com/voxellab/cubeland/internal/config"
	"github.com/voxellab/cubeland/internal/gen"
	"github.com/voxellab/cubeland/internal/interact"
	"github.com/voxellab/cubeland/internal/player"
	"github.com/voxellab/cubeland/internal/render"
	"github.com/voxellab/cubeland/internal/store"
	"github.com/voxellab/cubeland/internal/stream"
	"github.com/voxellab/cubeland/internal/vec"
	"github.com/voxellab/cubeland/internal/world"
)

// hotbar lists the placeable blocks cycled with E/R.
var hotbar = block.Palette

const flushInterval = 30 * time.Second

type Game struct {
	win  *glfw.Window
	conf config.Config

	store    *store.Store
	world    *world.World
	streamer *stream.Streamer
	player   *player.Controller
	interact *interact.System

	blockRender *render.BlockRender
	lineRender  *render.LineRender

	lx, ly   float64
	lookDX   float32
	lookDY   float32
	prevtime float64

	itemIdx   int
	fps       FPS
	edits     int
	lastFlush time.Time

	exclusiveMouse bool
	closed         bool
}

func initGL(w, h int) *glfw.Window {
	err := glfw.Init()
	if err != nil {
		log.Fatal(err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, gl.TRUE)

	win, err := glfw.CreateWindow(w, h, "cubeland", nil, nil)
	if err != nil {
		log.Fatal(err)
	}
	win.MakeContextCurrent()
	err = gl.Init()
	if err != nil {
		log.Fatal(err)
	}
	glfw.SwapInterval(1) // enable vsync
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	return win
}

func NewGame(conf config.Config) (*Game, error) {
	g := &Game{conf: conf, lastFlush: time.Now()}

	var err error
	g.store, err = store.Open(conf.World.DBPath)
	if err != nil {
		return nil, err
	}
	seed, err := g.store.EnsureSeed(conf.World.Seed)
	if err != nil {
		return nil, err
	}
	g.world = world.New(gen.New(seed), g.store)
	g.world.OnChange(func(p vec.Vec3, old, new block.ID) {
		g.edits++
	})
	g.streamer = stream.New(g.world, stream.Options{
		Radius:          conf.World.RenderRadius,
		LoadsPerFrame:   conf.Budgets.LoadsPerFrame,
		UnloadsPerFrame: conf.Budgets.UnloadsPerFrame,
		MeshesPerFrame:  conf.Budgets.MeshesPerFrame,
		Workers:         conf.Budgets.Workers,
	})

	g.player = player.NewController(g.world, mgl32.Vec3{0, 30, 0})
	if state, ok := g.store.PlayerState(); ok {
		g.player.Restore(state)
	}
	g.interact = interact.NewSystem(g.world, interact.DefaultReach)
	g.interact.SetPlacementVeto(g.cellInsidePlayer)

	// The ground under the spawn must exist before the first physics step
	// or the player falls through the still-unloaded world.
	spawn := vec.Near(g.player.Pos()).Chunk()
	for dy := -2; dy <= 1; dy++ {
		if _, err := g.world.LoadChunk(vec.Vec3{X: spawn.X, Y: spawn.Y + dy, Z: spawn.Z}); err != nil {
			return nil, err
		}
	}

	mainthread.Call(func() {
		win := initGL(conf.Window.Width, conf.Window.Height)
		win.SetMouseButtonCallback(g.onMouseButtonCallback)
		win.SetCursorPosCallback(g.onCursorPosCallback)
		win.SetFramebufferSizeCallback(g.onFrameBufferSizeCallback)
		win.SetKeyCallback(g.onKeyCallback)
		g.win = win
	})

	g.blockRender, err = render.NewBlockRender(conf.TexturePath, conf.World.RenderRadius)
	if err != nil {
		return nil, err
	}
	mainthread.Call(func() {
		g.blockRender.UpdateItem(hotbar[g.itemIdx])
	})
	g.lineRender, err = render.NewLineRender()
	if err != nil {
		return nil, err
	}
	return g, nil
}

// cellInsidePlayer vetoes block placement into the player capsule.
func (g *Game) cellInsidePlayer(p vec.Vec3) bool {
	pos := g.player.Pos()
	capsule := g.player.Capsule()
	half := mgl32.Vec3{capsule.Radius, capsule.Height / 2, capsule.Radius}
	for axis := 0; axis < 3; axis++ {
		coords := [3]float32{float32(p.X), float32(p.Y), float32(p.Z)}
		if mgl32.Abs(coords[axis]-pos[axis]) >= 0.5+half[axis] {
			return false
		}
	}
	return true
}

func (g *Game) setExclusiveMouse(exclusive bool) {
	if exclusive {
		g.win.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	} else {
		g.win.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
	g.exclusiveMouse = exclusive
}

func (g *Game) onMouseButtonCallback(win *glfw.Window, button glfw.MouseButton, action glfw.Action, mod glfw.ModifierKey) {
	if !g.exclusiveMouse {
		g.setExclusiveMouse(true)
		return
	}
	if action != glfw.Press {
		return
	}
	cam := g.player.Camera()
	switch button {
	case glfw.MouseButton1:
		g.interact.BreakBlock(cam.Pos(), cam.Front())
	case glfw.MouseButton2:
		g.interact.PlaceBlock(cam.Pos(), cam.Front(), hotbar[g.itemIdx])
	}
}

func (g *Game) onFrameBufferSizeCallback(window *glfw.Window, width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (g *Game) onCursorPosCallback(win *glfw.Window, xpos float64, ypos float64) {
	if !g.exclusiveMouse {
		return
	}
	if g.lx == 0 && g.ly == 0 {
		g.lx, g.ly = xpos, ypos
		return
	}
	dx, dy := xpos-g.lx, g.ly-ypos
	g.lx, g.ly = xpos, ypos
	g.lookDX += float32(dx)
	g.lookDY += float32(dy)
}

func (g *Game) onKeyCallback(win *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	switch key {
	case glfw.KeyTab:
		g.player.FlipFlying()
	case glfw.KeyE:
		g.itemIdx = (g.itemIdx + 1) % len(hotbar)
		g.blockRender.UpdateItem(hotbar[g.itemIdx])
	case glfw.KeyR:
		g.itemIdx--
		if g.itemIdx < 0 {
			g.itemIdx = len(hotbar) - 1
		}
		g.blockRender.UpdateItem(hotbar[g.itemIdx])
	case glfw.KeyK:
		if err := g.world.Flush(); err != nil {
			log.Printf("flush failed: %v", err)
		}
	}
}

// readInput samples held keys and the accumulated mouse deltas into the
// abstract action vector the controller consumes.
func (g *Game) readInput() player.Input {
	if g.win.GetKey(glfw.KeyEscape) == glfw.Press {
		g.setExclusiveMouse(false)
	}
	in := player.Input{
		Forward:  g.win.GetKey(glfw.KeyW) == glfw.Press,
		Backward: g.win.GetKey(glfw.KeyS) == glfw.Press,
		Left:     g.win.GetKey(glfw.KeyA) == glfw.Press,
		Right:    g.win.GetKey(glfw.KeyD) == glfw.Press,
		Jump:     g.win.GetKey(glfw.KeySpace) == glfw.Press,
		LookDX:   g.lookDX,
		LookDY:   g.lookDY,
	}
	g.lookDX, g.lookDY = 0, 0
	return in
}

func (g *Game) ShouldClose() bool {
	return g.closed
}

func (g *Game) renderStat() {
	g.fps.Update()
	p := g.player.Camera().Pos()
	cid := vec.Near(p).Chunk()
	stat := g.blockRender.Stat()
	title := fmt.Sprintf("[%.2f %.2f %.2f] %v [%d/%d %d] p:%d e:%d %d",
		p.X(), p.Y(), p.Z(), cid,
		stat.RenderedChunks, stat.CachedChunks, stat.Faces,
		g.streamer.Pending(), g.edits, g.fps.Fps())
	g.win.SetTitle(title)
}

func (g *Game) Update() {
	mainthread.Call(func() {
		dt := glfw.GetTime() - g.prevtime
		g.prevtime = glfw.GetTime()
		if dt > 0.02 {
			dt = 0.02
		}

		g.player.Step(g.readInput(), float32(dt))

		cam := g.player.Camera()
		g.streamer.Update(cam.Pos())
		g.blockRender.Sync(g.world)

		gl.ClearColor(0.57, 0.71, 0.77, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

		width, height := g.win.GetSize()
		g.blockRender.Draw(cam.Pos(), cam.Matrix(), width, height)

		var target *vec.Vec3
		if hit, ok := g.interact.Target(cam.Pos(), cam.Front()); ok {
			target = &hit.Block
		}
		fbWidth, fbHeight := g.win.GetFramebufferSize()
		mat := g.blockRender.Matrix(cam.Matrix(), width, height)
		g.lineRender.Draw(g.world, target, mat, fbWidth, fbHeight)

		g.renderStat()

		g.win.SwapBuffers()
		glfw.PollEvents()
		g.closed = g.win.ShouldClose()
	})

	if time.Since(g.lastFlush) > flushInterval {
		g.lastFlush = time.Now()
		if err := g.world.Flush(); err != nil {
			log.Printf("periodic flush failed: %v", err)
		}
	}
}

// Shutdown flushes world and player state and releases the workers.
func (g *Game) Shutdown() {
	g.streamer.Close()
	if err := g.world.Flush(); err != nil {
		log.Printf("final flush failed: %v", err)
	}
	if err := g.store.SavePlayerState(g.player.State()); err != nil {
		log.Printf("save player state failed: %v", err)
	}
	if err := g.store.Close(); err != nil {
		log.Printf("close store failed: %v", err)
	}
}

type FPS struct {
	lastUpdate time.Time
	cnt        int
	fps        int
}

func (f *FPS) Update() {
	f.cnt++
	now := time.Now()
	p := now.Sub(f.lastUpdate)
	if p >= time.Second {
		f.fps = int(float64(f.cnt) / p.Seconds())
		f.cnt = 0
		f.lastUpdate = now
	}
}

func (f *FPS) Fps() int {
	return f.fps
}
