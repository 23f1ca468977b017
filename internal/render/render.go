// Package render owns everything that needs a GL context: shader setup,
// GPU mesh upload and the per-frame draw passes. CPU-side geometry comes
// from internal/mesh; this package only mirrors it into buffers.
package render

import (
	"image"
	"image/draw"
	_ "image/png"
	"math"
	"os"
	"sort"

	"github.com/faiface/glhf"
	"github.com/faiface/mainthread"
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/voxellab/cubeland/internal/block"
	"github.com/voxellab/cubeland/internal/mesh"
	"github.com/voxellab/cubeland/internal/vec"
	"github.com/voxellab/cubeland/internal/world"
)

func loadImage(fname string) ([]uint8, image.Rectangle, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, image.Rectangle{}, errors.Wrap(err, "open texture")
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, image.Rectangle{}, errors.Wrap(err, "decode texture")
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba.Pix, img.Bounds(), nil
}

// Stat summarizes the last frame for the HUD.
type Stat struct {
	Faces          int
	CachedChunks   int
	RenderedChunks int
}

// chunkBuffers is the GPU mirror of one chunk's mesh, split by draw pass.
type chunkBuffers struct {
	revision    uint64
	opaque      *Mesh
	transparent *Mesh
}

// BlockRender draws the world in two passes: opaque geometry front to
// back, then transparent geometry back to front with blending.
type BlockRender struct {
	shader  *glhf.Shader
	texture *glhf.Texture

	// fogDist doubles as the far plane; geometry beyond it is fogged out
	// anyway so the frustum can end there.
	fogDist float32

	meshes map[vec.Vec3]*chunkBuffers
	item   *Mesh

	stat Stat
}

func NewBlockRender(texturePath string, renderRadius int) (*BlockRender, error) {
	img, rect, err := loadImage(texturePath)
	if err != nil {
		return nil, err
	}
	r := &BlockRender{
		fogDist: float32(renderRadius * vec.ChunkSize),
		meshes:  make(map[vec.Vec3]*chunkBuffers),
	}
	mainthread.Call(func() {
		r.shader, err = glhf.NewShader(glhf.AttrFormat{
			glhf.Attr{Name: "pos", Type: glhf.Vec3},
			glhf.Attr{Name: "tex", Type: glhf.Vec2},
			glhf.Attr{Name: "normal", Type: glhf.Vec3},
		}, glhf.AttrFormat{
			glhf.Attr{Name: "matrix", Type: glhf.Mat4},
			glhf.Attr{Name: "camera", Type: glhf.Vec3},
			glhf.Attr{Name: "fogdis", Type: glhf.Float},
		}, blockVertexSource, blockFragmentSource)
		if err != nil {
			return
		}
		r.texture = glhf.NewTexture(rect.Dx(), rect.Dy(), false, img)
	})
	if err != nil {
		return nil, errors.Wrap(err, "block shader")
	}
	return r, nil
}

// Sync mirrors the world's chunk meshes into GPU buffers: stale revisions
// are re-uploaded, chunks that left the world release their buffers. Must
// run on the main thread: Sync is called from inside the frame's
// mainthread call, so it creates and releases buffers directly — a nested
// mainthread.Call here would never return.
func (r *BlockRender) Sync(w *world.World) {
	refresh, drop := r.planSync(w)
	for _, c := range refresh {
		m := w.Chunk(c).Mesh()
		if buf, ok := r.meshes[c]; ok {
			buf.opaque.Release()
			buf.transparent.Release()
		}
		r.meshes[c] = &chunkBuffers{
			revision:    m.Revision,
			opaque:      NewMesh(r.shader, m.Opaque),
			transparent: NewMesh(r.shader, m.Transparent),
		}
	}
	for _, c := range drop {
		buf := r.meshes[c]
		buf.opaque.Release()
		buf.transparent.Release()
		delete(r.meshes, c)
	}
}

// planSync diffs the world against the GPU cache: refresh lists chunks
// whose mesh is missing or outdated, drop lists cached buffers whose chunk
// left the world.
func (r *BlockRender) planSync(w *world.World) (refresh, drop []vec.Vec3) {
	seen := make(map[vec.Vec3]bool)
	for _, c := range w.ReadyChunks() {
		m := w.Chunk(c).Mesh()
		if m == nil {
			continue
		}
		seen[c] = true
		if buf, ok := r.meshes[c]; ok && buf.revision == m.Revision {
			continue
		}
		refresh = append(refresh, c)
	}
	for c := range r.meshes {
		if !seen[c] {
			drop = append(drop, c)
		}
	}
	return refresh, drop
}

// Matrix returns the combined projection*view matrix for this frame.
func (r *BlockRender) Matrix(view mgl32.Mat4, width, height int) mgl32.Mat4 {
	proj := mgl32.Perspective(radian(45), float32(width)/float32(height), 0.1, r.fogDist)
	return proj.Mul4(view)
}

// Draw renders all visible chunks and the held-item preview. Must run on
// the main thread with the GL context current.
func (r *BlockRender) Draw(eye mgl32.Vec3, view mgl32.Mat4, width, height int) {
	mat := r.Matrix(view, width, height)
	planes := frustumPlanes(&mat, 0.1, r.fogDist)

	r.stat = Stat{CachedChunks: len(r.meshes)}
	visible := make([]vec.Vec3, 0, len(r.meshes))
	for c := range r.meshes {
		if isChunkVisible(planes, c) {
			visible = append(visible, c)
		}
	}
	center := vec.Near(eye).Chunk()
	sort.Slice(visible, func(i, j int) bool {
		return center.DistSq(visible[i]) < center.DistSq(visible[j])
	})
	r.stat.RenderedChunks = len(visible)

	r.shader.Begin()
	r.texture.Begin()
	r.shader.SetUniformAttr(0, mat)
	r.shader.SetUniformAttr(1, eye)
	r.shader.SetUniformAttr(2, r.fogDist)

	// Opaque pass, nearest chunks first to help early depth rejection.
	for _, c := range visible {
		m := r.meshes[c].opaque
		r.stat.Faces += m.Faces()
		m.Draw()
	}

	// Transparent pass, farthest first so blending composes correctly.
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.DepthMask(false)
	for i := len(visible) - 1; i >= 0; i-- {
		m := r.meshes[visible[i]].transparent
		r.stat.Faces += m.Faces()
		m.Draw()
	}
	gl.DepthMask(true)
	gl.Disable(gl.BLEND)

	r.drawItem(width, height)

	r.texture.End()
	r.shader.End()
}

// UpdateItem rebuilds the held-item preview mesh. Main thread only.
func (r *BlockRender) UpdateItem(id block.ID) {
	item := NewMesh(r.shader, mesh.CubeData(id))
	if r.item != nil {
		r.item.Release()
	}
	r.item = item
}

func (r *BlockRender) drawItem(width, height int) {
	if r.item == nil {
		return
	}
	ratio := float32(width) / float32(height)
	projection := mgl32.Ortho2D(0, 15, 0, 15/ratio)
	model := mgl32.Translate3D(1, 1, 0)
	model = model.Mul4(mgl32.HomogRotate3DX(radian(10)))
	model = model.Mul4(mgl32.HomogRotate3DY(radian(45)))
	r.shader.SetUniformAttr(0, projection.Mul4(model))
	r.shader.SetUniformAttr(1, mgl32.Vec3{0, 0, 0})
	r.shader.SetUniformAttr(2, r.fogDist)
	r.item.Draw()
}

func (r *BlockRender) Stat() Stat {
	return r.stat
}

func frustumPlanes(mat *mgl32.Mat4, near, far float32) []mgl32.Vec4 {
	c1, c2, c3, c4 := mat.Rows()
	return []mgl32.Vec4{
		c4.Add(c1),           // left
		c4.Sub(c1),           // right
		c4.Sub(c2),           // top
		c4.Add(c2),           // bottom
		c4.Mul(near).Add(c3), // front
		c4.Mul(far).Sub(c3),  // back
	}
}

// isChunkVisible tests the chunk's bounding box against the frustum. A
// chunk spanning blocks [o, o+15] occupies [o-0.5, o+15.5] in world space.
func isChunkVisible(planes []mgl32.Vec4, c vec.Vec3) bool {
	o := vec.Origin(c)
	lo := mgl32.Vec3{float32(o.X) - 0.5, float32(o.Y) - 0.5, float32(o.Z) - 0.5}
	const m = float32(vec.ChunkSize)

	points := [8]mgl32.Vec3{
		{lo.X(), lo.Y(), lo.Z()},
		{lo.X() + m, lo.Y(), lo.Z()},
		{lo.X() + m, lo.Y(), lo.Z() + m},
		{lo.X(), lo.Y(), lo.Z() + m},
		{lo.X(), lo.Y() + m, lo.Z()},
		{lo.X() + m, lo.Y() + m, lo.Z()},
		{lo.X() + m, lo.Y() + m, lo.Z() + m},
		{lo.X(), lo.Y() + m, lo.Z() + m},
	}
	for _, plane := range planes {
		var in, out int
		for _, point := range points {
			if plane.Dot(point.Vec4(1)) < 0 {
				out++
			} else {
				in++
			}
			if in != 0 && out != 0 {
				break
			}
		}
		if in == 0 {
			return false
		}
	}
	return true
}

// Mesh is one immutable GPU vertex buffer drawn as triangles.
type Mesh struct {
	vao, vbo uint32
	faces    int
}

func NewMesh(shader *glhf.Shader, data []float32) *Mesh {
	m := new(Mesh)
	m.faces = len(data) / (shader.VertexFormat().Size() / 4) / 6
	if m.faces == 0 {
		return m
	}
	gl.GenVertexArrays(1, &m.vao)
	gl.GenBuffers(1, &m.vbo)
	gl.BindVertexArray(m.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

	setAttribPointers(shader)
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return m
}

func (m *Mesh) Faces() int {
	return m.faces
}

func (m *Mesh) Draw() {
	if m.vao != 0 {
		gl.BindVertexArray(m.vao)
		gl.DrawArrays(gl.TRIANGLES, 0, int32(m.faces)*6)
		gl.BindVertexArray(0)
	}
}

func (m *Mesh) Release() {
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
		gl.DeleteBuffers(1, &m.vbo)
		m.vao = 0
		m.vbo = 0
	}
}

func setAttribPointers(shader *glhf.Shader) {
	offset := 0
	for _, attr := range shader.VertexFormat() {
		loc := gl.GetAttribLocation(shader.ID(), gl.Str(attr.Name+"\x00"))
		var size int32
		switch attr.Type {
		case glhf.Float:
			size = 1
		case glhf.Vec2:
			size = 2
		case glhf.Vec3:
			size = 3
		case glhf.Vec4:
			size = 4
		}
		gl.VertexAttribPointer(
			uint32(loc),
			size,
			gl.FLOAT,
			false,
			int32(shader.VertexFormat().Size()),
			gl.PtrOffset(offset),
		)
		gl.EnableVertexAttribArray(uint32(loc))
		offset += attr.Type.Size()
	}
}

func radian(angle float32) float32 {
	return angle * math.Pi / 180
}
