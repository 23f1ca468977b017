package render

import (
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

// Lines is one immutable GPU buffer drawn as line segments.
type Lines struct {
	vao, vbo uint32
	shader   *glhf.Shader
	nvertex  int
}

func NewLines(shader *glhf.Shader, data []float32) *Lines {
	l := new(Lines)
	l.shader = shader
	l.nvertex = len(data) / (shader.VertexFormat().Size() / 4)
	gl.GenVertexArrays(1, &l.vao)
	gl.GenBuffers(1, &l.vbo)
	gl.BindVertexArray(l.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, l.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

	setAttribPointers(shader)
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return l
}

func (l *Lines) Draw(mat mgl32.Mat4) {
	if l.vao != 0 {
		l.shader.SetUniformAttr(0, mat)
		gl.BindVertexArray(l.vao)
		gl.DrawArrays(gl.LINES, 0, int32(l.nvertex))
		gl.BindVertexArray(0)
	}
}

func (l *Lines) Release() {
	if l.vao != 0 {
		gl.DeleteVertexArrays(1, &l.vao)
		gl.DeleteBuffers(1, &l.vbo)
		l.vao = 0
		l.vbo = 0
	}
}

// LineRender draws the crosshair and the targeted-block outline.
type LineRender struct {
	shader    *glhf.Shader
	cross     *Lines
	wireFrame *Lines
	lastBlock vec.Vec3
}

func NewLineRender() (*LineRender, error) {
	r := new(LineRender)
	var err error
	mainthread.Call(func() {
		r.shader, err = glhf.NewShader(glhf.AttrFormat{
			glhf.Attr{Name: "pos", Type: glhf.Vec3},
		}, glhf.AttrFormat{
			glhf.Attr{Name: "matrix", Type: glhf.Mat4},
		}, lineVertexSource, lineFragmentSource)
		if err != nil {
			return
		}
		r.cross = makeCross(r.shader)
	})
	if err != nil {
		return nil, errors.Wrap(err, "line shader")
	}
	return r, nil
}

// Draw renders the crosshair and, when target is non-nil, the selection
// wireframe around it. Main thread only.
func (r *LineRender) Draw(w *world.World, target *vec.Vec3, mat mgl32.Mat4, width, height int) {
	r.shader.Begin()
	r.drawCross(width, height)
	if target != nil {
		r.drawWireFrame(w, *target, mat)
	}
	r.shader.End()
}

func (r *LineRender) drawCross(width, height int) {
	project := mgl32.Ortho2D(0, float32(width), float32(height), 0)
	model := mgl32.Translate3D(float32(width/2), float32(height/2), 0)
	model = model.Mul4(mgl32.Scale3D(float32(height/30), float32(height/30), 0))
	r.cross.Draw(project.Mul4(model))
}

func (r *LineRender) drawWireFrame(w *world.World, target vec.Vec3, mat mgl32.Mat4) {
	mat = mat.Mul4(mgl32.Translate3D(float32(target.X), float32(target.Y), float32(target.Z)))
	mat = mat.Mul4(mgl32.Scale3D(1.06, 1.06, 1.06))
	if target == r.lastBlock && r.wireFrame != nil {
		r.wireFrame.Draw(mat)
		return
	}

	var show [6]bool
	for i, n := range target.Neighbors() {
		show[i] = block.IsTransparent(w.GetBlock(n))
	}
	vertices := mesh.WireFrame(show)
	if len(vertices) == 0 {
		return
	}
	r.lastBlock = target
	if r.wireFrame != nil {
		r.wireFrame.Release()
	}
	r.wireFrame = NewLines(r.shader, vertices)
	r.wireFrame.Draw(mat)
}

func makeCross(shader *glhf.Shader) *Lines {
	return NewLines(shader, []float32{
		-0.5, 0, 0, 0.5, 0, 0,
		0, -0.5, 0, 0, 0.5, 0,
	})
}
