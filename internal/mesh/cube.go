package mesh

import (
	"github.com/voxellab/cubeland/internal/block"
	"github.com/voxellab/cubeland/internal/vec"
)

const (
	// FloatsPerVertex is pos(3) + tex(2) + normal(3).
	FloatsPerVertex = 8
	VertsPerFace    = 6
	FloatsPerFace   = FloatsPerVertex * VertsPerFace

	// atlasTiles is the texture atlas edge length in tiles.
	atlasTiles = 16
	tileUV     = 1.0 / atlasTiles
)

const (
	faceLeft = iota
	faceRight
	faceUp
	faceDown
	faceFront
	faceBack
)

// tileUVs returns the six (u,v) pairs for one face of atlas tile t, in the
// corner order bottom1, bottom2, top2, top2, top1, bottom1 shared by every
// face table below.
func tileUVs(t int) [VertsPerFace][2]float32 {
	u0 := float32(t%atlasTiles) * tileUV
	v0 := float32(t/atlasTiles) * tileUV
	u1, v1 := u0+tileUV, v0+tileUV
	return [VertsPerFace][2]float32{
		{u0, v0}, {u1, v0}, {u1, v1},
		{u1, v1}, {u0, v1}, {u0, v0},
	}
}

// appendCube appends the visible faces of a unit cube centered on p.
func appendCube(vertices []float32, show [6]bool, p vec.Vec3, tex block.FaceTextures) []float32 {
	x, y, z := float32(p.X), float32(p.Y), float32(p.Z)
	if show[faceLeft] {
		uv := tileUVs(tex[faceLeft])
		vertices = append(vertices,
			x-0.5, y-0.5, z-0.5, uv[0][0], uv[0][1], -1, 0, 0,
			x-0.5, y-0.5, z+0.5, uv[1][0], uv[1][1], -1, 0, 0,
			x-0.5, y+0.5, z+0.5, uv[2][0], uv[2][1], -1, 0, 0,
			x-0.5, y+0.5, z+0.5, uv[3][0], uv[3][1], -1, 0, 0,
			x-0.5, y+0.5, z-0.5, uv[4][0], uv[4][1], -1, 0, 0,
			x-0.5, y-0.5, z-0.5, uv[5][0], uv[5][1], -1, 0, 0,
		)
	}
	if show[faceRight] {
		uv := tileUVs(tex[faceRight])
		vertices = append(vertices,
			x+0.5, y-0.5, z+0.5, uv[0][0], uv[0][1], 1, 0, 0,
			x+0.5, y-0.5, z-0.5, uv[1][0], uv[1][1], 1, 0, 0,
			x+0.5, y+0.5, z-0.5, uv[2][0], uv[2][1], 1, 0, 0,
			x+0.5, y+0.5, z-0.5, uv[3][0], uv[3][1], 1, 0, 0,
			x+0.5, y+0.5, z+0.5, uv[4][0], uv[4][1], 1, 0, 0,
			x+0.5, y-0.5, z+0.5, uv[5][0], uv[5][1], 1, 0, 0,
		)
	}
	if show[faceUp] {
		uv := tileUVs(tex[faceUp])
		vertices = append(vertices,
			x-0.5, y+0.5, z+0.5, uv[0][0], uv[0][1], 0, 1, 0,
			x+0.5, y+0.5, z+0.5, uv[1][0], uv[1][1], 0, 1, 0,
			x+0.5, y+0.5, z-0.5, uv[2][0], uv[2][1], 0, 1, 0,
			x+0.5, y+0.5, z-0.5, uv[3][0], uv[3][1], 0, 1, 0,
			x-0.5, y+0.5, z-0.5, uv[4][0], uv[4][1], 0, 1, 0,
			x-0.5, y+0.5, z+0.5, uv[5][0], uv[5][1], 0, 1, 0,
		)
	}
	if show[faceDown] {
		uv := tileUVs(tex[faceDown])
		vertices = append(vertices,
			x-0.5, y-0.5, z-0.5, uv[0][0], uv[0][1], 0, -1, 0,
			x+0.5, y-0.5, z-0.5, uv[1][0], uv[1][1], 0, -1, 0,
			x+0.5, y-0.5, z+0.5, uv[2][0], uv[2][1], 0, -1, 0,
			x+0.5, y-0.5, z+0.5, uv[3][0], uv[3][1], 0, -1, 0,
			x-0.5, y-0.5, z+0.5, uv[4][0], uv[4][1], 0, -1, 0,
			x-0.5, y-0.5, z-0.5, uv[5][0], uv[5][1], 0, -1, 0,
		)
	}
	if show[faceFront] {
		uv := tileUVs(tex[faceFront])
		vertices = append(vertices,
			x-0.5, y-0.5, z+0.5, uv[0][0], uv[0][1], 0, 0, 1,
			x+0.5, y-0.5, z+0.5, uv[1][0], uv[1][1], 0, 0, 1,
			x+0.5, y+0.5, z+0.5, uv[2][0], uv[2][1], 0, 0, 1,
			x+0.5, y+0.5, z+0.5, uv[3][0], uv[3][1], 0, 0, 1,
			x-0.5, y+0.5, z+0.5, uv[4][0], uv[4][1], 0, 0, 1,
			x-0.5, y-0.5, z+0.5, uv[5][0], uv[5][1], 0, 0, 1,
		)
	}
	if show[faceBack] {
		uv := tileUVs(tex[faceBack])
		vertices = append(vertices,
			x+0.5, y-0.5, z-0.5, uv[0][0], uv[0][1], 0, 0, -1,
			x-0.5, y-0.5, z-0.5, uv[1][0], uv[1][1], 0, 0, -1,
			x-0.5, y+0.5, z-0.5, uv[2][0], uv[2][1], 0, 0, -1,
			x-0.5, y+0.5, z-0.5, uv[3][0], uv[3][1], 0, 0, -1,
			x+0.5, y+0.5, z-0.5, uv[4][0], uv[4][1], 0, 0, -1,
			x+0.5, y-0.5, z-0.5, uv[5][0], uv[5][1], 0, 0, -1,
		)
	}
	return vertices
}

// appendCross appends the two crossed quads used by plant blocks. Crosses
// never cull: they are visible from every side.
func appendCross(vertices []float32, p vec.Vec3, tex block.FaceTextures) []float32 {
	x, y, z := float32(p.X), float32(p.Y), float32(p.Z)
	uv := tileUVs(tex[faceLeft])
	vertices = append(vertices,
		x, y-0.5, z-0.5, uv[0][0], uv[0][1], -1, 0, 0,
		x, y-0.5, z+0.5, uv[1][0], uv[1][1], -1, 0, 0,
		x, y+0.5, z+0.5, uv[2][0], uv[2][1], -1, 0, 0,
		x, y+0.5, z+0.5, uv[3][0], uv[3][1], -1, 0, 0,
		x, y+0.5, z-0.5, uv[4][0], uv[4][1], -1, 0, 0,
		x, y-0.5, z-0.5, uv[5][0], uv[5][1], -1, 0, 0,
	)
	uv = tileUVs(tex[faceRight])
	vertices = append(vertices,
		x, y-0.5, z+0.5, uv[0][0], uv[0][1], 1, 0, 0,
		x, y-0.5, z-0.5, uv[1][0], uv[1][1], 1, 0, 0,
		x, y+0.5, z-0.5, uv[2][0], uv[2][1], 1, 0, 0,
		x, y+0.5, z-0.5, uv[3][0], uv[3][1], 1, 0, 0,
		x, y+0.5, z+0.5, uv[4][0], uv[4][1], 1, 0, 0,
		x, y-0.5, z+0.5, uv[5][0], uv[5][1], 1, 0, 0,
	)
	uv = tileUVs(tex[faceFront])
	vertices = append(vertices,
		x-0.5, y-0.5, z, uv[0][0], uv[0][1], 0, 0, 1,
		x+0.5, y-0.5, z, uv[1][0], uv[1][1], 0, 0, 1,
		x+0.5, y+0.5, z, uv[2][0], uv[2][1], 0, 0, 1,
		x+0.5, y+0.5, z, uv[3][0], uv[3][1], 0, 0, 1,
		x-0.5, y+0.5, z, uv[4][0], uv[4][1], 0, 0, 1,
		x-0.5, y-0.5, z, uv[5][0], uv[5][1], 0, 0, 1,
	)
	uv = tileUVs(tex[faceBack])
	vertices = append(vertices,
		x+0.5, y-0.5, z, uv[0][0], uv[0][1], 0, 0, -1,
		x-0.5, y-0.5, z, uv[1][0], uv[1][1], 0, 0, -1,
		x-0.5, y+0.5, z, uv[2][0], uv[2][1], 0, 0, -1,
		x-0.5, y+0.5, z, uv[3][0], uv[3][1], 0, 0, -1,
		x+0.5, y+0.5, z, uv[4][0], uv[4][1], 0, 0, -1,
		x+0.5, y-0.5, z, uv[5][0], uv[5][1], 0, 0, -1,
	)
	return vertices
}

// appendWireFrame appends line-segment vertices (pos only) outlining the
// visible faces of a unit cube at the origin.
func appendWireFrame(vertices []float32, show [6]bool) []float32 {
	if show[faceLeft] {
		vertices = append(vertices,
			-0.5, -0.5, -0.5, -0.5, -0.5, +0.5,
			-0.5, -0.5, +0.5, -0.5, +0.5, +0.5,
			-0.5, +0.5, +0.5, -0.5, +0.5, -0.5,
			-0.5, +0.5, -0.5, -0.5, -0.5, -0.5,
		)
	}
	if show[faceRight] {
		vertices = append(vertices,
			+0.5, -0.5, +0.5, +0.5, -0.5, -0.5,
			+0.5, -0.5, -0.5, +0.5, +0.5, -0.5,
			+0.5, +0.5, -0.5, +0.5, +0.5, +0.5,
			+0.5, +0.5, +0.5, +0.5, -0.5, +0.5,
		)
	}
	if show[faceUp] {
		vertices = append(vertices,
			-0.5, +0.5, +0.5, +0.5, +0.5, +0.5,
			+0.5, +0.5, +0.5, +0.5, +0.5, -0.5,
			+0.5, +0.5, -0.5, -0.5, +0.5, -0.5,
			-0.5, +0.5, -0.5, -0.5, +0.5, +0.5,
		)
	}
	if show[faceDown] {
		vertices = append(vertices,
			+0.5, -0.5, +0.5, -0.5, -0.5, +0.5,
			-0.5, -0.5, +0.5, -0.5, -0.5, -0.5,
			-0.5, -0.5, -0.5, +0.5, -0.5, -0.5,
			+0.5, -0.5, -0.5, +0.5, -0.5, +0.5,
		)
	}
	if show[faceFront] {
		vertices = append(vertices,
			-0.5, -0.5, +0.5, +0.5, -0.5, +0.5,
			+0.5, -0.5, +0.5, +0.5, +0.5, +0.5,
			+0.5, +0.5, +0.5, -0.5, +0.5, +0.5,
			-0.5, +0.5, +0.5, -0.5, -0.5, +0.5,
		)
	}
	if show[faceBack] {
		vertices = append(vertices,
			+0.5, -0.5, -0.5, -0.5, -0.5, -0.5,
			-0.5, -0.5, -0.5, -0.5, +0.5, -0.5,
			-0.5, +0.5, -0.5, +0.5, +0.5, -0.5,
			+0.5, +0.5, -0.5, +0.5, -0.5, -0.5,
		)
	}
	return vertices
}

// WireFrame builds the selection-outline line vertices for a block whose
// face visibility mask is show.
func WireFrame(show [6]bool) []float32 {
	return appendWireFrame(nil, show)
}

// CubeData builds a full six-face cube (or plant cross) at the origin for
// the held-item preview.
func CubeData(id block.ID) []float32 {
	b := block.Get(id)
	if b.Cross {
		return appendCross(nil, vec.Vec3{}, b.Tex)
	}
	return appendCube(nil, [6]bool{true, true, true, true, true, true}, vec.Vec3{}, b.Tex)
}
