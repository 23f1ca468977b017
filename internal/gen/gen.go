// Package gen produces deterministic terrain. Generate is a pure function
// of (seed, chunk coordinate): no global state, no RNG walking, so the same
// chunk can be regenerated bit-identically at any time.
package gen

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/aquilax/go-perlin"
	"github.com/voxellab/cubeland/internal/block"
	"github.com/voxellab/cubeland/internal/vec"
)

const (
	// seaLevel is the height below which columns turn to sand.
	seaLevel = 12
	// cloudFloor..cloudCeil is the y band that may contain clouds.
	cloudFloor = 64
	cloudCeil  = 72
	// treeMargin is how far (in blocks) a neighboring column's canopy can
	// reach into this chunk.
	treeMargin = 3
)

// Generator builds initial chunk content from terrain noise.
type Generator struct {
	seed    int64
	terrain opensimplex.Noise
	veg     *perlin.Perlin
}

func New(seed int64) *Generator {
	return &Generator{
		seed:    seed,
		terrain: opensimplex.New(seed),
		veg:     perlin.NewPerlin(2, 2, 3, seed),
	}
}

func (g *Generator) Seed() int64 {
	return g.seed
}

// Generate fills the block array for the chunk at coordinate c.
func (g *Generator) Generate(c vec.Vec3) *[vec.ChunkVolume]block.ID {
	var blocks [vec.ChunkVolume]block.ID
	origin := vec.Origin(c)

	for dx := 0; dx < vec.ChunkSize; dx++ {
		for dz := 0; dz < vec.ChunkSize; dz++ {
			x, z := origin.X+dx, origin.Z+dz
			h, surface := g.columnHeight(x, z)

			for dy := 0; dy < vec.ChunkSize; dy++ {
				y := origin.Y + dy
				id := g.blockAt(x, y, z, h, surface)
				if id != block.Air {
					blocks[vec.Index(vec.Vec3{X: dx, Y: dy, Z: dz})] = id
				}
			}
		}
	}

	g.growTrees(c, origin, &blocks)
	return &blocks
}

// columnHeight returns the terrain height for a world column and the
// surface material below it.
func (g *Generator) columnHeight(x, z int) (int, block.ID) {
	f := g.fbm2(float32(x)*0.01, float32(z)*0.01, 4, 0.5, 2)
	r := g.fbm2(float32(-x)*0.01, float32(-z)*0.01, 2, 0.9, 2)
	mh := int(r*32 + 16)
	h := int(f * float32(mh))
	if h <= seaLevel {
		return seaLevel, block.Sand
	}
	return h, block.Grass
}

func (g *Generator) blockAt(x, y, z, h int, surface block.ID) block.ID {
	switch {
	case y < 0 || y >= h:
		// above ground: plants right on the surface, clouds high up
		if y == h && surface == block.Grass {
			if p := g.plantAt(x, z); p != block.Air {
				return p
			}
		}
		if y >= cloudFloor && y < cloudCeil &&
			g.fbm3(float32(x)*0.01, float32(y)*0.1, float32(z)*0.01, 8, 0.5, 2) > 0.69 {
			return block.Cloud
		}
		return block.Air
	case y == h-1:
		return surface
	case y >= h-3:
		if surface == block.Sand {
			return block.Sand
		}
		return block.Dirt
	default:
		return block.Stone
	}
}

func (g *Generator) plantAt(x, z int) block.ID {
	if g.veg.Noise2D(float64(-x)*0.1, float64(z)*0.1) > 0.18 {
		return block.TallGrass
	}
	if g.veg.Noise2D(float64(x)*0.05, float64(-z)*0.05) > 0.24 {
		return block.Flower
	}
	return block.Air
}

// treeAt reports whether a tree grows in the given world column and, if
// so, the height of its trunk base. The answer depends only on (seed, x, z)
// so that canopies crossing chunk borders stay consistent.
func (g *Generator) treeAt(x, z int) (int, bool) {
	h, surface := g.columnHeight(x, z)
	if surface != block.Grass {
		return 0, false
	}
	if g.fbm2(float32(x), float32(z), 6, 0.5, 2) <= 0.84 {
		return 0, false
	}
	return h, true
}

// growTrees stamps trunk and canopy blocks from every column whose tree
// could intersect this chunk, including columns a few blocks outside it.
func (g *Generator) growTrees(c, origin vec.Vec3, blocks *[vec.ChunkVolume]block.ID) {
	for dx := -treeMargin; dx < vec.ChunkSize+treeMargin; dx++ {
		for dz := -treeMargin; dz < vec.ChunkSize+treeMargin; dz++ {
			x, z := origin.X+dx, origin.Z+dz
			h, ok := g.treeAt(x, z)
			if !ok {
				continue
			}
			// canopy
			for y := h + 3; y < h+8; y++ {
				for ox := -3; ox <= 3; ox++ {
					for oz := -3; oz <= 3; oz++ {
						d := ox*ox + oz*oz + (y-h-4)*(y-h-4)
						if d < 11 {
							g.stamp(c, blocks, vec.Vec3{X: x + ox, Y: y, Z: z + oz}, block.Leaves, false)
						}
					}
				}
			}
			// trunk
			for y := h; y < h+7; y++ {
				g.stamp(c, blocks, vec.Vec3{X: x, Y: y, Z: z}, block.Wood, true)
			}
		}
	}
}

// stamp writes id at global coordinate p if p falls inside chunk c.
// Trunk blocks overwrite leaves; leaves never overwrite terrain.
func (g *Generator) stamp(c vec.Vec3, blocks *[vec.ChunkVolume]block.ID, p vec.Vec3, id block.ID, force bool) {
	if p.Chunk() != c {
		return
	}
	i := vec.Index(p.Local())
	if !force {
		switch blocks[i] {
		case block.Air, block.TallGrass, block.Flower:
		default:
			return
		}
	}
	blocks[i] = id
}

func (g *Generator) fbm2(x, y float32, octaves int, persistence, lacunarity float32) float32 {
	var (
		freq  float32 = 1
		amp   float32 = 1
		max   float32 = 1
		total         = g.terrain.Eval2(float64(x), float64(y))
	)
	for i := 0; i < octaves; i++ {
		freq *= lacunarity
		amp *= persistence
		max += amp
		total += g.terrain.Eval2(float64(x*freq), float64(y*freq)) * float64(amp)
	}
	return (1 + float32(total)/max) / 2
}

func (g *Generator) fbm3(x, y, z float32, octaves int, persistence, lacunarity float32) float32 {
	var (
		freq  float32 = 1
		amp   float32 = 1
		max   float32 = 1
		total         = g.terrain.Eval3(float64(x), float64(y), float64(z))
	)
	for i := 0; i < octaves; i++ {
		freq *= lacunarity
		amp *= persistence
		max += amp
		total += g.terrain.Eval3(float64(x*freq), float64(y*freq), float64(z*freq)) * float64(amp)
	}
	return (1 + float32(total)/max) / 2
}
