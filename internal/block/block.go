// Package block holds the immutable block catalog. Blocks carry no
// per-instance state; a block.ID indexes into the catalog and everything
// else (opacity, textures, collision) is looked up from there.
package block

// ID identifies a block material. 0 is always air.
type ID uint8

const (
	Air ID = iota
	Grass
	Sand
	Stone
	Brick
	Wood
	Cement
	Dirt
	Plank
	Snow
	Glass
	Cobble
	LightStone
	DarkStone
	Chest
	Leaves
	Cloud
	TallGrass
	Flower
	Count // number of catalog entries, not a placeable block
)

// Opacity classifies how a block interacts with face culling.
type Opacity uint8

const (
	// Empty cells never occlude and emit no geometry.
	Empty Opacity = iota
	// Transparent blocks emit geometry but do not occlude neighbors.
	Transparent
	// Opaque blocks occlude every neighboring face.
	Opaque
)

// FaceTextures are atlas tile indices in the order
// left, right, up, down, front, back.
type FaceTextures [6]int

// Block is one catalog entry.
type Block struct {
	Name    string
	Opacity Opacity
	// Solid blocks obstruct the player capsule.
	Solid bool
	// Cross blocks render as two crossed quads instead of a cube.
	Cross bool
	Tex   FaceTextures
}

var catalog = [Count]Block{
	Air:        {Name: "air", Opacity: Empty},
	Grass:      {Name: "grass", Opacity: Opaque, Solid: true, Tex: FaceTextures{16, 16, 32, 0, 16, 16}},
	Sand:       {Name: "sand", Opacity: Opaque, Solid: true, Tex: FaceTextures{1, 1, 1, 1, 1, 1}},
	Stone:      {Name: "stone", Opacity: Opaque, Solid: true, Tex: FaceTextures{2, 2, 2, 2, 2, 2}},
	Brick:      {Name: "brick", Opacity: Opaque, Solid: true, Tex: FaceTextures{3, 3, 3, 3, 3, 3}},
	Wood:       {Name: "wood", Opacity: Opaque, Solid: true, Tex: FaceTextures{20, 20, 36, 4, 20, 20}},
	Cement:     {Name: "cement", Opacity: Opaque, Solid: true, Tex: FaceTextures{5, 5, 5, 5, 5, 5}},
	Dirt:       {Name: "dirt", Opacity: Opaque, Solid: true, Tex: FaceTextures{6, 6, 6, 6, 6, 6}},
	Plank:      {Name: "plank", Opacity: Opaque, Solid: true, Tex: FaceTextures{7, 7, 7, 7, 7, 7}},
	Snow:       {Name: "snow", Opacity: Opaque, Solid: true, Tex: FaceTextures{24, 24, 40, 8, 24, 24}},
	Glass:      {Name: "glass", Opacity: Transparent, Solid: true, Tex: FaceTextures{9, 9, 9, 9, 9, 9}},
	Cobble:     {Name: "cobble", Opacity: Opaque, Solid: true, Tex: FaceTextures{10, 10, 10, 10, 10, 10}},
	LightStone: {Name: "light stone", Opacity: Opaque, Solid: true, Tex: FaceTextures{11, 11, 11, 11, 11, 11}},
	DarkStone:  {Name: "dark stone", Opacity: Opaque, Solid: true, Tex: FaceTextures{12, 12, 12, 12, 12, 12}},
	Chest:      {Name: "chest", Opacity: Opaque, Solid: true, Tex: FaceTextures{13, 13, 14, 14, 13, 13}},
	Leaves:     {Name: "leaves", Opacity: Transparent, Solid: true, Tex: FaceTextures{15, 15, 15, 15, 15, 15}},
	Cloud:      {Name: "cloud", Opacity: Transparent, Solid: false, Tex: FaceTextures{26, 26, 26, 26, 26, 26}},
	TallGrass:  {Name: "tall grass", Opacity: Transparent, Solid: false, Cross: true, Tex: FaceTextures{17, 17, 17, 17, 17, 17}},
	Flower:     {Name: "flower", Opacity: Transparent, Solid: false, Cross: true, Tex: FaceTextures{18, 18, 18, 18, 18, 18}},
}

// Palette lists the blocks the player can cycle through and place.
var Palette = []ID{
	Grass, Sand, Stone, Brick, Wood, Cement, Dirt, Plank,
	Snow, Glass, Cobble, LightStone, DarkStone, Chest, Leaves,
	TallGrass, Flower,
}

// Get returns the catalog entry for id. Unknown identifiers read as air so
// that queries stay total even on corrupt input.
func Get(id ID) Block {
	if id >= Count {
		return catalog[Air]
	}
	return catalog[id]
}

// Valid reports whether id is a known catalog entry.
func Valid(id ID) bool {
	return id < Count
}

func IsAir(id ID) bool {
	return id == Air || id >= Count
}

// IsOpaque reports whether id fully occludes neighboring faces.
func IsOpaque(id ID) bool {
	return Get(id).Opacity == Opaque
}

// IsTransparent reports whether id lets neighbor faces show through.
// Air counts as transparent for face-culling purposes.
func IsTransparent(id ID) bool {
	return Get(id).Opacity != Opaque
}

// IsSolid reports whether id obstructs the player capsule.
func IsSolid(id ID) bool {
	return Get(id).Solid
}
