// Package world owns all voxel state: the sparse chunk map, the dirty set
// and every block mutation. Other components hold non-owning bookkeeping
// keyed by chunk coordinate, never block data.
package world

import (
	"log"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/voxellab/cubeland/internal/block"
	"github.com/voxellab/cubeland/internal/vec"
)

// evictCacheSize bounds the recently-evicted snapshot cache.
const evictCacheSize = 256

// Generator produces initial chunk content. It must be pure: the same
// coordinate always yields identical blocks for the same seed.
type Generator interface {
	Generate(c vec.Vec3) *[vec.ChunkVolume]block.ID
	Seed() int64
}

// Storage persists chunk block arrays. Implementations must round-trip
// exactly. A nil Storage is allowed for throwaway worlds.
type Storage interface {
	LoadChunk(c vec.Vec3) (*[vec.ChunkVolume]block.ID, bool, error)
	SaveChunk(c vec.Vec3, blocks *[vec.ChunkVolume]block.ID) error
}

// ChangeFunc observes committed block mutations.
type ChangeFunc func(p vec.Vec3, old, new block.ID)

// World maps chunk coordinates to chunks. All mutation happens on the
// frame thread; BuildBlocks is the only method safe to call from workers.
type World struct {
	gen   Generator
	store Storage

	chunks  map[vec.Vec3]*Chunk
	loading map[vec.Vec3]bool
	dirty   map[vec.Vec3]struct{}

	// evicted caches snapshots of recently unloaded chunks so a player
	// doubling back does not pay for regeneration.
	evicted *lru.Cache

	listeners []ChangeFunc
}

func New(gen Generator, store Storage) *World {
	cache, err := lru.New(evictCacheSize)
	if err != nil {
		log.Panicf("evict cache: %v", err)
	}
	return &World{
		gen:     gen,
		store:   store,
		chunks:  make(map[vec.Vec3]*Chunk),
		loading: make(map[vec.Vec3]bool),
		dirty:   make(map[vec.Vec3]struct{}),
		evicted: cache,
	}
}

// OnChange registers a listener for committed block writes.
func (w *World) OnChange(fn ChangeFunc) {
	w.listeners = append(w.listeners, fn)
}

// Chunk returns the Ready chunk at coordinate c, or nil.
func (w *World) Chunk(c vec.Vec3) *Chunk {
	return w.chunks[c]
}

// State returns the load state of the chunk at coordinate c.
func (w *World) State(c vec.Vec3) LoadState {
	if _, ok := w.chunks[c]; ok {
		return Ready
	}
	if w.loading[c] {
		return Loading
	}
	return Unloaded
}

// ChunkReady implements mesh.BlockSource.
func (w *World) ChunkReady(c vec.Vec3) bool {
	_, ok := w.chunks[c]
	return ok
}

// GetBlock returns the block at a global coordinate. Queries are total:
// coordinates in unloaded chunks read as air.
func (w *World) GetBlock(g vec.Vec3) block.ID {
	chunk, ok := w.chunks[g.Chunk()]
	if !ok {
		return block.Air
	}
	return chunk.Block(g.Local())
}

// BlockAt implements mesh.BlockSource.
func (w *World) BlockAt(g vec.Vec3) block.ID {
	return w.GetBlock(g)
}

// IsSolid reports whether the block at g obstructs the player capsule.
func (w *World) IsSolid(g vec.Vec3) bool {
	return block.IsSolid(w.GetBlock(g))
}

// SetBlock writes a block at a global coordinate. The containing chunk
// must be Ready or the write is a silent no-op. A write that does not
// change the stored value dirties nothing. Otherwise the owning chunk is
// marked dirty, along with every Ready neighbor chunk sharing the mutated
// face, since that neighbor's face culling depends on this boundary.
func (w *World) SetBlock(g vec.Vec3, id block.ID) {
	if !block.Valid(id) {
		log.Panicf("set of invalid block id %d at %v", id, g)
	}
	cid := g.Chunk()
	chunk, ok := w.chunks[cid]
	if !ok {
		return
	}
	local := g.Local()
	old := chunk.Block(local)
	if !chunk.set(local, id) {
		return
	}
	w.MarkDirty(cid)
	for _, n := range boundaryNeighbors(cid, local) {
		w.MarkDirty(n)
	}
	for _, fn := range w.listeners {
		fn(g, old, id)
	}
}

// boundaryNeighbors returns the chunk coordinates that share the face of
// a mutated block sitting on a chunk boundary.
func boundaryNeighbors(cid, local vec.Vec3) []vec.Vec3 {
	var out []vec.Vec3
	if local.X == 0 {
		out = append(out, cid.Left())
	}
	if local.X == vec.ChunkSize-1 {
		out = append(out, cid.Right())
	}
	if local.Y == 0 {
		out = append(out, cid.Down())
	}
	if local.Y == vec.ChunkSize-1 {
		out = append(out, cid.Up())
	}
	if local.Z == 0 {
		out = append(out, cid.Back())
	}
	if local.Z == vec.ChunkSize-1 {
		out = append(out, cid.Front())
	}
	return out
}

// BuildBlocks produces the block array for a chunk without touching the
// chunk map, so it may run on a worker. Precedence: recently evicted
// snapshot, then persisted data, then the generator.
func (w *World) BuildBlocks(c vec.Vec3) (*[vec.ChunkVolume]block.ID, error) {
	if cached, ok := w.evicted.Get(c); ok {
		blocks := *cached.(*[vec.ChunkVolume]block.ID)
		return &blocks, nil
	}
	if w.store != nil {
		blocks, ok, err := w.store.LoadChunk(c)
		if err != nil {
			return nil, errors.Wrapf(err, "load chunk %v", c)
		}
		if ok {
			if err := validateBlocks(blocks); err != nil {
				return nil, errors.Wrapf(err, "persisted chunk %v", c)
			}
			return blocks, nil
		}
	}
	blocks := w.gen.Generate(c)
	if err := validateBlocks(blocks); err != nil {
		// Generator misbehavior is a configuration error, never silent
		// world corruption.
		return nil, errors.Wrapf(err, "generator output for chunk %v", c)
	}
	return blocks, nil
}

// validateBlocks rejects identifiers outside the catalog.
func validateBlocks(blocks *[vec.ChunkVolume]block.ID) error {
	for i, id := range blocks {
		if !block.Valid(id) {
			return errors.Errorf("invalid block id %d at %v", id, vec.Unindex(i))
		}
	}
	return nil
}

// MarkLoading records that a background load is in flight for c.
func (w *World) MarkLoading(c vec.Vec3) {
	if _, ok := w.chunks[c]; !ok {
		w.loading[c] = true
	}
}

// AbandonLoading drops the in-flight marker, used when a stale background
// result is discarded.
func (w *World) AbandonLoading(c vec.Vec3) {
	delete(w.loading, c)
}

// AdoptChunk publishes finished blocks as the Ready chunk at c. The new
// chunk is dirty, and Ready face neighbors are re-dirtied so boundaries
// meshed against the solid default get corrected.
func (w *World) AdoptChunk(c vec.Vec3, blocks *[vec.ChunkVolume]block.ID) *Chunk {
	delete(w.loading, c)
	if existing, ok := w.chunks[c]; ok {
		return existing
	}
	chunk := newChunk(c, blocks)
	w.chunks[c] = chunk
	w.MarkDirty(c)
	for _, n := range c.Neighbors() {
		w.MarkDirty(n)
	}
	return chunk
}

// LoadChunk synchronously builds and publishes the chunk at c. Loading a
// Ready chunk is a no-op returning the existing chunk.
func (w *World) LoadChunk(c vec.Vec3) (*Chunk, error) {
	if chunk, ok := w.chunks[c]; ok {
		return chunk, nil
	}
	blocks, err := w.BuildBlocks(c)
	if err != nil {
		return nil, err
	}
	return w.AdoptChunk(c, blocks), nil
}

// UnloadChunk evicts a Ready chunk. Unsaved edits are flushed to storage
// first; if the flush fails the chunk stays Ready and the error is
// returned, so data loss is never silent.
func (w *World) UnloadChunk(c vec.Vec3) error {
	chunk, ok := w.chunks[c]
	if !ok {
		return nil
	}
	snapshot := chunk.Snapshot()
	if chunk.modified {
		if w.store == nil {
			return errors.Errorf("chunk %v has unsaved edits and no storage is configured", c)
		}
		if err := w.store.SaveChunk(c, snapshot); err != nil {
			return errors.Wrapf(err, "flush chunk %v", c)
		}
		chunk.modified = false
	}
	w.evicted.Add(c, snapshot)
	delete(w.chunks, c)
	delete(w.dirty, c)
	return nil
}

// Flush writes every modified Ready chunk to storage, for shutdown and
// periodic saves.
func (w *World) Flush() error {
	if w.store == nil {
		return nil
	}
	for c, chunk := range w.chunks {
		if !chunk.modified {
			continue
		}
		if err := w.store.SaveChunk(c, chunk.Snapshot()); err != nil {
			return errors.Wrapf(err, "flush chunk %v", c)
		}
		chunk.modified = false
	}
	return nil
}

// MarkDirty queues a Ready chunk for remeshing.
func (w *World) MarkDirty(c vec.Vec3) {
	if _, ok := w.chunks[c]; ok {
		w.dirty[c] = struct{}{}
	}
}

// IsDirty reports whether c awaits a remesh.
func (w *World) IsDirty(c vec.Vec3) bool {
	_, ok := w.dirty[c]
	return ok
}

// DirtyChunks returns the chunk coordinates awaiting remesh.
func (w *World) DirtyChunks() []vec.Vec3 {
	out := make([]vec.Vec3, 0, len(w.dirty))
	for c := range w.dirty {
		out = append(out, c)
	}
	return out
}

// ClearDirty removes c from the dirty set, called after a remesh.
func (w *World) ClearDirty(c vec.Vec3) {
	delete(w.dirty, c)
}

// ReadyChunks returns all Ready chunk coordinates.
func (w *World) ReadyChunks() []vec.Vec3 {
	out := make([]vec.Vec3, 0, len(w.chunks))
	for c := range w.chunks {
		out = append(out, c)
	}
	return out
}

// Seed returns the generator seed backing this world.
func (w *World) Seed() int64 {
	return w.gen.Seed()
}
