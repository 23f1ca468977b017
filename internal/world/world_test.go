package world

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/voxellab/cubeland/internal/block"
	"github.com/voxellab/cubeland/internal/vec"
)

// flatGen fills the bottom half of every y=0 chunk with stone.
type flatGen struct{}

func (flatGen) Seed() int64 { return 0 }

func (flatGen) Generate(c vec.Vec3) *[vec.ChunkVolume]block.ID {
	var blocks [vec.ChunkVolume]block.ID
	if c.Y != 0 {
		return &blocks
	}
	for x := 0; x < vec.ChunkSize; x++ {
		for z := 0; z < vec.ChunkSize; z++ {
			for y := 0; y < vec.ChunkSize/2; y++ {
				blocks[vec.Index(vec.Vec3{X: x, Y: y, Z: z})] = block.Stone
			}
		}
	}
	return &blocks
}

// badGen emits an out-of-catalog identifier.
type badGen struct{ flatGen }

func (badGen) Generate(c vec.Vec3) *[vec.ChunkVolume]block.ID {
	var blocks [vec.ChunkVolume]block.ID
	blocks[0] = block.ID(250)
	return &blocks
}

// memStore is an in-memory Storage.
type memStore struct {
	chunks map[vec.Vec3][vec.ChunkVolume]block.ID
	fail   error
}

func newMemStore() *memStore {
	return &memStore{chunks: make(map[vec.Vec3][vec.ChunkVolume]block.ID)}
}

func (s *memStore) LoadChunk(c vec.Vec3) (*[vec.ChunkVolume]block.ID, bool, error) {
	blocks, ok := s.chunks[c]
	if !ok {
		return nil, false, nil
	}
	return &blocks, true, nil
}

func (s *memStore) SaveChunk(c vec.Vec3, blocks *[vec.ChunkVolume]block.ID) error {
	if s.fail != nil {
		return s.fail
	}
	s.chunks[c] = *blocks
	return nil
}

func TestGetBlockTotalOverUnloaded(t *testing.T) {
	w := New(flatGen{}, nil)
	require.Equal(t, block.Air, w.GetBlock(vec.Vec3{X: 1000, Y: -50, Z: 3}))
	require.Equal(t, block.Air, w.GetBlock(vec.Vec3{X: 0, Y: 0, Z: 0}))
}

func TestSetBlockOnUnloadedChunkIsNoop(t *testing.T) {
	w := New(flatGen{}, nil)
	w.SetBlock(vec.Vec3{X: 0, Y: 0, Z: 0}, block.Brick)
	require.Equal(t, block.Air, w.GetBlock(vec.Vec3{X: 0, Y: 0, Z: 0}))
	require.Empty(t, w.DirtyChunks())
}

func TestSetBlockDirtyPropagation(t *testing.T) {
	w := New(flatGen{}, nil)
	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			_, err := w.LoadChunk(vec.Vec3{X: dx, Y: 0, Z: dz})
			require.NoError(t, err)
		}
	}
	for _, c := range w.ReadyChunks() {
		w.ClearDirty(c)
	}

	// Interior write dirties only the owning chunk.
	w.SetBlock(vec.Vec3{X: 5, Y: 14, Z: 5}, block.Brick)
	require.ElementsMatch(t, []vec.Vec3{{X: 0, Y: 0, Z: 0}}, w.DirtyChunks())
	w.ClearDirty(vec.Vec3{X: 0, Y: 0, Z: 0})

	// Boundary write dirties the owner and the face-sharing neighbor.
	w.SetBlock(vec.Vec3{X: 15, Y: 14, Z: 5}, block.Brick)
	require.ElementsMatch(t, []vec.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}}, w.DirtyChunks())
	for _, c := range w.DirtyChunks() {
		w.ClearDirty(c)
	}

	// Corner write dirties one neighbor per boundary axis.
	w.SetBlock(vec.Vec3{X: 0, Y: 14, Z: 0}, block.Brick)
	require.ElementsMatch(t,
		[]vec.Vec3{{X: 0, Y: 0, Z: 0}, {X: -1, Y: 0, Z: 0}, {X: 0, Y: 0, Z: -1}},
		w.DirtyChunks())
}

func TestSetBlockNoChangeDirtiesNothing(t *testing.T) {
	w := New(flatGen{}, nil)
	_, err := w.LoadChunk(vec.Vec3{X: 0, Y: 0, Z: 0})
	require.NoError(t, err)
	w.ClearDirty(vec.Vec3{X: 0, Y: 0, Z: 0})

	w.SetBlock(vec.Vec3{X: 3, Y: 3, Z: 3}, block.Stone) // already stone
	require.Empty(t, w.DirtyChunks())
}

func TestLoadChunkDeterministicAcrossReload(t *testing.T) {
	w := New(flatGen{}, nil)
	c := vec.Vec3{X: 2, Y: 0, Z: -3}

	first, err := w.LoadChunk(c)
	require.NoError(t, err)
	blocks := first.Snapshot()

	require.NoError(t, w.UnloadChunk(c))
	require.Equal(t, Unloaded, w.State(c))

	// Reload within the same world may be served from the evict cache.
	second, err := w.LoadChunk(c)
	require.NoError(t, err)
	require.Equal(t, blocks, second.Snapshot())

	// A fresh world has no cache: the chunk must regenerate identically.
	w2 := New(flatGen{}, nil)
	third, err := w2.LoadChunk(c)
	require.NoError(t, err)
	require.Equal(t, blocks, third.Snapshot())
}

func TestUnloadFlushesEditsAndReloadKeepsThem(t *testing.T) {
	store := newMemStore()
	w := New(flatGen{}, store)
	c := vec.Vec3{X: 0, Y: 0, Z: 0}
	_, err := w.LoadChunk(c)
	require.NoError(t, err)

	edit := vec.Vec3{X: 4, Y: 12, Z: 4}
	w.SetBlock(edit, block.Brick)
	require.NoError(t, w.UnloadChunk(c))
	require.Contains(t, store.chunks, c)

	// Defeat the evict cache to force the storage path.
	w2 := New(flatGen{}, store)
	_, err = w2.LoadChunk(c)
	require.NoError(t, err)
	require.Equal(t, block.Brick, w2.GetBlock(edit))
}

func TestUnloadFailureKeepsChunkReady(t *testing.T) {
	store := newMemStore()
	store.fail = errors.New("disk full")
	w := New(flatGen{}, store)
	c := vec.Vec3{X: 0, Y: 0, Z: 0}
	_, err := w.LoadChunk(c)
	require.NoError(t, err)

	w.SetBlock(vec.Vec3{X: 1, Y: 12, Z: 1}, block.Brick)
	err = w.UnloadChunk(c)
	require.Error(t, err)
	require.Equal(t, Ready, w.State(c))
	require.Equal(t, block.Brick, w.GetBlock(vec.Vec3{X: 1, Y: 12, Z: 1}))

	// Retry succeeds once storage recovers.
	store.fail = nil
	require.NoError(t, w.UnloadChunk(c))
	require.Equal(t, Unloaded, w.State(c))
}

func TestUnloadWithEditsAndNoStorageFails(t *testing.T) {
	w := New(flatGen{}, nil)
	c := vec.Vec3{X: 0, Y: 0, Z: 0}
	_, err := w.LoadChunk(c)
	require.NoError(t, err)

	w.SetBlock(vec.Vec3{X: 1, Y: 12, Z: 1}, block.Brick)
	require.Error(t, w.UnloadChunk(c))
	require.Equal(t, Ready, w.State(c))
}

func TestGeneratorValidationFailsLoad(t *testing.T) {
	w := New(badGen{}, nil)
	_, err := w.LoadChunk(vec.Vec3{X: 0, Y: 0, Z: 0})
	require.Error(t, err)
	require.Equal(t, Unloaded, w.State(vec.Vec3{X: 0, Y: 0, Z: 0}))
}

func TestAdoptChunkDirtiesReadyNeighbors(t *testing.T) {
	w := New(flatGen{}, nil)
	_, err := w.LoadChunk(vec.Vec3{X: 0, Y: 0, Z: 0})
	require.NoError(t, err)
	w.ClearDirty(vec.Vec3{X: 0, Y: 0, Z: 0})

	blocks, err := w.BuildBlocks(vec.Vec3{X: 1, Y: 0, Z: 0})
	require.NoError(t, err)
	w.AdoptChunk(vec.Vec3{X: 1, Y: 0, Z: 0}, blocks)

	// The neighbor meshed against the solid-boundary default must be
	// queued for correction.
	require.True(t, w.IsDirty(vec.Vec3{X: 0, Y: 0, Z: 0}))
	require.True(t, w.IsDirty(vec.Vec3{X: 1, Y: 0, Z: 0}))
}

func TestChangeListener(t *testing.T) {
	w := New(flatGen{}, nil)
	_, err := w.LoadChunk(vec.Vec3{X: 0, Y: 0, Z: 0})
	require.NoError(t, err)

	var got []block.ID
	w.OnChange(func(p vec.Vec3, old, new block.ID) {
		got = append(got, old, new)
	})

	w.SetBlock(vec.Vec3{X: 2, Y: 12, Z: 2}, block.Glass)
	w.SetBlock(vec.Vec3{X: 2, Y: 12, Z: 2}, block.Glass) // no-op, no callback
	require.Equal(t, []block.ID{block.Air, block.Glass}, got)
}
