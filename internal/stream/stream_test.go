package stream

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
	"github.com/voxellab/cubeland/internal/block"
	"github.com/voxellab/cubeland/internal/vec"
	"github.com/voxellab/cubeland/internal/world"
)

type emptyGen struct{}

func (emptyGen) Seed() int64 { return 0 }
func (emptyGen) Generate(c vec.Vec3) *[vec.ChunkVolume]block.ID {
	return &[vec.ChunkVolume]block.ID{}
}

type memStore struct {
	chunks map[vec.Vec3][vec.ChunkVolume]block.ID
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
	s.chunks[c] = *blocks
	return nil
}

// waitResults blocks until n finished loads sit in the results queue.
func waitResults(t *testing.T, s *Streamer, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(s.results) >= n
	}, 2*time.Second, time.Millisecond)
}

func TestLoadsNearestChunkFirst(t *testing.T) {
	w := world.New(emptyGen{}, nil)
	s := New(w, Options{Radius: 2, LoadsPerFrame: 1, Workers: 1})
	defer s.Close()

	eye := mgl32.Vec3{0, 0, 0}
	s.Update(eye)
	require.Equal(t, 1, s.Pending())
	require.Equal(t, world.Loading, w.State(vec.Vec3{X: 0, Y: 0, Z: 0}))

	waitResults(t, s, 1)
	s.Update(eye)
	require.Equal(t, world.Ready, w.State(vec.Vec3{X: 0, Y: 0, Z: 0}))
}

func TestLoadBudgetBoundsRequests(t *testing.T) {
	w := world.New(emptyGen{}, nil)
	s := New(w, Options{Radius: 3, LoadsPerFrame: 5, Workers: 1})
	defer s.Close()

	s.Update(mgl32.Vec3{0, 0, 0})
	require.Equal(t, 5, s.Pending())
}

func TestUnloadBudgetBoundsEvictions(t *testing.T) {
	w := world.New(emptyGen{}, nil)
	far := []vec.Vec3{
		{X: 5, Y: 0, Z: 0}, {X: 6, Y: 0, Z: 0}, {X: 7, Y: 0, Z: 0},
		{X: 5, Y: 5, Z: 0}, {X: 6, Y: 5, Z: 0}, {X: 7, Y: 5, Z: 0},
	}
	for _, c := range far {
		_, err := w.LoadChunk(c)
		require.NoError(t, err)
	}

	s := New(w, Options{Radius: 1, LoadsPerFrame: 1, UnloadsPerFrame: 2, Workers: 1})
	defer s.Close()

	ready := func() int {
		n := 0
		for _, c := range far {
			if w.State(c) == world.Ready {
				n++
			}
		}
		return n
	}

	eye := mgl32.Vec3{0, 0, 0}
	s.Update(eye)
	require.Equal(t, 4, ready())
	s.Update(eye)
	require.Equal(t, 2, ready())
	s.Update(eye)
	require.Equal(t, 0, ready())
}

func TestStaleLoadResultDiscarded(t *testing.T) {
	w := world.New(emptyGen{}, nil)
	s := New(w, Options{Radius: 1, LoadsPerFrame: 32, Workers: 1})
	defer s.Close()

	s.Update(mgl32.Vec3{0, 0, 0})
	pending := s.Pending()
	require.Greater(t, pending, 0)
	waitResults(t, s, pending)

	// Teleport far away before the results are applied; every one of them
	// is now out of range and must be dropped, not published.
	s.Update(mgl32.Vec3{1000, 0, 0})
	require.NotEqual(t, world.Ready, w.State(vec.Vec3{X: 0, Y: 0, Z: 0}))
	require.NotEqual(t, world.Loading, w.State(vec.Vec3{X: 0, Y: 0, Z: 0}))
}

func TestRemeshBudgetAndRevisionTracking(t *testing.T) {
	w := world.New(emptyGen{}, nil)
	coords := []vec.Vec3{{X: 0, Y: 0, Z: 0}, {X: 3, Y: 0, Z: 0}, {X: 0, Y: 0, Z: 3}}
	for _, c := range coords {
		_, err := w.LoadChunk(c)
		require.NoError(t, err)
		w.ClearDirty(c)
	}
	for _, c := range coords {
		w.SetBlock(vec.Origin(c).Add(vec.Vec3{X: 4, Y: 4, Z: 4}), block.Stone)
	}
	require.Len(t, w.DirtyChunks(), 3)

	s := New(w, Options{Radius: 8, LoadsPerFrame: 1, MeshesPerFrame: 2, Workers: 1})
	defer s.Close()

	// Drive the remesh stage directly so async loads cannot interleave.
	s.remesh(vec.Vec3{X: 0, Y: 0, Z: 0})
	require.Len(t, w.DirtyChunks(), 1)
	// Nearest chunk is meshed first and its mesh matches its revision.
	require.True(t, w.Chunk(vec.Vec3{X: 0, Y: 0, Z: 0}).MeshCurrent())

	s.remesh(vec.Vec3{X: 0, Y: 0, Z: 0})
	for _, c := range coords {
		require.True(t, w.Chunk(c).MeshCurrent(), "chunk %v", c)
		require.Equal(t, 6, w.Chunk(c).Mesh().OpaqueFaces())
	}
}

func TestCloseReturnsWithWorkersBlockedOnFullQueue(t *testing.T) {
	w := world.New(emptyGen{}, nil)
	// Queue more work than the results buffer can hold so every worker
	// ends up blocked mid-send.
	s := New(w, Options{Radius: 5, LoadsPerFrame: 400, Workers: 4})
	s.Update(mgl32.Vec3{0, 0, 0})
	require.Eventually(t, func() bool {
		return len(s.results) == cap(s.results)
	}, 2*time.Second, time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close hung with workers blocked on the results queue")
	}
}

func TestEditWhileLoadedSurvivesRoundTrip(t *testing.T) {
	w := world.New(emptyGen{}, newMemStore())
	_, err := w.LoadChunk(vec.Vec3{X: 0, Y: 0, Z: 0})
	require.NoError(t, err)
	w.SetBlock(vec.Vec3{X: 1, Y: 2, Z: 3}, block.Brick)

	s := New(w, Options{Radius: 1, LoadsPerFrame: 8, UnloadsPerFrame: 8, Workers: 1})
	defer s.Close()

	// Walk far enough for the edited chunk to unload...
	s.Update(mgl32.Vec3{200, 0, 0})
	require.Equal(t, world.Unloaded, w.State(vec.Vec3{X: 0, Y: 0, Z: 0}))

	// ...then come back and wait for it to stream in again.
	require.Eventually(t, func() bool {
		s.Update(mgl32.Vec3{0, 0, 0})
		return w.State(vec.Vec3{X: 0, Y: 0, Z: 0}) == world.Ready
	}, 2*time.Second, time.Millisecond)
	require.Equal(t, block.Brick, w.GetBlock(vec.Vec3{X: 1, Y: 2, Z: 3}))
}
