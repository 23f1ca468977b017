// Package stream keeps the set of loaded chunks matched to the player's
// position. Block building runs on worker goroutines; everything that
// touches the chunk map happens on the frame thread inside Update.
package stream

import (
	"log"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxellab/cubeland/internal/block"
	"github.com/voxellab/cubeland/internal/mesh"
	"github.com/voxellab/cubeland/internal/vec"
	"github.com/voxellab/cubeland/internal/world"
)

type Options struct {
	// Radius is the load radius in chunks around the player's chunk.
	Radius int

	// Per-frame work caps. Loading and meshing spread across frames so a
	// fast-moving player costs bounded frame time.
	LoadsPerFrame   int
	UnloadsPerFrame int
	MeshesPerFrame  int
	Workers         int
}

func (o *Options) fill() {
	if o.Radius < 1 {
		o.Radius = 10
	}
	if o.LoadsPerFrame < 1 {
		o.LoadsPerFrame = 8
	}
	if o.UnloadsPerFrame < 1 {
		o.UnloadsPerFrame = 4
	}
	if o.MeshesPerFrame < 1 {
		o.MeshesPerFrame = 6
	}
	if o.Workers < 1 {
		o.Workers = 4
	}
}

type loadResult struct {
	coord  vec.Vec3
	blocks *[vec.ChunkVolume]block.ID
	err    error
}

// Streamer drives chunk loading, unloading and remeshing around the
// player. Update must be called from the frame thread only.
type Streamer struct {
	world  *world.World
	mesher *mesh.Mesher
	opts   Options

	jobs    chan vec.Vec3
	results chan loadResult
	wg      sync.WaitGroup

	inflight int
}

func New(w *world.World, opts Options) *Streamer {
	opts.fill()
	s := &Streamer{
		world:   w,
		mesher:  mesh.NewMesher(),
		opts:    opts,
		jobs:    make(chan vec.Vec3, 256),
		results: make(chan loadResult, 256),
	}
	for i := 0; i < opts.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

func (s *Streamer) worker() {
	defer s.wg.Done()
	for c := range s.jobs {
		blocks, err := s.world.BuildBlocks(c)
		s.results <- loadResult{coord: c, blocks: blocks, err: err}
	}
}

// Close stops the workers and discards any in-flight results. The results
// queue is drained while waiting: a worker blocked on a full queue must be
// able to finish its send before it can exit.
func (s *Streamer) Close() {
	close(s.jobs)
	go func() {
		s.wg.Wait()
		close(s.results)
	}()
	for r := range s.results {
		s.world.AbandonLoading(r.coord)
	}
}

// Pending returns the number of chunk loads in flight.
func (s *Streamer) Pending() int { return s.inflight }

// Update advances streaming for one frame: finished loads are published,
// missing chunks inside the radius are requested nearest-first, chunks
// outside the keep radius are evicted, and dirty chunks are remeshed. All
// four stages respect their per-frame budgets.
func (s *Streamer) Update(eye mgl32.Vec3) {
	center := vec.Near(eye).Chunk()
	s.adoptResults(center)
	s.requestLoads(center)
	s.unloadFar(center)
	s.remesh(center)
}

// keepRadius adds one chunk of hysteresis so a player oscillating on a
// boundary does not thrash load/unload.
func (s *Streamer) keepRadius() int { return s.opts.Radius + 1 }

func inRange(center, c vec.Vec3, radius int) bool {
	return center.DistSq(c) <= radius*radius
}

func (s *Streamer) adoptResults(center vec.Vec3) {
	for {
		select {
		case r := <-s.results:
			s.inflight--
			switch {
			case r.err != nil:
				log.Printf("chunk %v load failed: %v", r.coord, r.err)
				s.world.AbandonLoading(r.coord)
			case !inRange(center, r.coord, s.keepRadius()):
				// The player moved on while this was in flight.
				s.world.AbandonLoading(r.coord)
			default:
				s.world.AdoptChunk(r.coord, r.blocks)
			}
		default:
			return
		}
	}
}

func (s *Streamer) requestLoads(center vec.Vec3) {
	r := s.opts.Radius
	var missing []vec.Vec3
	for x := -r; x <= r; x++ {
		for y := -r; y <= r; y++ {
			for z := -r; z <= r; z++ {
				c := vec.Vec3{X: center.X + x, Y: center.Y + y, Z: center.Z + z}
				if !inRange(center, c, r) {
					continue
				}
				if s.world.State(c) == world.Unloaded {
					missing = append(missing, c)
				}
			}
		}
	}
	sort.Slice(missing, func(i, j int) bool {
		return center.DistSq(missing[i]) < center.DistSq(missing[j])
	})

	budget := s.opts.LoadsPerFrame
	for _, c := range missing {
		if budget == 0 {
			return
		}
		select {
		case s.jobs <- c:
			s.world.MarkLoading(c)
			s.inflight++
			budget--
		default:
			// Queue is full; try again next frame.
			return
		}
	}
}

func (s *Streamer) unloadFar(center vec.Vec3) {
	keep := s.keepRadius()
	var far []vec.Vec3
	for _, c := range s.world.ReadyChunks() {
		if !inRange(center, c, keep) {
			far = append(far, c)
		}
	}
	sort.Slice(far, func(i, j int) bool {
		return center.DistSq(far[i]) > center.DistSq(far[j])
	})

	budget := s.opts.UnloadsPerFrame
	for _, c := range far {
		if budget == 0 {
			return
		}
		if err := s.world.UnloadChunk(c); err != nil {
			// The chunk stays Ready; eviction retries next frame.
			log.Printf("chunk %v unload failed: %v", c, err)
			continue
		}
		budget--
	}
}

func (s *Streamer) remesh(center vec.Vec3) {
	dirty := s.world.DirtyChunks()
	sort.Slice(dirty, func(i, j int) bool {
		return center.DistSq(dirty[i]) < center.DistSq(dirty[j])
	})

	budget := s.opts.MeshesPerFrame
	for _, c := range dirty {
		if budget == 0 {
			return
		}
		chunk := s.world.Chunk(c)
		if chunk == nil {
			s.world.ClearDirty(c)
			continue
		}
		m := s.mesher.Build(s.world, c)
		m.Revision = chunk.Revision()
		chunk.SetMesh(m)
		s.world.ClearDirty(c)
		budget--
	}
}
