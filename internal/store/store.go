// Package store persists chunks and the player pose in a bolt database.
// Chunk values round-trip exactly: every block identifier is preserved.
package store

import (
	"bytes"
	"encoding/binary"

	"github.com/boltdb/bolt"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/voxellab/cubeland/internal/block"
	"github.com/voxellab/cubeland/internal/player"
	"github.com/voxellab/cubeland/internal/vec"
)

var (
	chunkBucket  = []byte("chunk")
	playerBucket = []byte("player")
	metaBucket   = []byte("meta")

	seedKey  = []byte("seed")
	poseKey  = []byte("pose")
	formatV1 = byte(1)
)

type Store struct {
	db  *bolt.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0666, nil)
	if err != nil {
		return nil, errors.Wrap(err, "open store")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{chunkBucket, playerBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "init buckets")
	}
	db.NoSync = true

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "zstd encoder")
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "zstd decoder")
	}
	return &Store{db: db, enc: enc, dec: dec}, nil
}

func (s *Store) Close() error {
	s.db.Sync()
	return s.db.Close()
}

// EnsureSeed stores seed on first use and afterwards returns whatever the
// database was created with, so a save file always reopens as the same
// world even if the configured seed changed.
func (s *Store) EnsureSeed(seed int64) (int64, error) {
	out := seed
	err := s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(metaBucket)
		if v := bkt.Get(seedKey); v != nil {
			out = int64(binary.LittleEndian.Uint64(v))
			return nil
		}
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(seed))
		return bkt.Put(seedKey, buf[:])
	})
	if err != nil {
		return 0, errors.Wrap(err, "ensure seed")
	}
	return out, nil
}

// SaveChunk writes one chunk's whole block array.
func (s *Store) SaveChunk(c vec.Vec3, blocks *[vec.ChunkVolume]block.ID) error {
	raw := make([]byte, vec.ChunkVolume)
	for i, id := range blocks {
		raw[i] = byte(id)
	}
	value := append([]byte{formatV1}, s.enc.EncodeAll(raw, nil)...)
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(chunkBucket).Put(encodeCoord(c), value)
	})
	return errors.Wrapf(err, "save chunk %v", c)
}

// LoadChunk reads a chunk's block array; ok is false when the chunk has
// never been saved.
func (s *Store) LoadChunk(c vec.Vec3) (*[vec.ChunkVolume]block.ID, bool, error) {
	var value []byte
	s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(chunkBucket).Get(encodeCoord(c)); v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if value == nil {
		return nil, false, nil
	}
	if len(value) < 1 || value[0] != formatV1 {
		return nil, false, errors.Errorf("chunk %v: unknown format tag", c)
	}
	raw, err := s.dec.DecodeAll(value[1:], nil)
	if err != nil {
		return nil, false, errors.Wrapf(err, "decompress chunk %v", c)
	}
	if len(raw) != vec.ChunkVolume {
		return nil, false, errors.Errorf("chunk %v: bad payload size %d", c, len(raw))
	}
	var blocks [vec.ChunkVolume]block.ID
	for i, b := range raw {
		blocks[i] = block.ID(b)
	}
	return &blocks, true, nil
}

// SavePlayerState persists the camera pose.
func (s *Store) SavePlayerState(state player.State) error {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, &state)
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(playerBucket).Put(poseKey, buf.Bytes())
	})
	return errors.Wrap(err, "save player state")
}

// PlayerState returns the persisted pose, ok false if none was saved.
func (s *Store) PlayerState() (player.State, bool) {
	var (
		state player.State
		found bool
	)
	s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(playerBucket).Get(poseKey)
		if v == nil {
			return nil
		}
		if err := binary.Read(bytes.NewReader(v), binary.LittleEndian, &state); err == nil {
			found = true
		}
		return nil
	})
	return state, found
}

func encodeCoord(c vec.Vec3) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, [...]int32{int32(c.X), int32(c.Y), int32(c.Z)})
	return buf.Bytes()
}
