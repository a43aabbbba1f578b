package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"framesearch/internal/domain"
	"framesearch/internal/port"
)

var (
	bucketVideos     = []byte("videos")
	bucketEmbeddings = []byte("embeddings")
	bucketMeta       = []byte("meta")
	keyDimension     = []byte("dimension")
)

// BoltStore is a bbolt-backed EmbeddingStore. Each video's embeddings
// live in a nested bucket keyed by the video ID, with frame indices as
// big-endian keys, so a full scan enumerates videos in ID order and
// frames in index order without sorting. Vectors are stored as JSON
// float32 arrays, which round-trip exactly.
//
// bbolt serializes update transactions, so concurrent Puts for the same
// or different videos never interleave, and a view transaction sees
// either all of a video's embeddings or none of them.
type BoltStore struct {
	db *bbolt.DB
}

var _ port.EmbeddingStore = (*BoltStore)(nil)

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketVideos, bucketEmbeddings, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

type videoMeta struct {
	Title      string  `json:"title"`
	Source     string  `json:"source"`
	Duration   float64 `json:"duration,omitempty"`
	FrameCount int     `json:"frame_count"`
	CreatedAt  int64   `json:"created_at"`
}

type storedVector struct {
	Vector []float32 `json:"v"`
}

func (s *BoltStore) Put(video domain.Video, embeddings []domain.FrameEmbedding) error {
	if video.ID == "" {
		return fmt.Errorf("%w: video ID must not be empty", domain.ErrInvalidConfiguration)
	}
	if err := validateEmbeddings(embeddings); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)

		if len(embeddings) > 0 {
			dim, ok, err := readDimension(meta)
			if err != nil {
				return err
			}
			if !ok {
				dim = len(embeddings[0].Vector)
				data, err := json.Marshal(dim)
				if err != nil {
					return err
				}
				if err := meta.Put(keyDimension, data); err != nil {
					return err
				}
			}
			for _, e := range embeddings {
				if len(e.Vector) != dim {
					return fmt.Errorf("%w: store holds %d-dimensional vectors, frame %d has %d",
						domain.ErrDimensionMismatch, dim, e.FrameIndex, len(e.Vector))
				}
			}
		}

		// Full replace: drop any previous embedding set for this video.
		all := tx.Bucket(bucketEmbeddings)
		if all.Bucket([]byte(video.ID)) != nil {
			if err := all.DeleteBucket([]byte(video.ID)); err != nil {
				return err
			}
		}
		vb, err := all.CreateBucket([]byte(video.ID))
		if err != nil {
			return err
		}
		for _, e := range embeddings {
			data, err := json.Marshal(storedVector{Vector: e.Vector})
			if err != nil {
				return err
			}
			if err := vb.Put(frameKey(e.FrameIndex), data); err != nil {
				return err
			}
		}

		createdAt := video.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		if existing := tx.Bucket(bucketVideos).Get([]byte(video.ID)); existing != nil {
			var prev videoMeta
			if err := json.Unmarshal(existing, &prev); err == nil {
				createdAt = time.Unix(prev.CreatedAt, 0)
			}
		}
		data, err := json.Marshal(videoMeta{
			Title:      video.Title,
			Source:     video.Source,
			Duration:   video.Duration,
			FrameCount: len(embeddings),
			CreatedAt:  createdAt.Unix(),
		})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketVideos).Put([]byte(video.ID), data)
	})
}

func (s *BoltStore) All() ([]domain.StoredEmbedding, error) {
	var out []domain.StoredEmbedding
	err := s.db.View(func(tx *bbolt.Tx) error {
		all := tx.Bucket(bucketEmbeddings)
		c := all.Cursor()
		for id, v := c.First(); id != nil; id, v = c.Next() {
			if v != nil {
				continue // only nested buckets expected
			}
			vb := all.Bucket(id)
			videoID := string(id)
			err := vb.ForEach(func(k, data []byte) error {
				var stored storedVector
				if err := json.Unmarshal(data, &stored); err != nil {
					return fmt.Errorf("corrupt embedding %s/%d: %w", videoID, frameIndex(k), err)
				}
				out = append(out, domain.StoredEmbedding{
					VideoID: videoID,
					Embedding: domain.FrameEmbedding{
						FrameIndex: frameIndex(k),
						Vector:     stored.Vector,
					},
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

func (s *BoltStore) Dimensionality() (int, error) {
	var dim int
	var ok bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		dim, ok, err = readDimension(tx.Bucket(bucketMeta))
		return err
	})
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, domain.ErrEmptyStore
	}
	return dim, nil
}

func (s *BoltStore) GetVideo(id string) (domain.Video, error) {
	var video domain.Video
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketVideos).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("video not found: %s", id)
		}
		var meta videoMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		video = fromMeta(id, meta)
		return nil
	})
	return video, err
}

func (s *BoltStore) ListVideos() ([]domain.Video, error) {
	var videos []domain.Video
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketVideos).ForEach(func(k, v []byte) error {
			var meta videoMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			videos = append(videos, fromMeta(string(k), meta))
			return nil
		})
	})
	return videos, err
}

func (s *BoltStore) Stats() (domain.Stats, error) {
	var stats domain.Stats
	err := s.db.View(func(tx *bbolt.Tx) error {
		stats.TotalVideos = tx.Bucket(bucketVideos).Stats().KeyN

		all := tx.Bucket(bucketEmbeddings)
		c := all.Cursor()
		for id, v := c.First(); id != nil; id, v = c.Next() {
			if v != nil {
				continue
			}
			stats.TotalEmbeddings += all.Bucket(id).Stats().KeyN
		}

		dim, ok, err := readDimension(tx.Bucket(bucketMeta))
		if err != nil {
			return err
		}
		if ok {
			stats.Dimension = dim
		}
		return nil
	})
	return stats, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func readDimension(meta *bbolt.Bucket) (int, bool, error) {
	data := meta.Get(keyDimension)
	if data == nil {
		return 0, false, nil
	}
	var dim int
	if err := json.Unmarshal(data, &dim); err != nil {
		return 0, false, fmt.Errorf("corrupt dimension record: %w", err)
	}
	return dim, true, nil
}

func validateEmbeddings(embeddings []domain.FrameEmbedding) error {
	for i, e := range embeddings {
		if e.FrameIndex < 0 {
			return fmt.Errorf("%w: negative frame index %d", domain.ErrInvalidConfiguration, e.FrameIndex)
		}
		if i > 0 && e.FrameIndex <= embeddings[i-1].FrameIndex {
			return fmt.Errorf("%w: frame indices must be strictly increasing, got %d after %d",
				domain.ErrInvalidConfiguration, e.FrameIndex, embeddings[i-1].FrameIndex)
		}
		if len(e.Vector) != len(embeddings[0].Vector) {
			return fmt.Errorf("%w: frame %d has %d dimensions, frame %d has %d",
				domain.ErrDimensionMismatch, embeddings[0].FrameIndex, len(embeddings[0].Vector), e.FrameIndex, len(e.Vector))
		}
	}
	return nil
}

func fromMeta(id string, meta videoMeta) domain.Video {
	return domain.Video{
		ID:         id,
		Title:      meta.Title,
		Source:     meta.Source,
		Duration:   meta.Duration,
		FrameCount: meta.FrameCount,
		CreatedAt:  time.Unix(meta.CreatedAt, 0),
	}
}

func frameKey(index int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(index))
	return key
}

func frameIndex(key []byte) int {
	return int(binary.BigEndian.Uint64(key))
}
