package index

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"ragline/src/core/rag"
)

var (
	bucketMeta    = []byte("meta")
	bucketEntries = []byte("entries")
	keyMetric     = []byte("metric")
	keyDimension  = []byte("dimension")
)

// Persist writes the index to a bbolt file at path, replacing any index
// already stored there. Vectors, chunk texts and offsets round-trip
// exactly: values are JSON (shortest-form float encoding restores every
// float32 bit-for-bit) and entry keys are big-endian insertion sequence
// numbers, so Load sees the original order.
func (m *Memory) Persist(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return fmt.Errorf("failed to open index file: %w", err)
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketEntries); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}

		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		if err := meta.Put(keyMetric, []byte(m.metric)); err != nil {
			return err
		}
		var dim [8]byte
		binary.BigEndian.PutUint64(dim[:], uint64(m.dim))
		if err := meta.Put(keyDimension, dim[:]); err != nil {
			return err
		}

		entries, err := tx.CreateBucket(bucketEntries)
		if err != nil {
			return err
		}
		for i, e := range m.entries {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to encode entry %s: %w", e.Chunk.ID, err)
			}
			var key [8]byte
			binary.BigEndian.PutUint64(key[:], uint64(i))
			if err := entries.Put(key[:], data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load restores an index previously written by Persist.
func Load(path string) (*Memory, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}
	defer db.Close()

	var m *Memory
	err = db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil {
			return fmt.Errorf("%s is not an index file: no meta bucket", path)
		}

		loaded, err := NewMemory(Metric(meta.Get(keyMetric)))
		if err != nil {
			return err
		}
		if raw := meta.Get(keyDimension); len(raw) == 8 {
			loaded.dim = int(binary.BigEndian.Uint64(raw))
		}

		if entries := tx.Bucket(bucketEntries); entries != nil {
			// Keys are big-endian sequence numbers; ForEach visits them in
			// byte order, which is insertion order.
			err := entries.ForEach(func(k, v []byte) error {
				var e rag.Entry
				if err := json.Unmarshal(v, &e); err != nil {
					return fmt.Errorf("failed to decode entry: %w", err)
				}
				loaded.entries = append(loaded.entries, e)
				return nil
			})
			if err != nil {
				return err
			}
		}

		m = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
