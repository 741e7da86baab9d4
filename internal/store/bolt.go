package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketDeployments = []byte("deployments")
	bucketSnapshots   = []byte("snapshots")
)

// BoltStore implements Store using BoltDB.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens or creates a BoltDB database.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketDeployments, bucketSnapshots} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// deploymentKey orders records by time; the id suffix keeps keys unique.
func deploymentKey(d *Deployment) []byte {
	key := make([]byte, 8, 8+len(d.ID))
	binary.BigEndian.PutUint64(key, uint64(d.Time.UnixNano()))
	return append(key, d.ID...)
}

// SaveDeployment stores d, assigning an ID and time when unset.
func (s *BoltStore) SaveDeployment(d *Deployment) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Time.IsZero() {
		d.Time = time.Now()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDeployments)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketDeployments)
		}
		data, err := json.Marshal(d)
		if err != nil {
			return err
		}
		return b.Put(deploymentKey(d), data)
	})
}

func (s *BoltStore) ListDeployments(name string, limit int) ([]*Deployment, error) {
	var out []*Deployment
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDeployments)
		if b == nil {
			return nil // no bucket = no history
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var d Deployment
			if err := json.Unmarshal(v, &d); err != nil {
				return fmt.Errorf("decode deployment %x: %w", k, err)
			}
			if name != "" && d.Name != name {
				continue
			}
			out = append(out, &d)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	return out, err
}

// DeleteDeployments removes every record for name and returns how many
// were removed.
func (s *BoltStore) DeleteDeployments(name string) (int, error) {
	n := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDeployments)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketDeployments)
		}
		var keys [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var d Deployment
			if err := json.Unmarshal(v, &d); err != nil {
				return err
			}
			if d.Name == name {
				keys = append(keys, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		n = len(keys)
		return nil
	})
	return n, err
}

// SaveSnapshot replaces the stored document for name.
func (s *BoltStore) SaveSnapshot(name string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("snapshot %s: invalid JSON", name)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketSnapshots)
		}
		raw, err := json.Marshal(Snapshot{Name: name, SavedAt: time.Now(), Data: data})
		if err != nil {
			return err
		}
		return b.Put([]byte(name), raw)
	})
}

func (s *BoltStore) GetSnapshot(name string) (*Snapshot, error) {
	var snap Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketSnapshots)
		}
		data := b.Get([]byte(name))
		if data == nil {
			return fmt.Errorf("snapshot %s: %w", name, ErrNotFound)
		}
		return json.Unmarshal(data, &snap)
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListSnapshots returns every snapshot in name order without its data.
func (s *BoltStore) ListSnapshots() ([]*Snapshot, error) {
	var snaps []*Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		if b == nil {
			return nil
		}
		snaps = make([]*Snapshot, 0, b.Stats().KeyN)
		return b.ForEach(func(k, v []byte) error {
			var snap Snapshot
			if err := json.Unmarshal(v, &snap); err != nil {
				return err
			}
			snap.Data = nil
			snaps = append(snaps, &snap)
			return nil
		})
	})
	return snaps, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
