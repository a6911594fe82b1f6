// Package boltstore stores immutable blobs, such as raw blocks and their undo
// data, in named buckets of a single bbolt file.
package boltstore

import (
	"os"
	"path/filepath"
	"time"

	"github.com/chainsnap/chainsnapd/infrastructure/db/database"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

const openTimeout = time.Second

// Store is a bucketed blob store backed by bbolt.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the bbolt file at path and makes sure all of the
// given buckets exist.
func Open(path string, buckets ...[]byte) (*Store, error) {
	err := os.MkdirAll(filepath.Dir(path), 0700)
	if err != nil {
		return nil, errors.Wrapf(err, "failed creating directory for %s", path)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, errors.Wrapf(err, "failed opening bbolt file %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return errors.Wrapf(err, "failed creating bucket %s", name)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Debugf("Opened bbolt store at %s", path)
	return &Store{db: db}, nil
}

// Close closes the underlying file.
func (s *Store) Close() error {
	return errors.WithStack(s.db.Close())
}

// Get returns a copy of the value stored under key in bucket. It returns an
// error satisfying database.IsNotFoundError when the key is missing.
func (s *Store) Get(bucket, key []byte) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := existingBucket(tx, bucket)
		if err != nil {
			return err
		}
		stored := b.Get(key)
		if stored == nil {
			return errors.Wrapf(database.ErrNotFound, "key %x not found in bucket %s", key, bucket)
		}
		value = make([]byte, len(stored))
		copy(value, stored)
		return nil
	})
	return value, err
}

// Has returns whether key exists in bucket.
func (s *Store) Has(bucket, key []byte) (bool, error) {
	exists := false
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := existingBucket(tx, bucket)
		if err != nil {
			return err
		}
		exists = b.Get(key) != nil
		return nil
	})
	return exists, err
}

// Put stores value under key in bucket.
func (s *Store) Put(bucket, key, value []byte) error {
	return s.Update(func(batch *Batch) error {
		return batch.Put(bucket, key, value)
	})
}

// Delete removes key from bucket. Deleting a missing key is not an error.
func (s *Store) Delete(bucket, key []byte) error {
	return s.Update(func(batch *Batch) error {
		return batch.Delete(bucket, key)
	})
}

// Update runs fn in a single read-write transaction. Every write made through
// the batch is committed atomically if fn returns nil.
func (s *Store) Update(fn func(batch *Batch) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&Batch{tx: tx})
	})
}

// Count returns the number of keys in bucket.
func (s *Store) Count(bucket []byte) (int, error) {
	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := existingBucket(tx, bucket)
		if err != nil {
			return err
		}
		count = b.Stats().KeyN
		return nil
	})
	return count, err
}

// Batch is the write handle passed to Update.
type Batch struct {
	tx *bolt.Tx
}

// Put stores value under key in bucket.
func (b *Batch) Put(bucket, key, value []byte) error {
	bkt, err := existingBucket(b.tx, bucket)
	if err != nil {
		return err
	}
	return errors.Wrapf(bkt.Put(key, value), "failed writing key %x to bucket %s", key, bucket)
}

// Delete removes key from bucket.
func (b *Batch) Delete(bucket, key []byte) error {
	bkt, err := existingBucket(b.tx, bucket)
	if err != nil {
		return err
	}
	return errors.Wrapf(bkt.Delete(key), "failed deleting key %x from bucket %s", key, bucket)
}

func existingBucket(tx *bolt.Tx, name []byte) (*bolt.Bucket, error) {
	b := tx.Bucket(name)
	if b == nil {
		return nil, errors.Errorf("bucket %s does not exist", name)
	}
	return b, nil
}
