package ldb

import (
	"bytes"

	"github.com/chainsnap/chainsnapd/infrastructure/db/database"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb/iterator"
)

// cursor is a thin wrapper around a prefix-bounded leveldb iterator.
type cursor struct {
	iterator iterator.Iterator
	bucket   *database.Bucket
	prefix   []byte
	isClosed bool
}

func newCursor(it iterator.Iterator, bucket *database.Bucket) *cursor {
	return &cursor{iterator: it, bucket: bucket, prefix: bucket.Path()}
}

func (c *cursor) Next() bool {
	if c.isClosed {
		panic("cannot call next on a closed cursor")
	}
	return c.iterator.Next()
}

func (c *cursor) First() bool {
	if c.isClosed {
		panic("cannot call first on a closed cursor")
	}
	return c.iterator.First()
}

func (c *cursor) Seek(key *database.Key) error {
	if c.isClosed {
		return errors.New("cannot seek a closed cursor")
	}
	keyBytes := key.Bytes()
	found := c.iterator.Seek(keyBytes)
	if !found || !bytes.Equal(c.iterator.Key(), keyBytes) {
		return errors.Wrapf(database.ErrNotFound, "key %s not found", key)
	}
	return nil
}

func (c *cursor) Key() (*database.Key, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the key of a closed cursor")
	}
	fullKey := c.iterator.Key()
	if fullKey == nil {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the key of an exhausted cursor")
	}
	suffix := make([]byte, len(fullKey)-len(c.prefix))
	copy(suffix, fullKey[len(c.prefix):])
	return c.bucket.Key(suffix), nil
}

func (c *cursor) Value() ([]byte, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the value of a closed cursor")
	}
	value := c.iterator.Value()
	if value == nil {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the value of an exhausted cursor")
	}
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	return valueCopy, nil
}

func (c *cursor) Close() error {
	if c.isClosed {
		return errors.New("cannot close an already closed cursor")
	}
	c.isClosed = true
	err := c.iterator.Error()
	c.iterator.Release()
	return errors.WithStack(err)
}
