package ldb

import (
	"github.com/chainsnap/chainsnapd/infrastructure/db/database"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

type snapshot struct {
	ldbSnapshot *leveldb.Snapshot
}

func (s *snapshot) Get(key *database.Key) ([]byte, error) {
	data, err := s.ldbSnapshot.Get(key.Bytes(), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, errors.Wrapf(database.ErrNotFound, "key %s not found", key)
		}
		return nil, errors.WithStack(err)
	}
	return data, nil
}

func (s *snapshot) Has(key *database.Key) (bool, error) {
	exists, err := s.ldbSnapshot.Has(key.Bytes(), nil)
	return exists, errors.WithStack(err)
}

func (s *snapshot) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	iterator := s.ldbSnapshot.NewIterator(util.BytesPrefix(bucket.Path()), nil)
	return newCursor(iterator, bucket), nil
}

func (s *snapshot) Release() {
	s.ldbSnapshot.Release()
}
