package ldb

import (
	"github.com/chainsnap/chainsnapd/infrastructure/db/database"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	ldbErrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB is a database.Database backed by goleveldb.
type LevelDB struct {
	ldb *leveldb.DB
}

// NewLevelDB opens the leveldb database at path, creating it if needed. A
// corrupted database is recovered before use.
func NewLevelDB(path string, cacheSizeMiB int) (*LevelDB, error) {
	options := Options(cacheSizeMiB)
	ldb, err := leveldb.OpenFile(path, options)
	if ldbErrors.IsCorrupted(err) {
		log.Warnf("LevelDB corruption detected for path %s: %s", path, err)
		ldb, err = leveldb.RecoverFile(path, options)
		if err != nil {
			return nil, errors.Wrapf(err, "failed recovering leveldb at %s", path)
		}
		log.Warnf("LevelDB recovered from corruption for path %s", path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed opening leveldb at %s", path)
	}
	return &LevelDB{ldb: ldb}, nil
}

// Close closes the database.
func (db *LevelDB) Close() error {
	return errors.WithStack(db.ldb.Close())
}

// Put sets the value for the given key.
func (db *LevelDB) Put(key *database.Key, value []byte) error {
	return errors.WithStack(db.ldb.Put(key.Bytes(), value, nil))
}

// Get returns the value for the given key.
func (db *LevelDB) Get(key *database.Key) ([]byte, error) {
	data, err := db.ldb.Get(key.Bytes(), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, errors.Wrapf(database.ErrNotFound, "key %s not found", key)
		}
		return nil, errors.WithStack(err)
	}
	return data, nil
}

// Has returns whether the given key exists.
func (db *LevelDB) Has(key *database.Key) (bool, error) {
	exists, err := db.ldb.Has(key.Bytes(), nil)
	return exists, errors.WithStack(err)
}

// Delete removes the given key.
func (db *LevelDB) Delete(key *database.Key) error {
	return errors.WithStack(db.ldb.Delete(key.Bytes(), nil))
}

// Cursor begins a new cursor over the given bucket.
func (db *LevelDB) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	iterator := db.ldb.NewIterator(util.BytesPrefix(bucket.Path()), nil)
	return newCursor(iterator, bucket), nil
}

// Begin opens a leveldb transaction. Writes to the database block until the
// transaction is committed or rolled back.
func (db *LevelDB) Begin() (database.Transaction, error) {
	ldbTx, err := db.ldb.OpenTransaction()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &transaction{ldbTx: ldbTx}, nil
}

// Snapshot pins the current state of the database.
func (db *LevelDB) Snapshot() (database.Snapshot, error) {
	ldbSnapshot, err := db.ldb.GetSnapshot()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &snapshot{ldbSnapshot: ldbSnapshot}, nil
}
