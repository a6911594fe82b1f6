package database

// DataReader is the read half of a DataAccessor.
type DataReader interface {
	// Get returns the value for key, or an error satisfying
	// IsNotFoundError if it does not exist.
	Get(key *Key) ([]byte, error)

	// Has returns whether key exists.
	Has(key *Key) (bool, error)

	// Cursor begins a new cursor over the given bucket. Keys are
	// visited in ascending byte order.
	Cursor(bucket *Bucket) (Cursor, error)
}

// DataAccessor reads and writes key/value pairs.
type DataAccessor interface {
	DataReader

	// Put sets the value for key, overwriting any previous value.
	Put(key *Key, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key *Key) error
}

// Database is a key/value store supporting atomic transactions and
// point-in-time snapshots.
type Database interface {
	DataAccessor

	// Begin opens a transaction. Writes made through it become visible
	// atomically on Commit.
	Begin() (Transaction, error)

	// Snapshot pins the current state of the database. Subsequent writes
	// are not visible through the snapshot.
	Snapshot() (Snapshot, error)

	// Close closes the database.
	Close() error
}

// Transaction is a set of writes applied atomically on Commit.
type Transaction interface {
	DataAccessor

	// Commit applies the transaction. The transaction is closed afterwards.
	Commit() error

	// Rollback discards the transaction.
	Rollback() error

	// RollbackUnlessClosed discards the transaction unless it was already
	// committed or rolled back. It is meant to be deferred.
	RollbackUnlessClosed() error
}

// Snapshot is a read-only, consistent view of a Database.
type Snapshot interface {
	DataReader

	// Release frees the resources held by the snapshot.
	Release()
}

// Cursor iterates over the keys of a single bucket.
type Cursor interface {
	// Next moves the cursor to the next key, returning false when
	// exhausted. On a fresh cursor it moves to the first key.
	Next() bool

	// First moves the cursor to the first key.
	First() bool

	// Seek moves the cursor to the given key. It returns an error
	// satisfying IsNotFoundError if the key does not exist.
	Seek(key *Key) error

	// Key returns the key at the cursor position.
	Key() (*Key, error)

	// Value returns the value at the cursor position.
	Value() ([]byte, error)

	// Close releases the cursor.
	Close() error
}
