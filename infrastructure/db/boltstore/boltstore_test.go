package boltstore

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/chainsnap/chainsnapd/infrastructure/db/database"
	"github.com/pkg/errors"
)

var (
	testBlocksBucket = []byte("blocks")
	testUndoBucket   = []byte("undo")
)

func prepareStoreForTest(t *testing.T) (*Store, string) {
	path := filepath.Join(t.TempDir(), "blocks", "blocks.db")
	store, err := Open(path, testBlocksBucket, testUndoBucket)
	if err != nil {
		t.Fatalf("Open unexpectedly failed: %s", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store, path
}

func TestStorePutGetDelete(t *testing.T) {
	store, _ := prepareStoreForTest(t)

	_, err := store.Get(testBlocksBucket, []byte("missing"))
	if !database.IsNotFoundError(err) {
		t.Fatalf("Get of a missing key returned wrong error: %v", err)
	}

	err = store.Put(testBlocksBucket, []byte("key"), []byte("value"))
	if err != nil {
		t.Fatalf("Put unexpectedly failed: %s", err)
	}
	value, err := store.Get(testBlocksBucket, []byte("key"))
	if err != nil {
		t.Fatalf("Get unexpectedly failed: %s", err)
	}
	if !bytes.Equal(value, []byte("value")) {
		t.Fatalf("Get returned %q, want %q", value, "value")
	}
	exists, err := store.Has(testUndoBucket, []byte("key"))
	if err != nil || exists {
		t.Fatalf("key leaked across buckets: exists=%t err=%v", exists, err)
	}

	err = store.Delete(testBlocksBucket, []byte("key"))
	if err != nil {
		t.Fatalf("Delete unexpectedly failed: %s", err)
	}
	exists, err = store.Has(testBlocksBucket, []byte("key"))
	if err != nil || exists {
		t.Fatalf("key survived Delete: exists=%t err=%v", exists, err)
	}

	if err := store.Put([]byte("nope"), []byte("k"), []byte("v")); err == nil {
		t.Fatalf("Put into an unknown bucket unexpectedly succeeded")
	}
}

func TestStoreUpdateIsAtomic(t *testing.T) {
	store, _ := prepareStoreForTest(t)

	failure := errors.New("abort")
	err := store.Update(func(batch *Batch) error {
		if err := batch.Put(testBlocksBucket, []byte("a"), []byte("1")); err != nil {
			return err
		}
		if err := batch.Put(testUndoBucket, []byte("a"), []byte("1")); err != nil {
			return err
		}
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("Update returned wrong error: %v", err)
	}
	for _, bucket := range [][]byte{testBlocksBucket, testUndoBucket} {
		count, err := store.Count(bucket)
		if err != nil {
			t.Fatalf("Count unexpectedly failed: %s", err)
		}
		if count != 0 {
			t.Fatalf("bucket %s has %d keys after an aborted update", bucket, count)
		}
	}
}

func TestStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	store, err := Open(path, testBlocksBucket)
	if err != nil {
		t.Fatalf("Open unexpectedly failed: %s", err)
	}
	if err := store.Put(testBlocksBucket, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("Put unexpectedly failed: %s", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close unexpectedly failed: %s", err)
	}

	store, err = Open(path, testBlocksBucket)
	if err != nil {
		t.Fatalf("reopening unexpectedly failed: %s", err)
	}
	defer store.Close()
	value, err := store.Get(testBlocksBucket, []byte("k"))
	if err != nil || string(value) != "v" {
		t.Fatalf("value did not survive reopening: %q, %v", value, err)
	}
}
