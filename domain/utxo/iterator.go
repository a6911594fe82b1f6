package utxo

import (
	"bytes"
	"sort"

	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
)

// Iterator walks a utxo set in canonical order: ascending txid bytes, then
// ascending output index.
type Iterator interface {
	// Next advances to the next outpoint, returning false when done.
	Next() bool

	// Get returns the outpoint and entry at the current position.
	Get() (*wire.OutPoint, *Entry, error)

	// Close releases the iterator.
	Close() error
}

type collectionIterator struct {
	outpoints []wire.OutPoint
	entries   map[wire.OutPoint]*Entry
	index     int
	isClosed  bool
}

// NewCollectionIterator returns an Iterator over an in-memory utxo
// collection, ordered canonically.
func NewCollectionIterator(collection map[wire.OutPoint]*Entry) Iterator {
	outpoints := make([]wire.OutPoint, 0, len(collection))
	for outpoint := range collection {
		outpoints = append(outpoints, outpoint)
	}
	sort.Slice(outpoints, func(i, j int) bool {
		return Less(&outpoints[i], &outpoints[j])
	})
	return &collectionIterator{outpoints: outpoints, entries: collection, index: -1}
}

func (it *collectionIterator) Next() bool {
	if it.isClosed {
		return false
	}
	it.index++
	return it.index < len(it.outpoints)
}

func (it *collectionIterator) Get() (*wire.OutPoint, *Entry, error) {
	if it.isClosed {
		return nil, nil, errors.New("cannot get from a closed iterator")
	}
	if it.index < 0 || it.index >= len(it.outpoints) {
		return nil, nil, errors.New("iterator is not positioned on an outpoint")
	}
	outpoint := it.outpoints[it.index]
	return &outpoint, it.entries[outpoint], nil
}

func (it *collectionIterator) Close() error {
	if it.isClosed {
		return errors.New("cannot close an already closed iterator")
	}
	it.isClosed = true
	return nil
}

// Less orders outpoints canonically.
func Less(a, b *wire.OutPoint) bool {
	cmp := bytes.Compare(a.Hash[:], b.Hash[:])
	if cmp != 0 {
		return cmp < 0
	}
	return a.Index < b.Index
}
