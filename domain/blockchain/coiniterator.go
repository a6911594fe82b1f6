package blockchain

import (
	"github.com/btcsuite/btcd/wire"
	"github.com/chainsnap/chainsnapd/domain/utxo"
	"github.com/chainsnap/chainsnapd/infrastructure/db/database"
	"github.com/pkg/errors"
)

// coinIterator walks the coins bucket. Outpoint keys sort canonically, so
// the cursor order is the canonical utxo order.
type coinIterator struct {
	cursor   database.Cursor
	isClosed bool
}

func newCoinIterator(reader database.DataReader) (utxo.Iterator, error) {
	cursor, err := reader.Cursor(coinsBucket)
	if err != nil {
		return nil, err
	}
	return &coinIterator{cursor: cursor}, nil
}

func (it *coinIterator) Next() bool {
	if it.isClosed {
		return false
	}
	return it.cursor.Next()
}

func (it *coinIterator) Get() (*wire.OutPoint, *utxo.Entry, error) {
	if it.isClosed {
		return nil, nil, errors.New("cannot get from a closed coin iterator")
	}
	key, err := it.cursor.Key()
	if err != nil {
		return nil, nil, err
	}
	outpoint, err := utxo.OutpointFromKey(key.Suffix())
	if err != nil {
		return nil, nil, err
	}
	value, err := it.cursor.Value()
	if err != nil {
		return nil, nil, err
	}
	entry, err := utxo.DeserializeEntryFromBytes(value)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "corrupt utxo entry for %s", outpoint)
	}
	return outpoint, entry, nil
}

func (it *coinIterator) Close() error {
	if it.isClosed {
		return errors.New("cannot close an already closed coin iterator")
	}
	it.isClosed = true
	return it.cursor.Close()
}
