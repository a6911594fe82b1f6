package blockchain

import (
	"bytes"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/chainsnap/chainsnapd/domain/utxo"
	"github.com/chainsnap/chainsnapd/infrastructure/db/boltstore"
	"github.com/chainsnap/chainsnapd/infrastructure/db/database"
	"github.com/pkg/errors"
)

var (
	blocksBucket = []byte("blocks")
	undoBucket   = []byte("undo")
)

// BlockStore keeps raw blocks and their spend journals, keyed by block hash.
type BlockStore struct {
	store *boltstore.Store
}

// OpenBlockStore opens or creates the block store file at path.
func OpenBlockStore(path string) (*BlockStore, error) {
	store, err := boltstore.Open(path, blocksBucket, undoBucket)
	if err != nil {
		return nil, err
	}
	return &BlockStore{store: store}, nil
}

// Close closes the block store.
func (bs *BlockStore) Close() error {
	return bs.store.Close()
}

// StoreBlock atomically stores a block and its undo data.
func (bs *BlockStore) StoreBlock(block *wire.MsgBlock, undo *utxo.BlockUndo) error {
	hash := block.BlockHash()
	blockBuf := bytes.NewBuffer(make([]byte, 0, block.SerializeSize()))
	err := block.Serialize(blockBuf)
	if err != nil {
		return errors.Wrapf(err, "failed serializing block %s", hash)
	}
	undoBytes, err := undo.Bytes()
	if err != nil {
		return errors.Wrapf(err, "failed serializing undo data of block %s", hash)
	}
	return bs.store.Update(func(batch *boltstore.Batch) error {
		err := batch.Put(blocksBucket, hash[:], blockBuf.Bytes())
		if err != nil {
			return err
		}
		return batch.Put(undoBucket, hash[:], undoBytes)
	})
}

// FetchBlock loads a stored block.
func (bs *BlockStore) FetchBlock(hash *chainhash.Hash) (*wire.MsgBlock, error) {
	data, err := bs.store.Get(blocksBucket, hash[:])
	if err != nil {
		return nil, err
	}
	block := &wire.MsgBlock{}
	err = block.Deserialize(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "failed deserializing block %s", hash)
	}
	return block, nil
}

// FetchUndo loads the undo data of a block. It returns an error satisfying
// database.IsNotFoundError when the data is not retained.
func (bs *BlockStore) FetchUndo(hash *chainhash.Hash) (*utxo.BlockUndo, error) {
	data, err := bs.store.Get(undoBucket, hash[:])
	if err != nil {
		return nil, err
	}
	undo, err := utxo.DeserializeBlockUndo(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed deserializing undo data of block %s", hash)
	}
	return undo, nil
}

// HasUndo returns whether the undo data of a block is stored.
func (bs *BlockStore) HasUndo(hash *chainhash.Hash) (bool, error) {
	return bs.store.Has(undoBucket, hash[:])
}

// DeleteUndo discards the undo data of a block. Blocks whose undo data was
// discarded can no longer be disconnected.
func (bs *BlockStore) DeleteUndo(hash *chainhash.Hash) error {
	return bs.store.Delete(undoBucket, hash[:])
}

func isNotFound(err error) bool {
	return database.IsNotFoundError(err)
}
