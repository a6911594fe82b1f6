package blockchain

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/chainsnap/chainsnapd/domain/utxo"
	"github.com/chainsnap/chainsnapd/infrastructure/db/database"
	"github.com/pkg/errors"
)

var (
	// coinsBucket maps outpoint keys to serialized utxo entries.
	coinsBucket = database.MakeBucket([]byte("coins"))

	// blockIndexBucket maps block hashes to block index records.
	blockIndexBucket = database.MakeBucket([]byte("blockindex"))

	// chainStateBucket holds singleton chain state values.
	chainStateBucket = database.MakeBucket([]byte("chainstate"))

	tipKey = chainStateBucket.Key([]byte("tip"))
)

func coinKey(outpoint *wire.OutPoint) *database.Key {
	return coinsBucket.Key(utxo.OutpointKey(outpoint))
}

func blockIndexKey(hash *chainhash.Hash) *database.Key {
	return blockIndexBucket.Key(hash[:])
}

// fetchCoin reads an unspent output, returning nil if it does not exist.
func fetchCoin(reader database.DataReader, outpoint *wire.OutPoint) (*utxo.Entry, error) {
	data, err := reader.Get(coinKey(outpoint))
	if err != nil {
		if database.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	entry, err := utxo.DeserializeEntryFromBytes(data)
	if err != nil {
		return nil, errors.Wrapf(err, "corrupt utxo entry for %s", outpoint)
	}
	return entry, nil
}

// applyDiff writes a utxo diff into the database.
func applyDiff(accessor database.DataAccessor, diff *utxo.Diff) error {
	for outpoint := range diff.ToRemove() {
		outpoint := outpoint
		err := accessor.Delete(coinKey(&outpoint))
		if err != nil {
			return err
		}
	}
	for outpoint, entry := range diff.ToAdd() {
		outpoint := outpoint
		serialized, err := utxo.SerializeEntryToBytes(entry)
		if err != nil {
			return err
		}
		err = accessor.Put(coinKey(&outpoint), serialized)
		if err != nil {
			return err
		}
	}
	return nil
}

func putBlockNode(accessor database.DataAccessor, node *BlockNode) error {
	return accessor.Put(blockIndexKey(&node.hash), serializeBlockNode(node))
}

func putTip(accessor database.DataAccessor, hash *chainhash.Hash) error {
	return accessor.Put(tipKey, hash[:])
}

// loadBlockIndex rebuilds the block index from the database. It returns
// false if the database holds no chain yet.
func (c *Chain) loadBlockIndex() (bool, error) {
	tipBytes, err := c.db.Get(tipKey)
	if err != nil {
		if database.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	tipHash, err := chainhash.NewHash(tipBytes)
	if err != nil {
		return false, errors.Wrap(err, "corrupt chain tip record")
	}

	cursor, err := c.db.Cursor(blockIndexBucket)
	if err != nil {
		return false, err
	}
	defer cursor.Close()

	storedNodes := make(map[chainhash.Hash]*storedBlockNode)
	for cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return false, err
		}
		hash, err := chainhash.NewHash(key.Suffix())
		if err != nil {
			return false, errors.Wrapf(err, "corrupt block index key %s", key)
		}
		value, err := cursor.Value()
		if err != nil {
			return false, err
		}
		stored, err := deserializeBlockNode(hash, value)
		if err != nil {
			return false, err
		}
		storedNodes[*hash] = stored
	}

	var link func(hash *chainhash.Hash) (*BlockNode, error)
	link = func(hash *chainhash.Hash) (*BlockNode, error) {
		if node := c.index.lookupNode(hash); node != nil {
			return node, nil
		}
		stored, ok := storedNodes[*hash]
		if !ok {
			return nil, errors.Errorf("block %s is missing from the block index", hash)
		}
		var parent *BlockNode
		if stored.height > 0 {
			var err error
			parent, err = link(&stored.prevHash)
			if err != nil {
				return nil, err
			}
		}
		node := &BlockNode{
			parent:       parent,
			hash:         stored.hash,
			height:       stored.height,
			timestamp:    stored.timestamp,
			txCount:      stored.txCount,
			chainTxCount: stored.chainTxCount,
			status:       uint32(stored.status),
		}
		c.index.addNode(node)
		return node, nil
	}
	for hash := range storedNodes {
		hash := hash
		_, err := link(&hash)
		if err != nil {
			return false, err
		}
	}

	tip := c.index.lookupNode(tipHash)
	if tip == nil {
		return false, errors.Errorf("chain tip %s is missing from the block index", tipHash)
	}
	c.index.setTip(tip)
	genesis := c.index.nodeByHeight(0)
	if !genesis.hash.IsEqual(c.params.GenesisHash) {
		return false, errors.Errorf("stored chain has genesis %s, but network %s has genesis %s",
			genesis.hash, c.params.Name, c.params.GenesisHash)
	}
	log.Infof("Loaded block index with %d blocks, tip %s at height %d",
		len(c.index.nodes), tip.hash, tip.height)
	return true, nil
}
