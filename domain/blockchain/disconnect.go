package blockchain

import (
	"fmt"

	btcdblockchain "github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/chainsnap/chainsnapd/domain/utxo"
	"github.com/pkg/errors"
)

// disconnectTip reverts the tip block using its spend journal and makes its
// parent the new tip. The disconnected block stays in the index with its data
// so it can be reconnected. The caller must hold the chain lock for writes.
func (c *Chain) disconnectTip() (*BlockNode, error) {
	node := c.index.tip()
	if node.parent == nil {
		return nil, ruleError(ErrDisconnectGenesis, "cannot disconnect the genesis block")
	}
	if !node.HaveUndo() {
		return nil, ruleError(ErrMissingUndoData, fmt.Sprintf("undo data of block %s at height %d "+
			"is not retained", node.hash, node.height))
	}

	block, err := c.blockStore.FetchBlock(&node.hash)
	if err != nil {
		return nil, errors.Wrapf(err, "failed loading block %s for disconnection", node.hash)
	}
	undo, err := c.blockStore.FetchUndo(&node.hash)
	if err != nil {
		if isNotFound(err) {
			return nil, ruleError(ErrMissingUndoData, fmt.Sprintf("undo data of block %s at height %d "+
				"is missing from the block store", node.hash, node.height))
		}
		return nil, err
	}

	diff, err := disconnectDiff(block, undo)
	if err != nil {
		return nil, err
	}

	dbTx, err := c.db.Begin()
	if err != nil {
		return nil, err
	}
	defer dbTx.RollbackUnlessClosed()

	err = applyDiff(dbTx, diff)
	if err != nil {
		return nil, err
	}
	err = putTip(dbTx, &node.parent.hash)
	if err != nil {
		return nil, err
	}
	err = dbTx.Commit()
	if err != nil {
		return nil, errors.Wrapf(err, "failed committing disconnection of block %s", node.hash)
	}

	c.index.setTip(node.parent)
	log.Debugf("Disconnected block %s at height %d", node.hash, node.height)
	return node, nil
}

// disconnectDiff builds the diff reverting block: every spendable output the
// block created is removed and every output it spent is restored. Transactions
// are processed in reverse so outputs created and spent within the block
// cancel out.
func disconnectDiff(block *wire.MsgBlock, undo *utxo.BlockUndo) (*utxo.Diff, error) {
	expectedSpent := 0
	for _, tx := range block.Transactions {
		if !btcdblockchain.IsCoinBaseTx(tx) {
			expectedSpent += len(tx.TxIn)
		}
	}
	if expectedSpent != len(undo.SpentOutputs) {
		return nil, ruleError(ErrUndoMismatch, fmt.Sprintf("block %s spends %d outputs but its undo "+
			"data holds %d", block.BlockHash(), expectedSpent, len(undo.SpentOutputs)))
	}

	diff := utxo.NewDiff()
	spentIndex := len(undo.SpentOutputs)
	for txIndex := len(block.Transactions) - 1; txIndex >= 0; txIndex-- {
		tx := block.Transactions[txIndex]
		txHash := tx.TxHash()
		for i, txOut := range tx.TxOut {
			if txscript.IsUnspendable(txOut.PkScript) {
				continue
			}
			diff.Remove(wire.OutPoint{Hash: txHash, Index: uint32(i)})
		}
		if txIndex == 0 {
			continue
		}
		for inputIndex := len(tx.TxIn) - 1; inputIndex >= 0; inputIndex-- {
			spentIndex--
			spent := undo.SpentOutputs[spentIndex]
			if spent.Outpoint != tx.TxIn[inputIndex].PreviousOutPoint {
				return nil, ruleError(ErrUndoMismatch, fmt.Sprintf("undo data of block %s restores %s "+
					"but input %d of transaction %s spends %s", block.BlockHash(), spent.Outpoint,
					inputIndex, txHash, tx.TxIn[inputIndex].PreviousOutPoint))
			}
			diff.Add(spent.Outpoint, spent.Entry)
		}
	}
	return diff, nil
}
