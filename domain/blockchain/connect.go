package blockchain

import (
	"fmt"

	btcdblockchain "github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/chainsnap/chainsnapd/domain/utxo"
	"github.com/pkg/errors"
)

// lookupCoin returns the unspent entry for outpoint as seen through diff,
// or nil if it does not exist or is spent.
func (c *Chain) lookupCoin(diff *utxo.Diff, outpoint *wire.OutPoint) (*utxo.Entry, error) {
	if entry, ok := diff.Added(*outpoint); ok {
		return entry, nil
	}
	if diff.IsRemoved(*outpoint) {
		return nil, nil
	}
	return fetchCoin(c.db, outpoint)
}

// applyBlockTransactions validates the transactions of a block at the given
// height against the current utxo set and returns the resulting diff
// together with the block's spend journal.
func (c *Chain) applyBlockTransactions(block *wire.MsgBlock, height int32) (*utxo.Diff, *utxo.BlockUndo, error) {
	diff := utxo.NewDiff()
	undo := &utxo.BlockUndo{}
	var totalFees int64

	for txIndex, tx := range block.Transactions {
		isCoinbase := txIndex == 0
		txHash := tx.TxHash()

		if !isCoinbase {
			var totalIn int64
			for _, txIn := range tx.TxIn {
				outpoint := txIn.PreviousOutPoint
				entry, err := c.lookupCoin(diff, &outpoint)
				if err != nil {
					return nil, nil, err
				}
				if entry == nil {
					return nil, nil, ruleError(ErrMissingTxOut, fmt.Sprintf("output %s referenced from "+
						"transaction %s does not exist or has already been spent", outpoint, txHash))
				}
				if entry.IsCoinbase() {
					confirmations := height - entry.BlockHeight()
					if confirmations < int32(c.params.CoinbaseMaturity) {
						return nil, nil, ruleError(ErrImmatureSpend, fmt.Sprintf("transaction %s tried to "+
							"spend coinbase output %s from height %d at height %d before required "+
							"maturity of %d blocks", txHash, outpoint, entry.BlockHeight(), height,
							c.params.CoinbaseMaturity))
					}
				}
				totalIn += entry.Amount()
				undo.SpentOutputs = append(undo.SpentOutputs, utxo.SpentOutput{Outpoint: outpoint, Entry: entry})
				diff.Remove(outpoint)
			}
			totalOut := sumOutputs(tx)
			if totalOut > totalIn {
				return nil, nil, ruleError(ErrSpendTooHigh, fmt.Sprintf("total value of all transaction "+
					"outputs for transaction %s is %d which exceeds the input value of %d",
					txHash, totalOut, totalIn))
			}
			totalFees += totalIn - totalOut
		}

		for i, txOut := range tx.TxOut {
			if txscript.IsUnspendable(txOut.PkScript) {
				continue
			}
			outpoint := wire.OutPoint{Hash: txHash, Index: uint32(i)}
			existing, err := c.lookupCoin(diff, &outpoint)
			if err != nil {
				return nil, nil, err
			}
			if existing != nil {
				return nil, nil, ruleError(ErrOverwriteTx, fmt.Sprintf("tried to overwrite transaction "+
					"output %s that is not fully spent", outpoint))
			}
			diff.Add(outpoint, utxo.NewEntry(txOut.Value, txOut.PkScript, height, isCoinbase))
		}
	}

	maxCoinbaseValue := btcdblockchain.CalcBlockSubsidy(height, c.params.Params) + totalFees
	coinbaseValue := sumOutputs(block.Transactions[0])
	if coinbaseValue > maxCoinbaseValue {
		return nil, nil, ruleError(ErrBadCoinbaseValue, fmt.Sprintf("coinbase transaction for block pays "+
			"%d which is more than expected value of %d", coinbaseValue, maxCoinbaseValue))
	}
	return diff, undo, nil
}

func sumOutputs(tx *wire.MsgTx) int64 {
	var total int64
	for _, txOut := range tx.TxOut {
		total += txOut.Value
	}
	return total
}

// connectBlock validates block on top of parent, which must be the current
// tip (or nil for the genesis block), and makes it the new tip. existing is
// the index node of a block being reconnected, or nil for a new block. The
// caller must hold the chain lock for writes.
func (c *Chain) connectBlock(block *wire.MsgBlock, existing *BlockNode) (*BlockNode, error) {
	parent := c.index.tip()
	hash := block.BlockHash()
	if parent != nil && !block.Header.PrevBlock.IsEqual(&parent.hash) {
		return nil, ruleError(ErrPrevBlockNotTip, fmt.Sprintf("block %s builds on %s, which is not the "+
			"current tip %s", hash, block.Header.PrevBlock, parent.hash))
	}
	if existing == nil && c.index.lookupNode(&hash) != nil {
		return nil, ruleError(ErrDuplicateBlock, fmt.Sprintf("already have block %s", hash))
	}

	err := checkBlockSanity(block)
	if err != nil {
		return nil, err
	}
	height := int32(0)
	if parent != nil {
		height = parent.height + 1
	}
	diff, undo, err := c.applyBlockTransactions(block, height)
	if err != nil {
		return nil, err
	}

	// Block data and undo go first so an index record never points at
	// missing data.
	err = c.blockStore.StoreBlock(block, undo)
	if err != nil {
		return nil, err
	}

	node := existing
	if node == nil {
		node = newBlockNode(&block.Header, parent, uint32(len(block.Transactions)))
	}
	node.setStatus(statusDataStored | statusUndoStored | statusValid)

	dbTx, err := c.db.Begin()
	if err != nil {
		return nil, err
	}
	defer dbTx.RollbackUnlessClosed()

	err = applyDiff(dbTx, diff)
	if err != nil {
		return nil, err
	}
	err = putBlockNode(dbTx, node)
	if err != nil {
		return nil, err
	}
	err = putTip(dbTx, &node.hash)
	if err != nil {
		return nil, err
	}
	err = dbTx.Commit()
	if err != nil {
		return nil, errors.Wrapf(err, "failed committing block %s", hash)
	}

	c.index.addNode(node)
	c.index.setTip(node)
	log.Debugf("Connected block %s at height %d (%d transactions)", hash, height, len(block.Transactions))
	return node, nil
}
