package blockchain

import (
	"fmt"

	btcdblockchain "github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// checkBlockSanity performs the context free checks of a block: coinbase
// placement, merkle commitment and basic transaction shape. Proof of work
// and signatures are not checked.
func checkBlockSanity(block *wire.MsgBlock) error {
	if len(block.Transactions) == 0 {
		return ruleError(ErrNoTransactions, "block does not contain any transactions")
	}
	if !btcdblockchain.IsCoinBaseTx(block.Transactions[0]) {
		return ruleError(ErrFirstTxNotCoinbase, "first transaction in block is not a coinbase")
	}

	txs := make([]*btcutil.Tx, 0, len(block.Transactions))
	seenTxs := make(map[chainhash.Hash]struct{}, len(block.Transactions))
	for i, msgTx := range block.Transactions {
		if i > 0 && btcdblockchain.IsCoinBaseTx(msgTx) {
			return ruleError(ErrMultipleCoinbases, fmt.Sprintf("block contains second coinbase at index %d", i))
		}
		err := checkTransactionSanity(msgTx)
		if err != nil {
			return err
		}
		tx := btcutil.NewTx(msgTx)
		if _, ok := seenTxs[*tx.Hash()]; ok {
			return ruleError(ErrDuplicateTx, fmt.Sprintf("block contains duplicate transaction %s", tx.Hash()))
		}
		seenTxs[*tx.Hash()] = struct{}{}
		txs = append(txs, tx)
	}

	merkleRoot := btcdblockchain.CalcMerkleRoot(txs, false)
	if !block.Header.MerkleRoot.IsEqual(&merkleRoot) {
		return ruleError(ErrBadMerkleRoot, fmt.Sprintf("block merkle root is invalid - block header "+
			"indicates %s, but calculated value is %s", block.Header.MerkleRoot, merkleRoot))
	}
	return nil
}

func checkTransactionSanity(tx *wire.MsgTx) error {
	if len(tx.TxIn) == 0 {
		return ruleError(ErrNoTxInputs, fmt.Sprintf("transaction %s has no inputs", tx.TxHash()))
	}
	if len(tx.TxOut) == 0 {
		return ruleError(ErrNoTxOutputs, fmt.Sprintf("transaction %s has no outputs", tx.TxHash()))
	}
	var totalOut int64
	for i, txOut := range tx.TxOut {
		if txOut.Value < 0 || txOut.Value > btcutil.MaxSatoshi {
			return ruleError(ErrBadTxOutValue, fmt.Sprintf("output %d of transaction %s has value %d "+
				"outside of [0, %d]", i, tx.TxHash(), txOut.Value, int64(btcutil.MaxSatoshi)))
		}
		totalOut += txOut.Value
		if totalOut > btcutil.MaxSatoshi {
			return ruleError(ErrBadTxOutValue, fmt.Sprintf("total output value of transaction %s "+
				"exceeds %d", tx.TxHash(), int64(btcutil.MaxSatoshi)))
		}
	}
	seenInputs := make(map[wire.OutPoint]struct{}, len(tx.TxIn))
	for _, txIn := range tx.TxIn {
		if _, ok := seenInputs[txIn.PreviousOutPoint]; ok {
			return ruleError(ErrDuplicateTxInputs, fmt.Sprintf("transaction %s spends %s twice",
				tx.TxHash(), txIn.PreviousOutPoint))
		}
		seenInputs[txIn.PreviousOutPoint] = struct{}{}
	}
	return nil
}
