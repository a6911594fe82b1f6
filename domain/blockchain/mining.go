package blockchain

import (
	"time"

	btcdblockchain "github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
)

// CoinbaseFlags is pushed into the signature script of generated coinbases.
const CoinbaseFlags = "/chainsnapd/"

// generatedBlockVersion signals BIP9 version bits with no deployments.
const generatedBlockVersion = 0x20000000

// GenerateBlocks mines count blocks paying their coinbase to pkScript and
// returns their hashes. Proof of work is not searched for, so this is only
// meaningful on networks that support generation.
func (c *Chain) GenerateBlocks(count int, pkScript []byte) ([]*chainhash.Hash, error) {
	if !c.params.GenerateSupported {
		return nil, errors.Errorf("block generation is not supported on %s", c.params.Name)
	}
	hashes := make([]*chainhash.Hash, 0, count)
	for i := 0; i < count; i++ {
		block, err := c.GenerateBlock(pkScript, nil)
		if err != nil {
			return hashes, err
		}
		hash := block.BlockHash()
		hashes = append(hashes, &hash)
	}
	return hashes, nil
}

// GenerateBlock mines a single block containing the given transactions after
// the coinbase, and connects it.
func (c *Chain) GenerateBlock(pkScript []byte, txs []*wire.MsgTx) (*wire.MsgBlock, error) {
	if !c.params.GenerateSupported {
		return nil, errors.Errorf("block generation is not supported on %s", c.params.Name)
	}
	c.lock.lowPriorityLock()
	defer c.lock.lowPriorityUnlock()
	if c.closed {
		return nil, errors.WithStack(ErrClosed)
	}

	block, err := c.newBlockTemplate(c.index.tip(), pkScript, txs)
	if err != nil {
		return nil, err
	}
	_, err = c.connectBlock(block, nil)
	if err != nil {
		return nil, err
	}
	return block, nil
}

func (c *Chain) newBlockTemplate(tip *BlockNode, pkScript []byte, txs []*wire.MsgTx) (*wire.MsgBlock, error) {
	height := tip.height + 1
	coinbase, err := createCoinbaseTx(height, btcdblockchain.CalcBlockSubsidy(height, c.params.Params), pkScript)
	if err != nil {
		return nil, err
	}

	blockTxs := make([]*btcutil.Tx, 0, len(txs)+1)
	blockTxs = append(blockTxs, btcutil.NewTx(coinbase))
	for _, tx := range txs {
		blockTxs = append(blockTxs, btcutil.NewTx(tx))
	}

	header := wire.BlockHeader{
		Version:    generatedBlockVersion,
		PrevBlock:  tip.hash,
		MerkleRoot: btcdblockchain.CalcMerkleRoot(blockTxs, false),
		Timestamp:  time.Unix(tip.timestamp+1, 0),
		Bits:       c.params.PowLimitBits,
	}
	block := wire.NewMsgBlock(&header)
	for _, tx := range blockTxs {
		err := block.AddTransaction(tx.MsgTx())
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}
	return block, nil
}

// createCoinbaseTx builds a coinbase whose signature script commits to the
// block height as required by BIP34.
func createCoinbaseTx(height int32, value int64, pkScript []byte) (*wire.MsgTx, error) {
	signatureScript, err := txscript.NewScriptBuilder().
		AddInt64(int64(height)).
		AddInt64(0).
		AddData([]byte(CoinbaseFlags)).
		Script()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: *wire.NewOutPoint(&chainhash.Hash{}, wire.MaxPrevOutIndex),
		SignatureScript:  signatureScript,
		Sequence:         wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(wire.NewTxOut(value, pkScript))
	return tx, nil
}
