package blockchain

// This file functions are not considered safe for regular use, and should be
// used for test purposes only.

import (
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/chainsnap/chainsnapd/domain/chainconfig"
	"github.com/chainsnap/chainsnapd/infrastructure/db/database/ldb"
	"github.com/pkg/errors"
)

// OpTrueScript is a pay-to-anyone script usable by tests to spend outputs
// without signatures.
var OpTrueScript = []byte{txscript.OP_TRUE}

// ChainSetup creates a chain backed by fresh databases in a temporary
// directory. The returned teardown function closes the databases and removes
// the directory.
func ChainSetup(dbName string, params *chainconfig.Params) (*Chain, func(), error) {
	tmpDir, err := os.MkdirTemp("", dbName)
	if err != nil {
		return nil, nil, errors.Errorf("error creating temp dir: %s", err)
	}
	chain, closeFunc, err := openChainAt(tmpDir, params)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, nil, err
	}
	teardown := func() {
		closeFunc()
		_ = os.RemoveAll(tmpDir)
	}
	return chain, teardown, nil
}

func openChainAt(dir string, params *chainconfig.Params) (*Chain, func(), error) {
	db, err := ldb.NewLevelDB(filepath.Join(dir, "chainstate"), 8)
	if err != nil {
		return nil, nil, errors.Errorf("error creating db: %s", err)
	}
	blockStore, err := OpenBlockStore(filepath.Join(dir, "blocks.db"))
	if err != nil {
		_ = db.Close()
		return nil, nil, errors.Errorf("error creating block store: %s", err)
	}
	closeFunc := func() {
		_ = blockStore.Close()
		_ = db.Close()
	}
	chain, err := New(&Config{
		Params:     params,
		Database:   db,
		BlockStore: blockStore,
	})
	if err != nil {
		closeFunc()
		return nil, nil, err
	}
	return chain, closeFunc, nil
}

// SpendOutputTx builds a transaction spending outpoint, which must be locked
// by OpTrueScript, into a single output of value locked by pkScript.
func SpendOutputTx(outpoint wire.OutPoint, value int64, pkScript []byte) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(&outpoint, nil, nil))
	tx.AddTxOut(wire.NewTxOut(value, pkScript))
	return tx
}

// DeleteUndoDataForTest removes the stored undo data of a block while its
// index entry still claims the data is retained, as happens when undo files
// are lost behind the node's back.
func (c *Chain) DeleteUndoDataForTest(hash *chainhash.Hash) error {
	return c.blockStore.DeleteUndo(hash)
}
