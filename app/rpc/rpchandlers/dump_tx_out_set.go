package rpchandlers

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/chainsnap/chainsnapd/app/rpc/rpccontext"
	"github.com/chainsnap/chainsnapd/domain/utxosnapshot"
	"github.com/chainsnap/chainsnapd/infrastructure/network/rpc/model"
)

// HandleDumpTxOutSet handles the respectively named RPC command
func HandleDumpTxOutSet(context *rpccontext.Context, cmd interface{}) (interface{}, error) {
	c := cmd.(*model.DumpTxOutSetCmd)

	target, err := snapshotTarget(c)
	if err != nil {
		return nil, err
	}

	result, err := context.SnapshotEngine.Dump(c.Path, target)
	if err != nil {
		if snapshotErr, ok := utxosnapshot.AsError(err); ok {
			return nil, model.NewRPCError(model.ErrRPCInvalidParameter, snapshotErr.Description)
		}
		return nil, err
	}

	return &model.DumpTxOutSetResult{
		CoinsWritten: result.CoinsWritten,
		BaseHash:     result.BaseHash.String(),
		BaseHeight:   result.BaseHeight,
		Path:         result.Path,
		TxOutSetHash: result.TxOutSetHash.String(),
		MuHash:       result.MuHash,
		NChainTx:     result.ChainTxCount,
	}, nil
}

func snapshotTarget(c *model.DumpTxOutSetCmd) (*utxosnapshot.Target, error) {
	target := &utxosnapshot.Target{}
	if c.Type != nil {
		target.Type = *c.Type
	}
	if c.Options == nil || c.Options.Rollback == nil {
		return target, nil
	}

	rollback := c.Options.Rollback
	switch {
	case rollback.Height != nil:
		height := *rollback.Height
		target.RollbackHeight = &height
	case rollback.Hash != nil:
		hash, err := chainhash.NewHashFromStr(*rollback.Hash)
		if err != nil {
			return nil, model.NewRPCError(model.ErrRPCInvalidParameter,
				"rollback must be a block height or a block hash: "+err.Error())
		}
		target.RollbackHash = hash
	}
	return target, nil
}
