package rpchandlers

import (
	"github.com/btcsuite/btcd/btcutil"

	"github.com/chainsnap/chainsnapd/app/rpc/rpccontext"
	"github.com/chainsnap/chainsnapd/infrastructure/network/rpc/model"
)

// HandleGetTxOutSetInfo handles the respectively named RPC command
func HandleGetTxOutSetInfo(context *rpccontext.Context, _ interface{}) (interface{}, error) {
	info, err := context.SnapshotEngine.TxOutSetInfo()
	if err != nil {
		return nil, err
	}

	return &model.GetTxOutSetInfoResult{
		Height:         info.Height,
		BestBlock:      info.BestBlock.String(),
		TxOuts:         info.TxOuts,
		Transactions:   info.Transactions,
		BogoSize:       info.BogoSize,
		HashSerialized: info.HashSerialized.String(),
		MuHash:         info.MuHash,
		TotalAmount:    btcutil.Amount(info.TotalAmount).ToBTC(),
	}, nil
}
