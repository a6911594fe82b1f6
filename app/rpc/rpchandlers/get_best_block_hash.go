package rpchandlers

import (
	"github.com/chainsnap/chainsnapd/app/rpc/rpccontext"
)

// HandleGetBestBlockHash handles the respectively named RPC command
func HandleGetBestBlockHash(context *rpccontext.Context, _ interface{}) (interface{}, error) {
	return context.Chain.TipNode().Hash().String(), nil
}
