package rpchandlers

import (
	"github.com/chainsnap/chainsnapd/app/rpc/rpccontext"
)

// HandleGetBlockCount handles the respectively named RPC command
func HandleGetBlockCount(context *rpccontext.Context, _ interface{}) (interface{}, error) {
	return int64(context.Chain.TipNode().Height()), nil
}
