package rpchandlers

import (
	"github.com/chainsnap/chainsnapd/app/rpc/rpccontext"
	"github.com/chainsnap/chainsnapd/infrastructure/network/rpc/model"
)

// HandleGetBlockHash handles the respectively named RPC command
func HandleGetBlockHash(context *rpccontext.Context, cmd interface{}) (interface{}, error) {
	c := cmd.(*model.GetBlockHashCmd)

	node, ok := context.Chain.NodeByHeight(c.Height)
	if !ok {
		return nil, model.NewRPCError(model.ErrRPCInvalidParameter, "Block height out of range")
	}
	return node.Hash().String(), nil
}
