package rpchandlers

import (
	"github.com/chainsnap/chainsnapd/app/rpc/rpccontext"
	"github.com/chainsnap/chainsnapd/infrastructure/network/rpc/model"
)

// HandleSetNetworkActive handles the respectively named RPC command
func HandleSetNetworkActive(context *rpccontext.Context, cmd interface{}) (interface{}, error) {
	c := cmd.(*model.SetNetworkActiveCmd)

	context.ConnectionManager.SetNetworkActive(c.State)
	return context.ConnectionManager.NetworkActive(), nil
}
