package rpchandlers

import (
	"github.com/btcsuite/btcd/wire"

	"github.com/chainsnap/chainsnapd/app/rpc/rpccontext"
	"github.com/chainsnap/chainsnapd/infrastructure/network/rpc/model"
	"github.com/chainsnap/chainsnapd/version"
)

// HandleGetNetworkInfo handles the respectively named RPC command
func HandleGetNetworkInfo(context *rpccontext.Context, _ interface{}) (interface{}, error) {
	listenAddresses := context.ConnectionManager.ListenAddresses()
	localAddresses := make([]string, 0, len(listenAddresses))
	for _, address := range listenAddresses {
		localAddresses = append(localAddresses, address.String())
	}

	return &model.GetNetworkInfoResult{
		Version:         version.Numeric(),
		Subversion:      "/chainsnapd:" + version.Version() + "/",
		Network:         context.Chain.Params().Name,
		NetworkActive:   context.ConnectionManager.NetworkActive(),
		Connections:     context.ConnectionManager.ConnectionCount(),
		LocalAddresses:  localAddresses,
		ProtocolVersion: wire.ProtocolVersion,
	}, nil
}
