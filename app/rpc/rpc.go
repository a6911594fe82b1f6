package rpc

import (
	"github.com/chainsnap/chainsnapd/app/rpc/rpccontext"
	"github.com/chainsnap/chainsnapd/app/rpc/rpchandlers"
	rpcserver "github.com/chainsnap/chainsnapd/infrastructure/network/rpc"
	"github.com/chainsnap/chainsnapd/infrastructure/network/rpc/model"
)

type handler func(context *rpccontext.Context, cmd interface{}) (interface{}, error)

var handlers = map[string]handler{
	model.MethodDumpTxOutSet:      rpchandlers.HandleDumpTxOutSet,
	model.MethodGetTxOutSetInfo:   rpchandlers.HandleGetTxOutSetInfo,
	model.MethodGetBlockCount:     rpchandlers.HandleGetBlockCount,
	model.MethodGetBestBlockHash:  rpchandlers.HandleGetBestBlockHash,
	model.MethodGetBlockHash:      rpchandlers.HandleGetBlockHash,
	model.MethodGetNetworkInfo:    rpchandlers.HandleGetNetworkInfo,
	model.MethodSetNetworkActive:  rpchandlers.HandleSetNetworkActive,
	model.MethodGenerateToAddress: rpchandlers.HandleGenerateToAddress,
	model.MethodDebugLevel:        rpchandlers.HandleDebugLevel,
	model.MethodStop:              rpchandlers.HandleStop,
	model.MethodUptime:            rpchandlers.HandleUptime,
}

// bindHandlers returns the transport handlers bound to context.
func bindHandlers(context *rpccontext.Context) map[string]rpcserver.Handler {
	bound := make(map[string]rpcserver.Handler, len(handlers))
	for method, h := range handlers {
		h := h
		bound[method] = func(cmd interface{}) (interface{}, error) {
			return h(context, cmd)
		}
	}
	return bound
}
