package rpchandlers

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"

	"github.com/chainsnap/chainsnapd/app/rpc/rpccontext"
	"github.com/chainsnap/chainsnapd/infrastructure/network/rpc/model"
)

// HandleGenerateToAddress handles the respectively named RPC command
func HandleGenerateToAddress(context *rpccontext.Context, cmd interface{}) (interface{}, error) {
	c := cmd.(*model.GenerateToAddressCmd)

	params := context.Chain.Params()
	if !params.GenerateSupported {
		return nil, model.NewRPCError(model.ErrRPCMisc,
			"generatetoaddress is not supported on "+params.Name)
	}
	if c.NumBlocks < 0 {
		return nil, model.NewRPCError(model.ErrRPCInvalidParameter, "nblocks must not be negative")
	}

	address, err := btcutil.DecodeAddress(c.Address, params.Params)
	if err != nil || !address.IsForNet(params.Params) {
		return nil, model.NewRPCError(model.ErrRPCInvalidAddressOrKey, "Error: Invalid address")
	}
	pkScript, err := txscript.PayToAddrScript(address)
	if err != nil {
		return nil, model.NewRPCError(model.ErrRPCInvalidAddressOrKey, "Error: Invalid address")
	}

	hashes, err := context.Chain.GenerateBlocks(c.NumBlocks, pkScript)
	if err != nil {
		return nil, model.NewRPCError(model.ErrRPCMisc, err.Error())
	}

	hashStrings := make([]string, len(hashes))
	for i, hash := range hashes {
		hashStrings[i] = hash.String()
	}
	return hashStrings, nil
}
