package rpchandlers

import (
	"time"

	"github.com/chainsnap/chainsnapd/app/rpc/rpccontext"
)

// HandleUptime handles the respectively named RPC command
func HandleUptime(context *rpccontext.Context, _ interface{}) (interface{}, error) {
	return int64(time.Since(context.StartTime).Seconds()), nil
}
