package rpchandlers

import (
	"time"

	"github.com/chainsnap/chainsnapd/app/rpc/rpccontext"
)

// stopDelay leaves time for the response to reach the caller.
const stopDelay = 500 * time.Millisecond

// HandleStop handles the respectively named RPC command
func HandleStop(context *rpccontext.Context, _ interface{}) (interface{}, error) {
	log.Warnf("Stop RPC called.")

	spawn("HandleStop", func() {
		<-time.After(stopDelay)
		select {
		case context.ShutDownChan <- struct{}{}:
		default:
		}
	})

	return "chainsnapd stopping.", nil
}
