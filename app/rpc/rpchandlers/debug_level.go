package rpchandlers

import (
	"fmt"

	"github.com/chainsnap/chainsnapd/app/rpc/rpccontext"
	"github.com/chainsnap/chainsnapd/infrastructure/logger"
	"github.com/chainsnap/chainsnapd/infrastructure/network/rpc/model"
)

// HandleDebugLevel handles the respectively named RPC command
func HandleDebugLevel(_ *rpccontext.Context, cmd interface{}) (interface{}, error) {
	c := cmd.(*model.DebugLevelCmd)

	// Special show command to list supported subsystems.
	if c.LevelSpec == "show" {
		return fmt.Sprintf("Supported subsystems %s",
			logger.SupportedSubsystems()), nil
	}

	err := logger.ParseAndSetLogLevels(c.LevelSpec)
	if err != nil {
		return nil, model.NewRPCError(model.ErrRPCInvalidParams, err.Error())
	}

	return "Done.", nil
}
