package blockchain

import (
	"github.com/chainsnap/chainsnapd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("CHAN")
