package boltstore

import "github.com/chainsnap/chainsnapd/infrastructure/logger"

var log = logger.RegisterSubSystem("BDB")
