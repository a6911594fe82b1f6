package rpchandlers

import (
	"github.com/chainsnap/chainsnapd/infrastructure/logger"
	"github.com/chainsnap/chainsnapd/util/panics"
)

var log = logger.RegisterSubSystem("RPCS")
var spawn = panics.GoroutineWrapperFunc(log)
