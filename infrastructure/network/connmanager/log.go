package connmanager

import (
	"github.com/chainsnap/chainsnapd/infrastructure/logger"
	"github.com/chainsnap/chainsnapd/util/panics"
)

var log = logger.RegisterSubSystem("CMGR")
var spawn = panics.GoroutineWrapperFunc(log)
