package app

import (
	"github.com/chainsnap/chainsnapd/infrastructure/logger"
	"github.com/chainsnap/chainsnapd/util/panics"
)

var log = logger.RegisterSubSystem("CSND")
var spawn = panics.GoroutineWrapperFunc(log)
