package panics

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/chainsnap/chainsnapd/infrastructure/logger"
)

const exitHandlerTimeout = 5 * time.Second

// HandlePanic recovers a panic, logs it together with the stack of the
// goroutine that spawned the panicking one, and exits the process.
func HandlePanic(log *logger.Logger, spawnStackTrace []byte) {
	err := recover()
	if err == nil {
		return
	}
	exit(log, fmt.Sprintf("Fatal error: %+v", err), debug.Stack(), spawnStackTrace)
}

// GoroutineWrapperFunc returns a spawn function that starts goroutines
// guarded by HandlePanic. The name is included in the trace log.
func GoroutineWrapperFunc(log *logger.Logger) func(name string, f func()) {
	return func(name string, f func()) {
		spawnStackTrace := debug.Stack()
		go func() {
			log.Tracef("Started goroutine %s", name)
			defer log.Tracef("Ended goroutine %s", name)
			defer HandlePanic(log, spawnStackTrace)
			f()
		}()
	}
}

// Exit logs the reason at critical level, flushes the log backend and exits
// with a non-zero status.
func Exit(log *logger.Logger, reason string) {
	exit(log, reason, nil, nil)
}

func exit(log *logger.Logger, reason string, currentStackTrace []byte, spawnStackTrace []byte) {
	exitHandlerDone := make(chan struct{})
	go func() {
		log.Criticalf("Exiting: %s", reason)
		if spawnStackTrace != nil {
			log.Criticalf("Spawn stack trace: %s", spawnStackTrace)
		}
		if currentStackTrace != nil {
			log.Criticalf("Stack trace: %s", currentStackTrace)
		}
		log.Backend().Close()
		close(exitHandlerDone)
	}()

	select {
	case <-time.After(exitHandlerTimeout):
		fmt.Fprintln(os.Stderr, "Couldn't exit gracefully.")
	case <-exitHandlerDone:
	}
	fmt.Fprintln(os.Stderr, "Exiting...")
	os.Exit(1)
}
