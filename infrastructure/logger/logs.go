package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// BackendLog is the backend shared by every subsystem logger of the process.
var BackendLog = NewBackend()

var (
	subsystemLoggersLock sync.Mutex
	subsystemLoggers     = make(map[string]*Logger)
)

// RegisterSubSystem returns the logger for the given subsystem tag, creating
// it on first use. New loggers start at the info level.
func RegisterSubSystem(subsystem string) *Logger {
	subsystemLoggersLock.Lock()
	defer subsystemLoggersLock.Unlock()

	logger, ok := subsystemLoggers[subsystem]
	if !ok {
		logger = BackendLog.Logger(subsystem)
		logger.SetLevel(LevelInfo)
		subsystemLoggers[subsystem] = logger
	}
	return logger
}

// InitLog attaches the main and error log files to BackendLog, mirrors
// info-and-above to stdout, and starts the backend.
func InitLog(logFile, errLogFile string) {
	err := BackendLog.AddLogFile(logFile, LevelTrace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding log file %s as log rotator for level %s: %s\n", logFile, LevelTrace, err)
		os.Exit(1)
	}
	err = BackendLog.AddLogFile(errLogFile, LevelWarn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding log file %s as log rotator for level %s: %s\n", errLogFile, LevelWarn, err)
		os.Exit(1)
	}
	err = BackendLog.AddStdout(LevelInfo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding stdout to the logger for level %s: %s\n", LevelInfo, err)
		os.Exit(1)
	}
	err = BackendLog.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting the logger: %s\n", err)
		os.Exit(1)
	}
}

// SetLogLevel sets the level of a single subsystem. Unknown subsystems are
// ignored.
func SetLogLevel(subsystem string, level Level) {
	subsystemLoggersLock.Lock()
	defer subsystemLoggersLock.Unlock()

	if logger, ok := subsystemLoggers[subsystem]; ok {
		logger.SetLevel(level)
	}
}

// SetLogLevels sets every registered subsystem to the given level.
func SetLogLevels(level Level) {
	subsystemLoggersLock.Lock()
	defer subsystemLoggersLock.Unlock()

	for _, logger := range subsystemLoggers {
		logger.SetLevel(level)
	}
}

// SupportedSubsystems returns the sorted tags of all registered subsystems.
func SupportedSubsystems() []string {
	subsystemLoggersLock.Lock()
	defer subsystemLoggersLock.Unlock()

	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsystem := range subsystemLoggers {
		subsystems = append(subsystems, subsystem)
	}
	sort.Strings(subsystems)
	return subsystems
}

// ParseAndSetLogLevels applies a debug level spec. The spec is either a
// single level applied to all subsystems, or a comma separated list of
// subsystem=level pairs, optionally mixed with one bare level.
func ParseAndSetLogLevels(levelSpec string) error {
	if !strings.Contains(levelSpec, "=") && !strings.Contains(levelSpec, ",") {
		level, ok := LevelFromString(levelSpec)
		if !ok {
			return errors.Errorf("the specified debug level [%s] is invalid", levelSpec)
		}
		SetLogLevels(level)
		return nil
	}

	supported := make(map[string]struct{})
	for _, subsystem := range SupportedSubsystems() {
		supported[subsystem] = struct{}{}
	}

	for _, pair := range strings.Split(levelSpec, ",") {
		if !strings.Contains(pair, "=") {
			level, ok := LevelFromString(pair)
			if !ok {
				return errors.Errorf("the specified debug level [%s] is invalid", pair)
			}
			SetLogLevels(level)
			continue
		}
		fields := strings.Split(pair, "=")
		if len(fields) != 2 {
			return errors.Errorf("the specified debug level contains an invalid subsystem/level pair [%s]", pair)
		}
		subsystem, levelName := fields[0], fields[1]
		if _, ok := supported[subsystem]; !ok {
			return errors.Errorf("the specified subsystem [%s] is invalid -- supported subsystems %s",
				subsystem, SupportedSubsystems())
		}
		level, ok := LevelFromString(levelName)
		if !ok {
			return errors.Errorf("the specified debug level [%s] is invalid", levelName)
		}
		SetLogLevel(subsystem, level)
	}
	return nil
}

// LogAndMeasureExecutionTime logs the start of functionName at debug level
// and returns a function that logs its end along with the elapsed time.
func LogAndMeasureExecutionTime(log *Logger, functionName string) (onEnd func()) {
	start := time.Now()
	log.Debugf("%s start", functionName)
	return func() {
		log.Debugf("%s end. Took: %s", functionName, time.Since(start))
	}
}
