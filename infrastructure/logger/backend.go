package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
)

// Flags that modify the callsite information included in log lines.
const (
	// LogFlagLongFile includes the full path and line number of the
	// logging callsite, e.g. /a/b/c/main.go:123.
	LogFlagLongFile uint32 = 1 << iota

	// LogFlagShortFile includes the file name and line number of the
	// logging callsite, e.g. main.go:123. Takes precedence over LogFlagLongFile.
	LogFlagShortFile
)

// defaultFlags is read from the LOGFLAGS environment variable. It is a
// variable rather than an init() side effect because other package level
// variables depend on it.
var defaultFlags = flagsFromEnv(os.Getenv("LOGFLAGS"))

func flagsFromEnv(value string) (flags uint32) {
	for _, f := range strings.Split(value, ",") {
		switch strings.TrimSpace(f) {
		case "longfile":
			flags |= LogFlagLongFile
		case "shortfile":
			flags |= LogFlagShortFile
		}
	}
	return flags
}

const (
	defaultThresholdKB = 100 * 1000 // 100 MB per file before rolling
	defaultMaxRolls    = 8

	writeChanBuffer = 256
)

type logEntry struct {
	log   []byte
	level Level
}

type logWriter interface {
	io.WriteCloser
	LogLevel() Level
}

type leveledWriter struct {
	io.WriteCloser
	level Level
}

func (w leveledWriter) LogLevel() Level {
	return w.level
}

// stdoutCloser keeps Close from closing the process's stdout.
type stdoutCloser struct {
	io.Writer
}

func (stdoutCloser) Close() error { return nil }

// Backend serializes log entries from every subsystem logger into a single
// writer goroutine, which fans each entry out to all writers whose level
// admits it.
type Backend struct {
	flag      uint32
	isRunning uint32
	writers   []logWriter
	writeChan chan logEntry
	done      sync.WaitGroup
	closeOnce sync.Once
}

// NewBackend creates a new logger backend using the flags found in LOGFLAGS.
func NewBackend() *Backend {
	return NewBackendWithFlags(defaultFlags)
}

// NewBackendWithFlags creates a new logger backend with the given flags.
func NewBackendWithFlags(flags uint32) *Backend {
	return &Backend{flag: flags, writeChan: make(chan logEntry, writeChanBuffer)}
}

// AddLogFile adds a rotated log file that receives every entry at or above
// logLevel. The file and its directory are created if missing.
func (b *Backend) AddLogFile(logFile string, logLevel Level) error {
	return b.AddLogFileWithCustomRotator(logFile, logLevel, defaultThresholdKB, defaultMaxRolls)
}

// AddLogFileWithCustomRotator is AddLogFile with explicit rotation settings.
func (b *Backend) AddLogFileWithCustomRotator(logFile string, logLevel Level, thresholdKB int64, maxRolls int) error {
	if b.IsRunning() {
		return errors.New("the logger is already running")
	}
	logDir, _ := filepath.Split(logFile)
	if logDir != "" {
		err := os.MkdirAll(logDir, 0700)
		if err != nil {
			return errors.Wrapf(err, "failed to create log directory %s", logDir)
		}
	}
	r, err := rotator.New(logFile, thresholdKB, false, maxRolls)
	if err != nil {
		return errors.Wrapf(err, "failed to create file rotator for %s", logFile)
	}
	b.writers = append(b.writers, leveledWriter{WriteCloser: r, level: logLevel})
	return nil
}

// AddLogWriter adds an arbitrary writer that receives every entry at or
// above logLevel.
func (b *Backend) AddLogWriter(writer io.WriteCloser, logLevel Level) error {
	if b.IsRunning() {
		return errors.New("the logger is already running")
	}
	b.writers = append(b.writers, leveledWriter{WriteCloser: writer, level: logLevel})
	return nil
}

// AddStdout mirrors entries at or above logLevel to stdout.
func (b *Backend) AddStdout(logLevel Level) error {
	return b.AddLogWriter(stdoutCloser{os.Stdout}, logLevel)
}

// Run launches the writer goroutine. It may only be called once.
func (b *Backend) Run() error {
	if !atomic.CompareAndSwapUint32(&b.isRunning, 0, 1) {
		return errors.New("the logger is already running")
	}
	b.done.Add(1)
	go func() {
		defer b.done.Done()
		defer func() {
			if err := recover(); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Fatal error in logger.Backend goroutine: %+v\n", err)
				_, _ = fmt.Fprintf(os.Stderr, "Goroutine stacktrace: %s\n", debug.Stack())
			}
		}()
		for entry := range b.writeChan {
			for _, writer := range b.writers {
				if entry.level >= writer.LogLevel() {
					_, _ = writer.Write(entry.log)
				}
			}
		}
	}()
	return nil
}

// IsRunning returns whether Run has been called and Close has not.
func (b *Backend) IsRunning() bool {
	return atomic.LoadUint32(&b.isRunning) != 0
}

// Close drains pending entries and closes all writers.
func (b *Backend) Close() {
	b.closeOnce.Do(func() {
		wasRunning := atomic.SwapUint32(&b.isRunning, 0) != 0
		close(b.writeChan)
		if wasRunning {
			b.done.Wait()
		}
		for _, writer := range b.writers {
			_ = writer.Close()
		}
	})
}

func (b *Backend) write(level Level, data []byte) {
	if !b.IsRunning() {
		return
	}
	defer func() {
		// The channel may be closed concurrently by Close during shutdown.
		_ = recover()
	}()
	b.writeChan <- logEntry{log: data, level: level}
}

// Logger returns a new logger for the given subsystem tag. The logger is off
// until SetLevel is called.
func (b *Backend) Logger(subsystemTag string) *Logger {
	return &Logger{level: uint32(LevelOff), tag: subsystemTag, backend: b}
}
