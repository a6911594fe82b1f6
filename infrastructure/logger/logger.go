package logger

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// Logger writes subsystem-tagged entries to a Backend.
type Logger struct {
	level   uint32
	tag     string
	backend *Backend
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32(&l.level))
}

// SetLevel changes the logging level.
func (l *Logger) SetLevel(level Level) {
	atomic.StoreUint32(&l.level, uint32(level))
}

// Backend returns the backend this logger writes to.
func (l *Logger) Backend() *Backend {
	return l.backend
}

// Tracef formats a message at the trace level.
func (l *Logger) Tracef(format string, args ...interface{}) { l.writef(LevelTrace, format, args) }

// Debugf formats a message at the debug level.
func (l *Logger) Debugf(format string, args ...interface{}) { l.writef(LevelDebug, format, args) }

// Infof formats a message at the info level.
func (l *Logger) Infof(format string, args ...interface{}) { l.writef(LevelInfo, format, args) }

// Warnf formats a message at the warn level.
func (l *Logger) Warnf(format string, args ...interface{}) { l.writef(LevelWarn, format, args) }

// Errorf formats a message at the error level.
func (l *Logger) Errorf(format string, args ...interface{}) { l.writef(LevelError, format, args) }

// Criticalf formats a message at the critical level.
func (l *Logger) Criticalf(format string, args ...interface{}) { l.writef(LevelCritical, format, args) }

// Trace logs its arguments at the trace level.
func (l *Logger) Trace(args ...interface{}) { l.write(LevelTrace, args) }

// Debug logs its arguments at the debug level.
func (l *Logger) Debug(args ...interface{}) { l.write(LevelDebug, args) }

// Info logs its arguments at the info level.
func (l *Logger) Info(args ...interface{}) { l.write(LevelInfo, args) }

// Warn logs its arguments at the warn level.
func (l *Logger) Warn(args ...interface{}) { l.write(LevelWarn, args) }

// Error logs its arguments at the error level.
func (l *Logger) Error(args ...interface{}) { l.write(LevelError, args) }

// Critical logs its arguments at the critical level.
func (l *Logger) Critical(args ...interface{}) { l.write(LevelCritical, args) }

func (l *Logger) writef(level Level, format string, args []interface{}) {
	if level < l.Level() || !l.backend.IsRunning() {
		return
	}
	l.backend.write(level, l.formatEntry(level, fmt.Sprintf(format, args...)))
}

func (l *Logger) write(level Level, args []interface{}) {
	if level < l.Level() || !l.backend.IsRunning() {
		return
	}
	l.backend.write(level, l.formatEntry(level, fmt.Sprint(args...)))
}

// formatEntry renders "2006-01-02 15:04:05.000 [LVL] TAG: file:line: message\n".
func (l *Logger) formatEntry(level Level, message string) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, len(message)+64))
	buf.WriteString(time.Now().Format("2006-01-02 15:04:05.000"))
	buf.WriteString(" [")
	buf.WriteString(level.String())
	buf.WriteString("] ")
	buf.WriteString(l.tag)
	buf.WriteString(": ")
	if l.backend.flag&(LogFlagShortFile|LogFlagLongFile) != 0 {
		buf.WriteString(callsite(l.backend.flag))
		buf.WriteString(": ")
	}
	buf.WriteString(message)
	if !strings.HasSuffix(message, "\n") {
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// callsiteDepth skips callsite, formatEntry, write(f) and the exported method.
const callsiteDepth = 4

func callsite(flag uint32) string {
	_, file, line, ok := runtime.Caller(callsiteDepth)
	if !ok {
		return "???:0"
	}
	if flag&LogFlagShortFile != 0 {
		if i := strings.LastIndexByte(file, '/'); i >= 0 {
			file = file[i+1:]
		}
	}
	return fmt.Sprintf("%s:%d", file, line)
}
