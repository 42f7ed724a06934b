package goroutine

import (
	"fmt"
	"os"
	"runtime"

	"interviewer/core"
	"interviewer/metrics"

	"go.uber.org/zap"
)

const (
	// StackTraceBufferSize is the buffer size for stack trace collection
	StackTraceBufferSize = 8192
)

// Capture wraps a recovered panic value together with the current goroutine stack
func Capture(value interface{}) *core.PanicError {
	buf := make([]byte, StackTraceBufferSize)
	n := runtime.Stack(buf, false)
	return &core.PanicError{Value: value, Stack: string(buf[:n])}
}

// Recover recovers from panics in goroutines and logs them.
// If logger is nil, falls back to stderr to ensure panic is recorded.
func Recover(name string, logger *zap.SugaredLogger) {
	if r := recover(); r != nil {
		logPanic(name, logger, Capture(r))
	}
}

// Guard runs fn and converts a panic into a returned *core.PanicError, so a
// supervised goroutine can report the failure instead of crashing the process
func Guard(name string, logger *zap.SugaredLogger, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			perr := Capture(r)
			logPanic(name, logger, perr)
			err = perr
		}
	}()
	return fn()
}

func logPanic(name string, logger *zap.SugaredLogger, perr *core.PanicError) {
	metrics.GoroutinePanicsRecovered.WithLabelValues(name).Inc()

	if logger != nil {
		logger.Errorw("Goroutine panic recovered",
			"goroutine", name,
			"panic", perr.Value,
			"stack", perr.Stack)
		return
	}
	fmt.Fprintf(os.Stderr, "PANIC in goroutine %s (no logger): %v\n%s\n", name, perr.Value, perr.Stack)
}
