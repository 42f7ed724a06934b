package bootstrap

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// ShutdownSignals start a graceful drain
var ShutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// SignalError is the cancellation cause recorded when a shutdown signal arrives
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	return "received " + e.Signal.String()
}

// SignalContext returns a context cancelled by the first shutdown signal.
// context.Cause reports which signal it was. Signal handling is released
// after the first delivery, so a second signal terminates the process
// without waiting for the drain.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)

	c := make(chan os.Signal, 1)
	signal.Notify(c, ShutdownSignals...)

	go func() {
		defer signal.Stop(c)
		select {
		case sig := <-c:
			cancel(&SignalError{Signal: sig})
		case <-ctx.Done():
		}
	}()

	return ctx, func() { cancel(nil) }
}
