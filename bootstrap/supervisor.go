package bootstrap

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"interviewer/config"
	"interviewer/metrics"
	"interviewer/util/goroutine"

	"go.uber.org/zap"
)

// DrainTimeout bounds graceful shutdown. Connections still open after it
// elapses are closed and the process exits non-zero.
const DrainTimeout = 10 * time.Second

// ReadHeaderTimeout bounds how long a client may take to send request headers
const ReadHeaderTimeout = 10 * time.Second

// Exit codes returned by Supervisor.Run
const (
	ExitOK      = 0
	ExitFailure = 1
)

// State is a lifecycle state of the supervised server
type State int32

const (
	StateStarting State = iota
	StateListening
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateListening:
		return "listening"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Closer is a resource released after the server has drained
type Closer interface {
	Name() string
	Disconnect(ctx context.Context) error
}

// Supervisor owns the listening server. It binds once, closes once and maps
// the way the server stopped onto a process exit code.
type Supervisor struct {
	server       *http.Server
	listener     net.Listener
	mode         config.Mode
	logger       *zap.SugaredLogger
	drainTimeout time.Duration
	closers      []Closer

	state atomic.Int32
	fatal chan error

	// ctx is handed to supervised goroutines and cancelled when the server stops
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// SupervisorOption configures a Supervisor
type SupervisorOption func(*Supervisor)

// WithListener serves on an already bound listener instead of binding the configured port
func WithListener(listener net.Listener) SupervisorOption {
	return func(s *Supervisor) {
		s.listener = listener
	}
}

// WithDrainTimeout overrides DrainTimeout
func WithDrainTimeout(timeout time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		s.drainTimeout = timeout
	}
}

// WithClosers registers resources to release after a clean drain
func WithClosers(closers ...Closer) SupervisorOption {
	return func(s *Supervisor) {
		s.closers = append(s.closers, closers...)
	}
}

// NewSupervisor creates a supervisor serving handler on the configured port
func NewSupervisor(cfg *config.Config, handler http.Handler, logger *zap.SugaredLogger, opts ...SupervisorOption) *Supervisor {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Supervisor{
		server: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: ReadHeaderTimeout,
			ErrorLog:          zap.NewStdLog(logger.Desugar()),
		},
		mode:         cfg.Mode,
		logger:       logger,
		drainTimeout: DrainTimeout,
		fatal:        make(chan error, 1),
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setState(StateStarting)
	return s
}

// State returns the current lifecycle state
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

func (s *Supervisor) setState(state State) {
	s.state.Store(int32(state))
	metrics.LifecycleState.Set(float64(state))
	s.logger.Debugw("Lifecycle state changed", "state", state.String())
}

// Go runs fn in a supervised goroutine. A panic or an error returned while
// the server is still running is fatal: Run closes the server and returns
// ExitFailure. fn must return once ctx is cancelled.
//
// Background work must be started through Go. A panic in a goroutine started
// any other way is not recovered and the runtime exits the process with
// status 2.
func (s *Supervisor) Go(name string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := goroutine.Guard(name, s.logger, func() error {
			return fn(s.ctx)
		})
		if err == nil || s.ctx.Err() != nil {
			return
		}
		select {
		case s.fatal <- fmt.Errorf("%s: %w", name, err):
		default:
		}
	}()
}

// Run binds the listener and serves until ctx is cancelled or a fatal error
// occurs. It returns the process exit code.
func (s *Supervisor) Run(ctx context.Context) int {
	defer s.cancel()

	listener := s.listener
	if listener == nil {
		var err error
		listener, err = net.Listen("tcp", s.server.Addr)
		if err != nil {
			s.logger.Errorw("Failed to bind listener", "addr", s.server.Addr, "error", err)
			s.setState(StateStopped)
			return ExitFailure
		}
	}

	s.setState(StateListening)
	s.logger.Infow("Server listening", "port", portOf(listener), "mode", string(s.mode))

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- goroutine.Guard("http-server", s.logger, func() error {
			return s.server.Serve(listener)
		})
	}()

	select {
	case <-ctx.Done():
		return s.drain(context.Cause(ctx))
	case err := <-serveErr:
		s.logger.Errorw("Server failed", "error", err)
		return s.abort()
	case err := <-s.fatal:
		s.logger.Errorw("Fatal error, shutting down immediately", "error", err)
		return s.abort()
	}
}

// drain stops accepting connections and waits for in-flight requests and
// supervised goroutines, all within the drain timeout
func (s *Supervisor) drain(cause error) int {
	s.setState(StateDraining)
	s.logger.Infow("Shutting down gracefully", "reason", cause, "timeout", s.drainTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.drainTimeout)
	defer cancel()

	s.cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Errorw("Could not close connections in time, forcefully shutting down", "error", err)
		return s.abort()
	}
	if err := s.waitGoroutines(shutdownCtx); err != nil {
		s.logger.Errorw("Supervised goroutines did not stop in time", "error", err)
		return s.abort()
	}

	s.disconnect(shutdownCtx)
	s.setState(StateStopped)
	s.logger.Info("Server closed")
	return ExitOK
}

// abort closes the server without draining
func (s *Supervisor) abort() int {
	s.cancel()
	if err := s.server.Close(); err != nil {
		s.logger.Warnw("Error closing server", "error", err)
	}
	s.setState(StateStopped)
	return ExitFailure
}

func (s *Supervisor) waitGoroutines(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// disconnect releases closers in reverse registration order. Failures are
// logged and do not change the exit code.
func (s *Supervisor) disconnect(ctx context.Context) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		closer := s.closers[i]
		if err := closer.Disconnect(ctx); err != nil {
			s.logger.Errorw("Failed to disconnect", "resource", closer.Name(), "error", err)
		}
	}
}

func portOf(listener net.Listener) int {
	if addr, ok := listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}
