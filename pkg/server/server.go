package server

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	errors2 "github.com/assetnote/serverbench/pkg/errors"
	"github.com/assetnote/serverbench/pkg/log"
	"github.com/rs/zerolog"
)

// Strategy names as exposed through the registry and the management api
const (
	SerialName = "Single-Threaded"
	PooledName = "Thread-Pool"
)

// ErrServerClosed is returned by Listen once Close has been called
var ErrServerClosed = fmt.Errorf("server closed")

// Server is a connection accepting strategy.
//
// Listen binds the socket and marks the server running. Serve blocks running the accept loop until Stop
// is called, ctx is cancelled or a fatal accept error occurs; a Stop (or cancellation) is not reported as
// an error. Start is Listen followed by Serve.
//
// A server may be started again once Serve has returned. Close releases resources held for the whole
// lifetime of the server, after which it cannot be started.
type Server interface {
	Name() string
	Listen(port int) error
	Serve(ctx context.Context) error
	Start(ctx context.Context, port int) error
	Stop() error
	Close() error
	IsRunning() bool
	Port() int
	Handled() uint64
}

// listener implements the state machine shared by both strategies. The strategies only differ in
// how an accepted connection is dispatched
type listener struct {
	name    string
	config  Config
	handler connHandler
	logger  zerolog.Logger

	mu      sync.Mutex
	ln      net.Listener
	port    int
	stopped chan struct{} // closed by Stop. Accept errors observed after this are the termination signal
	pending bool          // set by Listen until the run's accept loop starts
	serving bool
	closed  bool
	active  sync.WaitGroup // active tracks running accept loops so Close can wait for them

	running int32
	handled uint64
}

func newListener(name string, opts ...ConfigOption) (*listener, error) {
	c := NewDefaultConfig()
	for _, o := range opts {
		o(c)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create %s server: %w", name, err)
	}

	return &listener{
		name:    name,
		config:  *c,
		handler: NewHandler(c),
		logger:  log.Component("server").With().Str("server", name).Logger(),
	}, nil
}

func (l *listener) Name() string {
	return l.name
}

// Config returns a copy of the config the server was created with
func (l *listener) Config() Config {
	return l.config
}

func (l *listener) IsRunning() bool {
	return atomic.LoadInt32(&l.running) == 1
}

// Port returns the bound port while running, otherwise 0
func (l *listener) Port() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.port
}

// Handled returns the number of connections that received the full response over the server's lifetime
func (l *listener) Handled() uint64 {
	return atomic.LoadUint64(&l.handled)
}

func (l *listener) Listen(port int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrServerClosed
	}
	if l.ln != nil || l.serving {
		return errors2.New(errors2.AlreadyRunning, l.name, "start", nil)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(l.config.Host, strconv.Itoa(port)))
	if err != nil {
		l.logger.Error().Err(err).Int("port", port).Msg("failed to bind")
		return errors2.New(errors2.BindFailure, l.name, "start", err)
	}

	l.ln = ln
	l.port = ln.Addr().(*net.TCPAddr).Port
	l.stopped = make(chan struct{})
	l.pending = true
	atomic.StoreInt32(&l.running, 1)

	l.logger.Info().Int("port", l.port).Msg("server listening")
	return nil
}

func (l *listener) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopLocked()
}

// stopRun stops the server only if it is still on the run identified by stopped
func (l *listener) stopRun(stopped chan struct{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped != stopped {
		return nil
	}
	return l.stopLocked()
}

func (l *listener) stopLocked() error {
	if l.ln == nil {
		return nil
	}

	close(l.stopped)
	atomic.StoreInt32(&l.running, 0)
	err := l.ln.Close()
	l.ln = nil
	l.port = 0

	if err != nil {
		l.logger.Error().Err(err).Msg("failed to close listener")
		return fmt.Errorf("failed to close %s listener: %w", l.name, err)
	}
	l.logger.Info().Msg("server stopped")
	return nil
}

// serve runs the accept loop, passing every accepted connection to dispatch.
func (l *listener) serve(ctx context.Context, dispatch func(conn net.Conn)) error {
	l.mu.Lock()
	if l.ln == nil {
		// a run that was stopped before its accept loop started has nothing left to serve
		pending := l.pending
		l.pending = false
		l.mu.Unlock()
		if pending {
			return nil
		}
		return errors2.New(errors2.NotRunning, l.name, "serve", nil)
	}
	if l.serving {
		l.mu.Unlock()
		return errors2.New(errors2.AlreadyRunning, l.name, "serve", nil)
	}
	l.serving = true
	l.pending = false
	l.active.Add(1)
	ln, stopped := l.ln, l.stopped
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.serving = false
		l.mu.Unlock()
		l.active.Done()
	}()

	// stop the listener on cancellation. this exits once the accept loop returns
	exited := make(chan struct{})
	defer close(exited)
	go func() {
		select {
		case <-ctx.Done():
			select {
			case <-exited:
				return
			default:
			}
			l.stopRun(stopped)
		case <-stopped:
		case <-exited:
		}
	}()

	var tempDelay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-stopped:
				return nil
			default:
			}

			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				if tempDelay == 0 {
					tempDelay = 5 * time.Millisecond
				} else {
					tempDelay *= 2
				}
				if max := 1 * time.Second; tempDelay > max {
					tempDelay = max
				}
				l.logger.Warn().Err(err).Dur("retry", tempDelay).Msg("temporary accept error")
				time.Sleep(tempDelay)
				continue
			}

			l.stopRun(stopped)
			l.logger.Error().Err(err).Msg("accept loop terminated")
			return errors2.New(errors2.ConnectionFailure, l.name, "accept", err)
		}
		tempDelay = 0

		dispatch(conn)
	}
}

// handle runs the handler on conn. Failures are isolated to the connection
func (l *listener) handle(conn net.Conn) {
	remote := conn.RemoteAddr()
	if err := l.handler.ServeConn(conn); err != nil {
		l.logger.Debug().
			Err(errors2.New(errors2.ConnectionFailure, l.name, "handle", err)).
			Str("remote", remote.String()).
			Msg("failed to handle connection")
		return
	}
	atomic.AddUint64(&l.handled, 1)
}

// markClosed prevents further Listen calls, stops the server if it is running and waits for the
// accept loop to exit
func (l *listener) markClosed() error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	err := l.Stop()
	l.active.Wait()
	return err
}
