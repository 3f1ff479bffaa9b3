package server

import (
	"context"
	"net"
	"sync"

	"github.com/alitto/pond"
)

// PooledServer accepts connections on one goroutine and hands them to a fixed size worker pool.
// Up to PoolSize connections are handled concurrently; further accepted connections wait in the pool
// queue (QueueSize) and the accept loop blocks once the queue is full.
//
// The pool is created once and reused across start/stop cycles. Stop closes the listener and Serve
// returns after the handlers for that run have completed. Close stops the pool for good.
type PooledServer struct {
	*listener
	pool      *pond.WorkerPool
	closeOnce sync.Once
}

var _ Server = &PooledServer{}

func NewPooledServer(opts ...ConfigOption) (*PooledServer, error) {
	l, err := newListener(PooledName, opts...)
	if err != nil {
		return nil, err
	}

	s := &PooledServer{listener: l}
	s.pool = pond.New(l.config.PoolSize, l.config.QueueSize,
		pond.PanicHandler(func(p interface{}) {
			s.logger.Error().Interface("panic", p).Msg("connection handler panicked")
		}),
	)
	return s, nil
}

func (s *PooledServer) Serve(ctx context.Context) error {
	group := s.pool.Group()
	err := s.serve(ctx, func(conn net.Conn) {
		group.Submit(func() {
			s.handle(conn)
		})
	})

	// let in-flight connections finish before reporting the run as done
	group.Wait()
	s.logger.Debug().
		Uint64("completed", s.pool.CompletedTasks()).
		Int("running_workers", s.pool.RunningWorkers()).
		Msg("pool drained")
	return err
}

func (s *PooledServer) Start(ctx context.Context, port int) error {
	if err := s.Listen(port); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// PoolSize returns the number of workers handling connections
func (s *PooledServer) PoolSize() int {
	return s.pool.MaxWorkers()
}

func (s *PooledServer) Close() error {
	err := s.markClosed()
	s.closeOnce.Do(s.pool.StopAndWait)
	return err
}
