package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	errors2 "github.com/assetnote/serverbench/pkg/errors"
	"github.com/assetnote/serverbench/pkg/loadtest"
	"github.com/assetnote/serverbench/pkg/log"
	"github.com/assetnote/serverbench/pkg/server"
	"github.com/francoispqt/gojay"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// handle is retained for every Serve goroutine the registry launches so stop can join it
type handle struct {
	done chan struct{}
	err  error // err is the value returned by Serve. Only read after done is closed
}

func (h *handle) wait() error {
	<-h.done
	return h.err
}

// entry serialises start and stop for a single server
type entry struct {
	mu     sync.Mutex
	server server.Server
	handle *handle
}

// Status is a point in time view of a single server
type Status struct {
	Name    string
	Running bool
	Port    int
}

func (s *Status) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("name", s.Name)
	enc.BoolKey("running", s.Running)
	enc.IntKey("port", s.Port)
}

func (s *Status) IsNil() bool {
	return s == nil
}

// Registry owns a fixed set of named servers and the engine used to load test them.
// All methods are safe for concurrent use.
type Registry struct {
	entries map[string]*entry
	names   []string
	engine  *loadtest.Engine
	logger  zerolog.Logger

	// ctx is the parent of every Serve call. It is cancelled by Close
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a registry over servers. Server names must be unique
func New(engine *loadtest.Engine, servers ...server.Server) (*Registry, error) {
	if engine == nil {
		engine = loadtest.NewEngine()
	}

	r := &Registry{
		entries: make(map[string]*entry, len(servers)),
		names:   make([]string, 0, len(servers)),
		engine:  engine,
		logger:  log.Component("registry"),
	}
	for _, s := range servers {
		if _, ok := r.entries[s.Name()]; ok {
			return nil, fmt.Errorf("duplicate server name %q", s.Name())
		}
		r.entries[s.Name()] = &entry{server: s}
		r.names = append(r.names, s.Name())
	}
	sort.Strings(r.names)

	r.ctx, r.cancel = context.WithCancel(context.Background())
	return r, nil
}

// NewDefault creates a registry holding a SerialServer and a PooledServer built from sc, with an engine
// built from lc
func NewDefault(sc server.Config, lc loadtest.Config) (*Registry, error) {
	serial, err := server.NewSerialServer(server.WithConfig(sc))
	if err != nil {
		return nil, err
	}
	pooled, err := server.NewPooledServer(server.WithConfig(sc))
	if err != nil {
		return nil, err
	}
	return New(loadtest.NewEngine(loadtest.WithConfig(lc)), serial, pooled)
}

// Engine returns the engine used by RunLoadTest
func (r *Registry) Engine() *loadtest.Engine {
	return r.engine
}

func (r *Registry) lookup(name, op string) (*entry, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, errors2.New(errors2.UnknownServerType, name, op, nil)
	}
	return e, nil
}

// ListServers returns the names of every known server in lexical order
func (r *Registry) ListServers() []string {
	ret := make([]string, len(r.names))
	copy(ret, r.names)
	return ret
}

// StartServer binds the named server to port and serves it in the background.
// The bind happens before StartServer returns, so a subsequent IsServerRunning reports true and a bind
// failure is returned here
func (r *Registry) StartServer(name string, port int) error {
	e, err := r.lookup(name, "start")
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.server.IsRunning() {
		return errors2.New(errors2.AlreadyRunning, name, "start", nil)
	}
	// a previous run that terminated on its own. its handlers may still be draining
	if e.handle != nil {
		if err := e.handle.wait(); err != nil {
			r.logger.Warn().Err(err).Str("server", name).Msg("previous run terminated with error")
		}
		e.handle = nil
	}

	if err := e.server.Listen(port); err != nil {
		return err
	}

	h := &handle{done: make(chan struct{})}
	e.handle = h
	go func() {
		defer close(h.done)
		h.err = e.server.Serve(r.ctx)
		if h.err != nil {
			r.logger.Error().Err(h.err).Str("server", name).Msg("server terminated")
		}
	}()

	r.logger.Info().Str("server", name).Int("port", e.server.Port()).Msg("started server")
	return nil
}

// StopServer stops the named server and waits for its serve goroutine to exit.
// Stopping a server that is not running is a no-op
func (r *Registry) StopServer(name string) error {
	e, err := r.lookup(name, "stop")
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return r.stop(e)
}

// stop must be called with e.mu held
func (r *Registry) stop(e *entry) error {
	var result error
	if err := e.server.Stop(); err != nil {
		result = multierror.Append(result, err)
	}
	if e.handle != nil {
		if err := e.handle.wait(); err != nil {
			result = multierror.Append(result, err)
		}
		e.handle = nil
		r.logger.Info().Str("server", e.server.Name()).Msg("stopped server")
	}
	return result
}

// IsServerRunning reports whether the named server is accepting connections
func (r *Registry) IsServerRunning(name string) (bool, error) {
	e, err := r.lookup(name, "status")
	if err != nil {
		return false, err
	}
	return e.server.IsRunning(), nil
}

// Status returns the running state and bound port of the named server
func (r *Registry) Status(name string) (*Status, error) {
	e, err := r.lookup(name, "status")
	if err != nil {
		return nil, err
	}
	return &Status{
		Name:    name,
		Running: e.server.IsRunning(),
		Port:    e.server.Port(),
	}, nil
}

// RunLoadTest sends count requests to port on the registry's target host and returns the aggregate.
// The named server must be running; stopping it during the test causes the remaining requests to fail
// rather than the test
func (r *Registry) RunLoadTest(ctx context.Context, name string, port, count int) (*loadtest.Result, error) {
	return r.RunLoadTestWith(ctx, name, port, count)
}

// RunLoadTestWith is RunLoadTest with opts applied over the registry's engine config for this run only
func (r *Registry) RunLoadTestWith(ctx context.Context, name string, port, count int, opts ...loadtest.ConfigOption) (*loadtest.Result, error) {
	e, err := r.lookup(name, "test")
	if err != nil {
		return nil, err
	}
	if !e.server.IsRunning() {
		return nil, errors2.New(errors2.NotRunning, name, "test", nil)
	}
	engine := r.engine
	if len(opts) != 0 {
		engine = engine.With(opts...)
	}
	return engine.Run(ctx, name, port, count)
}

// Close stops every server, waits for them to exit and releases their resources.
// The registry cannot be used afterwards
func (r *Registry) Close() error {
	r.cancel()

	var result error
	for _, name := range r.names {
		e := r.entries[name]
		e.mu.Lock()
		if err := r.stop(e); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to stop %s: %w", name, err))
		}
		if err := e.server.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close %s: %w", name, err))
		}
		e.mu.Unlock()
	}
	return result
}
