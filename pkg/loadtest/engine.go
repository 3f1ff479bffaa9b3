package loadtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond"
	errors2 "github.com/assetnote/serverbench/pkg/errors"
	"github.com/assetnote/serverbench/pkg/http"
	"github.com/assetnote/serverbench/pkg/log"
	"github.com/segmentio/ksuid"
)

// Engine drives load against a running server. Calling Run concurrently is safe; each call creates
// its own worker pool and client. The options are non-configurable after instantiation.
type Engine struct {
	config *Config
}

// NewEngine will create an engine with the provided options applied over the defaults
func NewEngine(opts ...ConfigOption) *Engine {
	e := &Engine{
		config: NewDefaultConfig(),
	}
	for _, o := range opts {
		o(e.config)
	}
	return e
}

// With returns a new engine using this engine's config with opts applied. The receiver is not modified
func (e *Engine) With(opts ...ConfigOption) *Engine {
	c := *e.config
	for _, o := range opts {
		o(&c)
	}
	return &Engine{config: &c}
}

// Config returns the config for the engine. Modifying it while a run is in progress is unsafe
func (e *Engine) Config() *Config {
	return e.config
}

// sample is the outcome of a single request
type sample struct {
	latency    time.Duration
	statusCode int
	err        error
}

// collector accumulates samples from every worker
type collector struct {
	mu      sync.Mutex
	samples []sample
}

func (c *collector) add(s sample) {
	c.mu.Lock()
	c.samples = append(c.samples, s)
	c.mu.Unlock()
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}

// Run sends count GET requests to the configured target host on port, with at most Workers requests in
// flight, and aggregates the results. server is the name of the strategy being measured and is only used
// to label the result.
//
// Individual request failures are recorded as unsuccessful samples. If the run does not complete
// within Timeout, an error of kind LoadTestTimeout is returned and the samples are discarded
func (e *Engine) Run(ctx context.Context, server string, port, count int) (*Result, error) {
	if err := e.config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to start. invalid settings: %w", err)
	}
	if count <= 0 {
		return nil, errors2.New(errors2.InvalidArgument, server, "test",
			fmt.Errorf("number of requests must be greater than 0, got %d", count))
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load test interrupted: %w", err)
	}

	var (
		runID      = ksuid.New().String()
		target     = http.NewTarget(e.config.TargetHost, port)
		httpConfig = e.config.HTTP
		pb         = e.config.ProgressBar
		logger     = log.Component("loadtest").With().Str("run", runID).Str("server", server).Logger()
		c          = &collector{samples: make([]sample, 0, count)}
	)
	if httpConfig.MaxConns < e.config.Workers {
		httpConfig.MaxConns = e.config.Workers
	}
	if pb == nil {
		pb = &NullProgressBar{}
	}
	client := http.NewHTTPClient(target.Host(), &httpConfig)

	// cancelled on timeout so queued requests are dropped instead of sent
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Debug().
		Str("target", target.String()).
		Int("requests", count).
		Int("workers", e.config.Workers).
		Dur("timeout", e.config.Timeout).
		Msg("starting load test")

	pb.AddTotal(int64(count))
	pool := pond.New(e.config.Workers, count)
	group := pool.Group()

	start := time.Now()
	timer := time.NewTimer(e.config.Timeout)
	defer timer.Stop()

	for i := 0; i < count; i++ {
		group.Submit(func() {
			select {
			case <-runCtx.Done():
				return
			default:
			}

			resp, err := http.DoGet(client, target, e.config.Path, &httpConfig)
			if err != nil {
				logger.Debug().Err(err).
					Str("target", target.String()).
					Dur("latency", resp.Latency).
					Msg("failed request")
			}
			// the run was abandoned while this request was in flight. Run has returned already
			if runCtx.Err() != nil {
				return
			}
			c.add(sample{latency: resp.Latency, statusCode: resp.StatusCode, err: err})
			pb.Incr(1)
		})
	}

	done := make(chan struct{})
	go func() {
		group.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-timer.C:
		cancel()
		// in-flight requests are bounded by the request timeout. let them drain in the background
		go pool.StopAndWait()
		completed := c.len()
		logger.Error().
			Int("completed", completed).
			Int("requests", count).
			Dur("timeout", e.config.Timeout).
			Msg("load test timed out")
		return nil, errors2.New(errors2.LoadTestTimeout, server, "test",
			fmt.Errorf("%d of %d requests completed within %s", completed, count, e.config.Timeout))
	case <-ctx.Done():
		cancel()
		go pool.StopAndWait()
		return nil, fmt.Errorf("load test interrupted: %w", ctx.Err())
	}

	totalTime := time.Since(start)
	pool.StopAndWait()

	// requests may have been skipped if the parent context was cancelled as the last ones completed
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load test interrupted: %w", err)
	}

	res := aggregate(c.samples, count, totalTime)
	res.RunID = runID
	res.Server = server
	res.Target = target.String()

	logger.Info().Object("result", res).Msg("load test complete")
	return res, nil
}
