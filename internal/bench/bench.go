package bench

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/assetnote/serverbench/pkg/loadtest"
	"github.com/assetnote/serverbench/pkg/log"
	"github.com/assetnote/serverbench/pkg/registry"
	"github.com/hashicorp/go-multierror"
)

const (
	DefaultPort     = 8080
	DefaultRequests = 50
)

type Options struct {
	Port        int       // Port each strategy is started on. 0 picks an ephemeral port
	Requests    int       // Requests is the number of requests sent to each strategy
	ProgressBar bool      // ProgressBar draws progress to Output while requests are in flight
	Output      io.Writer // Output is where progress bars are drawn
}

func NewDefaultOptions() *Options {
	return &Options{
		Port:        DefaultPort,
		Requests:    DefaultRequests,
		ProgressBar: true,
		Output:      os.Stderr,
	}
}

type Option func(*Options)

func Port(v int) Option {
	return func(o *Options) {
		o.Port = v
	}
}

func Requests(v int) Option {
	return func(o *Options) {
		o.Requests = v
	}
}

func ShowProgress(v bool) Option {
	return func(o *Options) {
		o.ProgressBar = v
	}
}

func Output(w io.Writer) Option {
	return func(o *Options) {
		o.Output = w
	}
}

// Run benchmarks each named strategy in turn: the strategy is started, load tested and stopped before
// the next one is started. A failing strategy does not prevent the others from running; the results of
// those that succeeded are returned along with the combined error
func Run(ctx context.Context, reg *registry.Registry, names []string, opts ...Option) ([]*loadtest.Result, error) {
	o := NewDefaultOptions()
	for _, v := range opts {
		v(o)
	}

	var mp *MultiProgress
	if o.ProgressBar && len(names) > 1 {
		mp = NewMultiProgress(o.Output)
		defer mp.Wait()
	}

	var (
		results = make([]*loadtest.Result, 0, len(names))
		result  error
	)
	for _, name := range names {
		select {
		case <-ctx.Done():
			return results, multierror.Append(result, ctx.Err())
		default:
		}

		var (
			pb   loadtest.ProgressBar = &loadtest.NullProgressBar{}
			done func(ok bool)
		)
		switch {
		case mp != nil:
			b := mp.Bar(name)
			pb, done = b, b.Done
		case o.ProgressBar:
			b := NewProgress(o.Output, 0)
			pb, done = b, func(bool) { b.Finish() }
		}

		res, err := runOne(ctx, reg, name, o, pb)
		if done != nil {
			done(err == nil)
		}
		if err != nil {
			log.Error().Err(err).Str("server", name).Msg("benchmark failed")
			result = multierror.Append(result, err)
			continue
		}
		results = append(results, res)
	}
	return results, result
}

func runOne(ctx context.Context, reg *registry.Registry, name string, o *Options, pb loadtest.ProgressBar) (res *loadtest.Result, err error) {
	if err := reg.StartServer(name, o.Port); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}
	defer func() {
		if serr := reg.StopServer(name); serr != nil {
			err = multierror.Append(err, fmt.Errorf("failed to stop %s: %w", name, serr))
		}
	}()

	status, err := reg.Status(name)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("server", name).Int("port", status.Port).Int("requests", o.Requests).Msg("running benchmark")
	return reg.RunLoadTestWith(ctx, name, status.Port, o.Requests, loadtest.AddProgressBar(pb))
}
