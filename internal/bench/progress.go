package bench

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/assetnote/serverbench/pkg/loadtest"
	"github.com/schollz/progressbar/v3"
	"github.com/vbauerster/mpb/v6"
	"github.com/vbauerster/mpb/v6/decor"
)

// ProgressBar renders a single load test run as a spinner with a request counter
type ProgressBar struct {
	Requests *progressbar.ProgressBar
}

var _ loadtest.ProgressBar = &ProgressBar{}

func NewProgress(w io.Writer, max int64) *ProgressBar {
	requestb := progressbar.NewOptions64(max,
		progressbar.OptionSetWriter(w),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowIts(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetVisibility(true),
		progressbar.OptionSpinnerType(14),
	)
	return &ProgressBar{
		Requests: requestb,
	}
}

func (b *ProgressBar) Incr(n int64) {
	b.Requests.Add64(n)
}

func (b *ProgressBar) AddTotal(n int64) {
	b.Requests.ChangeMax64(b.Requests.GetMax64() + n)
}

func (b *ProgressBar) Finish() {
	b.Requests.Finish()
}

// MultiProgress stacks one bar per strategy when several are run back to back
type MultiProgress struct {
	Pb *mpb.Progress
}

func NewMultiProgress(w io.Writer) *MultiProgress {
	return &MultiProgress{
		Pb: mpb.New(
			mpb.WithOutput(w),
			mpb.WithRefreshRate(65*time.Millisecond),
		),
	}
}

// Bar adds a bar labelled name. The total is set by the engine through AddTotal
func (m *MultiProgress) Bar(name string) *Bar {
	return &Bar{
		bar: m.Pb.AddBar(0,
			mpb.PrependDecorators(
				decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DidentRight}),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(
				decor.Percentage(decor.WC{W: 5}),
			),
		),
	}
}

// Wait blocks until every bar has completed or been aborted
func (m *MultiProgress) Wait() {
	m.Pb.Wait()
}

// Bar is a single strategy's bar within a MultiProgress
type Bar struct {
	bar   *mpb.Bar
	total int64
}

var _ loadtest.ProgressBar = &Bar{}

func (b *Bar) Incr(n int64) {
	b.bar.IncrInt64(n)
}

func (b *Bar) AddTotal(n int64) {
	b.bar.SetTotal(atomic.AddInt64(&b.total, n), false)
}

// Done completes the bar. A run that failed part way leaves the bar short of its total, so it is
// aborted instead
func (b *Bar) Done(ok bool) {
	if ok {
		b.bar.SetTotal(atomic.LoadInt64(&b.total), true)
		return
	}
	b.bar.Abort(false)
}
