package bench

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/assetnote/serverbench/pkg/loadtest"
	"github.com/dustin/go-humanize"
	"github.com/francoispqt/gojay"
	"github.com/olekukonko/tablewriter"
	"github.com/valyala/bytebufferpool"
)

// Results is a list of load test results that can be encoded as a json array
type Results []*loadtest.Result

func (r Results) MarshalJSONArray(enc *gojay.Encoder) {
	for _, v := range r {
		enc.Object(v)
	}
}

func (r Results) IsNil() bool {
	return r == nil
}

// Render writes the results in the requested format: json, text or pretty. Unknown formats are
// rendered as pretty
func Render(w io.Writer, format string, results []*loadtest.Result) error {
	switch format {
	case "json":
		return renderJSON(w, results)
	case "text":
		return renderText(w, results)
	default:
		renderTable(w, results)
		return nil
	}
}

func renderJSON(w io.Writer, results []*loadtest.Result) error {
	b, err := gojay.MarshalJSONArray(Results(results))
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	b = append(b, '\n')
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

func renderText(w io.Writer, results []*loadtest.Result) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	for _, v := range results {
		buf.B = v.AppendBytes(buf.B)
		buf.B = append(buf.B, '\n')
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

func renderTable(w io.Writer, results []*loadtest.Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"server", "requests", "success", "errors", "total", "avg", "p50", "p95", "p99", "req/s"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)

	for _, v := range results {
		table.Append([]string{
			v.Server,
			humanize.Comma(int64(v.TotalRequests)),
			strconv.FormatFloat(v.SuccessRate, 'f', 2, 64) + "%",
			humanize.Comma(int64(v.Errors)),
			v.TotalTime.Round(time.Millisecond).String(),
			formatMillis(v.AverageTime),
			formatMillis(v.P50),
			formatMillis(v.P95),
			formatMillis(v.P99),
			humanize.Commaf(math.Round(v.RequestsPerSecond*100) / 100),
		})
	}
	table.Render()
}

func formatMillis(d time.Duration) string {
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 2, 64) + "ms"
}
