package loadtest

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/francoispqt/gojay"
	"github.com/rs/zerolog"
)

// Result is the aggregate of a single load test run. It is not modified after Run returns
type Result struct {
	RunID  string // RunID is a KSUID identifying the run in the logs
	Server string // Server is the strategy name the run was performed against
	Target string // Target is the base url requests were sent to

	TotalRequests     int
	TotalTime         time.Duration // TotalTime is the wall clock time from submitting the first request to aggregation
	AverageTime       time.Duration // AverageTime is the mean latency over requests that received a response
	RequestsPerSecond float64       // RequestsPerSecond is TotalRequests / TotalTime, or 0 when TotalTime is 0
	SuccessRate       float64       // SuccessRate is the percentage (0-100) of requests that received a 2xx

	Successful int // Successful is the number of requests that received a 2xx
	Failed     int // Failed is TotalRequests - Successful
	Errors     int // Errors is the number of requests that failed before receiving a response

	// latency distribution over requests that received a response
	MinTime time.Duration
	MaxTime time.Duration
	P50     time.Duration
	P95     time.Duration
	P99     time.Duration
}

// aggregate computes the result over the samples. count is the number of requests submitted and
// is what the rates are computed against
func aggregate(samples []sample, count int, totalTime time.Duration) *Result {
	res := &Result{
		TotalRequests: count,
		TotalTime:     totalTime,
	}

	latencies := make([]time.Duration, 0, len(samples))
	var sum time.Duration
	for _, s := range samples {
		if s.err != nil {
			res.Errors++
			continue
		}
		if s.statusCode >= 200 && s.statusCode < 300 {
			res.Successful++
		}
		latencies = append(latencies, s.latency)
		sum += s.latency
	}
	res.Failed = count - res.Successful

	if count > 0 {
		res.SuccessRate = 100 * float64(res.Successful) / float64(count)
	}
	if secs := totalTime.Seconds(); secs > 0 {
		res.RequestsPerSecond = float64(count) / secs
	}

	if len(latencies) > 0 {
		res.AverageTime = sum / time.Duration(len(latencies))

		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		res.MinTime = latencies[0]
		res.MaxTime = latencies[len(latencies)-1]
		res.P50 = percentile(latencies, 50)
		res.P95 = percentile(latencies, 95)
		res.P99 = percentile(latencies, 99)
	}
	return res
}

// percentile uses the nearest-rank method over sorted latencies
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p * float64(len(sorted)) / 100))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

// millis converts to fractional milliseconds, which is how durations are reported externally
func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// TotalTimeMillis is TotalTime in fractional milliseconds. RequestsPerSecond is exactly
// TotalRequests / (TotalTimeMillis / 1000)
func (r *Result) TotalTimeMillis() float64 {
	return millis(r.TotalTime)
}

// AverageTimeMillis is AverageTime in fractional milliseconds
func (r *Result) AverageTimeMillis() float64 {
	return millis(r.AverageTime)
}

func (r *Result) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("runId", r.RunID)
	enc.StringKey("server", r.Server)
	enc.StringKey("target", r.Target)
	enc.IntKey("totalRequests", r.TotalRequests)
	enc.Float64Key("totalTime", r.TotalTimeMillis())
	enc.Float64Key("averageTime", r.AverageTimeMillis())
	enc.Float64Key("requestsPerSecond", r.RequestsPerSecond)
	enc.Float64Key("successRate", r.SuccessRate)
	enc.IntKey("successful", r.Successful)
	enc.IntKey("failed", r.Failed)
	enc.IntKey("errors", r.Errors)
	enc.Float64Key("minTime", millis(r.MinTime))
	enc.Float64Key("maxTime", millis(r.MaxTime))
	enc.Float64Key("p50", millis(r.P50))
	enc.Float64Key("p95", millis(r.P95))
	enc.Float64Key("p99", millis(r.P99))
}

func (r *Result) IsNil() bool {
	return r == nil
}

func (r *Result) MarshalZerologObject(e *zerolog.Event) {
	e.Int("requests", r.TotalRequests).
		Dur("total", r.TotalTime).
		Dur("avg", r.AverageTime).
		Float64("rps", r.RequestsPerSecond).
		Float64("success_rate", r.SuccessRate).
		Int("errors", r.Errors).
		Dur("p99", r.P99)
}

// AppendBytes will append a single line summary of the result
// e.g. Thread-Pool http://localhost:8081 requests=50 success=100.00% rps=1234.56 avg=1.23ms p99=4.56ms
func (r *Result) AppendBytes(b []byte) []byte {
	b = append(b, r.Server...)
	b = append(b, " "...)
	b = append(b, r.Target...)
	b = append(b, " requests="...)
	b = strconv.AppendInt(b, int64(r.TotalRequests), 10)
	b = append(b, " success="...)
	b = strconv.AppendFloat(b, r.SuccessRate, 'f', 2, 64)
	b = append(b, "% rps="...)
	b = strconv.AppendFloat(b, r.RequestsPerSecond, 'f', 2, 64)
	b = append(b, " avg="...)
	b = strconv.AppendFloat(b, r.AverageTimeMillis(), 'f', 2, 64)
	b = append(b, "ms p99="...)
	b = strconv.AppendFloat(b, millis(r.P99), 'f', 2, 64)
	b = append(b, "ms"...)
	return b
}

func (r *Result) String() string {
	return string(r.AppendBytes(nil))
}
