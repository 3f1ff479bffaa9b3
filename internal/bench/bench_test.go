package bench

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/assetnote/serverbench/pkg/loadtest"
	"github.com/assetnote/serverbench/pkg/registry"
	"github.com/assetnote/serverbench/pkg/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	sc := server.NewDefaultConfig()
	sc.Host = "127.0.0.1"
	lc := loadtest.NewDefaultConfig()
	lc.TargetHost = "127.0.0.1"

	r, err := registry.NewDefault(*sc, *lc)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRun(t *testing.T) {
	r := newTestRegistry(t)

	results, err := Run(context.Background(), r, r.ListServers(), Port(0), Requests(20), ShowProgress(false))
	require.NoError(t, err)
	require.Len(t, results, 2)

	for i, name := range r.ListServers() {
		assert.Equal(t, name, results[i].Server)
		assert.Equal(t, 20, results[i].TotalRequests)
		assert.Equal(t, float64(100), results[i].SuccessRate)

		// every strategy is stopped once benchmarked
		running, err := r.IsServerRunning(name)
		require.NoError(t, err)
		assert.False(t, running)
	}
}

func TestRunPartialFailure(t *testing.T) {
	r := newTestRegistry(t)

	results, err := Run(context.Background(), r, []string{"Multi-Process", server.PooledName},
		Port(0), Requests(10), ShowProgress(false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown server type")
	require.Len(t, results, 1)
	assert.Equal(t, server.PooledName, results[0].Server)
}

func TestRunCancelled(t *testing.T) {
	r := newTestRegistry(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := Run(ctx, r, r.ListServers(), Port(0), ShowProgress(false))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestRunProgress(t *testing.T) {
	tests := []struct {
		name  string
		names []string
	}{
		{name: "single", names: []string{server.PooledName}},
		{name: "multiple", names: []string{server.SerialName, server.PooledName}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistry(t)
			var buf bytes.Buffer

			results, err := Run(context.Background(), r, tt.names, Port(0), Requests(10), Output(&buf))
			require.NoError(t, err)
			assert.Len(t, results, len(tt.names))
			assert.NotZero(t, buf.Len())
		})
	}
}

func testResults() []*loadtest.Result {
	return []*loadtest.Result{
		{
			Server:            server.SerialName,
			Target:            "http://localhost:8080",
			TotalRequests:     1500,
			TotalTime:         1500 * time.Millisecond,
			AverageTime:       2 * time.Millisecond,
			RequestsPerSecond: 1000,
			SuccessRate:       100,
			Successful:        1500,
			P99:               3 * time.Millisecond,
		},
		{
			Server:            server.PooledName,
			Target:            "http://localhost:8081",
			TotalRequests:     1500,
			TotalTime:         500 * time.Millisecond,
			AverageTime:       time.Millisecond,
			RequestsPerSecond: 3000,
			SuccessRate:       99.5,
			Successful:        1493,
			Failed:            7,
			Errors:            7,
			P99:               2 * time.Millisecond,
		},
	}
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "json", testResults()))

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, server.SerialName, got[0]["server"])
	assert.Equal(t, float64(1500), got[0]["totalTime"])
	assert.Equal(t, float64(99.5), got[1]["successRate"])
	assert.Equal(t, float64(7), got[1]["errors"])
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "text", testResults()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Single-Threaded http://localhost:8080 requests=1500 success=100.00% rps=1000.00 avg=2.00ms p99=3.00ms", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Thread-Pool "))
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "pretty", testResults()))

	out := buf.String()
	assert.Contains(t, out, "SERVER")
	assert.Contains(t, out, "REQ/S")
	assert.Contains(t, out, server.PooledName)
	assert.Contains(t, out, "1,500")
	assert.Contains(t, out, "3,000")
	assert.Contains(t, out, "99.50%")
	assert.Contains(t, out, "1.5s")
}
