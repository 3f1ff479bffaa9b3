package benchmark

import (
	"context"
	"testing"

	"github.com/assetnote/serverbench/pkg/loadtest"
	"github.com/assetnote/serverbench/pkg/server"
	"github.com/stretchr/testify/require"
)

type args struct {
	workers  int
	requests int
}

type test struct {
	name  string
	input args
}

var tests = []test{
	{"sequential", args{1, 50}},
	{"concurrent", args{10, 100}},
	{"saturated", args{50, 500}},
}

func benchmarkStrategy(b *testing.B, s server.Server) {
	require.NoError(b, s.Listen(0))
	go s.Serve(context.Background())
	defer s.Close()

	for _, test := range tests {
		b.Run(test.name, func(b *testing.B) {
			e := loadtest.NewEngine(
				loadtest.TargetHost("127.0.0.1"),
				loadtest.Workers(test.input.workers),
			)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				res, err := e.Run(context.Background(), s.Name(), s.Port(), test.input.requests)
				require.NoError(b, err)
				b.ReportMetric(res.RequestsPerSecond, "req/s")
				b.ReportMetric(res.SuccessRate, "success%")
			}
		})
	}
}

func BenchmarkSerialServer(b *testing.B) {
	s, err := server.NewSerialServer(server.Host("127.0.0.1"))
	require.NoError(b, err)
	benchmarkStrategy(b, s)
}

func BenchmarkPooledServer(b *testing.B) {
	s, err := server.NewPooledServer(server.Host("127.0.0.1"))
	require.NoError(b, err)
	benchmarkStrategy(b, s)
}
