package benchmark

import (
	"sync"
	"testing"

	"github.com/alitto/pond"
)

// work stands in for handling a single connection
func work(n *int64, mu *sync.Mutex) {
	mu.Lock()
	*n++
	mu.Unlock()
}

func BenchmarkDispatchInline(b *testing.B) {
	var (
		n  int64
		mu sync.Mutex
	)
	for i := 0; i < b.N; i++ {
		work(&n, &mu)
	}
}

func BenchmarkDispatchGoroutine(b *testing.B) {
	var (
		n  int64
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for i := 0; i < b.N; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			work(&n, &mu)
		}()
	}
	wg.Wait()
}

func BenchmarkDispatchPool(b *testing.B) {
	tests := []struct {
		name    string
		workers int
		queue   int
	}{
		{"10 workers", 10, 1000},
		{"100 workers", 100, 1000},
		{"unbuffered", 10, 0},
	}
	for _, test := range tests {
		b.Run(test.name, func(b *testing.B) {
			var (
				n  int64
				mu sync.Mutex
			)
			pool := pond.New(test.workers, test.queue)
			defer pool.StopAndWait()

			group := pool.Group()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				group.Submit(func() {
					work(&n, &mu)
				})
			}
			group.Wait()
		})
	}
}
