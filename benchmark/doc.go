// Package benchmark holds go benchmarks comparing the dispatch models behind each server strategy.
// Run with go test -bench . ./benchmark
package benchmark
