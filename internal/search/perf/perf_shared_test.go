//go:build perf || perf_large

package perf

import (
	"context"
	"strings"
	"testing"

	"github.com/signalsfoundry/constellation-planner/internal/heuristic"
	"github.com/signalsfoundry/constellation-planner/internal/problem"
	"github.com/signalsfoundry/constellation-planner/internal/search"
)

func loadProblem(b *testing.B, text string) *problem.Problem {
	b.Helper()
	p, err := problem.Load(strings.NewReader(text), problem.FormatText)
	if err != nil {
		b.Fatalf("load problem: %v", err)
	}
	return p
}

func benchmarkAStar(b *testing.B, text, heuristicName string) {
	p := loadProblem(b, text)
	h, err := heuristic.ByName(heuristicName)
	if err != nil {
		b.Fatalf("ByName: %v", err)
	}
	ctx := context.Background()
	engine := search.New()
	b.ReportAllocs()
	b.ResetTimer()

	expansions := 0
	for i := 0; i < b.N; i++ {
		res, err := engine.AStar(ctx, p.Root(h.Name()), h)
		if err != nil {
			b.Fatalf("AStar: %v", err)
		}
		expansions += res.Expansions
	}
	b.ReportMetric(float64(expansions)/float64(b.N), "expansions/op")
}

func benchmarkBFS(b *testing.B, text string) {
	p := loadProblem(b, text)
	ctx := context.Background()
	engine := search.New()
	b.ReportAllocs()
	b.ResetTimer()

	expansions := 0
	for i := 0; i < b.N; i++ {
		res, err := engine.BFS(ctx, p.Root(""))
		if err != nil {
			b.Fatalf("BFS: %v", err)
		}
		expansions += res.Expansions
	}
	b.ReportMetric(float64(expansions)/float64(b.N), "expansions/op")
}
