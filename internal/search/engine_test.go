package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/signalsfoundry/constellation-planner/internal/heuristic"
	"github.com/signalsfoundry/constellation-planner/internal/sim/state"
	"github.com/signalsfoundry/constellation-planner/model"
)

func unitSpec(maxBattery int) model.SatelliteSpec {
	return model.SatelliteSpec{
		MeasurementCost: 1,
		DownlinkCost:    1,
		TurnCost:        1,
		BatteryRecharge: 1,
		MaxBattery:      maxBattery,
	}
}

// singleObjectRoot is one object at band 0, hour 1 and one satellite at
// band 0 whose battery holds exactly one action.
func singleObjectRoot(h string) *state.State {
	return state.New(
		[]model.Satellite{model.NewSatellite(0, unitSpec(1))},
		[]model.Object{model.NewObject(0, 1)},
		h,
	)
}

func kindsOf(actions []state.Action) map[state.ActionKind]int {
	counts := make(map[state.ActionKind]int)
	for _, a := range actions {
		counts[a.Kind]++
	}
	return counts
}

func indexOf(actions []state.Action, kind state.ActionKind) int {
	for i, a := range actions {
		if a.Kind == kind {
			return i
		}
	}
	return -1
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes []string
	expanded int
	progress int
}

func (f *fakeRecorder) ObserveSearch(_, _, outcome string, expansions int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, outcome)
	f.expanded += expansions
}

func (f *fakeRecorder) SetSearchProgress(string, int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress++
}

func TestAStarSingleObjectPlan(t *testing.T) {
	for _, name := range []string{"h1", "h2"} {
		t.Run(name, func(t *testing.T) {
			h, err := heuristic.ByName(name)
			if err != nil {
				t.Fatalf("ByName: %v", err)
			}
			root := singleObjectRoot(name)

			res, err := New().AStar(context.Background(), root, h)
			if err != nil {
				t.Fatalf("AStar: %v", err)
			}
			goal := res.Goal
			if goal == nil || !goal.IsGoal() {
				t.Fatalf("AStar returned non-goal %+v", goal)
			}
			if goal.G != 2 {
				t.Fatalf("cost = %v, want measurement + downlink = 2", goal.G)
			}
			if goal.Downlinked != 1 {
				t.Fatalf("Downlinked = %d, want 1", goal.Downlinked)
			}
			if res.Expansions <= 0 {
				t.Fatalf("Expansions = %d, want > 0", res.Expansions)
			}

			actions := Trace(goal)
			kinds := kindsOf(actions)
			if kinds[state.Measure] != 1 || kinds[state.Downlink] != 1 {
				t.Fatalf("plan %v: want exactly one measure and one downlink", actions)
			}
			if indexOf(actions, state.Measure) > indexOf(actions, state.Downlink) {
				t.Fatalf("plan %v downlinks before measuring", actions)
			}
			if len(actions) != goal.Steps() {
				t.Fatalf("trace has %d actions, goal is at step %d", len(actions), goal.Steps())
			}
		})
	}
}

func TestBFSSingleObjectPlan(t *testing.T) {
	res, err := New().BFS(context.Background(), singleObjectRoot("h1"))
	if err != nil {
		t.Fatalf("BFS: %v", err)
	}
	if res.Goal == nil || res.Goal.Downlinked != 1 {
		t.Fatalf("BFS goal = %+v", res.Goal)
	}
	if res.Algorithm != AlgorithmBFS {
		t.Fatalf("Algorithm = %q, want bfs", res.Algorithm)
	}
	// Idle to hour 1, measure, recharge the drained battery, downlink.
	if got := res.Goal.Steps(); got != 4 {
		t.Fatalf("BFS steps = %d, want 4", got)
	}
}

// twoByTwoRoot is the default two-satellite layout (bands 0 and 1) with unit
// costs and two objects.
func twoByTwoRoot(maxBattery int, objects ...model.Object) *state.State {
	return state.New(
		[]model.Satellite{model.NewSatellite(0, unitSpec(maxBattery)), model.NewSatellite(1, unitSpec(maxBattery))},
		objects,
		"",
	)
}

func TestBFSAndAStarOnTwoSatellitesTwoObjects(t *testing.T) {
	type plan struct {
		steps int
		cost  float64
	}
	tests := []struct {
		name       string
		maxBattery int
		objects    []model.Object
		bfs        plan
		astar      map[string]plan
	}{
		{
			name:       "no idle on the cheapest plan",
			maxBattery: 1,
			objects:    []model.Object{model.NewObject(0, 0), model.NewObject(1, 1)},
			bfs:        plan{steps: 4, cost: 4},
			astar:      map[string]plan{"h1": {4, 4}, "h2": {4, 4}},
		},
		{
			name:       "objects a band apart",
			maxBattery: 2,
			objects:    []model.Object{model.NewObject(0, 1), model.NewObject(2, 3)},
			bfs:        plan{steps: 5, cost: 4},
			astar:      map[string]plan{"h1": {5, 4}, "h2": {5, 4}},
		},
		{
			// Waiting a day for the later object is free; turning to it is not.
			name:       "idling beats turning",
			maxBattery: 1,
			objects:    []model.Object{model.NewObject(0, 0), model.NewObject(0, 2)},
			bfs:        plan{steps: 5, cost: 5},
			astar:      map[string]plan{"h1": {15, 4}, "h2": {7, 4}},
		},
	}

	ctx := context.Background()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bfs, err := New().BFS(ctx, twoByTwoRoot(tc.maxBattery, tc.objects...))
			if err != nil {
				t.Fatalf("BFS: %v", err)
			}
			if got := (plan{bfs.Goal.Steps(), bfs.Goal.G}); got != tc.bfs {
				t.Fatalf("BFS plan = %+v, want %+v", got, tc.bfs)
			}

			for _, h := range []heuristic.Heuristic{heuristic.H1{}, heuristic.H2{}} {
				astar, err := New().AStar(ctx, twoByTwoRoot(tc.maxBattery, tc.objects...), h)
				if err != nil {
					t.Fatalf("AStar(%s): %v", h.Name(), err)
				}
				got := plan{astar.Goal.Steps(), astar.Goal.G}
				if got != tc.astar[h.Name()] {
					t.Fatalf("AStar(%s) plan = %+v, want %+v", h.Name(), got, tc.astar[h.Name()])
				}
				// BFS minimises steps, A* minimises energy.
				if got.cost > bfs.Goal.G {
					t.Fatalf("AStar(%s) cost %v exceeds BFS cost %v", h.Name(), got.cost, bfs.Goal.G)
				}
				if got.steps < bfs.Goal.Steps() {
					t.Fatalf("AStar(%s) steps %d below BFS steps %d", h.Name(), got.steps, bfs.Goal.Steps())
				}
			}
		})
	}
}

func TestTurnPrecedesMeasureOfOutOfReachObject(t *testing.T) {
	// A lone satellite at band 0 sees bands 0 and 1; the object sits in band 2.
	root := state.New(
		[]model.Satellite{model.NewSatellite(0, unitSpec(3))},
		[]model.Object{model.NewObject(2, 3)},
		"h1",
	)

	for _, alg := range []Algorithm{AlgorithmAStar, AlgorithmBFS} {
		t.Run(string(alg), func(t *testing.T) {
			res, err := New().Run(context.Background(), alg, root, heuristic.H1{})
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			actions := Trace(res.Goal)
			turn := indexOf(actions, state.Turn)
			measure := indexOf(actions, state.Measure)
			if turn < 0 || measure < 0 || turn > measure {
				t.Fatalf("plan %v: want a turn before the measurement", actions)
			}
		})
	}
}

func TestCoveredBandNeedsNoTurn(t *testing.T) {
	// Satellites at bands 0 and 2 already see band 1 from band 0.
	root := state.New(
		[]model.Satellite{model.NewSatellite(0, unitSpec(2)), model.NewSatellite(2, unitSpec(2))},
		[]model.Object{model.NewObject(1, 0)},
		"h1",
	)
	res, err := New().AStar(context.Background(), root, heuristic.H1{})
	if err != nil {
		t.Fatalf("AStar: %v", err)
	}
	if res.Goal.G != 2 {
		t.Fatalf("cost = %v, want 2", res.Goal.G)
	}
	if kinds := kindsOf(Trace(res.Goal)); kinds[state.Turn] != 0 {
		t.Fatalf("plan turned although band 1 was covered: %v", Trace(res.Goal))
	}
	if res.Goal.Satellites[0].Hour != res.Goal.Satellites[1].Hour {
		t.Fatalf("goal satellites are not synchronised")
	}
}

func TestTraceReplayReproducesGoal(t *testing.T) {
	newRoot := func() *state.State {
		return state.New(
			[]model.Satellite{model.NewSatellite(0, unitSpec(2)), model.NewSatellite(1, unitSpec(2))},
			[]model.Object{model.NewObject(0, 1), model.NewObject(2, 2)},
			"h2",
		)
	}

	res, err := New().AStar(context.Background(), newRoot(), heuristic.H2{})
	if err != nil {
		t.Fatalf("AStar: %v", err)
	}
	actions := Trace(res.Goal)

	replayed, err := Replay(newRoot(), actions)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if replayed.G != res.Goal.G {
		t.Fatalf("replayed cost = %v, want %v", replayed.G, res.Goal.G)
	}
	if replayed.Downlinked != res.Goal.Downlinked {
		t.Fatalf("replayed Downlinked = %d, want %d", replayed.Downlinked, res.Goal.Downlinked)
	}
	if replayed.Key() != res.Goal.Key() || !replayed.IsGoal() {
		t.Fatalf("replayed state differs from goal")
	}

	// g never decreases along the returned path.
	for node := res.Goal; node.Parent() != nil; node = node.Parent() {
		if node.G < node.Parent().G {
			t.Fatalf("cost decreased along the path")
		}
	}
}

func TestNoSolutionIsReportedNotPanicked(t *testing.T) {
	// The battery can never cover a measurement, so only idling is possible.
	sat := model.NewSatellite(0, model.SatelliteSpec{MeasurementCost: 1, DownlinkCost: 1, TurnCost: 1, MaxBattery: 0})
	newRoot := func() *state.State {
		return state.New([]model.Satellite{sat}, []model.Object{model.NewObject(0, 0)}, "h1")
	}

	rec := &fakeRecorder{}
	engine := New(WithMetrics(rec))

	res, err := engine.AStar(context.Background(), newRoot(), heuristic.H1{})
	if !errors.Is(err, ErrNoSolution) {
		t.Fatalf("AStar err = %v, want ErrNoSolution", err)
	}
	if res.Goal != nil {
		t.Fatalf("AStar returned a goal without a solution")
	}
	if res.Expansions != model.HoursPerDay {
		t.Fatalf("Expansions = %d, want one per clock hour (%d)", res.Expansions, model.HoursPerDay)
	}

	if _, err := engine.BFS(context.Background(), newRoot()); !errors.Is(err, ErrNoSolution) {
		t.Fatalf("BFS err = %v, want ErrNoSolution", err)
	}

	if len(rec.outcomes) != 2 || rec.outcomes[0] != OutcomeNoSolution || rec.outcomes[1] != OutcomeNoSolution {
		t.Fatalf("recorded outcomes = %v", rec.outcomes)
	}
}

func TestExpansionLimit(t *testing.T) {
	res, err := New(WithMaxExpansions(1)).AStar(context.Background(), singleObjectRoot("h1"), heuristic.H1{})
	if !errors.Is(err, ErrExpansionLimit) {
		t.Fatalf("err = %v, want ErrExpansionLimit", err)
	}
	if res.Expansions != 1 {
		t.Fatalf("Expansions = %d, want 1", res.Expansions)
	}
}

func TestGoalPoppedOnLastBudgetedExpansionIsReturned(t *testing.T) {
	for _, h := range []heuristic.Heuristic{heuristic.H1{}, heuristic.H2{}} {
		t.Run(h.Name(), func(t *testing.T) {
			free, err := New().AStar(context.Background(), singleObjectRoot(h.Name()), h)
			if err != nil {
				t.Fatalf("AStar: %v", err)
			}

			res, err := New(WithMaxExpansions(free.Expansions)).AStar(context.Background(), singleObjectRoot(h.Name()), h)
			if err != nil {
				t.Fatalf("AStar with budget %d: %v", free.Expansions, err)
			}
			if res.Goal == nil || res.Goal.G != free.Goal.G {
				t.Fatalf("budgeted goal = %+v, want cost %v", res.Goal, free.Goal.G)
			}

			_, err = New(WithMaxExpansions(free.Expansions-1)).AStar(context.Background(), singleObjectRoot(h.Name()), h)
			if !errors.Is(err, ErrExpansionLimit) {
				t.Fatalf("budget %d: err = %v, want ErrExpansionLimit", free.Expansions-1, err)
			}
		})
	}
}

func TestCanceledContextStopsSearch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &fakeRecorder{}
	_, err := New(WithMetrics(rec)).BFS(ctx, singleObjectRoot("h1"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0] != OutcomeCanceled {
		t.Fatalf("recorded outcomes = %v", rec.outcomes)
	}
}

func TestRootGoalIsReturnedImmediately(t *testing.T) {
	root := state.New([]model.Satellite{model.NewSatellite(0, unitSpec(1))}, nil, "h1")
	for _, alg := range []Algorithm{AlgorithmAStar, AlgorithmBFS} {
		res, err := New().Run(context.Background(), alg, root, heuristic.H1{})
		if err != nil {
			t.Fatalf("%s: %v", alg, err)
		}
		if res.Goal != root || res.Expansions != 0 {
			t.Fatalf("%s: goal=%p expansions=%d, want root and 0", alg, res.Goal, res.Expansions)
		}
		if len(Trace(res.Goal)) != 0 {
			t.Fatalf("%s: root trace is not empty", alg)
		}
	}
}

func TestMetricsRecordedOnSuccess(t *testing.T) {
	rec := &fakeRecorder{}
	res, err := New(WithMetrics(rec), WithProgressInterval(1)).AStar(context.Background(), singleObjectRoot("h1"), heuristic.H1{})
	if err != nil {
		t.Fatalf("AStar: %v", err)
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0] != OutcomeSolved {
		t.Fatalf("recorded outcomes = %v", rec.outcomes)
	}
	if rec.expanded != res.Expansions {
		t.Fatalf("recorded expansions = %d, want %d", rec.expanded, res.Expansions)
	}
	// One progress report per expansion plus the final one.
	if rec.progress != res.Expansions+1 {
		t.Fatalf("progress reports = %d, want %d", rec.progress, res.Expansions+1)
	}
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    Algorithm
		wantErr bool
	}{
		{in: "astar", want: AlgorithmAStar},
		{in: "A*", want: AlgorithmAStar},
		{in: "", want: AlgorithmAStar},
		{in: "BFS", want: AlgorithmBFS},
		{in: "dfs", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseAlgorithm(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrUnknownAlgorithm) {
				t.Fatalf("ParseAlgorithm(%q) err = %v, want ErrUnknownAlgorithm", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ParseAlgorithm(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}
