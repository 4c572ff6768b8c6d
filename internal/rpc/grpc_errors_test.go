package rpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/signalsfoundry/constellation-planner/internal/heuristic"
	"github.com/signalsfoundry/constellation-planner/internal/logging"
	"github.com/signalsfoundry/constellation-planner/internal/problem"
	"github.com/signalsfoundry/constellation-planner/internal/search"
	"github.com/signalsfoundry/constellation-planner/internal/sim/state"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestToStatusError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"parse", fmt.Errorf("line 1: %w", problem.ErrParse), codes.InvalidArgument},
		{"config", problem.ErrConfig, codes.InvalidArgument},
		{"heuristic", heuristic.ErrUnknownHeuristic, codes.InvalidArgument},
		{"algorithm", search.ErrUnknownAlgorithm, codes.InvalidArgument},
		{"request", ErrInvalidRequest, codes.InvalidArgument},
		{"infeasible", state.ErrInfeasibleAction, codes.InvalidArgument},
		{"no solution", search.ErrNoSolution, codes.NotFound},
		{"limit", fmt.Errorf("%w: 10 expansions", search.ErrExpansionLimit), codes.ResourceExhausted},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"canceled", context.Canceled, codes.Canceled},
		{"other", errors.New("boom"), codes.Internal},
		{"already status", status.Error(codes.Unavailable, "down"), codes.Unavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := status.Code(ToStatusError(tc.err)); got != tc.want {
				t.Fatalf("ToStatusError(%v) code = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
	if ToStatusError(nil) != nil {
		t.Fatalf("ToStatusError(nil) should be nil")
	}
}

func TestPlanRequestFromStruct(t *testing.T) {
	good, err := structpb.NewStruct(map[string]any{
		"problem":        "OBS: (0,1)\nSAT1: 1;1;1;1;1\n",
		"heuristic":      "h2",
		"algorithm":      "bfs",
		"max_expansions": 50,
	})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	req, err := PlanRequestFromStruct(good)
	if err != nil {
		t.Fatalf("PlanRequestFromStruct: %v", err)
	}
	if req.Heuristic != "h2" || req.Algorithm != "bfs" || req.MaxExpansions != 50 {
		t.Fatalf("request = %+v", req)
	}

	bad := []map[string]any{
		{"heuristic": "h1"},
		{"problem": 7},
		{"problem": "x", "max_expansions": 1.5},
		{"problem": "x", "max_expansions": -1},
		{"problem": "x", "priority": "high"},
	}
	for _, fields := range bad {
		s, err := structpb.NewStruct(fields)
		if err != nil {
			t.Fatalf("NewStruct(%v): %v", fields, err)
		}
		if _, err := PlanRequestFromStruct(s); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("PlanRequestFromStruct(%v) err = %v, want ErrInvalidRequest", fields, err)
		}
	}
}

func TestPlanResponseStructRoundTrip(t *testing.T) {
	in := PlanResponse{
		PlanID:     "p1",
		Cost:       3.5,
		Steps:      2,
		Expansions: 11,
		Actions:    []string{"SAT1: IDLE", "SAT1: Measure O1"},
		StepsTrace: []string{"1. SAT1: IDLE", "2. SAT1: Measure O1"},
	}
	s, err := in.ToStruct()
	if err != nil {
		t.Fatalf("ToStruct: %v", err)
	}
	out, err := PlanResponseFromStruct(s)
	if err != nil {
		t.Fatalf("PlanResponseFromStruct: %v", err)
	}
	if out.PlanID != in.PlanID || out.Cost != in.Cost || out.Steps != in.Steps || out.Expansions != in.Expansions {
		t.Fatalf("decoded = %+v, want %+v", out, in)
	}
	if len(out.Actions) != 2 || out.Actions[1] != "SAT1: Measure O1" || len(out.StepsTrace) != 2 {
		t.Fatalf("decoded lists = %q / %q", out.Actions, out.StepsTrace)
	}
}

func TestPlanIDInterceptorUsesInboundMetadata(t *testing.T) {
	interceptor := PlanIDUnaryServerInterceptor(nil)
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(PlanIDMetadataKey, "abc"))

	var seen string
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: PlanMethod}, func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = logging.PlanIDFromContext(ctx)
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if seen != "abc" {
		t.Fatalf("plan_id = %q, want abc", seen)
	}
}

func TestPlanIDInterceptorMintsID(t *testing.T) {
	interceptor := PlanIDUnaryServerInterceptor(logging.Noop())

	var seen string
	_, _ = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: PlanMethod}, func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = logging.PlanIDFromContext(ctx)
		return nil, nil
	})
	if seen == "" {
		t.Fatalf("interceptor did not mint a plan_id")
	}
}

func TestTracingInterceptorPassesErrorsThrough(t *testing.T) {
	want := status.Error(codes.NotFound, "nothing")
	_, err := TracingUnaryServerInterceptor()(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: PlanMethod}, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, want
	})
	if err != want {
		t.Fatalf("err = %v, want %v", err, want)
	}
}
