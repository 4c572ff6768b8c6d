package rpc

import (
	"context"
	"errors"

	"github.com/signalsfoundry/constellation-planner/internal/heuristic"
	"github.com/signalsfoundry/constellation-planner/internal/problem"
	"github.com/signalsfoundry/constellation-planner/internal/search"
	"github.com/signalsfoundry/constellation-planner/internal/sim/state"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ToStatusError maps planner errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, problem.ErrParse),
		errors.Is(err, problem.ErrConfig),
		errors.Is(err, heuristic.ErrUnknownHeuristic),
		errors.Is(err, search.ErrUnknownAlgorithm),
		errors.Is(err, state.ErrInfeasibleAction):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, search.ErrNoSolution):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, search.ErrExpansionLimit):
		return status.Error(codes.ResourceExhausted, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
