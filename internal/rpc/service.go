// Package rpc exposes the planner over gRPC. Requests and responses travel
// as google.protobuf.Struct so the service needs no generated stubs.
package rpc

import (
	"context"
	"strings"

	"github.com/signalsfoundry/constellation-planner/internal/heuristic"
	"github.com/signalsfoundry/constellation-planner/internal/logging"
	"github.com/signalsfoundry/constellation-planner/internal/observability"
	"github.com/signalsfoundry/constellation-planner/internal/problem"
	"github.com/signalsfoundry/constellation-planner/internal/report"
	"github.com/signalsfoundry/constellation-planner/internal/search"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "constellation.planner.v1.PlannerService"
	PlanMethod  = "/" + ServiceName + "/Plan"
)

// PlannerServer is the server API of the planner service.
type PlannerServer interface {
	Plan(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the planner service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PlannerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Plan", Handler: planHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "constellation/planner/v1/planner.proto",
}

func planHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PlannerServer).Plan(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PlanMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PlannerServer).Plan(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterPlannerServer registers srv on s.
func RegisterPlannerServer(s grpc.ServiceRegistrar, srv PlannerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// PlannerService solves problems submitted over gRPC. Each call builds its
// own root state and engine, so concurrent calls share nothing but metrics.
type PlannerService struct {
	log           logging.Logger
	metrics       *observability.SearchCollector
	maxExpansions int
}

// ServiceOption customises PlannerService construction.
type ServiceOption func(*PlannerService)

// WithSearchMetrics records search and plan metrics on c.
func WithSearchMetrics(c *observability.SearchCollector) ServiceOption {
	return func(s *PlannerService) { s.metrics = c }
}

// WithExpansionCap bounds every request's search. Requests may ask for a
// lower limit but never a higher one. Zero means uncapped.
func WithExpansionCap(n int) ServiceOption {
	return func(s *PlannerService) { s.maxExpansions = n }
}

// NewPlannerService constructs the service.
func NewPlannerService(log logging.Logger, opts ...ServiceOption) *PlannerService {
	if log == nil {
		log = logging.Noop()
	}
	s := &PlannerService{log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan loads the submitted problem, searches it and returns the plan.
func (s *PlannerService) Plan(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	log := logging.FromContext(ctx, s.log)

	req, err := PlanRequestFromStruct(in)
	if err != nil {
		return nil, ToStatusError(err)
	}

	alg, err := search.ParseAlgorithm(req.Algorithm)
	if err != nil {
		return nil, ToStatusError(err)
	}
	format, err := problem.ParseFormat(req.Format)
	if err != nil {
		return nil, ToStatusError(err)
	}

	_, span := startChildSpan(ctx, "Plan/load", attribute.String("problem.format", string(format)))
	p, err := problem.Load(strings.NewReader(req.Problem), format)
	span.End()
	if err != nil {
		log.Warn(ctx, "rejecting plan request", logging.Err(err))
		return nil, ToStatusError(err)
	}

	h, err := selectHeuristic(alg, req.Heuristic, p.Heuristic)
	if err != nil {
		return nil, ToStatusError(err)
	}

	engine := search.New(
		search.WithLogger(log),
		search.WithMetrics(s.metrics),
		search.WithMaxExpansions(s.expansionLimit(req.MaxExpansions)),
	)
	res, err := engine.Run(ctx, alg, p.Root(h.Name()), h)
	if err != nil {
		return nil, ToStatusError(err)
	}

	actions := search.Trace(res.Goal)
	s.metrics.ObservePlan(res.Goal.G, res.Goal.Steps())

	rendered := make([]string, len(actions))
	for i, a := range actions {
		rendered[i] = a.String()
	}

	out, err := PlanResponse{
		PlanID:     logging.PlanIDFromContext(ctx),
		Cost:       res.Goal.G,
		Steps:      res.Goal.Steps(),
		Expansions: res.Expansions,
		Actions:    rendered,
		StepsTrace: report.StepLines(actions, len(p.Satellites)),
	}.ToStruct()
	if err != nil {
		return nil, ToStatusError(err)
	}
	return out, nil
}

func (s *PlannerService) expansionLimit(requested int) int {
	switch {
	case s.maxExpansions <= 0:
		return requested
	case requested <= 0 || requested > s.maxExpansions:
		return s.maxExpansions
	default:
		return requested
	}
}

// selectHeuristic prefers the request's selector over the problem's. BFS
// does not need one and falls back to Zero.
func selectHeuristic(alg search.Algorithm, requested, fromProblem string) (heuristic.Heuristic, error) {
	name := requested
	if name == "" {
		name = fromProblem
	}
	if name == "" && alg == search.AlgorithmBFS {
		return heuristic.Zero{}, nil
	}
	return heuristic.ByName(name)
}

// Client calls the planner service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Plan submits req and decodes the response.
func (c *Client) Plan(ctx context.Context, req PlanRequest, opts ...grpc.CallOption) (*PlanResponse, error) {
	in, err := req.ToStruct()
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, PlanMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return PlanResponseFromStruct(out)
}
